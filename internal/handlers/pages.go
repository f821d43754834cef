package handlers

import (
	"context"
	"encoding/json"
	"html"
	"os"
	"path/filepath"
	"strings"

	routeerr "sockroute/internal/errors"
	"sockroute/internal/paths"
	"sockroute/internal/request"
	"sockroute/internal/response"
)

// NoFilesBody replaces the links token when the web root is empty.
const NoFilesBody = "No files in directory"

// Root renders the root page with the web root's file list substituted in.
func (s *Set) Root(ctx context.Context, req *request.Request) (response.Response, error) {
	page, err := os.ReadFile(filepath.Join(s.opts.WebRoot, s.opts.RootPage))
	if err != nil {
		return response.Response{}, routeerr.NewRouteError(routeerr.InternalError, err.Error(), err)
	}

	links, err := s.fileList()
	if err != nil {
		return response.Response{}, routeerr.NewRouteError(routeerr.InternalError, err.Error(), err)
	}

	body := strings.ReplaceAll(string(page), s.opts.LinksToken, links)
	return response.OK(response.HTML, body), nil
}

func (s *Set) fileList() (string, error) {
	entries, err := os.ReadDir(s.opts.WebRoot)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return NoFilesBody, nil
	}

	var b strings.Builder
	b.WriteString("<ul>\n")
	for _, e := range entries {
		b.WriteString("<li>")
		b.WriteString(html.EscapeString(e.Name()))
		b.WriteString("</li>")
	}
	b.WriteString("</ul>\n")
	return b.String(), nil
}

type imageJSON struct {
	Header string `json:"header"`
	Image  string `json:"image"`
}

// JSON returns one catalog entry chosen uniformly at random.
func (s *Set) JSON(ctx context.Context, req *request.Request) (response.Response, error) {
	entry := s.catalog.Pick(s.rng.Intn)

	data, err := json.Marshal(imageJSON{Header: entry.Label, Image: entry.URL})
	if err != nil {
		return response.Response{}, routeerr.NewRouteError(routeerr.InternalError, err.Error(), err)
	}
	return response.OK(response.JSON, string(data)), nil
}

// RandomPage serves the static random-image page.
func (s *Set) RandomPage(ctx context.Context, req *request.Request) (response.Response, error) {
	page, err := os.ReadFile(filepath.Join(s.opts.WebRoot, s.opts.RandomPage))
	if err != nil {
		return response.Response{}, routeerr.NewRouteError(routeerr.InternalError, err.Error(), err)
	}
	return response.OK(response.HTML, string(page)), nil
}

// File reports whether the named file exists. Contents are never served.
func (s *Set) File(ctx context.Context, req *request.Request) (response.Response, error) {
	name := strings.ReplaceAll(req.Path, MarkerFile, "")
	target := name
	if s.opts.FileRoot != "" {
		target = filepath.Join(s.opts.FileRoot, name)
	}

	if name == "" {
		return response.Response{}, fileNotFound(name)
	}
	if s.opts.FileRoot != "" && !paths.IsWithin(target, s.opts.FileRoot) {
		s.logger.Warn("File probe outside file root", "name", name)
		return response.Response{}, fileNotFound(name)
	}
	if _, err := os.Stat(target); err != nil {
		s.logger.Debug("File probe missed", "name", name, "error", err.Error())
		return response.Response{}, fileNotFound(name)
	}

	return response.OK(response.HTML, FilePlaceholderBody), nil
}

func fileNotFound(name string) error {
	return routeerr.NewRouteError(routeerr.NotFound, "File not found: "+html.EscapeString(name), nil).
		WithDetails(map[string]string{"name": name})
}
