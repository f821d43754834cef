// Package router selects one handler per request from an ordered table of
// routes and turns handler errors into responses.
package router

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"sockroute/internal/errors"
	"sockroute/internal/request"
	"sockroute/internal/response"
)

// HandlerFunc produces a response for a path already known to match.
type HandlerFunc func(ctx context.Context, req *request.Request) (response.Response, error)

// Matcher reports whether a route accepts path.
type Matcher func(path string) bool

// Exact matches a path equal to token, ignoring case.
func Exact(token string) Matcher {
	return func(path string) bool {
		return strings.EqualFold(path, token)
	}
}

// Contains matches a path holding token anywhere, not only as a prefix.
func Contains(token string) Matcher {
	return func(path string) bool {
		return strings.Contains(path, token)
	}
}

// Route pairs a predicate with its handler.
type Route struct {
	Name   string
	Match  Matcher
	Handle HandlerFunc
}

// Router tests routes in order; the first match wins. Paths no route
// accepts go to the fallback.
type Router struct {
	routes   []Route
	fallback Route
	logger   *slog.Logger
}

// New creates a router. routes are tested in the order given.
func New(routes []Route, fallback HandlerFunc, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rs := make([]Route, len(routes))
	copy(rs, routes)
	return &Router{
		routes:   rs,
		fallback: Route{Name: "default", Handle: fallback},
		logger:   logger,
	}
}

// Routes returns the route names in match order.
func (rt *Router) Routes() []string {
	names := make([]string, len(rt.routes))
	for i, r := range rt.routes {
		names[i] = r.Name
	}
	return names
}

// Match returns the route that would handle path.
func (rt *Router) Match(path string) Route {
	for _, r := range rt.routes {
		if r.Match(path) {
			return r
		}
	}
	return rt.fallback
}

// Serve reads one request from r and returns the response to write back.
// The returned request is nil when no path could be read.
func (rt *Router) Serve(ctx context.Context, r io.Reader) (response.Response, *request.Request) {
	req, err := request.Read(r)
	if err != nil {
		if stderrors.Is(err, request.ErrNoRequestLine) {
			rt.logger.Warn("Request has no GET line")
			return ErrorResponse(errors.NewRouteError(errors.MalformedRequest, "no GET request line", err)), nil
		}
		rt.logger.Error("Failed to read request", "error", err.Error())
		return ErrorResponse(errors.NewRouteError(errors.InternalError, err.Error(), err)), nil
	}
	return rt.Dispatch(ctx, req), req
}

// Dispatch runs the matching handler. Handler errors and panics are
// converted to responses here and nowhere else.
func (rt *Router) Dispatch(ctx context.Context, req *request.Request) (resp response.Response) {
	route := rt.Match(req.Path)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			rt.logger.Error("Panic recovered",
				"route", route.Name,
				"path", req.Path,
				"error", fmt.Sprintf("%v", p),
				"stack", string(debug.Stack()),
			)
			resp = ErrorResponse(errors.NewRouteError(errors.InternalError, fmt.Sprintf("%v", p), nil))
		}
	}()

	resp, err := route.Handle(ctx, req)
	if err != nil {
		resp = ErrorResponse(err)
		rt.logger.Info("Request failed",
			"route", route.Name,
			"path", req.Path,
			"code", string(errors.CodeOf(err)),
			"status", resp.Status,
			"error", err.Error(),
		)
		return resp
	}

	rt.logger.Info("Request handled",
		"route", route.Name,
		"path", req.Path,
		"status", resp.Status,
		"duration", time.Since(start),
	)
	return resp
}
