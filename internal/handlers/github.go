package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	routeerr "sockroute/internal/errors"
	"sockroute/internal/request"
	"sockroute/internal/response"
)

var githubUsage = &routeerr.Usage{
	Example:     "/github?query=users/USER/repos",
	Explanation: "where 'USER' is replaced by a GitHub user's name.",
}

// Repository is the part of a repository listing item that gets rendered.
type Repository struct {
	Index      int
	Name       string
	ID         int64
	OwnerLogin string
}

type repoJSON struct {
	Name  *string      `json:"name"`
	ID    *json.Number `json:"id"`
	Owner *struct {
		Login *string `json:"login"`
	} `json:"owner"`
}

// GitHub proxies a users/<name>/repos listing and renders one fragment per repository.
func (s *Set) GitHub(ctx context.Context, req *request.Request) (response.Response, error) {
	q, err := queryOf(req.Path, MarkerGitHub)
	if err != nil {
		return response.Response{}, githubBadRequest(err.Error(), err)
	}

	query, ok := q.Get("query")
	if !ok || !strings.HasPrefix(query, "users") || !strings.HasSuffix(query, "repos") {
		return response.Response{}, routeerr.NewRouteError(routeerr.Forbidden, fmt.Sprintf("query %q is not users/<name>/repos", query), nil).
			WithCauses("Invalid or missing query").
			WithUsage(githubUsage)
	}

	url := s.opts.GitHubBaseURL + query
	var body string
	if s.opts.StrictFetchErrors {
		body, err = s.fetcher.Fetch(ctx, url)
		if err != nil {
			s.logger.Warn("GitHub fetch failed", "url", url, "error", err.Error())
			return response.Response{}, routeerr.NewRouteError(routeerr.ExternalFetchFailure, "fetch failed", err).
				WithCauses("The GitHub API could not be reached", "The GitHub API returned an error status").
				WithUsage(githubUsage)
		}
	} else {
		// Failures read as an empty listing
		body = s.fetcher.FetchText(ctx, url)
	}
	if body == "" {
		return response.Response{}, routeerr.NewRouteError(routeerr.NotFound, "empty result for "+query, nil).
			WithCauses("Queried user does not exist.", "Invalid query").
			WithUsage(githubUsage)
	}

	repos, err := ParseRepositories(body)
	if err != nil {
		return response.Response{}, githubBadRequest(err.Error(), err)
	}

	var b strings.Builder
	for _, r := range repos {
		b.WriteString(RenderRepository(r))
	}
	return response.OK(response.HTML, b.String()), nil
}

func githubBadRequest(msg string, cause error) error {
	return routeerr.NewRouteError(routeerr.TypeMismatch, msg, cause).
		WithCauses("Missing argument").
		WithUsage(githubUsage)
}

// ParseRepositories decodes a JSON array of repository objects. Every item
// must carry a string name, an integer id and an owner with a string login.
func ParseRepositories(body string) ([]Repository, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var items []repoJSON
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("parse repositories: %w", err)
	}

	repos := make([]Repository, 0, len(items))
	for i, it := range items {
		if it.Name == nil {
			return nil, fmt.Errorf("repository[%d]: missing name", i)
		}
		if it.ID == nil {
			return nil, fmt.Errorf("repository[%d]: missing id", i)
		}
		id, err := strconv.ParseInt(it.ID.String(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("repository[%d]: id %q is not an integer", i, it.ID.String())
		}
		if it.Owner == nil || it.Owner.Login == nil {
			return nil, fmt.Errorf("repository[%d]: missing owner.login", i)
		}
		repos = append(repos, Repository{
			Index:      i,
			Name:       *it.Name,
			ID:         id,
			OwnerLogin: *it.Owner.Login,
		})
	}
	return repos, nil
}

// RenderRepository renders one repository fragment.
func RenderRepository(r Repository) string {
	return fmt.Sprintf(`<html>
    <h4>Repo #%d:</h4>
    <ul>
        <li><strong>Name:</strong> %s</li>
        <li><strong>ID:</strong> %d</li>
        <li><strong>Owner:</strong> %s</li>
    </ul>
    <br>
</html>
`, r.Index, html.EscapeString(r.Name), r.ID, html.EscapeString(r.OwnerLogin))
}
