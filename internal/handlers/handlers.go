// Package handlers implements one handler per route.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"sockroute/internal/catalog"
	"sockroute/internal/chatlog"
	routeerr "sockroute/internal/errors"
	"sockroute/internal/params"
	"sockroute/internal/request"
	"sockroute/internal/response"
	"sockroute/internal/router"
)

// Route markers. Exact markers are compared to the whole path; the others
// match anywhere in it.
const (
	MarkerRoot       = ""
	MarkerJSON       = "json"
	MarkerRandom     = "random"
	MarkerFile       = "file/"
	MarkerMultiply   = "multiply?"
	MarkerGitHub     = "github?"
	MarkerCompatible = "compatible?"
	MarkerChat       = "chat?"
)

// FilePlaceholderBody is returned by file/ when the file exists.
const FilePlaceholderBody = "Would theoretically be a file but removed this part, you do not have to do anything with it for the assignment"

// NotRecognizedBody is returned for paths no route accepts.
const NotRecognizedBody = "I am not sure what you want me to do..."

// Fetcher performs the outbound GET for the github route. FetchText
// reports every failure as "".
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	FetchText(ctx context.Context, url string) string
}

// Options configure file locations and the external API.
type Options struct {
	// WebRoot holds the static pages and is the directory listed on the root page.
	WebRoot    string
	RootPage   string
	RandomPage string
	// LinksToken is replaced by the file list on the root page.
	LinksToken string
	// FileRoot is where file/ paths are resolved; empty means the working
	// directory. When set, probes may not leave it.
	FileRoot string

	GitHubBaseURL string
	// StrictFetchErrors reports fetch failures as 502 instead of treating
	// them as an empty result.
	StrictFetchErrors bool
}

// DefaultOptions returns the stock layout: www/root.html, www/index.html.
func DefaultOptions() Options {
	return Options{
		WebRoot:       "www",
		RootPage:      "root.html",
		RandomPage:    "index.html",
		LinksToken:    "${links}",
		GitHubBaseURL: "https://api.github.com/",
	}
}

// Random is a mutex-guarded random source shared by the handlers.
type Random struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandom returns a source seeded with seed, or with the clock when seed is 0.
func NewRandom(seed int64) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{r: rand.New(rand.NewSource(seed))}
}

// Intn returns a value in [0, n).
func (r *Random) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Intn(n)
}

// Float64 returns a value in [0.0, 1.0).
func (r *Random) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Float64()
}

// Set holds everything the handlers read or write.
type Set struct {
	opts    Options
	catalog *catalog.Catalog
	rng     *Random
	chat    chatlog.Store
	fetcher Fetcher
	logger  *slog.Logger
}

// Deps are the collaborators injected into a Set.
type Deps struct {
	Catalog *catalog.Catalog
	Random  *Random
	Chat    chatlog.Store
	Fetcher Fetcher
	Logger  *slog.Logger
}

// New builds the handler set. Catalog, Chat and Fetcher are required.
func New(opts Options, deps Deps) (*Set, error) {
	if deps.Catalog == nil || deps.Catalog.Len() == 0 {
		return nil, catalog.ErrEmpty
	}
	if deps.Chat == nil {
		return nil, errors.New("handlers: chat store is required")
	}
	if deps.Fetcher == nil {
		return nil, errors.New("handlers: fetcher is required")
	}
	if deps.Random == nil {
		deps.Random = NewRandom(0)
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	defaults := DefaultOptions()
	if opts.WebRoot == "" {
		opts.WebRoot = defaults.WebRoot
	}
	if opts.RootPage == "" {
		opts.RootPage = defaults.RootPage
	}
	if opts.RandomPage == "" {
		opts.RandomPage = defaults.RandomPage
	}
	if opts.LinksToken == "" {
		opts.LinksToken = defaults.LinksToken
	}
	if opts.GitHubBaseURL == "" {
		opts.GitHubBaseURL = defaults.GitHubBaseURL
	}

	return &Set{
		opts:    opts,
		catalog: deps.Catalog,
		rng:     deps.Random,
		chat:    deps.Chat,
		fetcher: deps.Fetcher,
		logger:  deps.Logger,
	}, nil
}

// Routes returns the route table in match order.
func (s *Set) Routes() []router.Route {
	return []router.Route{
		{Name: "root", Match: router.Exact(MarkerRoot), Handle: s.Root},
		{Name: "json", Match: router.Exact(MarkerJSON), Handle: s.JSON},
		{Name: "random", Match: router.Exact(MarkerRandom), Handle: s.RandomPage},
		{Name: "file", Match: router.Contains(MarkerFile), Handle: s.File},
		{Name: "multiply", Match: router.Contains(MarkerMultiply), Handle: s.Multiply},
		{Name: "github", Match: router.Contains(MarkerGitHub), Handle: s.GitHub},
		{Name: "compatible", Match: router.Contains(MarkerCompatible), Handle: s.Compatible},
		{Name: "chat", Match: router.Contains(MarkerChat), Handle: s.Chat},
	}
}

// Router returns a router over Routes with NotRecognized as the fallback.
func (s *Set) Router() *router.Router {
	return router.New(s.Routes(), s.NotRecognized, s.logger)
}

// NotRecognized handles every path no route accepts.
func (s *Set) NotRecognized(ctx context.Context, req *request.Request) (response.Response, error) {
	return response.Response{}, routeerr.NewRouteError(routeerr.UnrecognizedRoute, NotRecognizedBody, nil)
}

// queryOf removes every occurrence of marker from path and decodes the rest.
func queryOf(path, marker string) (*params.Params, error) {
	return params.Decode(strings.ReplaceAll(path, marker, ""))
}
