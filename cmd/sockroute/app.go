package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"sockroute/internal/catalog"
	"sockroute/internal/chatlog"
	"sockroute/internal/config"
	"sockroute/internal/fetch"
	"sockroute/internal/handlers"
)

// projectRoot returns --root as an absolute path.
func projectRoot() (string, error) {
	abs, err := filepath.Abs(rootFlag)
	if err != nil {
		return "", fmt.Errorf("invalid --root %q: %w", rootFlag, err)
	}
	return abs, nil
}

// loadConfig loads and validates the configuration for root.
func loadConfig(root string) (*config.Config, error) {
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolve makes p relative to root unless it is already absolute.
func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// loadCatalog reads catalog.path when set and falls back to the inline entries.
func loadCatalog(root string, cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.Path != "" {
		return catalog.Load(resolve(root, cfg.Catalog.Path))
	}
	entries := make([]catalog.Entry, len(cfg.Catalog.Entries))
	for i, e := range cfg.Catalog.Entries {
		entries[i] = catalog.Entry{Label: e.Label, URL: e.URL}
	}
	return catalog.New(entries)
}

// openChat opens the configured chat log backend.
func openChat(root string, cfg *config.Config, logger *slog.Logger) (chatlog.Store, error) {
	return chatlog.Open(cfg.Chat.Backend, resolve(root, cfg.ChatPath(root)), logger)
}

// app is everything serve needs besides the listener.
type app struct {
	handlers *handlers.Set
	chat     chatlog.Store
}

func (a *app) Close() error {
	return a.chat.Close()
}

// buildApp wires catalog, chat log, fetch client and random source into
// the handler set.
func buildApp(root string, cfg *config.Config, logger *slog.Logger) (*app, error) {
	cat, err := loadCatalog(root, cfg)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	chat, err := openChat(root, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("chat log: %w", err)
	}

	set, err := handlers.New(handlers.Options{
		WebRoot:           resolve(root, cfg.Web.Root),
		RootPage:          cfg.Web.RootPage,
		RandomPage:        cfg.Web.RandomPage,
		LinksToken:        cfg.Web.LinksToken,
		FileRoot:          resolve(root, cfg.Web.FileRoot),
		GitHubBaseURL:     cfg.Fetch.BaseURL,
		StrictFetchErrors: cfg.Fetch.StrictErrors,
	}, handlers.Deps{
		Catalog: cat,
		Random:  handlers.NewRandom(cfg.Handlers.Seed),
		Chat:    chat,
		Fetcher: fetch.New(cfg.FetchTimeout(), logger),
		Logger:  logger,
	})
	if err != nil {
		_ = chat.Close()
		return nil, err
	}

	return &app{handlers: set, chat: chat}, nil
}
