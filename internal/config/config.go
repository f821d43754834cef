// Package config loads sockroute configuration from .sockroute/config.json
// with SOCKROUTE_* environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sockroute/internal/catalog"

	"sockroute/internal/paths"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SOCKROUTE"

// Server scheduling modes.
const (
	ModeSequential    = "sequential"
	ModePerConnection = "per-connection"
	ModePool          = "pool"
)

// Chat backends.
const (
	ChatBackendFile   = "file"
	ChatBackendSQLite = "sqlite"
)

// Config represents the complete sockroute configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Web      WebConfig      `json:"web" mapstructure:"web"`
	Catalog  CatalogConfig  `json:"catalog" mapstructure:"catalog"`
	Chat     ChatConfig     `json:"chat" mapstructure:"chat"`
	Fetch    FetchConfig    `json:"fetch" mapstructure:"fetch"`
	Handlers HandlersConfig `json:"handlers" mapstructure:"handlers"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// ServerConfig contains listener and scheduling settings
type ServerConfig struct {
	Host               string `json:"host" mapstructure:"host"`
	Port               int    `json:"port" mapstructure:"port"`
	Mode               string `json:"mode" mapstructure:"mode"`
	Workers            int    `json:"workers" mapstructure:"workers"`
	ReadTimeoutSeconds int    `json:"readTimeoutSeconds" mapstructure:"readTimeoutSeconds"`
}

// WebConfig contains static page locations
type WebConfig struct {
	Root       string `json:"root" mapstructure:"root"`
	RootPage   string `json:"rootPage" mapstructure:"rootPage"`
	RandomPage string `json:"randomPage" mapstructure:"randomPage"`
	LinksToken string `json:"linksToken" mapstructure:"linksToken"`
	FileRoot   string `json:"fileRoot" mapstructure:"fileRoot"`
}

// CatalogConfig selects the image catalog. Path wins over Entries.
type CatalogConfig struct {
	Path    string         `json:"path" mapstructure:"path"`
	Entries []CatalogEntry `json:"entries" mapstructure:"entries"`
}

// CatalogEntry is one inline catalog image
type CatalogEntry struct {
	Label string `json:"label" mapstructure:"label"`
	URL   string `json:"url" mapstructure:"url"`
}

// ChatConfig selects the chat log backend
type ChatConfig struct {
	Backend string `json:"backend" mapstructure:"backend"`
	Path    string `json:"path" mapstructure:"path"`
}

// FetchConfig contains outbound API settings
type FetchConfig struct {
	BaseURL        string `json:"baseURL" mapstructure:"baseURL"`
	TimeoutSeconds int    `json:"timeoutSeconds" mapstructure:"timeoutSeconds"`
	StrictErrors   bool   `json:"strictErrors" mapstructure:"strictErrors"`
}

// HandlersConfig contains handler behaviour settings
type HandlersConfig struct {
	// Seed for the shared random source; 0 seeds from the clock.
	Seed int64 `json:"seed" mapstructure:"seed"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Level      string `json:"level" mapstructure:"level"`
	File       bool   `json:"file" mapstructure:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

func defaultCatalogEntries() []CatalogEntry {
	builtin := catalog.DefaultEntries()
	out := make([]CatalogEntry, len(builtin))
	for i, e := range builtin {
		out[i] = CatalogEntry{Label: e.Label, URL: e.URL}
	}
	return out
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    9000,
			Mode:    ModeSequential,
			Workers: 8,
		},
		Web: WebConfig{
			Root:       "www",
			RootPage:   "root.html",
			RandomPage: "index.html",
			LinksToken: "${links}",
		},
		Catalog: CatalogConfig{
			Entries: defaultCatalogEntries(),
		},
		Chat: ChatConfig{
			Backend: ChatBackendFile,
		},
		Fetch: FetchConfig{
			BaseURL:        "https://api.github.com/",
			TimeoutSeconds: 20,
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "info",
			File:       true,
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from <root>/.sockroute/config.json and
// applies SOCKROUTE_* environment overrides. A missing file yields the
// defaults plus overrides.
func LoadConfig(root string) (*Config, error) {
	v := newViper()

	configPath := paths.ConfigPath(root)
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", configPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// newViper returns a viper instance holding every default, so that each
// key is also reachable through its environment variable.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range flatten("", DefaultConfig()) {
		v.SetDefault(key, value)
	}
	return v
}

// flatten maps dotted mapstructure keys to the leaf values of cfg.
func flatten(prefix string, cfg any) map[string]any {
	out := make(map[string]any)
	rv := reflect.Indirect(reflect.ValueOf(cfg))
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		key := rt.Field(i).Tag.Get("mapstructure")
		if prefix != "" {
			key = prefix + "." + key
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Struct {
			for k, val := range flatten(key, fv.Interface()) {
				out[k] = val
			}
			continue
		}
		out[key] = fv.Interface()
	}
	return out
}

// Save writes the configuration to <root>/.sockroute/config.json
func (c *Config) Save(root string) error {
	configPath := paths.ConfigPath(root)
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, append(data, '\n'), 0o644)
}

// Addr returns host:port for the listener.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ReadTimeout returns the per-connection read deadline; zero means none.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}

// FetchTimeout returns the outbound request timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// ChatPath returns the chat log location, defaulting per backend to
// <web.root>/chat.html or <state>/chat.db.
func (c *Config) ChatPath(root string) string {
	if c.Chat.Path != "" {
		return c.Chat.Path
	}
	if c.Chat.Backend == ChatBackendSQLite {
		return paths.ChatDBPath(root)
	}
	return filepath.Join(c.Web.Root, "chat.html")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: "must be between 0 and 65535"}
	}
	switch c.Server.Mode {
	case ModeSequential, ModePerConnection:
	case ModePool:
		if c.Server.Workers <= 0 {
			return &ConfigError{Field: "server.workers", Message: "must be positive in pool mode"}
		}
	default:
		return &ConfigError{Field: "server.mode", Message: fmt.Sprintf("unknown mode %q (valid: sequential, per-connection, pool)", c.Server.Mode)}
	}
	if c.Server.ReadTimeoutSeconds < 0 {
		return &ConfigError{Field: "server.readTimeoutSeconds", Message: "must not be negative"}
	}

	if c.Web.Root == "" {
		return &ConfigError{Field: "web.root", Message: "is required"}
	}

	if c.Catalog.Path == "" && len(c.Catalog.Entries) == 0 {
		return &ConfigError{Field: "catalog", Message: "either path or entries is required"}
	}

	switch c.Chat.Backend {
	case ChatBackendFile, ChatBackendSQLite:
	default:
		return &ConfigError{Field: "chat.backend", Message: fmt.Sprintf("unknown backend %q (valid: file, sqlite)", c.Chat.Backend)}
	}

	u, err := url.Parse(c.Fetch.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigError{Field: "fetch.baseURL", Message: "must be an absolute http(s) URL"}
	}
	if !strings.HasSuffix(c.Fetch.BaseURL, "/") {
		return &ConfigError{Field: "fetch.baseURL", Message: "must end with '/'"}
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return &ConfigError{Field: "fetch.timeoutSeconds", Message: "must be positive"}
	}

	switch c.Logging.Format {
	case "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q (valid: human, json)", c.Logging.Format)}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	if c.Logging.MaxBackups < 0 {
		return &ConfigError{Field: "logging.maxBackups", Message: "must not be negative"}
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

// EnvOverride describes one supported environment variable.
type EnvOverride struct {
	Name string
	Key  string
}

// EnvOverrides lists the environment variables LoadConfig honours, sorted
// by name. Inline catalog entries can only be set in the file.
func EnvOverrides() []EnvOverride {
	flat := flatten("", DefaultConfig())
	out := make([]EnvOverride, 0, len(flat))
	for key := range flat {
		if key == "catalog.entries" {
			continue
		}
		out = append(out, EnvOverride{Name: EnvName(key), Key: key})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EnvName returns the environment variable for a dotted config key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
