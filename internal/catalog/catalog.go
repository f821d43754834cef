// Package catalog holds the fixed label to image URL mapping served by the
// json route.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrEmpty is returned when a catalog would have no entries.
var ErrEmpty = errors.New("image catalog is empty")

// Entry is one labelled image.
type Entry struct {
	Label string `json:"label" toml:"label" yaml:"label" mapstructure:"label"`
	URL   string `json:"url" toml:"url" yaml:"url" mapstructure:"url"`
}

// Catalog is an ordered, read-only list of entries. It is never empty.
type Catalog struct {
	entries []Entry
}

// file is the on-disk layout shared by the TOML, YAML and JSON formats.
type file struct {
	Images []Entry `json:"images" toml:"images" yaml:"images"`
}

// DefaultEntries returns the built-in catalog.
func DefaultEntries() []Entry {
	return []Entry{
		{Label: "streets", URL: "https://iili.io/JV1pSV.jpg"},
		{Label: "bread", URL: "https://iili.io/Jj9MWG.jpg"},
	}
}

// New validates entries and returns a catalog holding a copy of them.
func New(entries []Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, ErrEmpty
	}

	seen := make(map[string]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for i, e := range entries {
		if e.Label == "" {
			return nil, fmt.Errorf("entry[%d]: label is required", i)
		}
		if e.URL == "" {
			return nil, fmt.Errorf("entry[%d] (%s): url is required", i, e.Label)
		}
		if seen[e.Label] {
			return nil, fmt.Errorf("duplicate label: %s", e.Label)
		}
		seen[e.Label] = true
		out = append(out, e)
	}
	return &Catalog{entries: out}, nil
}

// Load reads a catalog file. The format follows the extension:
// .toml, .yaml/.yml or .json.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var f file
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("parse catalog file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse catalog file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format: %s", path)
	}

	c, err := New(f.Images)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return c, nil
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of all entries in order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Pick returns the entry selected by intn, which must return a value in
// [0, n) like rand.Intn.
func (c *Catalog) Pick(intn func(n int) int) Entry {
	return c.entries[intn(len(c.entries))]
}
