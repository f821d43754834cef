// Package chatlog persists rendered chat fragments in an append-only log.
package chatlog

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store is an append-only log of rendered fragments. Implementations are
// safe for concurrent use; AppendAndRead never lets another append land
// between its own append and its read.
type Store interface {
	// Append adds one fragment to the end of the log.
	Append(ctx context.Context, fragment string) error
	// ReadAll returns every fragment concatenated in append order.
	ReadAll(ctx context.Context) (string, error)
	// AppendAndRead appends fragment and returns the resulting full log.
	AppendAndRead(ctx context.Context, fragment string) (string, error)
	// Count returns the number of fragments stored.
	Count(ctx context.Context) (int, error)
	Close() error
}

// Open returns the store for backend. For the file backend path is the log
// file; for sqlite it is the database file.
func Open(backend, path string, logger *slog.Logger) (Store, error) {
	switch backend {
	case BackendFile, "":
		s, err := OpenFile(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s, err := OpenSQLite(path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown chat backend: %q", backend)
	}
}

// RenderFragment renders one chat line. name and msg are HTML-escaped.
func RenderFragment(name, msg string) string {
	return fmt.Sprintf("<html>\n<p><strong>%s:</strong> %s</p>\n</html>\n",
		html.EscapeString(name), html.EscapeString(msg))
}

// fragmentEnd terminates every rendered fragment.
const fragmentEnd = "</html>\n"

// Fragments splits a log returned by ReadAll back into fragments. Text after
// the last complete fragment is returned as a final element.
func Fragments(log string) []string {
	var out []string
	for log != "" {
		i := strings.Index(log, fragmentEnd)
		if i < 0 {
			out = append(out, log)
			break
		}
		end := i + len(fragmentEnd)
		out = append(out, log[:end])
		log = log[end:]
	}
	return out
}
