// Package params decodes the query portion of a request path into an
// ordered set of key/value pairs.
package params

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrNoSeparator is returned when a pair has no '='.
	ErrNoSeparator = errors.New("query pair has no '='")
	// ErrBadEscape is returned when a percent-escape is malformed.
	ErrBadEscape = errors.New("malformed percent-escape")
)

// pair is one decoded key/value occurrence.
type pair struct {
	key   string
	value string
}

// Params holds decoded pairs in the order they appeared. Duplicate keys are
// kept; lookups return the last occurrence.
type Params struct {
	pairs []pair
	last  map[string]int
	keys  []string
}

// DecodeError reports which pair failed to decode.
type DecodeError struct {
	Pair string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Pair, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode splits raw on '&', then each pair on its first '=', and
// percent-decodes both sides. raw must not include the leading '?'.
// Trailing empty segments are ignored; an empty segment elsewhere is an error.
func Decode(raw string) (*Params, error) {
	p := &Params{last: make(map[string]int)}
	if raw == "" {
		return p, nil
	}

	segments := strings.Split(raw, "&")
	for len(segments) > 0 && segments[len(segments)-1] == "" {
		segments = segments[:len(segments)-1]
	}

	for _, seg := range segments {
		idx := strings.IndexByte(seg, '=')
		if idx < 0 {
			return nil, &DecodeError{Pair: seg, Err: ErrNoSeparator}
		}
		key, err := unescape(seg[:idx])
		if err != nil {
			return nil, &DecodeError{Pair: seg, Err: err}
		}
		value, err := unescape(seg[idx+1:])
		if err != nil {
			return nil, &DecodeError{Pair: seg, Err: err}
		}
		p.add(key, value)
	}
	return p, nil
}

func unescape(s string) (string, error) {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadEscape, err)
	}
	return out, nil
}

func (p *Params) add(key, value string) {
	if _, seen := p.last[key]; !seen {
		p.keys = append(p.keys, key)
	}
	p.last[key] = len(p.pairs)
	p.pairs = append(p.pairs, pair{key: key, value: value})
}

// Get returns the value of the last occurrence of key.
func (p *Params) Get(key string) (string, bool) {
	i, ok := p.last[key]
	if !ok {
		return "", false
	}
	return p.pairs[i].value, true
}

// Keys returns distinct keys in first-seen order.
func (p *Params) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of distinct keys.
func (p *Params) Len() int {
	return len(p.keys)
}
