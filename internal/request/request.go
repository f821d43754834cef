// Package request reads the request line from a raw connection stream.
package request

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoRequestLine is returned when the first line is not a GET line.
var ErrNoRequestLine = errors.New("no GET request line")

const getPrefix = "GET "

// Request is the only state kept from the wire: the path between the method
// and protocol tokens, without its leading '/'.
type Request struct {
	Path string

	// Line is the raw request line the path came from.
	Line string
	// Discarded counts the other header lines read before the blank line.
	Discarded int
}

// Read consumes lines from r until an empty line or end of stream. The
// path comes from the first line, which must start with "GET "; later lines
// are read and discarded.
func Read(r io.Reader) (*Request, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	var req *Request
	first := true
	discarded := 0
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read request: %w", err)
		}
		eof := err != nil

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}

		if first && strings.HasPrefix(line, getPrefix) {
			req = &Request{Path: pathFromLine(line), Line: line}
		} else {
			discarded++
		}
		first = false

		if eof {
			break
		}
	}

	if req == nil {
		return nil, ErrNoRequestLine
	}
	req.Discarded = discarded
	return req, nil
}

// pathFromLine returns the text between the first and second space. A line
// with no second space yields everything after the first one.
func pathFromLine(line string) string {
	rest := line[len(getPrefix):]
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimPrefix(rest, "/")
}
