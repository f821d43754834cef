// Package response serializes handler results into wire bytes.
package response

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Content types used by the handlers.
const (
	HTML = "text/html"
	JSON = "application/json"
)

var reasons = map[int]string{
	200: "OK",
	400: "Bad Request",
	403: "Forbidden",
	404: "Not Found",
	500: "Internal Server Error",
	502: "Bad Gateway",
}

// Reason returns the reason phrase for a status code.
func Reason(status int) string {
	if r, ok := reasons[status]; ok {
		return r
	}
	return "Unknown"
}

// Response is a status, a content type and a body. A Raw response is
// written without a status line or headers.
type Response struct {
	Status      int
	ContentType string
	Body        string
	Raw         bool
}

// OK returns a 200 response.
func OK(contentType, body string) Response {
	return Response{Status: 200, ContentType: contentType, Body: body}
}

// New returns a response with the given status.
func New(status int, contentType, body string) Response {
	return Response{Status: status, ContentType: contentType, Body: body}
}

// Raw returns a response that is only its body.
func Raw(body string) Response {
	return Response{Body: body, Raw: true}
}

// Bytes returns the wire form: status line, Content-Type, blank line, body.
// No Content-Length is written; the connection close ends the body.
func (r Response) Bytes() []byte {
	if r.Raw {
		return []byte(r.Body)
	}

	ct := r.ContentType
	if ct == "" {
		ct = HTML
	}

	var b strings.Builder
	b.Grow(64 + len(r.Body))
	b.WriteString(r.StatusLine())
	b.WriteByte('\n')
	b.WriteString("Content-Type: ")
	b.WriteString(ct)
	b.WriteString("; charset=utf-8\n")
	b.WriteByte('\n')
	b.WriteString(r.Body)
	return []byte(b.String())
}

// WriteTo writes the wire form to w.
func (r Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	if err != nil {
		return int64(n), fmt.Errorf("write response: %w", err)
	}
	return int64(n), nil
}

// StatusLine returns the first line of the wire form, or "" for raw responses.
func (r Response) StatusLine() string {
	if r.Raw {
		return ""
	}
	return "HTTP/1.1 " + strconv.Itoa(r.Status) + " " + Reason(r.Status)
}
