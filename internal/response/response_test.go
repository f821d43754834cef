package response

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want string
	}{
		{
			name: "ok html",
			resp: OK(HTML, "Result is: 12"),
			want: "HTTP/1.1 200 OK\nContent-Type: text/html; charset=utf-8\n\nResult is: 12",
		},
		{
			name: "json",
			resp: OK(JSON, `{"header":"bread"}`),
			want: "HTTP/1.1 200 OK\nContent-Type: application/json; charset=utf-8\n\n{\"header\":\"bread\"}",
		},
		{
			name: "not found",
			resp: New(404, HTML, "File not found: x"),
			want: "HTTP/1.1 404 Not Found\nContent-Type: text/html; charset=utf-8\n\nFile not found: x",
		},
		{
			name: "default content type",
			resp: Response{Status: 403},
			want: "HTTP/1.1 403 Forbidden\nContent-Type: text/html; charset=utf-8\n\n",
		},
		{
			name: "raw",
			resp: Raw("<html>Illegal request: no GET</html>"),
			want: "<html>Illegal request: no GET</html>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(tt.resp.Bytes()); got != tt.want {
				t.Errorf("Bytes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBytes_NoContentLength(t *testing.T) {
	got := string(OK(HTML, "hello").Bytes())
	if strings.Contains(strings.ToLower(got), "content-length") {
		t.Errorf("response should not carry Content-Length: %q", got)
	}
}

func TestReason(t *testing.T) {
	if got := Reason(400); got != "Bad Request" {
		t.Errorf("Reason(400) = %q", got)
	}
	if got := Reason(418); got != "Unknown" {
		t.Errorf("Reason(418) = %q, want Unknown", got)
	}
}

func TestStatusLine(t *testing.T) {
	if got := New(502, HTML, "").StatusLine(); got != "HTTP/1.1 502 Bad Gateway" {
		t.Errorf("StatusLine() = %q", got)
	}
	if got := Raw("x").StatusLine(); got != "" {
		t.Errorf("raw StatusLine() = %q, want empty", got)
	}
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriteTo(t *testing.T) {
	var buf bytes.Buffer
	n, err := OK(HTML, "body").WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo error: %v", err)
	}
	if int(n) != buf.Len() {
		t.Errorf("WriteTo n = %d, buffer has %d", n, buf.Len())
	}

	if _, err := OK(HTML, "body").WriteTo(errWriter{}); err == nil {
		t.Error("WriteTo to failing writer should return error")
	}
}
