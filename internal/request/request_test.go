package request

import (
	"errors"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantPath      string
		wantDiscarded int
	}{
		{
			name:          "root",
			raw:           "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n",
			wantPath:      "",
			wantDiscarded: 1,
		},
		{
			name:     "simple path",
			raw:      "GET /json HTTP/1.1\r\n\r\n",
			wantPath: "json",
		},
		{
			name:          "query string kept verbatim",
			raw:           "GET /multiply?num1=3&num2=4 HTTP/1.1\r\nHost: x\r\nAccept: */*\r\n\r\n",
			wantPath:      "multiply?num1=3&num2=4",
			wantDiscarded: 2,
		},
		{
			name:     "bare newlines",
			raw:      "GET /random HTTP/1.0\n\n",
			wantPath: "random",
		},
		{
			name:     "end of stream without blank line",
			raw:      "GET /chat? HTTP/1.1",
			wantPath: "chat?",
		},
		{
			name:     "no protocol token",
			raw:      "GET /file/www/root.html\r\n\r\n",
			wantPath: "file/www/root.html",
		},
		{
			name:          "first GET wins",
			raw:           "GET /json HTTP/1.1\r\nGET /random HTTP/1.1\r\n\r\n",
			wantPath:      "json",
			wantDiscarded: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Read(strings.NewReader(tt.raw))
			if err != nil {
				t.Fatalf("Read error: %v", err)
			}
			if req.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", req.Path, tt.wantPath)
			}
			if req.Discarded != tt.wantDiscarded {
				t.Errorf("Discarded = %d, want %d", req.Discarded, tt.wantDiscarded)
			}
		})
	}
}

func TestRead_StopsAtBlankLine(t *testing.T) {
	r := strings.NewReader("GET /json HTTP/1.1\r\n\r\nGET /random HTTP/1.1\r\n")
	req, err := Read(r)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if req.Path != "json" {
		t.Errorf("Path = %q, want json", req.Path)
	}
}

func TestRead_NoRequestLine(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty stream", ""},
		{"blank line only", "\r\n"},
		{"post request", "POST /chat? HTTP/1.1\r\n\r\n"},
		{"lowercase get", "get /json HTTP/1.1\r\n\r\n"},
		{"get without space", "GETX /json HTTP/1.1\r\n\r\n"},
		{"GET after blank line", "Host: x\r\n\r\nGET /json HTTP/1.1\r\n"},
		{"GET after a header line", "Host: x\r\nGET /json HTTP/1.1\r\n\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.raw))
			if !errors.Is(err, ErrNoRequestLine) {
				t.Errorf("Read(%q) error = %v, want ErrNoRequestLine", tt.raw, err)
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestRead_ReadError(t *testing.T) {
	_, err := Read(failingReader{})
	if err == nil || errors.Is(err, ErrNoRequestLine) {
		t.Fatalf("Read error = %v, want wrapped read error", err)
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("error = %v, want to mention cause", err)
	}
}
