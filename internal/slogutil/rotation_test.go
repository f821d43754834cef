package slogutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"", 0},
		{"invalid", 0},
		{"-5MB", 0},
		{"100", 100},
		{"100B", 100},
		{"100b", 100},
		{"1KB", 1024},
		{"10 kb", 10240},
		{"1MB", 1024 * 1024},
		{"10MB", 10 * 1024 * 1024},
		{"1GB", 1024 * 1024 * 1024},
		{"1.5MB", int64(1.5 * 1024 * 1024)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseSize(tt.input); got != tt.expected {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRotatingFile_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	rf, err := OpenRotatingFile(path, 50, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile failed: %v", err)
	}

	line := []byte(strings.Repeat("a", 29) + "\n")
	for i := 0; i < 5; i++ {
		if _, err := rf.Write(line); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Five 30-byte writes into 50-byte files: one line per file, two backups kept.
	for _, p := range []string{path, path + ".1", path + ".2"} {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("%s: %v", p, err)
		}
		if !bytes.Equal(data, line) {
			t.Errorf("%s holds %d bytes, want one line", p, len(data))
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Error("backup .3 should not exist with maxBackups=2")
	}
}

func TestRotatingFile_NoBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	rf, err := OpenRotatingFile(path, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = rf.Write([]byte("first-line\n"))
	_, _ = rf.Write([]byte("second\n"))
	_ = rf.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second\n" {
		t.Errorf("log = %q, want only the latest write", data)
	}
	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("no backup should be kept")
	}
}

func TestRotatingFile_WriteAfterClose(t *testing.T) {
	rf, err := OpenRotatingFile(filepath.Join(t.TempDir(), "x.log"), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	_ = rf.Close()
	if _, err := rf.Write([]byte("late")); err == nil {
		t.Error("write after close should fail")
	}
}

func TestOpenLogFile(t *testing.T) {
	dir := t.TempDir()

	for _, maxSize := range []string{"1MB", ""} {
		t.Run("maxSize="+maxSize, func(t *testing.T) {
			path := filepath.Join(dir, "nested", "test"+maxSize+".log")
			w, err := OpenLogFile(path, maxSize, 3)
			if err != nil {
				t.Fatalf("OpenLogFile failed: %v", err)
			}
			if _, isRotating := w.(*RotatingFile); isRotating != (maxSize != "") {
				t.Errorf("OpenLogFile(%q) returned %T", maxSize, w)
			}

			logger := slog.New(NewLineHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
			logger.Debug("written", "n", 1)
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), "[debug] written | n=1") {
				t.Errorf("log = %q", data)
			}
		})
	}
}
