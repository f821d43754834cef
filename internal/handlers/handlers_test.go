package handlers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sockroute/internal/catalog"
	"sockroute/internal/chatlog"
	"sockroute/internal/request"
	"sockroute/internal/response"
	"sockroute/internal/testutil"
)

type fixture struct {
	set     *Set
	fetcher *testutil.StubFetcher
	chat    chatlog.Store
}

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.DefaultEntries())
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	if opts.WebRoot == "" {
		opts.WebRoot = testutil.NewWebRoot(t, map[string]string{
			"root.html":  "<html>${links}</html>",
			"index.html": "<html>random image</html>",
		})
	}

	chat, err := chatlog.OpenFile(filepath.Join(t.TempDir(), "chat.html"))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	t.Cleanup(func() { _ = chat.Close() })

	fetcher := &testutil.StubFetcher{}
	set, err := New(opts, Deps{
		Catalog: defaultCatalog(t),
		Random:  NewRandom(42),
		Chat:    chat,
		Fetcher: fetcher,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{set: set, fetcher: fetcher, chat: chat}
}

func (f *fixture) get(t *testing.T, path string) response.Response {
	t.Helper()
	return f.set.Router().Dispatch(context.Background(), &request.Request{Path: path})
}

func TestNew_RequiresCollaborators(t *testing.T) {
	chat, err := chatlog.OpenFile(filepath.Join(t.TempDir(), "chat.html"))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	fetcher := &testutil.StubFetcher{}

	tests := []struct {
		name string
		deps Deps
	}{
		{"no catalog", Deps{Chat: chat, Fetcher: fetcher}},
		{"no chat", Deps{Catalog: defaultCatalog(t), Fetcher: fetcher}},
		{"no fetcher", Deps{Catalog: defaultCatalog(t), Chat: chat}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(Options{}, tt.deps); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRoutes_Dispatch(t *testing.T) {
	f := newFixture(t, Options{})
	rt := f.set.Router()

	tests := []struct {
		path string
		want string
	}{
		{"", "root"},
		{"json", "json"},
		{"JSON", "json"},
		{"random", "random"},
		{"Random", "random"},
		{"file/www/root.html", "file"},
		{"multiply?num1=1&num2=2", "multiply"},
		{"github?query=users/o/repos", "github"},
		{"compatible?name1=a&name2=b", "compatible"},
		{"chat?", "chat"},
		{"chat?name=a&msg=b", "chat"},
		{"jsonx", "default"},
		{"favicon.ico", "default"},
		{"xmultiply?num1=1", "multiply"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := rt.Match(tt.path).Name; got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestNotRecognized(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.get(t, "nothing-here")
	if resp.Status != 400 {
		t.Errorf("Status = %d, want 400", resp.Status)
	}
	if resp.Body != NotRecognizedBody {
		t.Errorf("Body = %q, want %q", resp.Body, NotRecognizedBody)
	}
}

func TestRoot_ListsWebRoot(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.get(t, "")
	if resp.Status != 200 {
		t.Fatalf("Status = %d, want 200", resp.Status)
	}
	want := "<html><ul>\n<li>index.html</li><li>root.html</li></ul>\n</html>"
	if resp.Body != want {
		t.Errorf("Body = %q, want %q", resp.Body, want)
	}
}

func TestRoot_EmptyWebRoot(t *testing.T) {
	webRoot := testutil.NewWebRoot(t, map[string]string{
		"../outside.html": "<p>${links}</p>",
	})
	f := newFixture(t, Options{WebRoot: webRoot, RootPage: "../outside.html"})

	resp := f.get(t, "")
	if want := "<p>" + NoFilesBody + "</p>"; resp.Body != want {
		t.Errorf("Body = %q, want %q", resp.Body, want)
	}
}

func TestRoot_MissingPage(t *testing.T) {
	webRoot := testutil.NewWebRoot(t, nil)
	f := newFixture(t, Options{WebRoot: webRoot})

	resp := f.get(t, "")
	if !resp.Raw {
		t.Fatal("expected a raw failure response")
	}
	if !strings.HasPrefix(resp.Body, "<html>ERROR: ") {
		t.Errorf("Body = %q, want general failure page", resp.Body)
	}
}

func TestJSON_ReturnsCatalogPair(t *testing.T) {
	f := newFixture(t, Options{})
	urls := make(map[string]string)
	for _, e := range defaultCatalog(t).Entries() {
		urls[e.Label] = e.URL
	}

	for i := 0; i < 50; i++ {
		resp := f.get(t, "json")
		if resp.Status != 200 || resp.ContentType != response.JSON {
			t.Fatalf("got %d %s, want 200 %s", resp.Status, resp.ContentType, response.JSON)
		}

		var got imageJSON
		if err := json.Unmarshal([]byte(resp.Body), &got); err != nil {
			t.Fatalf("Unmarshal(%q): %v", resp.Body, err)
		}
		url, ok := urls[got.Header]
		if !ok {
			t.Fatalf("header %q is not in the catalog", got.Header)
		}
		if url != got.Image {
			t.Fatalf("image = %q, want %q for %q", got.Image, url, got.Header)
		}
	}
}

func TestRandomPage(t *testing.T) {
	f := newFixture(t, Options{})

	resp := f.get(t, "random")
	if resp.Status != 200 {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
	if resp.Body != "<html>random image</html>" {
		t.Errorf("Body = %q", resp.Body)
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	fileRoot := filepath.Join(dir, "files")
	if err := os.MkdirAll(fileRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "outside.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(fileRoot, "present.txt"), []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, Options{FileRoot: fileRoot})

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"file/present.txt", 200, FilePlaceholderBody},
		{"file/absent.txt", 404, "File not found: absent.txt"},
		{"file/", 404, "File not found: "},
		{"file/../outside.txt", 404, "File not found: ../outside.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := f.get(t, tt.path)
			if resp.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", resp.Status, tt.wantStatus)
			}
			if resp.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", resp.Body, tt.wantBody)
			}
			if strings.Contains(resp.Body, "secret") {
				t.Error("file contents leaked")
			}
		})
	}
}

func TestRandom_SeededIsDeterministic(t *testing.T) {
	a, b := NewRandom(7), NewRandom(7)
	for i := 0; i < 10; i++ {
		if x, y := a.Intn(100), b.Intn(100); x != y {
			t.Fatalf("draw %d: %d != %d", i, x, y)
		}
	}
}
