package router

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"sockroute/internal/errors"
	"sockroute/internal/request"
	"sockroute/internal/response"
)

func named(name string) HandlerFunc {
	return func(ctx context.Context, req *request.Request) (response.Response, error) {
		return response.OK(response.HTML, name), nil
	}
}

func testRouter() *Router {
	routes := []Route{
		{Name: "root", Match: Exact(""), Handle: named("root")},
		{Name: "json", Match: Exact("json"), Handle: named("json")},
		{Name: "random", Match: Exact("random"), Handle: named("random")},
		{Name: "file", Match: Contains("file/"), Handle: named("file")},
		{Name: "multiply", Match: Contains("multiply?"), Handle: named("multiply")},
		{Name: "github", Match: Contains("github?"), Handle: named("github")},
		{Name: "compatible", Match: Contains("compatible?"), Handle: named("compatible")},
		{Name: "chat", Match: Contains("chat?"), Handle: named("chat")},
	}
	fallback := func(ctx context.Context, req *request.Request) (response.Response, error) {
		return response.Response{}, errors.NewRouteError(errors.UnrecognizedRoute, "I am not sure what you want me to do...", nil)
	}
	return New(routes, fallback, nil)
}

func TestMatch(t *testing.T) {
	rt := testRouter()

	tests := []struct {
		path string
		want string
	}{
		{"", "root"},
		{"json", "json"},
		{"JSON", "json"},
		{"random", "random"},
		{"Random", "random"},
		{"json/extra", "default"},
		{"randomly", "default"},
		{"file/www/root.html", "file"},
		{"multiply?num1=1&num2=2", "multiply"},
		{"github?query=users/x/repos", "github"},
		{"compatible?name1=a&name2=b", "compatible"},
		{"chat?", "chat"},
		{"chat?name=a&msg=b", "chat"},
		// substring matches anywhere, first route in table order wins
		{"xyzchat?name=a&msg=b", "chat"},
		{"prefix/file/x", "file"},
		{"file/multiply?num1=1", "file"},
		{"multiply?x=github?", "multiply"},
		{"chat", "default"},
		{"nonsense", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := rt.Match(tt.path).Name; got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestRoutes(t *testing.T) {
	got := strings.Join(testRouter().Routes(), ",")
	want := "root,json,random,file,multiply,github,compatible,chat"
	if got != want {
		t.Errorf("Routes() = %q, want %q", got, want)
	}
}

func TestServe(t *testing.T) {
	rt := testRouter()

	resp, req := rt.Serve(context.Background(), strings.NewReader("GET /json HTTP/1.1\r\nHost: x\r\n\r\n"))
	if req == nil || req.Path != "json" {
		t.Fatalf("Serve request = %+v, want path json", req)
	}
	if resp.Status != 200 || resp.Body != "json" {
		t.Errorf("Serve response = %+v", resp)
	}
}

func TestServe_Unrecognized(t *testing.T) {
	resp, _ := testRouter().Serve(context.Background(), strings.NewReader("GET /nonsense HTTP/1.1\r\n\r\n"))
	if resp.Status != 400 {
		t.Errorf("Status = %d, want 400", resp.Status)
	}
	if resp.Body != "I am not sure what you want me to do..." {
		t.Errorf("Body = %q", resp.Body)
	}
}

func TestServe_Malformed(t *testing.T) {
	resp, req := testRouter().Serve(context.Background(), strings.NewReader("POST /chat? HTTP/1.1\r\n\r\n"))
	if req != nil {
		t.Errorf("request = %+v, want nil", req)
	}
	if !resp.Raw || resp.Body != MalformedBody {
		t.Errorf("response = %+v, want raw malformed body", resp)
	}
	if string(resp.Bytes()) != "<html>Illegal request: no GET</html>" {
		t.Errorf("wire bytes = %q", resp.Bytes())
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, stderrors.New("connection reset by peer") }

func TestServe_ReadError(t *testing.T) {
	resp, _ := testRouter().Serve(context.Background(), brokenReader{})
	if !resp.Raw || !strings.HasPrefix(resp.Body, "<html>ERROR: ") {
		t.Errorf("response = %+v, want raw error page", resp)
	}
}

func TestDispatch_RecoversPanic(t *testing.T) {
	routes := []Route{{
		Name:  "boom",
		Match: Exact("boom"),
		Handle: func(ctx context.Context, req *request.Request) (response.Response, error) {
			panic("handler exploded")
		},
	}}
	rt := New(routes, named("default"), nil)

	resp := rt.Dispatch(context.Background(), &request.Request{Path: "boom"})
	if !resp.Raw || !strings.Contains(resp.Body, "handler exploded") {
		t.Errorf("response = %+v, want raw error page mentioning panic", resp)
	}

	// router keeps working after a panic
	resp = rt.Dispatch(context.Background(), &request.Request{Path: "other"})
	if resp.Body != "default" {
		t.Errorf("after panic response = %+v", resp)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.ErrorCode
		want int
	}{
		{errors.MissingParameter, 400},
		{errors.TypeMismatch, 400},
		{errors.UnrecognizedRoute, 400},
		{errors.NotFound, 404},
		{errors.Forbidden, 403},
		{errors.ExternalFetchFailure, 502},
		{errors.InternalError, 0},
		{errors.MalformedRequest, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := StatusFor(tt.code); got != tt.want {
				t.Errorf("StatusFor(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	t.Run("message only", func(t *testing.T) {
		resp := ErrorResponse(errors.NewRouteError(errors.NotFound, "File not found: x", nil))
		if resp.Status != 404 || resp.Body != "File not found: x" {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("explanatory page", func(t *testing.T) {
		err := errors.NewRouteError(errors.Forbidden, "bad query", nil).
			WithCauses("Invalid or missing query").
			WithUsage(&errors.Usage{Example: "/github?query=users/USER/repos", Explanation: "where 'USER' is replaced by a GitHub user's name"})
		resp := ErrorResponse(err)
		if resp.Status != 403 {
			t.Errorf("Status = %d, want 403", resp.Status)
		}
		for _, part := range []string{
			"An error occurred while processing your request.",
			"<li>Invalid or missing query</li>",
			"<strong>/github?query=users/USER/repos</strong>",
			"where 'USER' is replaced",
		} {
			if !strings.Contains(resp.Body, part) {
				t.Errorf("Body missing %q:\n%s", part, resp.Body)
			}
		}
	})

	t.Run("plain error is internal", func(t *testing.T) {
		resp := ErrorResponse(stderrors.New("disk <full>"))
		if !resp.Raw || resp.Body != "<html>ERROR: disk &lt;full&gt;</html>" {
			t.Errorf("response = %+v", resp)
		}
	})
}
