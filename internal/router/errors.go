package router

import (
	"fmt"
	"html"
	"strings"

	"sockroute/internal/errors"
	"sockroute/internal/response"
)

// MalformedBody is written, without a status line, when no GET line was read.
const MalformedBody = "<html>Illegal request: no GET</html>"

// StatusFor maps error codes to status codes. Codes that are written as
// bare bodies (malformed request, internal error) map to 0.
func StatusFor(code errors.ErrorCode) int {
	switch code {
	case errors.MissingParameter:
		return 400
	case errors.TypeMismatch:
		return 400
	case errors.UnrecognizedRoute:
		return 400
	case errors.NotFound:
		return 404
	case errors.Forbidden:
		return 403
	case errors.ExternalFetchFailure:
		return 502
	default:
		return 0
	}
}

// ErrorResponse renders err. RouteErrors with causes or usage get the
// explanatory page; others are rendered as their message.
func ErrorResponse(err error) response.Response {
	re, ok := errors.As(err)
	if !ok {
		re = errors.NewRouteError(errors.InternalError, err.Error(), err)
	}

	switch re.Code {
	case errors.MalformedRequest:
		return response.Raw(MalformedBody)
	case errors.InternalError:
		return response.Raw(fmt.Sprintf("<html>ERROR: %s</html>", html.EscapeString(re.Message)))
	}

	status := StatusFor(re.Code)
	if len(re.Causes) == 0 && re.Usage == nil {
		return response.New(status, response.HTML, re.Message)
	}
	return response.New(status, response.HTML, explain(re))
}

func explain(re *errors.RouteError) string {
	var b strings.Builder
	b.WriteString("<html>\n")
	b.WriteString("    <h3>An error occurred while processing your request.</h3>\n")
	if len(re.Causes) > 0 {
		b.WriteString("    <h4>Possible causes:</h4>\n")
		b.WriteString("    <ul>\n")
		for _, c := range re.Causes {
			b.WriteString("        <li>")
			b.WriteString(c)
			b.WriteString("</li>\n")
		}
		b.WriteString("    </ul>\n")
	}
	if re.Usage != nil {
		b.WriteString("    <p>Correct use:\n")
		b.WriteString("     <strong>")
		b.WriteString(re.Usage.Example)
		b.WriteString("</strong>\n")
		if re.Usage.Explanation != "" {
			b.WriteString("     , ")
			b.WriteString(re.Usage.Explanation)
			b.WriteString("\n")
		}
		b.WriteString("    </p>\n")
	}
	b.WriteString("</html>\n")
	return b.String()
}
