package handlers

import (
	"context"

	"sockroute/internal/chatlog"
	routeerr "sockroute/internal/errors"
	"sockroute/internal/request"
	"sockroute/internal/response"
)

var chatUsage = &routeerr.Usage{
	Example:     "/chat?name=X&msg=Y",
	Explanation: "where 'X' is replaced by your name and 'Y' by a message.",
}

// Chat appends name: msg to the chat log and renders the whole log. The bare
// marker only renders.
func (s *Set) Chat(ctx context.Context, req *request.Request) (response.Response, error) {
	if req.Path == MarkerChat {
		log, err := s.chat.ReadAll(ctx)
		if err != nil {
			return response.Response{}, routeerr.NewRouteError(routeerr.InternalError, err.Error(), err)
		}
		return response.OK(response.HTML, log), nil
	}

	q, err := queryOf(req.Path, MarkerChat)
	if err != nil {
		return response.Response{}, chatError(routeerr.TypeMismatch, err.Error(), err)
	}

	name, _ := q.Get("name")
	msg, _ := q.Get("msg")
	if name == "" || msg == "" {
		return response.Response{}, chatError(routeerr.MissingParameter, "name and msg are required", nil)
	}

	log, err := s.chat.AppendAndRead(ctx, chatlog.RenderFragment(name, msg))
	if err != nil {
		return response.Response{}, routeerr.NewRouteError(routeerr.InternalError, err.Error(), err)
	}
	s.logger.Debug("Chat message appended", "name", name, "bytes", len(msg))
	return response.OK(response.HTML, log), nil
}

func chatError(code routeerr.ErrorCode, msg string, cause error) error {
	return routeerr.NewRouteError(code, msg, cause).
		WithCauses("Invalid or missing arguments").
		WithUsage(chatUsage)
}
