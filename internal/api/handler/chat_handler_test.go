package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/celanai/celan/internal/core/domain"
)

func TestChatHandler_Chat(t *testing.T) {
	e := newTestEcho(t)
	chat := &stubChatService{reply: "Hello!"}
	h := NewChatHandler(chat, zerolog.Nop())

	c, rec := jsonContext(e, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"Hi"}]}`)
	if err := h.Chat(c); err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"message":"Hello!"}` {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if len(chat.history) != 1 || chat.history[0].Content != "Hi" {
		t.Fatalf("history not forwarded: %+v", chat.history)
	}
}

func TestChatHandler_Chat_MalformedBody(t *testing.T) {
	e := newTestEcho(t)
	h := NewChatHandler(&stubChatService{}, zerolog.Nop())

	c, rec := jsonContext(e, http.MethodPost, "/api/chat", `{"messages":"nope"}`)
	if err := h.Chat(c); err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Invalid messages format") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestChatHandler_Chat_Errors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{domain.ErrInvalidMessages, http.StatusBadRequest, "Invalid messages format"},
		{domain.ErrMissingCredential, http.StatusInternalServerError, "OpenAI API key not configured"},
		{fmt.Errorf("chat completion: %w", domain.ErrUpstreamAuth), http.StatusInternalServerError, "Invalid OpenAI API key"},
		{fmt.Errorf("chat completion: %w", domain.ErrUpstreamRateLimit), http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."},
		{errors.New("boom"), http.StatusInternalServerError, "Failed to process your request"},
	}
	for _, tc := range cases {
		e := newTestEcho(t)
		h := NewChatHandler(&stubChatService{err: tc.err}, zerolog.Nop())

		c, rec := jsonContext(e, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"Hi"}]}`)
		if err := h.Chat(c); err != nil {
			t.Fatalf("Chat returned error: %v", err)
		}
		if rec.Code != tc.status || !strings.Contains(rec.Body.String(), tc.msg) {
			t.Fatalf("%v: got %d %s", tc.err, rec.Code, rec.Body.String())
		}
	}
}
