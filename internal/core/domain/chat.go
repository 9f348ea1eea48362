package domain

import "errors"

// ChatRole is who authored a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

var (
	ErrInvalidMessages    = errors.New("invalid messages format")
	ErrMissingCredential  = errors.New("completion credential not configured")
	ErrUpstreamAuth       = errors.New("completion credential rejected")
	ErrUpstreamRateLimit  = errors.New("completion rate limit exceeded")
	ErrUpstreamCompletion = errors.New("completion request failed")
)

// ChatMessage is never persisted; it lives in the page and the request body.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}
