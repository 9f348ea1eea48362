package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/celanai/celan/internal/api/metrics"
	"github.com/celanai/celan/internal/core/domain"
	"github.com/celanai/celan/internal/core/ports"
)

// ChatHandler proxies a conversation to the completion service.
type ChatHandler struct {
	service ports.ChatService
	log     zerolog.Logger
}

func NewChatHandler(service ports.ChatService, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{service: service, log: log}
}

// Chat answers the conversation with one assistant message.
//
// @Summary      Chat
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        body  body      chatRequest  true  "Conversation so far"
// @Success      200   {object}  chatResponse
// @Failure      400   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/chat [post]
func (h *ChatHandler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(metrics.ChatResult(domain.ErrInvalidMessages)).Inc()
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid messages format"})
	}

	start := time.Now()
	reply, err := h.service.Reply(c.Request().Context(), req.Messages)
	result := metrics.ChatResult(err)
	metrics.ChatRequestsTotal.WithLabelValues(result).Inc()
	if result != "invalid" && result != "unconfigured" {
		metrics.ChatCompletionDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		status, msg := chatError(err)
		return c.JSON(status, errorResponse{Error: msg})
	}
	return c.JSON(http.StatusOK, chatResponse{Message: reply})
}

func chatError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidMessages):
		return http.StatusBadRequest, "Invalid messages format"
	case errors.Is(err, domain.ErrMissingCredential):
		return http.StatusInternalServerError, "OpenAI API key not configured"
	case errors.Is(err, domain.ErrUpstreamAuth):
		return http.StatusInternalServerError, "Invalid OpenAI API key"
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		return http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."
	default:
		return http.StatusInternalServerError, "Failed to process your request"
	}
}
