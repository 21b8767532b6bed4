package handlers

import (
	"net/http"

	"helpdesk-system/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type AssistantHandler struct {
	assistant *services.AssistantService
}

func NewAssistantHandler(assistant *services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat forwards one prompt to the assistant. Upstream failures come
// back as the canned fallback reply with a 200, never as an error.
func (h *AssistantHandler) Chat(e *core.RequestEvent) error {
	var req chatRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Message == "" {
		return apis.NewBadRequestError("Message is required", nil)
	}

	reply := h.assistant.SendMessage(e.Request.Context(), req.Message)
	return e.JSON(http.StatusOK, map[string]any{"reply": reply})
}
