package handlers

import (
	"io"
	"net/http"

	"helpdesk-system/services"
	"helpdesk-system/storage"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// Upload cap for the bulk import file. Plain text emails, so this is
// generous.
const maxImportSize = 1 << 20

type AdminHandler struct {
	tickets *services.TicketService
	storage *storage.Storage
}

func NewAdminHandler(tickets *services.TicketService, store *storage.Storage) *AdminHandler {
	return &AdminHandler{tickets: tickets, storage: store}
}

// ListAgents returns the agent email allow-list.
func (h *AdminHandler) ListAgents(e *core.RequestEvent) error {
	agents, err := h.storage.AllowedAgents(e.Request.Context())
	if err != nil {
		return apis.NewBadRequestError("Failed to load agent list", err)
	}
	return e.JSON(http.StatusOK, map[string]any{"agents": agents, "total": len(agents)})
}

type addAgentRequest struct {
	Email string `json:"email"`
}

// AddAgent adds one email to the allow-list.
func (h *AdminHandler) AddAgent(e *core.RequestEvent) error {
	var req addAgentRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	count, err := h.tickets.BulkImportAgents(e.Request.Context(), req.Email)
	if err != nil {
		return apis.NewBadRequestError("Failed to save agent", err)
	}
	if count == 0 {
		return apis.NewBadRequestError("Not a valid email address", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{"added": count})
}

// RemoveAgent drops one email from the allow-list.
func (h *AdminHandler) RemoveAgent(e *core.RequestEvent) error {
	email := e.Request.URL.Query().Get("email")
	if email == "" {
		return apis.NewBadRequestError("Email is required", nil)
	}

	if err := h.storage.RemoveAllowedAgent(e.Request.Context(), email); err != nil {
		return apis.NewBadRequestError("Failed to remove agent", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"removed": email})
}

// ImportAgents accepts an uploaded text/CSV file of emails, delimited
// by commas or newlines. Rows without an @ are dropped silently.
func (h *AdminHandler) ImportAgents(e *core.RequestEvent) error {
	file, _, err := e.Request.FormFile("file")
	if err != nil {
		return apis.NewBadRequestError("CSV file is required", err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		return apis.NewBadRequestError("Failed to read file", err)
	}

	count, err := h.tickets.BulkImportAgents(e.Request.Context(), string(content))
	if err != nil {
		return apis.NewBadRequestError("Failed to import agents", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"imported": count})
}

// ListStaff returns the seeded staff directory for assignment pickers.
func (h *AdminHandler) ListStaff(e *core.RequestEvent) error {
	staff, err := h.tickets.StaffList(e.Request.Context())
	if err != nil {
		return apis.NewBadRequestError("Failed to load staff list", err)
	}
	return e.JSON(http.StatusOK, map[string]any{"staff": staff})
}
