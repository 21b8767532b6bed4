package handlers

import (
	"net/http"

	"helpdesk-system/services"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type AuthHandler struct {
	auth    *services.AuthService
	tickets *services.TicketService
}

func NewAuthHandler(auth *services.AuthService, tickets *services.TicketService) *AuthHandler {
	return &AuthHandler{auth: auth, tickets: tickets}
}

type agentLoginRequest struct {
	Email string `json:"email"`
}

// AgentLogin resolves an email against the allow-list. A hit mints a
// fresh session user; a miss is a 401, not a server error.
func (h *AuthHandler) AgentLogin(e *core.RequestEvent) error {
	var req agentLoginRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Email == "" {
		return apis.NewBadRequestError("Email is required", nil)
	}

	user, err := h.tickets.AuthenticateAgent(e.Request.Context(), req.Email)
	if err != nil {
		return apis.NewBadRequestError("Failed to check agent database", err)
	}
	if user == nil {
		return apis.NewUnauthorizedError("Email not found in agent database. Please ask IT to add your email.", nil)
	}

	return e.JSON(http.StatusOK, user)
}

type staffLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StaffLogin checks the configured credential pair and returns the
// seeded administrator record.
func (h *AuthHandler) StaffLogin(e *core.RequestEvent) error {
	var req staffLoginRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	user, err := h.auth.AuthenticateStaff(e.Request.Context(), req.Username, req.Password)
	if err != nil {
		return apis.NewBadRequestError("Failed to authenticate", err)
	}
	if user == nil {
		return apis.NewUnauthorizedError("Invalid credentials", nil)
	}

	return e.JSON(http.StatusOK, user)
}
