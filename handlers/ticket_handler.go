package handlers

import (
	"net/http"
	"strconv"
	"time"

	"helpdesk-system/config"
	"helpdesk-system/models"
	"helpdesk-system/services"
	"helpdesk-system/store"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type TicketHandler struct {
	store   *store.Store
	tickets *services.TicketService
	cfg     *config.Config
}

func NewTicketHandler(ticketStore *store.Store, tickets *services.TicketService, cfg *config.Config) *TicketHandler {
	return &TicketHandler{
		store:   ticketStore,
		tickets: tickets,
		cfg:     cfg,
	}
}

// ListTickets serves both panes. Staff browse the shared store through
// folder and search intents; agents get their own tickets straight
// from the access layer.
func (h *TicketHandler) ListTickets(e *core.RequestEvent) error {
	query := e.Request.URL.Query()

	if query.Get("user_type") == string(models.UserTypeAgent) {
		userID, _ := strconv.ParseInt(query.Get("user_id"), 10, 64)
		agent := &models.User{
			ID:       userID,
			Email:    query.Get("email"),
			UserType: models.UserTypeAgent,
		}
		tickets, err := h.tickets.ListTickets(e.Request.Context(), agent)
		if err != nil {
			return apis.NewBadRequestError("Failed to fetch tickets", err)
		}
		return e.JSON(http.StatusOK, map[string]any{
			"tickets": tickets,
			"total":   len(tickets),
		})
	}

	if folder := query.Get("folder"); folder != "" && folder != h.store.State().ActiveFolder {
		h.store.Dispatch(store.SetFolder{Folder: folder})
	}
	if query.Has("search") {
		h.store.Dispatch(store.Search{Term: query.Get("search")})
	}

	userID, _ := strconv.ParseInt(query.Get("user_id"), 10, 64)
	state := h.store.State()
	visible := h.store.Visible(userID)

	return e.JSON(http.StatusOK, map[string]any{
		"tickets": visible,
		"total":   len(visible),
		"unread":  store.UnreadCount(visible),
		"folder":  state.ActiveFolder,
		"loading": state.Loading,
		"error":   state.Error,
	})
}

type createTicketRequest struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	UserID      int64  `json:"user_id"`
	UserName    string `json:"user_name"`
	UserEmail   string `json:"user_email"`
}

func (h *TicketHandler) CreateTicket(e *core.RequestEvent) error {
	var req createTicketRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Title == "" || req.Description == "" {
		return apis.NewBadRequestError("Title and description are required", nil)
	}

	draft := models.TicketDraft{Title: req.Title, Category: req.Category, Description: req.Description}
	user := models.User{ID: req.UserID, Name: req.UserName, Email: req.UserEmail, UserType: models.UserTypeAgent}

	ticket, err := h.tickets.CreateTicket(e.Request.Context(), draft, user)
	if err != nil {
		return apis.NewBadRequestError("Failed to create ticket", err)
	}

	// Refresh the shared store so the staff panes see the new ticket.
	h.refreshStore(e)

	return e.JSON(http.StatusCreated, ticket)
}

// SelectTicket marks the routed ticket as the active selection,
// flipping it read when it was unread.
func (h *TicketHandler) SelectTicket(e *core.RequestEvent) error {
	ticket, err := h.findTicket(e)
	if err != nil {
		return err
	}

	state := h.store.Dispatch(store.Select{Ticket: ticket})
	return e.JSON(http.StatusOK, state.SelectedTicket)
}

// ClearSelection drops the active selection without touching any ticket.
func (h *TicketHandler) ClearSelection(e *core.RequestEvent) error {
	h.store.Dispatch(store.Select{Ticket: nil})
	return e.JSON(http.StatusOK, map[string]any{"selected": nil})
}

type updateTicketRequest struct {
	Status         *models.TicketStatus `json:"status"`
	AssignedTo     *int64               `json:"assigned_to"`
	AssignedToName *string              `json:"assigned_to_name"`
	Unassign       bool                 `json:"unassign"`
}

// UpdateTicket applies a status or assignment change through the
// update intent, refreshing UpdatedAt.
func (h *TicketHandler) UpdateTicket(e *core.RequestEvent) error {
	ticket, err := h.findTicket(e)
	if err != nil {
		return err
	}

	var req updateTicketRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	changed := *ticket
	if req.Status != nil {
		changed.Status = *req.Status
	}
	if req.Unassign {
		changed.AssignedTo = nil
		changed.AssignedToName = nil
	} else if req.AssignedTo != nil {
		changed.AssignedTo = req.AssignedTo
		changed.AssignedToName = req.AssignedToName
	}
	changed.UpdatedAt = time.Now()

	state := h.store.Dispatch(store.Update{Ticket: changed})
	for _, t := range state.Tickets {
		if t.ID == changed.ID {
			return e.JSON(http.StatusOK, t)
		}
	}
	return e.JSON(http.StatusOK, changed)
}

type addMessageRequest struct {
	UserID      int64  `json:"user_id"`
	UserName    string `json:"user_name"`
	Message     string `json:"message"`
	Attachments []struct {
		Name string `json:"name"`
		Type string `json:"type"`
		Data string `json:"data"`
	} `json:"attachments"`
}

// AddMessage appends a reply to the ticket thread. Attachments arrive
// base64-encoded and are stored inline on the message.
func (h *TicketHandler) AddMessage(e *core.RequestEvent) error {
	ticket, err := h.findTicket(e)
	if err != nil {
		return err
	}

	var req addMessageRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Message == "" && len(req.Attachments) == 0 {
		return apis.NewBadRequestError("Message or attachment required", nil)
	}

	now := time.Now()
	message := models.TicketMessage{
		ID:        now.UnixMilli(),
		TicketID:  ticket.ID,
		UserID:    req.UserID,
		UserName:  req.UserName,
		Message:   req.Message,
		CreatedAt: now,
	}
	for _, a := range req.Attachments {
		message.Attachments = append(message.Attachments, models.Attachment{
			ID:       uuid.New().String(),
			Name:     a.Name,
			MimeType: a.Type,
			Data:     a.Data,
		})
	}

	state := h.store.Dispatch(store.AddMessage{Message: message})
	for _, t := range state.Tickets {
		if t.ID == ticket.ID {
			return e.JSON(http.StatusOK, t)
		}
	}
	return apis.NewNotFoundError("Ticket not found", nil)
}

type lockRequest struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
}

// LockTicket stamps the advisory viewing lock. The expiry is
// informational; nothing enforces or releases it.
func (h *TicketHandler) LockTicket(e *core.RequestEvent) error {
	ticket, err := h.findTicket(e)
	if err != nil {
		return err
	}

	var req lockRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	lock := models.TicketLock{
		UserID:    req.UserID,
		UserName:  req.UserName,
		ExpiresAt: time.Now().Add(h.cfg.LockTTL).UnixMilli(),
	}
	h.store.Dispatch(store.Lock{TicketID: ticket.ID, Lock: lock})

	return e.JSON(http.StatusOK, map[string]any{"locked": true, "lock": lock})
}

func (h *TicketHandler) UnlockTicket(e *core.RequestEvent) error {
	ticket, err := h.findTicket(e)
	if err != nil {
		return err
	}

	h.store.Dispatch(store.Unlock{TicketID: ticket.ID})
	return e.JSON(http.StatusOK, map[string]any{"locked": false})
}

// findTicket resolves the {ticketId} path value against the store.
func (h *TicketHandler) findTicket(e *core.RequestEvent) (*models.Ticket, error) {
	id, err := strconv.ParseInt(e.Request.PathValue("ticketId"), 10, 64)
	if err != nil {
		return nil, apis.NewBadRequestError("Invalid ticket id", err)
	}

	for _, t := range h.store.State().Tickets {
		if t.ID == id {
			ticket := t
			return &ticket, nil
		}
	}
	return nil, apis.NewNotFoundError("Ticket not found", nil)
}

func (h *TicketHandler) refreshStore(e *core.RequestEvent) {
	h.store.Dispatch(store.FetchStart{})
	tickets, err := h.tickets.ListTickets(e.Request.Context(), nil)
	if err != nil {
		h.store.Dispatch(store.FetchError{Message: "Failed to fetch tickets"})
		return
	}
	h.store.Dispatch(store.FetchSuccess{Tickets: tickets})
}
