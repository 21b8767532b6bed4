package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"helpdesk-system/config"
	"helpdesk-system/models"
	"helpdesk-system/monitoring"
	"helpdesk-system/storage"
	"helpdesk-system/store"
	"helpdesk-system/utils"

	pubnub "github.com/pubnub/go"
)

// Category to priority lookup used at creation. Unlisted categories
// default to Low.
var priorityMap = map[string]models.TicketPriority{
	"nimc_client_password": models.PriorityHigh,
	"webmail_password":     models.PriorityHigh,
	"vpn":                  models.PriorityHigh,
	"device_activation":    models.PriorityHigh,
	"Onboarding":           models.PriorityHigh,
	"other":                models.PriorityLow,
}

// PriorityForCategory maps a draft category to its assigned priority.
func PriorityForCategory(category string) models.TicketPriority {
	if p, ok := priorityMap[category]; ok {
		return p
	}
	return models.PriorityLow
}

// TicketChannel is the shared realtime channel for ticket events.
const TicketChannel = "tickets"

type TicketService struct {
	Storage *storage.Storage
	pubnub  *pubnub.PubNub
	cfg     *config.Config
}

func NewTicketService(store *storage.Storage, pn *pubnub.PubNub, cfg *config.Config) *TicketService {
	return &TicketService{
		Storage: store,
		pubnub:  pn,
		cfg:     cfg,
	}
}

// ListTickets returns every ticket, or for an agent only the tickets
// they submitted (matched by ID or case-insensitive email), sorted by
// UpdatedAt descending.
func (s *TicketService) ListTickets(ctx context.Context, user *models.User) ([]models.Ticket, error) {
	tickets, err := s.Storage.Tickets(ctx)
	if err != nil {
		monitoring.TrackTicketOperation("list", "error")
		return nil, err
	}

	if user != nil && user.UserType == models.UserTypeAgent {
		own := make([]models.Ticket, 0, len(tickets))
		for _, t := range tickets {
			if t.UserID == user.ID || strings.EqualFold(t.UserEmail, user.Email) {
				own = append(own, t)
			}
		}
		tickets = own
	}

	monitoring.TrackTicketOperation("list", "ok")
	return store.SortByRecency(tickets), nil
}

// CreateTicket builds a ticket from the draft: priority from the
// category table, a freshly minted ticket number, and the draft
// description seeded as the first message of the thread.
func (s *TicketService) CreateTicket(ctx context.Context, draft models.TicketDraft, user models.User) (models.Ticket, error) {
	now := time.Now()

	number, err := utils.NewTicketNumber(now)
	if err != nil {
		monitoring.TrackTicketOperation("create", "error")
		return models.Ticket{}, fmt.Errorf("create ticket: mint number: %w", err)
	}

	id := now.UnixMilli()
	ticket := models.Ticket{
		ID:           id,
		TicketNumber: number,
		UserID:       user.ID,
		UserName:     user.Name,
		UserEmail:    user.Email,
		Category:     draft.Category,
		Title:        draft.Title,
		Status:       models.StatusOpen,
		Priority:     PriorityForCategory(draft.Category),
		CreatedAt:    now,
		UpdatedAt:    now,
		Messages: []models.TicketMessage{
			{
				ID:        id,
				TicketID:  id,
				UserID:    user.ID,
				UserName:  user.Name,
				Message:   draft.Description,
				CreatedAt: now,
			},
		},
	}

	if err := s.Storage.SaveTicket(ctx, ticket); err != nil {
		monitoring.TrackTicketOperation("create", "error")
		return models.Ticket{}, fmt.Errorf("create ticket: %w", err)
	}

	s.sendEmail(s.cfg.SupportEmail,
		fmt.Sprintf("New Ticket: %s", ticket.TicketNumber),
		fmt.Sprintf("A new ticket has been created by %s.\n\nTitle: %s\nPriority: %s",
			user.Name, draft.Title, ticket.Priority))
	s.sendEmail(user.Email,
		fmt.Sprintf("Ticket Received: %s", ticket.TicketNumber),
		fmt.Sprintf("Dear %s,\n\nWe have received your ticket regarding %q.\n\nTrack status at your portal.",
			user.Name, draft.Title))

	s.publish(TicketChannel, map[string]any{
		"type":          "ticket_created",
		"ticket_id":     ticket.ID,
		"ticket_number": ticket.TicketNumber,
	})
	s.publish(fmt.Sprintf("user-%d", user.ID), map[string]any{
		"type":          "ticket_created",
		"ticket_number": ticket.TicketNumber,
	})

	monitoring.TrackTicketOperation("create", "ok")
	return ticket, nil
}

// UpdateTicket persists the ticket as-is. Idempotent; this is the
// store's persistence effect target.
func (s *TicketService) UpdateTicket(ctx context.Context, ticket models.Ticket) (models.Ticket, error) {
	if err := s.Storage.SaveTicket(ctx, ticket); err != nil {
		monitoring.TrackTicketOperation("update", "error")
		return models.Ticket{}, fmt.Errorf("update ticket: %w", err)
	}

	s.publish(TicketChannel, map[string]any{
		"type":      "ticket_updated",
		"ticket_id": ticket.ID,
		"status":    ticket.Status,
	})

	monitoring.TrackTicketOperation("update", "ok")
	return ticket, nil
}

// AuthenticateAgent checks allow-list membership, case-insensitively.
// A miss is a normal negative result, not an error. On a hit the user
// is synthesized with a fresh session ID since only emails are stored
// for agents.
func (s *TicketService) AuthenticateAgent(ctx context.Context, email string) (*models.User, error) {
	allowed, err := s.Storage.AllowedAgents(ctx)
	if err != nil {
		return nil, err
	}

	clean := strings.ToLower(strings.TrimSpace(email))
	for _, entry := range allowed {
		if strings.ToLower(entry) == clean {
			name, _, _ := strings.Cut(clean, "@")
			return &models.User{
				ID:       time.Now().UnixMilli(),
				Name:     name,
				Email:    clean,
				UserType: models.UserTypeAgent,
			}, nil
		}
	}

	return nil, nil
}

// BulkImportAgents parses comma- or newline-delimited emails and
// unions them into the allow-list. Tokens without an @ are dropped
// silently. Returns the number of accepted tokens.
func (s *TicketService) BulkImportAgents(ctx context.Context, text string) (int, error) {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})

	emails := make([]string, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if strings.Contains(token, "@") {
			emails = append(emails, token)
		}
	}

	if err := s.Storage.SaveAllowedAgents(ctx, emails); err != nil {
		return 0, err
	}
	return len(emails), nil
}

// StaffList returns the seeded staff directory.
func (s *TicketService) StaffList(ctx context.Context) ([]models.User, error) {
	return s.Storage.StaffList(ctx)
}

// sendEmail is a log-only notification stub; no SMTP is wired.
func (s *TicketService) sendEmail(to, subject, body string) {
	log.Printf("[Email Service] Sending to: %s", to)
	log.Printf("Subject: %s", subject)
	log.Printf("Body: %s", body)
}

func (s *TicketService) publish(channel string, message map[string]any) {
	if s.pubnub == nil {
		return
	}
	s.pubnub.Publish().
		Channel(channel).
		Message(message).
		Execute()
}
