package models

import (
	"time"
)

type TicketStatus string

const (
	StatusOpen         TicketStatus = "Open"
	StatusInProgress   TicketStatus = "In Progress"
	StatusAwaitingUser TicketStatus = "Awaiting User"
	StatusClosed       TicketStatus = "Closed"
)

type TicketPriority string

const (
	PriorityLow    TicketPriority = "Low"
	PriorityMedium TicketPriority = "Medium"
	PriorityHigh   TicketPriority = "High"
	PriorityUrgent TicketPriority = "Urgent"
)

// Attachment payload is carried inline as base64, there is no blob store.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"type"`
	Data     string `json:"data"`
}

type TicketMessage struct {
	ID          int64        `json:"id"`
	TicketID    int64        `json:"ticket_id"`
	UserID      int64        `json:"user_id"`
	UserName    string       `json:"user_name"`
	Message     string       `json:"message"`
	CreatedAt   time.Time    `json:"created_at"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// TicketLock is advisory metadata only. Nothing checks ExpiresAt and
// nothing releases a lock automatically.
type TicketLock struct {
	UserID    int64  `json:"user_id"`
	UserName  string `json:"user_name"`
	ExpiresAt int64  `json:"expires_at"`
}

type Ticket struct {
	ID             int64           `json:"id"`
	TicketNumber   string          `json:"ticket_number"`
	UserID         int64           `json:"user_id"`
	UserName       string          `json:"user_name"`
	UserEmail      string          `json:"user_email"`
	Category       string          `json:"category"`
	Title          string          `json:"title"`
	Status         TicketStatus    `json:"status"`
	Priority       TicketPriority  `json:"priority"`
	AssignedTo     *int64          `json:"assigned_to"`
	AssignedToName *string         `json:"assigned_to_name"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Messages       []TicketMessage `json:"messages"`
	Lock           *TicketLock     `json:"lock"`
	IsRead         bool            `json:"is_read"`
}

// TicketDraft is the user-submitted form for a new ticket. The
// description becomes the first message of the thread.
type TicketDraft struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
}
