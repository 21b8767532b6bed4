package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicket_JSONRoundTrip(t *testing.T) {
	// Tickets live in a single JSON blob, so serialization is the
	// storage format, not just a transport detail.
	assigned := int64(101)
	assignedName := "IT Administrator"
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	ticket := Ticket{
		ID:             1700000000000,
		TicketNumber:   "T20260314-512",
		UserID:         1700000000001,
		UserName:       "john.doe",
		UserEmail:      "john.doe@example.com",
		Category:       "vpn",
		Title:          "VPN disconnects every hour",
		Status:         StatusInProgress,
		Priority:       PriorityHigh,
		AssignedTo:     &assigned,
		AssignedToName: &assignedName,
		CreatedAt:      created,
		UpdatedAt:      created.Add(2 * time.Hour),
		Messages: []TicketMessage{
			{
				ID:        1700000000002,
				TicketID:  1700000000000,
				UserID:    1700000000001,
				UserName:  "john.doe",
				Message:   "The tunnel drops roughly once an hour.",
				CreatedAt: created,
			},
		},
		Lock:   &TicketLock{UserID: 101, UserName: "IT Administrator", ExpiresAt: created.Add(time.Minute).UnixMilli()},
		IsRead: true,
	}

	data, err := json.Marshal(ticket)
	require.NoError(t, err)

	var decoded Ticket
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, ticket.TicketNumber, decoded.TicketNumber)
	assert.Equal(t, ticket.Status, decoded.Status)
	assert.Equal(t, ticket.Priority, decoded.Priority)
	require.NotNil(t, decoded.AssignedTo)
	assert.Equal(t, assigned, *decoded.AssignedTo)
	require.Len(t, decoded.Messages, 1)
	assert.Equal(t, ticket.Messages[0].Message, decoded.Messages[0].Message)
	require.NotNil(t, decoded.Lock)
	assert.Equal(t, ticket.Lock.UserName, decoded.Lock.UserName)
	assert.WithinDuration(t, ticket.UpdatedAt, decoded.UpdatedAt, time.Second)
}

func TestTicket_UnassignedSerializesAsNull(t *testing.T) {
	ticket := Ticket{ID: 1, Status: StatusOpen}

	data, err := json.Marshal(ticket)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "null", string(raw["assigned_to"]))
	assert.Equal(t, "null", string(raw["lock"]))
}

func TestTicketMessage_AttachmentsOmittedWhenEmpty(t *testing.T) {
	msg := TicketMessage{ID: 1, TicketID: 2, Message: "no files here"}

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "attachments")
}
