package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"helpdesk-system/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func sampleTicket(id int64, title string) models.Ticket {
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return models.Ticket{
		ID:           id,
		TicketNumber: "T20260314-111",
		UserID:       900,
		UserName:     "john.doe",
		UserEmail:    "john.doe@example.com",
		Category:     "vpn",
		Title:        title,
		Status:       models.StatusOpen,
		Priority:     models.PriorityHigh,
		CreatedAt:    created,
		UpdatedAt:    created,
		Messages: []models.TicketMessage{
			{ID: id + 1, TicketID: id, UserID: 900, UserName: "john.doe", Message: "help", CreatedAt: created},
		},
	}
}

func TestStorage_TicketsMissingKeyReadsEmpty(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db)

	mock.ExpectGet(KeyTickets).RedisNil()

	tickets, err := s.Tickets(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tickets)
	assert.Empty(t, tickets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_SaveTicketInsertsNewAtFront(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db)

	existing := sampleTicket(1, "older ticket")
	incoming := sampleTicket(2, "newer ticket")

	mock.ExpectGet(KeyTickets).SetVal(string(mustJSON(t, []models.Ticket{existing})))
	mock.ExpectSet(KeyTickets, mustJSON(t, []models.Ticket{incoming, existing}), 0).SetVal("OK")

	require.NoError(t, s.SaveTicket(context.Background(), incoming))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_SaveTicketUpsertsInPlace(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db)

	first := sampleTicket(1, "first")
	second := sampleTicket(2, "second")

	updated := second
	updated.Status = models.StatusClosed

	mock.ExpectGet(KeyTickets).SetVal(string(mustJSON(t, []models.Ticket{first, second})))
	mock.ExpectSet(KeyTickets, mustJSON(t, []models.Ticket{first, updated}), 0).SetVal("OK")

	require.NoError(t, s.SaveTicket(context.Background(), updated))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_SaveAllowedAgentsUnionsWithoutDuplicates(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db)

	mock.ExpectGet(KeyAllowedAgents).SetVal(string(mustJSON(t, []string{"john.doe@example.com"})))
	mock.ExpectSet(KeyAllowedAgents,
		mustJSON(t, []string{"john.doe@example.com", "a@x.com", "b@y.com"}), 0).SetVal("OK")

	err := s.SaveAllowedAgents(context.Background(),
		[]string{"a@x.com", "JOHN.DOE@example.com", "b@y.com", "a@x.com"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_RemoveAllowedAgent(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db)

	mock.ExpectGet(KeyAllowedAgents).SetVal(string(mustJSON(t, []string{"a@x.com", "b@y.com"})))
	mock.ExpectSet(KeyAllowedAgents, mustJSON(t, []string{"b@y.com"}), 0).SetVal("OK")

	require.NoError(t, s.RemoveAllowedAgent(context.Background(), "A@X.COM"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_InitializeSeedsMissingCollections(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db)

	mock.ExpectSetNX(KeyTickets, mustJSON(t, []models.Ticket{}), 0).SetVal(true)
	mock.ExpectSetNX(KeyAllowedAgents, mustJSON(t, seedAgents), 0).SetVal(true)
	mock.ExpectSetNX(KeyStaff, mustJSON(t, seedStaff), 0).SetVal(false)

	require.NoError(t, s.Initialize(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_StaffList(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := New(db)

	mock.ExpectGet(KeyStaff).SetVal(string(mustJSON(t, seedStaff)))

	staff, err := s.StaffList(context.Background())
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "IT Administrator", staff[0].Name)
	assert.Equal(t, models.UserTypeStaff, staff[0].UserType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
