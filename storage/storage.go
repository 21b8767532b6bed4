package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"helpdesk-system/models"

	"github.com/redis/go-redis/v9"
)

// Collection keys. Each key holds one JSON array; there is no
// transactionality across keys and concurrent writers are last-write-wins.
const (
	KeyTickets       = "db:tickets"
	KeyAllowedAgents = "db:allowed_agents"
	KeyStaff         = "db:staff"
)

var seedAgents = []string{
	"john.doe@example.com",
	"jane.smith@example.com",
}

var seedStaff = []models.User{
	{ID: 101, Name: "IT Administrator", Email: "admin@livak.esam.com.ng", UserType: models.UserTypeStaff},
	{ID: 102, Name: "Bob Technician", Email: "bob@test.com", UserType: models.UserTypeStaff},
}

// Storage is the key-value persistence adapter. It owns the three
// collections and speaks only get/set of JSON blobs.
type Storage struct {
	Redis *redis.Client
}

func New(redisClient *redis.Client) *Storage {
	return &Storage{Redis: redisClient}
}

// Initialize seeds the collections that are missing. SETNX keeps a
// concurrent boot from clobbering an already-seeded store.
func (s *Storage) Initialize(ctx context.Context) error {
	seeds := []struct {
		key   string
		value any
	}{
		{KeyTickets, []models.Ticket{}},
		{KeyAllowedAgents, seedAgents},
		{KeyStaff, seedStaff},
	}

	for _, seed := range seeds {
		data, err := json.Marshal(seed.value)
		if err != nil {
			return fmt.Errorf("storage initialize: marshal %s: %w", seed.key, err)
		}
		if err := s.Redis.SetNX(ctx, seed.key, data, 0).Err(); err != nil {
			return fmt.Errorf("storage initialize: seed %s: %w", seed.key, err)
		}
	}

	return nil
}

// Tickets returns every persisted ticket. A missing key reads as an
// empty collection, never an error.
func (s *Storage) Tickets(ctx context.Context) ([]models.Ticket, error) {
	data, err := s.Redis.Get(ctx, KeyTickets).Result()
	if err == redis.Nil {
		return []models.Ticket{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("storage tickets: %w", err)
	}

	var tickets []models.Ticket
	if err := json.Unmarshal([]byte(data), &tickets); err != nil {
		return nil, fmt.Errorf("storage tickets: decode: %w", err)
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	return tickets, nil
}

// SaveTicket upserts one ticket by ID and rewrites the whole blob.
// O(n) per write; fine at helpdesk scale.
func (s *Storage) SaveTicket(ctx context.Context, ticket models.Ticket) error {
	tickets, err := s.Tickets(ctx)
	if err != nil {
		return err
	}

	found := false
	for i := range tickets {
		if tickets[i].ID == ticket.ID {
			tickets[i] = ticket
			found = true
			break
		}
	}
	if !found {
		// New tickets go to the front, matching the list ordering the
		// views expect before any sort is applied.
		tickets = append([]models.Ticket{ticket}, tickets...)
	}

	return s.writeJSON(ctx, KeyTickets, tickets)
}

// AllowedAgents returns the agent email allow-list.
func (s *Storage) AllowedAgents(ctx context.Context) ([]string, error) {
	data, err := s.Redis.Get(ctx, KeyAllowedAgents).Result()
	if err == redis.Nil {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("storage allowed agents: %w", err)
	}

	var emails []string
	if err := json.Unmarshal([]byte(data), &emails); err != nil {
		return nil, fmt.Errorf("storage allowed agents: decode: %w", err)
	}
	if emails == nil {
		emails = []string{}
	}
	return emails, nil
}

// SaveAllowedAgents unions the given emails into the allow-list,
// deduplicated case-insensitively, existing entries first.
func (s *Storage) SaveAllowedAgents(ctx context.Context, emails []string) error {
	current, err := s.AllowedAgents(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(current)+len(emails))
	merged := make([]string, 0, len(current)+len(emails))
	for _, email := range append(current, emails...) {
		key := strings.ToLower(email)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, email)
	}

	return s.writeJSON(ctx, KeyAllowedAgents, merged)
}

// RemoveAllowedAgent drops one email from the allow-list.
func (s *Storage) RemoveAllowedAgent(ctx context.Context, email string) error {
	current, err := s.AllowedAgents(ctx)
	if err != nil {
		return err
	}

	filtered := make([]string, 0, len(current))
	for _, e := range current {
		if !strings.EqualFold(e, email) {
			filtered = append(filtered, e)
		}
	}

	return s.writeJSON(ctx, KeyAllowedAgents, filtered)
}

// StaffList returns the seeded staff directory.
func (s *Storage) StaffList(ctx context.Context) ([]models.User, error) {
	data, err := s.Redis.Get(ctx, KeyStaff).Result()
	if err == redis.Nil {
		return []models.User{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("storage staff list: %w", err)
	}

	var staff []models.User
	if err := json.Unmarshal([]byte(data), &staff); err != nil {
		return nil, fmt.Errorf("storage staff list: decode: %w", err)
	}
	if staff == nil {
		staff = []models.User{}
	}
	return staff, nil
}

func (s *Storage) writeJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("storage write %s: marshal: %w", key, err)
	}
	if err := s.Redis.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("storage write %s: %w", key, err)
	}
	return nil
}
