package services

import (
	"context"
	"fmt"

	"helpdesk-system/config"
	"helpdesk-system/models"
	"helpdesk-system/storage"
)

// AuthService handles the staff side of the two login flows. Agent
// login is allow-list membership on TicketService.AuthenticateAgent;
// staff login is a single configured credential pair compared in
// plaintext. This is a mock flow, not real authentication.
type AuthService struct {
	storage *storage.Storage
	cfg     *config.Config
}

func NewAuthService(store *storage.Storage, cfg *config.Config) *AuthService {
	return &AuthService{storage: store, cfg: cfg}
}

// AuthenticateStaff returns the seeded administrator record when the
// credential pair matches, nil otherwise. A mismatch is a normal
// negative result, not an error.
func (s *AuthService) AuthenticateStaff(ctx context.Context, username, password string) (*models.User, error) {
	if username != s.cfg.StaffUsername || password != s.cfg.StaffPassword {
		return nil, nil
	}

	staff, err := s.storage.StaffList(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate staff: %w", err)
	}
	if len(staff) == 0 {
		return nil, fmt.Errorf("authenticate staff: staff directory is empty")
	}

	admin := staff[0]
	return &admin, nil
}
