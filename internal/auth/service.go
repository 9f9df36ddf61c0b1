package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/doctrove/doctrove/internal/shared"
	"github.com/doctrove/doctrove/internal/users"
)

// Service wraps authentication business rules. The rest of the system only
// ever sees the resolved principal; credentials stop here.
type Service struct {
	repo users.Repository
}

// NewService constructs a new Service.
func NewService(repo users.Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. Every failure mode
// collapses into the same error so account existence does not leak.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*users.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if user.Status != users.StatusActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}
