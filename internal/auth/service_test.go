package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/doctrove/doctrove/internal/shared"
	"github.com/doctrove/doctrove/internal/users"
)

type stubUsers struct {
	byEmail map[string]*users.User
}

func (s *stubUsers) GetUser(ctx context.Context, id int64) (*users.User, error) {
	return nil, shared.ErrNotFound
}

func (s *stubUsers) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubUsers) ListUsers(ctx context.Context, tenantID int64) ([]users.User, error) {
	return nil, nil
}

func (s *stubUsers) AllowedDepartments(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

func (s *stubUsers) AllowedTenants(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthenticate(t *testing.T) {
	repo := &stubUsers{byEmail: map[string]*users.User{
		"lena@example.com": {ID: 7, Email: "lena@example.com", PasswordHash: hash(t, "correct-horse"), Status: users.StatusActive},
	}}
	svc := NewService(repo)

	user, err := svc.Authenticate(context.Background(), "lena@example.com", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, int64(7), user.ID)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	repo := &stubUsers{byEmail: map[string]*users.User{
		"lena@example.com":      {ID: 7, Email: "lena@example.com", PasswordHash: hash(t, "correct-horse"), Status: users.StatusActive},
		"suspended@example.com": {ID: 8, Email: "suspended@example.com", PasswordHash: hash(t, "correct-horse"), Status: users.StatusSuspended},
	}}
	svc := NewService(repo)
	ctx := context.Background()

	_, errUnknown := svc.Authenticate(ctx, "ghost@example.com", "whatever")
	_, errWrongPassword := svc.Authenticate(ctx, "lena@example.com", "wrong")
	_, errSuspended := svc.Authenticate(ctx, "suspended@example.com", "correct-horse")

	require.ErrorIs(t, errUnknown, shared.ErrInvalidCredentials)
	require.ErrorIs(t, errWrongPassword, shared.ErrInvalidCredentials)
	require.ErrorIs(t, errSuspended, shared.ErrInvalidCredentials)
}
