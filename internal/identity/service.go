package identity

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/advista/advista/internal/authz"
	"github.com/advista/advista/internal/shared"
)

// Service wraps authentication and subject-resolution business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive || !user.RoleActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// ResolveSubject loads the subject for a user id. This is the per-request
// hand-off to the authorization core: the subject is resolved once, passed by
// value, and never re-read during a request.
func (s *Service) ResolveSubject(ctx context.Context, userID int64) (authz.Subject, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return authz.Subject{}, err
	}
	if !user.IsActive || !user.RoleActive {
		return authz.Subject{}, shared.ErrNotFound
	}
	return authz.Subject{
		UserID:    user.ID,
		RoleID:    user.RoleID,
		RoleName:  user.RoleName,
		RoleLevel: user.RoleLevel,
	}, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
