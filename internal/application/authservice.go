package application

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

// AuthService verifies credentials and resolves request identities.
type AuthService struct {
	users     driven.UserStore
	audit     *AuditService
	cost      int
	dummyHash []byte
	logger    *slog.Logger
}

// NewAuthService creates an AuthService hashing with the given bcrypt cost.
func NewAuthService(users driven.UserStore, audit *AuditService, cost int) (*AuthService, error) {
	// Compared against when the username is unknown so both failure paths
	// spend the same time in bcrypt.
	dummy, err := bcrypt.GenerateFromPassword([]byte("fleetcert-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}

	return &AuthService{
		users:     users,
		audit:     audit,
		cost:      cost,
		dummyHash: dummy,
		logger:    slog.Default(),
	}, nil
}

// HashPassword returns the bcrypt hash of password.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks username and password and returns the identity to store in
// the session. Any mismatch yields ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (model.Identity, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return model.Identity{}, fmt.Errorf("load user %s: %w", username, err)
	}

	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.audit.Record(ctx, username, "Failed login")
		return model.Identity{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.audit.Record(ctx, username, "Failed login")
		return model.Identity{}, ErrInvalidCredentials
	}

	s.audit.Record(ctx, user.Username, "Logged in")
	return model.IdentityOf(*user), nil
}

// Logout records the end of a session.
func (s *AuthService) Logout(ctx context.Context, id model.Identity) {
	s.audit.Record(ctx, id.Username, "Logged out")
}

// Identify reloads the user behind a session. It returns nil when the account
// no longer exists, so deleted users lose access on their next request.
func (s *AuthService) Identify(ctx context.Context, userID int64) (*model.Identity, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	if user == nil {
		return nil, nil
	}
	id := model.IdentityOf(*user)
	return &id, nil
}

// EnsureDefaultAdmin creates the protected bootstrap admin when no user named
// username exists. When password is empty a random one is generated and
// returned so the caller can report it once; otherwise the returned string is
// empty.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, username, password string) (string, error) {
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("look up default admin: %w", err)
	}
	if existing != nil {
		return "", nil
	}

	var generated string
	if password == "" {
		generated, err = randomPassword()
		if err != nil {
			return "", err
		}
		password = generated
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return "", err
	}

	_, err = s.users.Create(ctx, model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Protected:    true,
	})
	if errors.Is(err, driven.ErrUsernameTaken) {
		// Created concurrently by another process.
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("create default admin: %w", err)
	}

	s.logger.Info("default admin created", "username", username)
	return generated, nil
}

func randomPassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
