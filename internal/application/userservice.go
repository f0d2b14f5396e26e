package application

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ericfisherdev/fleetcert/internal/authz"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

// NewUserInput is the admin form for creating an account.
type NewUserInput struct {
	Username string `label:"Username" validate:"required,min=2,max=64,nospace"`
	Password string `label:"Password" validate:"required,min=8,maxbytes=72"`
	Role     string `label:"Role" validate:"required,oneof=admin viewer"`
}

// UserService manages user accounts from the admin console.
type UserService struct {
	users driven.UserStore
	auth  *AuthService
	audit *AuditService
	authz Authorizer
}

// NewUserService creates a UserService.
func NewUserService(users driven.UserStore, auth *AuthService, audit *AuditService, a Authorizer) *UserService {
	return &UserService{users: users, auth: auth, audit: audit, authz: a}
}

// List returns every account, ordered by username.
func (s *UserService) List(ctx context.Context, id model.Identity) ([]model.User, error) {
	if err := authorize(s.authz, id, authz.ObjUsers, authz.ActWrite); err != nil {
		return nil, err
	}
	return s.users.ListAll(ctx)
}

// Add creates an account with a bcrypt-hashed password.
func (s *UserService) Add(ctx context.Context, id model.Identity, in NewUserInput) (model.User, error) {
	if err := authorize(s.authz, id, authz.ObjUsers, authz.ActWrite); err != nil {
		return model.User{}, err
	}
	if err := validateInput(in); err != nil {
		return model.User{}, err
	}

	hash, err := s.auth.HashPassword(in.Password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return model.User{}, invalid("Password", "Password must be at most 72 bytes")
	}
	if err != nil {
		return model.User{}, err
	}

	user, err := s.users.Create(ctx, model.User{
		Username:     in.Username,
		PasswordHash: hash,
		Role:         model.Role(in.Role),
	})
	if errors.Is(err, driven.ErrUsernameTaken) {
		return model.User{}, invalid("Username", fmt.Sprintf("Username %q is already taken", in.Username))
	}
	if err != nil {
		return model.User{}, fmt.Errorf("add user %s: %w", in.Username, err)
	}

	s.audit.Record(ctx, id.Username, fmt.Sprintf("Added user %s (%s)", user.Username, user.Role))
	return user, nil
}

// Delete removes an account. The signed-in user and protected accounts
// cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id model.Identity, userID int64) error {
	if err := authorize(s.authz, id, authz.ObjUsers, authz.ActWrite); err != nil {
		return err
	}
	if userID == id.UserID {
		return ErrSelfDelete
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", userID, err)
	}
	if user == nil {
		return driven.ErrUserNotFound
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user %s: %w", user.Username, err)
	}

	s.audit.Record(ctx, id.Username, "Deleted user "+user.Username)
	return nil
}
