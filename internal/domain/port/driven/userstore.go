package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

// Sentinel errors returned by UserStore implementations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates another user already has the username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrUserProtected indicates the user is the protected bootstrap admin.
	ErrUserProtected = errors.New("user is protected")
)

// UserStore defines the driven port for user account persistence.
// Get methods return nil, nil when no user matches.
type UserStore interface {
	Create(ctx context.Context, user model.User) (model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ListAll(ctx context.Context) ([]model.User, error)
	// Delete returns ErrUserProtected for the bootstrap admin and
	// ErrUserNotFound when no user has the id.
	Delete(ctx context.Context, id int64) error
}
