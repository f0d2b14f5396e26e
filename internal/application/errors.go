package application

import "errors"

var (
	// ErrForbidden indicates the identity's role may not perform the action.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials indicates a failed login. It never says which
	// half of the credentials was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrSelfDelete indicates an admin tried to delete their own account.
	ErrSelfDelete = errors.New("cannot delete the signed-in user")

	// ErrInvalidInput is matched by every *ValidationError.
	ErrInvalidInput = errors.New("invalid input")
)
