package application

import (
	"fmt"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

// Authorizer decides whether a role may perform act on obj.
type Authorizer interface {
	Allowed(role model.Role, obj, act string) (bool, error)
}

// authorize returns ErrForbidden when id may not perform act on obj.
func authorize(a Authorizer, id model.Identity, obj, act string) error {
	ok, err := a.Allowed(id.Role, obj, act)
	if err != nil {
		return fmt.Errorf("authorize %s: %w", id.Username, err)
	}
	if !ok {
		return fmt.Errorf("%s %s %s: %w", id.Username, act, obj, ErrForbidden)
	}
	return nil
}
