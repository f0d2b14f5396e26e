package driven

import (
	"context"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

// AuditStore defines the driven port for the append-only audit log.
type AuditStore interface {
	Append(ctx context.Context, entry model.AuditEntry) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]model.AuditEntry, error)
}
