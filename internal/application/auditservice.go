package application

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/fleetcert/internal/authz"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

// AuditService appends to and reads the audit log.
type AuditService struct {
	store  driven.AuditStore
	authz  Authorizer
	clock  Clock
	limit  int
	logger *slog.Logger
}

// NewAuditService creates an AuditService. limit caps how many entries
// Recent returns.
func NewAuditService(store driven.AuditStore, a Authorizer, clock Clock, limit int) *AuditService {
	return &AuditService{
		store:  store,
		authz:  a,
		clock:  clock,
		limit:  limit,
		logger: slog.Default(),
	}
}

// Record appends an entry attributed to username. A failed write is logged
// and otherwise ignored: the action being audited has already happened.
func (s *AuditService) Record(ctx context.Context, username, action string) {
	entry := model.AuditEntry{
		Username:  username,
		Action:    action,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append audit entry", "user", username, "action", action, "error", err)
		return
	}
	s.logger.Info("audit", "user", username, "action", action)
}

// Recent returns the newest audit entries for the admin console.
func (s *AuditService) Recent(ctx context.Context, id model.Identity) ([]model.AuditEntry, error) {
	if err := authorize(s.authz, id, authz.ObjAdmin, authz.ActRead); err != nil {
		return nil, err
	}
	return s.store.Recent(ctx, s.limit)
}
