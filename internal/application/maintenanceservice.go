package application

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ericfisherdev/fleetcert/internal/authz"
	"github.com/ericfisherdev/fleetcert/internal/domain/model"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

// MaintenanceService backs up and restores the database.
type MaintenanceService struct {
	db    driven.DatabaseStore
	audit *AuditService
	authz Authorizer
	clock Clock
}

// NewMaintenanceService creates a MaintenanceService.
func NewMaintenanceService(db driven.DatabaseStore, audit *AuditService, a Authorizer, clock Clock) *MaintenanceService {
	return &MaintenanceService{db: db, audit: audit, authz: a, clock: clock}
}

// BackupFilename returns the download name for a snapshot taken at t.
func BackupFilename(t time.Time) string {
	return fmt.Sprintf("fleetcert_backup_%s.db", t.Format("20060102_150405"))
}

// Backup writes a consistent database snapshot to w and returns its download
// name.
func (s *MaintenanceService) Backup(ctx context.Context, id model.Identity, w io.Writer) (string, error) {
	if err := authorize(s.authz, id, authz.ObjDatabase, authz.ActRead); err != nil {
		return "", err
	}

	name := BackupFilename(s.clock.Now())
	if err := s.db.Backup(ctx, w); err != nil {
		return "", fmt.Errorf("backup database: %w", err)
	}

	s.audit.Record(ctx, id.Username, "Downloaded database backup")
	return name, nil
}

// Restore replaces the database with the uploaded image after validating it.
// An invalid image returns driven.ErrInvalidBackup and changes nothing. The
// audit entry is written into the restored database.
func (s *MaintenanceService) Restore(ctx context.Context, id model.Identity, r io.Reader) error {
	if err := authorize(s.authz, id, authz.ObjDatabase, authz.ActWrite); err != nil {
		return err
	}

	if err := s.db.Restore(ctx, r); err != nil {
		s.audit.Record(ctx, id.Username, "Rejected database restore")
		return fmt.Errorf("restore database: %w", err)
	}

	s.audit.Record(ctx, id.Username, "Restored database")
	return nil
}
