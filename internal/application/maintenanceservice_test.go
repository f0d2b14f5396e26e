package application_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/fleetcert/internal/application"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

func TestBackupFilename(t *testing.T) {
	got := application.BackupFilename(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Equal(t, "fleetcert_backup_20260102_030405.db", got)
}

func TestBackup(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer

	name, err := f.maint.Backup(context.Background(), adminID, &buf)
	require.NoError(t, err)
	assert.Equal(t, "fleetcert_backup_20260615_143000.db", name)
	assert.Equal(t, f.db.snapshot, buf.String())
	assert.Equal(t, []string{"Downloaded database backup"}, f.audit.actions())
}

func TestBackup_ViewerForbidden(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer

	_, err := f.maint.Backup(context.Background(), viewerID, &buf)
	require.ErrorIs(t, err, application.ErrForbidden)
	assert.Zero(t, buf.Len())
}

func TestRestore(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.maint.Restore(context.Background(), adminID, strings.NewReader("image")))
	assert.Equal(t, []byte("image"), f.db.restored)
	assert.Equal(t, []string{"Restored database"}, f.audit.actions())
}

func TestRestore_Invalid(t *testing.T) {
	f := newFixture(t)
	f.db.restoreErr = driven.ErrInvalidBackup

	err := f.maint.Restore(context.Background(), adminID, strings.NewReader("junk"))
	require.ErrorIs(t, err, driven.ErrInvalidBackup)
	assert.Equal(t, []string{"Rejected database restore"}, f.audit.actions())
}

func TestRestore_ViewerForbidden(t *testing.T) {
	f := newFixture(t)

	err := f.maint.Restore(context.Background(), viewerID, strings.NewReader("image"))
	require.ErrorIs(t, err, application.ErrForbidden)
	assert.Nil(t, f.db.restored)
	assert.Empty(t, f.audit.entries)
}
