package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DatabaseStore = (*DatabaseRepo)(nil)

// sqliteHeader is the magic string at the start of every SQLite database file.
var sqliteHeader = []byte("SQLite format 3\x00")

// restoreTables lists the tables copied by Restore, parents before children.
// Column lists are explicit so a backup with extra or reordered columns still
// restores into the live schema.
var restoreTables = []struct {
	name    string
	columns string
}{
	{"users", "id, username, password_hash, role, protected, created_at"},
	{"vessels", "id, name, imo, flag, class_society, vessel_type, created_at"},
	{"certificates", "id, vessel_id, name, category, expiry_date, file_path, is_condition_of_class, remarks, created_at, updated_at"},
	{"audit_log", "id, username, action, created_at"},
}

// DatabaseRepo implements whole-database backup and restore for SQLite.
type DatabaseRepo struct {
	db     *DB
	tmpDir string
}

// NewDatabaseRepo creates a DatabaseRepo. Temporary snapshot files are created
// under tmpDir, or the OS temp directory when tmpDir is empty.
func NewDatabaseRepo(db *DB, tmpDir string) *DatabaseRepo {
	return &DatabaseRepo{db: db, tmpDir: tmpDir}
}

// Backup writes a consistent snapshot of the live database to w. VACUUM INTO
// is used instead of copying the file so pages still in the WAL are included.
func (r *DatabaseRepo) Backup(ctx context.Context, w io.Writer) error {
	dir, err := os.MkdirTemp(r.tmpDir, "fleetcert-backup-")
	if err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	defer os.RemoveAll(dir)

	snapshot := filepath.Join(dir, "snapshot.db")
	if _, err := r.db.Writer.ExecContext(ctx, `VACUUM INTO ?`, snapshot); err != nil {
		return fmt.Errorf("snapshot database: %w", err)
	}

	f, err := os.Open(snapshot)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	return nil
}

// Restore spools the uploaded image to disk, validates it, and only then
// replaces the content of every application table in a single transaction.
// Any validation failure is reported as ErrInvalidBackup and leaves the live
// database unchanged.
func (r *DatabaseRepo) Restore(ctx context.Context, src io.Reader) error {
	dir, err := os.MkdirTemp(r.tmpDir, "fleetcert-restore-")
	if err != nil {
		return fmt.Errorf("create restore dir: %w", err)
	}
	defer os.RemoveAll(dir)

	upload := filepath.Join(dir, "upload.db")
	if err := spool(src, upload); err != nil {
		return err
	}

	want, err := schemaVersion(r.db.Reader, migrationsTable)
	if err != nil {
		return fmt.Errorf("read live schema version: %w", err)
	}

	if err := validate(ctx, upload, want); err != nil {
		return fmt.Errorf("%w: %v", driven.ErrInvalidBackup, err)
	}

	return r.swap(ctx, upload)
}

func spool(src io.Reader, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create restore file: %w", err)
	}

	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		return fmt.Errorf("write restore file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close restore file: %w", err)
	}

	return nil
}

// validate opens the candidate read-only and checks the file header, page
// integrity, foreign keys, schema version, the presence of every restored
// column, and that at least one admin account would survive the restore.
func validate(ctx context.Context, path string, wantVersion int64) error {
	header := make([]byte, len(sqliteHeader))
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	_, err = io.ReadFull(f, header)
	_ = f.Close()
	if err != nil || !bytes.Equal(header, sqliteHeader) {
		return errors.New("not a SQLite database")
	}

	candidate, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer candidate.Close()
	candidate.SetMaxOpenConns(1)

	var integrity string
	if err := candidate.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&integrity); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		return fmt.Errorf("integrity check: %s", integrity)
	}

	fkRows, err := candidate.QueryContext(ctx, `PRAGMA foreign_key_check`)
	if err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	hasViolation := fkRows.Next()
	_ = fkRows.Close()
	if hasViolation {
		return errors.New("foreign key violations present")
	}

	got, err := schemaVersion(candidate, migrationsTable)
	if err != nil {
		return err
	}
	if got != wantVersion {
		return fmt.Errorf("schema version %d does not match %d", got, wantVersion)
	}

	for _, table := range restoreTables {
		query := fmt.Sprintf(`SELECT %s FROM %s LIMIT 0`, table.columns, table.name)
		rows, err := candidate.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("table %s: %w", table.name, err)
		}
		_ = rows.Close()
	}

	var admins int
	if err := candidate.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = 'admin'`).Scan(&admins); err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins == 0 {
		return errors.New("no admin account")
	}

	return nil
}

// swap attaches the validated image to the writer connection and replaces the
// live rows inside one transaction. ATTACH is not allowed inside a
// transaction, so it runs first on a dedicated connection.
func (r *DatabaseRepo) swap(ctx context.Context, path string) (err error) {
	conn, err := r.db.Writer.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire writer: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `ATTACH DATABASE ? AS restore`, path); err != nil {
		return fmt.Errorf("attach restore: %w", err)
	}
	defer func() {
		if _, detachErr := conn.ExecContext(context.Background(), `DETACH DATABASE restore`); detachErr != nil && err == nil {
			err = fmt.Errorf("detach restore: %w", detachErr)
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := len(restoreTables) - 1; i >= 0; i-- {
		table := restoreTables[i]
		if _, err := tx.ExecContext(ctx, `DELETE FROM main.`+table.name); err != nil {
			return fmt.Errorf("clear %s: %w", table.name, err)
		}
	}

	for _, table := range restoreTables {
		query := fmt.Sprintf(`INSERT INTO main.%s (%s) SELECT %s FROM restore.%s`,
			table.name, table.columns, table.columns, table.name)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("copy %s: %w", table.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}

	return nil
}
