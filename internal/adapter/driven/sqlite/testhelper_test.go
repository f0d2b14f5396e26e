package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via cache=shared.
// A unique name derived from t.Name() keeps parallel tests isolated.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	safeName := url.PathEscape(t.Name())
	// WAL mode does not apply to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		safeName,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("create test db writer: %v", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(context.Background()); err != nil {
		_ = writer.Close()
		t.Fatalf("ping test db writer: %v", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("create test db reader: %v", err)
	}
	reader.SetMaxOpenConns(4)
	if err := reader.PingContext(context.Background()); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		t.Fatalf("ping test db reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dsn}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func makeVessel(name, imo string) model.Vessel {
	return model.Vessel{
		Name:         name,
		IMO:          imo,
		Flag:         "Panama",
		ClassSociety: "DNV",
		VesselType:   "Bulk Carrier",
		CreatedAt:    time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func makeCertificate(vesselID int64, name, expiry string) model.Certificate {
	var expiryDate *time.Time
	if expiry != "" {
		d, _ := time.Parse(model.DateLayout, expiry)
		expiryDate = &d
	}
	return model.Certificate{
		VesselID:   vesselID,
		Name:       name,
		Category:   "Statutory",
		ExpiryDate: expiryDate,
	}
}

// seedVessel inserts a vessel and fails the test on error.
func seedVessel(t *testing.T, db *DB, name, imo string) model.Vessel {
	t.Helper()
	v, err := NewVesselRepo(db).Add(context.Background(), makeVessel(name, imo))
	if err != nil {
		t.Fatalf("seed vessel %s: %v", imo, err)
	}
	return v
}

// seedCertificate inserts a certificate and fails the test on error.
func seedCertificate(t *testing.T, db *DB, vesselID int64, name, expiry string) model.Certificate {
	t.Helper()
	c, err := NewCertificateRepo(db).Add(context.Background(), makeCertificate(vesselID, name, expiry))
	if err != nil {
		t.Fatalf("seed certificate %s: %v", name, err)
	}
	return c
}
