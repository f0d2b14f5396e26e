package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/fleetcert/internal/domain/model"
	"github.com/ericfisherdev/fleetcert/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CertificateStore = (*CertificateRepo)(nil)

// CertificateRepo is the SQLite implementation of the CertificateStore port interface.
type CertificateRepo struct {
	db *DB
}

// NewCertificateRepo creates a new CertificateRepo backed by the given DB.
func NewCertificateRepo(db *DB) *CertificateRepo {
	return &CertificateRepo{db: db}
}

const certificateColumns = `id, vessel_id, name, category, expiry_date, file_path, is_condition_of_class, remarks, created_at, updated_at`

// Add inserts a certificate. Returns ErrVesselNotFound when the foreign key
// to the owning vessel cannot be satisfied.
func (r *CertificateRepo) Add(ctx context.Context, cert model.Certificate) (model.Certificate, error) {
	const query = `
		INSERT INTO certificates (
			vessel_id, name, category, expiry_date, file_path, is_condition_of_class, remarks, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	if cert.CreatedAt.IsZero() {
		cert.CreatedAt = now
	}
	if cert.UpdatedAt.IsZero() {
		cert.UpdatedAt = cert.CreatedAt
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		cert.VesselID, cert.Name, cert.Category, nullDate(cert.ExpiryDate), cert.FilePath,
		boolToInt(cert.IsConditionOfClass), cert.Remarks, cert.CreatedAt.UTC(), cert.UpdatedAt.UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint") {
			return model.Certificate{}, fmt.Errorf("add certificate %q: %w", cert.Name, driven.ErrVesselNotFound)
		}
		return model.Certificate{}, fmt.Errorf("add certificate %q: %w", cert.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return model.Certificate{}, fmt.Errorf("read certificate id: %w", err)
	}

	cert.ID = id
	return cert, nil
}

// GetByID retrieves a certificate by ID. Returns nil, nil if it does not exist.
func (r *CertificateRepo) GetByID(ctx context.Context, id int64) (*model.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE id = ?`

	cert, err := scanCertificate(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get certificate %d: %w", id, err)
	}

	return cert, nil
}

// ListAll returns every certificate ordered by vessel, then expiry with
// undated certificates last.
func (r *CertificateRepo) ListAll(ctx context.Context) ([]model.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates
		ORDER BY vessel_id, expiry_date IS NULL, expiry_date, id`

	return r.list(ctx, query)
}

// ListByVessel returns the certificates of one vessel ordered by expiry.
func (r *CertificateRepo) ListByVessel(ctx context.Context, vesselID int64) ([]model.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE vessel_id = ?
		ORDER BY expiry_date IS NULL, expiry_date, id`

	return r.list(ctx, query, vesselID)
}

func (r *CertificateRepo) list(ctx context.Context, query string, args ...any) ([]model.Certificate, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var certs []model.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		certs = append(certs, *cert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificates: %w", err)
	}

	return certs, nil
}

// Update changes the name and expiry date of a certificate. A nil expiry
// clears the date. Returns ErrCertificateNotFound if the certificate does not exist.
func (r *CertificateRepo) Update(ctx context.Context, id int64, update model.CertificateUpdate) error {
	const query = `UPDATE certificates SET name = ?, expiry_date = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, update.Name, nullDate(update.ExpiryDate), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update certificate %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update certificate %d: %w", id, driven.ErrCertificateNotFound)
	}

	return nil
}

// Delete removes a certificate. Returns ErrCertificateNotFound if it does not exist.
func (r *CertificateRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM certificates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete certificate %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete certificate %d: %w", id, driven.ErrCertificateNotFound)
	}

	return nil
}

func scanCertificate(s scanner) (*model.Certificate, error) {
	var cert model.Certificate
	var expiry sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(
		&cert.ID, &cert.VesselID, &cert.Name, &cert.Category, &expiry, &cert.FilePath,
		&cert.IsConditionOfClass, &cert.Remarks, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	cert.ExpiryDate, err = parseNullDate(expiry)
	if err != nil {
		return nil, fmt.Errorf("parse expiry_date: %w", err)
	}

	cert.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	cert.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &cert, nil
}
