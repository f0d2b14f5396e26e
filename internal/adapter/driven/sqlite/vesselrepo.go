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
var _ driven.VesselStore = (*VesselRepo)(nil)

// VesselRepo is the SQLite implementation of the VesselStore port interface.
type VesselRepo struct {
	db *DB
}

// NewVesselRepo creates a new VesselRepo backed by the given DB.
func NewVesselRepo(db *DB) *VesselRepo {
	return &VesselRepo{db: db}
}

const vesselColumns = `id, name, imo, flag, class_society, vessel_type, created_at`

// Add inserts a vessel and returns it with its assigned ID. Returns
// ErrVesselIMOTaken if the IMO number is already registered.
func (r *VesselRepo) Add(ctx context.Context, vessel model.Vessel) (model.Vessel, error) {
	const query = `
		INSERT INTO vessels (name, imo, flag, class_society, vessel_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	createdAt := vessel.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		vessel.Name, vessel.IMO, vessel.Flag, vessel.ClassSociety, vessel.VesselType, createdAt.UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return model.Vessel{}, fmt.Errorf("add vessel %s: %w", vessel.IMO, driven.ErrVesselIMOTaken)
		}
		return model.Vessel{}, fmt.Errorf("add vessel %s: %w", vessel.IMO, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return model.Vessel{}, fmt.Errorf("read vessel id: %w", err)
	}

	vessel.ID = id
	vessel.CreatedAt = createdAt.UTC()
	return vessel, nil
}

// GetByID retrieves a vessel by ID. Returns nil, nil if the vessel does not exist.
func (r *VesselRepo) GetByID(ctx context.Context, id int64) (*model.Vessel, error) {
	query := `SELECT ` + vesselColumns + ` FROM vessels WHERE id = ?`

	vessel, err := scanVessel(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vessel %d: %w", id, err)
	}

	return vessel, nil
}

// ListAll returns all vessels ordered by name.
func (r *VesselRepo) ListAll(ctx context.Context) ([]model.Vessel, error) {
	return r.Search(ctx, "")
}

// Search returns vessels whose name, IMO, or class society contains term.
// SQLite LIKE is case-insensitive for ASCII, which covers vessel names and IMO numbers.
func (r *VesselRepo) Search(ctx context.Context, term string) ([]model.Vessel, error) {
	query := `SELECT ` + vesselColumns + ` FROM vessels`
	var args []any

	term = strings.TrimSpace(term)
	if term != "" {
		query += ` WHERE name LIKE ? ESCAPE '\' OR imo LIKE ? ESCAPE '\' OR class_society LIKE ? ESCAPE '\'`
		pattern := likePattern(term)
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search vessels: %w", err)
	}
	defer rows.Close()

	var vessels []model.Vessel
	for rows.Next() {
		vessel, err := scanVessel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vessel: %w", err)
		}
		vessels = append(vessels, *vessel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vessels: %w", err)
	}

	return vessels, nil
}

// Delete removes the vessel's certificates and then the vessel inside one
// transaction. Returns ErrVesselNotFound if the vessel does not exist.
func (r *VesselRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete vessel %d: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM certificates WHERE vessel_id = ?`, id); err != nil {
		return fmt.Errorf("delete certificates of vessel %d: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM vessels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete vessel %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete vessel %d: %w", id, driven.ErrVesselNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete vessel %d: %w", id, err)
	}

	return nil
}

func scanVessel(s scanner) (*model.Vessel, error) {
	var vessel model.Vessel
	var createdAt string

	err := s.Scan(&vessel.ID, &vessel.Name, &vessel.IMO, &vessel.Flag, &vessel.ClassSociety, &vessel.VesselType, &createdAt)
	if err != nil {
		return nil, err
	}

	vessel.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &vessel, nil
}
