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
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port interface.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, password_hash, role, protected, created_at`

// Create inserts a user and returns it with its assigned ID.
func (r *UserRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	const query = `INSERT INTO users (username, password_hash, role, protected, created_at) VALUES (?, ?, ?, ?, ?)`

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		user.Username, user.PasswordHash, string(user.Role), boolToInt(user.Protected), createdAt.UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return model.User{}, fmt.Errorf("create user %s: %w", user.Username, driven.ErrUsernameTaken)
		}
		return model.User{}, fmt.Errorf("create user %s: %w", user.Username, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("read user id: %w", err)
	}

	user.ID = id
	user.CreatedAt = createdAt.UTC()
	return user, nil
}

// GetByID retrieves a user by ID. Returns nil, nil if the user does not exist.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	return user, nil
}

// GetByUsername retrieves a user by username. Returns nil, nil if the user
// does not exist.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", username, err)
	}

	return user, nil
}

// ListAll returns all users ordered by username.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Delete removes a user. The protected flag is checked in the same statement
// so a concurrent request cannot slip the bootstrap admin through.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM users WHERE id = ? AND protected = 0`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var protected bool
	err = r.db.Writer.QueryRowContext(ctx, `SELECT protected FROM users WHERE id = ?`, id).Scan(&protected)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("delete user %d: %w", id, driven.ErrUserNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}

	return fmt.Errorf("delete user %d: %w", id, driven.ErrUserProtected)
}

func scanUser(s scanner) (*model.User, error) {
	var user model.User
	var role string
	var createdAt string

	err := s.Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.Protected, &createdAt)
	if err != nil {
		return nil, err
	}

	user.Role = model.Role(role)
	user.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &user, nil
}
