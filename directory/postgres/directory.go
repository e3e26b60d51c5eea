// Package postgres provides the PostgreSQL-backed UserDirectory.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/MrEthical07/authcore"
)

// uniqueViolation is the Postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// Directory implements authcore.UserDirectory on database/sql with lib/pq.
type Directory struct {
	db *sql.DB
}

// New wraps an open connection pool. The pool's lifetime is owned by the
// caller.
func New(db *sql.DB) *Directory {
	return &Directory{db: db}
}

// Migrate creates the users table if it does not exist.
func (d *Directory) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL
		)
	`
	if _, err := d.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

func (d *Directory) Create(ctx context.Context, u *authcore.User) error {
	query := `INSERT INTO users (id, name, email, password_hash) VALUES ($1, $2, $3, $4)`
	if _, err := d.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return authcore.ErrEmailTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (d *Directory) ByEmail(ctx context.Context, email string) (*authcore.User, error) {
	query := `SELECT id, name, email, password_hash FROM users WHERE email = $1`
	return d.scanUser(d.db.QueryRowContext(ctx, query, email))
}

func (d *Directory) ByID(ctx context.Context, id string) (*authcore.User, error) {
	query := `SELECT id, name, email, password_hash FROM users WHERE id = $1`
	return d.scanUser(d.db.QueryRowContext(ctx, query, id))
}

func (d *Directory) Update(ctx context.Context, u *authcore.User) error {
	query := `UPDATE users SET name = $1, email = $2, password_hash = $3 WHERE id = $4`
	res, err := d.db.ExecContext(ctx, query, u.Name, u.Email, u.PasswordHash, u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return authcore.ErrEmailTaken
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

func (d *Directory) scanUser(row *sql.Row) (*authcore.User, error) {
	user := &authcore.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authcore.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
