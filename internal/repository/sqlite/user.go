package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/ridepool/internal/apperror"
	"github.com/sakif/ridepool/internal/model"
	"github.com/sakif/ridepool/internal/repository"
)

// Compile-time interface check.
var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implements repository.UserRepository on SQLite.
type UserRepo struct {
	conn *sql.DB
}

// CreateWithProfile inserts the user and its initial profile in a single
// transaction. Either both rows exist afterwards or neither does — there is
// no window where an account has no profile.
//
// A duplicate username surfaces as apperror.ErrConflict.
func (r *UserRepo) CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	profile.ID = xid.New().String()
	profile.UserID = user.ID
	profile.CreatedAt = now
	profile.UpdatedAt = now

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning registration tx: %w", err)
	}
	// Rollback is a no-op after a successful Commit.
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, name, is_admin, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Name, user.IsAdmin,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (id, user_id, role, contact, vehicle, plate, capacity, special, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID, profile.UserID, profile.Role, profile.Contact, profile.Vehicle,
		profile.Plate, profile.Capacity, profile.Special, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing registration: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, `WHERE id = ?`, id)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getUser(ctx, `WHERE username = ?`, username)
}

func (r *UserRepo) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var user model.User
	err := r.conn.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, name, is_admin, created_at, updated_at
		 FROM users `+where, arg,
	).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Name, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating password for %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}
