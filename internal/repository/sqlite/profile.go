package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/ridepool/internal/apperror"
	"github.com/sakif/ridepool/internal/model"
	"github.com/sakif/ridepool/internal/repository"
)

var _ repository.ProfileRepository = (*ProfileRepo)(nil)

// ProfileRepo implements repository.ProfileRepository on SQLite.
type ProfileRepo struct {
	conn *sql.DB
}

func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	err := r.conn.QueryRowContext(ctx,
		`SELECT id, user_id, role, contact, vehicle, plate, capacity, special, created_at, updated_at
		 FROM profiles WHERE user_id = ?`, userID,
	).Scan(
		&p.ID, &p.UserID, &p.Role, &p.Contact, &p.Vehicle, &p.Plate,
		&p.Capacity, &p.Special, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, fmt.Errorf("sqlite: getting profile for user %s: %w", userID, err)
	}
	return &p, nil
}

func (r *ProfileRepo) Update(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = time.Now()

	result, err := r.conn.ExecContext(ctx,
		`UPDATE profiles
		 SET role = ?, contact = ?, vehicle = ?, plate = ?, capacity = ?, special = ?, updated_at = ?
		 WHERE id = ?`,
		profile.Role, profile.Contact, profile.Vehicle, profile.Plate,
		profile.Capacity, profile.Special, profile.UpdatedAt, profile.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating profile %s: %w", profile.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("profile", profile.ID)
	}
	return nil
}
