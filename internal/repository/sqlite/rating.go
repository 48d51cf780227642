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

var _ repository.RatingRepository = (*RatingRepo)(nil)

// RatingRepo implements repository.RatingRepository on SQLite.
type RatingRepo struct {
	conn *sql.DB
}

// Create inserts a rating. The UNIQUE index on ride_id enforces one rating
// per ride; a violation surfaces as apperror.ErrConflict.
func (r *RatingRepo) Create(ctx context.Context, rating *model.Rating) error {
	rating.ID = xid.New().String()
	rating.CreatedAt = time.Now()

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO ratings (id, ride_id, rater_id, ratee_id, score, review, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rating.ID, rating.RideID, rating.RaterID, rating.RateeID,
		rating.Score, rating.Review, rating.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("rating", rating.RideID)
		}
		return fmt.Errorf("sqlite: creating rating: %w", err)
	}
	return nil
}

func (r *RatingRepo) GetByRide(ctx context.Context, rideID string) (*model.Rating, error) {
	var rating model.Rating
	err := r.conn.QueryRowContext(ctx,
		`SELECT id, ride_id, rater_id, ratee_id, score, review, created_at
		 FROM ratings WHERE ride_id = ?`, rideID,
	).Scan(&rating.ID, &rating.RideID, &rating.RaterID, &rating.RateeID,
		&rating.Score, &rating.Review, &rating.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("rating", rideID)
		}
		return nil, fmt.Errorf("sqlite: getting rating for ride %s: %w", rideID, err)
	}
	return &rating, nil
}
