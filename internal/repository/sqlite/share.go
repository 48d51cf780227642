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

var _ repository.ShareRepository = (*ShareRepo)(nil)

// ShareRepo implements repository.ShareRepository on SQLite.
type ShareRepo struct {
	conn *sql.DB
}

// Create inserts a new seat reservation. A UNIQUE violation on
// (ride_id, sharer_id) means two first-time joins raced past the capacity
// check; it is surfaced as apperror.ErrConcurrency so the caller retries.
func (s *ShareRepo) Create(ctx context.Context, share *model.Share) error {
	share.ID = xid.New().String()
	share.JoinedAt = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO shares (id, ride_id, sharer_id, seats, joined_at)
		 VALUES (?, ?, ?, ?, ?)`,
		share.ID, share.RideID, share.SharerID, share.Seats, share.JoinedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ConcurrencyConflict("could not join due to a concurrent request, try again")
		}
		return fmt.Errorf("sqlite: creating share: %w", err)
	}
	return nil
}

func (s *ShareRepo) GetForSharer(ctx context.Context, rideID, sharerID string) (*model.Share, error) {
	var sh model.Share
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, ride_id, sharer_id, seats, joined_at
		 FROM shares WHERE ride_id = ? AND sharer_id = ?`,
		rideID, sharerID,
	).Scan(&sh.ID, &sh.RideID, &sh.SharerID, &sh.Seats, &sh.JoinedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("share", rideID+"/"+sharerID)
		}
		return nil, fmt.Errorf("sqlite: getting share: %w", err)
	}
	return &sh, nil
}

func (s *ShareRepo) UpdateSeats(ctx context.Context, id string, seats int) error {
	result, err := s.conn.ExecContext(ctx,
		`UPDATE shares SET seats = ? WHERE id = ?`, seats, id)
	if err != nil {
		return fmt.Errorf("sqlite: updating share %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("share", id)
	}
	return nil
}

// DeleteForSharer removes the sharer's reservation on the ride. Idempotent:
// deleting a reservation that does not exist is a successful no-op.
func (s *ShareRepo) DeleteForSharer(ctx context.Context, rideID, sharerID string) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM shares WHERE ride_id = ? AND sharer_id = ?`, rideID, sharerID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting share: %w", err)
	}
	return nil
}

// SumSeats returns the total seats held by all sharers on the ride.
// COALESCE turns the no-rows NULL into 0.
func (s *ShareRepo) SumSeats(ctx context.Context, rideID string) (int, error) {
	var total int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(seats), 0) FROM shares WHERE ride_id = ?`, rideID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sqlite: summing shares for ride %s: %w", rideID, err)
	}
	return total, nil
}

func (s *ShareRepo) ListByRide(ctx context.Context, rideID string) ([]model.Share, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, ride_id, sharer_id, seats, joined_at
		 FROM shares WHERE ride_id = ? ORDER BY joined_at DESC`, rideID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing shares: %w", err)
	}
	defer rows.Close()

	var shares []model.Share
	for rows.Next() {
		var sh model.Share
		if err := rows.Scan(&sh.ID, &sh.RideID, &sh.SharerID, &sh.Seats, &sh.JoinedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning share row: %w", err)
		}
		shares = append(shares, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating shares: %w", err)
	}
	return shares, nil
}
