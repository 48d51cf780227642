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

var _ repository.RideRepository = (*RideRepo)(nil)

// RideRepo implements repository.RideRepository on SQLite.
type RideRepo struct {
	conn *sql.DB
}

const rideColumns = `id, rider_id, driver_id, source, destination, arrival_time,
	passengers, sharable, special, status, assignment_status, assigned_at, assigned_by,
	created_at, updated_at`

func (r *RideRepo) Create(ctx context.Context, ride *model.Ride) error {
	ride.ID = xid.New().String()
	now := time.Now()
	ride.CreatedAt = now
	ride.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO rides (`+rideColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ride.ID, ride.RiderID, ride.DriverID, ride.Source, ride.Destination,
		ride.ArrivalTime, ride.Passengers, ride.Sharable, ride.Special,
		ride.Status, ride.Assignment, nullableTime(ride.AssignedAt), ride.AssignedBy,
		ride.CreatedAt, ride.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating ride: %w", err)
	}
	return nil
}

func (r *RideRepo) GetByID(ctx context.Context, id string) (*model.Ride, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE id = ?`, id)

	ride, err := scanRide(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("ride", id)
		}
		return nil, fmt.Errorf("sqlite: getting ride %s: %w", id, err)
	}
	return ride, nil
}

// Update persists every mutable field. The service layer holds the per-ride
// lock while calling this, so a blind full-row write cannot lose a
// concurrent seat-accounting update.
func (r *RideRepo) Update(ctx context.Context, ride *model.Ride) error {
	ride.UpdatedAt = time.Now()

	result, err := r.conn.ExecContext(ctx,
		`UPDATE rides
		 SET driver_id = ?, source = ?, destination = ?, arrival_time = ?, passengers = ?,
		     sharable = ?, special = ?, status = ?, assignment_status = ?, assigned_at = ?,
		     assigned_by = ?, updated_at = ?
		 WHERE id = ?`,
		ride.DriverID, ride.Source, ride.Destination, ride.ArrivalTime, ride.Passengers,
		ride.Sharable, ride.Special, ride.Status, ride.Assignment, nullableTime(ride.AssignedAt),
		ride.AssignedBy, ride.UpdatedAt, ride.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating ride %s: %w", ride.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("ride", ride.ID)
	}
	return nil
}

func (r *RideRepo) Delete(ctx context.Context, id string) error {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM rides WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting ride %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("ride", id)
	}
	return nil
}

func (r *RideRepo) ListByRider(ctx context.Context, riderID string) ([]model.Ride, error) {
	return r.listRides(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE rider_id = ?
		 ORDER BY arrival_time DESC, created_at DESC`, riderID)
}

func (r *RideRepo) ListByDriver(ctx context.Context, driverID string) ([]model.Ride, error) {
	return r.listRides(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE driver_id = ?
		 ORDER BY arrival_time DESC, created_at DESC`, driverID)
}

// ListJoined returns rides the user participates in as a sharer.
func (r *RideRepo) ListJoined(ctx context.Context, sharerID string) ([]model.Ride, error) {
	return r.listRides(ctx,
		`SELECT `+qualifiedRideColumns("r")+`
		 FROM rides r
		 JOIN shares s ON s.ride_id = r.id
		 WHERE s.sharer_id = ?
		 ORDER BY r.arrival_time DESC, r.created_at DESC`, sharerID)
}

// FindSharable is the search/match query: open, accepted, sharable rides to
// the given destination (case-insensitive exact match) arriving inside the
// inclusive window, excluding the requester's own rides. Pure read — the
// reservation race is handled at join time, so results are allowed to be
// slightly stale.
func (r *RideRepo) FindSharable(ctx context.Context, filter repository.RideFilter) ([]model.Ride, error) {
	return r.listRides(ctx,
		`SELECT `+rideColumns+` FROM rides
		 WHERE destination = ? COLLATE NOCASE
		   AND arrival_time >= ? AND arrival_time <= ?
		   AND sharable = 1
		   AND status = ?
		   AND assignment_status = ?
		   AND rider_id != ?
		 ORDER BY arrival_time ASC`,
		filter.Destination, filter.EarliestArrival, filter.LatestArrival,
		model.StatusOpen, model.AssignAccepted, filter.ExcludeRiderID)
}

func (r *RideRepo) listRides(ctx context.Context, query string, args ...any) ([]model.Ride, error) {
	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing rides: %w", err)
	}
	defer rows.Close()

	var rides []model.Ride
	for rows.Next() {
		ride, err := scanRide(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning ride row: %w", err)
		}
		rides = append(rides, *ride)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating rides: %w", err)
	}
	return rides, nil
}

// scanRide reads one ride row through any Scan-shaped function (sql.Row or
// sql.Rows), translating the nullable assigned_at column.
func scanRide(scan func(...any) error) (*model.Ride, error) {
	var ride model.Ride
	var assignedAt sql.NullTime
	err := scan(
		&ride.ID, &ride.RiderID, &ride.DriverID, &ride.Source, &ride.Destination,
		&ride.ArrivalTime, &ride.Passengers, &ride.Sharable, &ride.Special,
		&ride.Status, &ride.Assignment, &assignedAt, &ride.AssignedBy,
		&ride.CreatedAt, &ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if assignedAt.Valid {
		t := assignedAt.Time
		ride.AssignedAt = &t
	}
	return &ride, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func qualifiedRideColumns(alias string) string {
	return alias + `.id, ` + alias + `.rider_id, ` + alias + `.driver_id, ` +
		alias + `.source, ` + alias + `.destination, ` + alias + `.arrival_time, ` +
		alias + `.passengers, ` + alias + `.sharable, ` + alias + `.special, ` +
		alias + `.status, ` + alias + `.assignment_status, ` + alias + `.assigned_at, ` +
		alias + `.assigned_by, ` + alias + `.created_at, ` + alias + `.updated_at`
}
