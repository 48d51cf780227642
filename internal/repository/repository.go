// Package repository declares the storage interfaces the services depend on.
// Concrete implementations live in subpackages (sqlite); tests use in-memory
// mocks. Services never import a concrete store.
package repository

import (
	"context"
	"time"

	"github.com/sakif/ridepool/internal/model"
)

// UserRepository persists accounts. CreateWithProfile inserts the user and
// its initial profile in one transaction — account creation and profile
// provisioning are a single atomic step, not an implicit hook.
type UserRepository interface {
	CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// ProfileRepository reads and mutates the 1:1 user profile. Within seat
// accounting the profile (capacity) is read-only; only the profile service
// writes it.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.Profile, error)
	Update(ctx context.Context, profile *model.Profile) error
}

// RideFilter selects open, accepted, sharable rides for the search query.
// Destination matching is exact but case-insensitive; the arrival window is
// inclusive on both ends.
type RideFilter struct {
	Destination     string
	EarliestArrival time.Time
	LatestArrival   time.Time
	ExcludeRiderID  string // never offer a rider their own ride
}

// RideRepository persists rides.
type RideRepository interface {
	Create(ctx context.Context, ride *model.Ride) error
	GetByID(ctx context.Context, id string) (*model.Ride, error)
	Update(ctx context.Context, ride *model.Ride) error
	Delete(ctx context.Context, id string) error
	ListByRider(ctx context.Context, riderID string) ([]model.Ride, error)
	ListByDriver(ctx context.Context, driverID string) ([]model.Ride, error)
	ListJoined(ctx context.Context, sharerID string) ([]model.Ride, error)
	FindSharable(ctx context.Context, filter RideFilter) ([]model.Ride, error)
}

// ShareRepository persists seat reservations.
//
// Create must surface a (ride, sharer) uniqueness violation as
// apperror.ErrConcurrency: it means two first-time joins raced past the
// capacity check and the loser should retry. DeleteForSharer is idempotent —
// deleting a reservation that does not exist is a no-op, not an error.
type ShareRepository interface {
	Create(ctx context.Context, share *model.Share) error
	GetForSharer(ctx context.Context, rideID, sharerID string) (*model.Share, error)
	UpdateSeats(ctx context.Context, id string, seats int) error
	DeleteForSharer(ctx context.Context, rideID, sharerID string) error
	SumSeats(ctx context.Context, rideID string) (int, error)
	ListByRide(ctx context.Context, rideID string) ([]model.Share, error)
}

// RatingRepository persists post-trip ratings. Create returns
// apperror.ErrConflict when the ride already has a rating.
type RatingRepository interface {
	Create(ctx context.Context, rating *model.Rating) error
	GetByRide(ctx context.Context, rideID string) (*model.Rating, error)
}
