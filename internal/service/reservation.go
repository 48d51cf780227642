package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/ridepool/internal/apperror"
	"github.com/sakif/ridepool/internal/model"
	"github.com/sakif/ridepool/internal/observability"
	"github.com/sakif/ridepool/internal/repository"
)

// ReservationService admits, resizes, and releases sharer seat reservations.
//
// The admission protocol for every mutation:
//
//  1. cheap unlocked pre-checks (fail fast without contending)
//  2. take the per-ride lock
//  3. re-read ride and reservation — the pre-check snapshot may be stale
//  4. compute availability, crediting back the caller's existing seats so
//     resizing counts only the delta
//  5. admit or reject; write inside the critical section
//
// Two sharers racing for the last seat serialize on the lock; the loser's
// re-read sees the winner's seats and gets a capacity rejection. If a write
// still trips the one-reservation-per-sharer unique index (two first-time
// joins racing), the repository surfaces it as a retryable concurrency
// conflict rather than corrupting the count.
type ReservationService struct {
	rides    repository.RideRepository
	shares   repository.ShareRepository
	profiles repository.ProfileRepository
	locks    *RideLocks
	logger   *slog.Logger
}

func NewReservationService(
	rides repository.RideRepository,
	shares repository.ShareRepository,
	profiles repository.ProfileRepository,
	locks *RideLocks,
	logger *slog.Logger,
) *ReservationService {
	return &ReservationService{
		rides:    rides,
		shares:   shares,
		profiles: profiles,
		locks:    locks,
		logger:   logger,
	}
}

// checkJoinable enforces the ride-state half of admission: sharable, still
// open, and a driver attached who has accepted. Capacity is checked
// separately because it needs the share sum.
func checkJoinable(ride *model.Ride) error {
	if !ride.Sharable || ride.Status != model.StatusOpen {
		return apperror.StateConflict("this ride is not available for sharing")
	}
	if ride.DriverID == "" || ride.Assignment != model.AssignAccepted {
		return apperror.StateConflict("a driver must be assigned and accepted before joining")
	}
	return nil
}

// availableFor computes how many seats sharerID may hold on ride right now.
// Unknown availability admits nobody, and the sharer's existing reservation
// is credited back so a resize is judged on its delta.
func (s *ReservationService) availableFor(ctx context.Context, ride *model.Ride, existingSeats int) (int, error) {
	capacity := 0
	if profile, err := s.profiles.GetByUserID(ctx, ride.DriverID); err == nil {
		capacity = profile.Capacity
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return 0, err
	}

	shared, err := s.shares.SumSeats(ctx, ride.ID)
	if err != nil {
		return 0, err
	}

	available, known := ride.AvailableSeats(capacity, shared)
	if !known {
		available = 0
	}
	return available + existingSeats, nil
}

// JoinOrUpdate reserves seats seats on a ride for sharerID, replacing any
// reservation they already hold. Drivers cannot hold reservations; the ride
// owner's seats are already counted and they cannot double-book as a sharer.
func (s *ReservationService) JoinOrUpdate(ctx context.Context, rideID, sharerID string, seats int) (*model.Share, error) {
	if seats < 1 {
		return nil, apperror.ValidationFailed("seats", "at least one seat is required")
	}

	profile, err := s.profiles.GetByUserID(ctx, sharerID)
	if err != nil {
		return nil, err
	}
	if profile.Role == model.RoleDriver {
		return nil, apperror.Forbidden("drivers cannot join rides as sharers")
	}

	// Pre-check outside the lock so obviously unjoinable rides fail fast.
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.RiderID == sharerID {
		return nil, apperror.StateConflict("the ride owner cannot join their own ride as a sharer")
	}
	if err := checkJoinable(ride); err != nil {
		return nil, err
	}

	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	ride, err = s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := checkJoinable(ride); err != nil {
		return nil, err
	}

	existing, err := s.shares.GetForSharer(ctx, rideID, sharerID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	existingSeats := 0
	if existing != nil {
		existingSeats = existing.Seats
	}

	available, err := s.availableFor(ctx, ride, existingSeats)
	if err != nil {
		return nil, err
	}
	if seats > available {
		observability.ReservationsRejected.Inc()
		return nil, apperror.CapacityExceeded("not enough seats available on this ride")
	}

	if existing != nil {
		if err := s.shares.UpdateSeats(ctx, existing.ID, seats); err != nil {
			return nil, err
		}
		existing.Seats = seats
		s.logger.Info("reservation resized",
			slog.String("rideId", rideID),
			slog.String("sharerId", sharerID),
			slog.Int("seats", seats))
		return existing, nil
	}

	share := &model.Share{RideID: rideID, SharerID: sharerID, Seats: seats}
	if err := s.shares.Create(ctx, share); err != nil {
		return nil, err
	}
	observability.ReservationsAdmitted.Inc()

	s.logger.Info("reservation admitted",
		slog.String("rideId", rideID),
		slog.String("sharerId", sharerID),
		slog.Int("seats", seats))
	return share, nil
}

// UpdateSeats resizes an existing reservation. Unlike JoinOrUpdate it
// requires the reservation to already exist.
func (s *ReservationService) UpdateSeats(ctx context.Context, rideID, sharerID string, seats int) (*model.Share, error) {
	if seats < 1 {
		return nil, apperror.ValidationFailed("seats", "at least one seat is required")
	}

	// Existence pre-check; re-verified under the lock.
	if _, err := s.shares.GetForSharer(ctx, rideID, sharerID); err != nil {
		return nil, err
	}

	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := checkJoinable(ride); err != nil {
		return nil, err
	}

	share, err := s.shares.GetForSharer(ctx, rideID, sharerID)
	if err != nil {
		return nil, err
	}

	available, err := s.availableFor(ctx, ride, share.Seats)
	if err != nil {
		return nil, err
	}
	if seats > available {
		observability.ReservationsRejected.Inc()
		return nil, apperror.CapacityExceeded("not enough seats available on this ride")
	}

	if err := s.shares.UpdateSeats(ctx, share.ID, seats); err != nil {
		return nil, err
	}
	share.Seats = seats

	s.logger.Info("reservation resized",
		slog.String("rideId", rideID),
		slog.String("sharerId", sharerID),
		slog.Int("seats", seats))
	return share, nil
}

// Leave releases sharerID's reservation on a ride. Idempotent: leaving a
// ride never joined, or leaving twice, succeeds without effect. Seats are
// freed immediately regardless of ride state.
func (s *ReservationService) Leave(ctx context.Context, rideID, sharerID string) error {
	if err := s.shares.DeleteForSharer(ctx, rideID, sharerID); err != nil {
		return err
	}
	s.logger.Info("reservation released",
		slog.String("rideId", rideID),
		slog.String("sharerId", sharerID))
	return nil
}
