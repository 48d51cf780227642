// Package service contains the business logic layer: validation, permission
// checks, the ride/assignment state machine, and the seat-accounting
// coordinator. Services accept primitives and domain types, never HTTP types,
// and return apperror domain errors for the handler layer to translate.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/ridepool/internal/apperror"
	"github.com/sakif/ridepool/internal/model"
	"github.com/sakif/ridepool/internal/observability"
	"github.com/sakif/ridepool/internal/repository"
)

const (
	MaxLocationLength = 200
	MaxSpecialLength  = 500
)

// RideInput carries the creator-editable fields of a ride.
type RideInput struct {
	Source      string
	Destination string
	ArrivalTime time.Time
	Passengers  int
	Sharable    bool
	Special     string
	// DriveSelf marks the creator as their own driver at creation time,
	// skipping the assignment handshake entirely. Ignored on update.
	DriveSelf bool
}

// Dashboard groups a user's rides by their relationship to them.
type Dashboard struct {
	Created []model.Ride `json:"created"` // rides the user owns
	Driving []model.Ride `json:"driving"` // rides the user drives
	Joined  []model.Ride `json:"joined"`  // rides the user shares seats on
}

// SeatReport is the read-side view of a ride's seat accounting. Available
// is nil when there is no basis to compute it (no driver attached, or no
// capacity on file) — rendered as null, which is not the same as zero.
type SeatReport struct {
	Committed int  `json:"committed"`
	Available *int `json:"available"`
}

// RideService owns the ride lifecycle and the driver-assignment handshake.
//
// All mutations that feed seat accounting (assignment acceptance, passenger
// count edits) run under the per-ride lock shared with ReservationService,
// re-reading the ride inside the critical section so decisions are made on
// current state.
type RideService struct {
	rides    repository.RideRepository
	shares   repository.ShareRepository
	profiles repository.ProfileRepository
	users    repository.UserRepository
	locks    *RideLocks
	logger   *slog.Logger
	now      func() time.Time // injectable for tests
}

func NewRideService(
	rides repository.RideRepository,
	shares repository.ShareRepository,
	profiles repository.ProfileRepository,
	users repository.UserRepository,
	locks *RideLocks,
	logger *slog.Logger,
) *RideService {
	return &RideService{
		rides:    rides,
		shares:   shares,
		profiles: profiles,
		users:    users,
		locks:    locks,
		logger:   logger,
		now:      time.Now,
	}
}

func validateRideInput(in *RideInput, now time.Time) error {
	in.Source = strings.TrimSpace(in.Source)
	in.Destination = strings.TrimSpace(in.Destination)
	in.Special = strings.TrimSpace(in.Special)

	if in.Source == "" {
		return apperror.ValidationFailed("source", "source is required")
	}
	if len(in.Source) > MaxLocationLength {
		return apperror.ValidationFailed("source", "source is too long")
	}
	if in.Destination == "" {
		return apperror.ValidationFailed("destination", "destination is required")
	}
	if len(in.Destination) > MaxLocationLength {
		return apperror.ValidationFailed("destination", "destination is too long")
	}
	if len(in.Special) > MaxSpecialLength {
		return apperror.ValidationFailed("special", "special instructions are too long")
	}
	if in.ArrivalTime.IsZero() {
		return apperror.ValidationFailed("arrivalTime", "arrival time is required")
	}
	if !in.ArrivalTime.After(now) {
		return apperror.ValidationFailed("arrivalTime", "arrival time must be in the future")
	}
	if in.Passengers < 1 {
		return apperror.ValidationFailed("passengers", "at least one passenger is required")
	}
	return nil
}

// Create validates and saves a new ride owned by riderID.
//
// If the creator holds the driver role, or explicitly asks to drive
// themself, they become the ride's driver with the assignment already
// accepted — there is nobody to hand the handshake to.
func (s *RideService) Create(ctx context.Context, riderID string, in RideInput) (*model.Ride, error) {
	if err := validateRideInput(&in, s.now()); err != nil {
		return nil, err
	}

	driveSelf := in.DriveSelf
	if !driveSelf {
		profile, err := s.profiles.GetByUserID(ctx, riderID)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		if err == nil && profile.Role == model.RoleDriver {
			driveSelf = true
		}
	}

	ride := &model.Ride{
		RiderID:     riderID,
		Source:      in.Source,
		Destination: in.Destination,
		ArrivalTime: in.ArrivalTime,
		Passengers:  in.Passengers,
		Sharable:    in.Sharable,
		Special:     in.Special,
		Status:      model.StatusOpen,
		Assignment:  model.AssignNone,
	}
	if driveSelf {
		ride.Assign(riderID, riderID, s.now(), true)
	}

	if err := s.rides.Create(ctx, ride); err != nil {
		s.logger.Error("failed to create ride",
			slog.String("riderId", riderID),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.Info("ride created",
		slog.String("id", ride.ID),
		slog.String("riderId", riderID),
		slog.Bool("driveSelf", driveSelf))
	return ride, nil
}

// Get fetches a single ride by ID.
func (s *RideService) Get(ctx context.Context, id string) (*model.Ride, error) {
	return s.rides.GetByID(ctx, id)
}

// Update edits a ride's trip details. Only the owner may edit, and only
// while the ride is still open. Runs under the ride lock because the
// passenger count feeds committed-seat accounting.
func (s *RideService) Update(ctx context.Context, rideID, actingUserID string, in RideInput) (*model.Ride, error) {
	if err := validateRideInput(&in, s.now()); err != nil {
		return nil, err
	}

	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.RiderID != actingUserID {
		return nil, apperror.Forbidden("only the ride owner can edit it")
	}
	if ride.Status != model.StatusOpen {
		return nil, apperror.StateConflict("only open rides can be edited")
	}

	ride.Source = in.Source
	ride.Destination = in.Destination
	ride.ArrivalTime = in.ArrivalTime
	ride.Passengers = in.Passengers
	ride.Sharable = in.Sharable
	ride.Special = in.Special

	if err := s.rides.Update(ctx, ride); err != nil {
		return nil, err
	}

	s.logger.Info("ride updated", slog.String("id", ride.ID))
	return ride, nil
}

// Delete removes a ride. Only the owner may delete, and only while the ride
// is still open. Shares go with it (cascade).
func (s *RideService) Delete(ctx context.Context, rideID, actingUserID string) error {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return err
	}
	if ride.RiderID != actingUserID {
		return apperror.Forbidden("only the ride owner can delete it")
	}
	if ride.Status != model.StatusOpen {
		return apperror.StateConflict("only open rides can be deleted")
	}

	if err := s.rides.Delete(ctx, rideID); err != nil {
		return err
	}

	s.logger.Info("ride deleted", slog.String("id", rideID))
	return nil
}

// DashboardFor collects the rides a user owns, drives, and has joined.
func (s *RideService) DashboardFor(ctx context.Context, userID string) (*Dashboard, error) {
	created, err := s.rides.ListByRider(ctx, userID)
	if err != nil {
		return nil, err
	}
	driving, err := s.rides.ListByDriver(ctx, userID)
	if err != nil {
		return nil, err
	}
	joined, err := s.rides.ListJoined(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Created: created, Driving: driving, Joined: joined}, nil
}

// AssignDriver proposes candidateID as the ride's driver.
//
// Rules:
//   - only the ride owner or an admin may assign
//   - the ride must be open with no handshake in flight (none or a prior
//     rejection)
//   - the candidate must hold the driver role
//   - the candidate's capacity must cover seats already committed — an
//     advisory pre-check; the binding check re-runs at acceptance
//   - assigning the owner to their own ride, or a driver assigning themself,
//     auto-accepts
func (s *RideService) AssignDriver(ctx context.Context, rideID, candidateID, actingUserID string) (*model.Ride, error) {
	if candidateID == "" {
		return nil, apperror.ValidationFailed("driverId", "a driver must be selected")
	}

	profile, err := s.profiles.GetByUserID(ctx, candidateID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("driverId", "selected user is not a registered driver")
		}
		return nil, err
	}
	if profile.Role != model.RoleDriver {
		return nil, apperror.ValidationFailed("driverId", "selected user is not a registered driver")
	}

	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.RiderID != actingUserID {
		admin, err := s.isAdmin(ctx, actingUserID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, apperror.Forbidden("only the ride owner or an admin can assign a driver")
		}
	}
	if ride.Status != model.StatusOpen {
		return nil, apperror.StateConflict("drivers can only be assigned to open rides")
	}
	if ride.Assignment == model.AssignPending || ride.Assignment == model.AssignAccepted {
		return nil, apperror.StateConflict("ride already has a driver assignment in progress")
	}

	shared, err := s.shares.SumSeats(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if committed := ride.TotalCommitted(shared); profile.Capacity < committed {
		return nil, apperror.CapacityExceeded("driver's vehicle cannot fit the seats already committed")
	}

	autoAccept := candidateID == ride.RiderID || candidateID == actingUserID
	ride.Assign(candidateID, actingUserID, s.now(), autoAccept)

	if err := s.rides.Update(ctx, ride); err != nil {
		return nil, err
	}
	if autoAccept {
		observability.AssignmentsAccepted.Inc()
	}

	s.logger.Info("driver assigned",
		slog.String("rideId", rideID),
		slog.String("driverId", candidateID),
		slog.String("assignedBy", actingUserID),
		slog.Bool("autoAccept", autoAccept))
	return ride, nil
}

// AcceptAssignment is the assigned driver confirming a pending handshake.
// The capacity check here is the binding one: it runs under the ride lock
// against a fresh read, so sharers admitted since the assignment are counted.
func (s *RideService) AcceptAssignment(ctx context.Context, rideID, actingUserID string) (*model.Ride, error) {
	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Assignment != model.AssignPending {
		return nil, apperror.StateConflict("no pending assignment to accept")
	}

	capacity := 0
	if profile, err := s.profiles.GetByUserID(ctx, ride.DriverID); err == nil {
		capacity = profile.Capacity
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	shared, err := s.shares.SumSeats(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if err := ride.AcceptAssignment(actingUserID, capacity, shared); err != nil {
		return nil, err
	}
	if err := s.rides.Update(ctx, ride); err != nil {
		return nil, err
	}
	observability.AssignmentsAccepted.Inc()

	s.logger.Info("assignment accepted",
		slog.String("rideId", rideID),
		slog.String("driverId", ride.DriverID))
	return ride, nil
}

// RejectAssignment is the assigned driver declining a pending handshake.
// With clearDriver the ride sheds the driver and becomes assignable again;
// without it the driver stays attached as a rejected marker.
func (s *RideService) RejectAssignment(ctx context.Context, rideID, actingUserID string, clearDriver bool) (*model.Ride, error) {
	s.locks.Lock(rideID)
	defer s.locks.Unlock(rideID)

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Assignment != model.AssignPending {
		return nil, apperror.StateConflict("no pending assignment to reject")
	}
	if err := ride.RejectAssignment(actingUserID, clearDriver); err != nil {
		return nil, err
	}
	if err := s.rides.Update(ctx, ride); err != nil {
		return nil, err
	}
	observability.AssignmentsRejected.Inc()

	s.logger.Info("assignment rejected",
		slog.String("rideId", rideID),
		slog.Bool("clearDriver", clearDriver))
	return ride, nil
}

// Start moves an open ride with an accepted driver into driving.
func (s *RideService) Start(ctx context.Context, rideID, actingUserID string) (*model.Ride, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := ride.Start(actingUserID); err != nil {
		return nil, err
	}
	if err := s.rides.Update(ctx, ride); err != nil {
		return nil, err
	}

	s.logger.Info("ride started", slog.String("id", rideID))
	return ride, nil
}

// Complete moves a driving ride into completed.
func (s *RideService) Complete(ctx context.Context, rideID, actingUserID string) (*model.Ride, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := ride.Complete(actingUserID); err != nil {
		return nil, err
	}
	if err := s.rides.Update(ctx, ride); err != nil {
		return nil, err
	}
	observability.RidesCompleted.Inc()

	s.logger.Info("ride completed", slog.String("id", rideID))
	return ride, nil
}

// Seats reports a ride's current seat accounting: committed seats and, when
// a driver with a known capacity is attached, how many remain.
func (s *RideService) Seats(ctx context.Context, rideID string) (*SeatReport, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	shared, err := s.shares.SumSeats(ctx, rideID)
	if err != nil {
		return nil, err
	}

	capacity := 0
	if ride.DriverID != "" {
		if profile, err := s.profiles.GetByUserID(ctx, ride.DriverID); err == nil {
			capacity = profile.Capacity
		} else if !errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
	}

	report := &SeatReport{Committed: ride.TotalCommitted(shared)}
	if available, known := ride.AvailableSeats(capacity, shared); known {
		report.Available = &available
	}
	return report, nil
}

// Shares lists the active reservations on a ride, for the owner's view.
func (s *RideService) Shares(ctx context.Context, rideID string) ([]model.Share, error) {
	return s.shares.ListByRide(ctx, rideID)
}

func (s *RideService) isAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}
