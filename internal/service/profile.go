package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/ridepool/internal/apperror"
	"github.com/sakif/ridepool/internal/model"
	"github.com/sakif/ridepool/internal/repository"
)

const (
	MaxContactLength = 100
	MaxVehicleLength = 100
	MaxPlateLength   = 20
	MaxCapacity      = 50
)

// DriverInput carries the fields a user supplies to register as a driver.
type DriverInput struct {
	Contact  string
	Vehicle  string
	Plate    string
	Capacity int
	Special  string
}

// ProfileService manages the ride-sharing profile attached to every user:
// contact details, the passenger/driver role, and driver vehicle data.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

func NewProfileService(profiles repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: logger}
}

// GetByUser fetches the profile for a user.
func (s *ProfileService) GetByUser(ctx context.Context, userID string) (*model.Profile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

// UpdateContact edits the contact and special-needs fields shared by both
// roles.
func (s *ProfileService) UpdateContact(ctx context.Context, userID, contact, special string) (*model.Profile, error) {
	contact = strings.TrimSpace(contact)
	special = strings.TrimSpace(special)
	if len(contact) > MaxContactLength {
		return nil, apperror.ValidationFailed("contact", "contact is too long")
	}
	if len(special) > MaxSpecialLength {
		return nil, apperror.ValidationFailed("special", "special needs are too long")
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Contact = contact
	profile.Special = special

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// RegisterDriver upgrades a user to the driver role with their vehicle
// details. A capacity of at least one seat is required — a driver with no
// stated capacity could never accept a ride.
func (s *ProfileService) RegisterDriver(ctx context.Context, userID string, in DriverInput) (*model.Profile, error) {
	in.Vehicle = strings.TrimSpace(in.Vehicle)
	in.Plate = strings.TrimSpace(in.Plate)
	in.Contact = strings.TrimSpace(in.Contact)

	if in.Vehicle == "" {
		return nil, apperror.ValidationFailed("vehicle", "vehicle type is required")
	}
	if len(in.Vehicle) > MaxVehicleLength {
		return nil, apperror.ValidationFailed("vehicle", "vehicle type is too long")
	}
	if len(in.Plate) > MaxPlateLength {
		return nil, apperror.ValidationFailed("plate", "plate number is too long")
	}
	if in.Capacity < 1 {
		return nil, apperror.ValidationFailed("capacity", "capacity must be at least one seat")
	}
	if in.Capacity > MaxCapacity {
		return nil, apperror.ValidationFailed("capacity", "capacity is unrealistically large")
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Role = model.RoleDriver
	profile.Vehicle = in.Vehicle
	profile.Plate = in.Plate
	profile.Capacity = in.Capacity
	if in.Contact != "" {
		profile.Contact = in.Contact
	}
	if in.Special != "" {
		profile.Special = strings.TrimSpace(in.Special)
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("driver registered",
		slog.String("userId", userID),
		slog.Int("capacity", in.Capacity))
	return profile, nil
}

// BecomePassenger reverts a user to the passenger role. Vehicle details are
// kept on file in case they switch back.
func (s *ProfileService) BecomePassenger(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Role = model.RolePassenger

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("role changed to passenger", slog.String("userId", userID))
	return profile, nil
}
