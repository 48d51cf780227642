package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/ridepool/internal/apperror"
	"github.com/sakif/ridepool/internal/model"
	"github.com/sakif/ridepool/internal/repository"
)

const MaxReviewLength = 1000

// RatingService records post-trip feedback. One rating per ride, only after
// completion, only from someone who was on the trip.
type RatingService struct {
	ratings repository.RatingRepository
	rides   repository.RideRepository
	shares  repository.ShareRepository
	logger  *slog.Logger
}

func NewRatingService(
	ratings repository.RatingRepository,
	rides repository.RideRepository,
	shares repository.ShareRepository,
	logger *slog.Logger,
) *RatingService {
	return &RatingService{
		ratings: ratings,
		rides:   rides,
		shares:  shares,
		logger:  logger,
	}
}

// Rate submits a 1–5 score for a completed ride. The ratee is derived, not
// chosen: the driver rates the ride owner, everyone else rates the driver.
func (s *RatingService) Rate(ctx context.Context, rideID, raterID string, score int, review string) (*model.Rating, error) {
	if score < 1 || score > 5 {
		return nil, apperror.ValidationFailed("score", "score must be between 1 and 5")
	}
	review = strings.TrimSpace(review)
	if len(review) > MaxReviewLength {
		return nil, apperror.ValidationFailed("review", "review is too long")
	}

	ride, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != model.StatusCompleted {
		return nil, apperror.StateConflict("only completed rides can be rated")
	}

	var rateeID string
	switch raterID {
	case ride.DriverID:
		rateeID = ride.RiderID
	case ride.RiderID:
		rateeID = ride.DriverID
	default:
		if _, err := s.shares.GetForSharer(ctx, rideID, raterID); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return nil, apperror.Forbidden("only ride participants can rate")
			}
			return nil, err
		}
		rateeID = ride.DriverID
	}

	rating := &model.Rating{
		RideID:  rideID,
		RaterID: raterID,
		RateeID: rateeID,
		Score:   score,
		Review:  review,
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		return nil, err
	}

	s.logger.Info("ride rated",
		slog.String("rideId", rideID),
		slog.Int("score", score))
	return rating, nil
}

// ForRide fetches the rating on a ride, if any.
func (s *RatingService) ForRide(ctx context.Context, rideID string) (*model.Rating, error) {
	return s.ratings.GetByRide(ctx, rideID)
}
