package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/ridepool/internal/apperror"
	"github.com/sakif/ridepool/internal/model"
	"github.com/sakif/ridepool/internal/repository"
)

// SearchService finds joinable rides for would-be sharers.
type SearchService struct {
	rides  repository.RideRepository
	logger *slog.Logger
}

func NewSearchService(rides repository.RideRepository, logger *slog.Logger) *SearchService {
	return &SearchService{rides: rides, logger: logger}
}

// FindSharable returns open, sharable rides with an accepted driver going to
// destination (matched case-insensitively, exact) arriving within
// [earliest, latest] inclusive. The requester's own rides are excluded.
//
// No capacity filter: full rides still appear, and admission is decided at
// join time. Results are ordered by arrival time, soonest first.
func (s *SearchService) FindSharable(ctx context.Context, requesterID, destination string, earliest, latest time.Time) ([]model.Ride, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, apperror.ValidationFailed("destination", "destination is required")
	}
	if earliest.IsZero() || latest.IsZero() {
		return nil, apperror.ValidationFailed("arrivalWindow", "earliest and latest arrival are required")
	}
	if earliest.After(latest) {
		return nil, apperror.ValidationFailed("arrivalWindow", "earliest arrival must not be after latest")
	}

	rides, err := s.rides.FindSharable(ctx, repository.RideFilter{
		Destination:     destination,
		EarliestArrival: earliest,
		LatestArrival:   latest,
		ExcludeRiderID:  requesterID,
	})
	if err != nil {
		s.logger.Error("ride search failed", slog.String("error", err.Error()))
		return nil, err
	}
	return rides, nil
}
