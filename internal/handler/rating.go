package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ridepool/internal/auth"
	"github.com/sakif/ridepool/internal/service"
)

// RatingHandler serves post-trip ratings.
type RatingHandler struct {
	svc    *service.RatingService
	logger *slog.Logger
}

func NewRatingHandler(svc *service.RatingService, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{svc: svc, logger: logger}
}

type ratingRequest struct {
	Score  int    `json:"score"`
	Review string `json:"review"`
}

// HandleRate submits a rating for a completed ride.
//
// POST /api/rides/{id}/rating
func (h *RatingHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req ratingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rating, err := h.svc.Rate(r.Context(), chi.URLParam(r, "id"), userID, req.Score, req.Review)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rating)
}

// HandleGet returns the ride's rating, if one exists.
//
// GET /api/rides/{id}/rating
func (h *RatingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rating, err := h.svc.ForRide(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}
