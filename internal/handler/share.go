package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ridepool/internal/auth"
	"github.com/sakif/ridepool/internal/service"
)

// ShareHandler serves the sharer side of a ride: joining, resizing, and
// releasing a seat reservation.
type ShareHandler struct {
	svc    *service.ReservationService
	logger *slog.Logger
}

func NewShareHandler(svc *service.ReservationService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{svc: svc, logger: logger}
}

type shareRequest struct {
	Seats int `json:"seats"`
}

// HandleJoin reserves seats on the ride for the caller, replacing any
// reservation they already hold.
//
// POST /api/rides/{id}/share
func (h *ShareHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req shareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	share, err := h.svc.JoinOrUpdate(r.Context(), chi.URLParam(r, "id"), userID, req.Seats)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, share)
}

// HandleUpdate resizes the caller's existing reservation.
//
// PUT /api/rides/{id}/share
func (h *ShareHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req shareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	share, err := h.svc.UpdateSeats(r.Context(), chi.URLParam(r, "id"), userID, req.Seats)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, share)
}

// HandleLeave releases the caller's reservation. Always succeeds, even if
// there was nothing to release.
//
// DELETE /api/rides/{id}/share
func (h *ShareHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	if err := h.svc.Leave(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
