package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ridepool/internal/auth"
	"github.com/sakif/ridepool/internal/service"
)

// RideHandler serves ride CRUD, the driver-assignment handshake, the trip
// lifecycle, and the seat report.
type RideHandler struct {
	rides  *service.RideService
	search *service.SearchService
	logger *slog.Logger
}

func NewRideHandler(rides *service.RideService, search *service.SearchService, logger *slog.Logger) *RideHandler {
	return &RideHandler{rides: rides, search: search, logger: logger}
}

type rideRequest struct {
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	ArrivalTime time.Time `json:"arrivalTime"`
	Passengers  int       `json:"passengers"`
	Sharable    bool      `json:"sharable"`
	Special     string    `json:"special"`
	DriveSelf   bool      `json:"driveSelf"`
}

func (req rideRequest) toInput() service.RideInput {
	return service.RideInput{
		Source:      req.Source,
		Destination: req.Destination,
		ArrivalTime: req.ArrivalTime,
		Passengers:  req.Passengers,
		Sharable:    req.Sharable,
		Special:     req.Special,
		DriveSelf:   req.DriveSelf,
	}
}

// HandleCreate opens a new ride for the caller.
//
// POST /api/rides
func (h *RideHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req rideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ride, err := h.rides.Create(r.Context(), userID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ride)
}

// HandleGet returns one ride.
//
// GET /api/rides/{id}
func (h *RideHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ride, err := h.rides.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

// HandleUpdate edits an open ride's trip details.
//
// PUT /api/rides/{id}
func (h *RideHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req rideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ride, err := h.rides.Update(r.Context(), chi.URLParam(r, "id"), userID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

// HandleDelete removes an open ride.
//
// DELETE /api/rides/{id}
func (h *RideHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	if err := h.rides.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDashboard returns the caller's rides grouped by relationship:
// created, driving, joined.
//
// GET /api/rides
func (h *RideHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	board, err := h.rides.DashboardFor(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

type assignRequest struct {
	DriverID string `json:"driverId"`
}

// HandleAssign proposes a driver for the ride.
//
// POST /api/rides/{id}/assign
func (h *RideHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ride, err := h.rides.AssignDriver(r.Context(), chi.URLParam(r, "id"), req.DriverID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

// HandleAccept is the assigned driver confirming the handshake.
//
// POST /api/rides/{id}/accept
func (h *RideHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	ride, err := h.rides.AcceptAssignment(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

type rejectRequest struct {
	ClearDriver bool `json:"clearDriver"`
}

// HandleReject is the assigned driver declining the handshake. The body is
// optional; clearDriver frees the slot for reassignment.
//
// POST /api/rides/{id}/reject
func (h *RideHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req rejectRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	ride, err := h.rides.RejectAssignment(r.Context(), chi.URLParam(r, "id"), userID, req.ClearDriver)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

// HandleStart moves the ride into driving.
//
// POST /api/rides/{id}/start
func (h *RideHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	ride, err := h.rides.Start(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

// HandleComplete moves the ride into completed.
//
// POST /api/rides/{id}/complete
func (h *RideHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	ride, err := h.rides.Complete(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

// HandleSeats reports the ride's seat accounting.
//
// GET /api/rides/{id}/seats
func (h *RideHandler) HandleSeats(w http.ResponseWriter, r *http.Request) {
	report, err := h.rides.Seats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleShares lists the active reservations on the ride.
//
// GET /api/rides/{id}/shares
func (h *RideHandler) HandleShares(w http.ResponseWriter, r *http.Request) {
	shares, err := h.rides.Shares(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shares)
}

type searchRequest struct {
	Destination     string    `json:"destination"`
	EarliestArrival time.Time `json:"earliestArrival"`
	LatestArrival   time.Time `json:"latestArrival"`
}

// HandleSearch finds joinable rides for the caller.
//
// POST /api/rides/search
func (h *RideHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rides, err := h.search.FindSharable(r.Context(), userID, req.Destination, req.EarliestArrival, req.LatestArrival)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rides)
}
