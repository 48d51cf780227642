package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/ridepool/internal/apperror"
	"github.com/sakif/ridepool/internal/auth"
	"github.com/sakif/ridepool/internal/model"
	"github.com/sakif/ridepool/internal/service"
)

// ProfileHandler serves the ride-sharing profile attached to the
// authenticated user.
type ProfileHandler struct {
	svc    *service.ProfileService
	logger *slog.Logger
}

func NewProfileHandler(svc *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

// HandleGet returns the caller's profile.
//
// GET /api/me/profile
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	profile, err := h.svc.GetByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	Contact string `json:"contact"`
	Special string `json:"special"`
}

// HandleUpdate edits the contact fields shared by both roles.
//
// PUT /api/me/profile
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.svc.UpdateContact(r.Context(), userID, req.Contact, req.Special)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type roleRequest struct {
	Role     model.Role `json:"role"`
	Contact  string     `json:"contact"`
	Vehicle  string     `json:"vehicle"`
	Plate    string     `json:"plate"`
	Capacity int        `json:"capacity"`
	Special  string     `json:"special"`
}

// HandleSetRole switches the caller between passenger and driver. Becoming
// a driver requires vehicle details; becoming a passenger ignores them.
//
// POST /api/me/role
func (h *ProfileHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var (
		profile *model.Profile
		err     error
	)
	switch req.Role {
	case model.RoleDriver:
		profile, err = h.svc.RegisterDriver(r.Context(), userID, service.DriverInput{
			Contact:  req.Contact,
			Vehicle:  req.Vehicle,
			Plate:    req.Plate,
			Capacity: req.Capacity,
			Special:  req.Special,
		})
	case model.RolePassenger:
		profile, err = h.svc.BecomePassenger(r.Context(), userID)
	default:
		err = apperror.ValidationFailed("role", "role must be passenger or driver")
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
