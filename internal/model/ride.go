package model

import (
	"fmt"
	"time"

	"github.com/sakif/ridepool/internal/apperror"
)

// RideStatus is the trip lifecycle. It only ever moves forward:
// open → driving → completed.
type RideStatus string

const (
	StatusOpen      RideStatus = "open"
	StatusDriving   RideStatus = "driving"
	StatusCompleted RideStatus = "completed"
)

// AssignmentStatus is the driver-assignment handshake, independent of the
// trip lifecycle: none → pending → accepted|rejected, and rejected rides can
// be re-assigned (back through pending).
type AssignmentStatus string

const (
	AssignNone     AssignmentStatus = "none"
	AssignPending  AssignmentStatus = "pending"
	AssignAccepted AssignmentStatus = "accepted"
	AssignRejected AssignmentStatus = "rejected"
)

// Ride is the central aggregate: trip details, lifecycle status, and the
// driver-assignment handshake.
//
// Invariant: Assignment != AssignNone implies DriverID is set, with one
// intentional exception — a rejection that clears the driver leaves
// Assignment at AssignRejected with no driver, a terminal marker until the
// next assignment cycle begins.
//
// The transition methods below are pure state machine: they validate the
// acting user and the current state, then mutate the struct in memory.
// Persistence, locking, and the seat-accounting reads they need (capacity,
// sum of shares) are the service layer's job.
type Ride struct {
	ID          string     `json:"id"          db:"id"`
	RiderID     string     `json:"riderId"     db:"rider_id"`            // creator / trip owner
	DriverID    string     `json:"driverId"    db:"driver_id"`           // empty until assigned
	Source      string     `json:"source"      db:"source"`
	Destination string     `json:"destination" db:"destination"`
	ArrivalTime time.Time  `json:"arrivalTime" db:"arrival_time"`
	Passengers  int        `json:"passengers"  db:"passengers"` // seats reserved by the creator, ≥1
	Sharable    bool       `json:"sharable"    db:"sharable"`
	Special     string     `json:"special"     db:"special"`

	Status     RideStatus       `json:"status"           db:"status"`
	Assignment AssignmentStatus `json:"assignmentStatus" db:"assignment_status"`
	AssignedAt *time.Time       `json:"assignedAt"       db:"assigned_at"`
	AssignedBy string           `json:"assignedBy"       db:"assigned_by"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// TotalCommitted returns the creator's seats plus the given sum of active
// sharer reservations.
func (r *Ride) TotalCommitted(sharedSeats int) int {
	return r.Passengers + sharedSeats
}

// AvailableSeats computes seats left for new sharers given the assigned
// driver's vehicle capacity and the current sum of sharer reservations.
//
// The bool result distinguishes "unknown" from zero: false means there is no
// basis to compute (no driver assigned, or capacity not set), while
// (0, true) means the ride is truly full. Callers that need a number for
// admission checks treat unknown as zero seats.
func (r *Ride) AvailableSeats(capacity, sharedSeats int) (int, bool) {
	if r.DriverID == "" || capacity <= 0 {
		return 0, false
	}
	left := capacity - r.Passengers - sharedSeats
	if left < 0 {
		left = 0
	}
	return left, true
}

// Assign attaches a candidate driver and records the assignment audit trail.
// If autoAccept (the candidate is the ride's own creator, or the creator is
// assigning themself) the handshake skips straight to accepted; otherwise
// the driver must accept or reject.
//
// Authorization of the caller (ride creator or admin) happens before this is
// called; the aggregate only records who triggered it.
func (r *Ride) Assign(driverID, assignedBy string, at time.Time, autoAccept bool) {
	r.DriverID = driverID
	r.AssignedAt = &at
	r.AssignedBy = assignedBy
	if autoAccept {
		r.Assignment = AssignAccepted
	} else {
		r.Assignment = AssignPending
	}
}

// AcceptAssignment moves the handshake to accepted. Only the assigned driver
// may accept, and the driver's vehicle capacity must cover the seats already
// committed (creator's plus all active shares).
func (r *Ride) AcceptAssignment(actingUserID string, capacity, sharedSeats int) error {
	if r.DriverID == "" || r.DriverID != actingUserID {
		return apperror.Forbidden("only the assigned driver can accept")
	}
	committed := r.TotalCommitted(sharedSeats)
	if capacity < committed {
		return apperror.CapacityExceeded(fmt.Sprintf(
			"vehicle capacity (%d) is less than currently committed seats (%d)", capacity, committed))
	}
	r.Assignment = AssignAccepted
	return nil
}

// RejectAssignment moves the handshake to rejected. With clearDriver the
// driver and audit fields are wiped so the ride becomes re-assignable;
// without it only the status flag flips and the driver stays attached
// (soft-reject bookkeeping).
func (r *Ride) RejectAssignment(actingUserID string, clearDriver bool) error {
	if r.DriverID == "" || r.DriverID != actingUserID {
		return apperror.Forbidden("only the assigned driver can reject")
	}
	r.Assignment = AssignRejected
	if clearDriver {
		r.DriverID = ""
		r.AssignedAt = nil
		r.AssignedBy = ""
	}
	return nil
}

// Start moves the trip from open to driving. Only the accepted driver can
// start, and only once.
func (r *Ride) Start(actingUserID string) error {
	if r.DriverID == "" || r.DriverID != actingUserID {
		return apperror.Forbidden("only the assigned driver can start the ride")
	}
	if r.Assignment != AssignAccepted {
		return apperror.StateConflict("assignment must be accepted before starting")
	}
	if r.Status != StatusOpen {
		return apperror.StateConflict("ride cannot be started")
	}
	r.Status = StatusDriving
	return nil
}

// Complete moves the trip from driving to completed.
func (r *Ride) Complete(actingUserID string) error {
	if r.DriverID == "" || r.DriverID != actingUserID {
		return apperror.Forbidden("only the assigned driver can complete the ride")
	}
	if r.Status != StatusDriving {
		return apperror.StateConflict("ride is not in progress")
	}
	r.Status = StatusCompleted
	return nil
}
