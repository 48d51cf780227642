package model

import "time"

// Share is one sharer's active seat reservation on somebody else's ride.
//
// At most one Share exists per (ride, sharer) pair — the database enforces
// this with a unique index, which is also the last-line guard against two
// concurrent first-time joins. Shares are owned by their ride and cascade
// away with it.
type Share struct {
	ID       string    `json:"id"       db:"id"`
	RideID   string    `json:"rideId"   db:"ride_id"`
	SharerID string    `json:"sharerId" db:"sharer_id"`
	Seats    int       `json:"seats"    db:"seats"` // ≥1
	JoinedAt time.Time `json:"joinedAt" db:"joined_at"`
}
