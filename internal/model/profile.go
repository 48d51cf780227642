package model

import "time"

// Role distinguishes passengers from drivers. Every account has exactly one
// role at a time; switching is allowed and only changes future behaviour.
type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RolePassenger || r == RoleDriver
}

// Profile holds per-user ride preferences and, for drivers, vehicle details.
//
// Exactly one Profile exists per User; it is created in the same transaction
// as the account and never deleted independently. Capacity is the number of
// seats in the driver's vehicle and is only meaningful when Role is
// RoleDriver — zero means "not set", which seat accounting treats as
// unknown capacity rather than a zero-seat vehicle.
type Profile struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	Role      Role      `json:"role"      db:"role"`
	Contact   string    `json:"contact"   db:"contact"`
	Vehicle   string    `json:"vehicle"   db:"vehicle"` // make/model, free text
	Plate     string    `json:"plate"     db:"plate"`
	Capacity  int       `json:"capacity"  db:"capacity"`
	Special   string    `json:"special"   db:"special"` // e.g. "AC, pet-friendly"
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
