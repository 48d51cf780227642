package model

import "time"

// Rating is a post-trip review: one per completed ride, rater to ratee,
// scored 1–5.
type Rating struct {
	ID        string    `json:"id"        db:"id"`
	RideID    string    `json:"rideId"    db:"ride_id"`
	RaterID   string    `json:"raterId"   db:"rater_id"`
	RateeID   string    `json:"rateeId"   db:"ratee_id"`
	Score     int       `json:"score"     db:"score"`
	Review    string    `json:"review"    db:"review"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
