package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/sakif/ridepool/internal/model"
)

// Test helpers shared by the repository tests. ":memory:" gives each test a
// fresh, isolated database that disappears when the connection closes.

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string, role model.Role, capacity int) *model.User {
	t.Helper()
	user := &model.User{Username: username, PasswordHash: "hash"}
	profile := &model.Profile{Role: role, Capacity: capacity}
	if err := db.Users.CreateWithProfile(context.Background(), user, profile); err != nil {
		t.Fatalf("failed to create test user %s: %v", username, err)
	}
	return user
}

func createTestRide(t *testing.T, db *DB, riderID string, mutate func(*model.Ride)) *model.Ride {
	t.Helper()
	ride := &model.Ride{
		RiderID:     riderID,
		Source:      "campus",
		Destination: "airport",
		ArrivalTime: time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second),
		Passengers:  2,
		Sharable:    true,
		Status:      model.StatusOpen,
		Assignment:  model.AssignNone,
	}
	if mutate != nil {
		mutate(ride)
	}
	if err := db.Rides.Create(context.Background(), ride); err != nil {
		t.Fatalf("failed to create test ride: %v", err)
	}
	return ride
}

func createTestShare(t *testing.T, db *DB, rideID, sharerID string, seats int) *model.Share {
	t.Helper()
	share := &model.Share{RideID: rideID, SharerID: sharerID, Seats: seats}
	if err := db.Shares.Create(context.Background(), share); err != nil {
		t.Fatalf("failed to create test share: %v", err)
	}
	return share
}
