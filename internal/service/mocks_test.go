package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sakif/ridepool/internal/apperror"
	"github.com/sakif/ridepool/internal/model"
	"github.com/sakif/ridepool/internal/repository"
)

// In-memory mock repositories. They guard their maps with a mutex because
// the reservation tests exercise real goroutine races; copies go in and out
// so tests can't mutate stored state by accident.

type mockUserRepo struct {
	mu       sync.Mutex
	users    map[string]*model.User
	profiles *mockProfileRepo // CreateWithProfile provisions the profile row too
	nextID   int
}

func newMockUserRepo(profiles *mockProfileRepo) *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User), profiles: profiles}
}

func (m *mockUserRepo) CreateWithProfile(_ context.Context, user *model.User, profile *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	stored := *user
	m.users[user.ID] = &stored

	profile.ID = fmt.Sprintf("profile-%d", m.nextID)
	profile.UserID = user.ID
	m.profiles.put(profile)
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	user.PasswordHash = passwordHash
	return nil
}

type mockProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile // keyed by user ID
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (m *mockProfileRepo) put(profile *model.Profile) {
	stored := *profile
	m.profiles[profile.UserID] = &stored
}

func (m *mockProfileRepo) GetByUserID(_ context.Context, userID string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, apperror.NotFound("profile", userID)
	}
	result := *profile
	return &result, nil
}

func (m *mockProfileRepo) Update(_ context.Context, profile *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[profile.UserID]; !ok {
		return apperror.NotFound("profile", profile.UserID)
	}
	stored := *profile
	m.profiles[profile.UserID] = &stored
	return nil
}

type mockRideRepo struct {
	mu     sync.Mutex
	rides  map[string]*model.Ride
	shares *mockShareRepo // ListJoined needs the share table
	nextID int
}

func newMockRideRepo(shares *mockShareRepo) *mockRideRepo {
	return &mockRideRepo{rides: make(map[string]*model.Ride), shares: shares}
}

func (m *mockRideRepo) Create(_ context.Context, ride *model.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ride.ID = fmt.Sprintf("ride-%d", m.nextID)
	stored := *ride
	m.rides[ride.ID] = &stored
	return nil
}

func (m *mockRideRepo) GetByID(_ context.Context, id string) (*model.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, apperror.NotFound("ride", id)
	}
	result := *ride
	return &result, nil
}

func (m *mockRideRepo) Update(_ context.Context, ride *model.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[ride.ID]; !ok {
		return apperror.NotFound("ride", ride.ID)
	}
	stored := *ride
	m.rides[ride.ID] = &stored
	return nil
}

func (m *mockRideRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rides[id]; !ok {
		return apperror.NotFound("ride", id)
	}
	delete(m.rides, id)
	return nil
}

func (m *mockRideRepo) ListByRider(_ context.Context, riderID string) ([]model.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Ride
	for _, r := range m.rides {
		if r.RiderID == riderID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRideRepo) ListByDriver(_ context.Context, driverID string) ([]model.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Ride
	for _, r := range m.rides {
		if r.DriverID == driverID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRideRepo) ListJoined(ctx context.Context, sharerID string) ([]model.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Ride
	for _, r := range m.rides {
		if m.shares.hasShare(r.ID, sharerID) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRideRepo) FindSharable(_ context.Context, filter repository.RideFilter) ([]model.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Ride
	for _, r := range m.rides {
		if !r.Sharable || r.Status != model.StatusOpen || r.Assignment != model.AssignAccepted {
			continue
		}
		if r.RiderID == filter.ExcludeRiderID {
			continue
		}
		if !strings.EqualFold(r.Destination, filter.Destination) {
			continue
		}
		if r.ArrivalTime.Before(filter.EarliestArrival) || r.ArrivalTime.After(filter.LatestArrival) {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

type mockShareRepo struct {
	mu     sync.Mutex
	shares map[string]*model.Share
	nextID int
}

func newMockShareRepo() *mockShareRepo {
	return &mockShareRepo{shares: make(map[string]*model.Share)}
}

func (m *mockShareRepo) hasShare(rideID, sharerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shares {
		if s.RideID == rideID && s.SharerID == sharerID {
			return true
		}
	}
	return false
}

func (m *mockShareRepo) Create(_ context.Context, share *model.Share) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shares {
		if s.RideID == share.RideID && s.SharerID == share.SharerID {
			return apperror.ConcurrencyConflict("could not join due to a concurrent request, try again")
		}
	}
	m.nextID++
	share.ID = fmt.Sprintf("share-%d", m.nextID)
	share.JoinedAt = time.Now()
	stored := *share
	m.shares[share.ID] = &stored
	return nil
}

func (m *mockShareRepo) GetForSharer(_ context.Context, rideID, sharerID string) (*model.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shares {
		if s.RideID == rideID && s.SharerID == sharerID {
			result := *s
			return &result, nil
		}
	}
	return nil, apperror.NotFound("share", rideID+"/"+sharerID)
}

func (m *mockShareRepo) UpdateSeats(_ context.Context, id string, seats int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	share, ok := m.shares[id]
	if !ok {
		return apperror.NotFound("share", id)
	}
	share.Seats = seats
	return nil
}

func (m *mockShareRepo) DeleteForSharer(_ context.Context, rideID, sharerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.shares {
		if s.RideID == rideID && s.SharerID == sharerID {
			delete(m.shares, id)
			return nil
		}
	}
	return nil // idempotent
}

func (m *mockShareRepo) SumSeats(_ context.Context, rideID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, s := range m.shares {
		if s.RideID == rideID {
			total += s.Seats
		}
	}
	return total, nil
}

func (m *mockShareRepo) ListByRide(_ context.Context, rideID string) ([]model.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Share
	for _, s := range m.shares {
		if s.RideID == rideID {
			result = append(result, *s)
		}
	}
	return result, nil
}

type mockRatingRepo struct {
	mu      sync.Mutex
	ratings map[string]*model.Rating // keyed by ride ID
	nextID  int
}

func newMockRatingRepo() *mockRatingRepo {
	return &mockRatingRepo{ratings: make(map[string]*model.Rating)}
}

func (m *mockRatingRepo) Create(_ context.Context, rating *model.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ratings[rating.RideID]; ok {
		return apperror.Conflict("rating", rating.RideID)
	}
	m.nextID++
	rating.ID = fmt.Sprintf("rating-%d", m.nextID)
	rating.CreatedAt = time.Now()
	stored := *rating
	m.ratings[rating.RideID] = &stored
	return nil
}

func (m *mockRatingRepo) GetByRide(_ context.Context, rideID string) (*model.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rating, ok := m.ratings[rideID]
	if !ok {
		return nil, apperror.NotFound("rating", rideID)
	}
	result := *rating
	return &result, nil
}

// Interface checks keep the mocks honest.
var (
	_ repository.UserRepository    = (*mockUserRepo)(nil)
	_ repository.ProfileRepository = (*mockProfileRepo)(nil)
	_ repository.RideRepository    = (*mockRideRepo)(nil)
	_ repository.ShareRepository   = (*mockShareRepo)(nil)
	_ repository.RatingRepository  = (*mockRatingRepo)(nil)
)

// testEnv bundles the mocks and services most tests need.
type testEnv struct {
	users    *mockUserRepo
	profiles *mockProfileRepo
	rides    *mockRideRepo
	shares   *mockShareRepo
	ratings  *mockRatingRepo

	rideSvc        *RideService
	reservationSvc *ReservationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	profiles := newMockProfileRepo()
	users := newMockUserRepo(profiles)
	shares := newMockShareRepo()
	rides := newMockRideRepo(shares)
	ratings := newMockRatingRepo()
	locks := NewRideLocks()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	return &testEnv{
		users:          users,
		profiles:       profiles,
		rides:          rides,
		shares:         shares,
		ratings:        ratings,
		rideSvc:        NewRideService(rides, shares, profiles, users, locks, logger),
		reservationSvc: NewReservationService(rides, shares, profiles, locks, logger),
	}
}

// addUser seeds a user plus profile and returns the user ID.
func (e *testEnv) addUser(t *testing.T, username string, role model.Role, capacity int) string {
	t.Helper()
	user := &model.User{Username: username, PasswordHash: "x"}
	profile := &model.Profile{Role: role, Capacity: capacity}
	if role == model.RoleDriver {
		profile.Vehicle = "sedan"
	}
	if err := e.users.CreateWithProfile(context.Background(), user, profile); err != nil {
		t.Fatalf("seeding user %s: %v", username, err)
	}
	return user.ID
}

// addOpenRide seeds an open, sharable ride with an accepted driver — the
// baseline state sharers can join.
func (e *testEnv) addOpenRide(t *testing.T, riderID, driverID string, passengers int) *model.Ride {
	t.Helper()
	now := time.Now()
	ride := &model.Ride{
		RiderID:     riderID,
		Source:      "campus",
		Destination: "airport",
		ArrivalTime: now.Add(24 * time.Hour),
		Passengers:  passengers,
		Sharable:    true,
		Status:      model.StatusOpen,
		Assignment:  model.AssignNone,
	}
	if driverID != "" {
		ride.Assign(driverID, riderID, now, true)
	}
	if err := e.rides.Create(context.Background(), ride); err != nil {
		t.Fatalf("seeding ride: %v", err)
	}
	return ride
}
