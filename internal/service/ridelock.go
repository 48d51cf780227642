package service

import "sync"

// RideLocks serializes seat-accounting mutations per ride. SQLite has no
// row-level locking to lean on, so every path that changes a ride's committed
// seats (joining, updating a reservation, accepting an assignment, editing
// the creator's passenger count) takes the ride's lock, re-reads current
// state, and only then decides.
//
// Locks are created on demand and removed once the last holder releases,
// so the table stays proportional to rides under contention, not rides
// in the database.
type RideLocks struct {
	mu    sync.Mutex
	locks map[string]*rideLock
}

type rideLock struct {
	mu   sync.Mutex
	refs int
}

func NewRideLocks() *RideLocks {
	return &RideLocks{locks: make(map[string]*rideLock)}
}

// Lock blocks until the caller holds the lock for rideID.
func (l *RideLocks) Lock(rideID string) {
	l.mu.Lock()
	lk, ok := l.locks[rideID]
	if !ok {
		lk = &rideLock{}
		l.locks[rideID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
}

// Unlock releases the lock for rideID. Must pair with a prior Lock.
func (l *RideLocks) Unlock(rideID string) {
	l.mu.Lock()
	lk := l.locks[rideID]
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, rideID)
	}
	l.mu.Unlock()

	lk.mu.Unlock()
}
