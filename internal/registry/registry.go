// Package registry implements the process-wide index of in-flight matches:
// by numeric match ID, by the user currently bound to a match, and by the
// group currently hosting a match, enforcing the exclusion invariant that a
// user or group is bound to at most one match at a time.
package registry

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrAlreadyBound is returned when a user or group is already bound to a
// different match than the one a bind call names.
var ErrAlreadyBound = errors.New("registry: already bound to another match")

// ErrNotFound is returned by BindUser/BindGroup calls naming a match ID the
// registry has no record of.
var ErrNotFound = errors.New("registry: not found")

// Match is the narrow surface the registry needs from a match: its ID, for
// logging, and nothing else — the registry stores match values as the
// opaque type parameter M so it never needs to import the match package.
type Match[M any] struct {
	ID    uint64
	Value M
}

// Registry indexes live matches three ways. The zero value is not usable;
// construct with New.
type Registry[M any] struct {
	mu         sync.Mutex
	log        *zap.Logger
	nextID     uint64
	byID       map[uint64]*Match[M]
	byUser     map[uint64]uint64 // userID -> matchID
	byGroup    map[uint64]uint64 // groupID -> matchID
}

// New constructs an empty registry. log may be nil, in which case a no-op
// logger is used.
func New[M any](log *zap.Logger) *Registry[M] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry[M]{
		log:     log,
		byID:    make(map[uint64]*Match[M]),
		byUser:  make(map[uint64]uint64),
		byGroup: make(map[uint64]uint64),
	}
}

// Create allocates a new monotonically increasing match ID, stores value
// under it, and returns the ID. It does not bind any user or group; callers
// bind the host via BindUser/BindGroup once the match accepts its host.
func (r *Registry[M]) Create(value M) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.byID[id] = &Match[M]{ID: id, Value: value}
	r.log.Debug("match created", zap.Uint64("match_id", id))
	return id
}

// Get returns the match stored under id.
func (r *Registry[M]) Get(id uint64) (M, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		var zero M
		return zero, false
	}
	return m.Value, true
}

// GetByUser returns the match currently bound to userID, if any.
func (r *Registry[M]) GetByUser(userID uint64) (M, uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byUser[userID]
	if !ok {
		var zero M
		return zero, 0, false
	}
	return r.byID[id].Value, id, true
}

// GetByGroup returns the match currently bound to groupID, if any.
func (r *Registry[M]) GetByGroup(groupID uint64) (M, uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byGroup[groupID]
	if !ok {
		var zero M
		return zero, 0, false
	}
	return r.byID[id].Value, id, true
}

// BindUser binds userID to matchID, failing if userID is already bound to
// a different match.
func (r *Registry[M]) BindUser(userID, matchID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byUser[userID]; ok && existing != matchID {
		return ErrAlreadyBound
	}
	if _, ok := r.byID[matchID]; !ok {
		return ErrNotFound
	}
	r.byUser[userID] = matchID
	return nil
}

// UnbindUser releases userID's binding, if any.
func (r *Registry[M]) UnbindUser(userID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byUser, userID)
}

// BindGroup binds groupID to matchID, failing if groupID is already bound
// to a different match.
func (r *Registry[M]) BindGroup(groupID, matchID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byGroup[groupID]; ok && existing != matchID {
		return ErrAlreadyBound
	}
	if _, ok := r.byID[matchID]; !ok {
		return ErrNotFound
	}
	r.byGroup[groupID] = matchID
	return nil
}

// UnbindGroup releases groupID's binding, if any.
func (r *Registry[M]) UnbindGroup(groupID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byGroup, groupID)
}

// Remove deletes matchID from the registry entirely, along with any user
// or group bindings still pointing at it. Call this once a match has
// reported itself terminated; the registry never removes a match on its
// own.
func (r *Registry[M]) Remove(matchID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, matchID)
	for u, id := range r.byUser {
		if id == matchID {
			delete(r.byUser, u)
		}
	}
	for g, id := range r.byGroup {
		if id == matchID {
			delete(r.byGroup, g)
		}
	}
	r.log.Debug("match removed", zap.Uint64("match_id", matchID))
}

// Len reports how many matches are currently registered.
func (r *Registry[M]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
