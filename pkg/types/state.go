package types

import (
	"sync"

	"github.com/cuemby/statekeep/pkg/idempotency"
)

// GameState is the authoritative, mutable state of one game instance: its
// actors, players (with their characters and gear), the stateVersion
// counter, and the idempotency cache. Exactly one goroutine — the
// transaction processor serving this instance — may mutate a GameState
// at a time; the mutex here guards the boundary between that mutator
// and readers (snapshot encoder, read-view handlers) rather than
// arbitrating between multiple writers.
type GameState struct {
	mu sync.RWMutex

	InstanceID   string `json:"instanceId"`
	ConfigID     string `json:"configId"`
	StateVersion uint64 `json:"stateVersion"`

	Actors  map[string]*Actor  `json:"actors"`
	Players map[string]*Player `json:"players"`

	Cache *idempotency.Cache `json:"-"`
}

// NewGameState returns an empty GameState bound to a config and an
// idempotency cache of the given bound.
func NewGameState(instanceID, configID string, cacheBound int) *GameState {
	return &GameState{
		InstanceID:   instanceID,
		ConfigID:     configID,
		StateVersion: 0,
		Actors:       make(map[string]*Actor),
		Players:      make(map[string]*Player),
		Cache:        idempotency.NewCache(cacheBound),
	}
}

// Lock acquires the exclusive mutator lock. Callers must Unlock.
func (s *GameState) Lock() { s.mu.Lock() }

// Unlock releases the exclusive mutator lock.
func (s *GameState) Unlock() { s.mu.Unlock() }

// RLock acquires a read lock for views and the snapshot encoder.
func (s *GameState) RLock() { s.mu.RLock() }

// RUnlock releases a read lock.
func (s *GameState) RUnlock() { s.mu.RUnlock() }

// FindActorByAPIKey returns the actor owning apiKey, or nil.
func (s *GameState) FindActorByAPIKey(apiKey string) *Actor {
	for _, a := range s.Actors {
		if a.APIKey == apiKey {
			return a
		}
	}
	return nil
}

// OwnerOfPlayer returns the actor that owns playerID, or nil.
func (s *GameState) OwnerOfPlayer(playerID string) *Actor {
	for _, a := range s.Actors {
		if a.OwnsPlayer(playerID) {
			return a
		}
	}
	return nil
}

// SnapshotEnvelope is the on-disk JSON shape persisted by pkg/snapshot.
// It lives here, next to GameState, because only types that already
// know GameState's shape should know how it serializes.
type SnapshotEnvelope struct {
	InstanceID      string              `json:"instanceId"`
	ConfigID        string              `json:"configId"`
	StateVersion    uint64              `json:"stateVersion"`
	Actors          map[string]*Actor   `json:"actors"`
	Players         map[string]*Player  `json:"players"`
	CacheBound      int                 `json:"cacheBound"`
	CacheEntries    []idempotency.Entry `json:"cacheEntries"`
	SnapshotVersion int                 `json:"snapshotVersion"`
}

// CurrentSnapshotVersion tags the envelope format written by this build.
// No reader branches on SnapshotVersion; envelopes with absent fields
// are tolerated by FromSnapshotEnvelope and pkg/migrate.
const CurrentSnapshotVersion = 1

// ToSnapshotEnvelope captures a consistent point-in-time copy of s for
// persistence. Callers must hold at least a read lock.
func (s *GameState) ToSnapshotEnvelope(cacheBound int) *SnapshotEnvelope {
	return &SnapshotEnvelope{
		InstanceID:      s.InstanceID,
		ConfigID:        s.ConfigID,
		StateVersion:    s.StateVersion,
		Actors:          s.Actors,
		Players:         s.Players,
		CacheBound:      cacheBound,
		CacheEntries:    s.Cache.Entries(),
		SnapshotVersion: CurrentSnapshotVersion,
	}
}

// FromSnapshotEnvelope builds a live GameState from a decoded envelope.
func FromSnapshotEnvelope(env *SnapshotEnvelope, defaultCacheBound int) *GameState {
	actors := env.Actors
	if actors == nil {
		actors = make(map[string]*Actor)
	}
	players := env.Players
	if players == nil {
		players = make(map[string]*Player)
	}
	bound := env.CacheBound
	if bound <= 0 {
		bound = defaultCacheBound
	}
	cache := idempotency.NewCache(bound)
	cache.Restore(env.CacheEntries, bound)

	return &GameState{
		InstanceID:   env.InstanceID,
		ConfigID:     env.ConfigID,
		StateVersion: env.StateVersion,
		Actors:       actors,
		Players:      players,
		Cache:        cache,
	}
}
