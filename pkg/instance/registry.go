// Package instance owns the live set of GameState objects for one
// process: it restores and migrates every persisted
// instance at startup, ensures the default instance exists, serves as
// the resolution point between a path-level instanceId and a
// Processor call, and coordinates periodic and shutdown snapshot
// flushes.
package instance

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/statekeep/pkg/algorithm"
	"github.com/cuemby/statekeep/pkg/auth"
	"github.com/cuemby/statekeep/pkg/engine"
	"github.com/cuemby/statekeep/pkg/events"
	"github.com/cuemby/statekeep/pkg/idempotency"
	"github.com/cuemby/statekeep/pkg/log"
	"github.com/cuemby/statekeep/pkg/metrics"
	"github.com/cuemby/statekeep/pkg/migrate"
	"github.com/cuemby/statekeep/pkg/snapshot"
	"github.com/cuemby/statekeep/pkg/stats"
	"github.com/cuemby/statekeep/pkg/types"
)

// DefaultInstanceID is created empty at startup if no snapshot exists.
const DefaultInstanceID = "instance_001"

// Config holds the registry's process-wide, read-only-after-startup
// settings. The adminApiKey itself is not held here — it is baked into
// the auth.Authorizer the caller constructs and passes to New.
type Config struct {
	IdempotencyBound int
	SnapshotDir      string
	SnapshotInterval time.Duration
}

// Registry owns every live GameState in the process, the Processor
// that dispatches against them, and the Worker that flushes them to
// disk on a timer.
type Registry struct {
	cfg       Config
	gameCfg   *types.GameConfig
	processor *engine.Processor
	store     *snapshot.Store
	worker    *snapshot.Worker
	broker    *events.Broker

	mu            sync.RWMutex
	instances     map[string]*types.GameState
	lastFlushedAt map[string]uint64
}

// New restores every instance found under cfg.SnapshotDir, migrates
// each against gameCfg, ensures the default instance exists, and
// starts the periodic flush worker. The returned Registry is ready to
// serve Process and the read views.
func New(cfg Config, gameCfg *types.GameConfig, registry *algorithm.Registry, authz *auth.Authorizer, broker *events.Broker) (*Registry, error) {
	store, err := snapshot.NewStore(cfg.SnapshotDir)
	if err != nil {
		return nil, fmt.Errorf("instance: opening snapshot store: %w", err)
	}

	r := &Registry{
		cfg:           cfg,
		gameCfg:       gameCfg,
		processor:     engine.NewProcessor(gameCfg, registry, authz, broker),
		store:         store,
		broker:        broker,
		instances:     make(map[string]*types.GameState),
		lastFlushedAt: make(map[string]uint64),
	}

	r.restore(gameCfg)
	if _, ok := r.instances[DefaultInstanceID]; !ok {
		r.instances[DefaultInstanceID] = types.NewGameState(DefaultInstanceID, gameCfg.ConfigID, cfg.IdempotencyBound)
	}

	r.worker = snapshot.NewWorker(cfg.SnapshotInterval, r)
	r.worker.Start()

	return r, nil
}

// restore loads every snapshot file under the store's directory and
// migrates each against gameCfg. A directory-level failure (the
// snapshot directory itself cannot be listed) is logged and treated as
// "nothing to restore" rather than aborting startup — the same
// skip-and-continue discipline FlushDirty and Shutdown use per
// instance applies here at the directory level: one bad disk should
// never keep the process from starting with the default instance.
func (r *Registry) restore(gameCfg *types.GameConfig) {
	envelopes, err := r.store.LoadAll()
	if err != nil {
		log.WithComponent("instance").Error().Err(err).
			Msg("failed to list snapshot directory; starting with no restored instances")
		return
	}

	for _, env := range envelopes {
		state := types.FromSnapshotEnvelope(env, r.cfg.IdempotencyBound)
		migrated, report := migrate.Run(state, gameCfg)
		if report.Modified() {
			for _, w := range report.Warnings {
				metrics.MigrationWarningsTotal.WithLabelValues(string(w.Code)).Inc()
			}
			log.WithComponent("instance").Info().
				Str("instanceId", migrated.InstanceID).
				Int("warnings", len(report.Warnings)).
				Msg("migrated restored instance")
			r.publish(events.EventInstanceMigrated, migrated.InstanceID,
				fmt.Sprintf("%d migration warnings applied", len(report.Warnings)))
		}
		metrics.MigrationsRunTotal.Inc()
		r.instances[migrated.InstanceID] = migrated
	}
}

func (r *Registry) publish(evtType events.EventType, instanceID, message string) {
	if r.broker == nil {
		return
	}
	r.broker.Publish(&events.Event{Type: evtType, InstanceID: instanceID, Message: message})
}

// Get resolves a path-level instanceId to its GameState.
func (r *Registry) Get(instanceID string) (*types.GameState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.instances[instanceID]
	return state, ok
}

// Process resolves instanceID and dispatches req against it, or
// returns the uncached instance-not-found outcome if it has no
// registered GameState.
func (r *Registry) Process(instanceID, bearerToken string, req engine.Request) engine.Outcome {
	state, ok := r.Get(instanceID)
	if !ok {
		return engine.InstanceNotFound(instanceID)
	}
	return r.processor.Process(state, bearerToken, req)
}

// Config returns the active GameConfig (spec's "GET config" view).
func (r *Registry) Config() *types.GameConfig {
	return r.processor.Config()
}

// Algorithms returns the registered algorithm catalog.
func (r *Registry) Algorithms() algorithm.Catalog {
	return r.processor.Algorithms()
}

// ErrInstanceNotFound is returned by the read views below when
// instanceID has no registered GameState.
type ErrInstanceNotFound struct{ InstanceID string }

func (e *ErrInstanceNotFound) Error() string {
	return fmt.Sprintf("no instance %q is registered", e.InstanceID)
}

// StateVersion returns the stateVersion view for instanceID.
func (r *Registry) StateVersion(instanceID string) (engine.StateVersionView, error) {
	state, ok := r.Get(instanceID)
	if !ok {
		return engine.StateVersionView{}, &ErrInstanceNotFound{InstanceID: instanceID}
	}
	return r.processor.StateVersion(state), nil
}

// PlayerState returns the player projection for instanceID/playerID,
// scoped to the actor bearerToken resolves to.
func (r *Registry) PlayerState(instanceID, bearerToken, playerID string) (*engine.PlayerView, error) {
	state, ok := r.Get(instanceID)
	if !ok {
		return nil, &ErrInstanceNotFound{InstanceID: instanceID}
	}
	actor := r.processor.ResolveActor(state, bearerToken)
	return r.processor.PlayerState(state, actor, playerID)
}

// CharacterStats returns the computed stat projection for characterID,
// scoped to the actor bearerToken resolves to.
func (r *Registry) CharacterStats(instanceID, bearerToken, characterID string) (*stats.Result, error) {
	state, ok := r.Get(instanceID)
	if !ok {
		return nil, &ErrInstanceNotFound{InstanceID: instanceID}
	}
	actor := r.processor.ResolveActor(state, bearerToken)
	return r.processor.CharacterStats(state, actor, characterID)
}

// FlushDirty implements snapshot.Flusher: it flushes every instance
// whose stateVersion has changed since its last flush.
func (r *Registry) FlushDirty() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for id, state := range r.instances {
		state.RLock()
		version := state.StateVersion
		if version == r.lastFlushedAt[id] {
			state.RUnlock()
			continue
		}
		err := r.store.Flush(state, r.cfg.IdempotencyBound)
		state.RUnlock()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		r.lastFlushedAt[id] = version
		r.publish(events.EventInstanceSnapshotted, id, "periodic flush")
	}
	return firstErr
}

// ListInstanceSnapshots implements metrics.Lister.
func (r *Registry) ListInstanceSnapshots() []metrics.InstanceSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]metrics.InstanceSnapshot, 0, len(r.instances))
	for _, state := range r.instances {
		state.RLock()
		out = append(out, metrics.InstanceSnapshot{
			InstanceID:     state.InstanceID,
			StateVersion:   state.StateVersion,
			CacheOccupancy: cacheLen(state.Cache),
		})
		state.RUnlock()
	}
	return out
}

func cacheLen(c *idempotency.Cache) int {
	if c == nil {
		return 0
	}
	return c.Len()
}

// Shutdown stops the flush worker and flushes every instance,
// dirty or not, so the on-disk state is always current when the
// process exits.
func (r *Registry) Shutdown() error {
	r.worker.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for id, state := range r.instances {
		state.RLock()
		version := state.StateVersion
		err := r.store.Flush(state, r.cfg.IdempotencyBound)
		state.RUnlock()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		r.lastFlushedAt[id] = version
		r.publish(events.EventInstanceSnapshotted, id, "shutdown flush")
	}
	return firstErr
}
