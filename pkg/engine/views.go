package engine

import (
	"github.com/cuemby/statekeep/pkg/algorithm"
	"github.com/cuemby/statekeep/pkg/auth"
	"github.com/cuemby/statekeep/pkg/stats"
	"github.com/cuemby/statekeep/pkg/types"
)

// ErrUnauthorizedView is returned by the actor-scoped read views when
// the bearer token resolves to no actor, or to an actor that does not
// own the requested player.
type ErrUnauthorizedView struct{}

func (e *ErrUnauthorizedView) Error() string { return "unauthorized" }

// ResolveActor resolves bearerToken against state's actor table, for
// callers (the API layer) that need the actor before choosing which
// view method to call.
func (p *Processor) ResolveActor(state *types.GameState, bearerToken string) *types.Actor {
	state.RLock()
	defer state.RUnlock()
	return p.authz.Resolve(state, bearerToken)
}

// Config returns the active configuration verbatim.
func (p *Processor) Config() *types.GameConfig {
	return p.config
}

// Algorithms returns the catalog of registered growth and level-cost
// algorithms, for the read-only /algorithms endpoint.
func (p *Processor) Algorithms() algorithm.Catalog {
	return p.registry.Catalog()
}

// StateVersionView is the response body for GET .../stateVersion.
type StateVersionView struct {
	GameInstanceID string `json:"gameInstanceId"`
	StateVersion   uint64 `json:"stateVersion"`
}

// StateVersion snapshots state's version under its mutator lock, so a
// concurrent transaction can never be observed mid-update.
func (p *Processor) StateVersion(state *types.GameState) StateVersionView {
	state.Lock()
	defer state.Unlock()
	return StateVersionView{GameInstanceID: state.InstanceID, StateVersion: state.StateVersion}
}

// CharacterView projects one character's equipment and wallet.
type CharacterView struct {
	ID        string            `json:"id"`
	ClassID   string            `json:"classId"`
	Level     int               `json:"level"`
	Equipped  map[string]string `json:"equipped"`
	Resources map[string]int64  `json:"resources"`
}

// GearView projects one gear instance, surfacing who holds it.
type GearView struct {
	ID         string `json:"id"`
	GearDefID  string `json:"gearDefId"`
	Level      int    `json:"level"`
	EquippedBy string `json:"equippedBy,omitempty"`
}

// PlayerView is the response body for GET .../state/player/:playerId.
type PlayerView struct {
	ID         string                    `json:"id"`
	Characters map[string]*CharacterView `json:"characters"`
	Gear       map[string]*GearView      `json:"gear"`
	Resources  map[string]int64          `json:"resources"`
}

// ErrPlayerNotFoundView is returned by PlayerState when playerID has no
// entry in state.
type ErrPlayerNotFoundView struct{ PlayerID string }

func (e *ErrPlayerNotFoundView) Error() string {
	return "player not found: " + e.PlayerID
}

// PlayerState builds the read-only projection of one player, taking
// state's mutator lock for the duration of the read so it can never
// observe a transaction mid-flight. actor must own playerID.
func (p *Processor) PlayerState(state *types.GameState, actor *types.Actor, playerID string) (*PlayerView, error) {
	state.Lock()
	defer state.Unlock()

	if !auth.ActorOwnsPlayer(actor, playerID) {
		return nil, &ErrUnauthorizedView{}
	}

	player, ok := state.Players[playerID]
	if !ok {
		return nil, &ErrPlayerNotFoundView{PlayerID: playerID}
	}

	view := &PlayerView{
		ID:         player.ID,
		Characters: make(map[string]*CharacterView, len(player.Characters)),
		Gear:       make(map[string]*GearView, len(player.Gear)),
		Resources:  copyWallet(player.Resources),
	}
	for id, c := range player.Characters {
		view.Characters[id] = &CharacterView{
			ID:        c.ID,
			ClassID:   c.ClassID,
			Level:     c.Level,
			Equipped:  copyEquipped(c.Equipped),
			Resources: copyWallet(c.Resources),
		}
	}
	for id, g := range player.Gear {
		view.Gear[id] = &GearView{ID: g.ID, GearDefID: g.GearDefID, Level: g.Level, EquippedBy: g.EquippedBy}
	}
	return view, nil
}

// ErrCharacterNotFoundView is returned by CharacterStats when no player
// owned by actor has characterID.
type ErrCharacterNotFoundView struct{ CharacterID string }

func (e *ErrCharacterNotFoundView) Error() string {
	return "character not found: " + e.CharacterID
}

// CharacterStats delegates to the stats package under state's mutator
// lock. The endpoint carries no playerId, so the owning player is
// resolved by scanning actor's own players for characterID — the
// character-stats view is scoped to the caller's own roster, same as
// every other actor-authorized read view.
func (p *Processor) CharacterStats(state *types.GameState, actor *types.Actor, characterID string) (*stats.Result, error) {
	state.Lock()
	defer state.Unlock()

	if actor == nil {
		return nil, &ErrUnauthorizedView{}
	}
	for _, playerID := range actor.PlayerIDs {
		player, ok := state.Players[playerID]
		if !ok {
			continue
		}
		if _, ok := player.Characters[characterID]; ok {
			return stats.Compute(p.config, p.registry, player, characterID)
		}
	}
	return nil, &ErrCharacterNotFoundView{CharacterID: characterID}
}

func copyWallet(w map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

func copyEquipped(e map[string]string) map[string]string {
	out := make(map[string]string, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
