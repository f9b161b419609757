package engine

import (
	"fmt"

	"github.com/cuemby/statekeep/pkg/types"
)

// createActor inserts a new Actor. Requires adminApiKey (checked by the
// caller); rejects a duplicate actorId or a reused apiKey.
func (p *Processor) createActor(state *types.GameState, req Request) Response {
	if _, exists := state.Actors[req.ActorID]; exists {
		return reject(req.TxID, state.StateVersion, ErrAlreadyExists,
			fmt.Sprintf("actor %q already exists", req.ActorID))
	}
	if state.FindActorByAPIKey(req.APIKey) != nil {
		return reject(req.TxID, state.StateVersion, ErrDuplicateAPIKey, "apiKey already in use by another actor")
	}

	state.Actors[req.ActorID] = &types.Actor{
		ID:        req.ActorID,
		APIKey:    req.APIKey,
		PlayerIDs: []string{},
	}
	state.StateVersion++
	return accept(req.TxID, state.StateVersion)
}

// grantResources merges req.Resources into the player's wallet,
// key-wise, addition in place (negative deltas drain the wallet).
func (p *Processor) grantResources(state *types.GameState, req Request) Response {
	player, ok := state.Players[req.PlayerID]
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrPlayerNotFound,
			fmt.Sprintf("player %q not found", req.PlayerID))
	}

	for key, delta := range req.Resources {
		player.Resources[key] += delta
	}
	state.StateVersion++
	return accept(req.TxID, state.StateVersion)
}

// grantCharacterResources is grantResources against a character's
// wallet instead of its player's.
func (p *Processor) grantCharacterResources(state *types.GameState, req Request) Response {
	player, ok := state.Players[req.PlayerID]
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrPlayerNotFound,
			fmt.Sprintf("player %q not found", req.PlayerID))
	}
	character, ok := player.Characters[req.CharacterID]
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrCharacterNotFound,
			fmt.Sprintf("character %q not found", req.CharacterID))
	}

	for key, delta := range req.Resources {
		character.Resources[key] += delta
	}
	state.StateVersion++
	return accept(req.TxID, state.StateVersion)
}
