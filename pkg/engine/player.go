package engine

import (
	"fmt"

	"github.com/cuemby/statekeep/pkg/types"
)

// createPlayer creates an empty Player and links it to actor's owned
// list. Only authentication is required — the caller's ownership check
// is skipped for this TxType since the player doesn't exist yet.
func (p *Processor) createPlayer(state *types.GameState, actor *types.Actor, req Request) Response {
	if _, exists := state.Players[req.PlayerID]; exists {
		return reject(req.TxID, state.StateVersion, ErrAlreadyExists,
			fmt.Sprintf("player %q already exists", req.PlayerID))
	}

	state.Players[req.PlayerID] = types.NewPlayer(req.PlayerID)
	actor.PlayerIDs = append(actor.PlayerIDs, req.PlayerID)
	state.StateVersion++
	return accept(req.TxID, state.StateVersion)
}

// createCharacter inserts a level-1 Character with empty equipment and
// wallet, provided classId resolves in the active config.
func (p *Processor) createCharacter(state *types.GameState, req Request) Response {
	player, ok := state.Players[req.PlayerID]
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrPlayerNotFound,
			fmt.Sprintf("player %q not found", req.PlayerID))
	}
	if _, ok := p.config.Classes[req.ClassID]; !ok {
		return reject(req.TxID, state.StateVersion, ErrInvalidConfigReference,
			fmt.Sprintf("classId %q is not defined in the active config", req.ClassID))
	}
	if _, exists := player.Characters[req.CharacterID]; exists {
		return reject(req.TxID, state.StateVersion, ErrAlreadyExists,
			fmt.Sprintf("character %q already exists", req.CharacterID))
	}

	player.Characters[req.CharacterID] = types.NewCharacter(req.CharacterID, req.ClassID)
	state.StateVersion++
	return accept(req.TxID, state.StateVersion)
}

// createGear inserts a level-1 Gear instance, unequipped, provided
// gearDefId resolves in the active config.
func (p *Processor) createGear(state *types.GameState, req Request) Response {
	player, ok := state.Players[req.PlayerID]
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrPlayerNotFound,
			fmt.Sprintf("player %q not found", req.PlayerID))
	}
	if _, ok := p.config.GearDefs[req.GearDefID]; !ok {
		return reject(req.TxID, state.StateVersion, ErrInvalidConfigReference,
			fmt.Sprintf("gearDefId %q is not defined in the active config", req.GearDefID))
	}
	if _, exists := player.Gear[req.GearID]; exists {
		return reject(req.TxID, state.StateVersion, ErrAlreadyExists,
			fmt.Sprintf("gear %q already exists", req.GearID))
	}

	player.Gear[req.GearID] = &types.Gear{ID: req.GearID, GearDefID: req.GearDefID, Level: 1}
	state.StateVersion++
	return accept(req.TxID, state.StateVersion)
}
