package engine

import (
	"fmt"

	"github.com/cuemby/statekeep/pkg/types"
)

// unequipGear implements the reverse of equipGear: locate
// the gear's holder, optionally confirm the caller's characterId
// matches it, then clear every slot referencing the gear on that
// character.
func (p *Processor) unequipGear(state *types.GameState, req Request) Response {
	player, ok := state.Players[req.PlayerID]
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrPlayerNotFound,
			fmt.Sprintf("player %q not found", req.PlayerID))
	}

	gear, ok := player.Gear[req.GearID]
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrGearNotFound,
			fmt.Sprintf("gear %q not found", req.GearID))
	}
	if !gear.IsEquipped() {
		return reject(req.TxID, state.StateVersion, ErrGearNotEquipped,
			fmt.Sprintf("gear %q is not equipped", req.GearID))
	}
	if req.CharacterID != "" && req.CharacterID != gear.EquippedBy {
		return reject(req.TxID, state.StateVersion, ErrCharacterMismatch,
			fmt.Sprintf("gear %q is equipped by character %q, not %q", req.GearID, gear.EquippedBy, req.CharacterID))
	}

	holder, ok := player.Characters[gear.EquippedBy]
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrCharacterNotFound,
			fmt.Sprintf("character %q not found", gear.EquippedBy))
	}

	for slot, occupant := range holder.Equipped {
		if occupant == gear.ID {
			delete(holder.Equipped, slot)
		}
	}
	gear.EquippedBy = ""

	state.StateVersion++
	return accept(req.TxID, state.StateVersion)
}
