package engine

import (
	"fmt"

	"github.com/cuemby/statekeep/pkg/types"
)

// equipGear implements the equipment slot engine: ten
// ordered checks, each a total rejection on failure, followed by an
// atomic commit. No state is touched until every check has passed.
func (p *Processor) equipGear(state *types.GameState, req Request) Response {
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
	gear, ok := player.Gear[req.GearID]
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrGearNotFound,
			fmt.Sprintf("gear %q not found", req.GearID))
	}
	if gear.IsEquipped() {
		return reject(req.TxID, state.StateVersion, ErrGearAlreadyEquipped,
			fmt.Sprintf("gear %q is already equipped", req.GearID))
	}
	gearDef, ok := p.config.GearDefs[gear.GearDefID]
	if !ok {
		return reject(req.TxID, state.StateVersion, ErrInvalidConfigReference,
			fmt.Sprintf("gearDefId %q is not defined in the active config", gear.GearDefID))
	}

	if code, msg := checkRestrictions(gearDef.Restrictions, character, gear); code != "" {
		return reject(req.TxID, state.StateVersion, code, msg)
	}

	pattern, code, msg := resolvePattern(req.SlotPattern, gearDef)
	if code != "" {
		return reject(req.TxID, state.StateVersion, code, msg)
	}

	for _, slot := range pattern {
		found := false
		for _, s := range p.config.Slots {
			if s == slot {
				found = true
				break
			}
		}
		if !found {
			return reject(req.TxID, state.StateVersion, ErrInvalidSlot,
				fmt.Sprintf("slot %q is not defined in the active config", slot))
		}
	}

	if !patternMatchesExactly(pattern, gearDef.EquipPatterns) {
		return reject(req.TxID, state.StateVersion, ErrSlotIncompatible,
			fmt.Sprintf("pattern %v does not match any equipPattern of gearDefId %q", pattern, gear.GearDefID))
	}

	displaced, code, msg := resolveConflicts(player, character, pattern, req.Swap)
	if code != "" {
		return reject(req.TxID, state.StateVersion, code, msg)
	}

	// Commit: clear every displaced gear's slots first (swap mode), then
	// occupy the new pattern. Nothing above this line has mutated state.
	for _, g := range displaced {
		for slot, occupant := range character.Equipped {
			if occupant == g.ID {
				delete(character.Equipped, slot)
			}
		}
		g.EquippedBy = ""
	}
	for _, slot := range pattern {
		character.Equipped[slot] = gear.ID
	}
	gear.EquippedBy = character.ID

	state.StateVersion++
	return accept(req.TxID, state.StateVersion)
}

// checkRestrictions evaluates a GearDef's optional restriction block
// against the equipping character and gear. Returns ("", "") when every
// configured restriction passes (or none are configured).
func checkRestrictions(r *types.Restrictions, character *types.Character, gear *types.Gear) (ErrorCode, string) {
	if r == nil {
		return "", ""
	}
	if len(r.AllowedClasses) > 0 && !containsString(r.AllowedClasses, character.ClassID) {
		return ErrRestrictionFailed, fmt.Sprintf("class %q is not in the allowed list", character.ClassID)
	}
	if len(r.BlockedClasses) > 0 && containsString(r.BlockedClasses, character.ClassID) {
		return ErrRestrictionFailed, fmt.Sprintf("class %q is blocked", character.ClassID)
	}
	if r.RequiredCharacterLevel > 0 && character.Level < r.RequiredCharacterLevel {
		return ErrRestrictionFailed, fmt.Sprintf("character level %d is below the required %d", character.Level, r.RequiredCharacterLevel)
	}
	if r.MaxLevelDelta > 0 && gear.Level > character.Level+r.MaxLevelDelta {
		return ErrRestrictionFailed, fmt.Sprintf("gear level %d exceeds character level %d + maxLevelDelta %d", gear.Level, character.Level, r.MaxLevelDelta)
	}
	return "", ""
}

// resolvePattern picks the slot pattern to occupy: the caller-supplied
// one if present, else the gearDef's sole pattern if it has exactly
// one. Zero or multiple candidate patterns with none supplied is
// SLOT_INCOMPATIBLE — the request is ambiguous.
func resolvePattern(supplied []string, gearDef types.GearDef) ([]string, ErrorCode, string) {
	if len(supplied) > 0 {
		return supplied, "", ""
	}
	if len(gearDef.EquipPatterns) == 1 {
		return gearDef.EquipPatterns[0], "", ""
	}
	return nil, ErrSlotIncompatible, "no slotPattern supplied and gearDef does not have exactly one equipPattern"
}

// patternMatchesExactly reports whether pattern equals one of
// candidates element-wise, in order — order-sensitive, per the
// processor's redesign decision (see DESIGN.md); the migrator's
// multiset comparison is a deliberately different, order-insensitive
// check over already-persisted state.
func patternMatchesExactly(pattern []string, candidates [][]string) bool {
	for _, candidate := range candidates {
		if len(candidate) != len(pattern) {
			continue
		}
		match := true
		for i := range pattern {
			if pattern[i] != candidate[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// resolveConflicts applies strict or swap-mode conflict handling over
// the target pattern and returns the set of gear instances that must
// be displaced (swap mode only; always empty in strict mode).
func resolveConflicts(player *types.Player, character *types.Character, pattern []string, swap bool) ([]*types.Gear, ErrorCode, string) {
	if !swap {
		for _, slot := range pattern {
			if occupant, ok := character.Equipped[slot]; ok && occupant != "" {
				return nil, ErrSlotOccupied, fmt.Sprintf("slot %q is already occupied by gear %q", slot, occupant)
			}
		}
		return nil, "", ""
	}

	seen := map[string]bool{}
	var displaced []*types.Gear
	for _, slot := range pattern {
		occupant, ok := character.Equipped[slot]
		if !ok || occupant == "" || seen[occupant] {
			continue
		}
		seen[occupant] = true
		if g, ok := player.Gear[occupant]; ok {
			displaced = append(displaced, g)
		}
	}
	return displaced, "", ""
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
