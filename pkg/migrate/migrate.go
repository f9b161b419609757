// Package migrate implements the post-restore reconciliation a
// GameState undergoes against the active GameConfig. Run
// is a pure function — (state, config) in, (newState, report) out —
// deterministic and free of I/O so it can be exercised in isolation
// from the snapshot store that calls it.
package migrate

import "github.com/cuemby/statekeep/pkg/types"

// WarningCode names one kind of reconciliation performed during
// migration.
type WarningCode string

const (
	SlotRemoved          WarningCode = "SLOT_REMOVED"
	GearDefOrphaned      WarningCode = "GEARDEF_ORPHANED"
	EquipPatternMismatch WarningCode = "EQUIPPATTERN_MISMATCH"
	ClassOrphaned        WarningCode = "CLASS_ORPHANED"
)

// Warning is one reconciliation event raised while migrating a state.
type Warning struct {
	Code       WarningCode `json:"code"`
	PlayerID   string      `json:"playerId"`
	EntityID   string      `json:"entityId"` // characterId or gearId, depending on Code
	Detail     string      `json:"detail"`
}

// Report summarizes everything a migration run changed.
type Report struct {
	Warnings []Warning `json:"warnings"`
}

// Modified reports whether any warning was raised.
func (r *Report) Modified() bool { return len(r.Warnings) > 0 }

// Run reconciles a decoded GameState against cfg and returns a new,
// migrated GameState plus a report. state is never mutated; Run
// operates on a deep copy.
func Run(state *types.GameState, cfg *types.GameConfig) (*types.GameState, *Report) {
	out := cloneState(state)
	report := &Report{}

	// 1. Stamp configId.
	out.ConfigID = cfg.ConfigID

	// 2. Normalize missing legacy fields.
	if out.Actors == nil {
		out.Actors = make(map[string]*types.Actor)
	}
	if out.Players == nil {
		out.Players = make(map[string]*types.Player)
	}
	for _, player := range out.Players {
		if player.Characters == nil {
			player.Characters = make(map[string]*types.Character)
		}
		if player.Gear == nil {
			player.Gear = make(map[string]*types.Gear)
		}
		if player.Resources == nil {
			player.Resources = make(map[string]int64)
		}
		for _, character := range player.Characters {
			if character.Equipped == nil {
				character.Equipped = make(map[string]string)
			}
			if character.Resources == nil {
				character.Resources = make(map[string]int64)
			}
		}
	}

	slotSet := toSet(cfg.Slots)

	for playerID, player := range out.Players {
		// 3. Slot removal.
		for charID, character := range player.Characters {
			for slot := range character.Equipped {
				if !slotSet[slot] {
					delete(character.Equipped, slot)
					report.Warnings = append(report.Warnings, Warning{
						Code: SlotRemoved, PlayerID: playerID, EntityID: charID,
						Detail: "slot " + slot + " no longer exists in config",
					})
				}
			}
		}

		// 4. Orphaned gearDef.
		for gearID, gear := range player.Gear {
			if _, ok := cfg.GearDefs[gear.GearDefID]; ok {
				continue
			}
			if gear.EquippedBy != "" {
				if holder, ok := player.Characters[gear.EquippedBy]; ok {
					clearSlotsReferencing(holder, gearID)
				}
				gear.EquippedBy = ""
			}
			report.Warnings = append(report.Warnings, Warning{
				Code: GearDefOrphaned, PlayerID: playerID, EntityID: gearID,
				Detail: "gearDefId " + gear.GearDefID + " no longer exists in config",
			})
		}

		// 5. Pattern mismatch: for gear with a known gearDef, the
		// occupied slots on its holding character must match one of
		// the gearDef's equipPatterns as a multiset.
		for charID, character := range player.Characters {
			occupiedByGear := map[string][]string{}
			for slot, gearID := range character.Equipped {
				occupiedByGear[gearID] = append(occupiedByGear[gearID], slot)
			}
			for gearID, slots := range occupiedByGear {
				gear, ok := player.Gear[gearID]
				if !ok {
					continue
				}
				gearDef, ok := cfg.GearDefs[gear.GearDefID]
				if !ok {
					continue // already reported as GEARDEF_ORPHANED above
				}
				if patternsContainMultiset(gearDef.EquipPatterns, slots) {
					continue
				}
				for _, slot := range slots {
					delete(character.Equipped, slot)
				}
				gear.EquippedBy = ""
				report.Warnings = append(report.Warnings, Warning{
					Code: EquipPatternMismatch, PlayerID: playerID, EntityID: charID,
					Detail: "gear " + gearID + " no longer matches any equipPattern",
				})
			}
		}

		// 6. Orphaned class: warning only, no mutation.
		for charID, character := range player.Characters {
			if _, ok := cfg.Classes[character.ClassID]; !ok {
				report.Warnings = append(report.Warnings, Warning{
					Code: ClassOrphaned, PlayerID: playerID, EntityID: charID,
					Detail: "classId " + character.ClassID + " no longer exists in config",
				})
			}
		}

		// 7. Bidirectional invariants.
		for _, character := range player.Characters {
			for slot, gearID := range character.Equipped {
				gear, ok := player.Gear[gearID]
				if !ok || gear.EquippedBy != character.ID {
					delete(character.Equipped, slot)
				}
			}
		}
		for _, gear := range player.Gear {
			if gear.EquippedBy == "" {
				continue
			}
			holder, ok := player.Characters[gear.EquippedBy]
			if !ok || !characterReferencesGear(holder, gear.ID) {
				gear.EquippedBy = ""
			}
		}
	}

	// 8. Bump stateVersion iff any warning fired.
	if report.Modified() {
		out.StateVersion++
	}

	return out, report
}

func clearSlotsReferencing(character *types.Character, gearID string) {
	for slot, occupant := range character.Equipped {
		if occupant == gearID {
			delete(character.Equipped, slot)
		}
	}
}

func characterReferencesGear(character *types.Character, gearID string) bool {
	for _, occupant := range character.Equipped {
		if occupant == gearID {
			return true
		}
	}
	return false
}

// patternsContainMultiset reports whether slots, treated as a
// multiset, exactly matches at least one of patterns (also treated as
// a multiset). Order is deliberately ignored here — unlike the live
// EquipGear path, which is order-sensitive — because slot ordering
// within a gearDef's equipPatterns is not guaranteed stable across a
// config swap.
func patternsContainMultiset(patterns [][]string, slots []string) bool {
	for _, pattern := range patterns {
		if multisetEqual(pattern, slots) {
			return true
		}
	}
	return false
}

func multisetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[string]int{}
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// cloneState performs the deep copy Run operates on so state itself is
// never mutated.
func cloneState(state *types.GameState) *types.GameState {
	out := types.NewGameState(state.InstanceID, state.ConfigID, state.Cache.Bound())
	out.StateVersion = state.StateVersion
	out.Cache.Restore(state.Cache.Entries(), state.Cache.Bound())

	for id, actor := range state.Actors {
		clone := *actor
		clone.PlayerIDs = append([]string(nil), actor.PlayerIDs...)
		out.Actors[id] = &clone
	}

	for id, player := range state.Players {
		clonedPlayer := &types.Player{
			ID:         player.ID,
			Characters: make(map[string]*types.Character, len(player.Characters)),
			Gear:       make(map[string]*types.Gear, len(player.Gear)),
			Resources:  cloneInt64Map(player.Resources),
		}
		for cid, character := range player.Characters {
			clonedPlayer.Characters[cid] = &types.Character{
				ID:        character.ID,
				ClassID:   character.ClassID,
				Level:     character.Level,
				Equipped:  cloneStringMap(character.Equipped),
				Resources: cloneInt64Map(character.Resources),
			}
		}
		for gid, gear := range player.Gear {
			clonedGear := *gear
			clonedPlayer.Gear[gid] = &clonedGear
		}
		out.Players[id] = clonedPlayer
	}

	out.Cache.Restore(state.Cache.Entries(), state.Cache.Bound())
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneInt64Map(m map[string]int64) map[string]int64 {
	if m == nil {
		return nil
	}
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
