// Package stats implements the read-path stat computation pipeline:
// class base stats, grown per level, combined with every
// equipped gear's own grown contribution, layered with activated set
// bonuses, then clamped and filtered to the config's stat list.
package stats

import (
	"fmt"

	"github.com/cuemby/statekeep/pkg/algorithm"
	"github.com/cuemby/statekeep/pkg/types"
)

// Result is the computed stat projection for one character.
type Result struct {
	CharacterID string             `json:"characterId"`
	ClassID     string             `json:"classId"`
	Level       int                `json:"level"`
	FinalStats  map[string]float64 `json:"finalStats"`
}

// ErrCharacterNotFound is returned when characterID does not exist on
// player.
type ErrCharacterNotFound struct{ CharacterID string }

func (e *ErrCharacterNotFound) Error() string {
	return fmt.Sprintf("character %q not found", e.CharacterID)
}

// Compute returns the final stats for characterID belonging to player,
// under cfg and registry.
func Compute(cfg *types.GameConfig, registry *algorithm.Registry, player *types.Player, characterID string) (*Result, error) {
	character, ok := player.Characters[characterID]
	if !ok {
		return nil, &ErrCharacterNotFound{CharacterID: characterID}
	}

	growth, ok := registry.Growth(cfg.Algorithms.Growth.AlgorithmID)
	if !ok {
		return nil, fmt.Errorf("stats: config references unknown growth algorithm %q", cfg.Algorithms.Growth.AlgorithmID)
	}

	acc := map[string]float64{}

	// Step 1-2: class base, grown. An orphaned classId contributes zero
	// base stats rather than failing the read.
	if class, ok := cfg.Classes[character.ClassID]; ok {
		if err := addGrown(acc, growth, class.BaseStats, character.Level, cfg.Algorithms.Growth.Parameters); err != nil {
			return nil, err
		}
	}

	// Step 3: each distinct equipped gearId counted once, regardless of
	// how many slots it occupies.
	equippedGearIDs := distinctValues(character.Equipped)
	setPieceCounts := map[string]int{}

	for _, gearID := range equippedGearIDs {
		gear, ok := player.Gear[gearID]
		if !ok {
			continue // orphaned reference; contribution is zero, see migrator (§4.I)
		}
		gearDef, ok := cfg.GearDefs[gear.GearDefID]
		if !ok {
			continue // missing gearDef; contribution is zero
		}
		if err := addGrown(acc, growth, gearDef.BaseStats, gear.Level, cfg.Algorithms.Growth.Parameters); err != nil {
			return nil, err
		}
		if gearDef.SetID != "" {
			count := gearDef.SetPieceCount
			if count <= 0 {
				count = 1
			}
			setPieceCounts[gearDef.SetID] += count
		}
	}

	// Step 4: set bonuses, one contribution per bonus entry whose
	// threshold is met, no stacking within an entry.
	for setID, activatedPieces := range setPieceCounts {
		set, ok := cfg.Sets[setID]
		if !ok {
			continue
		}
		for _, bonus := range set.Bonuses {
			if bonus.Pieces <= activatedPieces {
				for stat, amount := range bonus.BonusStats {
					acc[stat] += amount
				}
			}
		}
	}

	// Step 5: clamps.
	for stat, clamp := range cfg.Clamps {
		v, ok := acc[stat]
		if !ok {
			continue
		}
		if clamp.Min != nil && v < *clamp.Min {
			v = *clamp.Min
		}
		if clamp.Max != nil && v > *clamp.Max {
			v = *clamp.Max
		}
		acc[stat] = v
	}

	// Step 6: filter to config.stats.
	final := make(map[string]float64, len(cfg.Stats))
	for _, stat := range cfg.Stats {
		if v, ok := acc[stat]; ok {
			final[stat] = v
		}
	}

	return &Result{
		CharacterID: character.ID,
		ClassID:     character.ClassID,
		Level:       character.Level,
		FinalStats:  final,
	}, nil
}

func addGrown(acc map[string]float64, growth algorithm.GrowthAlgorithm, base map[string]float64, level int, params map[string]interface{}) error {
	for stat, baseValue := range base {
		grown, err := growth.Apply(baseValue, level, stat, params)
		if err != nil {
			return err
		}
		acc[stat] += grown
	}
	return nil
}

// distinctValues returns the distinct values of a slotId->gearId map.
// Order doesn't matter: every downstream accumulation is commutative.
func distinctValues(equipped map[string]string) []string {
	seen := make(map[string]bool, len(equipped))
	out := make([]string, 0, len(equipped))
	for _, gearID := range equipped {
		if !seen[gearID] {
			seen[gearID] = true
			out = append(out, gearID)
		}
	}
	return out
}
