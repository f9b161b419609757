// Package config validates a decoded GameConfig against the Algorithm
// Registry and its own internal reference closure: every
// stat, slot, class, gearDef, and set referenced anywhere in the config
// must resolve within that same config.
package config

import (
	"fmt"

	"github.com/cuemby/statekeep/pkg/algorithm"
	"github.com/cuemby/statekeep/pkg/types"
)

// Error is an invalid-config error naming the offending identifier and,
// for algorithm references, the accepted identifiers.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func invalidf(format string, args ...interface{}) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks cfg's internal reference closure against registry and
// returns the first violation found as an *Error. A nil return means
// cfg is safe to load.
func Validate(cfg *types.GameConfig, registry *algorithm.Registry) error {
	statSet := toSet(cfg.Stats)
	slotSet := toSet(cfg.Slots)

	for className, class := range cfg.Classes {
		for stat := range class.BaseStats {
			if !statSet[stat] {
				return invalidf("class %q: baseStats key %q is not in the config's stats list", className, stat)
			}
		}
	}

	for gearDefID, gearDef := range cfg.GearDefs {
		for stat := range gearDef.BaseStats {
			if !statSet[stat] {
				return invalidf("gearDef %q: baseStats key %q is not in the config's stats list", gearDefID, stat)
			}
		}
		for i, pattern := range gearDef.EquipPatterns {
			for _, slot := range pattern {
				if !slotSet[slot] {
					return invalidf("gearDef %q: equipPatterns[%d] references unknown slot %q", gearDefID, i, slot)
				}
			}
		}
		if gearDef.SetID != "" {
			if _, ok := cfg.Sets[gearDef.SetID]; !ok {
				return invalidf("gearDef %q: setId %q does not match any defined set", gearDefID, gearDef.SetID)
			}
		}
		if gearDef.Restrictions != nil {
			for _, className := range gearDef.Restrictions.AllowedClasses {
				if _, ok := cfg.Classes[className]; !ok {
					return invalidf("gearDef %q: restrictions.allowedClasses references unknown class %q", gearDefID, className)
				}
			}
			for _, className := range gearDef.Restrictions.BlockedClasses {
				if _, ok := cfg.Classes[className]; !ok {
					return invalidf("gearDef %q: restrictions.blockedClasses references unknown class %q", gearDefID, className)
				}
			}
		}
	}

	for setID, set := range cfg.Sets {
		for i, bonus := range set.Bonuses {
			for stat := range bonus.BonusStats {
				if !statSet[stat] {
					return invalidf("set %q: bonuses[%d] bonusStats key %q is not in the config's stats list", setID, i, stat)
				}
			}
		}
	}

	for stat := range cfg.Clamps {
		if !statSet[stat] {
			return invalidf("clamps: %q is not in the config's stats list", stat)
		}
	}

	if err := validateAlgorithmRef(registry, "growth", cfg.Algorithms.Growth, registry.GrowthIDs); err != nil {
		return err
	}
	if err := validateLevelCostRef(registry, "levelCostCharacter", cfg.Algorithms.LevelCostCharacter); err != nil {
		return err
	}
	if err := validateLevelCostRef(registry, "levelCostGear", cfg.Algorithms.LevelCostGear); err != nil {
		return err
	}

	return nil
}

func validateAlgorithmRef(registry *algorithm.Registry, field string, ref types.AlgorithmRef, knownIDs func() []string) error {
	if _, ok := registry.Growth(ref.AlgorithmID); !ok {
		return invalidf("algorithms.%s: unknown algorithmId %q, accepted: %v", field, ref.AlgorithmID, knownIDs())
	}
	return nil
}

func validateLevelCostRef(registry *algorithm.Registry, field string, ref types.AlgorithmRef) error {
	if _, ok := registry.LevelCost(ref.AlgorithmID); !ok {
		return invalidf("algorithms.%s: unknown algorithmId %q, accepted: %v", field, ref.AlgorithmID, registry.LevelCostIDs())
	}
	return nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
