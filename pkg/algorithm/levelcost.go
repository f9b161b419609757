package algorithm

import (
	"fmt"
	"strings"
)

// flatCost is shared by the "flat" and "free" identifiers: both name
// the same zero-cost algorithm, kept as two aliases because both
// spellings appear in hand-written configs.
type flatCost struct{ id string }

func (c flatCost) ID() string { return c.id }

func (flatCost) Describe() Description {
	return Description{Summary: "no resource cost to level up at any level"}
}

func (flatCost) CostForLevel(targetLevel int, params map[string]interface{}) (map[string]float64, error) {
	return map[string]float64{}, nil
}

// linearCost charges a single resource, growing linearly with the
// target level.
type linearCost struct{}

func (linearCost) ID() string { return "linear_cost" }

func (linearCost) Describe() Description {
	return Description{
		Summary: "a single resource, cost = base + perLevel*(targetLevel-2), empty at targetLevel<=1",
		Parameters: map[string]string{
			"resourceId": "string, optionally \"scope.key\" (scope: player|character); undotted treated as player.<key>",
			"base":       "real",
			"perLevel":   "real",
		},
	}
}

func (linearCost) CostForLevel(targetLevel int, params map[string]interface{}) (map[string]float64, error) {
	if targetLevel <= 1 {
		return map[string]float64{}, nil
	}
	resourceID, err := stringParam(params, "resourceId")
	if err != nil {
		return nil, err
	}
	base, err := floatParam(params, "base", 0)
	if err != nil {
		return nil, err
	}
	perLevel, err := floatParam(params, "perLevel", 0)
	if err != nil {
		return nil, err
	}
	return map[string]float64{
		normalizeResourceID(resourceID): linearAmount(base, perLevel, targetLevel),
	}, nil
}

// mixedLinearCost charges several resources at once, each with its own
// scope, base, and perLevel rate.
type mixedLinearCost struct{}

func (mixedLinearCost) ID() string { return "mixed_linear_cost" }

func (mixedLinearCost) Describe() Description {
	return Description{
		Summary: "multiple resources, each cost = base + perLevel*(targetLevel-2), empty at targetLevel<=1",
		Parameters: map[string]string{
			"costs": "list of {scope, resourceId, base, perLevel}; output keys are \"scope.resourceId\"",
		},
	}
}

func (mixedLinearCost) CostForLevel(targetLevel int, params map[string]interface{}) (map[string]float64, error) {
	out := map[string]float64{}
	if targetLevel <= 1 {
		return out, nil
	}
	rawCosts, err := listParam(params, "costs")
	if err != nil {
		return nil, err
	}
	for i, rawEntry := range rawCosts {
		entry, ok := rawEntry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("algorithm parameter \"costs\"[%d]: expected a map, got %T", i, rawEntry)
		}
		scope, err := stringParam(entry, "scope")
		if err != nil {
			return nil, err
		}
		resourceID, err := stringParam(entry, "resourceId")
		if err != nil {
			return nil, err
		}
		base, err := floatParam(entry, "base", 0)
		if err != nil {
			return nil, err
		}
		perLevel, err := floatParam(entry, "perLevel", 0)
		if err != nil {
			return nil, err
		}
		out[scope+"."+resourceID] = linearAmount(base, perLevel, targetLevel)
	}
	return out, nil
}

func linearAmount(base, perLevel float64, targetLevel int) float64 {
	return base + perLevel*float64(targetLevel-2)
}

// normalizeResourceID prefixes an undotted resourceId with the default
// "player" scope; a dotted id is returned unchanged.
func normalizeResourceID(resourceID string) string {
	if strings.Contains(resourceID, ".") {
		return resourceID
	}
	return "player." + resourceID
}
