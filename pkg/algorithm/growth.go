package algorithm

import "math"

// flatGrowth is the identity growth algorithm: the grown value equals
// the base value at every level.
type flatGrowth struct{}

func (flatGrowth) ID() string { return "flat" }

func (flatGrowth) Describe() Description {
	return Description{Summary: "identity: returns base unchanged regardless of level"}
}

func (flatGrowth) Apply(base float64, level int, stat string, params map[string]interface{}) (float64, error) {
	return base, nil
}

// linearGrowth applies a per-level multiplier and an optional flat
// additive-per-level term, per stat.
type linearGrowth struct{}

func (linearGrowth) ID() string { return "linear" }

func (linearGrowth) Describe() Description {
	return Description{
		Summary: "base scaled by a per-level multiplier plus an optional flat per-stat additive term",
		Parameters: map[string]string{
			"perLevelMultiplier": "real, default 0 (identity growth)",
			"additivePerLevel":   "optional stat name -> flat amount added per level above 1",
		},
	}
}

func (linearGrowth) Apply(base float64, level int, stat string, params map[string]interface{}) (float64, error) {
	mult, err := floatParam(params, "perLevelMultiplier", 0)
	if err != nil {
		return 0, err
	}
	additivePerLevel, err := floatMapParam(params, "additivePerLevel")
	if err != nil {
		return 0, err
	}
	additive := additivePerLevel[stat]

	levels := float64(level - 1)
	return math.Floor(base*(1+mult*levels) + additive*levels), nil
}

// exponentialGrowth multiplies base by exponent once per level above 1,
// i.e. floor(base * exponent^(level-1)).
type exponentialGrowth struct{}

func (exponentialGrowth) ID() string { return "exponential" }

func (exponentialGrowth) Describe() Description {
	return Description{
		Summary:    "base multiplied by exponent^(level-1)",
		Parameters: map[string]string{"exponent": "real, >= 1"},
	}
}

func (exponentialGrowth) Apply(base float64, level int, stat string, params map[string]interface{}) (float64, error) {
	exponent, err := floatParam(params, "exponent", 1)
	if err != nil {
		return 0, err
	}
	return math.Floor(base * math.Pow(exponent, float64(level-1))), nil
}
