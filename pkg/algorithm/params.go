package algorithm

import "fmt"

// floatParam reads a numeric parameter out of a decoded config. Config
// files are decoded via yaml.v3 at the cmd layer and re-marshaled
// through JSON for snapshots, so a parameter value may arrive as
// float64, int, or (rarely) int64 depending on the path it traveled;
// this normalizes all of them to float64.
func floatParam(params map[string]interface{}, key string, def float64) (float64, error) {
	if params == nil {
		return def, nil
	}
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	return toFloat64(v, key)
}

func toFloat64(v interface{}, key string) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("algorithm parameter %q: expected a number, got %T", key, v)
	}
}

// floatMapParam reads an optional stat-name -> amount map parameter.
func floatMapParam(params map[string]interface{}, key string) (map[string]float64, error) {
	out := map[string]float64{}
	if params == nil {
		return out, nil
	}
	raw, ok := params[key]
	if !ok {
		return out, nil
	}
	asMap, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("algorithm parameter %q: expected a map, got %T", key, raw)
	}
	for k, v := range asMap {
		f, err := toFloat64(v, key+"."+k)
		if err != nil {
			return nil, err
		}
		out[k] = f
	}
	return out, nil
}

// stringParam reads a required string parameter.
func stringParam(params map[string]interface{}, key string) (string, error) {
	if params == nil {
		return "", fmt.Errorf("algorithm parameter %q is required", key)
	}
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("algorithm parameter %q is required", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("algorithm parameter %q: expected a string, got %T", key, v)
	}
	return s, nil
}

// listParam reads a required list-of-map parameter (used by
// mixed_linear_cost's "costs" parameter).
func listParam(params map[string]interface{}, key string) ([]interface{}, error) {
	if params == nil {
		return nil, fmt.Errorf("algorithm parameter %q is required", key)
	}
	v, ok := params[key]
	if !ok {
		return nil, fmt.Errorf("algorithm parameter %q is required", key)
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("algorithm parameter %q: expected a list, got %T", key, v)
	}
	return list, nil
}
