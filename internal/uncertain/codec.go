package uncertain

import (
	"fmt"
	"strconv"
	"strings"
)

// Decode parses the text form produced by Value.String, e.g. "fixed(1.5)" or
// "triangular(0.01, 0.07, 0.12)". A bare number decodes to a fixed value.
func Decode(encoded string) (Value, error) {
	s := strings.TrimSpace(encoded)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return NewFixed(f), nil
	}
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return Value{}, fmt.Errorf("malformed uncertain value %q", encoded)
	}
	name := DistributionType(strings.ToLower(strings.TrimSpace(s[:open])))
	params, err := parseParams(s[open+1 : len(s)-1])
	if err != nil {
		return Value{}, fmt.Errorf("parsing parameters of %q: %w", encoded, err)
	}
	var v Value
	switch name {
	case DistFixed:
		if len(params) != 1 {
			return Value{}, fmt.Errorf("fixed takes 1 parameter, got %d", len(params))
		}
		v = NewFixed(params[0])
	case DistTriangular:
		if len(params) != 3 {
			return Value{}, fmt.Errorf("triangular takes 3 parameters (min, mode, max), got %d", len(params))
		}
		v = NewTriangular(params[0], params[1], params[2])
	case DistUniform:
		if len(params) != 2 {
			return Value{}, fmt.Errorf("uniform takes 2 parameters (min, max), got %d", len(params))
		}
		v = NewUniform(params[0], params[1])
	case DistNormal:
		if len(params) != 2 {
			return Value{}, fmt.Errorf("normal takes 2 parameters (mean, stddev), got %d", len(params))
		}
		v = NewNormal(params[0], params[1])
	default:
		return Value{}, fmt.Errorf("unknown distribution %q", name)
	}
	if !v.Valid() {
		return Value{}, fmt.Errorf("invalid parameters for %s", v)
	}
	return v, nil
}

func parseParams(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	params := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		params[i] = f
	}
	return params, nil
}
