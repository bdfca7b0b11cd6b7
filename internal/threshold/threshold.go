package threshold

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

const (
	regionKey = "coverageThreshold"
	globalKey = "global"
)

var (
	// ErrOutOfRange is returned when a percentage threshold exceeds 100.
	ErrOutOfRange = errors.New("coverage threshold percentage must not exceed 100")
	// ErrNotNumeric is returned when a threshold value is not a number.
	ErrNotNumeric = errors.New("coverage threshold must be numeric")
)

// Thresholds is the typed view of coverageThreshold.global. Nil fields are unset.
type Thresholds struct {
	Lines      *float64 `json:"lines,omitempty"`
	Statements *float64 `json:"statements,omitempty"`
	Branches   *float64 `json:"branches,omitempty"`
	Functions  *float64 `json:"functions,omitempty"`
}

// Empty reports whether no threshold is set.
func (t Thresholds) Empty() bool {
	return t.Lines == nil && t.Statements == nil && t.Branches == nil && t.Functions == nil
}

// Extract reads coverageThreshold.global from a merged configuration. A missing
// region yields empty Thresholds and no error. Values must be numeric and at most 100.
func Extract(cfg map[string]any) (Thresholds, error) {
	region, ok := cfg[regionKey].(map[string]any)
	if !ok {
		return Thresholds{}, nil
	}
	global, ok := region[globalKey].(map[string]any)
	if !ok {
		return Thresholds{}, nil
	}

	var out Thresholds
	fields := []struct {
		key string
		dst **float64
	}{
		{"lines", &out.Lines},
		{"statements", &out.Statements},
		{"branches", &out.Branches},
		{"functions", &out.Functions},
	}

	for _, field := range fields {
		raw, present := global[field.key]
		if !present {
			continue
		}
		value, err := toFloat(raw)
		if err != nil {
			return Thresholds{}, fmt.Errorf("%s.%s.%s: %w", regionKey, globalKey, field.key, err)
		}
		// Negative values are absolute uncovered-entity counts in jest, not percentages.
		if value > 100 {
			return Thresholds{}, fmt.Errorf("%s.%s.%s=%v: %w", regionKey, globalKey, field.key, value, ErrOutOfRange)
		}
		v := value
		*field.dst = &v
	}
	return out, nil
}

func toFloat(raw any) (float64, error) {
	var f float64
	switch v := raw.(type) {
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint64:
		f = float64(v)
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, v)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotNumeric, raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNotNumeric, raw)
	}
	return f, nil
}
