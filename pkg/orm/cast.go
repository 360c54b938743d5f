package orm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Caster converts a raw source value into the field's Go type.
type Caster func(v any) (any, error)

// Int converts to int. Strings are trimmed; floats are truncated.
func Int(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("cannot convert %v to int", x)
		}
		return int(x), nil
	case []byte:
		return Int(string(x))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil, err
		}
		return n, nil
	}
	return nil, fmt.Errorf("cannot convert %T to int", v)
}

// Float converts to float64. Strings are trimmed.
func Float(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case []byte:
		return Float(string(x))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, fmt.Errorf("cannot convert %T to float", v)
}

// Text converts to string. Driver byte slices become strings and numbers are
// formatted without exponent.
func Text(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	}
	return nil, fmt.Errorf("cannot convert %T to text", v)
}
