package analysis

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config holds capability parameters. Unknown keys are ignored and missing
// keys take the documented defaults.
type Config map[string]any

// Legacy parameter names accepted in place of the canonical keys.
var aliases = map[string]string{
	"R1_min":   "value_min",
	"R1_max":   "value_max",
	"V_target": "target_voltage",
	"tol":      "tolerance",
	"ODE_R":    "ode_r",
	"ODE_C":    "ode_c",
}

var ErrConfig = errors.New("analysis: invalid configuration")

type ConfigError struct {
	Key    string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("analysis: config %q=%v: %s", e.Key, e.Value, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

func (c Config) lookup(key string) (any, bool) {
	if v, ok := c[key]; ok {
		return v, true
	}
	for alias, canonical := range aliases {
		if canonical == key {
			if v, ok := c[alias]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

func (c Config) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

func (c Config) Float(key string, def float64) (float64, error) {
	v, ok := c.lookup(key)
	if !ok || v == nil {
		return def, nil
	}
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, &ConfigError{Key: key, Value: v, Reason: "not a number"}
		}
		f = p
	default:
		return 0, &ConfigError{Key: key, Value: v, Reason: fmt.Sprintf("unsupported type %T", v)}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ConfigError{Key: key, Value: v, Reason: "not finite"}
	}
	return f, nil
}

func (c Config) Int(key string, def int) (int, error) {
	v, ok := c.lookup(key)
	if !ok || v == nil {
		return def, nil
	}
	outOfRange := &ConfigError{Key: key, Value: v, Reason: "integer out of range"}
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		if x < math.MinInt || x > math.MaxInt {
			return 0, outOfRange
		}
		return int(x), nil
	case uint64:
		if x > math.MaxInt {
			return 0, outOfRange
		}
		return int(x), nil
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, nil
		} else if errors.Is(err, strconv.ErrRange) {
			return 0, outOfRange
		}
	}
	f, err := c.Float(key, float64(def))
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, &ConfigError{Key: key, Value: v, Reason: "not an integer"}
	}
	// float64(math.MaxInt) rounds up to 2^63, which is already out of range
	if f < math.MinInt || f >= math.MaxInt {
		return 0, outOfRange
	}
	return int(f), nil
}

func (c Config) String(key, def string) string {
	v, ok := c.lookup(key)
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}

func (c Config) Bool(key string, def bool) (bool, error) {
	v, ok := c.lookup(key)
	if !ok || v == nil {
		return def, nil
	}
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, &ConfigError{Key: key, Value: v, Reason: "not a boolean"}
		}
		return b, nil
	}
	f, err := c.Float(key, 0)
	if err != nil {
		return false, err
	}
	return f != 0, nil
}

// ParseAssignment parses "key=value" as given on the command line.
func ParseAssignment(s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("expected key=value, got %q", s)
	}
	return key, strings.TrimSpace(value), nil
}

// Merge returns c overlaid with o.
func (c Config) Merge(o Config) Config {
	out := make(Config, len(c)+len(o))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// Report config keys, not Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("cfg"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

func validateOptions(opts any) error {
	err := validate.Struct(opts)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	reason := "failed " + fe.Tag()
	if fe.Param() != "" {
		reason += "=" + fe.Param()
	}
	return &ConfigError{Key: fe.Field(), Value: fe.Value(), Reason: reason}
}
