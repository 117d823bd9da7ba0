package jsonrepair

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Decode extracts the JSON value from raw and decodes it into out.
//
// Decoding is weakly typed so "5" fills an int field and a lone string fills
// a []string field. Struct fields are matched by their json tags.
func Decode(raw string, out any) error {
	value, err := Extract(raw)
	if err != nil {
		return err
	}
	return DecodeValue(value, out)
}

// DecodeValue decodes an already extracted value into out.
func DecodeValue(value any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(value); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}

	return nil
}

// Float reads a numeric value that a model may have emitted as a number or a string.
func Float(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, !math.IsNaN(val) && !math.IsInf(val, 0)
	case int:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String renders v as trimmed text. Non-string values are JSON encoded.
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

// Strings reads a list of strings, accepting a single string as a one-element list.
// Empty entries are dropped.
func Strings(v any) []string {
	result := []string{}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := String(item); s != "" {
				result = append(result, s)
			}
		}
	case []string:
		for _, item := range val {
			if s := strings.TrimSpace(item); s != "" {
				result = append(result, s)
			}
		}
	case string:
		if s := strings.TrimSpace(val); s != "" {
			result = append(result, s)
		}
	}
	return result
}

// Floats reads a JSON object of numeric values, skipping entries that are not numbers.
func Floats(v any) map[string]float64 {
	result := map[string]float64{}
	obj, ok := v.(map[string]any)
	if !ok {
		return result
	}
	for key, raw := range obj {
		if f, ok := Float(raw); ok {
			result[key] = f
		}
	}
	return result
}
