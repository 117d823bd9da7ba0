package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrConfiguration reports invalid scoring configuration.
var ErrConfiguration = errors.New("invalid scoring configuration")

// WeightTolerance is the allowed distance of the weight sum from 1.
const WeightTolerance = 0.01

// ConfigurationError explains why a configuration was rejected.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Weights is an immutable, validated category weighting.
type Weights struct {
	values map[Category]float64
}

// DefaultWeights returns technical 0.40, career 0.35, fit 0.25.
func DefaultWeights() Weights {
	return Weights{values: map[Category]float64{Technical: 0.40, Career: 0.35, Fit: 0.25}}
}

// NewWeights validates raw weights keyed by category name. Every category
// must be present, no weight may be negative, unknown names are rejected,
// and the sum must be 1 within WeightTolerance.
func NewWeights(raw map[string]float64) (Weights, error) {
	values := make(map[Category]float64, len(Categories))
	var unknown []string

	for name, w := range raw {
		c := Category(strings.ToLower(strings.TrimSpace(name)))
		if !known(c) {
			unknown = append(unknown, name)
			continue
		}
		if math.IsNaN(w) || w < 0 {
			return Weights{}, &ConfigurationError{Reason: fmt.Sprintf("weight for %q must be non-negative, got %v", name, w)}
		}
		values[c] = w
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Weights{}, &ConfigurationError{Reason: fmt.Sprintf("unknown categories: %s", strings.Join(unknown, ", "))}
	}

	sum := 0.0
	for _, c := range Categories {
		w, ok := values[c]
		if !ok {
			return Weights{}, &ConfigurationError{Reason: fmt.Sprintf("missing weight for %q", c)}
		}
		sum += w
	}

	if math.Abs(sum-1) > WeightTolerance {
		return Weights{}, &ConfigurationError{Reason: fmt.Sprintf("weights must sum to 1.0, got %.4f", sum)}
	}

	return Weights{values: values}, nil
}

// Of returns the weight of c.
func (w Weights) Of(c Category) float64 {
	return w.values[c]
}

// IsZero reports whether w was never set.
func (w Weights) IsZero() bool {
	return len(w.values) == 0
}

// Map returns a copy of the weights keyed by category name.
func (w Weights) Map() map[string]float64 {
	out := make(map[string]float64, len(w.values))
	for c, v := range w.values {
		out[string(c)] = v
	}
	return out
}

func known(c Category) bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}
