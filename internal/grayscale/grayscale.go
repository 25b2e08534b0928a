// Package grayscale converts PDF fragments to grayscale, either through a
// remote conversion service or by rewriting page content streams locally.
package grayscale

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Strategy names accepted by Selector.
const (
	StrategyRemote = "remote"
	StrategyLocal  = "local"
)

// ErrUnknownStrategy is returned by Selector for unregistered names.
var ErrUnknownStrategy = errors.New("unknown grayscale strategy")

// Converter turns a PDF into its grayscale rendition.
type Converter interface {
	ToGrayscale(ctx context.Context, pdf []byte) ([]byte, error)
}

// Selector dispatches conversions by strategy name.
type Selector struct {
	Default    string
	Strategies map[string]Converter
}

// NewSelector returns a selector whose default is def.
func NewSelector(def string, strategies map[string]Converter) *Selector {
	return &Selector{Default: def, Strategies: strategies}
}

// ToGrayscale converts pdf with the named strategy, or the default when
// strategy is empty.
func (s *Selector) ToGrayscale(ctx context.Context, strategy string, pdf []byte) ([]byte, error) {
	if strategy == "" {
		strategy = s.Default
	}
	c, ok := s.Strategies[strategy]
	if !ok || c == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	return c.ToGrayscale(ctx, pdf)
}

// CMYKGray returns the ink coverage of a CMYK colour on the gray channel.
// Only the K component carries over; a pure-K colour maps to itself.
func CMYKGray(c, m, y, k float64) float64 {
	return clamp(k)
}

// RGBGray returns the luminance of an RGB colour.
func RGBGray(r, g, b float64) float64 {
	return clamp(0.299*r + 0.587*g + 0.114*b)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
