// Package grapher holds the interactive column widgets that display hint
// densities and let the user drag feature weights.
//
// Nothing here draws. A Column keeps its state machine, derives its layout
// and colors, and reports a Frame that any renderer can paint. A Graph owns
// the columns for one search, keeps their scales consistent, and fans pointer
// events out to them. Both are single-threaded: the owner's event loop must
// serialize every call.
package grapher

import (
	"errors"
	"fmt"

	"github.com/corey/hscd/internal/domain/search"
)

var (
	ErrInvalidConfig = errors.New("invalid graph config")
	ErrUnknownColumn = errors.New("unknown column")
)

// DisplayType selects which hint statistic drives the density strip.
type DisplayType string

const (
	DisplayDensity       DisplayType = "density"
	DisplayCompatibility DisplayType = "compatibility"
)

// Config controls how a Graph lays out and scales its columns.
type Config struct {
	UseLocalScale    bool         `mapstructure:"use_local_scale" yaml:"use_local_scale"`
	UseRelativeScale bool         `mapstructure:"use_relative_scale" yaml:"use_relative_scale"`
	DisplayType      DisplayType  `mapstructure:"display_type" yaml:"display_type"`
	Range            search.Range `mapstructure:"range" yaml:"range"`
	Steps            int          `mapstructure:"steps" yaml:"steps"`
	Padding          float64      `mapstructure:"padding" yaml:"padding"`
}

// DefaultConfig returns a global, absolute scale over [-1, 1].
func DefaultConfig() Config {
	return Config{
		DisplayType: DisplayDensity,
		Range:       search.DefaultRange(),
		Steps:       20,
		Padding:     10,
	}
}

// Validate reports the first problem with c.
func (c Config) Validate() error {
	switch c.DisplayType {
	case DisplayDensity, DisplayCompatibility:
	default:
		return fmt.Errorf("%w: display type %q", ErrInvalidConfig, c.DisplayType)
	}
	if !c.Range.Valid() || c.Range.Length() == 0 {
		return fmt.Errorf("%w: range [%v, %v]", ErrInvalidConfig, c.Range.Min, c.Range.Max)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("%w: steps %d", ErrInvalidConfig, c.Steps)
	}
	if c.Padding < 0 {
		return fmt.Errorf("%w: padding %v", ErrInvalidConfig, c.Padding)
	}
	return nil
}

// Metrics are the fixed pixel sizes carved out of each column.
type Metrics struct {
	LabelSize  float64
	HintSize   float64
	HandleSize float64
}

// DefaultMetrics returns the standard column proportions.
func DefaultMetrics() Metrics {
	return Metrics{LabelSize: 20, HintSize: 10, HandleSize: 10}
}
