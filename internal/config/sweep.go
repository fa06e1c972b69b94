package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/example/reviewcal/internal/simulation"
	"github.com/example/reviewcal/internal/spaced_repetition"
)

// Axis is either an explicit list of chances or an inclusive range.
type Axis struct {
	Values []float64 `yaml:"values,omitempty"`
	Start  float64   `yaml:"start"`
	Stop   float64   `yaml:"stop"`
	Step   float64   `yaml:"step"`
}

// Chances expands the axis.
func (a Axis) Chances() []float64 {
	if len(a.Values) > 0 {
		return a.Values
	}
	return simulation.Range(a.Start, a.Stop, a.Step)
}

// SweepFile is the YAML form of a sweep definition.
type SweepFile struct {
	Name             string  `yaml:"name"`
	Iterations       int     `yaml:"iterations"`
	Capacity         int     `yaml:"capacity"`
	Horizon          int     `yaml:"horizon"`
	FeedProportion   float64 `yaml:"feed_proportion"`
	Feed             Axis    `yaml:"feed"`
	Skip             Axis    `yaml:"skip"`
	Policy           string  `yaml:"policy"` // static or sm2
	Spacing          []int   `yaml:"spacing"`
	AbandonThreshold int     `yaml:"abandon_threshold"`
	Seed             int64   `yaml:"seed"`
	Workers          int     `yaml:"workers"`
}

// DefaultSweepFile returns the reference analysis grid.
func DefaultSweepFile() *SweepFile {
	return &SweepFile{
		Name:             "default",
		Iterations:       30,
		Capacity:         5,
		Horizon:          80,
		FeedProportion:   0.4,
		Feed:             Axis{Start: 0.1, Stop: 0.8, Step: 0.1},
		Skip:             Axis{Start: 0, Stop: 0.5, Step: 0.05},
		Policy:           spaced_repetition.KindStatic,
		Spacing:          []int{0, 1, 2, 5, 8, 14},
		AbandonThreshold: simulation.DefaultAbandonThreshold,
	}
}

// LoadSweep reads a sweep definition. Fields missing from the file keep the
// defaults of DefaultSweepFile. An empty path returns the defaults.
func LoadSweep(path string) (*SweepFile, error) {
	sf := DefaultSweepFile()
	if path == "" {
		return sf, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sweep config: %w", err)
	}
	if err := yaml.Unmarshal(data, sf); err != nil {
		return nil, fmt.Errorf("parse sweep config %s: %w", path, err)
	}
	return sf, nil
}

// SweepConfig converts the file into a runnable sweep.
func (sf *SweepFile) SweepConfig() (simulation.SweepConfig, error) {
	policy, err := spaced_repetition.Select(sf.Policy, sf.Spacing)
	if err != nil {
		return simulation.SweepConfig{}, err
	}
	return simulation.SweepConfig{
		Iterations:       sf.Iterations,
		Capacity:         sf.Capacity,
		Horizon:          sf.Horizon,
		FeedProportion:   sf.FeedProportion,
		FeedChances:      sf.Feed.Chances(),
		SkipChances:      sf.Skip.Chances(),
		AbandonThreshold: sf.AbandonThreshold,
		Policy:           policy,
		Seed:             sf.Seed,
		Workers:          sf.Workers,
		Logger:           zerolog.Nop(),
	}, nil
}
