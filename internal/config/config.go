package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/horizon/internal/driver"
	"github.com/danieljhkim/horizon/internal/goals"
	"github.com/danieljhkim/horizon/internal/planner"
)

// ErrInvalidConfig indicates a scenario that cannot be loaded or used.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultTick is the default driver tick.
const DefaultTick = 100 * time.Millisecond

// Config is a scenario file.
type Config struct {
	// Name is a free-form label shown in output.
	Name string `yaml:"name,omitempty"`

	Planner PlannerConfig `yaml:"planner"`
	Driver  DriverConfig  `yaml:"driver"`
	Goals   []GoalConfig  `yaml:"goals"`
}

// PlannerConfig is the planner section.
type PlannerConfig struct {
	Steps        int      `yaml:"steps"`
	StepSize     float64  `yaml:"step_size"`
	Gamma        float64  `yaml:"gamma"`
	SolveTimeout Duration `yaml:"solve_timeout"`
}

// DriverConfig is the driver section.
type DriverConfig struct {
	Tick          Duration `yaml:"tick"`
	Scale         float64  `yaml:"scale"`
	Policy        string   `yaml:"policy"`
	SkipFirst     bool     `yaml:"skip_first"`
	StartPosition float64  `yaml:"start_position"`
}

// GoalConfig is one entry of the goals section.
type GoalConfig struct {
	AtMS   int64   `yaml:"at_ms"`
	Target float64 `yaml:"target"`
}

// Duration is a time.Duration written as a Go duration string ("250ms").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string like \"100ms\"", node.Line)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in scenario.
func Default() *Config {
	params := planner.DefaultParams()
	cfg := &Config{
		Name: "default",
		Planner: PlannerConfig{
			Steps:        params.Steps,
			StepSize:     params.StepSize,
			Gamma:        params.Gamma,
			SolveTimeout: Duration(driver.DefaultSolveTimeout),
		},
		Driver: DriverConfig{
			Tick:   Duration(DefaultTick),
			Scale:  1,
			Policy: string(driver.PolicyAppend),
		},
	}
	for _, g := range goals.DefaultGoals() {
		cfg.Goals = append(cfg.Goals, GoalConfig{AtMS: g.At.Milliseconds(), Target: g.Target})
	}
	return cfg
}

// Load reads the scenario at path over the defaults and validates it.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a scenario over the defaults and validates it. Unknown keys
// are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes the scenario as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.DriverConfig(); err != nil {
		return err
	}
	if c.Driver.Tick <= 0 {
		return fmt.Errorf("%w: driver.tick must be positive", ErrInvalidConfig)
	}
	if _, err := c.Feed(); err != nil {
		return err
	}
	return nil
}

// Params returns the planner section as planner parameters.
func (c *Config) Params() planner.Params {
	return planner.Params{
		Steps:    c.Planner.Steps,
		StepSize: c.Planner.StepSize,
		Gamma:    c.Planner.Gamma,
	}
}

// DriverConfig returns the driver settings described by the scenario.
func (c *Config) DriverConfig() (driver.Config, error) {
	policy, err := driver.ParsePolicy(c.Driver.Policy)
	if err != nil {
		return driver.Config{}, fmt.Errorf("%w: driver.policy: %w", ErrInvalidConfig, err)
	}
	dc := driver.Config{
		Params:        c.Params(),
		Scale:         c.Driver.Scale,
		Policy:        policy,
		StartPosition: c.Driver.StartPosition,
		SolveTimeout:  c.Planner.SolveTimeout.Std(),
		SkipFirst:     c.Driver.SkipFirst,
	}
	if err := dc.Validate(); err != nil {
		return driver.Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return dc, nil
}

// GoalList returns the goals section in file order.
func (c *Config) GoalList() []goals.Goal {
	out := make([]goals.Goal, len(c.Goals))
	for i, g := range c.Goals {
		out[i] = goals.Goal{At: time.Duration(g.AtMS) * time.Millisecond, Target: g.Target}
	}
	return out
}

// Feed returns a goal feed holding the goals section.
func (c *Config) Feed() (*goals.Feed, error) {
	feed, err := goals.NewFeed(c.GoalList()...)
	if err != nil {
		return nil, fmt.Errorf("%w: goals: %w", ErrInvalidConfig, err)
	}
	return feed, nil
}
