package planner

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultSteps is the default horizon length N.
	DefaultSteps = 30

	// DefaultStepSize is the default step size h in seconds.
	DefaultStepSize = 0.1

	// DefaultGamma weighs control effort and output deviation equally.
	DefaultGamma = 0.5

	// MaxSteps caps the horizon length accepted by Validate. The simplex
	// backend works on dense matrices and must finish a MaxSteps horizon
	// within DefaultSolveTimeout.
	MaxSteps = 100

	// Bound is the magnitude limit on controls and outputs.
	Bound = 1.0
)

// DefaultSolveTimeout bounds a single solve unless the caller sets its own.
const DefaultSolveTimeout = 2 * time.Second

// Params are the horizon parameters of a single solve.
type Params struct {
	// Steps is the horizon length N. The trajectory has N+1 samples.
	Steps int `json:"steps" yaml:"steps"`

	// StepSize is the time between samples in seconds.
	StepSize float64 `json:"step_size" yaml:"step_size"`

	// Gamma in [0,1] weighs total control effort against total output
	// deviation: gamma*effort + (1-gamma)*deviation is minimized.
	Gamma float64 `json:"gamma" yaml:"gamma"`
}

// DefaultParams returns N=30, h=0.1, gamma=0.5.
func DefaultParams() Params {
	return Params{
		Steps:    DefaultSteps,
		StepSize: DefaultStepSize,
		Gamma:    DefaultGamma,
	}
}

// Horizon returns the time covered by the plan, N*h seconds.
func (p Params) Horizon() float64 {
	return float64(p.Steps) * p.StepSize
}

// Validate checks the parameters.
func (p Params) Validate() error {
	if p.Steps < 0 || p.Steps > MaxSteps {
		return fmt.Errorf("%w: steps %d outside [0, %d]", ErrInvalidRequest, p.Steps, MaxSteps)
	}
	if math.IsNaN(p.StepSize) || math.IsInf(p.StepSize, 0) || p.StepSize <= 0 {
		return fmt.Errorf("%w: step size must be positive, got %g", ErrInvalidRequest, p.StepSize)
	}
	if math.IsNaN(p.Gamma) || p.Gamma < 0 || p.Gamma > 1 {
		return fmt.Errorf("%w: gamma must be in [0, 1], got %g", ErrInvalidRequest, p.Gamma)
	}
	return nil
}

// State is a position/velocity pair, normalized to [-1, 1] by convention.
type State struct {
	Position float64 `json:"position"`
	Velocity float64 `json:"velocity"`
}

// Request is the input of a single plan.
type Request struct {
	CurrentPosition float64
	TargetPosition  float64
	CurrentVelocity float64
	TargetVelocity  float64
	Params          Params
}

// NewRequest plans from current to target at rest with default parameters.
func NewRequest(current, target float64) Request {
	return Request{
		CurrentPosition: current,
		TargetPosition:  target,
		Params:          DefaultParams(),
	}
}

// Current returns the initial state.
func (r Request) Current() State {
	return State{Position: r.CurrentPosition, Velocity: r.CurrentVelocity}
}

// Target returns the terminal state.
func (r Request) Target() State {
	return State{Position: r.TargetPosition, Velocity: r.TargetVelocity}
}

// Validate checks that the request can be turned into a model. A target
// outside the bounds is not an error here; the solve reports it as infeasible.
func (r Request) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"current position", r.CurrentPosition},
		{"target position", r.TargetPosition},
		{"current velocity", r.CurrentVelocity},
		{"target velocity", r.TargetVelocity},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidRequest, f.name)
		}
	}
	return r.Params.Validate()
}
