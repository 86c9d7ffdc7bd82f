package planner

import "math"

// Trajectory is a solved plan. All slices have N+1 entries indexed by k.
type Trajectory struct {
	// Outputs is y_0..y_N, the planned positions in time order.
	Outputs []float64 `json:"outputs"`

	Positions  []float64 `json:"positions"`
	Velocities []float64 `json:"velocities"`
	Controls   []float64 `json:"controls"`

	// Effort is sum|u_k| and Deviation is sum|y_k|.
	Effort    float64 `json:"effort"`
	Deviation float64 `json:"deviation"`

	// Objective is gamma*Effort + (1-gamma)*Deviation at the optimum.
	Objective float64 `json:"objective"`

	Params Params `json:"params"`
}

// Len returns the number of samples, N+1.
func (t *Trajectory) Len() int {
	return len(t.Outputs)
}

// Times returns k*h for every sample.
func (t *Trajectory) Times() []float64 {
	times := make([]float64, len(t.Outputs))
	for k := range times {
		times[k] = float64(k) * t.Params.StepSize
	}
	return times
}

// State returns the solved state at step k.
func (t *Trajectory) State(k int) State {
	return State{Position: t.Positions[k], Velocity: t.Velocities[k]}
}

// Final returns the solved terminal state.
func (t *Trajectory) Final() State {
	return t.State(len(t.Positions) - 1)
}

// Residual returns the largest deviation between the solved states and the
// states obtained by rolling the solved controls through the plant model.
func (t *Trajectory) Residual() float64 {
	if len(t.Positions) == 0 {
		return 0
	}
	rolled := Rollout(t.State(0), t.Controls[:len(t.Controls)-1], t.Params.StepSize)
	var worst float64
	for k, s := range rolled {
		worst = math.Max(worst, math.Abs(s.Position-t.Positions[k]))
		worst = math.Max(worst, math.Abs(s.Velocity-t.Velocities[k]))
	}
	return worst
}

func sumAbs(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += math.Abs(x)
	}
	return sum
}
