package planner

import (
	"fmt"

	"github.com/danieljhkim/horizon/internal/lp"
)

// Model is the linear program for one Request together with the handles
// needed to read a trajectory back out of a solution.
type Model struct {
	Problem *lp.Problem
	Params  Params

	// Position and Velocity hold x_{1,k} and x_{2,k} for k = 0..N.
	Position []lp.VarID
	Velocity []lp.VarID

	// Control holds u_k and Output holds y_k for k = 0..N.
	Control []lp.Split
	Output  []lp.Split
}

// BuildModel constructs the linear program for req without solving it.
//
// Variables, per k = 0..N: free states x_{1,k}, x_{2,k}; control u_k and
// output y_k, each as an L1 split with bound 1. Constraints: the initial state
// (ic[1], ic[2]), y_k = x_{1,k} (y_output[k]) and, for k < N, the discretized
// dynamics (x1_update[k], x2_update[k]). The terminal state is fixed. The
// objective is gamma*sum|u_k| + (1-gamma)*sum|y_k|.
func BuildModel(req Request) (*Model, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	n := req.Params.Steps
	gamma := req.Params.Gamma

	p := lp.NewProblem("horizon", lp.Minimize)
	m := &Model{
		Problem:  p,
		Params:   req.Params,
		Position: make([]lp.VarID, n+1),
		Velocity: make([]lp.VarID, n+1),
		Control:  make([]lp.Split, n+1),
		Output:   make([]lp.Split, n+1),
	}

	for k := 0; k <= n; k++ {
		m.Position[k] = p.AddFreeVar(fmt.Sprintf("x1_%d", k))
		m.Velocity[k] = p.AddFreeVar(fmt.Sprintf("x2_%d", k))
		m.Control[k] = p.AddSplit(fmt.Sprintf("u%d", k), Bound)
		m.Output[k] = p.AddSplit(fmt.Sprintf("y%d", k), Bound)
	}

	p.AddConstraint("ic[1]", lp.EQ, req.CurrentPosition, lp.T(m.Position[0], 1))
	p.AddConstraint("ic[2]", lp.EQ, req.CurrentVelocity, lp.T(m.Velocity[0], 1))
	p.Fix(m.Position[n], req.TargetPosition)
	p.Fix(m.Velocity[n], req.TargetVelocity)

	for k := 0; k <= n; k++ {
		p.AddConstraint(fmt.Sprintf("y_output[%d]", k), lp.EQ, 0,
			lp.T(m.Output[k].Value, 1), lp.T(m.Position[k], -1))
	}

	// x_{k+1} - A x_k - B u_k = 0, one row per state component.
	a, b := Discretize(req.Params.StepSize)
	for k := 0; k < n; k++ {
		for i := 0; i < 2; i++ {
			terms := []lp.Term{lp.T(m.state(i, k+1), 1)}
			for j := 0; j < 2; j++ {
				if aij := a.At(i, j); aij != 0 {
					terms = append(terms, lp.T(m.state(j, k), -aij))
				}
			}
			if bi := b.At(i, 0); bi != 0 {
				terms = append(terms, lp.T(m.Control[k].Value, -bi))
			}
			p.AddConstraint(fmt.Sprintf("x%d_update[%d]", i+1, k), lp.EQ, 0, terms...)
		}
	}

	for k := 0; k <= n; k++ {
		p.AddObjective(gamma, m.Control[k].Magnitude()...)
		p.AddObjective(1-gamma, m.Output[k].Magnitude()...)
	}
	return m, nil
}

func (m *Model) state(i, k int) lp.VarID {
	if i == 0 {
		return m.Position[k]
	}
	return m.Velocity[k]
}

// Extract reads a Trajectory out of a solution of m.Problem.
func (m *Model) Extract(sol *lp.Solution) *Trajectory {
	n := len(m.Position)
	t := &Trajectory{
		Outputs:    make([]float64, n),
		Positions:  make([]float64, n),
		Velocities: make([]float64, n),
		Controls:   make([]float64, n),
		Objective:  sol.Objective,
		Params:     m.Params,
	}
	for k := 0; k < n; k++ {
		t.Outputs[k] = sol.Value(m.Output[k].Value)
		t.Positions[k] = sol.Value(m.Position[k])
		t.Velocities[k] = sol.Value(m.Velocity[k])
		t.Controls[k] = sol.Value(m.Control[k].Value)
	}
	t.Effort = sumAbs(t.Controls)
	t.Deviation = sumAbs(t.Outputs)
	return t
}
