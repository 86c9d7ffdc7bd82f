package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/danieljhkim/horizon/internal/lp"
)

const tol = 1e-6

func near(a, b float64) bool {
	return math.Abs(a-b) <= tol
}

// plan solves req with the real backend under the default solve timeout.
func plan(t *testing.T, req Request) *Trajectory {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultSolveTimeout)
	defer cancel()
	traj, err := New(lp.NewSimplex()).Plan(ctx, req)
	if err != nil {
		t.Fatalf("Plan(%+v) error = %v", req, err)
	}
	return traj
}

func TestPlanner_Plan_BoundaryValues(t *testing.T) {
	tests := []struct {
		name            string
		current, target float64
	}{
		{name: "rest to goal", current: 0, target: 0.4},
		{name: "upward", current: 0.4, target: 1.0},
		{name: "downward", current: 1.0, target: 0.1},
		{name: "through zero", current: -0.8, target: 0.8},
		{name: "negative side", current: -0.2, target: -0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewRequest(tt.current, tt.target)
			traj := plan(t, req)

			if traj.Len() != req.Params.Steps+1 {
				t.Fatalf("Len() = %d, want %d", traj.Len(), req.Params.Steps+1)
			}
			if !near(traj.Outputs[0], tt.current) {
				t.Errorf("first output = %v, want %v", traj.Outputs[0], tt.current)
			}
			if last := traj.Outputs[traj.Len()-1]; !near(last, tt.target) {
				t.Errorf("last output = %v, want %v", last, tt.target)
			}
			if v := traj.Final().Velocity; !near(v, 0) {
				t.Errorf("final velocity = %v, want 0", v)
			}
			for k := range traj.Outputs {
				if math.Abs(traj.Outputs[k]) > Bound+tol {
					t.Errorf("y[%d] = %v out of bounds", k, traj.Outputs[k])
				}
				if math.Abs(traj.Controls[k]) > Bound+tol {
					t.Errorf("u[%d] = %v out of bounds", k, traj.Controls[k])
				}
				if !near(traj.Outputs[k], traj.Positions[k]) {
					t.Errorf("y[%d] = %v differs from position %v", k, traj.Outputs[k], traj.Positions[k])
				}
			}
		})
	}
}

func TestPlanner_Plan_Dynamics(t *testing.T) {
	traj := plan(t, NewRequest(0, 0.4))
	h := traj.Params.StepSize

	for k := 0; k < traj.Len()-1; k++ {
		x1, x2, u := traj.Positions[k], traj.Velocities[k], traj.Controls[k]
		if want := x1 + h*x2 + h*h/2*u; !near(traj.Positions[k+1], want) {
			t.Errorf("x1[%d] = %v, want %v", k+1, traj.Positions[k+1], want)
		}
		if want := x2 + h*u; !near(traj.Velocities[k+1], want) {
			t.Errorf("x2[%d] = %v, want %v", k+1, traj.Velocities[k+1], want)
		}
	}
	if r := traj.Residual(); r > tol {
		t.Errorf("Residual() = %v", r)
	}
}

func TestPlanner_Plan_AtRestOnTarget(t *testing.T) {
	for _, p := range []float64{0.4, -0.7, 0} {
		t.Run(fmt.Sprint(p), func(t *testing.T) {
			traj := plan(t, NewRequest(p, p))
			for k, y := range traj.Outputs {
				if !near(y, p) {
					t.Errorf("y[%d] = %v, want %v", k, y, p)
				}
			}
			if !near(traj.Effort, 0) {
				t.Errorf("Effort = %v, want 0", traj.Effort)
			}
		})
	}
}

func TestPlanner_Plan_ZeroHorizon(t *testing.T) {
	req := NewRequest(0.3, 0.3)
	req.Params.Steps = 0

	traj := plan(t, req)
	if traj.Len() != 1 || !near(traj.Outputs[0], 0.3) {
		t.Errorf("Outputs = %v, want [0.3]", traj.Outputs)
	}
}

func TestPlanner_Plan_Infeasible(t *testing.T) {
	tests := []struct {
		name string
		req  func() Request
	}{
		{
			name: "target above bound",
			req:  func() Request { return NewRequest(0, 1.5) },
		},
		{
			name: "target below bound",
			req:  func() Request { return NewRequest(0, -1.2) },
		},
		{
			name: "zero horizon with distinct endpoints",
			req: func() Request {
				r := NewRequest(0, 0.5)
				r.Params.Steps = 0
				return r
			},
		},
		{
			name: "horizon too short",
			req: func() Request {
				r := NewRequest(0, 1)
				r.Params.Steps = 5
				return r
			},
		},
		{
			name: "start outside bound",
			req:  func() Request { return NewRequest(2, 0) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			traj, err := New(lp.NewSimplex()).Plan(context.Background(), tt.req())
			if !errors.Is(err, ErrPlanningInfeasible) {
				t.Errorf("expected ErrPlanningInfeasible, got %v", err)
			}
			if traj != nil {
				t.Errorf("expected no trajectory, got %v", traj.Outputs)
			}
		})
	}
}

func TestPlanner_Plan_GammaTradeoff(t *testing.T) {
	tests := []struct {
		name            string
		current, target float64
	}{
		{name: "upward", current: 0, target: 0.4},
		{name: "downward", current: 0, target: -0.4},
		{name: "negative side", current: -0.3, target: -0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low := NewRequest(tt.current, tt.target)
			low.Params.Gamma = 0.2
			high := NewRequest(tt.current, tt.target)
			high.Params.Gamma = 0.8

			lowTraj := plan(t, low)
			highTraj := plan(t, high)

			if highTraj.Effort > lowTraj.Effort+tol {
				t.Errorf("effort rose with gamma: %v (0.2) -> %v (0.8)", lowTraj.Effort, highTraj.Effort)
			}
			if highTraj.Deviation < lowTraj.Deviation-tol {
				t.Errorf("deviation fell with gamma: %v (0.2) -> %v (0.8)", lowTraj.Deviation, highTraj.Deviation)
			}
			for _, traj := range []*Trajectory{lowTraj, highTraj} {
				g := traj.Params.Gamma
				if want := g*traj.Effort + (1-g)*traj.Deviation; !near(traj.Objective, want) {
					t.Errorf("gamma %v: Objective = %v, want %v", g, traj.Objective, want)
				}
			}
		})
	}
}

func TestPlanner_Plan_TargetGrid(t *testing.T) {
	points := []float64{-0.9, -0.6, -0.2, -0.1, 0, 0.3, 0.7, 1}
	for _, current := range points {
		for _, target := range points {
			t.Run(fmt.Sprintf("%v->%v", current, target), func(t *testing.T) {
				traj := plan(t, NewRequest(current, target))
				if !near(traj.Outputs[0], current) {
					t.Errorf("first output = %v, want %v", traj.Outputs[0], current)
				}
				if last := traj.Outputs[traj.Len()-1]; !near(last, target) {
					t.Errorf("last output = %v, want %v", last, target)
				}
				if r := traj.Residual(); r > tol {
					t.Errorf("Residual() = %v", r)
				}
			})
		}
	}
}

func TestPlanner_Plan_LongestHorizon(t *testing.T) {
	req := NewRequest(-0.5, 0.5)
	req.Params.Steps = MaxSteps
	req.Params.StepSize = 0.03

	start := time.Now()
	traj := plan(t, req)
	if took := time.Since(start); took > DefaultSolveTimeout {
		t.Errorf("solve took %s", took)
	}
	if traj.Len() != MaxSteps+1 {
		t.Fatalf("Len() = %d, want %d", traj.Len(), MaxSteps+1)
	}
	if last := traj.Outputs[MaxSteps]; !near(last, 0.5) {
		t.Errorf("last output = %v, want 0.5", last)
	}
}

func TestPlanner_Plan_InvalidRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{name: "negative steps", mutate: func(r *Request) { r.Params.Steps = -1 }},
		{name: "too many steps", mutate: func(r *Request) { r.Params.Steps = MaxSteps + 1 }},
		{name: "zero step size", mutate: func(r *Request) { r.Params.StepSize = 0 }},
		{name: "gamma above one", mutate: func(r *Request) { r.Params.Gamma = 1.5 }},
		{name: "gamma NaN", mutate: func(r *Request) { r.Params.Gamma = math.NaN() }},
		{name: "NaN position", mutate: func(r *Request) { r.CurrentPosition = math.NaN() }},
		{name: "infinite target", mutate: func(r *Request) { r.TargetPosition = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			solver := lp.NewConstantSolver(0)
			req := NewRequest(0, 0.4)
			tt.mutate(&req)

			_, err := New(solver).Plan(context.Background(), req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
			if solver.Calls() != 0 {
				t.Errorf("solver called %d times", solver.Calls())
			}
		})
	}
}

func TestPlanner_Plan_SolverErrors(t *testing.T) {
	tests := []struct {
		name    string
		solver  lp.Solver
		wantErr error
	}{
		{
			name:    "infeasible",
			solver:  lp.NewFailingSolver(lp.ErrInfeasible),
			wantErr: ErrPlanningInfeasible,
		},
		{
			name:    "unbounded",
			solver:  lp.NewFailingSolver(lp.ErrUnbounded),
			wantErr: ErrPlanningInfeasible,
		},
		{
			name:    "unavailable",
			solver:  lp.NewFailingSolver(lp.ErrUnavailable),
			wantErr: ErrSolverUnavailable,
		},
		{
			name:    "bare context error",
			solver:  lp.NewFailingSolver(context.DeadlineExceeded),
			wantErr: ErrSolverUnavailable,
		},
		{
			name: "nil solution",
			solver: lp.NewFakeSolver(func(*lp.Problem) (*lp.Solution, error) {
				return nil, nil
			}),
			wantErr: ErrSolverUnavailable,
		},
		{
			name: "short solution",
			solver: lp.NewFakeSolver(func(*lp.Problem) (*lp.Solution, error) {
				return &lp.Solution{Values: []float64{0}}, nil
			}),
			wantErr: ErrSolverUnavailable,
		},
		{
			name:    "assignment that breaks the model",
			solver:  lp.NewConstantSolver(0.5),
			wantErr: ErrSolverUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			traj, err := New(tt.solver).Plan(context.Background(), NewRequest(0, 0.4))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if traj != nil {
				t.Error("expected no trajectory on failure")
			}
		})
	}
}

func TestPlanner_Plan_Timeout(t *testing.T) {
	solver := lp.NewConstantSolver(0)
	solver.SetDelay(time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := New(solver).Plan(ctx, NewRequest(0, 0.4))
	if !errors.Is(err, ErrSolverUnavailable) {
		t.Errorf("expected ErrSolverUnavailable, got %v", err)
	}
	if errors.Is(err, ErrPlanningInfeasible) {
		t.Error("timeout must not be reported as infeasible")
	}
}
