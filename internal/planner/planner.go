package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/danieljhkim/horizon/internal/lp"
)

// solutionTol is the largest constraint violation accepted from a solver.
const solutionTol = 1e-6

// Planner solves trajectory requests with an injected lp.Solver.
// It holds no state between calls.
type Planner struct {
	solver lp.Solver
}

// New creates a Planner.
func New(solver lp.Solver) *Planner {
	return &Planner{solver: solver}
}

// Plan builds the model for req, solves it and returns the trajectory.
//
// Invalid requests fail with ErrInvalidRequest before the solver is called.
// Infeasible or unbounded programs fail with ErrPlanningInfeasible. Solver
// errors, cancellation and answers that do not satisfy the model fail with
// ErrSolverUnavailable. A failed plan never returns a partial trajectory.
func (p *Planner) Plan(ctx context.Context, req Request) (*Trajectory, error) {
	model, err := BuildModel(req)
	if err != nil {
		return nil, err
	}

	sol, err := p.solver.Solve(ctx, model.Problem)
	if err != nil {
		return nil, classify(err)
	}
	if sol == nil || len(sol.Values) != model.Problem.NumVars() {
		return nil, fmt.Errorf("%w: solver returned a malformed solution", ErrSolverUnavailable)
	}
	if viol := model.Problem.Violation(sol.Values); viol > solutionTol {
		return nil, fmt.Errorf("%w: solution violates the model by %g", ErrSolverUnavailable, viol)
	}

	return model.Extract(sol), nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, lp.ErrInfeasible), errors.Is(err, lp.ErrUnbounded):
		return fmt.Errorf("%w: %w", ErrPlanningInfeasible, err)
	case errors.Is(err, lp.ErrInvalidProblem):
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	default:
		return fmt.Errorf("%w: %w", ErrSolverUnavailable, err)
	}
}
