package lp

import "context"

// Solver solves linear programs.
//
// Implementations return ErrInfeasible or ErrUnbounded (possibly wrapped) when
// the problem has no optimum, and ErrUnavailable when they cannot answer at
// all, including when ctx is done before a result is ready.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}
