package lp

import (
	"context"
	"fmt"
	"math"
)

// DefaultTolerance is the reduced-cost tolerance used to decide optimality.
const DefaultTolerance = 1e-9

// maxViolation is the largest constraint or bound error accepted in a
// returned solution before it is reported as a numerical failure.
const maxViolation = 1e-6

// Simplex is an exact LP backend: presolve, conversion to bounded standard
// form and a two-phase dense simplex on a gonum matrix.
//
// Pricing uses the largest reduced cost and falls back to the smallest-index
// rule after a run of degenerate pivots, so the method cannot cycle. The
// context is checked before every pivot; Solve returns within one pivot of
// ctx being done and leaves nothing running behind it.
type Simplex struct {
	// Tol is the optimality tolerance. Zero means DefaultTolerance.
	Tol float64
}

// NewSimplex creates a Simplex with default tolerance.
func NewSimplex() *Simplex {
	return &Simplex{Tol: DefaultTolerance}
}

// Solve solves p.
func (s *Simplex) Solve(ctx context.Context, p *Problem) (sol *Solution, err error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			sol, err = nil, fmt.Errorf("%w: simplex panicked: %v", ErrUnavailable, r)
		}
	}()
	return s.solve(ctx, p)
}

func (s *Simplex) solve(ctx context.Context, p *Problem) (*Solution, error) {
	tol := s.Tol
	if tol <= 0 {
		tol = DefaultTolerance
	}

	cost := p.Objective()
	if p.Sense == Maximize {
		for i := range cost {
			cost[i] = -cost[i]
		}
	}

	ps := newPresolver(p, cost)
	if err := ps.run(); err != nil {
		return nil, err
	}

	sf := newStandardForm(ps)
	cols, err := sf.solve(ctx, tol)
	if err != nil {
		return nil, err
	}

	x := make([]float64, p.NumVars())
	sf.assign(cols, x)
	ps.postsolve(x)

	for i, v := range p.vars {
		x[i] = math.Min(math.Max(x[i], v.Lower), v.Upper)
	}
	if viol := p.Violation(x); viol > maxViolation {
		return nil, fmt.Errorf("%w: solution violates constraints by %g", ErrUnavailable, viol)
	}

	return &Solution{
		Objective: p.Evaluate(x),
		Values:    x,
	}, nil
}
