package lp

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// stdVar maps a presolved variable onto standard-form columns:
// x[v] = base + sum(signs[i] * col[cols[i]]).
type stdVar struct {
	v     int
	base  float64
	cols  []int
	signs []float64
}

type stdRow struct {
	coef map[int]float64
	rel  Relation
	rhs  float64
}

// standardForm is min c*x s.t. A*x = b, 0 <= x <= upper, with b >= 0 and a
// unit starting basis made of slack and artificial columns.
type standardForm struct {
	a          *mat.Dense
	b          []float64
	cost       []float64
	upper      []float64
	basis      []int
	artificial []int
	nStruct    int
	vars       []stdVar
}

// newStandardForm converts what survived presolve. Lower-bounded variables are
// shifted onto their bound, upper-only variables are mirrored and free
// variables are split. Finite upper bounds stay on the columns.
func newStandardForm(ps *presolver) *standardForm {
	sf := &standardForm{}
	byVar := make(map[int]int)
	var cost, upper []float64

	for v := range ps.active {
		if !ps.active[v] {
			continue
		}
		lo, hi := ps.lo[v], ps.hi[v]
		sv := stdVar{v: v}
		switch {
		case !math.IsInf(lo, 0):
			sv.base = lo
			sv.cols = []int{len(cost)}
			sv.signs = []float64{1}
			upper = append(upper, hi-lo)
		case !math.IsInf(hi, 0):
			sv.base = hi
			sv.cols = []int{len(cost)}
			sv.signs = []float64{-1}
			upper = append(upper, math.Inf(1))
		default:
			sv.cols = []int{len(cost), len(cost) + 1}
			sv.signs = []float64{1, -1}
			upper = append(upper, math.Inf(1), math.Inf(1))
		}
		for _, s := range sv.signs {
			cost = append(cost, ps.cost[v]*s)
		}
		byVar[v] = len(sf.vars)
		sf.vars = append(sf.vars, sv)
	}
	sf.nStruct = len(cost)

	var rows []stdRow
	for _, r := range ps.rows {
		if r == nil {
			continue
		}
		sr := stdRow{coef: make(map[int]float64), rel: r.rel, rhs: r.rhs}
		for _, v := range sortedKeys(r.coef) {
			a := r.coef[v]
			sv := sf.vars[byVar[v]]
			sr.rhs -= a * sv.base
			for i, col := range sv.cols {
				sr.coef[col] += a * sv.signs[i]
			}
		}
		rows = append(rows, sr)
	}

	m := len(rows)
	if m == 0 {
		sf.cost = cost
		sf.upper = upper
		return sf
	}
	nSlack := 0
	for _, r := range rows {
		if r.rel != EQ {
			nSlack++
		}
	}

	// Flip rows so b >= 0, preferring the orientation that turns an
	// inequality's slack into a +1 unit column.
	signs := make([]float64, m)
	nArt := 0
	for i, r := range rows {
		signs[i] = 1
		switch r.rel {
		case GE:
			if r.rhs <= 0 {
				signs[i] = -1
			}
		default:
			if r.rhs < 0 {
				signs[i] = -1
			}
		}
		if !hasUnitSlack(r.rel, signs[i]) {
			nArt++
		}
	}

	n := sf.nStruct + nSlack + nArt
	sf.a = mat.NewDense(m, n, nil)
	sf.b = make([]float64, m)
	sf.cost = make([]float64, n)
	copy(sf.cost, cost)
	sf.upper = make([]float64, n)
	copy(sf.upper, upper)
	for j := sf.nStruct; j < n; j++ {
		sf.upper[j] = math.Inf(1)
	}
	sf.basis = make([]int, m)

	slack, art := sf.nStruct, sf.nStruct+nSlack
	for i, r := range rows {
		s := signs[i]
		for col, a := range r.coef {
			sf.a.Set(i, col, s*a)
		}
		sf.b[i] = s * r.rhs
		switch r.rel {
		case LE:
			sf.a.Set(i, slack, s)
		case GE:
			sf.a.Set(i, slack, -s)
		}
		if r.rel != EQ {
			if hasUnitSlack(r.rel, s) {
				sf.basis[i] = slack
			}
			slack++
		}
		if !hasUnitSlack(r.rel, s) {
			sf.a.Set(i, art, 1)
			sf.basis[i] = art
			sf.artificial = append(sf.artificial, art)
			art++
		}
	}
	return sf
}

func hasUnitSlack(rel Relation, sign float64) bool {
	return (rel == LE && sign > 0) || (rel == GE && sign < 0)
}

// solve runs phase one (feasibility) when artificial columns exist, then
// phase two with the artificial columns held at zero, and returns the values
// of the structural columns.
func (sf *standardForm) solve(ctx context.Context, tol float64) ([]float64, error) {
	if len(sf.b) == 0 {
		x := make([]float64, sf.nStruct)
		for j := range x {
			if sf.cost[j] < -tol {
				if math.IsInf(sf.upper[j], 1) {
					return nil, fmt.Errorf("%w: column %d has no upper bound", ErrUnbounded, j)
				}
				x[j] = sf.upper[j]
			}
		}
		return x, nil
	}

	tb := newTableau(sf)
	m, n := sf.a.Dims()
	limit := iterationFactor * (m + n)

	if len(sf.artificial) > 0 {
		c := make([]float64, n)
		for _, j := range sf.artificial {
			c[j] = 1
		}
		feasible := phaseOneTol * (1 + floats.Norm(sf.b, math.Inf(1)))
		infeasibility := func() float64 {
			var sum float64
			for i, j := range tb.basis {
				if c[j] != 0 {
					sum += tb.beta[i]
				}
			}
			return sum
		}
		tb.price(c)
		err := tb.iterate(ctx, tol, limit, func() bool { return infeasibility() <= feasible })
		if err != nil {
			return nil, fmt.Errorf("phase one: %w", err)
		}
		if r := infeasibility(); r > feasible {
			return nil, fmt.Errorf("%w: phase one residual %g", ErrInfeasible, r)
		}
		for _, j := range sf.artificial {
			tb.upper[j] = 0
			tb.barred[j] = true
		}
	}

	tb.price(sf.cost)
	if err := tb.iterate(ctx, tol, limit, nil); err != nil {
		return nil, fmt.Errorf("phase two: %w", err)
	}
	return tb.values()[:sf.nStruct], nil
}

// assign writes structural column values back onto presolved variables.
func (sf *standardForm) assign(cols []float64, x []float64) {
	for _, sv := range sf.vars {
		val := sv.base
		for i, col := range sv.cols {
			val += sv.signs[i] * cols[col]
		}
		x[sv.v] = val
	}
}
