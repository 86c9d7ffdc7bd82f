package lp

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// pivotTol is the smallest tableau entry accepted as a pivot.
	pivotTol = 1e-9

	// phaseOneTol bounds the artificial sum, relative to the largest
	// right-hand side, for a problem to count as feasible.
	phaseOneTol = 1e-8

	// degenerateStep is the step length below which a pivot makes no progress.
	degenerateStep = 1e-12

	// blandAfter is the number of consecutive degenerate pivots after which
	// pricing switches to the smallest-index rule until progress resumes.
	blandAfter = 32

	// iterationFactor scales the pivot limit with the tableau size.
	iterationFactor = 50
)

// tableau is a dense bounded-variable simplex over A x = b, 0 <= x <= upper.
//
// t holds B⁻¹A for the current basis, beta the values of the basic columns
// and d the reduced costs. Nonbasic columns sit at zero or, when atUpper is
// set, at their upper bound.
type tableau struct {
	t       *mat.Dense
	beta    []float64
	d       []float64
	upper   []float64
	basis   []int
	row     []int
	atUpper []bool
	barred  []bool
}

// newTableau starts from the unit basis of sf with every other column at zero.
func newTableau(sf *standardForm) *tableau {
	m, n := sf.a.Dims()
	tb := &tableau{
		t:       mat.DenseCopyOf(sf.a),
		beta:    append([]float64(nil), sf.b...),
		d:       make([]float64, n),
		upper:   append([]float64(nil), sf.upper...),
		basis:   append([]int(nil), sf.basis...),
		row:     make([]int, n),
		atUpper: make([]bool, n),
		barred:  make([]bool, n),
	}
	for j := range tb.row {
		tb.row[j] = -1
	}
	for i := 0; i < m; i++ {
		tb.row[tb.basis[i]] = i
	}
	return tb
}

// price computes the reduced costs of c for the current basis.
func (tb *tableau) price(c []float64) {
	copy(tb.d, c)
	for i, j := range tb.basis {
		if cb := c[j]; cb != 0 {
			floats.AddScaled(tb.d, -cb, tb.t.RawRowView(i))
		}
	}
	for _, j := range tb.basis {
		tb.d[j] = 0
	}
}

// iterate pivots until no column improves the objective, stop reports true,
// ctx is done or the pivot limit is reached.
func (tb *tableau) iterate(ctx context.Context, tol float64, limit int, stop func() bool) error {
	degenerate := 0
	for it := 0; ; it++ {
		if stop != nil && stop() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v after %d pivots", ErrUnavailable, err, it)
		}
		if it >= limit {
			return fmt.Errorf("%w: no optimum after %d pivots", ErrUnavailable, it)
		}

		bland := degenerate >= blandAfter
		q, dir := tb.entering(tol, bland)
		if q < 0 {
			return nil
		}
		r, step, toUpper := tb.leaving(q, dir, bland)
		if math.IsInf(step, 1) {
			return fmt.Errorf("%w: column %d improves without limit", ErrUnbounded, q)
		}
		if step <= degenerateStep {
			degenerate++
		} else {
			degenerate = 0
		}
		from := 0.0
		if tb.atUpper[q] {
			from = tb.upper[q]
		}
		tb.move(q, dir, step)
		if r < 0 {
			tb.atUpper[q] = !tb.atUpper[q]
			continue
		}
		tb.pivot(r, q, from+dir*step, toUpper)
	}
}

// entering picks a nonbasic column whose move lowers the objective and the
// direction of that move. It returns -1 when the basis is optimal.
func (tb *tableau) entering(tol float64, bland bool) (int, float64) {
	best, dir, score := -1, 0.0, 0.0
	for j, dj := range tb.d {
		if tb.row[j] >= 0 || tb.barred[j] {
			continue
		}
		var s, dj2 float64
		switch {
		case !tb.atUpper[j] && dj < -tol:
			s, dj2 = -dj, 1
		case tb.atUpper[j] && dj > tol:
			s, dj2 = dj, -1
		default:
			continue
		}
		if bland {
			return j, dj2
		}
		if s > score {
			best, dir, score = j, dj2, s
		}
	}
	return best, dir
}

// leaving runs the ratio test for moving column q in direction dir. It returns
// the blocking row, or -1 when q reaches its own opposite bound first, along
// with the step length and whether the leaving column ends at its upper bound.
func (tb *tableau) leaving(q int, dir float64, bland bool) (int, float64, bool) {
	best, step, toUpper := -1, tb.upper[q], false
	var bestPivot float64
	m, _ := tb.t.Dims()
	for i := 0; i < m; i++ {
		g := tb.t.At(i, q) * dir
		var limit float64
		var up bool
		switch {
		case g > pivotTol:
			limit = tb.beta[i] / g
		case g < -pivotTol && !math.IsInf(tb.upper[tb.basis[i]], 1):
			limit = (tb.upper[tb.basis[i]] - tb.beta[i]) / -g
			up = true
		default:
			continue
		}
		limit = math.Max(limit, 0)

		switch {
		case limit < step-degenerateStep:
		case limit <= step+degenerateStep && best >= 0:
			if bland && tb.basis[i] > tb.basis[best] {
				continue
			}
			if !bland && math.Abs(g) <= bestPivot {
				continue
			}
		default:
			continue
		}
		best, step, toUpper, bestPivot = i, limit, up, math.Abs(g)
	}
	return best, step, toUpper
}

// move shifts column q by step in direction dir and updates the basic values.
func (tb *tableau) move(q int, dir, step float64) {
	if step == 0 {
		return
	}
	for i := range tb.beta {
		if a := tb.t.At(i, q); a != 0 {
			tb.beta[i] -= a * dir * step
		}
	}
}

// pivot makes q basic in row r with the given value. The column leaving the
// basis is parked at its upper bound when toUpper is set and at zero otherwise.
func (tb *tableau) pivot(r, q int, value float64, toUpper bool) {
	m, _ := tb.t.Dims()
	p := tb.basis[r]

	pr := tb.t.RawRowView(r)
	floats.Scale(1/pr[q], pr)
	pr[q] = 1
	for i := 0; i < m; i++ {
		if i == r {
			continue
		}
		ri := tb.t.RawRowView(i)
		if f := ri[q]; f != 0 {
			floats.AddScaled(ri, -f, pr)
			ri[q] = 0
		}
	}
	if f := tb.d[q]; f != 0 {
		floats.AddScaled(tb.d, -f, pr)
		tb.d[q] = 0
	}

	tb.row[p] = -1
	tb.atUpper[p] = toUpper
	tb.row[q] = r
	tb.basis[r] = q
	tb.atUpper[q] = false
	tb.beta[r] = value
}

// values returns the current value of every column.
func (tb *tableau) values() []float64 {
	x := make([]float64, len(tb.row))
	for j, i := range tb.row {
		switch {
		case i >= 0:
			x[j] = tb.beta[i]
		case tb.atUpper[j]:
			x[j] = tb.upper[j]
		}
	}
	return x
}
