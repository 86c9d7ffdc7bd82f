package lp

import (
	"fmt"
	"math"
	"sort"
)

const (
	// feasTol is the absolute slack allowed when checking rows and bounds.
	feasTol = 1e-9

	// dropTol is the magnitude below which a coefficient produced by
	// substitution is treated as zero.
	dropTol = 1e-12

	// pivotRatio rejects pivots much smaller than the largest entry of their row.
	pivotRatio = 1e-3
)

// prow is a constraint row in the presolver's working copy.
type prow struct {
	name string
	coef map[int]float64
	rel  Relation
	rhs  float64
}

// elimination records x[v] = rhs - sum(coef[j] * x[j]).
type elimination struct {
	v    int
	rhs  float64
	coef map[int]float64
}

// presolver shrinks a Problem before it is handed to the simplex.
//
// It removes fixed variables, rows that became empty, variables that appear
// in no row, and variables that an equality row defines without tightening
// their bounds (free or implied-free columns). Every removal is recorded so
// postsolve can rebuild a full assignment.
type presolver struct {
	lo, hi []float64
	cost   []float64
	offset float64
	rows   []*prow
	active []bool
	value  []float64
	elims  []elimination
}

func newPresolver(p *Problem, cost []float64) *presolver {
	n := p.NumVars()
	ps := &presolver{
		lo:     make([]float64, n),
		hi:     make([]float64, n),
		cost:   append([]float64(nil), cost...),
		rows:   make([]*prow, 0, len(p.cons)),
		active: make([]bool, n),
		value:  make([]float64, n),
	}
	for i, v := range p.vars {
		ps.lo[i] = v.Lower
		ps.hi[i] = v.Upper
		ps.active[i] = true
	}
	for _, c := range p.cons {
		r := &prow{name: c.Name, coef: make(map[int]float64, len(c.Terms)), rel: c.Rel, rhs: c.RHS}
		for _, t := range c.Terms {
			r.coef[int(t.Var)] += t.Coef
		}
		for j, a := range r.coef {
			if a == 0 {
				delete(r.coef, j)
			}
		}
		ps.rows = append(ps.rows, r)
	}
	return ps
}

// run applies reductions until none applies.
func (ps *presolver) run() error {
	for {
		changed, err := ps.pass()
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
	}
}

func (ps *presolver) pass() (bool, error) {
	changed := false

	for v := range ps.active {
		if ps.active[v] && ps.lo[v] == ps.hi[v] {
			ps.fix(v, ps.lo[v])
			changed = true
		}
	}
	if err := ps.dropEmptyRows(); err != nil {
		return false, err
	}

	// A singleton equality pins its variable.
	for i, r := range ps.rows {
		if r == nil || r.rel != EQ || len(r.coef) != 1 {
			continue
		}
		for v, a := range r.coef {
			val := r.rhs / a
			if val < ps.lo[v]-feasTol || val > ps.hi[v]+feasTol {
				return false, fmt.Errorf("%w: %s forces %g outside [%g, %g]", ErrInfeasible, r.name, val, ps.lo[v], ps.hi[v])
			}
			ps.rows[i] = nil
			ps.fix(v, math.Min(math.Max(val, ps.lo[v]), ps.hi[v]))
			changed = true
		}
	}
	if err := ps.dropEmptyRows(); err != nil {
		return false, err
	}

	for _, i := range ps.equalityOrder() {
		r := ps.rows[i]
		if r == nil {
			continue
		}
		if v, ok := ps.pivot(r); ok {
			ps.substitute(v, i)
			changed = true
		}
	}
	if err := ps.dropEmptyRows(); err != nil {
		return false, err
	}

	dropped, err := ps.dropEmptyColumns()
	if err != nil {
		return false, err
	}
	return changed || dropped, nil
}

// fix removes v from the problem with the given value.
func (ps *presolver) fix(v int, val float64) {
	ps.value[v] = val
	ps.active[v] = false
	for _, r := range ps.rows {
		if r == nil {
			continue
		}
		if a, ok := r.coef[v]; ok {
			r.rhs -= a * val
			delete(r.coef, v)
		}
	}
	ps.offset += ps.cost[v] * val
	ps.cost[v] = 0
}

func (ps *presolver) dropEmptyRows() error {
	for i, r := range ps.rows {
		if r == nil || len(r.coef) > 0 {
			continue
		}
		infeasible := false
		switch r.rel {
		case EQ:
			infeasible = math.Abs(r.rhs) > feasTol
		case LE:
			infeasible = r.rhs < -feasTol
		case GE:
			infeasible = r.rhs > feasTol
		}
		if infeasible {
			return fmt.Errorf("%w: %s reduces to 0 %s %g", ErrInfeasible, r.name, r.rel, r.rhs)
		}
		ps.rows[i] = nil
	}
	return nil
}

// dropEmptyColumns settles variables that no row references at the bound
// favoured by their cost.
func (ps *presolver) dropEmptyColumns() (bool, error) {
	used := make([]bool, len(ps.active))
	for _, r := range ps.rows {
		if r == nil {
			continue
		}
		for j := range r.coef {
			used[j] = true
		}
	}

	dropped := false
	for v := range ps.active {
		if !ps.active[v] || used[v] {
			continue
		}
		c := ps.cost[v]
		var val float64
		switch {
		case c > dropTol:
			val = ps.lo[v]
		case c < -dropTol:
			val = ps.hi[v]
		case !math.IsInf(ps.lo[v], 0):
			val = ps.lo[v]
		case !math.IsInf(ps.hi[v], 0):
			val = ps.hi[v]
		}
		if math.IsInf(val, 0) {
			return false, fmt.Errorf("%w: variable %d is unconstrained in the improving direction", ErrUnbounded, v)
		}
		ps.fix(v, val)
		dropped = true
	}
	return dropped, nil
}

// equalityOrder lists live equality rows, shortest first.
func (ps *presolver) equalityOrder() []int {
	idx := make([]int, 0, len(ps.rows))
	for i, r := range ps.rows {
		if r != nil && r.rel == EQ {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return len(ps.rows[idx[a]].coef) < len(ps.rows[idx[b]].coef)
	})
	return idx
}

// pivot picks the variable of r to eliminate, if any is eligible.
func (ps *presolver) pivot(r *prow) (int, bool) {
	var largest float64
	for _, a := range r.coef {
		largest = math.Max(largest, math.Abs(a))
	}

	best, bestAbs := -1, 0.0
	for _, v := range sortedKeys(r.coef) {
		a := math.Abs(r.coef[v])
		if a < pivotRatio*largest || a <= bestAbs {
			continue
		}
		if ps.free(v) || ps.impliedFree(v, r) {
			best, bestAbs = v, a
		}
	}
	return best, best >= 0
}

func (ps *presolver) free(v int) bool {
	return math.IsInf(ps.lo[v], -1) && math.IsInf(ps.hi[v], 1)
}

// impliedFree reports whether row r alone keeps v inside its bounds given the
// bounds of the other variables in r.
func (ps *presolver) impliedFree(v int, r *prow) bool {
	var minSum, maxSum float64
	for j, a := range r.coef {
		if j == v {
			continue
		}
		if a > 0 {
			minSum += a * ps.lo[j]
			maxSum += a * ps.hi[j]
		} else {
			minSum += a * ps.hi[j]
			maxSum += a * ps.lo[j]
		}
	}
	a := r.coef[v]
	lo, hi := (r.rhs-maxSum)/a, (r.rhs-minSum)/a
	if a < 0 {
		lo, hi = hi, lo
	}
	return lo >= ps.lo[v]-feasTol && hi <= ps.hi[v]+feasTol
}

// substitute eliminates v using row i and removes the row.
func (ps *presolver) substitute(v, i int) {
	r := ps.rows[i]
	a := r.coef[v]
	e := elimination{v: v, rhs: r.rhs / a, coef: make(map[int]float64, len(r.coef)-1)}
	for j, c := range r.coef {
		if j != v {
			e.coef[j] = c / a
		}
	}
	ps.rows[i] = nil

	for _, s := range ps.rows {
		if s == nil {
			continue
		}
		c, ok := s.coef[v]
		if !ok {
			continue
		}
		delete(s.coef, v)
		for j, cj := range e.coef {
			nv := s.coef[j] - c*cj
			if math.Abs(nv) < dropTol {
				delete(s.coef, j)
			} else {
				s.coef[j] = nv
			}
		}
		s.rhs -= c * e.rhs
	}

	if cv := ps.cost[v]; cv != 0 {
		for j, cj := range e.coef {
			ps.cost[j] -= cv * cj
		}
		ps.offset += cv * e.rhs
		ps.cost[v] = 0
	}

	ps.active[v] = false
	ps.elims = append(ps.elims, e)
}

// postsolve fills the values of eliminated variables. x must already hold the
// values of the variables that survived presolve.
func (ps *presolver) postsolve(x []float64) {
	for v := range ps.active {
		if !ps.active[v] {
			x[v] = ps.value[v]
		}
	}
	for i := len(ps.elims) - 1; i >= 0; i-- {
		e := ps.elims[i]
		val := e.rhs
		for _, j := range sortedKeys(e.coef) {
			val -= e.coef[j] * x[j]
		}
		x[e.v] = val
	}
}

func sortedKeys(m map[int]float64) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
