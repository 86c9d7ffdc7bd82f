package planner

import "gonum.org/v1/gonum/mat"

// Discretize returns the discrete-time double integrator with step h,
// x_{k+1} = A x_k + B u_k, where x = (position, velocity) and u is the
// acceleration held constant over the step:
//
//	A = [1 h]    B = [h²/2]
//	    [0 1]        [h   ]
func Discretize(h float64) (a, b *mat.Dense) {
	a = mat.NewDense(2, 2, []float64{
		1, h,
		0, 1,
	})
	b = mat.NewDense(2, 1, []float64{
		h * h / 2,
		h,
	})
	return a, b
}

// Rollout propagates x0 through controls and returns len(controls)+1 states,
// starting with x0.
func Rollout(x0 State, controls []float64, h float64) []State {
	a, b := Discretize(h)
	x := mat.NewVecDense(2, []float64{x0.Position, x0.Velocity})

	states := make([]State, 0, len(controls)+1)
	states = append(states, x0)
	var ax, bu mat.VecDense
	for _, u := range controls {
		ax.MulVec(a, x)
		bu.MulVec(b, mat.NewVecDense(1, []float64{u}))
		next := mat.NewVecDense(2, nil)
		next.AddVec(&ax, &bu)
		x = next
		states = append(states, State{Position: x.AtVec(0), Velocity: x.AtVec(1)})
	}
	return states
}
