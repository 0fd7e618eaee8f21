package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// solveInequalityLP minimizes c'x subject to G x <= h and x >= 0, and
// returns the optimal x. The problem is converted to standard form and
// handed to gonum's simplex solver.
func solveInequalityLP(c []float64, g *mat.Dense, h []float64) ([]float64, error) {
	n := len(c)
	rows, _ := g.Dims()

	// Append -x <= 0 rows to encode the nonnegativity bounds.
	full := mat.NewDense(rows+n, n, nil)
	full.Slice(0, rows, 0, n).(*mat.Dense).Copy(g)
	for i := 0; i < n; i++ {
		full.Set(rows+i, i, -1)
	}
	hFull := make([]float64, rows+n)
	copy(hFull, h)

	cStd, aStd, bStd := lp.Convert(c, full, hFull, nil, nil)
	_, xStd, err := lp.Simplex(cStd, aStd, bStd, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("simplex: %w", err)
	}

	// Standard form splits each free variable into a positive and a
	// negative part; recombine them.
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = xStd[i] - xStd[n+i]
	}
	return x, nil
}

// solveBudgetLP solves the dual-variable initialization LP shared by the
// model-predictive PID and SimpleBid controllers: minimize
// sum(x) + B*p over x, p, q >= 0 subject to, per recorded bin i,
// x_i + p*wp_i + q*(wp_i - C*ctr_i) >= cvr_i.
// Returns the dual variables (p, q).
func solveBudgetLP(curves *RateCurves, B, C float64) (p, q float64, err error) {
	if curves == nil || len(curves.CVR) == 0 {
		return 0, 0, fmt.Errorf("budget LP: no rate curves observed yet")
	}
	n := len(curves.CVR)

	c := make([]float64, n+2)
	for i := 0; i < n; i++ {
		c[i] = 1
	}
	c[n] = B
	c[n+1] = 0

	g := mat.NewDense(n, n+2, nil)
	h := make([]float64, n)
	for i := 0; i < n; i++ {
		g.Set(i, i, -1)
		g.Set(i, n, -curves.WP[i])
		g.Set(i, n+1, -(curves.WP[i] - C*curves.CTR[i]))
		h[i] = -curves.CVR[i]
	}

	x, err := solveInequalityLP(c, g, h)
	if err != nil {
		return 0, 0, err
	}
	return x[n], x[n+1], nil
}

// solveRobustLP solves the worst-case regret problem of RobustBid for the
// dual variables (gamma, u0). The rate-uncertainty direction delta and the
// confidence weights u are frozen at their warm-start point (the ball
// boundary towards the observed conversion rates, and 1/sqrt(T) for an
// actively winning campaign), which reduces the convex program to a
// piecewise-linear one:
//
//	minimize gamma*B + sum_i max(0, e_i(gamma, u0)),  gamma, u0 >= 0
//	e_i = -delta_i*cvr_i - gamma*wp_i - alpha*u_i - u0*wp_i + C*u0*ctr_i
func solveRobustLP(curves *RateCurves, B, alpha, C float64, winning bool, cvrList []float64, T int) (gamma, u0 float64, err error) {
	if curves == nil || len(curves.CVR) == 0 {
		return 0, 0, fmt.Errorf("robust LP: no rate curves observed yet")
	}
	n := len(curves.CVR)

	delta := make([]float64, n)
	u := make([]float64, n)
	for i := 0; i < n; i++ {
		delta[i] = -curves.CTR[i]
	}
	if winning {
		if norm := floats.Norm(cvrList, 2); norm > 0 {
			for i := 0; i < n; i++ {
				delta[i] += alpha * curves.CVR[i] / norm
			}
		} else {
			for i := 0; i < n; i++ {
				delta[i] += alpha * curves.CVR[i]
			}
		}
		if T >= 1 {
			for i := 0; i < n; i++ {
				u[i] = 1 / math.Sqrt(float64(T))
			}
		}
	}

	// Variables z = (gamma, u0, t_1..t_n) with t_i >= max(0, e_i).
	c := make([]float64, n+2)
	c[0] = B
	for i := 0; i < n; i++ {
		c[2+i] = 1
	}

	g := mat.NewDense(n, n+2, nil)
	h := make([]float64, n)
	for i := 0; i < n; i++ {
		g.Set(i, 0, -curves.WP[i])
		g.Set(i, 1, C*curves.CTR[i]-curves.WP[i])
		g.Set(i, 2+i, -1)
		h[i] = delta[i]*curves.CVR[i] + alpha*u[i]
	}

	z, err := solveInequalityLP(c, g, h)
	if err != nil {
		return 0, 0, err
	}
	return z[0], z[1], nil
}
