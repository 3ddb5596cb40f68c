package solver

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// qpResult is the solution of a quadratic subproblem.
type qpResult struct {
	d      []float64 // primal step
	lambda []float64 // one multiplier per row of A, >= 0
}

// solveQP solves the strictly convex quadratic program
//
//	minimize    ½ dᵀBd + gᵀd
//	subject to  A d >= b
//
// through its dual, min ½ λᵀHλ + qᵀλ over λ >= 0 with H = A B⁻¹ Aᵀ and
// q = -(A B⁻¹ g + b), using a Lawson-Hanson style active-set method. The
// primal step is recovered as d = B⁻¹(Aᵀλ - g). B must be positive definite.
// Rows that are positive multiples of each other are merged first, keeping
// the tightest; dropped rows get a zero multiplier. A primal step that still
// violates A d >= b by more than feasTol means the constraints are
// incompatible.
func solveQP(B *mat.SymDense, g []float64, A [][]float64, b []float64, feasTol float64) (qpResult, error) {
	n := len(g)
	m := len(A)

	var chol mat.Cholesky
	if ok := chol.Factorize(B); !ok {
		return qpResult{}, fmt.Errorf("%w: hessian approximation not positive definite", ErrNotConverged)
	}

	gv := mat.NewVecDense(n, append([]float64(nil), g...))
	var binvG mat.VecDense
	if err := chol.SolveVecTo(&binvG, gv); err != nil {
		return qpResult{}, fmt.Errorf("%w: %v", ErrNotConverged, err)
	}

	if m == 0 {
		d := make([]float64, n)
		for i := range d {
			d[i] = -binvG.AtVec(i)
		}
		return qpResult{d: d}, nil
	}

	kept := mergeParallelRows(A, b)
	k := len(kept)
	a := mat.NewDense(k, n, nil)
	for r, i := range kept {
		a.SetRow(r, A[i])
	}
	var binvAt mat.Dense
	if err := chol.SolveTo(&binvAt, a.T()); err != nil {
		return qpResult{}, fmt.Errorf("%w: %v", ErrNotConverged, err)
	}

	var h mat.Dense
	h.Mul(a, &binvAt)
	var aBinvG mat.VecDense
	aBinvG.MulVec(a, &binvG)

	q := make([]float64, k)
	hScale := 1.0
	for r, i := range kept {
		q[r] = -(aBinvG.AtVec(r) + b[i])
		hScale = math.Max(hScale, h.At(r, r))
	}
	// Opposite rows (both bounds of one variable) still make H singular.
	reg := 1e-12 * hScale
	for r := 0; r < k; r++ {
		h.Set(r, r, h.At(r, r)+reg)
	}

	reduced := nnQP(&h, q)

	// d = B⁻¹(Aᵀλ - g) = B⁻¹Aᵀλ - B⁻¹g
	d := make([]float64, n)
	for j := 0; j < n; j++ {
		var v float64
		for r := 0; r < k; r++ {
			v += binvAt.At(j, r) * reduced[r]
		}
		d[j] = v - binvG.AtVec(j)
	}

	lambda := make([]float64, m)
	for r, i := range kept {
		lambda[i] = reduced[r]
	}

	for i, row := range A {
		var ad float64
		for j := range row {
			ad += row[j] * d[j]
		}
		if ad-b[i] < -feasTol*(1+math.Abs(b[i])) {
			return qpResult{}, fmt.Errorf("%w: linearized constraint %d violated by %g", ErrInfeasible, i, b[i]-ad)
		}
	}

	return qpResult{d: d, lambda: lambda}, nil
}

// parallelTol bounds the difference between normalized rows treated as
// parallel. Finite-difference Jacobian rows of linear constraints carry
// roundoff near 1e-8.
const parallelTol = 1e-7

// mergeParallelRows returns the indices of the rows of A d >= b to keep.
// Among rows pointing the same way only the one with the largest normalized
// right-hand side survives; the others are implied by it. Zero rows are kept.
func mergeParallelRows(A [][]float64, b []float64) []int {
	// dir is the unit row; rhs is b/|row| of the best row so far.
	type group struct {
		dir  []float64
		best int
		rhs  float64
	}
	var groups []*group
	var kept []int

	for i, row := range A {
		norm := floats.Norm(row, 2)
		if norm == 0 {
			kept = append(kept, i)
			continue
		}
		dir := make([]float64, len(row))
		floats.ScaleTo(dir, 1/norm, row)
		rhs := b[i] / norm

		var match *group
		for _, g := range groups {
			if floats.EqualApprox(g.dir, dir, parallelTol) {
				match = g
				break
			}
		}
		if match == nil {
			groups = append(groups, &group{dir: dir, best: i, rhs: rhs})
			continue
		}
		if rhs > match.rhs {
			match.best, match.rhs = i, rhs
		}
	}

	for _, g := range groups {
		kept = append(kept, g.best)
	}
	sort.Ints(kept)
	return kept
}

// nnQP minimizes ½ λᵀHλ + qᵀλ subject to λ >= 0 for symmetric positive
// definite H. Free variables form the passive set; the rest are held at zero.
func nnQP(h *mat.Dense, q []float64) []float64 {
	m := len(q)
	lambda := make([]float64, m)
	passive := make([]bool, m)

	const tol = 1e-12
	maxOuter := 3*m + 10

	for outer := 0; outer < maxOuter; outer++ {
		// w = -(Hλ + q): descent direction of the dual objective.
		best, bestW := -1, tol
		for i := 0; i < m; i++ {
			if passive[i] {
				continue
			}
			w := -q[i]
			for j := 0; j < m; j++ {
				w -= h.At(i, j) * lambda[j]
			}
			if w > bestW {
				best, bestW = i, w
			}
		}
		if best < 0 {
			break
		}
		passive[best] = true

		for inner := 0; inner < maxOuter; inner++ {
			z := solvePassive(h, q, passive)
			if z == nil {
				passive[best] = false
				return lambda
			}

			feasible := true
			alpha := 1.0
			for i := 0; i < m; i++ {
				if passive[i] && z[i] <= tol {
					feasible = false
					if denom := lambda[i] - z[i]; denom > 0 {
						alpha = math.Min(alpha, lambda[i]/denom)
					}
				}
			}
			if feasible {
				copy(lambda, z)
				break
			}

			if inner == 0 && z[best] <= tol {
				// The entering variable cannot grow; drop it to avoid cycling.
				passive[best] = false
				return lambda
			}

			for i := 0; i < m; i++ {
				lambda[i] += alpha * (z[i] - lambda[i])
				if passive[i] && lambda[i] <= tol {
					passive[i] = false
					lambda[i] = 0
				}
			}
		}
	}
	return lambda
}

// solvePassive solves H_PP z_P = -q_P with z zero outside the passive set.
// Returns nil if the reduced system cannot be factorized.
func solvePassive(h *mat.Dense, q []float64, passive []bool) []float64 {
	var idx []int
	for i, p := range passive {
		if p {
			idx = append(idx, i)
		}
	}
	k := len(idx)
	z := make([]float64, len(q))
	if k == 0 {
		return z
	}

	sub := mat.NewSymDense(k, nil)
	rhs := mat.NewVecDense(k, nil)
	for r, i := range idx {
		rhs.SetVec(r, -q[i])
		for c := r; c < k; c++ {
			sub.SetSym(r, c, h.At(i, idx[c]))
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sub); !ok {
		return nil
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, rhs); err != nil {
		return nil
	}
	for r, i := range idx {
		z[i] = sol.AtVec(r)
	}
	return z
}
