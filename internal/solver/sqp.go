package solver

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SQP is a sequential quadratic programming solver in the SLSQP family:
// finite-difference gradients, a damped BFGS approximation of the Lagrangian
// Hessian, an active-set QP subproblem per iteration, and a backtracking line
// search on the L1 exact-penalty merit function. The initial point is clipped
// into the bounds.
type SQP struct {
	MaxIterations  int     // outer iterations
	Tolerance      float64 // step and objective-change tolerance
	FeasibilityTol float64 // allowed constraint violation at the solution
}

// NewSQP returns an SQP solver with SLSQP-like defaults.
func NewSQP() *SQP {
	return &SQP{
		MaxIterations:  100,
		Tolerance:      1e-6,
		FeasibilityTol: 1e-6,
	}
}

const (
	armijo       = 1e-4
	minStep      = 1e-10
	maxBacktrack = 40
)

// Solve runs SQP iterations until the KKT step is negligible. The context is
// polled once per iteration.
func (s *SQP) Solve(ctx context.Context, p Problem) (Result, error) {
	n := len(p.X0)
	if n == 0 || p.Objective == nil {
		return Result{}, fmt.Errorf("%w: empty decision vector or nil objective", ErrInvalidProblem)
	}
	lower, upper, err := bounds(p, n)
	if err != nil {
		return Result{}, err
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = clamp(p.X0[i], lower[i], upper[i])
	}

	m := len(p.Inequalities)
	f := p.Objective(x)
	c := evalAll(p.Inequalities, x)
	if !finite(f) || !allFinite(c) {
		return Result{}, fmt.Errorf("%w: non-finite value at initial point", ErrInvalidProblem)
	}

	grad := make([]float64, n)
	gradient(p.Objective, x, grad)
	jac := newMatrix(m, n)
	jacobian(p.Inequalities, x, jac)

	hess := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		hess.SetSym(i, i, 1)
	}
	rho := make([]float64, m)
	lambda := make([]float64, m)

	for iter := 1; iter <= s.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		rows, rhs := s.linearize(jac, c, x, lower, upper)
		sub, err := solveQP(hess, grad, rows, rhs, s.FeasibilityTol)
		if err != nil {
			return Result{}, err
		}
		d := sub.d
		copy(lambda, sub.lambda[:m])

		if floats.Norm(d, math.Inf(1)) <= s.Tolerance*(1+floats.Norm(x, math.Inf(1))) {
			if s.feasible(c, x) {
				return s.result(x, f, iter, lambda), nil
			}
			return Result{}, fmt.Errorf("%w: stalled at violation %g", ErrInfeasible, maxViolation(c))
		}

		for i := range rho {
			rho[i] = math.Max(math.Abs(lambda[i]), 0.5*(rho[i]+math.Abs(lambda[i])))
		}

		phi0 := merit(f, c, rho)
		slope := floats.Dot(grad, d) - penalty(c, rho)

		alpha := 1.0
		xNew := make([]float64, n)
		var fNew float64
		var cNew []float64
		accepted := false
		for k := 0; k < maxBacktrack && alpha >= minStep; k++ {
			for i := range xNew {
				xNew[i] = clamp(x[i]+alpha*d[i], lower[i], upper[i])
			}
			fNew = p.Objective(xNew)
			cNew = evalAll(p.Inequalities, xNew)
			if finite(fNew) && allFinite(cNew) && merit(fNew, cNew, rho) <= phi0+armijo*alpha*math.Min(slope, 0) {
				accepted = true
				break
			}
			alpha *= 0.5
		}
		if !accepted {
			return Result{}, fmt.Errorf("%w: line search failed at iteration %d", ErrNotConverged, iter)
		}

		gradNew := make([]float64, n)
		gradient(p.Objective, xNew, gradNew)
		jacNew := newMatrix(m, n)
		jacobian(p.Inequalities, xNew, jacNew)

		step := make([]float64, n)
		floats.SubTo(step, xNew, x)
		dampedBFGS(hess, step, lagrangianGradDiff(grad, gradNew, jac, jacNew, lambda))

		fChange := math.Abs(fNew - f)
		stepNorm := floats.Norm(step, math.Inf(1))
		x, f, c, grad, jac = xNew, fNew, cNew, gradNew, jacNew

		if fChange <= s.Tolerance*(1+math.Abs(f)) &&
			stepNorm <= math.Sqrt(s.Tolerance)*(1+floats.Norm(x, math.Inf(1))) &&
			s.feasible(c, x) {
			return s.result(x, f, iter, lambda), nil
		}
	}

	return Result{}, fmt.Errorf("%w: %d iterations", ErrIterationLimit, s.MaxIterations)
}

// feasible reports whether the worst violation is within FeasibilityTol
// relative to the magnitude of x.
func (s *SQP) feasible(c, x []float64) bool {
	return maxViolation(c) <= s.FeasibilityTol*(1+floats.Norm(x, math.Inf(1)))
}

func (s *SQP) result(x []float64, f float64, iter int, lambda []float64) Result {
	return Result{
		X:           append([]float64(nil), x...),
		F:           f,
		Iterations:  iter,
		Multipliers: append([]float64(nil), lambda...),
	}
}

// linearize builds the QP rows A d >= b: first the inequalities
// (∇cᵢᵀd >= -cᵢ), then finite lower and upper bounds on the step.
func (s *SQP) linearize(jac [][]float64, c, x, lower, upper []float64) ([][]float64, []float64) {
	n := len(x)
	rows := make([][]float64, 0, len(c)+2*n)
	rhs := make([]float64, 0, len(c)+2*n)
	for i := range c {
		rows = append(rows, jac[i])
		rhs = append(rhs, -c[i])
	}
	for j := 0; j < n; j++ {
		if !math.IsInf(lower[j], -1) {
			row := make([]float64, n)
			row[j] = 1
			rows = append(rows, row)
			rhs = append(rhs, lower[j]-x[j])
		}
		if !math.IsInf(upper[j], 1) {
			row := make([]float64, n)
			row[j] = -1
			rows = append(rows, row)
			rhs = append(rhs, x[j]-upper[j])
		}
	}
	return rows, rhs
}

// dampedBFGS applies Powell's damped BFGS update to B in place, keeping it
// positive definite.
func dampedBFGS(b *mat.SymDense, s, y []float64) {
	n := len(s)
	sv := mat.NewVecDense(n, s)
	var bs mat.VecDense
	bs.MulVec(b, sv)
	sBs := mat.Dot(sv, &bs)
	if sBs <= 1e-16 {
		return
	}

	sy := floats.Dot(s, y)
	r := append([]float64(nil), y...)
	if sy < 0.2*sBs {
		theta := 0.8 * sBs / (sBs - sy)
		for i := range r {
			r[i] = theta*y[i] + (1-theta)*bs.AtVec(i)
		}
		sy = floats.Dot(s, r)
	}
	if sy <= 1e-16 {
		return
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := b.At(i, j) + r[i]*r[j]/sy - bs.AtVec(i)*bs.AtVec(j)/sBs
			b.SetSym(i, j, v)
		}
	}
}

// lagrangianGradDiff returns ∇L(x⁺) - ∇L(x) for L = f - λᵀc. Bound terms are
// linear and cancel.
func lagrangianGradDiff(grad, gradNew []float64, jac, jacNew [][]float64, lambda []float64) []float64 {
	y := make([]float64, len(grad))
	for j := range y {
		y[j] = gradNew[j] - grad[j]
		for i := range lambda {
			y[j] -= lambda[i] * (jacNew[i][j] - jac[i][j])
		}
	}
	return y
}

func bounds(p Problem, n int) (lower, upper []float64, err error) {
	lower = make([]float64, n)
	upper = make([]float64, n)
	for i := 0; i < n; i++ {
		lower[i] = math.Inf(-1)
		upper[i] = math.Inf(1)
	}
	if p.Lower != nil {
		if len(p.Lower) != n {
			return nil, nil, fmt.Errorf("%w: lower bounds have length %d, want %d", ErrInvalidProblem, len(p.Lower), n)
		}
		copy(lower, p.Lower)
	}
	if p.Upper != nil {
		if len(p.Upper) != n {
			return nil, nil, fmt.Errorf("%w: upper bounds have length %d, want %d", ErrInvalidProblem, len(p.Upper), n)
		}
		copy(upper, p.Upper)
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(lower[i]) || math.IsNaN(upper[i]) {
			return nil, nil, fmt.Errorf("%w: NaN bound on x[%d]", ErrInvalidProblem, i)
		}
		if lower[i] > upper[i] {
			return nil, nil, fmt.Errorf("%w: lower bound %g exceeds upper bound %g on x[%d]", ErrInfeasible, lower[i], upper[i], i)
		}
	}
	return lower, upper, nil
}

func merit(f float64, c, rho []float64) float64 {
	return f + penalty(c, rho)
}

func penalty(c, rho []float64) float64 {
	var sum float64
	for i, v := range c {
		if v < 0 {
			sum -= rho[i] * v
		}
	}
	return sum
}

func maxViolation(c []float64) float64 {
	var worst float64
	for _, v := range c {
		if -v > worst {
			worst = -v
		}
	}
	return worst
}

func evalAll(fs []Func, x []float64) []float64 {
	out := make([]float64, len(fs))
	for i, f := range fs {
		out[i] = f(x)
	}
	return out
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(vs []float64) bool {
	for _, v := range vs {
		if !finite(v) {
			return false
		}
	}
	return true
}

var _ Solver = (*SQP)(nil)
