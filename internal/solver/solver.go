// Package solver minimizes smooth nonlinear objectives subject to inequality
// constraints and simple bounds.
package solver

import (
	"context"
	"errors"
)

var (
	// ErrNotConverged is returned when the line search cannot make progress.
	ErrNotConverged = errors.New("solver did not converge")

	// ErrInfeasible is returned when bounds or linearized constraints admit no point.
	ErrInfeasible = errors.New("problem is infeasible")

	// ErrIterationLimit is returned when MaxIterations is reached before convergence.
	ErrIterationLimit = errors.New("iteration limit reached")

	// ErrInvalidProblem is returned for malformed problems.
	ErrInvalidProblem = errors.New("invalid problem")
)

// Func is a scalar function of the decision vector.
type Func func(x []float64) float64

// Problem describes
//
//	minimize    Objective(x)
//	subject to  Inequalities[i](x) >= 0
//	            Lower[j] <= x[j] <= Upper[j]
//
// Lower and Upper may be nil for an unbounded problem; use ±Inf for a
// single open side.
type Problem struct {
	Objective    Func
	Inequalities []Func
	Lower        []float64
	Upper        []float64
	X0           []float64
}

// Result is the outcome of a successful solve.
type Result struct {
	X           []float64
	F           float64
	Iterations  int
	Multipliers []float64 // one per inequality at X
}

// Solver is a constrained nonlinear minimizer.
type Solver interface {
	Solve(ctx context.Context, p Problem) (Result, error)
}
