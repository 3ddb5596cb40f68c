package solver

import "math"

// Step scale for central differences: cbrt(machine epsilon).
var diffStep = math.Cbrt(2.220446049250313e-16)

// gradient approximates ∇f at x by central differences. x is restored on return.
func gradient(f Func, x []float64, dst []float64) {
	for i := range x {
		h := diffStep * math.Max(1, math.Abs(x[i]))
		xi := x[i]
		x[i] = xi + h
		fp := f(x)
		x[i] = xi - h
		fm := f(x)
		x[i] = xi
		dst[i] = (fp - fm) / (2 * h)
	}
}

// jacobian approximates the gradient of every function in fs at x, row-wise.
func jacobian(fs []Func, x []float64, dst [][]float64) {
	for i, f := range fs {
		gradient(f, x, dst[i])
	}
}
