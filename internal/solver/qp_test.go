package solver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func identity(n int) *mat.SymDense {
	b := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		b.SetSym(i, i, 1)
	}
	return b
}

func TestSolveQP(t *testing.T) {
	tests := []struct {
		name       string
		g          []float64
		A          [][]float64
		b          []float64
		wantD      []float64
		wantLambda []float64
	}{
		{
			name:  "unconstrained",
			g:     []float64{-2, 4},
			wantD: []float64{2, -4},
		},
		{
			name:       "inactive constraint",
			g:          []float64{-1},
			A:          [][]float64{{-1}},
			b:          []float64{-5},
			wantD:      []float64{1},
			wantLambda: []float64{0},
		},
		{
			// min ½d² - 40d s.t. d <= 10, d <= 17.5, d >= -9
			name:       "tightest upper row binds",
			g:          []float64{-40},
			A:          [][]float64{{-1}, {-1}, {1}},
			b:          []float64{-10, -17.5, -9},
			wantD:      []float64{10},
			wantLambda: []float64{30, 0, 0},
		},
		{
			// d <= 10 appears twice, once scaled by 2
			name:       "scaled duplicate row",
			g:          []float64{-40},
			A:          [][]float64{{-1}, {-2}, {1}},
			b:          []float64{-10, -20, -9},
			wantD:      []float64{10},
			wantLambda: []float64{30, 0, 0},
		},
		{
			// min ½|d|² + (1,1)·d s.t. d1 + d2 >= 1
			name:       "two dimensional",
			g:          []float64{1, 1},
			A:          [][]float64{{1, 1}},
			b:          []float64{1},
			wantD:      []float64{0.5, 0.5},
			wantLambda: []float64{1.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := solveQP(identity(len(tt.g)), tt.g, tt.A, tt.b, 1e-9)
			require.NoError(t, err)
			for i := range tt.wantD {
				assert.InDelta(t, tt.wantD[i], res.d[i], 1e-8)
			}
			for i := range tt.wantLambda {
				assert.InDelta(t, tt.wantLambda[i], res.lambda[i], 1e-8)
			}
		})
	}
}

func TestMergeParallelRows(t *testing.T) {
	tests := []struct {
		name string
		A    [][]float64
		b    []float64
		want []int
	}{
		{"no rows", nil, nil, nil},
		{"opposite rows kept", [][]float64{{1}, {-1}}, []float64{0, -5}, []int{0, 1}},
		{"tighter upper row wins", [][]float64{{-1}, {-1}}, []float64{-13.512, -16.89}, []int{0}},
		{"tighter row wins after scaling", [][]float64{{-2, 0}, {-1, 0}}, []float64{-30, -10}, []int{1}},
		{"nearly parallel finite-difference row", [][]float64{{-1.00000000003}, {-1}}, []float64{-1.9e-6, -3.4}, []int{0}},
		{"zero row kept", [][]float64{{0, 0}, {1, 1}}, []float64{0, 1}, []int{0, 1}},
		{"different directions", [][]float64{{1, 0}, {0, 1}, {1, 1}}, []float64{0, 0, 0}, []int{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeParallelRows(tt.A, tt.b))
		})
	}
}

func TestSolveQP_Incompatible(t *testing.T) {
	// d >= 1 and d <= -1
	_, err := solveQP(identity(1), []float64{0}, [][]float64{{1}, {-1}}, []float64{1, 1}, 1e-9)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInfeasible))
}

func TestDampedBFGS_KeepsPositiveDefinite(t *testing.T) {
	b := identity(2)
	// Negative curvature pair triggers damping.
	dampedBFGS(b, []float64{1, 0}, []float64{-1, 0})

	var chol mat.Cholesky
	assert.True(t, chol.Factorize(b))
}
