package lipschitz

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logDetChi(t *testing.T, v *Variable, lip float64) float64 {
	t.Helper()
	f, err := Factorize(v.Topo, lip, v.W, v.T, 0)
	require.NoError(t, err)

	ld := 2 * float64(v.Topo[0]) * math.Log(f.D0())
	for i := 1; i <= v.Topo.Layers(); i++ {
		d := f.Diag(i)
		n, _ := d.Dims()
		for r := 0; r < n; r++ {
			ld += 2 * math.Log(d.At(r, r))
		}
	}
	return ld
}

func assertGradEntry(t *testing.T, want, got float64, context string, args ...interface{}) {
	t.Helper()
	tol := 1e-5 + 1e-4*math.Abs(want)
	assert.InDelta(t, want, got, tol, append([]interface{}{context}, args...)...)
}

func TestBarrierWeightGradientFiniteDifference(t *testing.T) {
	v := testVariable()
	lip := 5.0
	gamma := 0.7
	b := &Barrier{Lipschitz: lip, Cond: 0}

	grad := NewVariable(v.Topo)
	_, err := b.Gradient(v, grad, gamma)
	require.NoError(t, err)

	h := 1e-6
	for l := range v.W {
		rows, cols := v.W[l].Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				orig := v.W[l].At(r, c)
				v.W[l].Set(r, c, orig+h)
				up := -gamma * logDetChi(t, v, lip)
				v.W[l].Set(r, c, orig-h)
				down := -gamma * logDetChi(t, v, lip)
				v.W[l].Set(r, c, orig)

				assertGradEntry(t, (up-down)/(2*h), grad.W[l].At(r, c),
					"W[%d][%d,%d]", l, r, c)
			}
		}
	}
}

func TestBarrierMultiplierGradientFiniteDifference(t *testing.T) {
	v := testVariable()
	lip := 5.0
	b := &Barrier{Lipschitz: lip, Cond: 0}

	grad := NewVariable(v.Topo)
	_, err := b.Gradient(v, grad, 0.3)
	require.NoError(t, err)

	// The multiplier term is built without the barrier weight, so it is
	// checked against the plain negative log determinant.
	h := 1e-6
	for l := range v.T {
		for r := 0; r < v.T[l].Len(); r++ {
			orig := v.T[l].AtVec(r)
			v.T[l].SetVec(r, orig+h)
			up := -logDetChi(t, v, lip)
			v.T[l].SetVec(r, orig-h)
			down := -logDetChi(t, v, lip)
			v.T[l].SetVec(r, orig)

			assertGradEntry(t, (up-down)/(2*h), grad.T[l].AtVec(r),
				"T[%d][%d]", l, r)
		}
	}
}

func TestBarrierGradientIsAdditive(t *testing.T) {
	v := testVariable()
	b := &Barrier{Lipschitz: 5, Cond: 0}
	gamma := 0.4

	clean := NewVariable(v.Topo)
	_, err := b.Gradient(v, clean, gamma)
	require.NoError(t, err)

	seeded := NewVariable(v.Topo)
	for _, s := range seeded.Data() {
		for i := range s {
			s[i] = 0.5
		}
	}
	_, err = b.Gradient(v, seeded, gamma)
	require.NoError(t, err)

	for k, s := range seeded.Data() {
		for i, val := range s {
			assert.InDelta(t, 0.5+clean.Data()[k][i], val, 1e-12)
		}
	}
}

func TestFixedBarrierGradient(t *testing.T) {
	v := testVariable()
	lip := 5.0
	gamma := 0.6
	b := NewFixedBarrier(lip, v.T)

	grad := NewVariable(v.Topo)
	_, err := b.Gradient(v, grad, gamma)
	require.NoError(t, err)

	// Multiplier slots stay untouched by the weight-only variant.
	for l := range grad.T {
		for r := 0; r < grad.T[l].Len(); r++ {
			assert.Zero(t, grad.T[l].AtVec(r))
		}
	}

	h := 1e-6
	for l := range v.W {
		rows, cols := v.W[l].Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				orig := v.W[l].At(r, c)
				v.W[l].Set(r, c, orig+h)
				up := -gamma * logDetChi(t, v, lip)
				v.W[l].Set(r, c, orig-h)
				down := -gamma * logDetChi(t, v, lip)
				v.W[l].Set(r, c, orig)

				assertGradEntry(t, (up-down)/(2*h), grad.W[l].At(r, c),
					"W[%d][%d,%d]", l, r, c)
			}
		}
	}
}

func TestBarrierInfeasibleIterate(t *testing.T) {
	v := testVariable()
	v.W[1].Scale(40, v.W[1])

	grad := NewVariable(v.Topo)
	_, err := (&Barrier{Lipschitz: 5, Cond: 0}).Gradient(v, grad, 1)
	assert.ErrorIs(t, err, ErrNotPositiveDefinite)
}
