package nn

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liptrain/lipschitz"
)

func testSetup(t *testing.T) (*Batch, *lipschitz.Variable) {
	t.Helper()
	lines := SyntheticBlobs(4, 2, 2, rand.NewPCG(31, 31))
	inputs, targets := Matrices(lines)
	batch, err := NewBatch(Tanh{}, CrossEntropy{}, inputs, targets, 4)
	require.NoError(t, err)

	x := lipschitz.NewVariable(lipschitz.Topology{2, 3, 2})
	InitWeights(x, 0.5, 10, rand.NewPCG(37, 37))
	return batch, x
}

func TestBatchGradientFiniteDifference(t *testing.T) {
	batch, x := testSetup(t)

	grad := lipschitz.NewVariable(x.Topo)
	batch.Gradient(x, grad)

	value := func() float64 {
		scratch := lipschitz.NewVariable(x.Topo)
		return batch.Gradient(x, scratch)
	}

	h := 1e-6
	check := func(get func() float64, set func(float64), want float64, context string, args ...interface{}) {
		orig := get()
		set(orig + h)
		up := value()
		set(orig - h)
		down := value()
		set(orig)
		numeric := (up - down) / (2 * h)
		assert.InDelta(t, numeric, want, 1e-5+1e-4*math.Abs(numeric), append([]interface{}{context}, args...)...)
	}

	for l := range x.W {
		rows, cols := x.W[l].Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				r, c := r, c
				check(func() float64 { return x.W[l].At(r, c) },
					func(v float64) { x.W[l].Set(r, c, v) },
					grad.W[l].At(r, c), "W[%d][%d,%d]", l, r, c)
			}
		}
		for r := 0; r < rows; r++ {
			r := r
			check(func() float64 { return x.B[l].AtVec(r) },
				func(v float64) { x.B[l].SetVec(r, v) },
				grad.B[l].AtVec(r), "B[%d][%d]", l, r)
		}
	}
}

func TestBatchGradientIsAdditive(t *testing.T) {
	batch, x := testSetup(t)

	clean := lipschitz.NewVariable(x.Topo)
	batch.Gradient(x, clean)

	seeded := lipschitz.NewVariable(x.Topo)
	for _, s := range seeded.Data() {
		for i := range s {
			s[i] = 0.25
		}
	}
	batch.Gradient(x, seeded)

	for k, s := range seeded.Data() {
		for i, val := range s {
			assert.InDelta(t, 0.25+clean.Data()[k][i], val, 1e-12)
		}
	}
}

func TestBatchRoundRobin(t *testing.T) {
	lines := SyntheticBlobs(6, 2, 2, rand.NewPCG(41, 41))
	inputs, targets := Matrices(lines)
	batch, err := NewBatch(Tanh{}, CrossEntropy{}, inputs, targets, 2)
	require.NoError(t, err)

	x := lipschitz.NewVariable(lipschitz.Topology{2, 3, 2})
	InitWeights(x, 0.5, 10, rand.NewPCG(43, 43))

	grad := lipschitz.NewVariable(x.Topo)
	first := batch.Gradient(x, grad)
	batch.Gradient(x, grad)
	batch.Gradient(x, grad)
	wrapped := batch.Gradient(x, grad)

	// after one full cycle the provider is back at the first minibatch
	assert.InDelta(t, first, wrapped, 1e-12)
}

func TestBatchFullMatchesMinibatchSum(t *testing.T) {
	lines := SyntheticBlobs(6, 2, 2, rand.NewPCG(47, 47))
	inputs, targets := Matrices(lines)
	batch, err := NewBatch(Tanh{}, CrossEntropy{}, inputs, targets, 2)
	require.NoError(t, err)

	x := lipschitz.NewVariable(lipschitz.Topology{2, 3, 2})
	InitWeights(x, 0.5, 10, rand.NewPCG(53, 53))

	sum := 0.0
	scratch := lipschitz.NewVariable(x.Topo)
	for i := 0; i < 3; i++ {
		sum += batch.Gradient(x, scratch)
	}

	full := batch.Full(x, lipschitz.NewVariable(x.Topo))
	assert.InDelta(t, sum, full, 1e-12)
}

func TestNewBatchRejectsBadSizes(t *testing.T) {
	lines := SyntheticBlobs(4, 2, 2, rand.NewPCG(59, 59))
	inputs, targets := Matrices(lines)

	_, err := NewBatch(Tanh{}, CrossEntropy{}, inputs, targets, 3)
	assert.Error(t, err, "non-dividing batch size must be rejected")

	_, err = NewBatch(Tanh{}, CrossEntropy{}, inputs, targets, 0)
	assert.Error(t, err)
}
