package nn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"liptrain/lipschitz"
)

// Network evaluates a feed-forward net over a weight variable. Hidden
// layers share one activation; the output layer is linear.
type Network struct {
	Act Activator
}

// Forward propagates a batch (one sample per column) and returns the
// output-layer preactivation.
func (n *Network) Forward(v *lipschitz.Variable, input *mat.Dense) *mat.Dense {
	L := v.Topo.Layers()
	_, batch := input.Dims()

	x := input
	for l := 0; l < L; l++ {
		z := mat.NewDense(v.Topo[l+1], batch, nil)
		z.Mul(v.W[l], x)
		for c := 0; c < batch; c++ {
			for r := 0; r < v.Topo[l+1]; r++ {
				z.Set(r, c, z.At(r, c)+v.B[l].AtVec(r))
			}
		}
		if l < L-1 {
			z.Apply(n.Act.Activate, z)
		}
		x = z
	}
	return x
}

// Predict returns the argmax class per input column.
func (n *Network) Predict(v *lipschitz.Variable, input *mat.Dense) []int {
	out := n.Forward(v, input)
	rows, cols := out.Dims()
	classes := make([]int, cols)
	for c := 0; c < cols; c++ {
		best := 0
		for r := 1; r < rows; r++ {
			if out.At(r, c) > out.At(best, c) {
				best = r
			}
		}
		classes[c] = best
	}
	return classes
}

// InitWeights fills the weights and biases with draws from a zero-mean
// normal of the given variance and sets every multiplier to tinit.
func InitWeights(v *lipschitz.Variable, variance, tinit float64, src rand.Source) {
	normal := distuv.Normal{Mu: 0, Sigma: math.Sqrt(variance), Src: src}
	for i := range v.W {
		w := v.W[i].RawMatrix().Data
		for k := range w {
			w[k] = normal.Rand()
		}
		b := v.B[i].RawVector().Data
		for k := range b {
			b[k] = normal.Rand()
		}
	}
	v.SetT(tinit)
}
