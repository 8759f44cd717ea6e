package lipschitz

import (
	"gonum.org/v1/gonum/mat"
)

// Barrier is the log-det barrier -gamma*log det chi over weights and
// multipliers. Gradient adds its contribution on top of whatever the caller
// already accumulated, so the supervised-loss gradient survives the call.
type Barrier struct {
	Lipschitz float64
	Cond      float64
}

// NewBarrier returns a barrier for the given Lipschitz constant with the
// default conditioning offset.
func NewBarrier(lipschitz float64) *Barrier {
	return &Barrier{Lipschitz: lipschitz, Cond: DefaultCond}
}

// addWeightTerms accumulates the weight part of the barrier gradient shared
// by both barrier variants.
func addWeightTerms(x, grad *Variable, t []*mat.VecDense, inv *Inverse, gamma float64) {
	L := x.Topo.Layers()
	for i := 0; i < L-1; i++ {
		rows, cols := grad.W[i].Dims()
		for r := 0; r < rows; r++ {
			s := 2 * gamma * t[i].AtVec(r)
			for c := 0; c < cols; c++ {
				grad.W[i].Set(r, c, grad.W[i].At(r, c)+s*inv.K[i].At(r, c))
			}
		}
	}
	rows, cols := grad.W[L-1].Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			grad.W[L-1].Set(r, c, grad.W[L-1].At(r, c)+2*gamma*inv.K[L-1].At(r, c))
		}
	}
}

// Gradient factors chi at x, inverts the factor and adds the barrier
// gradient for the weights and the multipliers into grad. The factor is
// returned for reuse by the feasibility step bound.
func (b *Barrier) Gradient(x, grad *Variable, gamma float64) (*Factor, error) {
	f, err := Factorize(x.Topo, b.Lipschitz, x.W, x.T, b.Cond)
	if err != nil {
		return nil, err
	}
	inv := Invert(f)

	addWeightTerms(x, grad, x.T, inv, gamma)

	// d/dT_i reads the diagonal of K_i W_i^T against the diagonal of
	// P_{i+1}. The multiplier term carries no gamma factor.
	L := x.Topo.Layers()
	for i := 0; i < L-1; i++ {
		var kw mat.Dense
		kw.Mul(inv.K[i], x.W[i].T())
		for r := 0; r < x.Topo[i+1]; r++ {
			grad.T[i].SetVec(r, grad.T[i].AtVec(r)+2*(kw.At(r, r)-inv.P[i+1].At(r, r)))
		}
	}
	return f, nil
}

// FixedBarrier is the weight-only barrier variant: the multipliers T are
// frozen at construction and only the weights receive a gradient. Cond zero
// means no conditioning offset.
type FixedBarrier struct {
	Lipschitz float64
	T         []*mat.VecDense
	Cond      float64
}

// NewFixedBarrier freezes copies of the given multiplier vectors.
func NewFixedBarrier(lipschitz float64, t []*mat.VecDense) *FixedBarrier {
	frozen := make([]*mat.VecDense, len(t))
	for i, v := range t {
		frozen[i] = mat.VecDenseCopyOf(v)
	}
	return &FixedBarrier{Lipschitz: lipschitz, T: frozen}
}

// Gradient factors chi at x with the frozen multipliers and adds the weight
// part of the barrier gradient into grad. grad.T is never touched.
func (b *FixedBarrier) Gradient(x, grad *Variable, gamma float64) (*Factor, error) {
	f, err := Factorize(x.Topo, b.Lipschitz, x.W, b.T, b.Cond)
	if err != nil {
		return nil, err
	}
	inv := Invert(f)
	addWeightTerms(x, grad, b.T, inv, gamma)
	return f, nil
}
