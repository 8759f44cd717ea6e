package lipschitz

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrNotPositiveDefinite reports that chi lost positive definiteness at the
// current iterate. The caller must treat this as fatal: the iterate left the
// feasible region and the barrier value is undefined there.
var ErrNotPositiveDefinite = errors.New("lipschitz: constraint matrix is not positive definite")

// DefaultCond is the diagonal offset added to every Schur complement before
// its Cholesky step. It absorbs roundoff near the boundary of the feasible
// region without changing which iterates count as feasible at the scales the
// optimizer operates on.
const DefaultCond = 1e-2

// Factor is the lower block Cholesky factor of chi. Block 0 of the factor is
// d0*I with d0 equal to the Lipschitz constant, so only the scalar is kept;
// the remaining diagonal blocks are dense lower triangles.
type Factor struct {
	topo Topology
	d0   float64
	diag []*mat.TriDense
	sub  []*mat.Dense
}

// Topology returns the layer widths of the factored matrix.
func (f *Factor) Topology() Topology {
	return f.topo
}

// D0 returns the scalar of the first diagonal block d0*I.
func (f *Factor) D0() float64 {
	return f.d0
}

// Diag returns diagonal factor block i for 1 <= i <= L.
func (f *Factor) Diag(i int) *mat.TriDense {
	return f.diag[i]
}

// Sub returns subdiagonal factor block i for 0 <= i < L.
func (f *Factor) Sub(i int) *mat.Dense {
	return f.sub[i]
}

// Dense assembles the full lower-triangular factor.
func (f *Factor) Dense() *mat.TriDense {
	n := f.topo.Total()
	out := mat.NewTriDense(n, mat.Lower, nil)
	for r := 0; r < f.topo[0]; r++ {
		out.SetTri(r, r, f.d0)
	}
	for i := 1; i < len(f.diag); i++ {
		off := f.topo.Offset(i)
		for r := 0; r < f.topo[i]; r++ {
			for c := 0; c <= r; c++ {
				out.SetTri(off+r, off+c, f.diag[i].At(r, c))
			}
		}
	}
	for i, s := range f.sub {
		roff := f.topo.Offset(i + 1)
		coff := f.topo.Offset(i)
		for r := 0; r < f.topo[i+1]; r++ {
			for c := 0; c < f.topo[i]; c++ {
				out.SetTri(roff+r, coff+c, s.At(r, c))
			}
		}
	}
	return out
}

// addDiag adds v to the diagonal of m in place.
func addDiag(m *mat.Dense, v float64) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		m.Set(i, i, m.At(i, i)+v)
	}
}

// cholBlock factors the symmetric content of x into a lower triangle.
func cholBlock(x *mat.Dense) (*mat.TriDense, error) {
	n, _ := x.Dims()
	sym := mat.NewSymDense(n, nil)
	for r := 0; r < n; r++ {
		for c := r; c < n; c++ {
			sym.SetSym(r, c, x.At(r, c))
		}
	}
	var ch mat.Cholesky
	if ok := ch.Factorize(sym); !ok {
		return nil, ErrNotPositiveDefinite
	}
	tri := mat.NewTriDense(n, mat.Lower, nil)
	ch.LTo(tri)
	return tri, nil
}

// Factorize runs the block Cholesky sweep over chi for the given Lipschitz
// constant without ever assembling the dense matrix. Each Schur complement
// gets cond added to its diagonal before factoring. It fails with
// ErrNotPositiveDefinite as soon as one complement is indefinite.
func Factorize(topo Topology, lipschitz float64, w []*mat.Dense, t []*mat.VecDense, cond float64) (*Factor, error) {
	L := topo.Layers()
	f := &Factor{
		topo: topo,
		d0:   lipschitz,
		diag: make([]*mat.TriDense, L+1),
		sub:  make([]*mat.Dense, L),
	}

	// S_0 = -(T_0 o W_0)/d0, the first column of the factor below d0*I.
	f.sub[0] = mat.NewDense(topo[1], topo[0], nil)
	rowScaled(f.sub[0], t[0], w[0])
	f.sub[0].Scale(-1/lipschitz, f.sub[0])

	for i := 1; i < L; i++ {
		// X_i = 2*diag(T_{i-1}) - S_{i-1} S_{i-1}^T + cond*I.
		x := mat.NewDense(topo[i], topo[i], nil)
		x.Mul(f.sub[i-1], f.sub[i-1].T())
		x.Scale(-1, x)
		for r := 0; r < topo[i]; r++ {
			x.Set(r, r, x.At(r, r)+2*t[i-1].AtVec(r))
		}
		addDiag(x, cond)

		d, err := cholBlock(x)
		if err != nil {
			return nil, err
		}
		f.diag[i] = d

		// Z_i carries the coupling to the next layer; the last weight layer
		// enters unscaled because the output block of chi is the identity.
		z := mat.NewDense(topo[i], topo[i+1], nil)
		if i < L-1 {
			for r := 0; r < topo[i]; r++ {
				for c := 0; c < topo[i+1]; c++ {
					z.Set(r, c, w[i].At(c, r)*t[i].AtVec(c))
				}
			}
		} else {
			z.CloneFrom(w[i].T())
		}

		var y mat.Dense
		if err := y.Solve(d, z); err != nil {
			return nil, ErrNotPositiveDefinite
		}
		f.sub[i] = mat.NewDense(topo[i+1], topo[i], nil)
		f.sub[i].Scale(-1, y.T())
	}

	// Terminal block X_L = I + cond*I - S_{L-1} S_{L-1}^T.
	x := mat.NewDense(topo[L], topo[L], nil)
	x.Mul(f.sub[L-1], f.sub[L-1].T())
	x.Scale(-1, x)
	addDiag(x, 1+cond)

	d, err := cholBlock(x)
	if err != nil {
		return nil, err
	}
	f.diag[L] = d
	return f, nil
}
