// Package lipschitz implements the block-structured machinery for training
// feed-forward networks under a Lipschitz constant constraint: the constraint
// matrix chi, its block Cholesky factorization and inversion, the log-det
// barrier gradient, and feasibility step bounds along descent directions.
package lipschitz

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Topology holds the layer widths N0..NL of a feed-forward network.
// A network with topology of length L+1 has L weight layers.
type Topology []int

// Layers returns the number of weight layers.
func (t Topology) Layers() int {
	return len(t) - 1
}

// Hidden returns the number of hidden layers.
func (t Topology) Hidden() int {
	return len(t) - 2
}

// Total returns the summed width, which is the order of chi.
func (t Topology) Total() int {
	n := 0
	for _, w := range t {
		n += w
	}
	return n
}

// Offset returns the row offset of diagonal block i inside the dense form.
func (t Topology) Offset(i int) int {
	n := 0
	for _, w := range t[:i] {
		n += w
	}
	return n
}

// Validate reports whether the widths describe a usable network.
func (t Topology) Validate() error {
	if len(t) < 2 {
		return fmt.Errorf("topology %v: need at least an input and an output layer", []int(t))
	}
	for i, w := range t {
		if w < 1 {
			return fmt.Errorf("topology %v: layer %d has width %d", []int(t), i, w)
		}
	}
	return nil
}

// BlockTridiag is a symmetric block-tridiagonal matrix over a topology:
// diagonal blocks D_0..D_L and subdiagonal blocks S_0..S_{L-1}, where S_i
// sits below D_i and couples layer i to layer i+1. The superdiagonal is
// implied by symmetry and never stored.
type BlockTridiag struct {
	topo Topology
	diag []*mat.Dense
	sub  []*mat.Dense
}

// NewBlockTridiag allocates a zero matrix over the given topology.
func NewBlockTridiag(topo Topology) *BlockTridiag {
	L := topo.Layers()
	b := &BlockTridiag{
		topo: topo,
		diag: make([]*mat.Dense, L+1),
		sub:  make([]*mat.Dense, L),
	}
	for i := 0; i <= L; i++ {
		b.diag[i] = mat.NewDense(topo[i], topo[i], nil)
	}
	for i := 0; i < L; i++ {
		b.sub[i] = mat.NewDense(topo[i+1], topo[i], nil)
	}
	return b
}

// Topology returns the layer widths the matrix is laid out over.
func (b *BlockTridiag) Topology() Topology {
	return b.topo
}

// Diag returns diagonal block i (0 <= i <= L).
func (b *BlockTridiag) Diag(i int) *mat.Dense {
	return b.diag[i]
}

// Sub returns subdiagonal block i (0 <= i < L).
func (b *BlockTridiag) Sub(i int) *mat.Dense {
	return b.sub[i]
}

// AddScaled accumulates alpha*other into b. Both operands must share a
// topology.
func (b *BlockTridiag) AddScaled(alpha float64, other *BlockTridiag) {
	for i, d := range b.diag {
		var tmp mat.Dense
		tmp.Scale(alpha, other.diag[i])
		d.Add(d, &tmp)
	}
	for i, s := range b.sub {
		var tmp mat.Dense
		tmp.Scale(alpha, other.sub[i])
		s.Add(s, &tmp)
	}
}

// Dense assembles the full symmetric matrix. Intended for certificates and
// tests; the factorization never materializes this form.
func (b *BlockTridiag) Dense() *mat.SymDense {
	n := b.topo.Total()
	out := mat.NewSymDense(n, nil)
	for i, d := range b.diag {
		off := b.topo.Offset(i)
		for r := 0; r < b.topo[i]; r++ {
			for c := r; c < b.topo[i]; c++ {
				out.SetSym(off+r, off+c, d.At(r, c))
			}
		}
	}
	for i, s := range b.sub {
		roff := b.topo.Offset(i + 1)
		coff := b.topo.Offset(i)
		for r := 0; r < b.topo[i+1]; r++ {
			for c := 0; c < b.topo[i]; c++ {
				out.SetSym(roff+r, coff+c, s.At(r, c))
			}
		}
	}
	return out
}

// rowScaled writes t[r]*w[r,c] into dst.
func rowScaled(dst *mat.Dense, t *mat.VecDense, w *mat.Dense) {
	r, c := w.Dims()
	for i := 0; i < r; i++ {
		ti := t.AtVec(i)
		for j := 0; j < c; j++ {
			dst.Set(i, j, ti*w.At(i, j))
		}
	}
}

// Chi builds the Lipschitz constraint matrix for squared constant rho = L0^2,
// weights w and multiplier vectors t. The network is L0-Lipschitz iff the
// result is positive semidefinite.
func Chi(topo Topology, rho float64, w []*mat.Dense, t []*mat.VecDense) *BlockTridiag {
	L := topo.Layers()
	chi := NewBlockTridiag(topo)

	for r := 0; r < topo[0]; r++ {
		chi.diag[0].Set(r, r, rho)
	}
	for i := 1; i < L; i++ {
		for r := 0; r < topo[i]; r++ {
			chi.diag[i].Set(r, r, 2*t[i-1].AtVec(r))
		}
	}
	for r := 0; r < topo[L]; r++ {
		chi.diag[L].Set(r, r, 1)
	}

	for i := 0; i < L-1; i++ {
		rowScaled(chi.sub[i], t[i], w[i])
		chi.sub[i].Scale(-1, chi.sub[i])
	}
	chi.sub[L-1].Scale(-1, w[L-1])
	return chi
}

// ChiDirection builds the first-order change of chi along a descent direction
// (dw, dt), so that chi(x - a*d) = chi(x) - a*ChiDirection + a^2*ChiCurvature.
// A nil dt gives the weight-only direction used with fixed multipliers.
func ChiDirection(topo Topology, w []*mat.Dense, t []*mat.VecDense, dw []*mat.Dense, dt []*mat.VecDense) *BlockTridiag {
	L := topo.Layers()
	d := NewBlockTridiag(topo)

	if dt != nil {
		for i := 1; i < L; i++ {
			for r := 0; r < topo[i]; r++ {
				d.diag[i].Set(r, r, 2*dt[i-1].AtVec(r))
			}
		}
	}

	for i := 0; i < L-1; i++ {
		rowScaled(d.sub[i], t[i], dw[i])
		if dt != nil {
			tmp := mat.NewDense(topo[i+1], topo[i], nil)
			rowScaled(tmp, dt[i], w[i])
			d.sub[i].Add(d.sub[i], tmp)
		}
		d.sub[i].Scale(-1, d.sub[i])
	}
	d.sub[L-1].Scale(-1, dw[L-1])
	return d
}

// ChiCurvature builds the second-order term of chi along a joint direction.
// Only the subdiagonal carries curvature; diagonal blocks stay zero.
func ChiCurvature(topo Topology, dw []*mat.Dense, dt []*mat.VecDense) *BlockTridiag {
	L := topo.Layers()
	m := NewBlockTridiag(topo)
	for i := 0; i < L-1; i++ {
		rowScaled(m.sub[i], dt[i], dw[i])
		m.sub[i].Scale(-1, m.sub[i])
	}
	return m
}
