package lipschitz

import (
	"gonum.org/v1/gonum/mat"
)

// Inverse holds the block-tridiagonal part of chi^-1: diagonal blocks P_0..P_L
// and subdiagonal blocks K_0..K_{L-1}. These are the only blocks of the full
// inverse that the barrier gradient reads, so nothing else is computed.
type Inverse struct {
	topo Topology
	P    []*mat.Dense
	K    []*mat.Dense
}

// eyeDense returns the n x n identity.
func eyeDense(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// triGram computes D^-T D^-1 for a lower-triangular block D.
func triGram(d *mat.TriDense) *mat.Dense {
	n, _ := d.Dims()
	var inv, gram mat.Dense
	inv.Solve(d, eyeDense(n))
	gram.Solve(d.T(), &inv)
	return &gram
}

// Invert runs the backward Schur recursion on a block Cholesky factor and
// returns the tridiagonal blocks of chi^-1.
func Invert(f *Factor) *Inverse {
	topo := f.topo
	L := topo.Layers()
	out := &Inverse{
		topo: topo,
		P:    make([]*mat.Dense, L+1),
		K:    make([]*mat.Dense, L),
	}

	out.P[L] = triGram(f.diag[L])

	for i := L - 1; i >= 1; i-- {
		var g, k, gk, p mat.Dense
		g.Solve(f.diag[i].T(), f.sub[i].T())

		k.Mul(&g, out.P[i+1])
		out.K[i] = mat.NewDense(topo[i+1], topo[i], nil)
		out.K[i].Scale(-1, k.T())

		gk.Mul(&g, out.K[i])
		p.Scale(-1, gk.T())
		p.Add(&p, triGram(f.diag[i]))
		out.P[i] = &p
	}

	// Block 0 of the factor is d0*I, so its solves collapse to scalar
	// divisions.
	var k0 mat.Dense
	k0.Mul(out.P[1].T(), f.sub[0])
	k0.Scale(-1/f.d0, &k0)
	out.K[0] = &k0

	var p0 mat.Dense
	p0.Mul(out.K[0].T(), f.sub[0])
	p0.Scale(-1/f.d0, &p0)
	for r := 0; r < topo[0]; r++ {
		p0.Set(r, r, p0.At(r, r)+1/(f.d0*f.d0))
	}
	out.P[0] = &p0

	return out
}
