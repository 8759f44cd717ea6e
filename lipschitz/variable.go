package lipschitz

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Variable is one optimization iterate: per-layer weights W and biases B,
// plus one multiplier vector T per hidden layer. T[i] scales the rows of
// W[i] inside the constraint matrix and must stay strictly positive for the
// barrier to be defined.
type Variable struct {
	Topo Topology
	W    []*mat.Dense
	B    []*mat.VecDense
	T    []*mat.VecDense
}

// NewVariable allocates a zero variable over the topology.
func NewVariable(topo Topology) *Variable {
	L := topo.Layers()
	v := &Variable{
		Topo: topo,
		W:    make([]*mat.Dense, L),
		B:    make([]*mat.VecDense, L),
		T:    make([]*mat.VecDense, L-1),
	}
	for i := 0; i < L; i++ {
		v.W[i] = mat.NewDense(topo[i+1], topo[i], nil)
		v.B[i] = mat.NewVecDense(topo[i+1], nil)
	}
	for i := 0; i < L-1; i++ {
		v.T[i] = mat.NewVecDense(topo[i+1], nil)
	}
	return v
}

// Clone returns a deep copy.
func (v *Variable) Clone() *Variable {
	c := NewVariable(v.Topo)
	for i := range v.W {
		c.W[i].CloneFrom(v.W[i])
		c.B[i].CloneFromVec(v.B[i])
	}
	for i := range v.T {
		c.T[i].CloneFromVec(v.T[i])
	}
	return c
}

// Zero resets every entry in place.
func (v *Variable) Zero() {
	for _, s := range v.Data() {
		for i := range s {
			s[i] = 0
		}
	}
}

// SetT writes a constant value into every multiplier entry.
func (v *Variable) SetT(val float64) {
	for _, t := range v.T {
		for i := 0; i < t.Len(); i++ {
			t.SetVec(i, val)
		}
	}
}

// Data exposes the backing storage of every component as raw slices, in a
// fixed order, so that the optimizer can treat the variable as one flat
// parameter vector without copying.
func (v *Variable) Data() [][]float64 {
	out := make([][]float64, 0, 2*len(v.W)+len(v.T))
	for _, w := range v.W {
		out = append(out, w.RawMatrix().Data)
	}
	for _, b := range v.B {
		out = append(out, b.RawVector().Data)
	}
	for _, t := range v.T {
		out = append(out, t.RawVector().Data)
	}
	return out
}

// Len returns the total number of scalar parameters.
func (v *Variable) Len() int {
	n := 0
	for _, s := range v.Data() {
		n += len(s)
	}
	return n
}

// AddScaled accumulates alpha*d into v componentwise.
func (v *Variable) AddScaled(alpha float64, d *Variable) {
	dst := v.Data()
	src := d.Data()
	for k := range dst {
		for i := range dst[k] {
			dst[k][i] += alpha * src[k][i]
		}
	}
}

// Norm returns the Euclidean norm of the flattened variable.
func (v *Variable) Norm() float64 {
	sum := 0.0
	for _, s := range v.Data() {
		for _, x := range s {
			sum += x * x
		}
	}
	return math.Sqrt(sum)
}
