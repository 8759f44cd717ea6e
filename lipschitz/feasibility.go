package lipschitz

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// ErrEigenFailed reports that the eigensolver underlying a feasibility check
// did not converge.
var ErrEigenFailed = errors.New("lipschitz: feasibility eigenproblem failed to converge")

// Unbounded is the step bound used when feasibility checking is switched
// off: every step length is admitted.
type Unbounded struct{}

// Update is a no-op.
func (Unbounded) Update(*Variable, *Factor) {}

// Bound always admits the full step.
func (Unbounded) Bound(*Variable) (float64, error) {
	return math.Inf(1), nil
}

// WeightStepBound limits the step length along a weight-only descent
// direction so that chi stays positive definite. The multipliers are fixed,
// so the perturbation is linear in the step length and a plain symmetric
// eigenproblem on R = F^-1 D F^-T suffices, with F the cached dense Cholesky
// factor of chi at the current iterate.
type WeightStepBound struct {
	T      []*mat.VecDense
	factor *mat.TriDense
	topo   Topology
}

// NewWeightStepBound fixes the multiplier vectors the direction is scaled by.
func NewWeightStepBound(t []*mat.VecDense) *WeightStepBound {
	return &WeightStepBound{T: t}
}

// Update caches the dense factor of chi at the new iterate.
func (b *WeightStepBound) Update(x *Variable, f *Factor) {
	b.topo = f.Topology()
	b.factor = f.Dense()
}

// Bound returns the largest admissible step length along dir. Negative
// eigenvalues of R never constrain the step and enter the maximum as 0.01,
// and the bound backs off from the exact boundary by the 1e-3 offset.
func (b *WeightStepBound) Bound(dir *Variable) (float64, error) {
	d := ChiDirection(b.topo, nil, b.T, dir.W, nil)

	var y, z mat.Dense
	if err := y.Solve(b.factor, d.Dense()); err != nil {
		return 0, err
	}
	if err := z.Solve(b.factor, y.T()); err != nil {
		return 0, err
	}

	n := b.topo.Total()
	sym := mat.NewSymDense(n, nil)
	for r := 0; r < n; r++ {
		for c := r; c < n; c++ {
			sym.SetSym(r, c, 0.5*(z.At(r, c)+z.At(c, r)))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		return 0, ErrEigenFailed
	}

	lead := math.Inf(-1)
	for _, v := range eig.Values(nil) {
		if v < 0 {
			v = 0.01
		}
		if v > lead {
			lead = v
		}
	}
	return 1 / (math.Abs(lead) + 1e-3), nil
}

// JointStepBound limits the step length along a joint (weights, multipliers)
// direction. The perturbation is quadratic in the step length, so the
// boundary crossings are the eigenvalues of the companion pencil (A, C)
// with A = [[0, r*I], [-chi, -D]] and C = [[r*I, 0], [0, M]]. The pencil is
// solved through A, which is nonsingular whenever chi is positive definite,
// as the ordinary eigenproblem of A^-1 C.
type JointStepBound struct {
	Rho   float64
	Ratio float64
	pos   *Variable
}

// NewJointStepBound sets up the bound for squared Lipschitz constant rho.
func NewJointStepBound(rho float64) *JointStepBound {
	return &JointStepBound{Rho: rho, Ratio: 2}
}

// Update snapshots the iterate the next direction will be taken from.
func (b *JointStepBound) Update(x *Variable, f *Factor) {
	b.pos = x.Clone()
}

// Bound returns the smallest positive boundary crossing along dir, or +Inf
// when no crossing exists and the step is unconstrained.
func (b *JointStepBound) Bound(dir *Variable) (float64, error) {
	topo := b.pos.Topo
	n := topo.Total()

	chi := Chi(topo, b.Rho, b.pos.W, b.pos.T).Dense()
	d := ChiDirection(topo, b.pos.W, b.pos.T, dir.W, dir.T).Dense()
	m := ChiCurvature(topo, dir.W, dir.T).Dense()

	a := mat.NewDense(2*n, 2*n, nil)
	c := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		a.Set(i, n+i, b.Ratio)
		c.Set(i, i, b.Ratio)
		for j := 0; j < n; j++ {
			a.Set(n+i, j, -chi.At(i, j))
			a.Set(n+i, n+j, -d.At(i, j))
			c.Set(n+i, n+j, m.At(i, j))
		}
	}

	var w mat.Dense
	if err := w.Solve(a, c); err != nil {
		return 0, err
	}

	var eig mat.Eigen
	if ok := eig.Factorize(&w, mat.EigenNone); !ok {
		return 0, ErrEigenFailed
	}

	// mu near zero corresponds to a crossing at infinity and is dropped;
	// so are genuinely complex crossings.
	best := math.Inf(-1)
	found := false
	for _, mu := range eig.Values(nil) {
		if cmplx.Abs(mu) <= 1e-9 {
			continue
		}
		lambda := complex(1, 0) / mu
		if math.Abs(imag(lambda)) > 1e-6 {
			continue
		}
		if re := real(lambda); re < 0 {
			found = true
			if re > best {
				best = re
			}
		}
	}
	if !found {
		return math.Inf(1), nil
	}
	return math.Abs(best), nil
}
