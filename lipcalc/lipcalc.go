// Package lipcalc estimates and certifies Lipschitz constants of trained
// networks. The exact constant is a semidefinite program handled by an
// external conic solver behind the ConicSolver interface; the package
// itself provides the solver-free norm-product upper bound and a positive
// semidefiniteness certificate for the constraint matrix.
package lipcalc

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"liptrain/lipschitz"
)

// ErrEigenFailed reports a failed eigendecomposition inside Certified.
var ErrEigenFailed = errors.New("lipcalc: eigendecomposition failed to converge")

// Problem describes the semidefinite program whose optimal value is the
// squared Lipschitz constant of the network.
type Problem struct {
	Topo    lipschitz.Topology
	Weights []*mat.Dense
}

// ConicSolver computes the exact Lipschitz constant of a problem. Solve
// blocks until the external solver returns.
type ConicSolver interface {
	Solve(p *Problem) (float64, error)
}

// TrivialBound returns the product of the largest singular values of the
// weight layers, an upper bound on the Lipschitz constant that needs no
// solver.
func TrivialBound(w []*mat.Dense) float64 {
	bound := 1.0
	for _, wi := range w {
		var svd mat.SVD
		svd.Factorize(wi, mat.SVDNone)
		bound *= svd.Values(nil)[0]
	}
	return bound
}

// Certified checks whether the constraint matrix at (w, t) is positive
// semidefinite within tol, which certifies the network as
// lipschitz-Lipschitz. It returns the verdict together with the smallest
// eigenvalue.
func Certified(topo lipschitz.Topology, lipConst float64, w []*mat.Dense, t []*mat.VecDense, tol float64) (bool, float64, error) {
	chi := lipschitz.Chi(topo, lipConst*lipConst, w, t).Dense()
	var eig mat.EigenSym
	if ok := eig.Factorize(chi, false); !ok {
		return false, 0, ErrEigenFailed
	}
	min := eig.Values(nil)[0]
	return min >= -tol, min, nil
}
