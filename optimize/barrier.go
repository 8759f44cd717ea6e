package optimize

import (
	"fmt"
	"math"

	"liptrain/lipschitz"
	"liptrain/utils"
)

// LossGradient evaluates the supervised loss at x and accumulates its
// gradient into grad. The accumulator is zeroed by the optimizer before the
// call; the barrier term is added on top afterwards.
type LossGradient func(x, grad *lipschitz.Variable) float64

// BarrierGradient adds a barrier gradient into an accumulator and returns
// the Cholesky factor of the constraint matrix at x for reuse.
type BarrierGradient interface {
	Gradient(x, grad *lipschitz.Variable, gamma float64) (*lipschitz.Factor, error)
}

// StepBound limits the length of a descent step so the iterate stays inside
// the feasible region. Update is called once per gradient evaluation with
// the fresh iterate and factor; Bound is called with the candidate
// direction.
type StepBound interface {
	Update(x *lipschitz.Variable, f *lipschitz.Factor)
	Bound(dir *lipschitz.Variable) (float64, error)
}

// AdamBarrier is the central-path optimizer: Adam iterations on the sum of
// the supervised loss and a log-det barrier, with the barrier weight gamma
// and the step size alpha decayed geometrically after each path step.
// Momentum and velocity persist across path steps and are reset only when
// the step bound forces a damped step.
type AdamBarrier struct {
	Params  Params
	Barrier BarrierGradient
	Step    StepBound
	Stats   *RunStats
}

// Run follows the central path starting from x. x is advanced in place and
// returned together with the final supervised loss. An infeasible iterate
// surfaces as lipschitz.ErrNotPositiveDefinite and aborts the run.
func (a *AdamBarrier) Run(loss LossGradient, x *lipschitz.Variable) (*lipschitz.Variable, float64, error) {
	p := a.Params
	grad := lipschitz.NewVariable(x.Topo)
	momentum := lipschitz.NewVariable(x.Topo)
	velocity := lipschitz.NewVariable(x.Topo)
	dir := lipschitz.NewVariable(x.Topo)

	evaluate := func(gamma float64) (float64, error) {
		grad.Zero()
		fx := loss(x, grad)
		f, err := a.Barrier.Gradient(x, grad, gamma)
		if err != nil {
			return 0, err
		}
		a.Step.Update(x, f)
		return fx, nil
	}

	gamma := p.Gamma
	alpha := p.Alpha
	var fx float64

	for j := 0; j < p.CPSteps; j++ {
		// Later path steps sit closer to the constrained optimum and must
		// converge more tightly before gamma decays further.
		tighten := math.Pow(p.Beta3, float64(p.CPSteps-j))
		diff := p.Diff * tighten
		threshold := p.Threshold * tighten

		a.Stats.MarkStep()
		var err error
		fx, err = evaluate(gamma)
		if err != nil {
			return nil, 0, err
		}
		a.Stats.Append(fx)

		avgDecrease := -10.0
		fxl := math.MaxFloat64

		for i := 1; math.Abs(fxl-fx) > diff && i <= p.MaxIter && avgDecrease < -threshold; i++ {
			c1 := 1 / (1 - math.Pow(p.Beta1, float64(i)))
			c2 := 1 / (1 - math.Pow(p.Beta2, float64(i)))

			mD, vD, gD, dD := momentum.Data(), velocity.Data(), grad.Data(), dir.Data()
			for k := range gD {
				for n, g := range gD[k] {
					mD[k][n] = p.Beta1*mD[k][n] + (1-p.Beta1)*g
					vD[k][n] = p.Beta2*vD[k][n] + (1-p.Beta2)*g*g
					dD[k][n] = c1 * mD[k][n] / (p.Eps + math.Sqrt(c2*vD[k][n]))
				}
			}

			dalpha := 1.0
			s, err := a.Step.Bound(dir)
			if err != nil {
				return nil, 0, err
			}
			if s < alpha {
				momentum.Zero()
				velocity.Zero()
				dalpha = s / alpha / 4
			}

			x.AddScaled(-alpha*dalpha, dir)

			fxl = fx
			fx, err = evaluate(gamma)
			if err != nil {
				return nil, 0, err
			}
			a.Stats.Append(fx)

			avgDecrease = (float64(p.Window-1)*avgDecrease + fx - fxl) / float64(p.Window)

			if i%100 == 0 && utils.Verbose {
				fmt.Fprintf(utils.Output, " => (%d) loss: %v\n", i, fx)
			}
		}

		gamma *= p.GammaDec
		alpha *= p.AlphaDec
	}

	return x, fx, nil
}
