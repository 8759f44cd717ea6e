package optimize

import (
	"fmt"
	"math"

	"liptrain/lipschitz"
	"liptrain/utils"
)

// Adam is the plain bias-corrected Adam optimizer. It is used to pretrain a
// network without the Lipschitz constraint before warm-starting the barrier
// method from the result.
type Adam struct {
	Params AdamParams
	Stats  *RunStats
}

// Run minimizes the loss starting from x. It stops when the loss difference
// or the gradient norm fall under their tolerances, or at the iteration cap.
// x is advanced in place and returned together with the final loss.
func (a *Adam) Run(loss LossGradient, x *lipschitz.Variable) (*lipschitz.Variable, float64) {
	p := a.Params
	grad := lipschitz.NewVariable(x.Topo)
	momentum := lipschitz.NewVariable(x.Topo)
	velocity := lipschitz.NewVariable(x.Topo)

	fx := loss(x, grad)
	a.Stats.Append(fx)
	if utils.Verbose {
		fmt.Fprintf(utils.Output, "START => loss: %v     -- norm: %v\n", fx, grad.Norm())
	}

	fxl := math.MaxFloat64
	for i := 1; math.Abs(fxl-fx) > p.Diff && grad.Norm() > p.GradDiff && i <= p.MaxIter; i++ {
		c1 := 1 / (1 - math.Pow(p.Beta1, float64(i)))
		c2 := 1 / (1 - math.Pow(p.Beta2, float64(i)))

		mD, vD, gD, xD := momentum.Data(), velocity.Data(), grad.Data(), x.Data()
		for k := range gD {
			for n, g := range gD[k] {
				mD[k][n] = p.Beta1*mD[k][n] + (1-p.Beta1)*g
				vD[k][n] = p.Beta2*vD[k][n] + (1-p.Beta2)*g*g
				xD[k][n] -= p.Alpha * c1 * mD[k][n] / (p.Eps + math.Sqrt(c2*vD[k][n]))
			}
		}

		fxl = fx
		grad.Zero()
		fx = loss(x, grad)
		a.Stats.Append(fx)

		if i%100 == 0 && utils.Verbose {
			fmt.Fprintf(utils.Output, " => (%d) loss: %v     -- norm: %v\n", i, fx, grad.Norm())
		}
	}

	if utils.Verbose {
		fmt.Fprintf(utils.Output, "END => loss: %v     -- norm: %v\n", fx, grad.Norm())
	}
	return x, fx
}
