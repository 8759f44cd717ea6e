// Package optimize provides the optimizers used for Lipschitz-bounded
// training: a central-path Adam variant that follows a log-det barrier
// toward the constrained optimum, and a plain bias-corrected Adam for
// unconstrained pretraining.
package optimize

// Params holds the hyperparameters of the central-path optimizer.
type Params struct {
	MaxIter   int     // inner iteration cap per central-path step
	CPSteps   int     // number of central-path steps
	Diff      float64 // base loss-difference stopping tolerance
	Threshold float64 // base windowed-decrease stopping tolerance
	Window    int     // window size for the average loss decrease
	Gamma     float64 // initial barrier weight
	Alpha     float64 // initial step size
	Beta1     float64 // momentum decay
	Beta2     float64 // velocity decay
	Beta3     float64 // tolerance tightening factor per path step
	AlphaDec  float64 // step size decay per path step
	GammaDec  float64 // barrier weight decay per path step
	Eps       float64 // numerical floor in the Adam denominator
}

// DefaultParams returns the stock hyperparameters.
func DefaultParams() Params {
	return Params{
		MaxIter:   500000,
		CPSteps:   5,
		Diff:      1e-10,
		Threshold: 1e-8,
		Window:    300,
		Gamma:     1.0,
		Alpha:     0.02,
		Beta1:     0.9,
		Beta2:     0.999,
		Beta3:     5.0,
		AlphaDec:  0.5,
		GammaDec:  0.5,
		Eps:       1e-8,
	}
}

// AdamParams holds the hyperparameters of the plain Adam optimizer.
type AdamParams struct {
	MaxIter  int     // iteration cap
	Diff     float64 // loss-difference stopping tolerance
	GradDiff float64 // gradient-norm stopping tolerance
	Alpha    float64 // step size
	Beta1    float64 // momentum decay
	Beta2    float64 // velocity decay
	Eps      float64 // numerical floor in the Adam denominator
}

// DefaultAdamParams returns the stock hyperparameters.
func DefaultAdamParams() AdamParams {
	return AdamParams{
		MaxIter:  50000,
		Diff:     1e-10,
		GradDiff: 1e-4,
		Alpha:    0.02,
		Beta1:    0.9,
		Beta2:    0.999,
		Eps:      1e-8,
	}
}
