// Package nn implements the feed-forward network side of Lipschitz-bounded
// training: activations, losses, batched forward and backward passes, and
// the data loaders that feed them. The last layer is always linear; the
// loss consumes its preactivation directly.
package nn

import (
	"fmt"
	"math"
)

// Activator evaluates a pointwise activation and its derivative on a
// preactivation value. The index arguments make the functions usable with
// mat.Dense.Apply.
type Activator interface {
	Activate(i, j int, v float64) float64
	Derivative(i, j int, v float64) float64
	fmt.Stringer
}

var ActivatorLookup = map[string]Activator{
	"sigmoid": Sigmoid{},
	"tanh":    Tanh{},
	"relu":    ReLU{},
}

type Sigmoid struct{}

func (s Sigmoid) Activate(i, j int, v float64) float64 {
	return 1.0 / (1.0 + math.Exp(-v))
}

func (s Sigmoid) Derivative(i, j int, v float64) float64 {
	sig := 1.0 / (1.0 + math.Exp(-v))
	return sig * (1 - sig)
}

func (s Sigmoid) String() string {
	return "sigmoid"
}

type Tanh struct{}

func (t Tanh) Activate(i, j int, v float64) float64 {
	return math.Tanh(v)
}

func (t Tanh) Derivative(i, j int, v float64) float64 {
	th := math.Tanh(v)
	return 1 - th*th
}

func (t Tanh) String() string {
	return "tanh"
}

// ReLU is the leaky variant; the nonzero slope keeps the derivative bounded
// away from zero everywhere.
type ReLU struct{}

func (r ReLU) Activate(i, j int, v float64) float64 {
	if v < 0 {
		return 0.0001 * v
	}
	return v
}

func (r ReLU) Derivative(i, j int, v float64) float64 {
	if v < 0 {
		return 0.0001
	}
	return 1
}

func (r ReLU) String() string {
	return "relu"
}
