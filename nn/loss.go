package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Loss scores a batch of network outputs against targets and produces the
// gradient with respect to the final-layer preactivation. Both matrices are
// laid out one sample per column.
type Loss interface {
	Evaluate(target, z *mat.Dense) float64
	Gradient(target, z *mat.Dense) *mat.Dense
}

var LossLookup = map[string]Loss{
	"cross-entropy": CrossEntropy{},
	"squared":       SquaredError{},
}

// Softmax applies the columnwise softmax with per-column max shift.
func Softmax(z *mat.Dense) *mat.Dense {
	rows, cols := z.Dims()
	out := mat.NewDense(rows, cols, nil)
	for c := 0; c < cols; c++ {
		maxv := z.At(0, c)
		for r := 1; r < rows; r++ {
			if v := z.At(r, c); v > maxv {
				maxv = v
			}
		}
		sum := 0.0
		for r := 0; r < rows; r++ {
			e := math.Exp(z.At(r, c) - maxv)
			out.Set(r, c, e)
			sum += e
		}
		for r := 0; r < rows; r++ {
			out.Set(r, c, out.At(r, c)/sum)
		}
	}
	return out
}

// CrossEntropy is softmax cross entropy over one-hot (or soft) targets.
type CrossEntropy struct{}

func (CrossEntropy) Evaluate(target, z *mat.Dense) float64 {
	soft := Softmax(z)
	rows, cols := z.Dims()
	loss := 0.0
	for c := 0; c < cols; c++ {
		p := 0.0
		for r := 0; r < rows; r++ {
			p += target.At(r, c) * soft.At(r, c)
		}
		loss -= math.Log(p)
	}
	return loss
}

func (CrossEntropy) Gradient(target, z *mat.Dense) *mat.Dense {
	soft := Softmax(z)
	soft.Sub(soft, target)
	return soft
}

// SquaredError is the summed squared distance between output and target.
type SquaredError struct{}

func (SquaredError) Evaluate(target, z *mat.Dense) float64 {
	var diff mat.Dense
	diff.Sub(z, target)
	sum := 0.0
	rows, cols := diff.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := diff.At(r, c)
			sum += v * v
		}
	}
	return sum
}

func (SquaredError) Gradient(target, z *mat.Dense) *mat.Dense {
	out := mat.NewDense(z.RawMatrix().Rows, z.RawMatrix().Cols, nil)
	out.Sub(z, target)
	out.Scale(2, out)
	return out
}
