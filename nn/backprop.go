package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"liptrain/lipschitz"
)

// Batch runs batched backpropagation over a dataset, handing out one
// minibatch per gradient call in round-robin order. Its Gradient method has
// the shape the optimizers consume.
type Batch struct {
	Net     Network
	Loss    Loss
	Inputs  *mat.Dense // input dimension x samples
	Targets *mat.Dense // output dimension x samples
	Size    int

	iter int
}

// NewBatch validates that the batch size divides the dataset and returns
// the provider. A non-dividing size is a configuration error.
func NewBatch(act Activator, loss Loss, inputs, targets *mat.Dense, size int) (*Batch, error) {
	_, samples := inputs.Dims()
	if size <= 0 {
		return nil, fmt.Errorf("batch size %d must be positive", size)
	}
	if samples%size != 0 {
		return nil, fmt.Errorf("batch size %d does not divide %d samples", size, samples)
	}
	return &Batch{
		Net:     Network{Act: act},
		Loss:    loss,
		Inputs:  inputs,
		Targets: targets,
		Size:    size,
	}, nil
}

// Gradient computes loss and gradient on the next minibatch, accumulating
// into grad, and returns the batch-averaged loss.
func (b *Batch) Gradient(x, grad *lipschitz.Variable) float64 {
	_, samples := b.Inputs.Dims()
	batches := samples / b.Size
	i := b.iter % batches
	b.iter++
	return b.accumulate(x, grad, i)
}

// Full sweeps every minibatch once, accumulating into grad, and returns the
// summed batch-averaged loss.
func (b *Batch) Full(x, grad *lipschitz.Variable) float64 {
	_, samples := b.Inputs.Dims()
	batches := samples / b.Size
	total := 0.0
	for i := 0; i < batches; i++ {
		total += b.accumulate(x, grad, i)
	}
	return total
}

func (b *Batch) accumulate(v, grad *lipschitz.Variable, batch int) float64 {
	topo := v.Topo
	L := topo.Layers()
	lo, hi := batch*b.Size, (batch+1)*b.Size

	input := b.Inputs.Slice(0, topo[0], lo, hi).(*mat.Dense)
	target := b.Targets.Slice(0, topo[L], lo, hi).(*mat.Dense)

	// Forward, keeping every layer input and preactivation for the
	// backward sweep. The output layer stays linear.
	xs := make([]*mat.Dense, L)
	zs := make([]*mat.Dense, L)
	xs[0] = input
	for l := 0; l < L; l++ {
		z := mat.NewDense(topo[l+1], b.Size, nil)
		z.Mul(v.W[l], xs[l])
		for c := 0; c < b.Size; c++ {
			for r := 0; r < topo[l+1]; r++ {
				z.Set(r, c, z.At(r, c)+v.B[l].AtVec(r))
			}
		}
		zs[l] = z
		if l < L-1 {
			a := mat.NewDense(topo[l+1], b.Size, nil)
			a.Apply(b.Net.Act.Activate, z)
			xs[l+1] = a
		}
	}

	delta := b.Loss.Gradient(target, zs[L-1])
	scale := 1 / float64(b.Size)

	for l := L - 1; l >= 0; l-- {
		for r := 0; r < topo[l+1]; r++ {
			sum := 0.0
			for c := 0; c < b.Size; c++ {
				sum += delta.At(r, c)
			}
			grad.B[l].SetVec(r, grad.B[l].AtVec(r)+scale*sum)
		}
		var dw mat.Dense
		dw.Mul(delta, xs[l].T())
		dw.Scale(scale, &dw)
		grad.W[l].Add(grad.W[l], &dw)

		if l > 0 {
			next := mat.NewDense(topo[l], b.Size, nil)
			next.Mul(v.W[l].T(), delta)
			var dact mat.Dense
			dact.Apply(b.Net.Act.Derivative, zs[l-1])
			next.MulElem(next, &dact)
			delta = next
		}
	}

	return b.Loss.Evaluate(target, zs[L-1]) / float64(b.Size)
}
