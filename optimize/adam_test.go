package optimize

import (
	"math"
	"testing"

	"liptrain/lipschitz"
	"liptrain/utils"
)

// quadratic is a separable convex loss with minimum at 1.5 per entry.
func quadratic(x, grad *lipschitz.Variable) float64 {
	f := 0.0
	xd, gd := x.Data(), grad.Data()
	for k := range xd {
		for i := range xd[k] {
			d := xd[k][i] - 1.5
			f += d * d
			gd[k][i] += 2 * d
		}
	}
	return f
}

func TestAdamConvergesOnQuadratic(t *testing.T) {
	utils.Verbose = false
	defer func() { utils.Verbose = true }()

	x := lipschitz.NewVariable(lipschitz.Topology{1, 2, 1})
	stats := &RunStats{}
	a := &Adam{Params: DefaultAdamParams(), Stats: stats}

	_, fx := a.Run(quadratic, x)

	if fx > 1e-4 {
		t.Fatalf("final loss = %v, want < 1e-4", fx)
	}
	for k, s := range x.Data() {
		for i, v := range s {
			if math.Abs(v-1.5) > 1e-2 {
				t.Errorf("component %d[%d] = %v, want 1.5", k, i, v)
			}
		}
	}
	if len(stats.Loss) < 2 {
		t.Fatalf("expected recorded loss trajectory, got %d entries", len(stats.Loss))
	}
	if last := stats.Loss[len(stats.Loss)-1]; last > stats.Loss[0] {
		t.Errorf("loss increased over the run: %v -> %v", stats.Loss[0], last)
	}
}

func TestAdamStopsOnIterationCap(t *testing.T) {
	utils.Verbose = false
	defer func() { utils.Verbose = true }()

	p := DefaultAdamParams()
	p.MaxIter = 3
	p.Diff = 0
	p.GradDiff = 0

	x := lipschitz.NewVariable(lipschitz.Topology{1, 2, 1})
	a := &Adam{Params: p, Stats: &RunStats{}}
	a.Run(quadratic, x)

	// one evaluation up front, one per iteration
	if got := len(a.Stats.Loss); got != 4 {
		t.Fatalf("expected 4 recorded evaluations, got %d", got)
	}
}

func TestAdamNilStats(t *testing.T) {
	utils.Verbose = false
	defer func() { utils.Verbose = true }()

	p := DefaultAdamParams()
	p.MaxIter = 10
	x := lipschitz.NewVariable(lipschitz.Topology{1, 2, 1})
	a := &Adam{Params: p}
	a.Run(quadratic, x) // must not panic without a stats collector
}
