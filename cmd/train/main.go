// liptrain-train: trains a feed-forward network, optionally under a
// Lipschitz constant constraint via the central-path barrier method.
//
// Usage:
//
//	train --topology=2,4,3 --method=barrier --lipschitz=5 --file=data.csv
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"liptrain/lipcalc"
	"liptrain/lipschitz"
	"liptrain/nn"
	"liptrain/optimize"
	"liptrain/utils"
)

var (
	dataFile    = flag.String("file", "", "Read datapoints as CSV (features, then class label)")
	outputFile  = flag.String("output", "", "Output weights file (JSON)")
	statsFile   = flag.String("stats", "", "Output loss statistics file (JSON)")
	topologyStr = flag.String("topology", "2,4,3", "Layer widths, comma separated")
	method      = flag.String("method", utils.MethodBarrier, "Training method: adam, barrier, barrier-fixed, pretrain")
	activation  = flag.String("activation", "tanh", "Hidden activation: sigmoid, tanh, relu")
	lossName    = flag.String("loss", "cross-entropy", "Loss: cross-entropy, squared")
	lipConst    = flag.Float64("lipschitz", 5.0, "Lipschitz constant to enforce")
	feasible    = flag.Bool("feasible", true, "Enable feasibility step bounding")
	normalize   = flag.Bool("normalize", false, "Normalize input features")
	batchSize   = flag.Int("batch", 20, "Batch size (must divide the sample count)")
	samples     = flag.Int("samples", 100, "Number of synthetic samples when no file is given")
	seed        = flag.Uint64("seed", 42, "Random seed")
	verbose     = flag.Bool("verbose", true, "Verbose output")

	maxIter     = flag.Int("maxiter", 500000, "Inner iteration cap")
	cpSteps     = flag.Int("steps", 5, "Central path steps")
	diff        = flag.Float64("diff", 1e-10, "Loss difference stopping tolerance")
	threshold   = flag.Float64("threshold", 1e-8, "Windowed decrease stopping tolerance")
	window      = flag.Int("window", 300, "Stopping window size")
	gamma       = flag.Float64("gamma", 1.0, "Initial barrier weight")
	alpha       = flag.Float64("alpha", 0.02, "Step size")
	beta1       = flag.Float64("beta1", 0.9, "Adam momentum decay")
	beta2       = flag.Float64("beta2", 0.999, "Adam velocity decay")
	beta3       = flag.Float64("beta", 5.0, "Tolerance tightening per path step")
	alphaDec    = flag.Float64("alphadec", 0.5, "Step size decay per path step")
	gammaDec    = flag.Float64("gammadec", 0.5, "Barrier weight decay per path step")
	tparam      = flag.Float64("tparam", 100.0, "Initial multiplier value")
	initWeights = flag.Float64("initweights", 0.1, "Weight initialization variance")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	topo, err := utils.ParseTopology(*topologyStr)
	if err != nil {
		fatal(err)
	}
	cfg := &utils.Config{
		Topology:  topo,
		Method:    *method,
		BatchSize: *batchSize,
		Lipschitz: *lipConst,
	}
	if err := utils.ValidateConfig(cfg); err != nil {
		fatal(err)
	}

	act, ok := nn.ActivatorLookup[*activation]
	if !ok {
		fatal(fmt.Errorf("unknown activation %q", *activation))
	}
	loss, ok := nn.LossLookup[*lossName]
	if !ok {
		fatal(fmt.Errorf("unknown loss %q", *lossName))
	}

	if utils.Verbose {
		fmt.Printf("Configuration:\n")
		fmt.Printf("  Topology:   %v\n", topo)
		fmt.Printf("  Method:     %s\n", *method)
		fmt.Printf("  Activation: %s\n", act)
		fmt.Printf("  Lipschitz:  %.2f\n", *lipConst)
		fmt.Printf("  Batch size: %d\n", *batchSize)
		fmt.Println()
	}

	timing := &utils.TimingStats{}
	totalStart := time.Now()
	src := rand.NewPCG(*seed, *seed)

	start := time.Now()
	lines, err := loadData(topo)
	if err != nil {
		fatal(err)
	}
	inputs, targets := nn.Matrices(lines)
	batch, err := nn.NewBatch(act, loss, inputs, targets, *batchSize)
	if err != nil {
		fatal(err)
	}
	timing.DataLoadingTime = time.Since(start)

	start = time.Now()
	ltopo := lipschitz.Topology(topo)
	x := lipschitz.NewVariable(ltopo)
	nn.InitWeights(x, *initWeights, *tparam, src)
	timing.ModelInitTime = time.Since(start)

	stats := &optimize.RunStats{}
	var finalLoss float64

	switch *method {
	case utils.MethodAdam:
		start = time.Now()
		_, finalLoss = plainAdam(stats).Run(batch.Gradient, x)
		timing.TrainingTime = time.Since(start)

	case utils.MethodBarrierPre:
		start = time.Now()
		_, finalLoss = plainAdam(stats).Run(batch.Gradient, x)
		timing.PretrainTime = time.Since(start)
		fallthrough

	case utils.MethodBarrier:
		start = time.Now()
		opt := &optimize.AdamBarrier{
			Params:  barrierParams(),
			Barrier: &lipschitz.Barrier{Lipschitz: *lipConst, Cond: lipschitz.DefaultCond},
			Step:    jointStep(),
			Stats:   stats,
		}
		_, finalLoss, err = opt.Run(batch.Gradient, x)
		if err != nil {
			fatal(err)
		}
		timing.TrainingTime = time.Since(start)

	case utils.MethodBarrierWot:
		start = time.Now()
		opt := &optimize.AdamBarrier{
			Params:  barrierParams(),
			Barrier: lipschitz.NewFixedBarrier(*lipConst, x.T),
			Step:    fixedStep(x),
			Stats:   stats,
		}
		_, finalLoss, err = opt.Run(batch.Gradient, x)
		if err != nil {
			fatal(err)
		}
		timing.TrainingTime = time.Since(start)
	}

	fmt.Printf("\nFinal loss: %v\n", finalLoss)

	if *method != utils.MethodAdam {
		start = time.Now()
		certified, lmin, err := lipcalc.Certified(ltopo, *lipConst, x.W, x.T, 1e-6)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Certified %.2f-Lipschitz: %v (min eigenvalue %v)\n", *lipConst, certified, lmin)
		timing.CertifyTime = time.Since(start)
	}
	fmt.Printf("Trivial Lipschitz bound: %v\n", lipcalc.TrivialBound(x.W))

	if *outputFile != "" {
		if err := utils.SaveWeights(*outputFile, utils.FromVariable(x)); err != nil {
			fatal(err)
		}
		fmt.Printf("Saved model to %s\n", *outputFile)
	}
	if *statsFile != "" {
		if err := stats.Save(*statsFile); err != nil {
			fatal(err)
		}
		fmt.Printf("Saved statistics to %s\n", *statsFile)
	}

	timing.TotalTime = time.Since(totalStart)
	utils.PrintTimingStats(timing)
}

func loadData(topo []int) (nn.Lines, error) {
	in, out := topo[0], topo[len(topo)-1]
	if *dataFile == "" {
		if utils.Verbose {
			fmt.Printf("Generating %d synthetic samples...\n", *samples)
		}
		return nn.SyntheticBlobs(*samples, in, out, rand.NewPCG(*seed+1, *seed+1)), nil
	}
	lines, err := nn.ReadCSV(*dataFile, in, out)
	if err != nil {
		return nil, err
	}
	if *normalize {
		lines = nn.Normalize(lines)
	}
	return lines, nil
}

func plainAdam(stats *optimize.RunStats) *optimize.Adam {
	p := optimize.DefaultAdamParams()
	p.MaxIter = *maxIter
	p.Diff = *diff
	p.Alpha = *alpha
	p.Beta1 = *beta1
	p.Beta2 = *beta2
	return &optimize.Adam{Params: p, Stats: stats}
}

func barrierParams() optimize.Params {
	return optimize.Params{
		MaxIter:   *maxIter,
		CPSteps:   *cpSteps,
		Diff:      *diff,
		Threshold: *threshold,
		Window:    *window,
		Gamma:     *gamma,
		Alpha:     *alpha,
		Beta1:     *beta1,
		Beta2:     *beta2,
		Beta3:     *beta3,
		AlphaDec:  *alphaDec,
		GammaDec:  *gammaDec,
		Eps:       1e-8,
	}
}

func jointStep() optimize.StepBound {
	if !*feasible {
		return lipschitz.Unbounded{}
	}
	return lipschitz.NewJointStepBound(*lipConst * *lipConst)
}

func fixedStep(x *lipschitz.Variable) optimize.StepBound {
	if !*feasible {
		return lipschitz.Unbounded{}
	}
	return lipschitz.NewWeightStepBound(x.T)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
