// liptrain-lipbound: reports Lipschitz bounds for a saved model: the
// trivial norm-product upper bound, and when a target constant is given,
// the positive semidefiniteness certificate of the constraint matrix.
//
// Usage:
//
//	lipbound --model=weights.json --lipschitz=5
package main

import (
	"flag"
	"fmt"
	"os"

	"liptrain/lipcalc"
	"liptrain/lipschitz"
	"liptrain/utils"
)

var (
	modelFile = flag.String("model", "", "Model weights file (JSON)")
	lipConst  = flag.Float64("lipschitz", 0, "Certify against this Lipschitz constant (0 skips)")
	tol       = flag.Float64("tol", 1e-6, "Eigenvalue tolerance for the certificate")
)

func main() {
	flag.Parse()
	if *modelFile == "" {
		fmt.Fprintln(os.Stderr, "Error: --model is required")
		os.Exit(1)
	}

	mw, err := utils.LoadWeights(*modelFile)
	if err != nil {
		fatal(err)
	}
	topo := lipschitz.Topology(mw.Topology)
	if err := topo.Validate(); err != nil {
		fatal(err)
	}
	x, err := utils.ToVariable(mw, topo)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Topology: %v\n", mw.Topology)
	fmt.Printf("Trivial Lipschitz bound: %v\n", lipcalc.TrivialBound(x.W))

	if *lipConst > 0 {
		certified, lmin, err := lipcalc.Certified(topo, *lipConst, x.W, x.T, *tol)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Certified %.2f-Lipschitz: %v (min eigenvalue %v)\n", *lipConst, certified, lmin)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
