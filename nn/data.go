package nn

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

type Line struct {
	Inputs  []float64
	Targets []float64
}
type Lines []Line

// ReadCSV loads a dataset where each row holds inputNum feature values
// followed by an integer class label. The label becomes a one-hot target of
// width outputNum.
func ReadCSV(filename string, inputNum, outputNum int) (Lines, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	var lines Lines
	r := csv.NewReader(bufio.NewReader(file))
	lineNum := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset: %w", err)
		}
		lineNum++
		if len(record) != inputNum+1 {
			return nil, fmt.Errorf("at line %d, expected %d values, got %d",
				lineNum, inputNum+1, len(record))
		}

		inputs := make([]float64, inputNum)
		for i := range inputs {
			x, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				return nil, fmt.Errorf("parsing input at line %d: %w", lineNum, err)
			}
			inputs[i] = x
		}

		label, err := strconv.Atoi(record[inputNum])
		if err != nil {
			return nil, fmt.Errorf("parsing label at line %d: %w", lineNum, err)
		}
		if label < 0 || label >= outputNum {
			return nil, fmt.Errorf("at line %d, label %d out of range [0,%d)",
				lineNum, label, outputNum)
		}
		targets := make([]float64, outputNum)
		targets[label] = 1

		lines = append(lines, Line{Inputs: inputs, Targets: targets})
	}
	return lines, nil
}

// Normalize rescales every input feature to zero mean and unit variance.
func Normalize(lines Lines) Lines {
	if len(lines) == 0 {
		return lines
	}
	n := len(lines[0].Inputs)
	mean := make([]float64, n)
	for _, line := range lines {
		for i, x := range line.Inputs {
			mean[i] += x
		}
	}
	for i := range mean {
		mean[i] /= float64(len(lines))
	}

	std := make([]float64, n)
	for _, line := range lines {
		for i, x := range line.Inputs {
			d := x - mean[i]
			std[i] += d * d
		}
	}
	for i := range std {
		std[i] = math.Sqrt(std[i] / float64(len(lines)))
		if std[i] == 0 {
			std[i] = 1
		}
	}

	out := make(Lines, len(lines))
	for i, line := range lines {
		inputs := make([]float64, n)
		for j, x := range line.Inputs {
			inputs[j] = (x - mean[j]) / std[j]
		}
		out[i] = Line{Inputs: inputs, Targets: line.Targets}
	}
	return out
}

// Matrices packs the lines into input and target matrices with one sample
// per column.
func Matrices(lines Lines) (inputs, targets *mat.Dense) {
	samples := len(lines)
	in := mat.NewDense(len(lines[0].Inputs), samples, nil)
	tg := mat.NewDense(len(lines[0].Targets), samples, nil)
	for c, line := range lines {
		for r, x := range line.Inputs {
			in.Set(r, c, x)
		}
		for r, x := range line.Targets {
			tg.Set(r, c, x)
		}
	}
	return in, tg
}

// SyntheticBlobs draws samples from classes Gaussian clusters with unit
// spread, centered on scaled unit vectors, cycling through the classes so
// every class gets the same share.
func SyntheticBlobs(samples, features, classes int, src rand.Source) Lines {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	lines := make(Lines, samples)
	for s := 0; s < samples; s++ {
		class := s % classes
		inputs := make([]float64, features)
		for i := range inputs {
			inputs[i] = normal.Rand()
		}
		inputs[class%features] += 4
		targets := make([]float64, classes)
		targets[class] = 1
		lines[s] = Line{Inputs: inputs, Targets: targets}
	}
	return lines
}
