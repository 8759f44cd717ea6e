package nn

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

func TestSyntheticBlobs(t *testing.T) {
	lines := SyntheticBlobs(9, 4, 3, rand.NewPCG(1, 1))
	if len(lines) != 9 {
		t.Fatalf("got %d lines, want 9", len(lines))
	}
	counts := make([]int, 3)
	for _, line := range lines {
		if len(line.Inputs) != 4 || len(line.Targets) != 3 {
			t.Fatalf("line shape = (%d,%d), want (4,3)", len(line.Inputs), len(line.Targets))
		}
		hot := -1
		for i, v := range line.Targets {
			if v == 1 {
				if hot >= 0 {
					t.Fatal("target is not one-hot")
				}
				hot = i
			} else if v != 0 {
				t.Fatalf("target entry = %v, want 0 or 1", v)
			}
		}
		counts[hot]++
	}
	for c, n := range counts {
		if n != 3 {
			t.Errorf("class %d has %d samples, want 3", c, n)
		}
	}
}

func TestMatricesLayout(t *testing.T) {
	lines := Lines{
		{Inputs: []float64{1, 2}, Targets: []float64{1, 0}},
		{Inputs: []float64{3, 4}, Targets: []float64{0, 1}},
	}
	inputs, targets := Matrices(lines)

	if r, c := inputs.Dims(); r != 2 || c != 2 {
		t.Fatalf("inputs dims = (%d,%d), want (2,2)", r, c)
	}
	if inputs.At(0, 1) != 3 || inputs.At(1, 0) != 2 {
		t.Error("inputs are not one sample per column")
	}
	if targets.At(1, 1) != 1 {
		t.Error("targets are not one sample per column")
	}
}

func TestReadCSV(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "data_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "data.csv")
	content := "0.5,1.5,0\n-0.25,2.0,2\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	lines, err := ReadCSV(path, 2, 3)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Inputs[0] != 0.5 || lines[1].Inputs[1] != 2.0 {
		t.Error("inputs parsed incorrectly")
	}
	if lines[0].Targets[0] != 1 || lines[1].Targets[2] != 1 {
		t.Error("labels not one-hot encoded")
	}
}

func TestReadCSVErrors(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "data_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	if _, err := ReadCSV(filepath.Join(tmpDir, "missing.csv"), 2, 2); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(tmpDir, "bad.csv")
	if err := os.WriteFile(bad, []byte("1.0,2.0,7\n"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	if _, err := ReadCSV(bad, 2, 3); err == nil {
		t.Error("expected error for out-of-range label")
	}

	short := filepath.Join(tmpDir, "short.csv")
	if err := os.WriteFile(short, []byte("1.0,0\n"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	if _, err := ReadCSV(short, 2, 2); err == nil {
		t.Error("expected error for wrong column count")
	}
}

func TestNormalize(t *testing.T) {
	lines := Lines{
		{Inputs: []float64{1, 10}, Targets: []float64{1}},
		{Inputs: []float64{3, 10}, Targets: []float64{0}},
	}
	out := Normalize(lines)

	if out[0].Inputs[0] != -1 || out[1].Inputs[0] != 1 {
		t.Errorf("feature 0 = [%v %v], want [-1 1]", out[0].Inputs[0], out[1].Inputs[0])
	}
	// constant feature stays put instead of dividing by zero
	if out[0].Inputs[1] != 0 || out[1].Inputs[1] != 0 {
		t.Errorf("constant feature = [%v %v], want [0 0]", out[0].Inputs[1], out[1].Inputs[1])
	}
	// originals untouched
	if lines[0].Inputs[0] != 1 {
		t.Error("Normalize mutated its input")
	}
}
