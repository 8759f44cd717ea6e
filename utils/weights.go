package utils

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"liptrain/lipschitz"
)

// WeightData represents serializable weight data for a layer
type WeightData struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// LayerWeight contains weights and bias for a layer
type LayerWeight struct {
	Weight *WeightData `json:"weight,omitempty"`
	Bias   *WeightData `json:"bias,omitempty"`
}

// ModelWeights represents all parameters of a model: the topology, one
// weight/bias pair per layer, and one multiplier vector per hidden layer.
type ModelWeights struct {
	Version  string                 `json:"version"`
	Topology []int                  `json:"topology"`
	Layers   map[string]LayerWeight `json:"layers"`
	Slack    map[string]*WeightData `json:"slack,omitempty"`
}

// SaveWeights saves model weights to a JSON file
func SaveWeights(filepath string, weights *ModelWeights) error {
	data, err := json.MarshalIndent(weights, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadWeights loads model weights from a JSON file
func LoadWeights(filepath string) (*ModelWeights, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights file: %w", err)
	}
	var weights ModelWeights
	if err := json.Unmarshal(data, &weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
	}
	return &weights, nil
}

func layerName(i int) string {
	return fmt.Sprintf("layer%d", i+1)
}

// FromVariable converts an iterate into its serializable form.
func FromVariable(v *lipschitz.Variable) *ModelWeights {
	mw := &ModelWeights{
		Version:  "1.0",
		Topology: append([]int{}, v.Topo...),
		Layers:   make(map[string]LayerWeight, len(v.W)),
		Slack:    make(map[string]*WeightData, len(v.T)),
	}
	for i, w := range v.W {
		rows, cols := w.Dims()
		mw.Layers[layerName(i)] = LayerWeight{
			Weight: &WeightData{
				Name:  layerName(i) + "_weight",
				Shape: []int{rows, cols},
				Data:  append([]float64{}, w.RawMatrix().Data...),
			},
			Bias: &WeightData{
				Name:  layerName(i) + "_bias",
				Shape: []int{rows},
				Data:  append([]float64{}, v.B[i].RawVector().Data...),
			},
		}
	}
	for i, t := range v.T {
		mw.Slack[layerName(i)] = &WeightData{
			Name:  layerName(i) + "_slack",
			Shape: []int{t.Len()},
			Data:  append([]float64{}, t.RawVector().Data...),
		}
	}
	return mw
}

// ToVariable rebuilds an iterate from its serialized form, validating every
// shape against the expected topology. Mismatches are configuration errors.
func ToVariable(mw *ModelWeights, topo lipschitz.Topology) (*lipschitz.Variable, error) {
	if len(mw.Topology) != len(topo) {
		return nil, fmt.Errorf("model topology %v does not match expected %v", mw.Topology, []int(topo))
	}
	for i, n := range mw.Topology {
		if n != topo[i] {
			return nil, fmt.Errorf("model topology %v does not match expected %v", mw.Topology, []int(topo))
		}
	}

	v := lipschitz.NewVariable(topo)
	for i := range v.W {
		layer, ok := mw.Layers[layerName(i)]
		if !ok {
			return nil, fmt.Errorf("model is missing %s", layerName(i))
		}
		rows, cols := topo[i+1], topo[i]
		if layer.Weight == nil || len(layer.Weight.Data) != rows*cols {
			return nil, fmt.Errorf("%s weight does not match shape [%d %d]", layerName(i), rows, cols)
		}
		v.W[i] = mat.NewDense(rows, cols, append([]float64{}, layer.Weight.Data...))
		if layer.Bias == nil || len(layer.Bias.Data) != rows {
			return nil, fmt.Errorf("%s bias does not match shape [%d]", layerName(i), rows)
		}
		v.B[i] = mat.NewVecDense(rows, append([]float64{}, layer.Bias.Data...))
	}
	for i := range v.T {
		slack, ok := mw.Slack[layerName(i)]
		if !ok {
			return nil, fmt.Errorf("model is missing %s slack", layerName(i))
		}
		if len(slack.Data) != topo[i+1] {
			return nil, fmt.Errorf("%s slack does not match shape [%d]", layerName(i), topo[i+1])
		}
		v.T[i] = mat.NewVecDense(topo[i+1], append([]float64{}, slack.Data...))
	}
	return v, nil
}
