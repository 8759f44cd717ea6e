package optimize

import (
	"encoding/json"
	"fmt"
	"os"
)

// RunStats collects the loss trajectory of an optimization run. Steps marks
// the index into Loss at which each central-path step began, so a consumer
// can slice the trajectory per path step.
type RunStats struct {
	Loss  []float64 `json:"loss"`
	Steps []int     `json:"steps,omitempty"`
}

// Append records one loss evaluation.
func (s *RunStats) Append(loss float64) {
	if s == nil {
		return
	}
	s.Loss = append(s.Loss, loss)
}

// MarkStep records the start of a central-path step.
func (s *RunStats) MarkStep() {
	if s == nil {
		return
	}
	s.Steps = append(s.Steps, len(s.Loss))
}

// Save writes the statistics to a JSON file.
func (s *RunStats) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal statistics: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write statistics file: %w", err)
	}
	return nil
}
