package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// Training methods selectable on the command line.
const (
	MethodAdam       = "adam"          // unconstrained Adam
	MethodBarrier    = "barrier"       // central-path barrier over weights and multipliers
	MethodBarrierWot = "barrier-fixed" // central-path barrier with frozen multipliers
	MethodBarrierPre = "pretrain"      // unconstrained pretraining, then barrier
)

// Config holds training configuration.
type Config struct {
	Topology  []int
	Method    string
	BatchSize int
	Lipschitz float64
}

// ParseTopology parses a topology string like "2,4,3" or "2 4 3" into layer
// widths.
func ParseTopology(s string) ([]int, error) {
	parts := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty topology")
	}
	topo := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid topology entry %q: %w", p, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("topology entry %d must be positive", n)
		}
		topo[i] = n
	}
	return topo, nil
}

// ValidateConfig validates training configuration.
func ValidateConfig(config *Config) error {
	if len(config.Topology) < 2 {
		return fmt.Errorf("topology must have at least 2 layers (input and output)")
	}

	if config.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}

	switch config.Method {
	case MethodAdam:
	case MethodBarrier, MethodBarrierWot, MethodBarrierPre:
		if len(config.Topology) < 3 {
			return fmt.Errorf("barrier training needs at least one hidden layer")
		}
		if config.Lipschitz <= 0 {
			return fmt.Errorf("lipschitz constant must be positive")
		}
	default:
		return fmt.Errorf("unknown method %q", config.Method)
	}

	return nil
}
