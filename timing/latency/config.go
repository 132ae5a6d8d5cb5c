// Package latency provides stall penalty configuration for the timing model.
//
// The defaults reproduce the classic teaching configuration: a flat
// 10-cycle cache miss delay and a 1-cycle branch misprediction penalty.
package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the cycle penalties charged by the hazard logic.
type TimingConfig struct {
	// CacheMissDelay is the total cycle cost of a cache access that
	// misses, including the base cycle every advance already charges.
	// Default: 10 cycles.
	CacheMissDelay uint32 `json:"cache_miss_delay"`

	// BranchMispredictPenalty is the extra cycles charged when a branch
	// resolves against the static prediction. Default: 1 cycle.
	BranchMispredictPenalty uint32 `json:"branch_mispredict_penalty"`
}

// DefaultTimingConfig returns a TimingConfig with the classic defaults.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		CacheMissDelay:          10,
		BranchMispredictPenalty: 1,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Values absent from
// the file keep their defaults.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that the penalties are usable.
func (c *TimingConfig) Validate() error {
	if c.CacheMissDelay == 0 {
		return fmt.Errorf("cache_miss_delay must be > 0")
	}
	return nil
}
