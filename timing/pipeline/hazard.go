package pipeline

import (
	"github.com/sarchlab/tracesim/timing/latency"
)

// HazardUnit converts hazard outcomes into stall cycles. The three
// hazard sources (instruction-fetch miss, branch misprediction, and
// Memory-stage data miss) are independent; penalties that land in the
// same cycle accumulate.
type HazardUnit struct {
	timing *latency.TimingConfig
}

// NewHazardUnit creates a hazard unit charging the given penalties.
func NewHazardUnit(timing *latency.TimingConfig) *HazardUnit {
	return &HazardUnit{timing: timing}
}

// BranchMispredictPenalty is the extra cycles charged when a branch in
// Decode resolves against the static prediction.
func (h *HazardUnit) BranchMispredictPenalty() uint32 {
	return h.timing.BranchMispredictPenalty
}

// CacheMissPenalty is the extra cycles charged by an access that misses,
// beyond the base cycle the advance already counts.
func (h *HazardUnit) CacheMissPenalty() uint32 {
	return h.timing.CacheMissDelay - 1
}

// FetchMissBubbles is the number of empty advances to inject when an
// instruction fetch misses, before the instruction enters the pipeline.
// The pipeline keeps draining underneath the stalled fetch, which lets
// these cycles overlap with branch and data-miss penalties instead of
// double counting them.
func (h *HazardUnit) FetchMissBubbles() uint32 {
	return h.timing.CacheMissDelay - 1
}
