// Package pipeline provides the 5-stage in-order pipeline engine.
package pipeline

import (
	"github.com/sarchlab/tracesim/insts"
	"github.com/sarchlab/tracesim/timing/cache"
	"github.com/sarchlab/tracesim/timing/latency"
)

// Stage indexes one of the five pipeline slots.
type Stage int

// Pipeline stages in program order.
const (
	Fetch Stage = iota
	Decode
	ALU
	Memory
	Writeback

	// NumStages is the pipeline depth.
	NumStages
)

// String returns the stage name used in pipeline dumps.
func (s Stage) String() string {
	switch s {
	case Fetch:
		return "FETCH"
	case Decode:
		return "DECODE"
	case ALU:
		return "ALU"
	case Memory:
		return "MEM"
	case Writeback:
		return "WB"
	default:
		return "UNKNOWN"
	}
}

// Statistics holds pipeline performance counters. All counters are
// monotonically non-decreasing for the life of one run.
type Statistics struct {
	// Cycles is the total number of cycles consumed, including stall
	// cycles charged by the hazard unit.
	Cycles uint64
	// Instructions is the number of instructions retired from Writeback.
	Instructions uint64
	// Branches is the number of branch instructions inserted.
	Branches uint64
	// CorrectPredictions is the number of branches whose outcome agreed
	// with the static prediction.
	CorrectPredictions uint64
}

// CPI returns cycles per instruction. The second return value is false
// when no instruction has retired, in which case CPI is undefined.
func (s Statistics) CPI() (float64, bool) {
	if s.Instructions == 0 {
		return 0, false
	}
	return float64(s.Cycles) / float64(s.Instructions), true
}

// DataAccessObserver receives the outcome of every Memory-stage data
// access.
type DataAccessObserver interface {
	DataAccess(result cache.AccessResult)
}

// Option is a functional option for configuring the Pipeline.
type Option func(*Pipeline)

// WithTimingConfig sets custom stall penalties.
func WithTimingConfig(timing *latency.TimingConfig) Option {
	return func(p *Pipeline) {
		p.timing = timing
	}
}

// WithDataAccessObserver registers an observer for Memory-stage accesses.
func WithDataAccessObserver(observer DataAccessObserver) Option {
	return func(p *Pipeline) {
		p.observer = observer
	}
}

// Pipeline models a classic 5-stage in-order pipeline
// (Fetch -> Decode -> ALU -> Memory -> Writeback) advanced one cycle at
// a time.
//
// Each slot holds a *insts.Instruction; nil is the bubble/reset state.
// A trace nop carries its address, so it flows through and retires like
// any other instruction even though its kind is KindNop.
type Pipeline struct {
	slots [NumStages]*insts.Instruction

	dcache    *cache.Cache
	hazard    *HazardUnit
	predictor *StaticPredictor
	timing    *latency.TimingConfig
	observer  DataAccessObserver

	stats Statistics
}

// New creates a pipeline backed by the given data cache and static
// branch prediction.
func New(dcache *cache.Cache, predictTaken bool, opts ...Option) *Pipeline {
	p := &Pipeline{
		dcache:    dcache,
		predictor: NewStaticPredictor(predictTaken),
		timing:    latency.DefaultTimingConfig(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.hazard = NewHazardUnit(p.timing)

	return p
}

// Slot returns the instruction occupying the given stage, or nil.
func (p *Pipeline) Slot(stage Stage) *insts.Instruction {
	return p.slots[stage]
}

// Slots returns a snapshot of all five stages, Fetch first.
func (p *Pipeline) Slots() [NumStages]*insts.Instruction {
	return p.slots
}

// Hazard returns the pipeline's hazard unit.
func (p *Pipeline) Hazard() *HazardUnit {
	return p.hazard
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Empty reports whether all five stages hold bubbles.
func (p *Pipeline) Empty() bool {
	for _, slot := range p.slots {
		if slot != nil {
			return false
		}
	}
	return true
}

// Insert advances the pipeline once and places inst into the vacated
// Fetch slot (push before fill).
func (p *Pipeline) Insert(inst *insts.Instruction) {
	p.Advance()

	p.slots[Fetch] = inst
	if inst != nil && inst.Kind == insts.KindBranch {
		p.stats.Branches++
	}
}

// Advance executes one atomic simulation cycle:
//
//  1. The instruction leaving Writeback retires and is counted.
//  2. A branch in Decode resolves against the static prediction; a
//     misprediction charges extra cycles.
//  3. A load or store in Memory accesses the data cache; a miss charges
//     extra cycles.
//  4. The cycle counter grows by 1 plus the accumulated extra cycles.
//  5. Stages shift toward Writeback and a bubble enters Fetch.
//
// No partial-cycle state is observable outside this method.
func (p *Pipeline) Advance() {
	extra := uint32(0)

	if wb := p.slots[Writeback]; wb != nil && wb.Address != 0 {
		p.stats.Instructions++
	}

	if dec := p.slots[Decode]; dec != nil && dec.Kind == insts.KindBranch {
		if p.branchTaken(dec) == p.predictor.Predict() {
			p.stats.CorrectPredictions++
		} else {
			extra += p.hazard.BranchMispredictPenalty()
		}
	}

	if mem := p.slots[Memory]; mem != nil {
		if addr, ok := mem.DataAddress(); ok {
			result := p.dcache.Access(addr)
			if !result.Hit {
				extra += p.hazard.CacheMissPenalty()
			}
			if p.observer != nil {
				p.observer.DataAccess(result)
			}
		}
	}

	p.stats.Cycles += uint64(1 + extra)

	p.slots[Writeback] = p.slots[Memory]
	p.slots[Memory] = p.slots[ALU]
	p.slots[ALU] = p.slots[Decode]
	p.slots[Decode] = p.slots[Fetch]
	p.slots[Fetch] = nil
}

// Drain advances until every stage is empty so that all in-flight
// instructions retire and are counted.
func (p *Pipeline) Drain() {
	for !p.Empty() {
		p.Advance()
	}
}

// branchTaken decides the actual outcome of the branch sitting in
// Decode: taken when the following fetch is a real instruction that is
// not the fall-through successor.
func (p *Pipeline) branchTaken(branch *insts.Instruction) bool {
	fetch := p.slots[Fetch]
	if fetch == nil || fetch.Kind == insts.KindNop {
		return false
	}
	return fetch.Address != branch.Address+4
}
