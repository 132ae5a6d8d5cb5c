// Package core wires the trace decoder, the cache, and the pipeline into
// one simulation run.
//
// A Simulator owns all mutable state of a run (cache lines, pipeline
// slots, counters), so independent runs never interfere.
package core

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/tracesim/insts"
	"github.com/sarchlab/tracesim/timing/cache"
	"github.com/sarchlab/tracesim/timing/latency"
	"github.com/sarchlab/tracesim/timing/pipeline"
)

// Config holds the immutable configuration of one simulation run.
type Config struct {
	// Cache configures the single shared cache used for both
	// instruction fetches and data accesses.
	Cache cache.Config

	// PredictTaken selects the static branch prediction.
	PredictTaken bool

	// Timing overrides the stall penalties; nil selects the defaults.
	Timing *latency.TimingConfig
}

// Option is a functional option for configuring the Simulator.
type Option func(*Simulator)

// WithObserver registers an observer for simulation events. May be used
// multiple times.
func WithObserver(observer Observer) Option {
	return func(s *Simulator) {
		s.observers = append(s.observers, observer)
	}
}

// Simulator drives one simulation run.
type Simulator struct {
	config Config
	timing *latency.TimingConfig

	cache   *cache.Cache
	pipe    *pipeline.Pipeline
	decoder *insts.Decoder

	observers []Observer
	lines     uint64
}

// NewSimulator creates a simulator from a validated configuration. It
// returns cache.ErrCacheTooLarge when the requested cache exceeds the
// size bound.
func NewSimulator(config Config, opts ...Option) (*Simulator, error) {
	timing := config.Timing
	if timing == nil {
		timing = latency.DefaultTimingConfig()
	} else if err := timing.Validate(); err != nil {
		return nil, err
	}

	c, err := cache.New(config.Cache)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		config:  config,
		timing:  timing,
		cache:   c,
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.pipe = pipeline.New(
		c,
		config.PredictTaken,
		pipeline.WithTimingConfig(timing),
		pipeline.WithDataAccessObserver(s),
	)

	return s, nil
}

// Cache returns the simulator's cache.
func (s *Simulator) Cache() *cache.Cache {
	return s.cache
}

// Pipeline returns the simulator's pipeline.
func (s *Simulator) Pipeline() *pipeline.Pipeline {
	return s.pipe
}

// Lines returns the number of trace lines fed so far.
func (s *Simulator) Lines() uint64 {
	return s.lines
}

// DataAccess fans a Memory-stage access out to the observers. It makes
// the Simulator the pipeline's DataAccessObserver.
func (s *Simulator) DataAccess(result cache.AccessResult) {
	for _, o := range s.observers {
		o.DataAccess(result)
	}
}

// Run feeds every line of the trace through the simulator, in order.
// Blank lines are skipped. A malformed line aborts the run with an error
// naming the line number; no partial-result recovery is attempted.
func (s *Simulator) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		inst, err := s.decoder.Decode(line)
		if err != nil {
			return fmt.Errorf("trace line %d: %w", lineNo, err)
		}

		s.Feed(inst)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading trace: %w", err)
	}

	return nil
}

// Feed performs the instruction-fetch access for inst and inserts it
// into the pipeline. A fetch miss first injects empty advances, draining
// the pipeline by one stage each while the line is filled.
func (s *Simulator) Feed(inst *insts.Instruction) {
	result := s.cache.Access(inst.Address)
	for _, o := range s.observers {
		o.InstructionFetch(result)
	}

	if !result.Hit {
		bubbles := s.pipe.Hazard().FetchMissBubbles()
		for i := uint32(0); i < bubbles; i++ {
			s.pipe.Advance()
		}
	}

	s.pipe.Insert(inst)
	s.lines++

	for _, o := range s.observers {
		o.PipelineState(s.pipe.Stats().Cycles, s.pipe.Slots())
	}
}

// Finalize drains the pipeline, so every fetched instruction retires,
// and assembles the final report.
func (s *Simulator) Finalize() Report {
	s.pipe.Drain()

	return Report{
		Cache:    s.cache.Stats(),
		Pipeline: s.pipe.Stats(),
	}
}
