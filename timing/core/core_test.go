package core_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tracesim/insts"
	"github.com/sarchlab/tracesim/timing/cache"
	"github.com/sarchlab/tracesim/timing/core"
	"github.com/sarchlab/tracesim/timing/pipeline"
)

// eventRecorder keeps every observation for later assertions.
type eventRecorder struct {
	fetches []cache.AccessResult
	data    []cache.AccessResult
	dumps   int
}

func (r *eventRecorder) InstructionFetch(result cache.AccessResult) {
	r.fetches = append(r.fetches, result)
}

func (r *eventRecorder) DataAccess(result cache.AccessResult) {
	r.data = append(r.data, result)
}

func (r *eventRecorder) PipelineState(
	cycles uint64,
	slots [pipeline.NumStages]*insts.Instruction,
) {
	r.dumps++
}

var _ = Describe("Simulator", func() {
	It("should reject an oversized cache", func() {
		_, err := core.NewSimulator(core.Config{
			Cache: cache.Config{
				IndexBits:     10,
				BlockWords:    4,
				Associativity: 2,
			},
		})

		Expect(err).To(MatchError(cache.ErrCacheTooLarge))
	})

	It("should simulate a pair of loads end to end", func() {
		recorder := &eventRecorder{}
		sim, err := core.NewSimulator(core.Config{
			Cache: cache.Config{
				IndexBits:     1,
				BlockWords:    1,
				Associativity: 1,
			},
		}, core.WithObserver(recorder))
		Expect(err).NotTo(HaveOccurred())

		trace := strings.NewReader(
			"100 lw $1, 0($2) 200\n" +
				"104 lw $3, 0($2) 200\n")
		Expect(sim.Run(trace)).To(Succeed())
		report := sim.Finalize()

		Expect(report.Pipeline.Cycles).To(Equal(uint64(34)))
		Expect(report.Pipeline.Instructions).To(Equal(uint64(2)))
		cpi, ok := report.Pipeline.CPI()
		Expect(ok).To(BeTrue())
		Expect(cpi).To(Equal(17.0))

		Expect(report.Cache.Accesses).To(Equal(uint64(4)))
		Expect(report.Cache.Misses).To(Equal(uint64(3)))
		Expect(report.Cache.Hits).To(Equal(uint64(1)))

		// Both fetches land in distinct one-word blocks.
		Expect(recorder.fetches).To(HaveLen(2))
		Expect(recorder.fetches[0].Hit).To(BeFalse())
		Expect(recorder.fetches[1].Hit).To(BeFalse())

		// The second load reuses the line the first one filled.
		Expect(recorder.data).To(HaveLen(2))
		Expect(recorder.data[0].Hit).To(BeFalse())
		Expect(recorder.data[0].Address).To(Equal(uint32(0x200)))
		Expect(recorder.data[1].Hit).To(BeTrue())

		Expect(recorder.dumps).To(Equal(2))
		Expect(sim.Lines()).To(Equal(uint64(2)))
	})

	It("should resolve a fall-through branch as predicted not taken", func() {
		sim, err := core.NewSimulator(core.Config{
			Cache: cache.Config{
				IndexBits:     4,
				BlockWords:    4,
				Associativity: 1,
			},
		})
		Expect(err).NotTo(HaveOccurred())

		trace := strings.NewReader(
			"100 beq $1, $2, 10c\n" +
				"104 add $3, $4, $5\n" +
				"108 add $6, $7, $8\n")
		Expect(sim.Run(trace)).To(Succeed())
		report := sim.Finalize()

		Expect(report.Pipeline.Branches).To(Equal(uint64(1)))
		Expect(report.Pipeline.CorrectPredictions).To(Equal(uint64(1)))
		Expect(report.Pipeline.Instructions).To(Equal(uint64(3)))

		// One fetch miss fills the 16-byte block; the two fall-through
		// fetches hit in it. 10 + 1 + 1 + 5 hazard-free advances.
		Expect(report.Pipeline.Cycles).To(Equal(uint64(17)))
		Expect(report.Cache.Accesses).To(Equal(uint64(3)))
		Expect(report.Cache.Misses).To(Equal(uint64(1)))
	})

	It("should penalize a taken branch under predict-not-taken", func() {
		sim, err := core.NewSimulator(core.Config{
			Cache: cache.Config{
				IndexBits:     4,
				BlockWords:    4,
				Associativity: 1,
			},
		})
		Expect(err).NotTo(HaveOccurred())

		// The target stays inside the branch's block so its fetch hits
		// and the branch still sits in Decode when it arrives.
		trace := strings.NewReader(
			"100 beq $1, $2, 10c\n" +
				"10c add $3, $4, $5\n" +
				"110 add $6, $7, $8\n")
		Expect(sim.Run(trace)).To(Succeed())
		report := sim.Finalize()

		Expect(report.Pipeline.Branches).To(Equal(uint64(1)))
		Expect(report.Pipeline.CorrectPredictions).To(Equal(uint64(0)))
		Expect(report.Pipeline.Cycles).To(Equal(uint64(27)))
	})

	It("should skip blank lines and report the failing line number", func() {
		sim, err := core.NewSimulator(core.Config{
			Cache: cache.Config{
				IndexBits:     1,
				BlockWords:    1,
				Associativity: 1,
			},
		})
		Expect(err).NotTo(HaveOccurred())

		trace := strings.NewReader(
			"\n" +
				"100 nop\n" +
				"\n" +
				"104 mult $1, $2, $3\n")
		err = sim.Run(trace)

		Expect(err).To(MatchError(insts.ErrUnknownMnemonic))
		Expect(err.Error()).To(ContainSubstring("trace line 4"))
	})

	It("should report undefined ratios for an empty trace", func() {
		sim, err := core.NewSimulator(core.Config{
			Cache: cache.Config{
				IndexBits:     1,
				BlockWords:    1,
				Associativity: 1,
			},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(sim.Run(strings.NewReader(""))).To(Succeed())
		report := sim.Finalize()

		_, ok := report.Pipeline.CPI()
		Expect(ok).To(BeFalse())
		_, ok = report.Cache.MissRate()
		Expect(ok).To(BeFalse())

		var buf bytes.Buffer
		report.WriteText(&buf)
		Expect(buf.String()).To(ContainSubstring("CPI is undefined"))
		Expect(buf.String()).To(ContainSubstring("Cache Miss Rate is undefined"))
	})
})

var _ = Describe("TextLogger", func() {
	It("should log fetch outcomes with the address decomposition", func() {
		var buf bytes.Buffer
		logger := core.NewTextLogger(&buf)

		sim, err := core.NewSimulator(core.Config{
			Cache: cache.Config{
				IndexBits:     1,
				BlockWords:    1,
				Associativity: 1,
			},
		}, core.WithObserver(logger))
		Expect(err).NotTo(HaveOccurred())

		Expect(sim.Run(strings.NewReader("100 nop\n"))).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("Address 100: Tag="))
		Expect(out).To(ContainSubstring("INST MISS:\t Address 0x100"))
		Expect(out).To(ContainSubstring("FETCH"))
	})

	It("should omit pipeline dumps when disabled", func() {
		var buf bytes.Buffer
		logger := core.NewTextLogger(&buf)
		logger.DumpPipeline = false

		sim, err := core.NewSimulator(core.Config{
			Cache: cache.Config{
				IndexBits:     1,
				BlockWords:    1,
				Associativity: 1,
			},
		}, core.WithObserver(logger))
		Expect(err).NotTo(HaveOccurred())

		Expect(sim.Run(strings.NewReader("100 nop\n"))).To(Succeed())

		Expect(buf.String()).NotTo(ContainSubstring("(cyc:"))
	})
})

var _ = Describe("CSVAccessLog", func() {
	It("should write one row per access", func() {
		path := filepath.Join(GinkgoT().TempDir(), "accesses")
		log := core.NewCSVAccessLog(path)
		Expect(log.Init()).To(Succeed())

		log.InstructionFetch(cache.AccessResult{
			Address: 0x100, Tag: 0x20, SetIndex: 0, Hit: false,
		})
		log.DataAccess(cache.AccessResult{
			Address: 0x200, Tag: 0x40, SetIndex: 0, Hit: true,
		})
		log.Flush()

		data, err := os.ReadFile(path + ".csv")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("Kind, Address, Tag, Set, Hit"))
		Expect(string(data)).To(ContainSubstring("fetch, 0x100, 0x20, 0, false"))
		Expect(string(data)).To(ContainSubstring("data, 0x200, 0x40, 0, true"))
	})

	It("should refuse to overwrite an existing file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "accesses")
		Expect(os.WriteFile(path+".csv", nil, 0644)).To(Succeed())

		log := core.NewCSVAccessLog(path)

		Expect(log.Init()).To(HaveOccurred())
	})
})
