package core

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/tracesim/insts"
	"github.com/sarchlab/tracesim/timing/cache"
	"github.com/sarchlab/tracesim/timing/pipeline"
)

// Observer receives simulation events as they occur.
type Observer interface {
	// InstructionFetch reports the cache outcome of fetching one trace
	// line's instruction address.
	InstructionFetch(result cache.AccessResult)

	// DataAccess reports the cache outcome of a Memory-stage load or
	// store.
	DataAccess(result cache.AccessResult)

	// PipelineState reports the pipeline contents after an instruction
	// was inserted.
	PipelineState(cycles uint64, slots [pipeline.NumStages]*insts.Instruction)
}

// TextLogger writes per-access observations and pipeline dumps as text,
// in the classic trace format.
type TextLogger struct {
	w io.Writer

	// DumpPipeline controls whether PipelineState output is produced.
	DumpPipeline bool
}

// NewTextLogger creates a TextLogger writing to w.
func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w, DumpPipeline: true}
}

// InstructionFetch prints the address decomposition and INST HIT/MISS.
func (l *TextLogger) InstructionFetch(result cache.AccessResult) {
	l.printDecomposition(result)
	if result.Hit {
		fmt.Fprintf(l.w, "INST HIT:\t Address 0x%x \n", result.Address)
	} else {
		fmt.Fprintf(l.w, "INST MISS:\t Address 0x%x \n", result.Address)
	}
}

// DataAccess prints the address decomposition and DATA HIT/MISS.
func (l *TextLogger) DataAccess(result cache.AccessResult) {
	l.printDecomposition(result)
	if result.Hit {
		fmt.Fprintf(l.w, "DATA HIT:\t Address 0x%x\n", result.Address)
	} else {
		fmt.Fprintf(l.w, "DATA MISS:\t Address 0x%x\n", result.Address)
	}
}

// PipelineState prints one line per stage with the occupying kind and
// instruction address.
func (l *TextLogger) PipelineState(
	cycles uint64,
	slots [pipeline.NumStages]*insts.Instruction,
) {
	if !l.DumpPipeline {
		return
	}

	fmt.Fprintf(l.w, "(cyc: %d)", cycles)
	for stage := pipeline.Fetch; stage < pipeline.NumStages; stage++ {
		kind := insts.KindNop
		address := uint32(0)
		if inst := slots[stage]; inst != nil {
			kind = inst.Kind
			address = inst.Address
		}
		fmt.Fprintf(l.w, " %s:\t %s: 0x%x \t", stage, kind, address)
	}
	fmt.Fprintln(l.w)
}

func (l *TextLogger) printDecomposition(result cache.AccessResult) {
	fmt.Fprintf(l.w, "Address %x: Tag= %x, Index= %d \n",
		result.Address, result.Tag, result.SetIndex)
}

// accessRecord is one buffered CSV row.
type accessRecord struct {
	kind   string
	result cache.AccessResult
}

// CSVAccessLog records every cache access to a CSV file for offline
// analysis. Pipeline dumps are not recorded.
type CSVAccessLog struct {
	path string
	file *os.File

	records    []accessRecord
	bufferSize int
}

// NewCSVAccessLog creates a CSV access log. With an empty path a unique
// file name is generated.
func NewCSVAccessLog(path string) *CSVAccessLog {
	return &CSVAccessLog{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the CSV file and registers a flush hook that runs at
// process exit.
func (l *CSVAccessLog) Init() error {
	if l.path == "" {
		l.path = "tracesim_access_" + xid.New().String()
	}

	filename := l.path + ".csv"
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating access log: %w", err)
	}
	l.file = file

	fmt.Fprintf(file, "Kind, Address, Tag, Set, Hit\n")

	atexit.Register(func() {
		l.Flush()
		l.file.Close()
	})

	return nil
}

// InstructionFetch records a fetch access.
func (l *CSVAccessLog) InstructionFetch(result cache.AccessResult) {
	l.record("fetch", result)
}

// DataAccess records a Memory-stage access.
func (l *CSVAccessLog) DataAccess(result cache.AccessResult) {
	l.record("data", result)
}

// PipelineState is a no-op for the CSV log.
func (l *CSVAccessLog) PipelineState(
	cycles uint64,
	slots [pipeline.NumStages]*insts.Instruction,
) {
}

func (l *CSVAccessLog) record(kind string, result cache.AccessResult) {
	l.records = append(l.records, accessRecord{kind: kind, result: result})
	if len(l.records) >= l.bufferSize {
		l.Flush()
	}
}

// Flush writes the buffered records to the CSV file.
func (l *CSVAccessLog) Flush() {
	for _, r := range l.records {
		fmt.Fprintf(l.file, "%s, 0x%x, 0x%x, %d, %t\n",
			r.kind,
			r.result.Address,
			r.result.Tag,
			r.result.SetIndex,
			r.result.Hit,
		)
	}

	l.records = nil
}
