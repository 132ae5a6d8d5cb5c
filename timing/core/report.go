package core

import (
	"fmt"
	"io"

	"github.com/sarchlab/tracesim/timing/cache"
	"github.com/sarchlab/tracesim/timing/pipeline"
)

// Report is the final outcome of one simulation run.
type Report struct {
	Cache    cache.Statistics
	Pipeline pipeline.Statistics
}

// WriteText writes the report in the classic two-section text form.
// Ratios with a zero denominator are printed as undefined instead of a
// division artifact.
func (r Report) WriteText(w io.Writer) {
	fmt.Fprintf(w, " Cache Performance \n")
	fmt.Fprintf(w, "\t Number of Cache Accesses is %d \n", r.Cache.Accesses)
	fmt.Fprintf(w, "\t Number of Cache Misses is %d \n", r.Cache.Misses)
	fmt.Fprintf(w, "\t Number of Cache Hits is %d \n", r.Cache.Hits)
	if missRate, ok := r.Cache.MissRate(); ok {
		fmt.Fprintf(w, "\t Cache Miss Rate is %f \n\n", missRate)
	} else {
		fmt.Fprintf(w, "\t Cache Miss Rate is undefined \n\n")
	}

	fmt.Fprintf(w, "Pipeline Performance \n")
	fmt.Fprintf(w, "\t Total Cycles is %d \n", r.Pipeline.Cycles)
	fmt.Fprintf(w, "\t Total Instructions is %d \n", r.Pipeline.Instructions)
	fmt.Fprintf(w, "\t Total Branch Instructions is %d \n", r.Pipeline.Branches)
	fmt.Fprintf(w, "\t Total Correct Branch Predictions is %d \n",
		r.Pipeline.CorrectPredictions)
	if cpi, ok := r.Pipeline.CPI(); ok {
		fmt.Fprintf(w, "\t CPI is %f \n\n", cpi)
	} else {
		fmt.Fprintf(w, "\t CPI is undefined \n\n")
	}
}
