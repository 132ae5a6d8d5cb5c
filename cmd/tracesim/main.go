// Package main provides the tracesim command line interface.
//
// tracesim simulates a 5-stage in-order pipeline coupled to a single
// set-associative LRU cache, driven by a text instruction trace.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/tracesim/timing/cache"
	"github.com/sarchlab/tracesim/timing/core"
	"github.com/sarchlab/tracesim/timing/latency"
)

var (
	tracePath    string
	configPath   string
	dumpPipeline bool
	csvPath      string
	csvEnabled   bool
)

var rootCmd = &cobra.Command{
	Use:   "tracesim <indexBits> <blockWords> <associativity> <predictTaken>",
	Short: "Cycle-level 5-stage pipeline and cache simulator for instruction traces",
	Long: `tracesim replays a text instruction trace through a 5-stage in-order ` +
		`pipeline coupled to a set-associative LRU cache, and reports cache ` +
		`miss rate and CPI.`,
	Args:         cobra.ExactArgs(4),
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&tracePath, "trace",
		"instruction-trace.txt", "path to the instruction trace file")
	rootCmd.Flags().StringVar(&configPath, "config",
		"", "path to a timing configuration JSON file")
	rootCmd.Flags().BoolVar(&dumpPipeline, "dump-pipeline",
		true, "print pipeline contents after every instruction")
	rootCmd.Flags().BoolVar(&csvEnabled, "csv",
		false, "record every cache access to a CSV file")
	rootCmd.Flags().StringVar(&csvPath, "csv-path",
		"", "CSV access log path (default: generated name)")
}

func run(cmd *cobra.Command, args []string) error {
	indexBits, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad indexBits %q: %w", args[0], err)
	}
	blockWords, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad blockWords %q: %w", args[1], err)
	}
	associativity, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("bad associativity %q: %w", args[2], err)
	}
	prediction, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("bad predictTaken %q: %w", args[3], err)
	}

	var timing *latency.TimingConfig
	if configPath != "" {
		timing, err = latency.LoadConfig(configPath)
		if err != nil {
			return err
		}
	}

	config := core.Config{
		Cache: cache.Config{
			IndexBits:     indexBits,
			BlockWords:    blockWords,
			Associativity: associativity,
		},
		PredictTaken: prediction != 0,
		Timing:       timing,
	}

	logger := core.NewTextLogger(os.Stdout)
	logger.DumpPipeline = dumpPipeline
	opts := []core.Option{core.WithObserver(logger)}

	if csvEnabled {
		csvLog := core.NewCSVAccessLog(csvPath)
		if err := csvLog.Init(); err != nil {
			return err
		}
		defer csvLog.Flush()
		opts = append(opts, core.WithObserver(csvLog))
	}

	sim, err := core.NewSimulator(config, opts...)
	if err != nil {
		return err
	}

	printCacheConfig(config.Cache)

	traceFile, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("opening trace file: %w", err)
	}
	defer traceFile.Close()

	if err := sim.Run(traceFile); err != nil {
		return err
	}

	report := sim.Finalize()
	report.WriteText(os.Stdout)

	return nil
}

// printCacheConfig prints the configuration banner before the run.
func printCacheConfig(config cache.Config) {
	fmt.Printf("Cache Configuration \n")
	fmt.Printf("   Index: %d bits or %d lines \n",
		config.IndexBits, config.NumSets())
	fmt.Printf("   BlockSize: %d \n", config.BlockWords)
	fmt.Printf("   Associativity: %d \n", config.Associativity)
	fmt.Printf("   BlockOffSetBits: %d \n", config.BlockOffsetBits())
	fmt.Printf("   CacheSize: %d \n", config.ModeledSize())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
