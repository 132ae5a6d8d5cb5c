// Package main provides the entry point for tracesim.
// tracesim is a cycle-level pipeline and cache simulator for
// instruction traces, built on Akita cache components.
//
// For the full CLI, use: go run ./cmd/tracesim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("tracesim - pipeline and cache trace simulator")
	fmt.Println("")
	fmt.Println("Usage: tracesim <indexBits> <blockWords> <associativity> <predictTaken>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  --trace          Path to the instruction trace file")
	fmt.Println("  --config         Path to a timing configuration JSON file")
	fmt.Println("  --dump-pipeline  Print pipeline contents after every instruction")
	fmt.Println("  --csv            Record every cache access to a CSV file")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/tracesim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/tracesim' instead.")
	}
}
