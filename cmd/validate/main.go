// Command validate loads the content directory and reports errors.
// Intended for content authors and CI.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/generativefiction/fortuna-engine/pkg/world"
)

func main() {
	dataDir := flag.String("data", "./data", "content directory to validate")
	flag.Parse()

	lib, err := world.LoadLibrary(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "content validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("content OK: %d rooms, %d agents, %d chapters, %d scripted events\n",
		len(lib.Rooms), len(lib.AgentSpecs), len(lib.Chapters), len(lib.Script))
}
