// Command powercable-bench runs the simulation headlessly for a fixed
// number of phase advances, driving tickgen.Coordinator.Step directly instead of on
// its own wall-clock ticker, then prints the transformer's final stats.
// Grounded on the teacher's cmd/battery-compare, which runs its engine to
// completion in-process and prints a summary rather than serving a UI.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"powercable/internal/bus"
	"powercable/internal/composition"
	"powercable/internal/config"
	"powercable/internal/tickgen"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file (optional)")
	ticks := flag.Int("ticks", 1000, "number of phase advances to run")
	flag.Parse()

	logger := log.New(os.Stderr, "powercable-bench: ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	b := bus.New(logger, 4096)
	coord := tickgen.New(b, cfg.TickPeriod)

	built := composition.Build(cfg, b, logger)
	for _, spec := range built.Specs {
		agentStop := make(chan struct{})
		defer close(agentStop)
		go spec.Start(agentStop)
	}

	for i := 0; i < *ticks; i++ {
		coord.Step()
	}

	agg := built.Transformer
	mean, min, max := agg.PriceStats()
	fmt.Printf("ticks=%d diff=%.3f price(mean=%.3f min=%.3f max=%.3f)\n", *ticks, agg.Diff(), mean, min, max)
	for name, total := range agg.Earnings() {
		fmt.Printf("earnings[%s]=%.3f\n", name, total)
	}
}
