// Command powercable is the composition root: it loads configuration,
// wires every agent population onto a shared bus, and serves a live
// websocket map of the running grid, in the style of the teacher's
// cmd/server/main.go.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"powercable/internal/bus"
	"powercable/internal/composition"
	"powercable/internal/config"
	"powercable/internal/metrics"
	"powercable/internal/supervisor"
	"powercable/internal/tickgen"
	"powercable/internal/uiserver"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file (optional)")
	addr := flag.String("addr", "", "UI websocket listen address (overrides config)")
	vehicles := flag.Int("agents.vehicles", -1, "override vehicle count")
	chargers := flag.Int("agents.chargers", -1, "override charger count")
	flag.Parse()

	logger := log.New(os.Stdout, "powercable: ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *vehicles >= 0 {
		cfg.Agents.Vehicles = *vehicles
	}
	if *chargers >= 0 {
		cfg.Agents.Chargers = *chargers
	}

	b := bus.New(logger, 4096)
	if cfg.RedisAddr != "" {
		redisDedup := bus.NewRedisDedup(cfg.RedisAddr, 5*time.Minute)
		b.SetDedup(redisDedup)
		defer redisDedup.Close()
	}

	recorder, err := metrics.NewRecorder(cfg.MetricsDSN)
	if err != nil {
		logger.Fatalf("metrics: %v", err)
	}
	defer recorder.Close()

	coord := tickgen.New(b, cfg.TickPeriod)

	built := composition.Build(cfg, b, logger)
	specs := built.Specs
	specs = append(specs, supervisor.AgentSpec{Name: "tickgen", Start: coord.Run})
	specs = append(specs, supervisor.AgentSpec{Name: "metrics-archiver", Start: recorder.Run(b, logger)})

	hub := uiserver.NewHub(logger)
	bridge := uiserver.NewBridge(hub, b)
	specs = append(specs, supervisor.AgentSpec{Name: "uiserver-bridge", Start: bridge.Run})

	sup := supervisor.New(logger, specs)
	sup.Start()
	defer sup.Stop()

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		for _, s := range sup.StatusReport() {
			logger.Printf("status: %+v", s)
		}
		w.WriteHeader(http.StatusOK)
	})

	logger.Printf("listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		logger.Fatalf("http: %v", err)
	}
}
