// Command planner runs the full planning pipeline against CSV inputs and
// writes the plan artifacts. Exit codes: 0 success, 2 invalid input data,
// 1 unexpected failure.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/config"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/loader"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		dataDir    = flag.String("data", "data", "directory with flights.csv, cargo.csv, connections.csv")
		outputDir  = flag.String("output", "outputs", "directory for plan artifacts")
		eventsPath = flag.String("events", "", "optional JSON file of disruption events")
		configPath = flag.String("config", "", "optional planner YAML config")
		seed       = flag.Int64("seed", 0, "override the optimizer seed (0 keeps the configured one)")
		noWrite    = flag.Bool("no-write", false, "skip writing output files, print the summary only")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	ds, err := loader.LoadAll(*dataDir)
	if err != nil {
		return fail(err)
	}

	var events []model.DisruptionEvent
	if *eventsPath != "" {
		events, err = loader.LoadEvents(*eventsPath)
		if err != nil {
			return fail(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.Run(ctx, ds, events, cfg)
	if err != nil {
		log.Printf("plan: %v", err)
		return 1
	}

	if !*noWrite {
		if err := pipeline.WriteOutputs(*outputDir, res); err != nil {
			log.Printf("outputs: %v", err)
			return 1
		}
	}

	s := pipeline.BuildSummary(res)
	fmt.Printf("planned %d cargo across %d flights in %s\n", s.CargoCount, s.FlightCount, res.Duration.Round(time.Millisecond))
	fmt.Printf("delivered=%d rolled=%d denied=%d total_margin=%.2f\n", s.Delivered, s.Rolled, s.Denied, s.TotalMargin)
	if s.EventsApplied > 0 {
		fmt.Printf("disruption events applied: %d\n", s.EventsApplied)
	}
	critical := s.AlertCounts["critical"]
	if critical > 0 {
		fmt.Printf("critical alerts: %d (see alerts.csv)\n", critical)
	}
	return 0
}

func fail(err error) int {
	var verr *loader.ValidationError
	if errors.As(err, &verr) {
		log.Printf("invalid input: %v", verr)
		return 2
	}
	log.Printf("load: %v", err)
	return 1
}
