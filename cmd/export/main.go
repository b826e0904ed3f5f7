// Offline CSV export: dumps one experiment's practice group straight from
// the store, bypassing the HTTP surface. Meant for instructors pulling data
// after a session.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eanlabs/bioplast/internal/app"
	"github.com/eanlabs/bioplast/internal/audit"
	"github.com/eanlabs/bioplast/internal/export"
	"github.com/eanlabs/bioplast/internal/repo"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	number := flag.Int("experiment", 0, "experiment number to export")
	outPath := flag.String("out", "", "output file, defaults to exp_NN_DDMMYY.csv")
	flag.Parse()

	if *number <= 0 {
		logger.Error.Fatalf("A positive -experiment number is required")
	}

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}

	kv, err := app.NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		logger.Error.Fatalf("Failed to open store: %v", err)
	}
	defer kv.Close()

	r := repo.New(kv, audit.NewTrail(kv))

	exp, err := r.GetExperiment(*number)
	if err != nil {
		logger.Error.Fatalf("Failed to read experiment: %v", err)
	}
	if exp == nil {
		logger.Error.Fatalf("Experiment %d not found", *number)
	}

	group, err := r.FindPracticesByExperiment(*number)
	if err != nil {
		logger.Error.Fatalf("Failed to read practices: %v", err)
	}

	csv := export.BuildGroupCSV(exp, group)

	name := *outPath
	if name == "" {
		name = export.Filename(*number, time.Now())
	}
	if err := os.WriteFile(name, []byte(csv+"\n"), 0o644); err != nil {
		logger.Error.Fatalf("Failed to write %s: %v", name, err)
	}

	fmt.Printf("Exported %d practices to %s\n", len(group), name)
}
