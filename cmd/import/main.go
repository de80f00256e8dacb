// Command import pulls every markdown file in the books directory into the catalog.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/markdown"
	"github.com/inkwellapp/inkwell-server/internal/store/sqlite"
	"github.com/inkwellapp/inkwell-server/internal/sync"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	st, err := sqlite.Open(cfg.DatabasePath(), logg.Logger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	engine := sync.NewEngine(st, markdown.NewCodec(logg.Logger), cfg.Catalog.BooksPath, logg.Logger)

	report, err := engine.ImportAll(context.Background())
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("Imported %d/%d files from %s\n", report.Succeeded, report.Total, cfg.Catalog.BooksPath)
	for _, e := range report.Errors {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", e.Name, e.Error)
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}
