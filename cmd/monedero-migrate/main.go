// Package main is the entry point for the Monedero database migration tool.
// It applies the schema embedded in the binary to PostgreSQL or SQLite.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prn-tf/monedero/internal/app"
	"github.com/prn-tf/monedero/internal/config"
	"github.com/prn-tf/monedero/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", os.Getenv("MONEDERO_CONFIG"), "path to the configuration file")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	switch command {
	case "version":
		fmt.Printf("Monedero Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		return

	case "help", "-h", "--help":
		printUsage()
		return

	case "up", "down", "status", "current":
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err := run(*configPath, command); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, command string) error {
	cfg, err := config.Read(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Database.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(config.LoggingConfig{Level: cfg.Logging.Level, Format: "console", Output: "stderr"})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Database.Close()

	switch command {
	case "up":
		return store.Migrator.Up(ctx)

	case "down":
		return store.Migrator.Down(ctx)

	case "current":
		version, err := store.Migrator.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Schema version: %d\n", version)
		return nil

	default:
		migrations, err := store.Migrator.Status(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tSOURCE")
		for _, m := range migrations {
			state, appliedAt := "pending", "-"
			if m.Applied {
				state, appliedAt = "applied", m.AppliedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.Version, state, appliedAt, m.Source)
		}
		return w.Flush()
	}
}

func printUsage() {
	fmt.Println(`Monedero Migration Tool

Usage:
  monedero-migrate [-config path] <command>

Commands:
  up          Apply all pending migrations
  down        Roll back the last migration
  status      List every migration and whether it is applied
  current     Print the current schema version
  version     Print version information
  help        Show this help message

The database is selected by the database section of the configuration file
or by MONEDERO_DATABASE_* environment variables.

Examples:
  monedero-migrate up
  MONEDERO_DATABASE_DRIVER=sqlite MONEDERO_DATABASE_PATH=./data/monedero.db monedero-migrate status
  monedero-migrate -config /etc/monedero/config.yaml down`)
}
