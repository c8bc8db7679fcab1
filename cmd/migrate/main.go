package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/odyssey-erp/odyssey-b2b/internal/app"
	"github.com/odyssey-erp/odyssey-b2b/internal/platform/db"
	"github.com/odyssey-erp/odyssey-b2b/migrations"
)

const usage = `usage:
  migrate up             apply all pending migrations
  migrate down           roll back all migrations
  migrate steps <n>      apply n migrations, negative to roll back
  migrate force <v>      mark version v as clean
  migrate version        print the applied version`

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	m, err := db.NewMigrator(migrations.FS, cfg.PGDSN, logger)
	if err != nil {
		logger.Error("open migrator", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("close migrator", slog.Any("error", err))
		}
	}()

	if err := dispatch(m, os.Args[1:]); err != nil {
		logger.Error("migrate", slog.Any("error", err))
		os.Exit(1)
	}
}

func dispatch(m *db.Migrator, args []string) error {
	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps", "force":
		if len(args) != 2 {
			return fmt.Errorf("%s requires a number", args[0])
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		if args[0] == "steps" {
			return m.Steps(n)
		}
		return m.Force(n)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}
