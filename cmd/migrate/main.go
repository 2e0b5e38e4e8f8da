package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/joho/godotenv/autoload"

	"github.com/aryan0dhankhar/taskdesk/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/taskdesk/pkg/config"
)

const usage = `usage: migrate [-config path] [-dir migrations] <up|down|drop|version|steps N>`

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to CONFIG_PATH or env only)")
	migrationsDir := flag.String("dir", "migrations", "directory containing migration files")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg.LogLevel)

	if err := runMigration(log, action, flag.Args(), *migrationsDir, cfg.Database.URL()); err != nil {
		log.Error("migration failed", slog.String("action", action), slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("migration completed", slog.String("action", action))
}

func runMigration(log *slog.Logger, action string, args []string, dir, databaseURL string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve path for %s: %w", dir, err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(absDir), databaseURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	switch action {
	case "up":
		return ignoreNoChange(m.Up())
	case "down":
		return ignoreNoChange(m.Down())
	case "drop":
		return m.Drop()
	case "steps":
		if len(args) < 2 {
			return errors.New(usage)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("steps must be an integer: %w", err)
		}
		return ignoreNoChange(m.Steps(n))
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info("no migration applied")
			return nil
		}
		if err != nil {
			return err
		}
		log.Info("schema version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
		return nil
	default:
		return fmt.Errorf("unsupported action %q\n%s", action, usage)
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
