// Command migrate applies schema migrations from db/migrations.
// Usage: migrate up | down | steps N | force V | version
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"veridoc/internal/config"
)

const usage = "usage: migrate up | down | steps N | force V | version"

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	m, err := migrate.New("file://db/migrations", cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("initializing migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch args[0] {
	case "up":
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("migrating up: %w", err)
		}
		log.Println("migrate: schema is up to date")
		return nil

	case "down":
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("migrating down: %w", err)
		}
		log.Println("migrate: schema rolled back")
		return nil

	case "steps":
		if len(args) < 2 {
			return errors.New(usage)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("steps wants an integer, got %q", args[1])
		}
		if err := ignoreNoChange(m.Steps(n)); err != nil {
			return fmt.Errorf("migrating %d steps: %w", n, err)
		}
		log.Printf("migrate: moved %d steps", n)
		return nil

	case "force":
		if len(args) < 2 {
			return errors.New(usage)
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("force wants a version number, got %q", args[1])
		}
		if err := m.Force(v); err != nil {
			return fmt.Errorf("forcing version %d: %w", v, err)
		}
		log.Printf("migrate: version forced to %d", v)
		return nil

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("reading version: %w", err)
		}
		fmt.Printf("version %d (dirty: %v)\n", version, dirty)
		return nil

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
