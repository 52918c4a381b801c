package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var (
		databaseURL    = flag.String("database", "", "database URL (defaults to REPRICING_DATABASE_URL, then DATABASE_URL)")
		migrationsPath = flag.String("path", "migrations", "migrations directory")
		command        = flag.String("command", "up", "up, down, version or force")
		forceVersion   = flag.Int("version", -1, "target schema version for -command force")
	)
	flag.Parse()

	url := *databaseURL
	if url == "" {
		url = firstEnv("REPRICING_DATABASE_URL", "DATABASE_URL")
	}
	if url == "" {
		log.Fatal("Database URL is required: pass -database or set REPRICING_DATABASE_URL")
	}

	m, err := migrate.New("file://"+*migrationsPath, url)
	if err != nil {
		log.Fatalf("Failed to open migrations at %s: %v", *migrationsPath, err)
	}
	defer m.Close()

	if err := run(m, *command, *forceVersion); err != nil {
		log.Fatalf("Migration command %s failed: %v", *command, err)
	}
}

func run(m *migrate.Migrate, command string, forceVersion int) error {
	switch command {
	case "up":
		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				log.Println("Database is up to date")
				return nil
			}
			return err
		}
		log.Println("Migrations applied")
		return nil

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Println("Rollback complete")
		return nil

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Printf("Schema version %d (dirty: %v)", version, dirty)
		return nil

	case "force":
		if forceVersion < 0 {
			return fmt.Errorf("force requires -version")
		}
		if err := m.Force(forceVersion); err != nil {
			return err
		}
		log.Printf("Schema version forced to %d", forceVersion)
		return nil

	default:
		return fmt.Errorf("unknown command %q (use up, down, version, force)", command)
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
