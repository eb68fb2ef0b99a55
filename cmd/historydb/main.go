package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/ajmckee/fpl-assistant/internal/infrastructure/repository/sqlite"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	dbPath := strings.TrimSpace(os.Getenv("HISTORY_DB_PATH"))
	if dbPath == "" {
		log.Fatal("HISTORY_DB_PATH is required")
	}

	cmd := strings.ToLower(strings.TrimSpace(os.Args[1]))
	switch cmd {
	case "up", "down":
		runMigration(dbPath, cmd)
	case "load":
		if len(os.Args) < 3 {
			log.Fatal("load requires at least one CSV file argument")
		}
		runLoad(dbPath, os.Args[2:])
	default:
		printUsage()
		os.Exit(2)
	}
}

func runMigration(dbPath, direction string) {
	migrationsDir, err := resolveMigrationsDir()
	if err != nil {
		log.Fatalf("resolve migrations dir: %v", err)
	}

	sourceURL := "file://" + filepath.ToSlash(migrationsDir)
	m, err := migrate.New(sourceURL, "sqlite://"+dbPath)
	if err != nil {
		log.Fatalf("create migrator: %v", err)
	}
	defer closeMigrator(m)

	if direction == "up" {
		err = m.Up()
	} else {
		err = m.Steps(-1)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Printf("no migration changes")
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("migration %s applied (source=%s)", direction, sourceURL)
}

func runLoad(dbPath string, paths []string) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		log.Fatalf("open history db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	repo := sqlite.NewHistoryRepository(db)
	total, err := loadFiles(ctx, repo, paths, runtime.NumCPU())
	if err != nil {
		log.Fatalf("load stats: %v", err)
	}

	log.Printf("loaded %d stat rows from %d file(s)", total, len(paths))
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")),
		"./migrations",
		"/app/migrations",
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		return abs, nil
	}

	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, ./migrations, /app/migrations)")
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Printf("close migration source: %v", srcErr)
	}
	if dbErr != nil {
		log.Printf("close migration db: %v", dbErr)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "usage: %s <up|down|load> [args]\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "examples:")
	fmt.Fprintf(os.Stderr, "  %s up\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "  %s down\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "  %s load data/merged_gw.csv\n", filepath.Base(os.Args[0]))
}
