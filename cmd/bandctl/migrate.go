package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/borellim/bandkit/internal/archive"
)

// runMigrate handles the 'migrate' subcommand dispatching
func runMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbPath := fs.String("db", "bandkit.db", "Path to archive database")
	fs.Parse(args)

	if fs.NArg() < 1 {
		printMigrateHelp()
		os.Exit(1)
	}
	action := fs.Arg(0)

	// Actions that never touch a database.
	switch action {
	case "help":
		printMigrateHelp()
		return
	case "latest":
		latest, err := archive.GetLatestMigrationVersion()
		if err != nil {
			log.Fatalf("Failed to get latest migration version: %v", err)
		}
		fmt.Printf("Latest available migration: %d\n", latest)
		return
	}

	a, err := archive.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer a.Close()

	switch action {
	case "up":
		handleMigrateUp(a)

	case "down":
		handleMigrateDown(a)

	case "version":
		handleMigrateStatus(a)

	case "to":
		if fs.NArg() < 2 {
			log.Fatal("Usage: bandctl migrate to <version_number>")
		}
		handleMigrateTo(a, fs.Arg(1))

	case "force":
		if fs.NArg() < 2 {
			log.Fatal("Usage: bandctl migrate force <version_number>")
		}
		handleMigrateForce(a, fs.Arg(1))

	default:
		fmt.Printf("Unknown migrate action: %s\n\n", action)
		printMigrateHelp()
		os.Exit(1)
	}
}

// handleMigrateUp applies all pending migrations
func handleMigrateUp(a *archive.Archive) {
	log.Printf("Running migrations...")
	if err := a.MigrateUp(); err != nil {
		log.Fatalf("Migration up failed: %v", err)
	}
	log.Println("✓ All migrations applied successfully")

	version, dirty, _ := a.MigrateVersion()
	log.Printf("Current version: %d (dirty: %v)", version, dirty)
}

// handleMigrateDown rolls back one migration
func handleMigrateDown(a *archive.Archive) {
	log.Printf("Rolling back one migration...")
	if err := a.MigrateDown(); err != nil {
		log.Fatalf("Migration down failed: %v", err)
	}
	log.Println("✓ Migration rolled back successfully")

	version, dirty, _ := a.MigrateVersion()
	log.Printf("Current version: %d (dirty: %v)", version, dirty)
}

// handleMigrateStatus displays the current migration status
func handleMigrateStatus(a *archive.Archive) {
	version, dirty, err := a.MigrateVersion()
	if err != nil {
		log.Fatalf("Failed to get migration status: %v", err)
	}

	status, err := a.GetMigrationStatus()
	if err != nil {
		log.Fatalf("Failed to get migration status: %v", err)
	}

	latest, err := archive.GetLatestMigrationVersion()
	if err != nil {
		log.Fatalf("Failed to get latest migration version: %v", err)
	}

	fmt.Println("=== Migration Status ===")
	fmt.Printf("Current version: %d\n", version)
	fmt.Printf("Latest available: %d\n", latest)
	fmt.Printf("Dirty: %v\n", dirty)
	fmt.Printf("Schema migrations table exists: %v\n", status["schema_migrations_exists"])

	if dirty {
		fmt.Println("\nWARNING: Database is in a dirty state!")
		fmt.Println("A migration failed mid-execution. You may need to:")
		fmt.Println("  1. Inspect the database manually")
		fmt.Println("  2. Fix any issues")
		fmt.Println("  3. Run: bandctl migrate force <version>")
	}
}

// handleMigrateTo migrates up or down to a specific version
func handleMigrateTo(a *archive.Archive, versionStr string) {
	var targetVersion uint
	if _, err := fmt.Sscanf(versionStr, "%d", &targetVersion); err != nil {
		log.Fatalf("Invalid version number: %s", versionStr)
	}

	log.Printf("Migrating to version %d...", targetVersion)
	if err := a.MigrateTo(targetVersion); err != nil {
		log.Fatalf("Migration to version %d failed: %v", targetVersion, err)
	}
	log.Printf("✓ Migrated to version %d successfully", targetVersion)
}

// handleMigrateForce forces the migration version (recovery only)
func handleMigrateForce(a *archive.Archive, versionStr string) {
	var forceVersion int
	if _, err := fmt.Sscanf(versionStr, "%d", &forceVersion); err != nil {
		log.Fatalf("Invalid version number: %s", versionStr)
	}

	fmt.Printf("WARNING: Forcing migration version to %d\n", forceVersion)
	fmt.Println("This should only be used to recover from a dirty migration state.")
	fmt.Print("Continue? [y/N]: ")

	var response string
	fmt.Scanln(&response)
	if response != "y" && response != "Y" {
		log.Println("Aborted")
		os.Exit(0)
	}

	if err := a.MigrateForce(forceVersion); err != nil {
		log.Fatalf("Force migration failed: %v", err)
	}
	log.Printf("✓ Migration version forced to %d", forceVersion)
}

// printMigrateHelp displays the help message for the migrate command
func printMigrateHelp() {
	fmt.Println("Database Migration Commands")
	fmt.Println()
	fmt.Println("Usage: bandctl migrate [-db path] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up              Apply all pending migrations")
	fmt.Println("  down            Rollback one migration")
	fmt.Println("  version         Show current migration status and version")
	fmt.Println("  to <N>          Migrate up or down to version N")
	fmt.Println("  force <N>       Force migration version to N (recovery only)")
	fmt.Println("  latest          Show the latest available migration version")
	fmt.Println("  help            Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  bandctl migrate up")
	fmt.Println("  bandctl migrate version")
	fmt.Println("  bandctl migrate -db bands.db to 2")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -db <path>    Path to database file (default: bandkit.db)")
}
