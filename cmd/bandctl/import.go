package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/borellim/bandkit/internal/archive"
	"github.com/borellim/bandkit/internal/bands"
)

// runImport stores one or more band structure documents in the archive.
// Files are imported in parallel; a failure in any file aborts the run
// but already-committed nodes stay in the archive.
func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dbPath := fs.String("db", "bandkit.db", "Path to archive database")
	user := fs.String("user", "", "Email of the owning user (default "+archive.DefaultUserEmail+")")
	computer := fs.String("computer", "", "Name of the computer the bands were computed on")
	fs.Parse(args)

	files := fs.Args()
	if len(files) == 0 {
		log.Fatal("Usage: bandctl import [options] <file.json> [file.json ...]")
	}

	a, err := archive.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer a.Close()

	// SaveBands requires the computer to exist, so register it up front.
	if *computer != "" {
		if _, err := a.Computers().GetOrCreate(*computer, "", "", "", ""); err != nil {
			log.Fatalf("Failed to register computer %s: %v", *computer, err)
		}
	}

	store := a.Nodes()
	eg, _ := errgroup.WithContext(context.Background())
	for _, file := range files {
		eg.Go(func() error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			bs, err := bands.DecodeDocument(data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", file, err)
			}
			rec, err := store.SaveBands(bs, *user, *computer)
			if err != nil {
				return fmt.Errorf("save %s: %w", file, err)
			}
			log.Printf("✓ Imported %s as node %s", file, rec.UUID)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Fatalf("Import failed: %v", err)
	}
}
