package main

import (
	"flag"
	"log"
	"strings"

	"github.com/borellim/bandkit/internal/archive"
	"github.com/borellim/bandkit/internal/bands"
	"github.com/borellim/bandkit/internal/units"
)

// runExport writes a stored band structure to a file. The format is
// taken from -format when given, otherwise from the output extension.
func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dbPath := fs.String("db", "bandkit.db", "Path to archive database")
	id := fs.String("uuid", "", "UUID of the node to export (required)")
	output := fs.String("o", "", "Output file path (required)")
	format := fs.String("format", "", "Export format: "+strings.Join(bands.ExportFormats(), ", "))
	noComments := fs.Bool("no-comments", false, "Omit the comment header from text formats")
	cartesian := fs.Bool("cartesian", true, "Write k-point distances from Cartesian coordinates")
	overwrite := fs.Bool("overwrite", false, "Overwrite existing output files")
	target := fs.String("units", "", "Convert energies to these units ("+units.GetValidUnitsString()+")")
	fs.Parse(args)

	if *id == "" || *output == "" {
		log.Fatal("Usage: bandctl export -uuid <uuid> -o <file> [options]")
	}

	a, err := archive.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer a.Close()

	bs, _, err := a.Nodes().LoadBands(*id)
	if err != nil {
		log.Fatalf("Failed to load node %s: %v", *id, err)
	}

	comments := !*noComments
	opts := &bands.ExportOptions{
		Format:    *format,
		Comments:  &comments,
		Cartesian: cartesian,
		Overwrite: *overwrite,
		Units:     *target,
	}
	if err := bands.Export(bs, *output, opts); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	log.Printf("✓ Exported node %s to %s", *id, *output)
}
