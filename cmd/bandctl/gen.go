package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/borellim/bandkit/internal/bands"
)

// runGen writes a synthetic band structure document, useful for seeding
// a fresh archive or exercising the exporters without real data.
func runGen(args []string) {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	output := fs.String("o", "bands.json", "Output document path")
	nBands := fs.Int("bands", 4, "Number of bands per spin channel")
	spins := fs.Int("spins", 1, "Number of spin channels (1 or 2)")
	gap := fs.Float64("gap", 1.5, "Band gap in eV (0 for a metal)")
	seed := fs.Int64("seed", 1, "Random seed")
	lattice := fs.String("lattice", bands.LatticeFCC, "Bravais lattice: "+strings.Join(bands.Lattices(), ", "))
	points := fs.Int("points", 10, "K-points per path segment")
	fs.Parse(args)

	segments, err := bands.DefaultPath(*lattice)
	if err != nil {
		log.Fatalf("Failed to build k-point path: %v", err)
	}

	const a = 5.0 // placeholder cubic cell, angstrom
	ks := bands.NewKpointSet()
	if err := ks.SetCell([3][3]float64{{a, 0, 0}, {0, a, 0}, {0, 0, a}}); err != nil {
		log.Fatalf("Failed to set cell: %v", err)
	}
	ks.SetPBC([3]bool{true, true, true})
	ks.SetBravaisLattice(*lattice)
	if err := bands.BuildPath(ks, segments, *points); err != nil {
		log.Fatalf("Failed to build k-point path: %v", err)
	}

	gen := bands.NewGenerator()
	gen.Seed = *seed
	gen.Bands = *nBands
	gen.Spins = *spins
	gen.Gap = *gap

	bs, err := gen.Generate(ks)
	if err != nil {
		log.Fatalf("Failed to generate bands: %v", err)
	}
	bs.SetLabel("synthetic " + *lattice + " bands")

	data, err := bands.EncodeDocument(bs)
	if err != nil {
		log.Fatalf("Failed to encode document: %v", err)
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", *output, err)
	}
	log.Printf("✓ Created: %s", *output)
}
