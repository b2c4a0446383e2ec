package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	"github.com/borellim/bandkit/internal/archive"
	"github.com/borellim/bandkit/internal/bands"
	"github.com/borellim/bandkit/internal/units"
)

// runGap classifies a stored band structure as metallic or insulating.
// -electrons and -fermi are mutually exclusive; with neither, the
// stored occupations decide.
func runGap(args []string) {
	fs := flag.NewFlagSet("gap", flag.ExitOnError)
	dbPath := fs.String("db", "bandkit.db", "Path to archive database")
	id := fs.String("uuid", "", "UUID of the node to analyse (required)")
	electrons := fs.Int("electrons", -1, "Number of electrons per cell")
	fermi := fs.Float64("fermi", math.NaN(), "Fermi energy in the stored units")
	targetUnits := fs.String("units", "", "Units for the reported gap (default: stored units)")
	fs.Parse(args)

	if *id == "" {
		log.Fatal("Usage: bandctl gap -uuid <uuid> [options]")
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

	var opts bands.GapOptions
	if *electrons >= 0 {
		opts.NumberElectrons = electrons
	}
	if !math.IsNaN(*fermi) {
		opts.FermiEnergy = fermi
	}
	met, err := bands.FindBandgap(bs, opts)
	if err != nil {
		log.Fatalf("Band gap analysis failed: %v", err)
	}

	stored := bs.Units()
	target := *targetUnits
	switch {
	case target == "" || target == stored:
		target = stored
	case !units.IsValid(target):
		log.Fatalf("Unknown units %q (valid: %s)", target, units.GetValidUnitsString())
	case !units.IsValid(stored):
		log.Fatalf("Cannot convert gap from stored units %q", stored)
	case met.GapValid:
		met.Gap = units.Convert(met.Gap, stored, target)
	}

	switch {
	case met.Insulator:
		fmt.Printf("insulator: gap %.4f %s\n", met.Gap, target)
	case met.GapValid:
		fmt.Println("metal: bands touch at the Fermi level")
	default:
		fmt.Println("metal")
	}
}
