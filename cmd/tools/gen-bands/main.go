// Command gen-bands generates sample band structure documents for
// testing imports and the ingest watcher.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/borellim/bandkit/internal/bands"
)

func main() {
	outDir := flag.String("o", ".", "output directory")
	count := flag.Int("n", 10, "number of documents")
	seed := flag.Int64("seed", 1, "seed of the first document, incremented per file")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	lattices := bands.Lattices()
	for i := 0; i < *count; i++ {
		lattice := lattices[i%len(lattices)]
		segments, err := bands.DefaultPath(lattice)
		if err != nil {
			log.Fatalf("failed to build path for %s: %v", lattice, err)
		}

		ks := bands.NewKpointSet()
		if err := ks.SetCell([3][3]float64{{5, 0, 0}, {0, 5, 0}, {0, 0, 5}}); err != nil {
			log.Fatalf("failed to set cell: %v", err)
		}
		ks.SetPBC([3]bool{true, true, true})
		ks.SetBravaisLattice(lattice)
		if err := bands.BuildPath(ks, segments, 8); err != nil {
			log.Fatalf("failed to build path for %s: %v", lattice, err)
		}

		gen := bands.NewGenerator()
		gen.Seed = *seed + int64(i)
		// Every third document is a metal.
		if i%3 == 2 {
			gen.Gap = 0
		}
		bs, err := gen.Generate(ks)
		if err != nil {
			log.Fatalf("failed to generate bands: %v", err)
		}
		bs.SetLabel(fmt.Sprintf("sample %s bands %d", lattice, i))

		data, err := bands.EncodeDocument(bs)
		if err != nil {
			log.Fatalf("failed to encode document: %v", err)
		}
		path := filepath.Join(*outDir, fmt.Sprintf("bands-%03d.json", i))
		if err := os.WriteFile(path, data, 0644); err != nil {
			log.Fatalf("failed to write %s: %v", path, err)
		}
		if (i+1)%10 == 0 {
			log.Printf("%d/%d documents", i+1, *count)
		}
	}
	log.Printf("✓ Created: %d documents in %s", *count, *outDir)
}
