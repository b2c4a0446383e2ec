package testutil

import (
	"testing"

	"github.com/borellim/bandkit/internal/archive"
	"github.com/borellim/bandkit/internal/bands"
)

// NewTestArchive opens an in-memory archive with the schema applied and
// registers its cleanup.
func NewTestArchive(t *testing.T) *archive.Archive {
	t.Helper()
	a, err := archive.OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory archive failed: %v", err)
	}
	t.Cleanup(func() {
		if err := a.Close(); err != nil {
			t.Errorf("close archive failed: %v", err)
		}
	})
	return a
}

// SeedTestArchive creates the default user and computer most tests assume.
func SeedTestArchive(t *testing.T, a *archive.Archive) (*archive.User, *archive.Computer) {
	t.Helper()
	user, err := a.Users().GetOrCreate(archive.DefaultUserEmail)
	if err != nil {
		t.Fatalf("seed default user failed: %v", err)
	}
	computer, err := a.Computers().GetOrCreate("localhost", "localhost", "ssh", "pbspro", "/tmp/bandkit")
	if err != nil {
		t.Fatalf("seed default computer failed: %v", err)
	}
	return user, computer
}

// TestBandStructure builds a small deterministic band structure: four
// cosine bands on a five-point fcc Gamma-X path, an insulator with a gap
// of roughly 1.5 eV.
func TestBandStructure(t *testing.T) *bands.BandStructure {
	t.Helper()

	const a = 4.05 // fcc aluminium lattice constant, angstrom
	ks := bands.NewKpointSet()
	cell := [3][3]float64{
		{0, a / 2, a / 2},
		{a / 2, 0, a / 2},
		{a / 2, a / 2, 0},
	}
	if err := ks.SetCell(cell); err != nil {
		t.Fatalf("set cell failed: %v", err)
	}
	ks.SetPBC([3]bool{true, true, true})
	ks.SetBravaisLattice(bands.LatticeFCC)
	if err := bands.BuildPath(ks, [][2]string{{"G", "X"}}, 5); err != nil {
		t.Fatalf("build path failed: %v", err)
	}

	bs, err := bands.NewGenerator().Generate(ks)
	if err != nil {
		t.Fatalf("generate bands failed: %v", err)
	}
	bs.SetLabel("fcc test bands")
	return bs
}
