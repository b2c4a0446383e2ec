package archive

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/borellim/bandkit/internal/bands"
	"github.com/borellim/bandkit/internal/ndarray"
)

func storeTestBands(t *testing.T) *bands.BandStructure {
	t.Helper()

	ks := bands.NewKpointSet()
	if err := ks.SetCell([3][3]float64{{3.5, 0, 0}, {0, 3.5, 0}, {0, 0, 3.5}}); err != nil {
		t.Fatalf("SetCell failed: %v", err)
	}
	ks.SetPBC([3]bool{true, true, false})
	ks.SetBravaisLattice("cubic")
	points := [][3]float64{{0, 0, 0}, {0, 0.25, 0}, {0, 0.5, 0}}
	if err := ks.SetPoints(points, []float64{0.25, 0.5, 0.25}); err != nil {
		t.Fatalf("SetPoints failed: %v", err)
	}
	if err := ks.SetLabels([]bands.Label{{Index: 0, Name: "G"}, {Index: 2, Name: "X"}}); err != nil {
		t.Fatalf("SetLabels failed: %v", err)
	}

	bs := bands.NewBandStructure()
	bs.SetKpointSet(ks)
	energies, err := ndarray.FromSlice3D([][][]float64{
		{{-2, 1}, {-1.5, 1.5}, {-1, 2}},
		{{-2.1, 0.9}, {-1.6, 1.4}, {-1.1, 1.9}},
	})
	if err != nil {
		t.Fatalf("FromSlice3D failed: %v", err)
	}
	if err := bs.SetBands(energies); err != nil {
		t.Fatalf("SetBands failed: %v", err)
	}
	occ, err := ndarray.FromSlice3D([][][]float64{
		{{1, 0}, {1, 0}, {1, 0}},
		{{1, 0}, {1, 0}, {1, 0}},
	})
	if err != nil {
		t.Fatalf("FromSlice3D failed: %v", err)
	}
	if err := bs.SetOccupations(occ); err != nil {
		t.Fatalf("SetOccupations failed: %v", err)
	}
	if err := bs.SetBandLabels([]string{"up", "down"}); err != nil {
		t.Fatalf("SetBandLabels failed: %v", err)
	}
	bs.SetUnits("Ry")
	bs.SetLabel("silicon bands")
	bs.SetDescription("two spin channels")
	return bs
}

func TestNodeStore_SaveAndLoad(t *testing.T) {
	a := setupTestArchive(t)
	store := a.Nodes()
	bs := storeTestBands(t)

	rec, err := store.SaveBands(bs, "alice@example.com", "")
	if err != nil {
		t.Fatalf("SaveBands failed: %v", err)
	}
	if rec.UUID == "" {
		t.Error("expected node uuid to be generated")
	}
	if rec.NodeType != NodeTypeBands {
		t.Errorf("node_type mismatch: got %s, want %s", rec.NodeType, NodeTypeBands)
	}
	if rec.Label != "silicon bands" {
		t.Errorf("label mismatch: got %s", rec.Label)
	}
	if rec.UserEmail != "alice@example.com" {
		t.Errorf("user_email mismatch: got %s", rec.UserEmail)
	}
	if rec.Computer != "" {
		t.Errorf("expected no computer, got %s", rec.Computer)
	}
	if rec.CreatedAt == 0 || rec.UpdatedAt == 0 {
		t.Error("expected timestamps to be set")
	}

	var attrs map[string]any
	if err := json.Unmarshal(rec.Attrs, &attrs); err != nil {
		t.Fatalf("attrs are not valid JSON: %v", err)
	}
	if attrs["units"] != "Ry" {
		t.Errorf("attrs units mismatch: got %v", attrs["units"])
	}
	if attrs["bravais_lattice"] != "cubic" {
		t.Errorf("attrs bravais_lattice mismatch: got %v", attrs["bravais_lattice"])
	}
	if attrs["has_weights"] != true {
		t.Errorf("attrs has_weights mismatch: got %v", attrs["has_weights"])
	}

	got, gotRec, err := store.LoadBands(rec.UUID)
	if err != nil {
		t.Fatalf("LoadBands failed: %v", err)
	}
	if gotRec.NodeID != rec.NodeID {
		t.Errorf("record mismatch: got node_id %d, want %d", gotRec.NodeID, rec.NodeID)
	}
	if got.UUID() != rec.UUID {
		t.Errorf("uuid mismatch: got %s, want %s", got.UUID(), rec.UUID)
	}
	if got.Label() != "silicon bands" || got.Description() != "two spin channels" {
		t.Errorf("metadata mismatch: got %q, %q", got.Label(), got.Description())
	}
	if got.Units() != "Ry" {
		t.Errorf("units mismatch: got %s", got.Units())
	}
	if got.NumSpins() != 2 || got.NumBands() != 2 {
		t.Errorf("shape mismatch: got %d spins, %d bands", got.NumSpins(), got.NumBands())
	}

	cell, ok := got.Cell()
	if !ok || cell != [3][3]float64{{3.5, 0, 0}, {0, 3.5, 0}, {0, 0, 3.5}} {
		t.Errorf("cell mismatch: got %v (ok=%v)", cell, ok)
	}
	if got.PBC() != [3]bool{true, true, false} {
		t.Errorf("pbc mismatch: got %v", got.PBC())
	}
	if bravais, ok := got.BravaisLattice(); !ok || bravais != "cubic" {
		t.Errorf("bravais mismatch: got %q (ok=%v)", bravais, ok)
	}

	labels := got.Labels()
	if len(labels) != 2 || labels[0] != (bands.Label{Index: 0, Name: "G"}) || labels[1] != (bands.Label{Index: 2, Name: "X"}) {
		t.Errorf("labels mismatch: got %v", labels)
	}
	weights, ok := got.Weights()
	if !ok || len(weights) != 3 || weights[1] != 0.5 {
		t.Errorf("weights mismatch: got %v (ok=%v)", weights, ok)
	}
	if pts := got.Points(); pts[1] != [3]float64{0, 0.25, 0} {
		t.Errorf("kpoints mismatch: got %v", pts)
	}

	if !got.Bands().Equal(bs.Bands()) {
		t.Error("bands array mismatch after roundtrip")
	}
	wantOcc, _ := bs.Occupations()
	gotOcc, ok := got.Occupations()
	if !ok || !gotOcc.Equal(wantOcc) {
		t.Error("occupations mismatch after roundtrip")
	}
	gotBandLabels := got.BandLabels()
	if len(gotBandLabels) != 2 || gotBandLabels[0] != "up" || gotBandLabels[1] != "down" {
		t.Errorf("band labels mismatch: got %v", gotBandLabels)
	}
}

func TestNodeStore_DefaultUser(t *testing.T) {
	a := setupTestArchive(t)

	rec, err := a.Nodes().SaveBands(storeTestBands(t), "", "")
	if err != nil {
		t.Fatalf("SaveBands failed: %v", err)
	}
	if rec.UserEmail != DefaultUserEmail {
		t.Errorf("expected default user %s, got %s", DefaultUserEmail, rec.UserEmail)
	}
}

func TestNodeStore_WithComputer(t *testing.T) {
	a := setupTestArchive(t)

	if _, err := a.Computers().GetOrCreate("localhost", "localhost", "", "", ""); err != nil {
		t.Fatalf("GetOrCreate computer failed: %v", err)
	}

	rec, err := a.Nodes().SaveBands(storeTestBands(t), "alice@example.com", "localhost")
	if err != nil {
		t.Fatalf("SaveBands failed: %v", err)
	}
	if rec.Computer != "localhost" {
		t.Errorf("computer mismatch: got %s", rec.Computer)
	}

	_, err = a.Nodes().SaveBands(storeTestBands(t), "alice@example.com", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown computer, got %v", err)
	}
}

func TestNodeStore_SaveInvalid(t *testing.T) {
	a := setupTestArchive(t)

	_, err := a.Nodes().SaveBands(bands.NewBandStructure(), "", "")
	if err == nil || !strings.Contains(err.Error(), "no kpoints") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestNodeStore_ListCountDelete(t *testing.T) {
	a := setupTestArchive(t)
	store := a.Nodes()

	first, err := store.SaveBands(storeTestBands(t), "", "")
	if err != nil {
		t.Fatalf("SaveBands failed: %v", err)
	}
	second, err := store.SaveBands(storeTestBands(t), "", "")
	if err != nil {
		t.Fatalf("SaveBands failed: %v", err)
	}
	if first.UUID == second.UUID {
		t.Fatal("expected distinct node uuids")
	}

	records, err := store.List("", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(records))
	}
	if records[0].UUID != second.UUID {
		t.Errorf("expected newest node first, got %s", records[0].UUID)
	}

	limited, err := store.List(NodeTypeBands, 1)
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 node, got %d", len(limited))
	}

	other, err := store.List("data.dict", 0)
	if err != nil {
		t.Fatalf("List with type filter failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no nodes of other type, got %d", len(other))
	}

	if n, err := store.Count(); err != nil || n != 2 {
		t.Errorf("Count = %d, %v, want 2", n, err)
	}

	// Each stored band structure carries four arrays.
	var arrayRows int
	if err := a.QueryRow(`SELECT COUNT(*) FROM node_arrays`).Scan(&arrayRows); err != nil {
		t.Fatalf("count arrays failed: %v", err)
	}
	if arrayRows != 8 {
		t.Errorf("expected 8 array rows, got %d", arrayRows)
	}

	if err := store.Delete(first.UUID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(first.UUID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := a.QueryRow(`SELECT COUNT(*) FROM node_arrays`).Scan(&arrayRows); err != nil {
		t.Fatalf("count arrays failed: %v", err)
	}
	if arrayRows != 4 {
		t.Errorf("expected cascade to remove arrays, got %d rows", arrayRows)
	}

	if err := store.Delete(first.UUID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
	if n, _ := store.Count(); n != 1 {
		t.Errorf("Count after delete = %d, want 1", n)
	}
}

func TestNodeStore_LoadWrongType(t *testing.T) {
	a := setupTestArchive(t)

	user, err := a.Users().GetOrCreate("alice@example.com")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	_, err = a.Exec(`
		INSERT INTO nodes (uuid, node_type, label, description, user_id, attrs_json, created_at, updated_at)
		VALUES ('dict-node', 'data.dict', '', '', ?, NULL, 1, 1)`,
		user.UserID)
	if err != nil {
		t.Fatalf("insert dict node failed: %v", err)
	}

	_, _, err = a.Nodes().LoadBands("dict-node")
	if !errors.Is(err, ErrWrongNodeType) {
		t.Errorf("expected ErrWrongNodeType, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "has type data.dict") {
		t.Errorf("expected type mismatch error, got %v", err)
	}

	_, _, err = a.Nodes().LoadBands("no-such-node")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
