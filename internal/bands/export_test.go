package bands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borellim/bandkit/internal/ndarray"
)

// exportFixture is three kpoints with two bands and labels on the first and
// last point. Without a cell, path distances come from the stored
// coordinates: x = 0, 0.5, 1.
func exportFixture(t *testing.T) *BandStructure {
	t.Helper()
	ks := NewKpointSet()
	require.NoError(t, ks.SetPoints([][3]float64{{0, 0, 0}, {0.5, 0, 0}, {0.5, 0.5, 0}}, nil))
	require.NoError(t, ks.SetLabels([]Label{{Index: 0, Name: "G"}, {Index: 2, Name: "X"}}))

	bs := NewBandStructure()
	bs.SetKpointSet(ks)
	arr, err := ndarray.FromSlice2D([][]float64{{-1, 1}, {-0.5, 1.5}, {0, 2}})
	require.NoError(t, err)
	require.NoError(t, bs.SetBands(arr))
	return bs
}

func noComments() *ExportOptions {
	off := false
	return &ExportOptions{Comments: &off}
}

func TestExportFormats(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"agr", "agr_batch", "dat_1", "dat_2", "html", "json", "png"}, ExportFormats())

	_, _, err := ExportString(exportFixture(t), "xsf", nil)
	assert.ErrorContains(t, err, `unknown export format "xsf"`)
}

func TestExportDat1(t *testing.T) {
	t.Parallel()
	bs := exportFixture(t)

	body, extra, err := ExportString(bs, "dat_1", nil)
	require.NoError(t, err)
	assert.Nil(t, extra)
	want := "# Created with bandkit dev\n" +
		"#\n" +
		"# Dumped from BandStructure\n" +
		"#\tpoints\tbands\n" +
		"#\t3\t2\n" +
		"# \tlabel\tpoint\n" +
		"#\tG\t0.00000000\n" +
		"#\tX\t1.00000000\n" +
		"\n" +
		"0.00000000\t-1.00000000\t1.00000000\n" +
		"0.50000000\t-0.50000000\t1.50000000\n" +
		"1.00000000\t0.00000000\t2.00000000\n"
	assert.Equal(t, want, body)
}

func TestExportDat1HeaderUUID(t *testing.T) {
	t.Parallel()
	bs := exportFixture(t)
	bs.SetUUID("9A2BE88A-FB0F-4E29-A29D-54F7FA93AF7C")

	body, _, err := ExportString(bs, "dat_1", nil)
	require.NoError(t, err)
	assert.Contains(t, body, "# Dumped from BandStructure UUID=9A2BE88A-FB0F-4E29-A29D-54F7FA93AF7C\n")
}

func TestExportDat2(t *testing.T) {
	t.Parallel()
	bs := exportFixture(t)

	body, extra, err := ExportString(bs, "dat_2", noComments())
	require.NoError(t, err)
	assert.Nil(t, extra)
	want := "0.00000000\t-1.00000000\n" +
		"0.50000000\t-0.50000000\n" +
		"1.00000000\t0.00000000\n" +
		"\n\n" +
		"0.00000000\t1.00000000\n" +
		"0.50000000\t1.50000000\n" +
		"1.00000000\t2.00000000\n" +
		"\n"
	assert.Equal(t, want, body)
}

func TestExportCartesianDistances(t *testing.T) {
	t.Parallel()
	bs := exportFixture(t)
	require.NoError(t, bs.SetCell([3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}))

	// with a unit cell the reciprocal vectors have length 2*pi
	body, _, err := ExportString(bs, "dat_1", noComments())
	require.NoError(t, err)
	assert.Contains(t, body, "3.14159265\t-0.50000000")
	assert.Contains(t, body, "6.28318531\t0.00000000")

	off := false
	body, _, err = ExportString(bs, "dat_1", &ExportOptions{Comments: &off, Cartesian: &off})
	require.NoError(t, err)
	assert.Contains(t, body, "0.50000000\t-0.50000000")
}

func TestExportUnitsConversion(t *testing.T) {
	t.Parallel()
	bs := exportFixture(t)

	off := false
	body, _, err := ExportString(bs, "dat_1", &ExportOptions{Comments: &off, Units: "meV"})
	require.NoError(t, err)
	want := "0.00000000\t-1000.00000000\t1000.00000000\n" +
		"0.50000000\t-500.00000000\t1500.00000000\n" +
		"1.00000000\t0.00000000\t2000.00000000\n"
	assert.Equal(t, want, body)

	// the caller's structure keeps its stored units and values
	assert.Equal(t, "eV", bs.Units())
	assert.Equal(t, -1.0, bs.Bands().Data()[0])

	agr, _, err := ExportString(bs, "agr", &ExportOptions{Units: "meV"})
	require.NoError(t, err)
	assert.Contains(t, agr, "Dispersion (meV)")

	_, _, err = ExportString(bs, "dat_1", &ExportOptions{Units: "THz"})
	assert.ErrorContains(t, err, `unknown units "THz"`)

	bs.SetUnits("arbitrary")
	_, _, err = ExportString(bs, "dat_1", &ExportOptions{Units: "eV"})
	assert.ErrorContains(t, err, `stored units "arbitrary"`)
}

func TestExportAgrBatch(t *testing.T) {
	t.Parallel()
	bs := exportFixture(t)

	body, extra, err := ExportString(bs, "agr_batch", noComments())
	require.NoError(t, err)

	wantData := "0.00000000\t-1.00000000\n" +
		"0.50000000\t-0.50000000\n" +
		"1.00000000\t0.00000000\n" +
		"\n\n" +
		"0.00000000\t1.00000000\n" +
		"0.50000000\t1.50000000\n" +
		"1.00000000\t2.00000000\n" +
		"\n" +
		"0.0\t-1.0\n0.0\t2.0\n" +
		"1.0\t-1.0\n1.0\t2.0\n"
	assert.Equal(t, wantData, body)

	wantBatch := `READ XY "bands.dat"
world 0.0, -1.0, 1.0, 2.0
yaxis label "Dispersion"
xaxis  tick place both
xaxis  tick spec type both
xaxis  tick spec 2
xaxis  tick major 0, 0.0
xaxis  ticklabel 0, "\xG"
xaxis  tick major 1, 1.0
xaxis  ticklabel 1, "X"
yaxis  tick minor ticks 3
frame linewidth 2.0
map font 4 to "Helvetica", "Helvetica"
yaxis  label font 4
xaxis  label font 4
s0 line color 1
s0 linewidth 1
s1 line color 1
s1 linewidth 1
s2 line color 1
s2 linewidth 2
s3 line color 1
s3 linewidth 2
`
	require.Contains(t, extra, "batch.dat")
	assert.Equal(t, wantBatch, extra["batch.dat"])
}

func TestExportAgr(t *testing.T) {
	t.Parallel()
	bs := exportFixture(t)

	body, extra, err := ExportString(bs, "agr", &ExportOptions{Comments: noComments().Comments, Legend: "bands"})
	require.NoError(t, err)
	assert.Nil(t, extra)

	assert.True(t, strings.HasPrefix(body, "\n# Grace project file\n#\n@version 50122\n"))
	assert.Contains(t, body, "@    world 0.0, -1.0, 1.0, 2.0\n")
	assert.Contains(t, body, `@    yaxis  label "Dispersion (eV)"`)
	assert.Contains(t, body, "@    xaxis  tick spec 2\n")
	assert.Contains(t, body, "@    xaxis  tick major 0, 0.0\n")
	assert.Contains(t, body, `@    xaxis  ticklabel 0, "\xG"`)
	assert.Contains(t, body, `@    xaxis  ticklabel 1, "X"`)
	// span is 3 eV, so major ticks every 1
	assert.Contains(t, body, "@    yaxis  tick major 1\n")
	assert.Contains(t, body, `@    s0 legend "bands"`)
	assert.Contains(t, body, `@    s1 legend ""`)
	assert.Contains(t, body, "@    s0 line linewidth 2.0\n")
	assert.Contains(t, body, "@    s1 line color 1\n")
	assert.Contains(t, body, "@target G0.S0\n@type xy\n0.00000000\t-1.00000000\n")
	assert.Contains(t, body, "\n&\n\n@target G0.S1\n")
	assert.True(t, strings.HasSuffix(body, "\n"))
}

func TestExportAgrOptions(t *testing.T) {
	t.Parallel()

	t.Run("set offset and y origin", func(t *testing.T) {
		t.Parallel()
		bs := exportFixture(t)
		body, _, err := ExportString(bs, "agr", &ExportOptions{
			Comments:  noComments().Comments,
			SetOffset: 10,
			YOrigin:   1,
		})
		require.NoError(t, err)
		assert.Contains(t, body, "@target G0.S10\n")
		assert.Contains(t, body, "@target G0.S11\n")
		assert.NotContains(t, body, "@target G0.S0\n")
		// bands shifted down by the new origin
		assert.Contains(t, body, "@    world 0.0, -2.0, 1.0, 1.0\n")
		assert.Contains(t, body, "0.00000000\t-2.00000000\n")
	})

	t.Run("explicit y limits drive the tick spacing", func(t *testing.T) {
		t.Parallel()
		bs := exportFixture(t)
		body, _, err := ExportString(bs, "agr", &ExportOptions{
			Comments: noComments().Comments,
			YMin:     floatPtr(-0.05),
			YMax:     floatPtr(0.04),
		})
		require.NoError(t, err)
		assert.Contains(t, body, "@    world 0.0, -0.05, 1.0, 0.04\n")
		assert.Contains(t, body, "@    yaxis  tick major 0.1\n")
	})

	t.Run("color index bounds", func(t *testing.T) {
		t.Parallel()
		bs := exportFixture(t)
		_, _, err := ExportString(bs, "agr", &ExportOptions{ColorIndex: 16})
		assert.ErrorContains(t, err, "too high")

		body, _, err := ExportString(bs, "agr", &ExportOptions{Comments: noComments().Comments, ColorIndex: 4})
		require.NoError(t, err)
		assert.Contains(t, body, "@    s0 line color 4\n")
	})
}

func TestExportLabelMerging(t *testing.T) {
	t.Parallel()

	// labels on consecutive points mark a discontinuity: zero distance
	// between them stacks both names on one coordinate
	ks := NewKpointSet()
	require.NoError(t, ks.SetPoints([][3]float64{{0, 0, 0}, {0.5, 0, 0}, {1, 0, 0}}, nil))
	require.NoError(t, ks.SetLabels([]Label{{Index: 0, Name: "G"}, {Index: 1, Name: "X"}}))
	bs := NewBandStructure()
	bs.SetKpointSet(ks)
	arr, err := ndarray.FromSlice2D([][]float64{{-1}, {-0.5}, {0}})
	require.NoError(t, err)
	require.NoError(t, bs.SetBands(arr))

	body, _, err := ExportString(bs, "dat_1", nil)
	require.NoError(t, err)
	assert.Contains(t, body, "#\tG|X\t0.00000000\n")

	body, _, err = ExportString(bs, "agr", nil)
	require.NoError(t, err)
	assert.Contains(t, body, "#\t"+`\xG`+"|X\t0.00000000\n")
	assert.Contains(t, body, `@    xaxis  ticklabel 0, "\xG|X"`)
}

func TestExportGammaEscapeAtPathEnd(t *testing.T) {
	t.Parallel()
	ks := NewKpointSet()
	require.NoError(t, ks.SetPoints([][3]float64{{0.5, 0, 0}, {0.25, 0, 0}, {0, 0, 0}}, nil))
	require.NoError(t, ks.SetLabels([]Label{{Index: 0, Name: "X"}, {Index: 2, Name: "G"}}))
	bs := NewBandStructure()
	bs.SetKpointSet(ks)
	arr, err := ndarray.FromSlice2D([][]float64{{-1}, {-0.5}, {0}})
	require.NoError(t, err)
	require.NoError(t, bs.SetBands(arr))

	body, _, err := ExportString(bs, "agr", noComments())
	require.NoError(t, err)
	assert.Contains(t, body, `@    xaxis  ticklabel 1, "\xG"`)
}

func TestExportJSON(t *testing.T) {
	t.Parallel()

	t.Run("labelled path", func(t *testing.T) {
		t.Parallel()
		bs := exportFixture(t)
		bs.SetLabel("silicon")

		body, extra, err := ExportString(bs, "json", nil)
		require.NoError(t, err)
		assert.Nil(t, extra)
		want := `{"label":"silicon","path":[["G","X"]],` +
			`"paths":[{"length":2,"from":"G","to":"X","values":[[-1,-0.5,0],[1,1.5,2]]}]}`
		assert.Equal(t, want, body)
	})

	t.Run("unlabelled path collapses to one segment", func(t *testing.T) {
		t.Parallel()
		ks := NewKpointSet()
		require.NoError(t, ks.SetPoints([][3]float64{{0, 0, 0}, {0.5, 0, 0}}, nil))
		bs := NewBandStructure()
		bs.SetKpointSet(ks)
		arr, err := ndarray.FromSlice2D([][]float64{{-1, 1}, {0, 2}})
		require.NoError(t, err)
		require.NoError(t, bs.SetBands(arr))

		body, _, err := ExportString(bs, "json", nil)
		require.NoError(t, err)
		want := `{"label":"","path":[["0","1"]],` +
			`"paths":[{"length":1,"from":"0","to":"1","values":[[-1,0],[1,2]]}]}`
		assert.Equal(t, want, body)
	})
}

func TestExportPNG(t *testing.T) {
	t.Parallel()
	bs := exportFixture(t)

	body, extra, err := ExportString(bs, "png", &ExportOptions{Title: "test bands"})
	require.NoError(t, err)
	assert.Nil(t, extra)
	assert.True(t, strings.HasPrefix(body, "\x89PNG\r\n\x1a\n"), "png signature missing")
}

func TestExportHTML(t *testing.T) {
	t.Parallel()
	bs := exportFixture(t)
	bs.SetLabel("silicon")

	body, extra, err := ExportString(bs, "html", nil)
	require.NoError(t, err)
	assert.Nil(t, extra)
	assert.Contains(t, body, "echarts")
	assert.Contains(t, body, "silicon")
	assert.Contains(t, body, "band 1")
}

func TestExportToFile(t *testing.T) {
	t.Parallel()

	t.Run("format from extension", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "bands.dat")
		bs := exportFixture(t)

		require.NoError(t, Export(bs, path, nil))
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(got), "0.00000000\t-1.00000000\t1.00000000\n")

		err = Export(bs, path, nil)
		assert.ErrorContains(t, err, "already exists")
		require.NoError(t, Export(bs, path, &ExportOptions{Overwrite: true}))
	})

	t.Run("batch export writes the script next to the data", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "out.dat")
		bs := exportFixture(t)

		require.NoError(t, Export(bs, path, &ExportOptions{Format: "agr_batch"}))

		script, err := os.ReadFile(filepath.Join(dir, "batch.dat"))
		require.NoError(t, err)
		assert.Contains(t, string(script), `READ XY "`+path+`"`)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "# Dumped from BandStructure\n")
	})

	t.Run("path checks", func(t *testing.T) {
		t.Parallel()
		bs := exportFixture(t)
		assert.ErrorContains(t, Export(bs, "", nil), "empty export path")
		assert.ErrorContains(t, Export(bs, filepath.Join(t.TempDir(), "bands"), nil), "cannot recognise")
	})
}
