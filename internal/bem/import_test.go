package bem

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// square emits the DXF pair stream for a closed unit square on a layer.
func square(layer string, x0, y0 float64) string {
	return "0\nLWPOLYLINE\n8\n" + layer + "\n90\n4\n70\n1\n" +
		coord("10", x0) + coord("20", y0) +
		coord("10", x0+1) + coord("20", y0) +
		coord("10", x0+1) + coord("20", y0+1) +
		coord("10", x0) + coord("20", y0+1)
}

func coord(code string, v float64) string {
	return code + "\n" + strconv.FormatFloat(v, 'g', -1, 64) + "\n"
}

func writeLayout(t *testing.T, body string) string {
	t.Helper()
	contents := "0\nSECTION\n2\nENTITIES\n" + body + "0\nENDSEC\n0\nEOF\n"
	path := filepath.Join(t.TempDir(), "layout.dxf")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportLayout(t *testing.T) {
	path := writeLayout(t, square("0", 0, 0)+square("1", 2, 0)+square("GROUND", 0, 2))

	set, err := importLayout(path)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	names := set.Names()
	if len(names) != 3 {
		t.Fatalf("expected 3 electrodes, got %v", names)
	}

	e, err := set.Find("GROUND")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	// A quad fan-triangulates into two panels.
	if n := len(e.Panels()); n != 2 {
		t.Errorf("expected 2 panels, got %d", n)
	}

	if _, err := set.Find("99"); !errors.Is(err, ErrElectrodeLookup) {
		t.Errorf("expected ErrElectrodeLookup, got %v", err)
	}
}

func TestImportLayoutMergesLayers(t *testing.T) {
	// Two faces on the same layer belong to one electrode.
	path := writeLayout(t, square("0", 0, 0)+square("0", 3, 0))

	set, err := importLayout(path)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	e, err := set.Find("0")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(e.Panels()); n != 4 {
		t.Errorf("expected 4 panels, got %d", n)
	}
}

func TestImportLayoutErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := importLayout(filepath.Join(t.TempDir(), "nope.dxf"))
		if !errors.Is(err, ErrLayoutImport) {
			t.Errorf("expected ErrLayoutImport, got %v", err)
		}
	})

	t.Run("no electrodes", func(t *testing.T) {
		_, err := importLayout(writeLayout(t, ""))
		if !errors.Is(err, ErrLayoutImport) {
			t.Errorf("expected ErrLayoutImport, got %v", err)
		}
	})

	t.Run("degenerate polyline", func(t *testing.T) {
		body := "0\nLWPOLYLINE\n8\n0\n10\n0\n20\n0\n10\n1\n20\n0\n"
		_, err := importLayout(writeLayout(t, body))
		if !errors.Is(err, ErrLayoutImport) {
			t.Errorf("expected ErrLayoutImport, got %v", err)
		}
	})

	t.Run("entities outside section ignored", func(t *testing.T) {
		contents := square("0", 0, 0) + "0\nSECTION\n2\nENTITIES\n" + square("1", 2, 0) + "0\nENDSEC\n0\nEOF\n"
		path := filepath.Join(t.TempDir(), "layout.dxf")
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}
		set, err := importLayout(path)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if names := set.Names(); len(names) != 1 || names[0] != "1" {
			t.Errorf("expected only electrode 1, got %v", names)
		}
	})
}
