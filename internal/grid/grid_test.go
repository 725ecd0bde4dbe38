package grid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validGrid = `---
num_electrodes: 3
dimx: 2
dimy: 4
dimz: 8
startx: -1.5
starty: 0
startz: 0.25
endx: 1.5
endy: 3
endz: 2.25
`

func writeGrid(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.txt")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	g, err := Load(writeGrid(t, validGrid))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if g.ElectrodePairs != 3 {
		t.Errorf("expected 3 electrode pairs, got %d", g.ElectrodePairs)
	}
	if g.DimX != 2 || g.DimY != 4 || g.DimZ != 8 {
		t.Errorf("unexpected dims: %d %d %d", g.DimX, g.DimY, g.DimZ)
	}
	if g.StartX != -1.5 || g.StartY != 0 || g.StartZ != 0.25 {
		t.Errorf("unexpected starts: %g %g %g", g.StartX, g.StartY, g.StartZ)
	}
	if g.EndX != 1.5 || g.EndY != 3 || g.EndZ != 2.25 {
		t.Errorf("unexpected ends: %g %g %g", g.EndX, g.EndY, g.EndZ)
	}
}

func TestLoadIgnoresLabels(t *testing.T) {
	// The loader is positional; labels are never checked.
	g, err := Load(writeGrid(t, `# header
anything: 2
whatever: 2
x: 2
y: 2
a: 0
b: 0
c: 0
d: 1
e: 1
f: 1
`))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if g.ElectrodePairs != 2 {
		t.Errorf("expected pairs 2, got %d", g.ElectrodePairs)
	}
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"empty", ""},
		{"truncated", "---\nnum_electrodes: 3\ndimx: 2\n"},
		{"missing colon", "---\nnum_electrodes 3\ndimx: 2\ndimy: 2\ndimz: 2\nstartx: 0\nstarty: 0\nstartz: 0\nendx: 1\nendy: 1\nendz: 1\n"},
		{"bad integer", "---\nnum_electrodes: three\ndimx: 2\ndimy: 2\ndimz: 2\nstartx: 0\nstarty: 0\nstartz: 0\nendx: 1\nendy: 1\nendz: 1\n"},
		{"bad float", "---\nnum_electrodes: 3\ndimx: 2\ndimy: 2\ndimz: 2\nstartx: zero\nstarty: 0\nstartz: 0\nendx: 1\nendy: 1\nendz: 1\n"},
		{"dim below 2", "---\nnum_electrodes: 3\ndimx: 1\ndimy: 2\ndimz: 2\nstartx: 0\nstarty: 0\nstartz: 0\nendx: 1\nendy: 1\nendz: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeGrid(t, tt.contents))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestSteps(t *testing.T) {
	g := Geometry{DimX: 2, DimY: 3, DimZ: 5, StartX: 0, EndX: 1, StartY: -1, EndY: 1, StartZ: 0, EndZ: 2}
	sx, sy, sz := g.Steps()
	if sx != 1.0 {
		t.Errorf("expected x step 1, got %g", sx)
	}
	if sy != 1.0 {
		t.Errorf("expected y step 1, got %g", sy)
	}
	if sz != 0.5 {
		t.Errorf("expected z step 0.5, got %g", sz)
	}

	x, y, z := g.Point(1, 2, 4)
	if x != 1 || y != 1 || z != 2 {
		t.Errorf("expected end corner, got %g %g %g", x, y, z)
	}
}

func TestTotals(t *testing.T) {
	g := Geometry{ElectrodePairs: 3, DimX: 2, DimY: 2, DimZ: 2}
	if n := g.TotalElectrodes(); n != 8 {
		t.Errorf("expected 8 electrodes, got %d", n)
	}
	if n := g.NumPoints(); n != 8 {
		t.Errorf("expected 8 points, got %d", n)
	}
}
