// Package grid loads the grid description file that defines the sampling
// lattice and electrode topology for a potential field computation.
//
// The file format is fixed and line-oriented: a comment line followed by ten
// "label: value" lines in a known order. The loader trusts that order and
// parses values positionally; labels are never inspected. This mirrors the
// upstream tooling that writes these files and keeps the format trivially
// greppable.
package grid

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrMalformed indicates a grid file that does not follow the fixed
// eleven-line layout (comment line plus ten value lines).
var ErrMalformed = errors.New("grid: malformed grid file")

// Geometry describes the sampling domain and electrode topology. DimX/Y/Z
// are sample counts per axis and must be at least 2 so that the per-axis
// step (end-start)/(dim-1) is defined.
type Geometry struct {
	// ElectrodePairs is the number of distinct physical electrode positions
	// before mirror duplication. The solved world addresses
	// 2*ElectrodePairs+2 electrodes plus ground.
	ElectrodePairs int

	DimX, DimY, DimZ int

	StartX, StartY, StartZ float64
	EndX, EndY, EndZ       float64
}

// Load reads a grid description file. The first line is discarded; the
// following ten lines are parsed positionally in the order
// num_electrodes, dimx, dimy, dimz, startx, starty, startz, endx, endy, endz.
func Load(path string) (Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Geometry{}, fmt.Errorf("grid: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)

	// Comment/dashes header.
	if !sc.Scan() {
		return Geometry{}, fmt.Errorf("%w: empty file %s", ErrMalformed, path)
	}

	vals := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		if !sc.Scan() {
			return Geometry{}, fmt.Errorf("%w: %s has %d value lines, want 10", ErrMalformed, path, i)
		}
		v, err := rightOfColon(sc.Text())
		if err != nil {
			return Geometry{}, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, path, i+2, err)
		}
		vals = append(vals, v)
	}
	if err := sc.Err(); err != nil {
		return Geometry{}, fmt.Errorf("grid: read %s: %w", path, err)
	}

	var g Geometry
	ints := []*int{&g.ElectrodePairs, &g.DimX, &g.DimY, &g.DimZ}
	for i, dst := range ints {
		n, err := strconv.Atoi(vals[i])
		if err != nil {
			return Geometry{}, fmt.Errorf("%w: %s line %d: %q is not an integer", ErrMalformed, path, i+2, vals[i])
		}
		*dst = n
	}
	floats := []*float64{&g.StartX, &g.StartY, &g.StartZ, &g.EndX, &g.EndY, &g.EndZ}
	for i, dst := range floats {
		x, err := strconv.ParseFloat(vals[i+4], 64)
		if err != nil {
			return Geometry{}, fmt.Errorf("%w: %s line %d: %q is not a number", ErrMalformed, path, i+6, vals[i+4])
		}
		*dst = x
	}

	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}

// rightOfColon returns the trimmed text after the first colon.
func rightOfColon(line string) (string, error) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", fmt.Errorf("no colon in %q", line)
	}
	return strings.TrimSpace(line[idx+1:]), nil
}

// Validate checks the step-size invariant.
func (g Geometry) Validate() error {
	if g.ElectrodePairs < 0 {
		return fmt.Errorf("%w: negative electrode count %d", ErrMalformed, g.ElectrodePairs)
	}
	for _, d := range []int{g.DimX, g.DimY, g.DimZ} {
		if d < 2 {
			return fmt.Errorf("%w: axis dimension %d, need at least 2 points per axis", ErrMalformed, d)
		}
	}
	return nil
}

// TotalElectrodes is the number of addressable non-ground electrodes in the
// solved world: mirrored pairs plus the two endcap electrodes.
func (g Geometry) TotalElectrodes() int {
	return 2*g.ElectrodePairs + 2
}

// NumPoints is the total sample count of the lattice.
func (g Geometry) NumPoints() int {
	return g.DimX * g.DimY * g.DimZ
}

// Steps returns the per-axis sample spacing.
func (g Geometry) Steps() (sx, sy, sz float64) {
	sx = (g.EndX - g.StartX) / float64(g.DimX-1)
	sy = (g.EndY - g.StartY) / float64(g.DimY-1)
	sz = (g.EndZ - g.StartZ) / float64(g.DimZ-1)
	return sx, sy, sz
}

// Point returns the physical coordinates of lattice index (i, j, k).
func (g Geometry) Point(i, j, k int) (x, y, z float64) {
	sx, sy, sz := g.Steps()
	return g.StartX + float64(i)*sx, g.StartY + float64(j)*sy, g.StartZ + float64(k)*sz
}

// Xs returns the axial sample coordinates.
func (g Geometry) Xs() []float64 {
	sx, _, _ := g.Steps()
	xs := make([]float64, g.DimX)
	for i := range xs {
		xs[i] = g.StartX + float64(i)*sx
	}
	return xs
}
