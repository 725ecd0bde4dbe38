// Package field drives potential field computations over a sampling grid.
//
// A run is either a priming pass, which solves the electrode world once at
// all-zero voltages and persists the solved-world cache, or a sampling pass,
// which reuses the cache and writes one flat potential file per activated
// electrode. Priming must complete before any sampling run starts; sampling
// runs only read the cache and are therefore safe to execute concurrently
// as separate processes over disjoint electrode ranges.
package field

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/san-kum/trapfield/internal/grid"
)

// ActivationSet is the set of electrode indices held at unit voltage for
// one sampling pass. The empty set means "solve the world and stop".
type ActivationSet map[int]struct{}

func NewActivationSet(indices ...int) ActivationSet {
	s := make(ActivationSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

func (s ActivationSet) Contains(i int) bool {
	_, ok := s[i]
	return ok
}

// Indices returns the members in ascending order.
func (s ActivationSet) Indices() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Field is a sampled potential field in the canonical nested order:
// X outermost, then Y, Z innermost.
type Field struct {
	Geom   grid.Geometry
	Values []float64
}

// At returns the potential at lattice index (i, j, k).
func (f *Field) At(i, j, k int) float64 {
	return f.Values[(i*f.Geom.DimY+j)*f.Geom.DimZ+k]
}

// AxialSlice returns the potential along X at transverse index (j, k).
func (f *Field) AxialSlice(j, k int) []float64 {
	out := make([]float64, f.Geom.DimX)
	for i := range out {
		out[i] = f.At(i, j, k)
	}
	return out
}

// LoadField reads a potential file back: one float per line, exactly
// NumPoints lines.
func LoadField(path string, geom grid.Geometry) (*Field, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("field: open %s: %w", path, err)
	}
	defer file.Close()

	want := geom.NumPoints()
	values := make([]float64, 0, want)

	sc := bufio.NewScanner(file)
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("field: %s line %d: %w", path, len(values)+1, err)
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("field: read %s: %w", path, err)
	}

	if len(values) != want {
		return nil, fmt.Errorf("field: %s holds %d values, grid wants %d", path, len(values), want)
	}
	return &Field{Geom: geom, Values: values}, nil
}
