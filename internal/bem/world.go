package bem

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// PanelSolver is the reference Solver implementation: triangular-panel
// collocation with a dense LU solve.
type PanelSolver struct {
	log *slog.Logger
}

func NewPanelSolver(log *slog.Logger) *PanelSolver {
	if log == nil {
		log = slog.Default()
	}
	return &PanelSolver{log: log}
}

func (s *PanelSolver) ImportLayout(path string) (ElectrodeSet, error) {
	return importLayout(path)
}

func (s *PanelSolver) BuildWorld(cachePath string, p MeshParams) World {
	return &PanelWorld{
		cachePath: cachePath,
		params:    p,
		log:       s.log,
	}
}

// PanelWorld holds the discretized boundary-value problem. After Solve it
// carries, per electrode, the panel charges induced by holding that
// electrode at unit voltage with all others grounded. The potential for any
// voltage assignment is a superposition of these basis solutions, so one
// solve serves every activation set.
type PanelWorld struct {
	cachePath string
	params    MeshParams
	log       *slog.Logger

	electrodes []Electrode
	panels     []Panel
	owners     []int

	// basis[e][j] is the charge on panel j for unit voltage on electrode e.
	basis  [][]float64
	solved bool
}

func (w *PanelWorld) Insert(e Electrode) {
	idx := len(w.electrodes)
	w.electrodes = append(w.electrodes, e)
	for _, p := range e.Panels() {
		w.panels = append(w.panels, p)
		w.owners = append(w.owners, idx)
	}
}

func (w *PanelWorld) Refine(iterations int) {
	for it := 0; it < iterations; it++ {
		if len(w.panels)+3 > w.params.MaxPanels {
			return
		}
		// Subdivide the coarsest panel.
		largest := 0
		maxArea := 0.0
		for i, p := range w.panels {
			if a := p.Area(); a > maxArea {
				maxArea = a
				largest = i
			}
		}
		if maxArea == 0 {
			return
		}
		owner := w.owners[largest]
		children := w.panels[largest].Split()
		w.panels[largest] = children[0]
		for _, c := range children[1:] {
			w.panels = append(w.panels, c)
			w.owners = append(w.owners, owner)
		}
	}
}

func (w *PanelWorld) CorrectNormals(x, y, z float64) {
	ref := Vec3{X: x, Y: y, Z: z}
	for i := range w.panels {
		w.panels[i].FlipToward(ref)
	}
}

// Solve loads the solved world from the cache when present; otherwise it
// assembles and factors the collocation system and writes the cache.
func (w *PanelWorld) Solve() error {
	if _, err := os.Stat(w.cachePath); err == nil {
		if err := w.loadCache(); err != nil {
			return err
		}
		w.log.Info("loaded solved world from cache", "path", w.cachePath, "panels", len(w.panels))
		return nil
	}

	n := len(w.panels)
	m := len(w.electrodes)
	if n == 0 || m == 0 {
		return fmt.Errorf("%w: empty world", ErrSolveFailure)
	}

	w.log.Info("assembling collocation system", "panels", n, "electrodes", m)

	// Influence matrix: potential at collocation point i per unit charge on
	// panel j. The Coulomb constant cancels against the unit-voltage
	// boundary condition.
	a := mat.NewDense(n, n, nil)
	centroids := make([]Vec3, n)
	radii := make([]float64, n)
	for i, p := range w.panels {
		centroids[i] = p.Centroid()
		radii[i] = p.Radius()
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				// Uniformly charged disc of equal area.
				a.Set(i, j, 2/radii[j])
				continue
			}
			r := centroids[i].Sub(centroids[j]).Norm()
			if r < radii[j] {
				r = radii[j]
			}
			a.Set(i, j, 1/r)
		}
	}

	rhs := mat.NewDense(n, m, nil)
	for i, owner := range w.owners {
		rhs.Set(i, owner, 1)
	}

	var lu mat.LU
	lu.Factorize(a)
	if cond := lu.Cond(); cond > 1/w.params.Tolerance {
		return fmt.Errorf("%w: system is ill-conditioned (cond %.3g)", ErrSolveFailure, cond)
	}
	charges := mat.NewDense(n, m, nil)
	if err := lu.SolveTo(charges, false, rhs); err != nil {
		return fmt.Errorf("%w: %v", ErrSolveFailure, err)
	}

	w.basis = make([][]float64, m)
	for e := 0; e < m; e++ {
		col := make([]float64, n)
		mat.Col(col, e, charges)
		w.basis[e] = col
	}
	w.solved = true

	if err := w.saveCache(); err != nil {
		return err
	}
	w.log.Info("wrote solved world cache", "path", w.cachePath)
	return nil
}

// Potential evaluates the electrostatic potential at a point from the
// superposed charge basis scaled by the current electrode voltages.
func (w *PanelWorld) Potential(x, y, z float64) float64 {
	if !w.solved {
		return 0
	}
	pt := Vec3{X: x, Y: y, Z: z}

	phi := 0.0
	for j, p := range w.panels {
		var q float64
		for e, el := range w.electrodes {
			if v := el.Voltage(); v != 0 {
				q += v * w.basis[e][j]
			}
		}
		if q == 0 {
			continue
		}
		r := pt.Sub(p.Centroid()).Norm()
		if rj := p.Radius(); r < rj {
			// On or inside the panel footprint: disc potential.
			phi += 2 * q / rj
			continue
		}
		phi += q / r
	}
	return phi
}

// worldCache is the gob image of a solved world.
type worldCache struct {
	Names  []string
	Panels []Panel
	Owners []int
	Basis  [][]float64
}

func (w *PanelWorld) saveCache() error {
	dir := filepath.Dir(w.cachePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("bem: create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".savedworld-*")
	if err != nil {
		return fmt.Errorf("bem: create cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	names := make([]string, len(w.electrodes))
	for i, e := range w.electrodes {
		names[i] = e.Name()
	}
	cache := worldCache{
		Names:  names,
		Panels: w.panels,
		Owners: w.owners,
		Basis:  w.basis,
	}
	if err := gob.NewEncoder(tmp).Encode(cache); err != nil {
		tmp.Close()
		return fmt.Errorf("bem: encode cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("bem: close cache: %w", err)
	}
	return os.Rename(tmp.Name(), w.cachePath)
}

func (w *PanelWorld) loadCache() error {
	f, err := os.Open(w.cachePath)
	if err != nil {
		return fmt.Errorf("bem: open cache: %w", err)
	}
	defer f.Close()

	var cache worldCache
	if err := gob.NewDecoder(f).Decode(&cache); err != nil {
		return fmt.Errorf("%w: corrupt cache %s: %v", ErrSolveFailure, w.cachePath, err)
	}

	if len(cache.Names) != len(w.electrodes) {
		return fmt.Errorf("%w: cache %s holds %d electrodes, world has %d",
			ErrSolveFailure, w.cachePath, len(cache.Names), len(w.electrodes))
	}
	for i, e := range w.electrodes {
		if cache.Names[i] != e.Name() {
			return fmt.Errorf("%w: cache %s electrode %d is %q, world has %q",
				ErrSolveFailure, w.cachePath, i, cache.Names[i], e.Name())
		}
	}

	w.panels = cache.Panels
	w.owners = cache.Owners
	w.basis = cache.Basis
	w.solved = true
	return nil
}
