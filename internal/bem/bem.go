package bem

import "errors"

// Domain errors for solver operations.
var (
	// ErrLayoutImport indicates the trap layout file could not be read or
	// contained no usable electrodes.
	ErrLayoutImport = errors.New("bem: layout import failed")

	// ErrElectrodeLookup indicates a requested electrode name is absent from
	// the imported layout.
	ErrElectrodeLookup = errors.New("bem: electrode not found in layout")

	// ErrSolveFailure indicates the boundary solve did not produce a usable
	// solution (singular system, empty world, or a stale cache).
	ErrSolveFailure = errors.New("bem: boundary solve failed")
)

// MeshParams configures world discretization.
type MeshParams struct {
	// Tolerance is the target numerical tolerance of the solve.
	Tolerance float64
	// MaxPanels caps refinement; subdivision stops once the world holds
	// this many panels.
	MaxPanels int
}

// DefaultMeshParams matches the parameters the layout files were produced
// against.
func DefaultMeshParams() MeshParams {
	return MeshParams{Tolerance: 1e-5, MaxPanels: 2048}
}

// Electrode is a named conductor held at a voltage.
type Electrode interface {
	Name() string
	Voltage() float64
	SetVoltage(v float64)
	// Panels returns the boundary discretization of the electrode surface.
	Panels() []Panel
}

// ElectrodeSet is the result of importing a trap layout file.
type ElectrodeSet interface {
	// Find returns the electrode with the given name, or an error wrapping
	// ErrElectrodeLookup.
	Find(name string) (Electrode, error)
	// Names lists electrode names in layout order.
	Names() []string
}

// World is a boundary-value problem over a set of inserted electrodes.
// Insert, Refine, CorrectNormals and Solve must be called in that order,
// from a single goroutine.
type World interface {
	Insert(e Electrode)
	// Refine runs up to iterations subdivision passes over the largest
	// panels.
	Refine(iterations int)
	// CorrectNormals orients all panel normals toward the reference point.
	CorrectNormals(x, y, z float64)
	// Solve computes (or loads from cache) the per-electrode charge basis.
	Solve() error
	// Potential evaluates the electrostatic potential at a point using the
	// current electrode voltages. It returns 0 before a successful Solve.
	Potential(x, y, z float64) float64
}

// Solver builds solvable worlds from imported layouts.
type Solver interface {
	ImportLayout(path string) (ElectrodeSet, error)
	// BuildWorld creates an empty world whose solved state is persisted at
	// cachePath.
	BuildWorld(cachePath string, p MeshParams) World
}
