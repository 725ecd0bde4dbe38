package field

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/san-kum/trapfield/internal/bem"
	"github.com/san-kum/trapfield/internal/grid"
)

// ErrCacheNotPrimed indicates a sampling run was started before a priming
// run wrote the solved-world cache. Solving cold here would race with a
// concurrently running primer, so the driver refuses instead.
var ErrCacheNotPrimed = errors.New("field: solved-world cache not primed; run a priming pass first")

// Options configures a Driver.
type Options struct {
	// LayoutPath is the trap layout drawing consumed by the solver import.
	LayoutPath string
	// CachePath is where the solved world is persisted.
	CachePath string
	// FieldPrefix and FieldSuffix bracket the electrode index in output
	// file names, e.g. "field" + "3" + ".txt".
	FieldPrefix string
	FieldSuffix string
	// RefineIterations is the number of mesh subdivision passes.
	RefineIterations int
	// Mesh holds solver discretization parameters.
	Mesh bem.MeshParams
	// NormalRef is the reference point panel normals are oriented toward.
	NormalRef bem.Vec3
}

// Observer is notified as grid points are evaluated. Used by the live view;
// may be nil.
type Observer interface {
	OnPoint(electrode, done, total int, phi float64)
	OnFileDone(electrode int, path string)
}

// Driver orchestrates priming and sampling runs for a fixed grid geometry.
type Driver struct {
	geom     grid.Geometry
	solver   bem.Solver
	opts     Options
	log      *slog.Logger
	observer Observer
}

func New(geom grid.Geometry, solver bem.Solver, opts Options, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	if opts.FieldPrefix == "" {
		opts.FieldPrefix = "field"
	}
	if opts.FieldSuffix == "" {
		opts.FieldSuffix = ".txt"
	}
	return &Driver{geom: geom, solver: solver, opts: opts, log: log}
}

// SetObserver attaches a point-evaluation observer.
func (d *Driver) SetObserver(o Observer) { d.observer = o }

// Geometry returns the grid geometry the driver samples over.
func (d *Driver) Geometry() grid.Geometry { return d.geom }

// OutputPath returns the potential file name for an electrode index.
func (d *Driver) OutputPath(i int) string {
	return d.opts.FieldPrefix + strconv.Itoa(i) + d.opts.FieldSuffix
}

// ActivationFor returns the activation set for electrode index i: the
// electrode itself plus its mirror partner on the opposite half of the trap
// axis. Index 0 is the unpaired center electrode and activates alone.
func (d *Driver) ActivationFor(i int) ActivationSet {
	if i > 0 {
		return NewActivationSet(i, i+d.geom.ElectrodePairs)
	}
	return NewActivationSet(i)
}

// Run processes the half-open electrode index range [start, stop).
//
// start == stop selects priming mode: the world is imported, refined and
// solved at all-zero voltages, the solved-world cache is written, and no
// sampling occurs. Otherwise each index in the range is sampled in
// ascending order into its own output file; the first failure aborts the
// remaining indices, leaving already-written files in place.
func (d *Driver) Run(ctx context.Context, start, stop int) error {
	if stop < start {
		return fmt.Errorf("field: invalid electrode range [%d, %d)", start, stop)
	}
	// The solve dominates a cold run; don't start one for a caller that has
	// already given up.
	if err := ctx.Err(); err != nil {
		return err
	}

	if start == stop {
		d.log.Info("priming solve cache", "cache", d.opts.CachePath)
		_, _, err := d.solveWorld()
		return err
	}

	if _, err := os.Stat(d.opts.CachePath); err != nil {
		return fmt.Errorf("%w: %s", ErrCacheNotPrimed, d.opts.CachePath)
	}

	world, electrodes, err := d.solveWorld()
	if err != nil {
		return err
	}

	for i := start; i < stop; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		d.log.Info("starting on electrode", "electrode", i)
		out := d.OutputPath(i)
		if err := d.sample(ctx, world, electrodes, d.ActivationFor(i), i, out); err != nil {
			return fmt.Errorf("field: electrode %d: %w", i, err)
		}
		if d.observer != nil {
			d.observer.OnFileDone(i, out)
		}
	}
	return nil
}

// solveWorld imports the layout, assembles the world and solves it. When
// the cache already exists the solve loads the persisted basis instead of
// factoring the system again.
func (d *Driver) solveWorld() (bem.World, bem.ElectrodeSet, error) {
	electrodes, err := d.solver.ImportLayout(d.opts.LayoutPath)
	if err != nil {
		return nil, nil, err
	}

	world := d.solver.BuildWorld(d.opts.CachePath, d.opts.Mesh)

	for i := 0; i < d.geom.TotalElectrodes(); i++ {
		e, err := electrodes.Find(strconv.Itoa(i))
		if err != nil {
			return nil, nil, err
		}
		world.Insert(e)
	}
	ground, err := electrodes.Find("GROUND")
	if err != nil {
		return nil, nil, err
	}
	world.Insert(ground)

	world.Refine(d.opts.RefineIterations)
	world.CorrectNormals(d.opts.NormalRef.X, d.opts.NormalRef.Y, d.opts.NormalRef.Z)

	d.log.Info("started solving")
	if err := world.Solve(); err != nil {
		return nil, nil, err
	}
	d.log.Info("done solving")

	return world, electrodes, nil
}
