package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/trapfield/internal/bem"
	"github.com/san-kum/trapfield/internal/config"
	"github.com/san-kum/trapfield/internal/equilibrium"
	"github.com/san-kum/trapfield/internal/field"
	"github.com/san-kum/trapfield/internal/grid"
	"github.com/san-kum/trapfield/internal/viz"
)

var (
	configFile  string
	gridFile    string
	layoutFile  string
	cacheFile   string
	fieldPrefix string
	fieldSuffix string
	refineIters int
	maxPanels   int
	tolerance   float64
	// Analysis parameters
	fitDegree int
	ionCount  int
	coulomb   float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trapfield",
		Short: "surface-electrode trap potential toolkit",
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&gridFile, "grid", config.DefaultGridFile, "grid description file")
	pf.StringVar(&layoutFile, "layout", config.DefaultLayoutFile, "trap layout drawing")
	pf.StringVar(&cacheFile, "cache", config.DefaultCacheFile, "solved-world cache path")
	pf.StringVar(&fieldPrefix, "prefix", config.DefaultFieldPrefix, "output file prefix")
	pf.StringVar(&fieldSuffix, "suffix", config.DefaultFieldSuffix, "output file suffix")
	pf.IntVar(&refineIters, "refine", config.DefaultRefine, "mesh refinement iterations")
	pf.IntVar(&maxPanels, "max-panels", config.DefaultMaxPanels, "panel count cap")
	pf.Float64Var(&tolerance, "tolerance", config.DefaultTolerance, "solve tolerance")

	runCmd := &cobra.Command{
		Use:   "run [start] [stop]",
		Short: "process electrode indices [start, stop); start == stop primes the cache",
		Args:  cobra.ExactArgs(2),
		RunE:  runRange,
	}

	primeCmd := &cobra.Command{
		Use:   "prime",
		Short: "solve the zero-voltage world and write the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDriver(cmd)
			if err != nil {
				return err
			}
			return d.Run(context.Background(), 0, 0)
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live [start] [stop]",
		Short: "sample with a live progress view",
		Args:  cobra.ExactArgs(2),
		RunE:  runLive,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [index]",
		Short: "plot the axial potential of a computed field",
		Args:  cobra.ExactArgs(1),
		RunE:  plotField,
	}

	fitCmd := &cobra.Command{
		Use:   "fit [index]",
		Short: "fit a polynomial to the axial potential",
		Args:  cobra.ExactArgs(1),
		RunE:  fitField,
	}
	fitCmd.Flags().IntVar(&fitDegree, "degree", config.DefaultFitDegree, "polynomial degree")

	equilibriumCmd := &cobra.Command{
		Use:   "equilibrium [index]",
		Short: "compute ion equilibrium positions from a computed field",
		Args:  cobra.ExactArgs(1),
		RunE:  equilibriumPositions,
	}
	equilibriumCmd.Flags().IntVar(&fitDegree, "degree", config.DefaultFitDegree, "polynomial degree")
	equilibriumCmd.Flags().IntVar(&ionCount, "ions", config.DefaultIons, "number of ions")
	equilibriumCmd.Flags().Float64Var(&coulomb, "coulomb", config.DefaultCoulomb, "pairwise repulsion coefficient")

	layoutCmd := &cobra.Command{
		Use:   "layout",
		Short: "list electrodes in the trap layout",
		Args:  cobra.NoArgs,
		RunE:  listLayout,
	}

	gridCmd := &cobra.Command{
		Use:   "grid",
		Short: "show the parsed grid geometry",
		Args:  cobra.NoArgs,
		RunE:  showGrid,
	}

	rootCmd.AddCommand(runCmd, primeCmd, liveCmd, plotCmd, fitCmd, equilibriumCmd, layoutCmd, gridCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges the optional config file with any flags the user set;
// flags win.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	pf := cmd.Root().PersistentFlags()
	if pf.Changed("grid") {
		cfg.GridFile = gridFile
	}
	if pf.Changed("layout") {
		cfg.LayoutFile = layoutFile
	}
	if pf.Changed("cache") {
		cfg.CacheFile = cacheFile
	}
	if pf.Changed("prefix") {
		cfg.FieldPrefix = fieldPrefix
	}
	if pf.Changed("suffix") {
		cfg.FieldSuffix = fieldSuffix
	}
	if pf.Changed("refine") {
		cfg.Mesh.RefineIterations = refineIters
	}
	if pf.Changed("max-panels") {
		cfg.Mesh.MaxPanels = maxPanels
	}
	if pf.Changed("tolerance") {
		cfg.Mesh.Tolerance = tolerance
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func buildDriver(cmd *cobra.Command) (*field.Driver, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	geom, err := grid.Load(cfg.GridFile)
	if err != nil {
		return nil, err
	}

	log := newLogger()
	solver := bem.NewPanelSolver(log)
	opts := field.Options{
		LayoutPath:       cfg.LayoutFile,
		CachePath:        cfg.CacheFile,
		FieldPrefix:      cfg.FieldPrefix,
		FieldSuffix:      cfg.FieldSuffix,
		RefineIterations: cfg.Mesh.RefineIterations,
		Mesh: bem.MeshParams{
			Tolerance: cfg.Mesh.Tolerance,
			MaxPanels: cfg.Mesh.MaxPanels,
		},
		NormalRef: bem.Vec3{
			X: cfg.Mesh.NormalRef[0],
			Y: cfg.Mesh.NormalRef[1],
			Z: cfg.Mesh.NormalRef[2],
		},
	}
	return field.New(geom, solver, opts, log), nil
}

func parseRange(args []string) (int, int, error) {
	start, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad start index %q", args[0])
	}
	stop, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad stop index %q", args[1])
	}
	return start, stop, nil
}

func runRange(cmd *cobra.Command, args []string) error {
	start, stop, err := parseRange(args)
	if err != nil {
		return err
	}

	d, err := buildDriver(cmd)
	if err != nil {
		return err
	}
	return d.Run(context.Background(), start, stop)
}

func runLive(cmd *cobra.Command, args []string) error {
	start, stop, err := parseRange(args)
	if err != nil {
		return err
	}

	d, err := buildDriver(cmd)
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewModel())
	d.SetObserver(viz.NewObserver(p, d.Geometry().NumPoints()))

	return viz.RunWithProgram(p, func(ctx context.Context) error {
		return d.Run(ctx, start, stop)
	})
}

// loadFieldForIndex resolves the geometry and the field file of one
// electrode index.
func loadFieldForIndex(cmd *cobra.Command, arg string) (*field.Field, *config.Config, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil {
		return nil, nil, fmt.Errorf("bad electrode index %q", arg)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	geom, err := grid.Load(cfg.GridFile)
	if err != nil {
		return nil, nil, err
	}

	path := cfg.FieldPrefix + strconv.Itoa(idx) + cfg.FieldSuffix
	f, err := field.LoadField(path, geom)
	if err != nil {
		return nil, nil, err
	}
	return f, cfg, nil
}

func plotField(cmd *cobra.Command, args []string) error {
	f, _, err := loadFieldForIndex(cmd, args[0])
	if err != nil {
		return err
	}

	j := f.Geom.DimY / 2
	k := f.Geom.DimZ / 2
	data := f.AxialSlice(j, k)

	fmt.Printf("axial potential, transverse midpoint (%d, %d)\n", j, k)
	fmt.Printf("x range: [%g, %g], %d samples\n\n", f.Geom.StartX, f.Geom.EndX, f.Geom.DimX)

	graph := asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("potential vs x"),
	)
	fmt.Println(graph)
	return nil
}

func fitField(cmd *cobra.Command, args []string) error {
	f, cfg, err := loadFieldForIndex(cmd, args[0])
	if err != nil {
		return err
	}

	degree := cfg.Fit.Degree
	if cmd.Flags().Changed("degree") {
		degree = fitDegree
	}

	p, err := equilibrium.FitAxial(f, degree)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEGREE\tCOEFFICIENT")
	for d, c := range p {
		fmt.Fprintf(w, "%d\t%.6e\n", d, c)
	}
	return w.Flush()
}

func equilibriumPositions(cmd *cobra.Command, args []string) error {
	f, cfg, err := loadFieldForIndex(cmd, args[0])
	if err != nil {
		return err
	}

	degree := cfg.Fit.Degree
	ions := cfg.Ions.Count
	rep := cfg.Ions.Coulomb
	if cmd.Flags().Changed("degree") {
		degree = fitDegree
	}
	if cmd.Flags().Changed("ions") {
		ions = ionCount
	}
	if cmd.Flags().Changed("coulomb") {
		rep = coulomb
	}

	p, err := equilibrium.FitAxial(f, degree)
	if err != nil {
		return err
	}

	span := [2]float64{f.Geom.StartX, f.Geom.EndX}
	xs, err := equilibrium.Positions(p.Eval, span, equilibrium.Options{Ions: ions, Coulomb: rep})
	if err != nil {
		return err
	}

	fmt.Printf("equilibrium positions for %d ions:\n", ions)
	for i, x := range xs {
		fmt.Printf("  ion %d: %.6f\n", i, x)
	}
	return nil
}

func listLayout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	solver := bem.NewPanelSolver(newLogger())
	set, err := solver.ImportLayout(cfg.LayoutFile)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ELECTRODE\tPANELS")
	for _, name := range set.Names() {
		e, err := set.Find(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\n", name, len(e.Panels()))
	}
	return w.Flush()
}

func showGrid(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	g, err := grid.Load(cfg.GridFile)
	if err != nil {
		return err
	}

	sx, sy, sz := g.Steps()
	fmt.Printf("electrode pairs: %d (%d addressable electrodes)\n", g.ElectrodePairs, g.TotalElectrodes())
	fmt.Printf("grid: %d x %d x %d (%d points)\n", g.DimX, g.DimY, g.DimZ, g.NumPoints())
	fmt.Printf("x: [%g, %g] step %g\n", g.StartX, g.EndX, sx)
	fmt.Printf("y: [%g, %g] step %g\n", g.StartY, g.EndY, sy)
	fmt.Printf("z: [%g, %g] step %g\n", g.StartZ, g.EndZ, sz)
	return nil
}
