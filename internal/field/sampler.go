package field

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/trapfield/internal/bem"
)

// sample sets the activation voltages on the solved world and walks the
// full grid in canonical order, streaming one potential value per line.
// The file is written to a temporary path and renamed into place only after
// the whole grid evaluated, so a crashed or failed pass never leaves a
// truncated output file behind.
func (d *Driver) sample(ctx context.Context, world bem.World, electrodes bem.ElectrodeSet, act ActivationSet, electrode int, outPath string) error {
	for i := 0; i < d.geom.TotalElectrodes(); i++ {
		e, err := electrodes.Find(strconv.Itoa(i))
		if err != nil {
			return err
		}
		if act.Contains(i) {
			e.SetVoltage(1)
		} else {
			e.SetVoltage(0)
		}
	}
	ground, err := electrodes.Find("GROUND")
	if err != nil {
		return err
	}
	ground.SetVoltage(0)

	dir := filepath.Dir(outPath)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(outPath)+"-*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	d.log.Info("writing potential field", "path", outPath, "active", act.Indices())

	w := bufio.NewWriter(tmp)
	total := d.geom.NumPoints()
	done := 0

	for i := 0; i < d.geom.DimX; i++ {
		if err := ctx.Err(); err != nil {
			tmp.Close()
			return err
		}
		d.log.Info("processing point", "done", i*d.geom.DimY*d.geom.DimZ, "total", total)

		for j := 0; j < d.geom.DimY; j++ {
			for k := 0; k < d.geom.DimZ; k++ {
				x, y, z := d.geom.Point(i, j, k)
				phi := world.Potential(x, y, z)
				done++
				if d.observer != nil {
					d.observer.OnPoint(electrode, done, total, phi)
				}
				if _, err := w.WriteString(strconv.FormatFloat(phi, 'g', -1, 64) + "\n"); err != nil {
					tmp.Close()
					return fmt.Errorf("write output: %w", err)
				}
			}
		}
	}

	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	d.log.Info("finished processing", "path", outPath)
	return nil
}
