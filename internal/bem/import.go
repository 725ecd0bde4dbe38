package bem

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LayoutElectrode is an electrode imported from the trap layout drawing.
type LayoutElectrode struct {
	name    string
	voltage float64
	panels  []Panel
}

func (e *LayoutElectrode) Name() string         { return e.name }
func (e *LayoutElectrode) Voltage() float64     { return e.voltage }
func (e *LayoutElectrode) SetVoltage(v float64) { e.voltage = v }
func (e *LayoutElectrode) Panels() []Panel      { return e.panels }

// ImportedElectrodes holds the electrodes of one layout file, addressable by
// name. Layout convention: pad electrodes are named by their decimal index
// ("0", "1", ...) and the ground plane is named "GROUND"; each electrode
// lives on the drawing layer of the same name.
type ImportedElectrodes struct {
	byName map[string]*LayoutElectrode
	names  []string
}

func (s *ImportedElectrodes) Find(name string) (Electrode, error) {
	e, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrElectrodeLookup, name)
	}
	return e, nil
}

func (s *ImportedElectrodes) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *ImportedElectrodes) add(layer string, panels []Panel) {
	e, ok := s.byName[layer]
	if !ok {
		e = &LayoutElectrode{name: layer}
		s.byName[layer] = e
		s.names = append(s.names, layer)
	}
	e.panels = append(e.panels, panels...)
}

// importLayout reads the DXF subset the trap drawings use: LWPOLYLINE
// entities in the ENTITIES section, one closed polyline per electrode face,
// layer name identifying the electrode. Every other entity type is skipped.
func importLayout(path string) (*ImportedElectrodes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open layout: %w", ErrLayoutImport, err)
	}
	defer f.Close()

	set := &ImportedElectrodes{byName: make(map[string]*LayoutElectrode)}

	sc := bufio.NewScanner(f)
	section := ""
	var poly *polyline

	// DXF is a flat stream of (group code, value) line pairs.
	for sc.Scan() {
		code := strings.TrimSpace(sc.Text())
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: %s: dangling group code %q", ErrLayoutImport, path, code)
		}
		value := strings.TrimSpace(sc.Text())

		if code == "0" {
			if poly != nil {
				if err := poly.emit(set); err != nil {
					return nil, fmt.Errorf("%w: %s: %v", ErrLayoutImport, path, err)
				}
				poly = nil
			}
			switch value {
			case "SECTION", "ENDSEC":
				section = ""
			case "LWPOLYLINE":
				if section == "ENTITIES" {
					poly = &polyline{}
				}
			}
			continue
		}
		if poly == nil {
			// The first "2" group after SECTION names the section.
			if code == "2" && section == "" {
				section = value
			}
			continue
		}

		switch code {
		case "8":
			poly.layer = value
		case "38":
			z, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: bad elevation %q", ErrLayoutImport, path, value)
			}
			poly.elevation = z
		case "10":
			x, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: bad vertex %q", ErrLayoutImport, path, value)
			}
			poly.xs = append(poly.xs, x)
		case "20":
			y, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: bad vertex %q", ErrLayoutImport, path, value)
			}
			poly.ys = append(poly.ys, y)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLayoutImport, path, err)
	}
	if poly != nil {
		if err := poly.emit(set); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLayoutImport, path, err)
		}
	}

	if len(set.names) == 0 {
		return nil, fmt.Errorf("%w: %s: no electrode polylines found", ErrLayoutImport, path)
	}
	return set, nil
}

type polyline struct {
	layer     string
	elevation float64
	xs, ys    []float64
}

// emit fan-triangulates the polygon into panels on its layer's electrode.
func (p *polyline) emit(set *ImportedElectrodes) error {
	if p.layer == "" {
		return fmt.Errorf("polyline without a layer")
	}
	if len(p.xs) != len(p.ys) || len(p.xs) < 3 {
		return fmt.Errorf("polyline on layer %q has %d/%d coordinates", p.layer, len(p.xs), len(p.ys))
	}

	v := make([]Vec3, len(p.xs))
	for i := range p.xs {
		v[i] = Vec3{X: p.xs[i], Y: p.ys[i], Z: p.elevation}
	}

	panels := make([]Panel, 0, len(v)-2)
	for i := 1; i < len(v)-1; i++ {
		panels = append(panels, NewPanel(v[0], v[i], v[i+1]))
	}
	set.add(p.layer, panels)
	return nil
}
