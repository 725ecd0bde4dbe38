package bem

import (
	"math"
	"testing"
)

func TestPanelGeometry(t *testing.T) {
	p := NewPanel(Vec3{0, 0, 0}, Vec3{1, 0, 0}, Vec3{0, 1, 0})

	if a := p.Area(); math.Abs(a-0.5) > 1e-12 {
		t.Errorf("expected area 0.5, got %g", a)
	}

	c := p.Centroid()
	if math.Abs(c.X-1.0/3) > 1e-12 || math.Abs(c.Y-1.0/3) > 1e-12 || c.Z != 0 {
		t.Errorf("unexpected centroid %+v", c)
	}

	if p.Normal.Z != 1 {
		t.Errorf("expected +z normal, got %+v", p.Normal)
	}
}

func TestPanelSplitConservesArea(t *testing.T) {
	p := NewPanel(Vec3{0, 0, 0}, Vec3{2, 0, 0}, Vec3{0.5, 1.5, 0})

	total := 0.0
	for _, c := range p.Split() {
		total += c.Area()
	}
	if math.Abs(total-p.Area()) > 1e-12 {
		t.Errorf("split area %g does not match parent %g", total, p.Area())
	}
}

func TestPanelFlipToward(t *testing.T) {
	p := NewPanel(Vec3{0, 0, 0}, Vec3{1, 0, 0}, Vec3{0, 1, 0})

	p.FlipToward(Vec3{0, 0, -5})
	if p.Normal.Z != -1 {
		t.Errorf("expected flipped normal, got %+v", p.Normal)
	}

	// Already facing the reference point: no change.
	before := p.Normal
	p.FlipToward(Vec3{0, 0, -5})
	if p.Normal != before {
		t.Errorf("normal changed on aligned flip: %+v", p.Normal)
	}
}
