package bem

import "math"

// Vec3 is a point or direction in trap coordinates.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Panel is a triangular boundary element. Fields are exported so a solved
// world can be gob-encoded into the cache.
type Panel struct {
	A, B, C Vec3
	Normal  Vec3
}

// NewPanel builds a panel from three corners with the right-hand-rule
// normal.
func NewPanel(a, b, c Vec3) Panel {
	p := Panel{A: a, B: b, C: c}
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Norm(); l > 0 {
		p.Normal = n.Scale(1 / l)
	}
	return p
}

// Centroid returns the panel center, which is also the collocation point.
func (p Panel) Centroid() Vec3 {
	return p.A.Add(p.B).Add(p.C).Scale(1.0 / 3.0)
}

func (p Panel) Area() float64 {
	return 0.5 * p.B.Sub(p.A).Cross(p.C.Sub(p.A)).Norm()
}

// Radius is the radius of the disc with the same area, used for the
// self-influence term.
func (p Panel) Radius() float64 {
	return math.Sqrt(p.Area() / math.Pi)
}

// Split subdivides the panel into four similar triangles at edge midpoints.
func (p Panel) Split() [4]Panel {
	ab := p.A.Add(p.B).Scale(0.5)
	bc := p.B.Add(p.C).Scale(0.5)
	ca := p.C.Add(p.A).Scale(0.5)
	return [4]Panel{
		NewPanel(p.A, ab, ca),
		NewPanel(ab, p.B, bc),
		NewPanel(ca, bc, p.C),
		NewPanel(ab, bc, ca),
	}
}

// FlipToward orients the normal to face the reference point.
func (p *Panel) FlipToward(ref Vec3) {
	if p.Normal.Dot(ref.Sub(p.Centroid())) < 0 {
		p.B, p.C = p.C, p.B
		p.Normal = p.Normal.Scale(-1)
	}
}
