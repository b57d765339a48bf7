package core

import "gonum.org/v1/gonum/spatial/r3"

// Point3 is a position or direction in scene space. Y is up.
type Point3 = r3.Vec

// Up is the world up axis.
var Up = Point3{X: 0, Y: 1, Z: 0}

// Pose is the vehicle transform reduced to what the decision core needs.
type Pose struct {
	Position Point3
	Forward  Point3 // unit heading; may carry a small Y component on slopes
}

// Right returns the unit vector to the right of the heading (Up x Forward).
// A degenerate heading returns the zero vector.
func (p Pose) Right() Point3 {
	right := r3.Cross(Up, p.Forward)
	if r3.Norm(right) == 0 {
		return Point3{}
	}
	return r3.Unit(right)
}

// LayerMask filters spatial queries by physics layer.
type LayerMask uint32

// LayerPedestrian is the default layer dynamic pedestrians live on.
const LayerPedestrian LayerMask = 1 << 8

// Has reports whether every bit of other is set in m.
func (m LayerMask) Has(other LayerMask) bool {
	return m&other == other
}
