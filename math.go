package mtdesign

import (
	"fmt"
	"math"

	"github.com/gonum/floats"
)

// Vec3 is a fixed 3-component vector in the heliocentric inertial frame,
// expressed in canonical units. The planar problem uses X and Y and keeps
// Z at zero.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean norm.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns s * v.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{s * v.X, s * v.Y, s * v.Z}
}

// Dot returns the inner product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns v x w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{v.Y*w.Z - v.Z*w.Y, v.Z*w.X - v.X*w.Z, v.X*w.Y - v.Y*w.X}
}

// Unit returns the unit vector of v, or the zero vector for a nil input.
func (v Vec3) Unit() Vec3 {
	n := v.Norm()
	if floats.EqualWithinAbs(n, 0, 1e-12) {
		return Vec3{}
	}
	return v.Scale(1 / n)
}

// Axis returns the requested component of v.
func (v Vec3) Axis(ax Axis) float64 {
	switch ax {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	case AxisZ:
		return v.Z
	}
	panic(fmt.Errorf("unknown axis %d", ax))
}

// SetAxis returns a copy of v with the requested component replaced.
func (v Vec3) SetAxis(ax Axis, val float64) Vec3 {
	switch ax {
	case AxisX:
		v.X = val
	case AxisY:
		v.Y = val
	case AxisZ:
		v.Z = val
	default:
		panic(fmt.Errorf("unknown axis %d", ax))
	}
	return v
}

// Axis designates one controlled axis of the inertial frame.
type Axis uint8

// The three inertial axes.
const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (ax Axis) String() string {
	switch ax {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	panic("cannot stringify unknown axis")
}

// State is a position and velocity pair in canonical units. States are
// values: each propagation step returns a fresh one and never aliases its
// input.
type State struct {
	R Vec3 // position (DU)
	V Vec3 // velocity (DU/TU)
}

// RNorm returns the heliocentric distance of the state.
func (s State) RNorm() float64 {
	return s.R.Norm()
}

// VNorm returns the speed of the state.
func (s State) VNorm() float64 {
	return s.V.Norm()
}

// DistanceTo returns the positional separation between two states.
func (s State) DistanceTo(o State) float64 {
	return s.R.Sub(o.R).Norm()
}

func (s State) String() string {
	return fmt.Sprintf("R=(%.6f, %.6f, %.6f) V=(%.6f, %.6f, %.6f)", s.R.X, s.R.Y, s.R.Z, s.V.X, s.V.Y, s.V.Z)
}

// signOrZero returns the sign of v, treating near-zero as zero. This is the
// switching decision of the bang-bang law: a value inside the deadband
// commands no thrust.
func signOrZero(v float64) float64 {
	if floats.EqualWithinAbs(v, 0, 1e-9) {
		return 0
	}
	if v > 0 {
		return 1
	}
	return -1
}
