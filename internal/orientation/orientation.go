// Package orientation defines the four canonical screen orientations, the
// encodings each display backend needs for them, and the classifier that maps
// an accelerometer reading onto one of them.
package orientation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsupportedTransform is returned for live transforms with no canonical
// orientation (the flipped variants).
var ErrUnsupportedTransform = errors.New("transform has no canonical orientation")

// Orientation is one of the four canonical screen rotations.
// The numeric value is the number of clockwise quarter turns from Normal.
type Orientation int

// Canonical orientations
const (
	Normal     Orientation = iota // No rotation
	Right90                       // Screen top points right
	Flipped180                    // Upside down
	Left90                        // Screen top points left
)

// Transform is the compositor transform code for an output (wl_output.transform).
type Transform int32

// Transform constants for output rotation and flipping
const (
	TransformNormal     Transform = iota // No transformation
	Transform90                          // 90 degree rotation
	Transform180                         // 180 degree rotation
	Transform270                         // 270 degree rotation
	TransformFlipped                     // Horizontal flip
	TransformFlipped90                   // Horizontal flip + 90 degree rotation
	TransformFlipped180                  // Horizontal flip + 180 degree rotation
	TransformFlipped270                  // Horizontal flip + 270 degree rotation
)

// Matrix is a row-major 3x3 coordinate transformation matrix for absolute
// pointing devices (touchscreens, digitizers).
type Matrix [9]int

// Vector is a normalized 2D projection of the gravity vector.
type Vector struct {
	X float64
	Y float64
}

// Entry binds an orientation to its canonical gravity vector and to every
// backend encoding of it.
type Entry struct {
	Orientation Orientation
	Vector      Vector
	Transform   Transform
	XRandR      string
	Matrix      Matrix
}

// Table is the fixed, ordered orientation table. The classifier scans it
// front to back, so the order is part of its observable behavior.
var Table = [4]Entry{
	{
		Orientation: Normal,
		Vector:      Vector{X: 0, Y: -1},
		Transform:   TransformNormal,
		XRandR:      "normal",
		Matrix:      Matrix{1, 0, 0, 0, 1, 0, 0, 0, 1},
	},
	{
		Orientation: Flipped180,
		Vector:      Vector{X: 0, Y: 1},
		Transform:   Transform180,
		XRandR:      "inverted",
		Matrix:      Matrix{-1, 0, 1, 0, -1, 1, 0, 0, 1},
	},
	{
		Orientation: Right90,
		Vector:      Vector{X: -1, Y: 0},
		Transform:   Transform90,
		XRandR:      "right",
		Matrix:      Matrix{0, 1, 0, -1, 0, 1, 0, 0, 1},
	},
	{
		Orientation: Left90,
		Vector:      Vector{X: 1, Y: 0},
		Transform:   Transform270,
		XRandR:      "left",
		Matrix:      Matrix{0, -1, 1, 1, 0, 0, 0, 0, 1},
	},
}

// All returns the orientations in rotation order (0, 90, 180, 270 degrees).
func All() []Orientation {
	return []Orientation{Normal, Right90, Flipped180, Left90}
}

func (o Orientation) entry() Entry {
	for _, e := range Table {
		if e.Orientation == o {
			return e
		}
	}
	panic(fmt.Sprintf("orientation: invalid orientation %d", int(o)))
}

// Valid reports whether o is one of the four canonical orientations.
func (o Orientation) Valid() bool {
	return o >= Normal && o <= Left90
}

// Vector returns the canonical gravity vector of the orientation.
func (o Orientation) Vector() Vector {
	return o.entry().Vector
}

// Transform returns the compositor transform code.
func (o Orientation) Transform() Transform {
	return o.entry().Transform
}

// XRandR returns the xrandr rotation label.
func (o Orientation) XRandR() string {
	return o.entry().XRandR
}

// Matrix returns the touch coordinate transformation matrix.
func (o Orientation) Matrix() Matrix {
	return o.entry().Matrix
}

// Degrees returns the clockwise rotation in degrees.
func (o Orientation) Degrees() int {
	return int(o) * 90
}

// Rotate returns the orientation reached by applying r to o.
func (o Orientation) Rotate(r Rotation) Orientation {
	return Orientation((int(o) + int(r)) % 4)
}

// String returns a string representation of the orientation
func (o Orientation) String() string {
	switch o {
	case Normal:
		return "normal"
	case Right90:
		return "right"
	case Flipped180:
		return "flipped"
	case Left90:
		return "left"
	default:
		return "unknown"
	}
}

// Parse accepts an orientation name, an xrandr label or a degree value.
func Parse(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal", "0":
		return Normal, nil
	case "right", "right90", "90":
		return Right90, nil
	case "flipped", "inverted", "flipped180", "180":
		return Flipped180, nil
	case "left", "left90", "270":
		return Left90, nil
	}
	return Normal, fmt.Errorf("unknown orientation %q", s)
}

// FromTransform maps a compositor transform code back to an orientation.
// Flipped transforms have no canonical orientation.
func FromTransform(t Transform) (Orientation, bool) {
	for _, e := range Table {
		if e.Transform == t {
			return e.Orientation, true
		}
	}
	return Normal, false
}

// FromXRandR maps an xrandr rotation label to an orientation.
func FromXRandR(label string) (Orientation, bool) {
	label = strings.TrimSpace(label)
	for _, e := range Table {
		if e.XRandR == label {
			return e.Orientation, true
		}
	}
	return Normal, false
}

// Index returns the numeric transform index used by compositor keyword
// settings (0-7).
func (t Transform) Index() int {
	return int(t)
}

// Valid reports whether t is a defined transform code.
func (t Transform) Valid() bool {
	return t >= TransformNormal && t <= TransformFlipped270
}

// String returns a string representation of the transform
func (t Transform) String() string {
	switch t {
	case TransformNormal:
		return "normal"
	case Transform90:
		return "90"
	case Transform180:
		return "180"
	case Transform270:
		return "270"
	case TransformFlipped:
		return "flipped"
	case TransformFlipped90:
		return "flipped-90"
	case TransformFlipped180:
		return "flipped-180"
	case TransformFlipped270:
		return "flipped-270"
	default:
		return "unknown"
	}
}

// ParseTransform parses a transform label as printed by compositors
// ("normal", "90", "flipped-270", ...).
func ParseTransform(s string) (Transform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t := TransformNormal; t <= TransformFlipped270; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return TransformNormal, fmt.Errorf("unknown transform %q", s)
}

// Args renders the matrix as xinput arguments.
func (m Matrix) Args() []string {
	args := make([]string, len(m))
	for i, v := range m {
		args[i] = strconv.Itoa(v)
	}
	return args
}
