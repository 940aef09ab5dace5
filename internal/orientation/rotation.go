package orientation

import "fmt"

// Rotation is a relative clockwise rotation by a multiple of 90 degrees.
// Rotations form a cyclic group of order 4 under Add.
type Rotation int

// Relative rotations
const (
	RotateNone Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

// RotationFromDegrees converts clockwise degrees (negative is counter
// clockwise) to a Rotation. Values are taken modulo 360.
func RotationFromDegrees(degrees int) (Rotation, error) {
	d := degrees % 360
	if d%90 != 0 {
		return RotateNone, fmt.Errorf("invalid rotation of %d degrees: multiples of 90 only", d)
	}
	if d < 0 {
		d += 360
	}
	return Rotation(d / 90), nil
}

// Degrees returns the clockwise rotation in degrees.
func (r Rotation) Degrees() int {
	return int(r) * 90
}

// Add composes two rotations.
func (r Rotation) Add(other Rotation) Rotation {
	return Rotation((int(r) + int(other)) % 4)
}

// Between returns the rotation that takes from to to.
func Between(from, to Orientation) Rotation {
	return Rotation(((int(to)-int(from))%4 + 4) % 4)
}
