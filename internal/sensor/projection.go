package sensor

import (
	"fmt"
	"math"

	"github.com/bnema/wayrot/internal/orientation"
)

// AxisMap selects which raw axes become the screen x and y axes.
type AxisMap string

// Supported axis maps
const (
	AxisMapXY AxisMap = "xy"
	AxisMapYX AxisMap = "yx"
	AxisMapZY AxisMap = "zy"
	AxisMapYZ AxisMap = "yz"
	AxisMapXZ AxisMap = "xz"
	AxisMapZX AxisMap = "zx"
)

// ParseAxisMap validates an axis map name. The empty string means xy.
func ParseAxisMap(s string) (AxisMap, error) {
	switch m := AxisMap(s); m {
	case "":
		return AxisMapXY, nil
	case AxisMapXY, AxisMapYX, AxisMapZY, AxisMapYZ, AxisMapXZ, AxisMapZX:
		return m, nil
	}
	return AxisMapXY, fmt.Errorf("unknown axis map %q (want one of xy, yx, zy, yz, xz, zx)", s)
}

// Projection turns raw readings into normalized classifier input.
type Projection struct {
	InvertX bool
	InvertY bool
	InvertZ bool
	AxisMap AxisMap
	// NormalizationFactor divides raw values. Zero or less normalizes by the
	// magnitude of the live 3-axis vector instead.
	NormalizationFactor float64
}

// Project inverts, remaps and normalizes r. It reports false when the
// reading cannot be normalized (zero magnitude).
func (p Projection) Project(r Reading) (orientation.Vector, bool) {
	if p.InvertX {
		r.X = -r.X
	}
	if p.InvertY {
		r.Y = -r.Y
	}
	if p.InvertZ {
		r.Z = -r.Z
	}

	var a, b float64
	switch p.AxisMap {
	case AxisMapYX:
		a, b = r.Y, r.X
	case AxisMapZY:
		a, b = r.Z, r.Y
	case AxisMapYZ:
		a, b = r.Y, r.Z
	case AxisMapXZ:
		a, b = r.X, r.Z
	case AxisMapZX:
		a, b = r.Z, r.X
	default:
		a, b = r.X, r.Y
	}

	norm := p.NormalizationFactor
	if norm <= 0 {
		norm = math.Sqrt(r.X*r.X + r.Y*r.Y + r.Z*r.Z)
		if norm == 0 {
			return orientation.Vector{}, false
		}
	}

	return orientation.Vector{X: a / norm, Y: b / norm}, true
}
