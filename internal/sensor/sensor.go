// Package sensor reads the accelerometer exposed by the Linux IIO subsystem
// and projects raw readings onto the 2D vector the orientation classifier
// consumes.
package sensor

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bnema/wayrot/internal/logger"
)

// DefaultGlob matches the raw accelerometer channels of every IIO device.
const DefaultGlob = "/sys/bus/iio/devices/iio:device*/in_accel_*_raw"

// DefaultNormalizationFactor scales raw readings of common 2-in-1 sensors to
// roughly unit length.
const DefaultNormalizationFactor = 1e6

// ErrNoAccelerometer is returned when no device exposes both x and y channels.
var ErrNoAccelerometer = errors.New("no accelerometer found")

// Reading is one raw sample of the three accelerometer axes.
type Reading struct {
	X float64
	Y float64
	Z float64
}

// Source produces raw readings.
type Source interface {
	Read() (Reading, error)
}

// Paths holds the sysfs channel files of one accelerometer. Z is optional.
type Paths struct {
	X string
	Y string
	Z string
}

// Accelerometer reads the raw channel files of an IIO accelerometer.
type Accelerometer struct {
	paths Paths
}

// Discover globs for accelerometer channel files and returns the channels of
// the first device (in path order) that has both an x and a y channel.
func Discover(glob string) (Paths, error) {
	if glob == "" {
		glob = DefaultGlob
	}

	matches, err := filepath.Glob(glob)
	if err != nil {
		return Paths{}, fmt.Errorf("invalid sensor glob %q: %w", glob, err)
	}
	sort.Strings(matches)

	devices := make(map[string]*Paths)
	var order []string
	for _, path := range matches {
		dir := filepath.Dir(path)
		p, ok := devices[dir]
		if !ok {
			p = &Paths{}
			devices[dir] = p
			order = append(order, dir)
		}

		base := filepath.Base(path)
		switch {
		case strings.Contains(base, "x_raw"):
			p.X = path
		case strings.Contains(base, "y_raw"):
			p.Y = path
		case strings.Contains(base, "z_raw"):
			p.Z = path
		default:
			logger.Debugf("Ignoring unknown accelerometer channel %s", path)
		}
	}

	for _, dir := range order {
		p := devices[dir]
		if p.X != "" && p.Y != "" {
			logger.Debug("Found accelerometer", "device", dir, "z", p.Z != "")
			return *p, nil
		}
	}

	return Paths{}, fmt.Errorf("%w matching %s", ErrNoAccelerometer, glob)
}

// Open discovers an accelerometer with glob.
func Open(glob string) (*Accelerometer, error) {
	paths, err := Discover(glob)
	if err != nil {
		return nil, err
	}
	return NewAccelerometer(paths), nil
}

// NewAccelerometer creates a reader for known channel files.
func NewAccelerometer(paths Paths) *Accelerometer {
	return &Accelerometer{paths: paths}
}

// Paths returns the channel files being read.
func (a *Accelerometer) Paths() Paths {
	return a.paths
}

// Read reads all channels. Unparsable channel contents read as 0; a channel
// file that cannot be read is an error.
func (a *Accelerometer) Read() (Reading, error) {
	var r Reading
	var err error

	if r.X, err = readChannel(a.paths.X); err != nil {
		return Reading{}, err
	}
	if r.Y, err = readChannel(a.paths.Y); err != nil {
		return Reading{}, err
	}
	if a.paths.Z != "" {
		if r.Z, err = readChannel(a.paths.Z); err != nil {
			return Reading{}, err
		}
	}
	return r, nil
}

func readChannel(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read accelerometer channel: %w", err)
	}
	return ParseRaw(string(data)), nil
}

// ParseRaw parses a raw channel value, defaulting to 0.
func ParseRaw(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
