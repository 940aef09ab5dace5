package orientation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCanonicalVectors(t *testing.T) {
	for _, e := range Table {
		for _, prev := range All() {
			got := Classify(e.Vector, DefaultThreshold, prev)
			assert.Equal(t, e.Orientation, got, "vector %+v prev %s", e.Vector, prev)
		}
	}
}

func TestClassifyNearVectors(t *testing.T) {
	tests := []struct {
		name string
		v    Vector
		want Orientation
	}{
		{"slightly tilted normal", Vector{X: 0.2, Y: -0.9}, Normal},
		{"slightly tilted upside down", Vector{X: -0.1, Y: 0.95}, Flipped180},
		{"right side up", Vector{X: -0.85, Y: 0.1}, Right90},
		{"left side up", Vector{X: 0.9, Y: -0.2}, Left90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.v, DefaultThreshold, Normal))
		})
	}
}

func TestClassifyRetainsPrevious(t *testing.T) {
	// Flat on a table: nothing is within threshold.
	flat := Vector{X: 0, Y: 0}
	for _, prev := range All() {
		assert.Equal(t, prev, Classify(flat, DefaultThreshold, prev))
	}

	// Diagonal reading between two entries, outside the default threshold.
	diag := Vector{X: 0.7, Y: -0.7}
	assert.Equal(t, Flipped180, Classify(diag, DefaultThreshold, Flipped180))
}

func TestClassifyTieBreakByTableOrder(t *testing.T) {
	tests := []struct {
		name      string
		v         Vector
		threshold float64
		want      Orientation
	}{
		// Equidistant from Normal and Left90: Normal comes first.
		{"normal vs left", Vector{X: 0.5, Y: -0.5}, 0.8, Normal},
		// Equidistant from Flipped180 and Right90: Flipped180 comes first.
		{"flipped vs right", Vector{X: -0.5, Y: 0.5}, 0.8, Flipped180},
		// Equidistant from Normal and Right90.
		{"normal vs right", Vector{X: -0.5, Y: -0.5}, 0.8, Normal},
		// Equidistant from Flipped180 and Left90.
		{"flipped vs left", Vector{X: 0.5, Y: 0.5}, 0.8, Flipped180},
		// Right90 is closer, but Normal is within threshold and earlier.
		{"earlier beats closer", Vector{X: -0.6, Y: -0.3}, 1.0, Normal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.v, tt.threshold, Left90))
		})
	}
}

func TestClassifyIdempotent(t *testing.T) {
	vectors := []Vector{
		{X: 0, Y: -1}, {X: -1, Y: 0}, {X: 0.3, Y: 0.8}, {X: 0.1, Y: 0.1},
	}
	for _, v := range vectors {
		first := Classify(v, DefaultThreshold, Normal)
		second := Classify(v, DefaultThreshold, first)
		assert.Equal(t, first, second, "vector %+v", v)
	}
}

func TestThresholdIsStrict(t *testing.T) {
	// Distance exactly equal to the threshold does not match.
	_, ok := Match(Vector{X: 0, Y: -0.5}, 0.5)
	assert.False(t, ok)

	o, ok := Match(Vector{X: 0, Y: -0.51}, 0.5)
	assert.True(t, ok)
	assert.Equal(t, Normal, o)
}

func TestNewClassifierDefault(t *testing.T) {
	assert.Equal(t, DefaultThreshold, NewClassifier(0).Threshold)
	assert.Equal(t, 0.3, NewClassifier(0.3).Threshold)

	c := NewClassifier(0.5)
	assert.Equal(t, Right90, c.Classify(Vector{X: -1, Y: 0}, Normal))
}
