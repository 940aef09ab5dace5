package orientation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableOrder(t *testing.T) {
	// The classifier scans in this order; changing it changes results for
	// boundary readings.
	want := []Orientation{Normal, Flipped180, Right90, Left90}
	for i, e := range Table {
		assert.Equal(t, want[i], e.Orientation, "table position %d", i)
	}
}

func TestEncodings(t *testing.T) {
	tests := []struct {
		o         Orientation
		transform Transform
		xrandr    string
		matrix    Matrix
		degrees   int
	}{
		{Normal, TransformNormal, "normal", Matrix{1, 0, 0, 0, 1, 0, 0, 0, 1}, 0},
		{Right90, Transform90, "right", Matrix{0, 1, 0, -1, 0, 1, 0, 0, 1}, 90},
		{Flipped180, Transform180, "inverted", Matrix{-1, 0, 1, 0, -1, 1, 0, 0, 1}, 180},
		{Left90, Transform270, "left", Matrix{0, -1, 1, 1, 0, 0, 0, 0, 1}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.o.String(), func(t *testing.T) {
			assert.Equal(t, tt.transform, tt.o.Transform())
			assert.Equal(t, tt.xrandr, tt.o.XRandR())
			assert.Equal(t, tt.matrix, tt.o.Matrix())
			assert.Equal(t, tt.degrees, tt.o.Degrees())

			back, ok := FromTransform(tt.transform)
			require.True(t, ok)
			assert.Equal(t, tt.o, back)

			back, ok = FromXRandR(tt.xrandr)
			require.True(t, ok)
			assert.Equal(t, tt.o, back)
		})
	}
}

func TestTransformIndex(t *testing.T) {
	assert.Equal(t, 0, Normal.Transform().Index())
	assert.Equal(t, 1, Right90.Transform().Index())
	assert.Equal(t, 2, Flipped180.Transform().Index())
	assert.Equal(t, 3, Left90.Transform().Index())

	_, ok := FromTransform(TransformFlipped90)
	assert.False(t, ok, "flipped transforms have no canonical orientation")
}

func TestParseTransform(t *testing.T) {
	for tr := TransformNormal; tr <= TransformFlipped270; tr++ {
		got, err := ParseTransform(tr.String())
		require.NoError(t, err)
		assert.Equal(t, tr, got)
	}

	_, err := ParseTransform("sideways")
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	tests := map[string]Orientation{
		"normal":   Normal,
		"0":        Normal,
		"right":    Right90,
		"90":       Right90,
		"inverted": Flipped180,
		"flipped":  Flipped180,
		"LEFT":     Left90,
		"270":      Left90,
	}
	for in, want := range tests {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := Parse("diagonal")
	assert.Error(t, err)
}

func TestMatrixArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"0", "1", "0", "-1", "0", "1", "0", "0", "1"},
		Right90.Matrix().Args())
}
