package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wayrot/internal/orientation"
	"github.com/bnema/wayrot/internal/sensor"
)

type nopSource struct{}

func (nopSource) Read() (sensor.Reading, error) { return sensor.Reading{}, nil }

func newTestWatch() *WatchModel {
	return NewWatchModel(nopSource{}, sensor.Projection{NormalizationFactor: 1e6}, 0.5, time.Second, orientation.Normal)
}

func TestWatchClassifiesReadings(t *testing.T) {
	m := newTestWatch()

	_, cmd := m.Update(ReadingMsg{Reading: sensor.Reading{X: -1e6}})
	assert.NotNil(t, cmd)
	assert.Equal(t, orientation.Right90, m.Current())
	assert.Contains(t, m.View(), "right")
	assert.Contains(t, m.View(), "within threshold")

	// Ambiguous reading keeps the previous orientation
	m.Update(ReadingMsg{Reading: sensor.Reading{X: -7e5, Y: -7e5}})
	assert.Equal(t, orientation.Right90, m.Current())
	assert.Contains(t, m.View(), "keeping previous")
}

func TestWatchShowsReadError(t *testing.T) {
	m := newTestWatch()

	m.Update(ReadingMsg{Err: errors.New("permission denied")})
	assert.Contains(t, m.View(), "permission denied")

	m.Update(ReadingMsg{Reading: sensor.Reading{Y: 1e6}})
	assert.NotContains(t, m.View(), "permission denied")
	assert.Equal(t, orientation.Flipped180, m.Current())
}

func TestWatchPause(t *testing.T) {
	m := newTestWatch()

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m.Update(ReadingMsg{Reading: sensor.Reading{X: 1e6}})
	assert.Equal(t, orientation.Normal, m.Current())
	assert.Contains(t, m.View(), "paused")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m.Update(ReadingMsg{Reading: sensor.Reading{X: 1e6}})
	assert.Equal(t, orientation.Left90, m.Current())
}

func TestWatchQuit(t *testing.T) {
	m := newTestWatch()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
