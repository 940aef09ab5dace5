package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/wayrot/internal/orientation"
	"github.com/bnema/wayrot/internal/sensor"
)

// ReadingMsg carries one accelerometer sample to the watch model.
type ReadingMsg struct {
	Reading sensor.Reading
	Err     error
}

// WatchModel shows live accelerometer readings and their classification
// without rotating anything.
type WatchModel struct {
	source     sensor.Source
	projection sensor.Projection
	classifier orientation.Classifier
	interval   time.Duration

	spinner spinner.Model
	width   int

	reading   sensor.Reading
	vector    orientation.Vector
	valid     bool
	matched   bool
	current   orientation.Orientation
	samples   uint64
	lastError error
	paused    bool
}

// NewWatchModel creates the model. Readings are classified starting from
// initial.
func NewWatchModel(source sensor.Source, projection sensor.Projection, threshold float64, interval time.Duration, initial orientation.Orientation) *WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: SpinnerDot,
		FPS:    time.Second / 10,
	}
	s.Style = SpinnerStyle

	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	return &WatchModel{
		source:     source,
		projection: projection,
		classifier: orientation.NewClassifier(threshold),
		interval:   interval,
		spinner:    s,
		current:    initial,
	}
}

// Init implements tea.Model
func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.read())
}

func (m *WatchModel) read() tea.Cmd {
	source := m.source
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		r, err := source.Read()
		return ReadingMsg{Reading: r, Err: err}
	})
}

// Update implements tea.Model
func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ReadingMsg:
		if !m.paused {
			m.observe(msg)
		}
		return m, m.read()
	}
	return m, nil
}

func (m *WatchModel) observe(msg ReadingMsg) {
	m.samples++
	if msg.Err != nil {
		m.lastError = msg.Err
		return
	}
	m.lastError = nil
	m.reading = msg.Reading
	m.vector, m.valid = m.projection.Project(msg.Reading)
	m.matched = false
	if m.valid {
		_, m.matched = orientation.Match(m.vector, m.classifier.Threshold)
		m.current = m.classifier.Classify(m.vector, m.current)
	}
}

// Current returns the orientation the daemon would apply.
func (m *WatchModel) Current() orientation.Orientation {
	return m.current
}

// View implements tea.Model
func (m *WatchModel) View() string {
	var b strings.Builder

	title := TitleStyle.Render("wayrot watch")
	state := m.spinner.View() + " polling every " + m.interval.String()
	if m.paused {
		state = WarningStyle.Render("paused")
	}
	b.WriteString(title + "  " + SubtleStyle.Render(state) + "\n\n")

	label := lipgloss.NewStyle().Foreground(ColorInfo).Bold(true).Width(13)
	line := func(k, v string) {
		b.WriteString(label.Render(k) + TextStyle.Render(v) + "\n")
	}

	line("Raw", fmt.Sprintf("x=%.0f y=%.0f z=%.0f", m.reading.X, m.reading.Y, m.reading.Z))
	if m.valid {
		line("Vector", fmt.Sprintf("(%.3f, %.3f)", m.vector.X, m.vector.Y))
	} else {
		line("Vector", SubtleStyle.Render("not normalizable"))
	}

	match := SubtleStyle.Render("no match, keeping previous")
	if m.matched {
		match = SuccessStyle.Render("within threshold")
	}
	line("Orientation", BoldStyle.Render(m.current.String())+"  "+match)
	line("Threshold", fmt.Sprintf("%g", m.classifier.Threshold))
	line("Samples", fmt.Sprintf("%d", m.samples))
	if m.lastError != nil {
		line("Error", ErrorStyle.Render(m.lastError.Error()))
	}

	b.WriteString("\n")
	b.WriteString(FormatControl("space", "pause") + "  " + FormatControl("q", "quit"))
	b.WriteString("\n")
	return b.String()
}
