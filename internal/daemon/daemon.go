// Package daemon implements the rotation loop: poll the accelerometer,
// classify the reading, and rotate the display when the orientation changes.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/wayrot/internal/display"
	"github.com/bnema/wayrot/internal/logger"
	"github.com/bnema/wayrot/internal/orientation"
	"github.com/bnema/wayrot/internal/sensor"
	"github.com/bnema/wayrot/internal/wayland"
)

// Options configures a Daemon.
type Options struct {
	Display      string
	PollInterval time.Duration
	Threshold    float64
	Projection   sensor.Projection

	// BeforeHook and AfterHook are shell commands run around each rotation.
	BeforeHook string
	AfterHook  string

	// Oneshot makes Run perform a single cycle.
	Oneshot bool
}

// Status is a snapshot of the daemon state.
type Status struct {
	Display  string
	Backend  string
	Locked   bool
	Oneshot  bool
	Started  time.Time
	LastTick time.Time
	Ticks    uint64

	// Vector is the last projected reading; Valid is false when the
	// reading could not be normalized.
	Vector orientation.Vector
	Valid  bool

	Detected orientation.Orientation
	Applied  orientation.Orientation
	// HasApplied is false until the display orientation is known.
	HasApplied bool
	Rotations  uint64

	Transactions wayland.Stats
	HasStats     bool
}

// Daemon runs the rotation loop. Tick and Run must be called from a single
// goroutine; Status, Lock and Unlock are safe for concurrent use.
type Daemon struct {
	opts       Options
	source     sensor.Source
	backend    display.Backend
	classifier orientation.Classifier
	hook       Hook

	detected   orientation.Orientation
	applied    orientation.Orientation
	hasApplied bool
	// prepared is the orientation the before hook last ran for.
	prepared    orientation.Orientation
	hasPrepared bool

	locked atomic.Bool

	mu     sync.Mutex
	status Status
}

// New creates a daemon and seeds its state with the display's current
// orientation when the backend can report it.
func New(opts Options, source sensor.Source, backend display.Backend, hook Hook) *Daemon {
	if hook == nil {
		hook = ShellHook{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}

	d := &Daemon{
		opts:       opts,
		source:     source,
		backend:    backend,
		classifier: orientation.NewClassifier(opts.Threshold),
		hook:       hook,
	}

	if current, err := backend.Query(); err == nil {
		d.detected = current
		d.applied = current
		d.hasApplied = true
		logger.Infof("Display %s is currently %s", opts.Display, current)
	} else {
		logger.Debugf("Current orientation of %s unknown: %v", opts.Display, err)
	}

	d.status = Status{
		Display:    opts.Display,
		Backend:    string(backend.Name()),
		Oneshot:    opts.Oneshot,
		Started:    time.Now(),
		Detected:   d.detected,
		Applied:    d.applied,
		HasApplied: d.hasApplied,
	}
	d.refreshStats()
	return d
}

// Run polls until ctx is cancelled or a cycle fails. A cancelled context is
// not an error.
func (d *Daemon) Run(ctx context.Context) error {
	logger.Infof("Watching accelerometer every %s for display %s (%s backend)",
		d.opts.PollInterval, d.opts.Display, d.backend.Name())

	if d.opts.Oneshot {
		return d.Tick(ctx)
	}

	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()

	for {
		if err := d.Tick(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			logger.Debug("Rotation loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick performs one poll, classify, compare, apply cycle.
func (d *Daemon) Tick(ctx context.Context) error {
	reading, err := d.source.Read()
	if err != nil {
		return fmt.Errorf("read accelerometer: %w", err)
	}

	vector, ok := d.opts.Projection.Project(reading)
	if ok {
		d.detected = d.classifier.Classify(vector, d.detected)
	}
	d.update(func(s *Status) {
		s.LastTick = time.Now()
		s.Ticks++
		s.Vector = vector
		s.Valid = ok
		s.Detected = d.detected
	})

	if d.locked.Load() {
		return nil
	}
	if d.hasApplied && d.detected == d.applied {
		// A deferred rotation was abandoned; its before hook is stale.
		d.hasPrepared = false
		return nil
	}
	return d.rotate(ctx, d.detected)
}

func (d *Daemon) rotate(ctx context.Context, o orientation.Orientation) error {
	if !d.hasPrepared || d.prepared != o {
		if err := d.runHook(ctx, "before", d.opts.BeforeHook, o); err != nil {
			return err
		}
		d.prepared = o
		d.hasPrepared = true
	}

	if err := d.backend.Apply(o); err != nil {
		if errors.Is(err, wayland.ErrNotReady) {
			logger.Debugf("Rotation to %s deferred: %v", o, err)
			d.refreshStats()
			return nil
		}
		return fmt.Errorf("rotate %s to %s: %w", d.opts.Display, o, err)
	}

	d.applied = o
	d.hasApplied = true
	d.hasPrepared = false
	logger.Infof("Rotated %s to %s", d.opts.Display, o)

	d.update(func(s *Status) {
		s.Applied = o
		s.HasApplied = true
		s.Rotations++
	})
	d.refreshStats()

	return d.runHook(ctx, "after", d.opts.AfterHook, o)
}

func (d *Daemon) runHook(ctx context.Context, stage, command string, o orientation.Orientation) error {
	if command == "" {
		return nil
	}
	logger.Debugf("Running %s hook for %s", stage, o)
	env := []string{
		"WAYROT_ORIENTATION=" + o.String(),
		"WAYROT_DISPLAY=" + d.opts.Display,
	}
	if err := d.hook.Run(ctx, command, env); err != nil {
		return fmt.Errorf("%s hook: %w", stage, err)
	}
	return nil
}

func (d *Daemon) refreshStats() {
	reporter, ok := d.backend.(display.StatsReporter)
	if !ok {
		return
	}
	stats := reporter.Stats()
	d.update(func(s *Status) {
		s.Transactions = stats
		s.HasStats = true
	})
}

func (d *Daemon) update(fn func(s *Status)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.status)
}

// Status returns a copy of the current state.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.status
	s.Locked = d.locked.Load()
	return s
}

// Lock stops the daemon from rotating. Polling continues.
func (d *Daemon) Lock() {
	if !d.locked.Swap(true) {
		logger.Info("Rotation locked")
	}
}

// Unlock resumes rotation on the next cycle.
func (d *Daemon) Unlock() {
	if d.locked.Swap(false) {
		logger.Info("Rotation unlocked")
	}
}

// Locked reports whether rotation is locked.
func (d *Daemon) Locked() bool {
	return d.locked.Load()
}
