package daemon

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wayrot/internal/display"
	"github.com/bnema/wayrot/internal/orientation"
	"github.com/bnema/wayrot/internal/sensor"
	"github.com/bnema/wayrot/internal/wayland"
)

var (
	upright  = sensor.Reading{X: 0, Y: -1e6}
	rightUp  = sensor.Reading{X: -1e6, Y: 0}
	leftUp   = sensor.Reading{X: 1e6, Y: 0}
	flatDown = sensor.Reading{X: 0, Y: 0, Z: 0}
)

type fakeSource struct {
	readings []sensor.Reading
	err      error
}

func (s *fakeSource) Read() (sensor.Reading, error) {
	if s.err != nil {
		return sensor.Reading{}, s.err
	}
	if len(s.readings) == 0 {
		return sensor.Reading{}, errors.New("no more readings")
	}
	r := s.readings[0]
	if len(s.readings) > 1 {
		s.readings = s.readings[1:]
	}
	return r, nil
}

type fakeBackend struct {
	current    orientation.Orientation
	queryErr   error
	applyErrs  []error
	applied    []orientation.Orientation
	calls      int
	stats      *wayland.Stats
	closeCalls int
}

func (b *fakeBackend) Name() display.Kind { return display.KindWlroots }

func (b *fakeBackend) Apply(o orientation.Orientation) error {
	b.calls++
	if len(b.applyErrs) > 0 {
		err := b.applyErrs[0]
		b.applyErrs = b.applyErrs[1:]
		if err != nil {
			return err
		}
	}
	b.applied = append(b.applied, o)
	b.current = o
	if b.stats != nil {
		b.stats.Submitted++
	}
	return nil
}

func (b *fakeBackend) Query() (orientation.Orientation, error) {
	return b.current, b.queryErr
}

func (b *fakeBackend) Outputs() ([]display.Output, error) { return nil, nil }

func (b *fakeBackend) Close() error {
	b.closeCalls++
	return nil
}

type statsBackend struct {
	*fakeBackend
}

func (b statsBackend) Stats() wayland.Stats { return *b.stats }

type hookCall struct {
	command string
	env     []string
}

type fakeHook struct {
	calls []hookCall
	err   error
}

func (h *fakeHook) Run(_ context.Context, command string, env []string) error {
	h.calls = append(h.calls, hookCall{command: command, env: env})
	return h.err
}

func testOptions() Options {
	return Options{
		Display:   "eDP-1",
		Threshold: 0.5,
		Projection: sensor.Projection{
			AxisMap:             sensor.AxisMapXY,
			NormalizationFactor: 1e6,
		},
	}
}

func unknownBackend() *fakeBackend {
	return &fakeBackend{queryErr: wayland.ErrNoTransform}
}

func TestIdenticalReadingsApplyOnce(t *testing.T) {
	backend := unknownBackend()
	d := New(testOptions(), &fakeSource{readings: []sensor.Reading{upright, upright}}, backend, &fakeHook{})

	require.NoError(t, d.Tick(context.Background()))
	require.NoError(t, d.Tick(context.Background()))

	assert.Equal(t, []orientation.Orientation{orientation.Normal}, backend.applied)
	assert.Equal(t, uint64(1), d.Status().Rotations)
}

func TestSeededOrientationSkipsApply(t *testing.T) {
	backend := &fakeBackend{current: orientation.Right90}
	d := New(testOptions(), &fakeSource{readings: []sensor.Reading{rightUp}}, backend, &fakeHook{})

	require.NoError(t, d.Tick(context.Background()))

	assert.Empty(t, backend.applied)
	st := d.Status()
	assert.True(t, st.HasApplied)
	assert.Equal(t, orientation.Right90, st.Applied)
}

func TestRotationFollowsReadings(t *testing.T) {
	backend := &fakeBackend{current: orientation.Normal}
	source := &fakeSource{readings: []sensor.Reading{upright, rightUp, rightUp, leftUp}}
	d := New(testOptions(), source, backend, &fakeHook{})

	for i := 0; i < 4; i++ {
		require.NoError(t, d.Tick(context.Background()))
	}

	assert.Equal(t, []orientation.Orientation{orientation.Right90, orientation.Left90}, backend.applied)
	st := d.Status()
	assert.Equal(t, uint64(4), st.Ticks)
	assert.Equal(t, orientation.Left90, st.Detected)
	assert.Equal(t, orientation.Left90, st.Applied)
}

func TestUnclassifiableReadingKeepsOrientation(t *testing.T) {
	opts := testOptions()
	opts.Projection.NormalizationFactor = 0
	backend := &fakeBackend{current: orientation.Left90}
	d := New(opts, &fakeSource{readings: []sensor.Reading{flatDown}}, backend, &fakeHook{})

	require.NoError(t, d.Tick(context.Background()))

	assert.Empty(t, backend.applied)
	st := d.Status()
	assert.False(t, st.Valid)
	assert.Equal(t, orientation.Left90, st.Detected)
}

func TestLockSuspendsRotation(t *testing.T) {
	backend := &fakeBackend{current: orientation.Normal}
	d := New(testOptions(), &fakeSource{readings: []sensor.Reading{rightUp}}, backend, &fakeHook{})

	d.Lock()
	require.NoError(t, d.Tick(context.Background()))
	assert.Empty(t, backend.applied)
	assert.True(t, d.Status().Locked)
	assert.Equal(t, orientation.Right90, d.Status().Detected)

	d.Unlock()
	require.NoError(t, d.Tick(context.Background()))
	assert.Equal(t, []orientation.Orientation{orientation.Right90}, backend.applied)
	assert.False(t, d.Locked())
}

func TestNotReadyIsRetried(t *testing.T) {
	backend := unknownBackend()
	backend.applyErrs = []error{wayland.ErrNoSerial, wayland.ErrTransactionPending, nil}
	hook := &fakeHook{}
	opts := testOptions()
	opts.BeforeHook = "before"
	opts.AfterHook = "after"
	d := New(opts, &fakeSource{readings: []sensor.Reading{rightUp}}, backend, hook)

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Tick(context.Background()))
	}

	assert.Equal(t, 3, backend.calls)
	assert.Equal(t, []orientation.Orientation{orientation.Right90}, backend.applied)
	require.Len(t, hook.calls, 2)
	assert.Equal(t, "before", hook.calls[0].command)
	assert.Equal(t, "after", hook.calls[1].command)
}

func TestAbandonedRotationRerunsBeforeHook(t *testing.T) {
	backend := &fakeBackend{current: orientation.Normal}
	backend.applyErrs = []error{wayland.ErrNoSerial, nil}
	hook := &fakeHook{}
	opts := testOptions()
	opts.BeforeHook = "before"
	opts.AfterHook = "after"
	d := New(opts, &fakeSource{readings: []sensor.Reading{rightUp, upright, rightUp}}, backend, hook)

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Tick(context.Background()))
	}

	assert.Equal(t, 2, backend.calls)
	assert.Equal(t, []orientation.Orientation{orientation.Right90}, backend.applied)
	var commands []string
	for _, c := range hook.calls {
		commands = append(commands, c.command)
	}
	assert.Equal(t, []string{"before", "before", "after"}, commands)
}

func TestFatalApplyError(t *testing.T) {
	backend := unknownBackend()
	backend.applyErrs = []error{fmt.Errorf("%w: eDP-1", wayland.ErrHeadNotFound)}
	d := New(testOptions(), &fakeSource{readings: []sensor.Reading{upright}}, backend, &fakeHook{})

	err := d.Tick(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, wayland.ErrHeadNotFound)
	assert.False(t, d.Status().HasApplied)
}

func TestHooksReceiveOrientation(t *testing.T) {
	backend := &fakeBackend{current: orientation.Normal}
	hook := &fakeHook{}
	opts := testOptions()
	opts.BeforeHook = "echo before"
	opts.AfterHook = "echo after"
	d := New(opts, &fakeSource{readings: []sensor.Reading{leftUp}}, backend, hook)

	require.NoError(t, d.Tick(context.Background()))

	require.Len(t, hook.calls, 2)
	for _, call := range hook.calls {
		assert.Contains(t, call.env, "WAYROT_ORIENTATION=left")
		assert.Contains(t, call.env, "WAYROT_DISPLAY=eDP-1")
	}
}

func TestFailingBeforeHookAbortsRotation(t *testing.T) {
	backend := &fakeBackend{current: orientation.Normal}
	hook := &fakeHook{err: errors.New("exit status 1")}
	opts := testOptions()
	opts.BeforeHook = "false"
	d := New(opts, &fakeSource{readings: []sensor.Reading{leftUp}}, backend, hook)

	err := d.Tick(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before hook")
	assert.Empty(t, backend.applied)
}

func TestSensorErrorPropagates(t *testing.T) {
	d := New(testOptions(), &fakeSource{err: sensor.ErrNoAccelerometer}, unknownBackend(), &fakeHook{})

	err := d.Tick(context.Background())
	assert.ErrorIs(t, err, sensor.ErrNoAccelerometer)
}

func TestRunOneshot(t *testing.T) {
	opts := testOptions()
	opts.Oneshot = true
	backend := unknownBackend()
	source := &fakeSource{readings: []sensor.Reading{rightUp, leftUp}}
	d := New(opts, source, backend, &fakeHook{})

	require.NoError(t, d.Run(context.Background()))

	assert.Equal(t, []orientation.Orientation{orientation.Right90}, backend.applied)
	assert.Equal(t, uint64(1), d.Status().Ticks)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	backend := unknownBackend()
	d := New(testOptions(), &fakeSource{readings: []sensor.Reading{upright}}, backend, &fakeHook{})

	require.NoError(t, d.Run(ctx))
	assert.Equal(t, uint64(1), d.Status().Ticks)
}

func TestRunReturnsCycleError(t *testing.T) {
	d := New(testOptions(), &fakeSource{err: errors.New("boom")}, unknownBackend(), &fakeHook{})

	err := d.Run(context.Background())
	assert.EqualError(t, err, "read accelerometer: boom")
}

func TestStatusReportsTransactions(t *testing.T) {
	backend := statsBackend{fakeBackend: &fakeBackend{current: orientation.Normal, stats: &wayland.Stats{}}}
	d := New(testOptions(), &fakeSource{readings: []sensor.Reading{rightUp}}, backend, &fakeHook{})

	st := d.Status()
	assert.True(t, st.HasStats)
	assert.Equal(t, uint64(0), st.Transactions.Submitted)

	require.NoError(t, d.Tick(context.Background()))

	st = d.Status()
	assert.Equal(t, uint64(1), st.Transactions.Submitted)
	assert.Equal(t, "eDP-1", st.Display)
	assert.Equal(t, "wlroots", st.Backend)
}

func TestShellHook(t *testing.T) {
	hook := ShellHook{}

	err := hook.Run(context.Background(), `test "$WAYROT_ORIENTATION" = left`, []string{"WAYROT_ORIENTATION=left"})
	assert.NoError(t, err)

	err = hook.Run(context.Background(), "echo oops >&2; exit 3", nil)
	var toolErr *display.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, 3, toolErr.ExitCode)
	assert.Equal(t, "oops", toolErr.Stderr)
}
