package overlay_test

import (
	"testing"
	"time"

	"github.com/dasdy/keyoverlay/config"
	"github.com/dasdy/keyoverlay/keylog"
	"github.com/dasdy/keyoverlay/layout"
	"github.com/dasdy/keyoverlay/model"
	"github.com/dasdy/keyoverlay/overlay"
	"github.com/dasdy/keyoverlay/platform"
	"github.com/dasdy/keyoverlay/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ctrl  *overlay.Controller
	queue *keylog.Queue
	shim  *platform.Noop
	stats chan model.PressEvent
}

func newFixture(t *testing.T, statsSize int) *fixture {
	t.Helper()

	painter, err := render.NewPainter()
	require.NoError(t, err)

	f := &fixture{
		queue: keylog.NewQueue(16),
		shim:  platform.NewNoop(),
		stats: make(chan model.PressEvent, statsSize),
	}

	f.ctrl = overlay.NewController(config.Default(), f.queue, f.shim, painter, f.stats, start)

	return f
}

func (f *fixture) tick(t *testing.T, at time.Duration) {
	t.Helper()

	img, err := f.ctrl.Tick(start.Add(at))
	require.NoError(t, err)
	require.NotNil(t, img)
}

func TestControllerTick(t *testing.T) {
	t.Run("drains presses into the engine and statistics", func(t *testing.T) {
		f := newFixture(t, 4)
		f.queue.Push(model.PressEvent{Char: 'a', At: start})

		f.tick(t, 0)

		assert.InDelta(t, 1, f.ctrl.Engine().Snapshot()['a'], 1e-9)
		require.Len(t, f.stats, 1)
		assert.Equal(t, 'a', (<-f.stats).Char)

		f.tick(t, 400*time.Millisecond)
		assert.InDelta(t, 0.5, f.ctrl.Engine().Snapshot()['a'], 1e-9)

		f.tick(t, 800*time.Millisecond)
		assert.NotContains(t, f.ctrl.Engine().Snapshot(), 'a')
	})

	t.Run("presses without a timestamp use the tick time", func(t *testing.T) {
		f := newFixture(t, 1)
		f.queue.Push(model.PressEvent{Char: 'b'})

		f.tick(t, time.Second)

		assert.Equal(t, start.Add(time.Second), f.ctrl.Engine().LastActivity())
	})

	t.Run("a full statistics channel never blocks", func(t *testing.T) {
		f := newFixture(t, 1)
		for _, ch := range "abc" {
			f.queue.Push(model.PressEvent{Char: ch, At: start})
		}

		f.tick(t, 0)

		assert.Equal(t, 3, f.ctrl.Engine().Len())
		assert.Len(t, f.stats, 1)
	})

	t.Run("works without statistics", func(t *testing.T) {
		painter, err := render.NewPainter()
		require.NoError(t, err)

		q := keylog.NewQueue(4)
		q.Push(model.PressEvent{Char: 'z', At: start})

		ctrl := overlay.NewController(config.Default(), q, platform.NewNoop(), painter, nil, start)

		_, err = ctrl.Tick(start)
		require.NoError(t, err)
		assert.Equal(t, 1, ctrl.Engine().Len())
	})
}

func TestControllerLayout(t *testing.T) {
	f := newFixture(t, 4)
	f.shim.Layout = layout.Russian
	f.queue.Push(model.PressEvent{Char: 'q', At: start})

	f.tick(t, 0)
	assert.Equal(t, layout.Russian, f.ctrl.Layout())

	f.shim.Layout = layout.English

	f.tick(t, 100*time.Millisecond)
	assert.Equal(t, layout.Russian, f.ctrl.Layout(), "polled at most every %v", overlay.LayoutPollInterval)

	f.tick(t, 250*time.Millisecond)
	assert.Equal(t, layout.English, f.ctrl.Layout())
	assert.Contains(t, f.ctrl.Engine().Snapshot(), 'q', "layout switch keeps pressed keys")
}

func TestControllerOpacity(t *testing.T) {
	f := newFixture(t, 4)

	f.tick(t, 0)
	assert.InDelta(t, 0.92, f.shim.Alpha, 1e-9)

	for i := range 300 {
		f.tick(t, 10*time.Second+time.Duration(i)*overlay.TickInterval)
	}

	assert.InDelta(t, 0.30, f.ctrl.Alpha(), 0.01)
	assert.InDelta(t, f.ctrl.Alpha(), f.shim.Alpha, 0.01)

	f.queue.Push(model.PressEvent{Char: 'a', At: start.Add(20 * time.Second)})

	for i := range 300 {
		f.tick(t, 20*time.Second+time.Duration(i)*overlay.TickInterval)
	}

	assert.InDelta(t, 0.92, f.ctrl.Alpha(), 0.01)
}

func TestControllerGeometry(t *testing.T) {
	t.Run("anchors the window", func(t *testing.T) {
		f := newFixture(t, 1)

		f.ctrl.ApplyGeometry()

		assert.Equal(t, []int{260, 770, 1400, 300}, []int{f.shim.X, f.shim.Y, f.shim.W, f.shim.H})
		assert.True(t, f.shim.ClickThrough)
	})

	t.Run("drag mode moves and pins the window", func(t *testing.T) {
		f := newFixture(t, 1)
		f.ctrl.ApplyGeometry()

		f.ctrl.DragBy(5, 5)
		assert.Equal(t, 260, f.shim.X, "ignored outside drag mode")

		f.ctrl.SetDragMode(true)
		assert.False(t, f.shim.ClickThrough)

		f.ctrl.DragBy(10, -20)
		assert.Equal(t, []int{270, 750}, []int{f.shim.X, f.shim.Y})

		f.ctrl.DragEnd()

		cfg := f.ctrl.Config()
		assert.Equal(t, config.PositionCustom, cfg.Position)
		require.NotNil(t, cfg.CustomX)
		assert.Equal(t, 270, *cfg.CustomX)
		assert.Equal(t, 750, *cfg.CustomY)

		f.ctrl.SetDragMode(false)
		assert.True(t, f.shim.ClickThrough)
		assert.False(t, f.ctrl.DragMode())
	})

	t.Run("toggling drag mode without a drag keeps the anchor", func(t *testing.T) {
		f := newFixture(t, 1)
		f.ctrl.ApplyGeometry()

		f.ctrl.SetDragMode(true)
		f.ctrl.SetDragMode(false)

		cfg := f.ctrl.Config()
		assert.Equal(t, config.PositionBottom, cfg.Position)
		assert.Nil(t, cfg.CustomX)
		assert.True(t, f.shim.ClickThrough)
	})

	t.Run("reset forgets custom coordinates", func(t *testing.T) {
		f := newFixture(t, 1)
		f.ctrl.Config().SetCustom(1, 2)

		f.ctrl.ResetPosition(config.PositionCustom)

		cfg := f.ctrl.Config()
		assert.Equal(t, config.PositionBottom, cfg.Position)
		assert.Nil(t, cfg.CustomX)
		assert.Equal(t, 770, f.shim.Y)
	})

	t.Run("new settings are sanitized and cap the opacity", func(t *testing.T) {
		f := newFixture(t, 1)

		cfg := config.Default()
		cfg.MaxAlpha = 0.4
		cfg.MinAlpha = 0.9
		cfg.Position = config.PositionTop

		f.ctrl.SetConfig(cfg)

		assert.InDelta(t, 0.9, f.ctrl.Config().MaxAlpha, 1e-9)
		assert.InDelta(t, 0.4, f.ctrl.Config().MinAlpha, 1e-9)
		assert.InDelta(t, 0.9, f.ctrl.Alpha(), 1e-9)
		assert.Equal(t, 10, f.shim.Y)
	})
}
