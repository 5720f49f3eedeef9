package overlay

import (
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// dragSurface shows the rendered frame and forwards pointer drags to the
// controller, which ignores them unless drag mode is on.
type dragSurface struct {
	widget.BaseWidget

	content fyne.CanvasObject
	ctrl    *Controller

	// fractional movement not yet applied to the window
	restX, restY float64
}

var _ fyne.Draggable = (*dragSurface)(nil)

func newDragSurface(content fyne.CanvasObject, ctrl *Controller) *dragSurface {
	s := &dragSurface{content: content, ctrl: ctrl}
	s.ExtendBaseWidget(s)

	return s
}

func (s *dragSurface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.content)
}

func (s *dragSurface) Dragged(ev *fyne.DragEvent) {
	if !s.ctrl.DragMode() {
		return
	}

	dx, dy := s.take(float64(ev.Dragged.DX), float64(ev.Dragged.DY))
	if dx != 0 || dy != 0 {
		s.ctrl.DragBy(dx, dy)
	}
}

func (s *dragSurface) DragEnd() {
	s.restX, s.restY = 0, 0
	s.ctrl.DragEnd()
}

// take adds a drag delta and returns the whole pixels to move now.
func (s *dragSurface) take(dx, dy float64) (int, int) {
	s.restX += dx
	s.restY += dy

	x, y := math.Trunc(s.restX), math.Trunc(s.restY)
	s.restX -= x
	s.restY -= y

	return int(x), int(y)
}
