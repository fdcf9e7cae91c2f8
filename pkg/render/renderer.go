// pkg/render/renderer.go
package render

import (
	"context"

	"github.com/opd-ai/go-harpoon/pkg/entity"
	"github.com/opd-ai/go-harpoon/pkg/logging"
)

// NullRenderer is an entity.Surface that draws nothing. It logs frame
// boundaries at debug level, which makes it useful for headless runs.
type NullRenderer struct {
	logger *logging.Logger
	frames int
}

// NewNullRenderer creates a NullRenderer. A nil logger discards everything.
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &NullRenderer{logger: logger}
}

// Frames returns how many frames have been presented.
func (d *NullRenderer) Frames() int {
	return d.frames
}

// Clear implements entity.Surface.
func (d *NullRenderer) Clear() {
	d.logger.Debug(context.Background(), "Clear called", "frame", d.frames+1)
}

// Present implements entity.Surface.
func (d *NullRenderer) Present() {
	d.frames++
	d.logger.Debug(context.Background(), "Present called", "frame", d.frames)
}

func (d *NullRenderer) Save()                                  {}
func (d *NullRenderer) Restore()                               {}
func (d *NullRenderer) Translate(x, y float64)                 {}
func (d *NullRenderer) Rotate(angle float64)                   {}
func (d *NullRenderer) SetFillColor(c entity.Color)            {}
func (d *NullRenderer) SetStrokeColor(c entity.Color)          {}
func (d *NullRenderer) SetLineWidth(w float64)                 {}
func (d *NullRenderer) BeginPath()                             {}
func (d *NullRenderer) MoveTo(x, y float64)                    {}
func (d *NullRenderer) LineTo(x, y float64)                    {}
func (d *NullRenderer) Arc(x, y, radius, start, end float64)   {}
func (d *NullRenderer) ClosePath()                             {}
func (d *NullRenderer) Stroke()                                {}
func (d *NullRenderer) Fill()                                  {}
func (d *NullRenderer) FillRect(x, y, w, h float64)            {}
func (d *NullRenderer) Line(x1, y1, x2, y2 float64)            {}

var (
	_ entity.Surface = (*NullRenderer)(nil)
	_ entity.Surface = (*RecordingSurface)(nil)
	_ entity.Surface = (*TerminalRenderer)(nil)
)
