package entity

// Color is an RGB color with alpha in [0,1].
type Color struct {
	R, G, B uint8
	A       float64
}

var (
	White     = Color{R: 255, G: 255, B: 255, A: 1}
	Red       = Color{R: 255, A: 1}
	DebugFill = Color{R: 255, G: 255, B: 255, A: 0.3}
)

// Surface is the 2D drawing target entities render onto. It follows the
// canvas model: a transform and style stack (Save/Restore), a current path,
// and immediate rectangle and line fills.
type Surface interface {
	Clear()
	Present()

	Save()
	Restore()
	Translate(x, y float64)
	Rotate(angle float64)

	SetFillColor(c Color)
	SetStrokeColor(c Color)
	SetLineWidth(w float64)

	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	Arc(x, y, radius, startAngle, endAngle float64)
	ClosePath()
	Stroke()
	Fill()

	FillRect(x, y, w, h float64)
	Line(x1, y1, x2, y2 float64)
}
