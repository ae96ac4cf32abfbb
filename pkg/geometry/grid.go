package geometry

import "math"

// GridSize returns the snapping step for a canvas: canvasWidth / columns
// when the grid is enabled, else 1 (no snapping).
func GridSize(canvasWidth float64, columns int, enabled bool) float64 {
	if !enabled || columns <= 0 || canvasWidth <= 0 {
		return 1
	}
	return canvasWidth / float64(columns)
}

// Snap rounds v to the nearest multiple of grid.
func Snap(v, grid float64) float64 {
	if grid <= 1 {
		return v
	}
	return math.Round(v/grid) * grid
}

// Rect is an axis-aligned bounding box in canvas pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64   { return r.Left + r.Width }
func (r Rect) Bottom() float64  { return r.Top + r.Height }
func (r Rect) CenterX() float64 { return r.Left + r.Width/2 }
func (r Rect) CenterY() float64 { return r.Top + r.Height/2 }

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.Left += dx
	r.Top += dy
	return r
}

// IsZero reports whether r is the zero rectangle.
func (r Rect) IsZero() bool {
	return r == Rect{}
}
