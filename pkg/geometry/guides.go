package geometry

import (
	"fmt"
	"math"
)

// LabelOffset is the distance in pixels between a guide line and its label.
const LabelOffset = 4.0

// DefaultThreshold is the snap distance used when a Context leaves it unset.
const DefaultThreshold = 6.0

// Axis identifies the axis a guide snaps on.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// DistanceLabel shows the gap between the dragged element and the sibling
// it snapped to. (X, Y) is where the label is drawn.
type DistanceLabel struct {
	Axis     Axis    `json:"axis"`
	Distance int     `json:"distance"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

func (l DistanceLabel) String() string {
	return fmt.Sprintf("%dpx", l.Distance)
}

// Guides is the result of AlignmentGuides. X and Y are nil when nothing is
// within the threshold on that axis. DX and DY are the shifts that move the
// dragged rectangle onto the guides.
type Guides struct {
	X      *float64        `json:"x"`
	Y      *float64        `json:"y"`
	DX     float64         `json:"dx"`
	DY     float64         `json:"dy"`
	Labels []DistanceLabel `json:"labels,omitempty"`
}

type match struct {
	ref     float64
	delta   float64
	sibling Rect
}

// nearest finds the sibling anchor closest to any dragged anchor.
func nearest(dragged []float64, siblings []Rect, anchors func(Rect) []float64, threshold float64) (match, bool) {
	best := match{delta: math.Inf(1)}
	found := false
	for _, s := range siblings {
		for _, ref := range anchors(s) {
			for _, d := range dragged {
				delta := ref - d
				if math.Abs(delta) <= threshold && math.Abs(delta) < math.Abs(best.delta) {
					best = match{ref: ref, delta: delta, sibling: s}
					found = true
				}
			}
		}
	}
	return best, found
}

func xAnchors(r Rect) []float64 { return []float64{r.Left, r.CenterX(), r.Right()} }
func yAnchors(r Rect) []float64 { return []float64{r.Top, r.CenterY(), r.Bottom()} }

// gap returns the empty space between [aStart, aEnd] and [bStart, bEnd] and
// its midpoint. Overlapping spans have no gap.
func gap(aStart, aEnd, bStart, bEnd float64) (float64, float64) {
	switch {
	case aStart >= bEnd:
		return aStart - bEnd, (aStart + bEnd) / 2
	case bStart >= aEnd:
		return bStart - aEnd, (bStart + aEnd) / 2
	default:
		return 0, (math.Max(aStart, bStart) + math.Min(aEnd, bEnd)) / 2
	}
}

// AlignmentGuides computes, per axis independently, the sibling edge or
// center nearest to any edge or center of dragged within threshold.
func AlignmentGuides(dragged Rect, siblings []Rect, threshold float64) Guides {
	var g Guides
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	if m, ok := nearest(xAnchors(dragged), siblings, xAnchors, threshold); ok {
		x := m.ref
		g.X, g.DX = &x, m.delta
		snapped := dragged.Translate(m.delta, 0)
		distance, mid := gap(snapped.Top, snapped.Bottom(), m.sibling.Top, m.sibling.Bottom())
		g.Labels = append(g.Labels, DistanceLabel{
			Axis:     AxisX,
			Distance: int(math.Round(distance)),
			X:        x + LabelOffset,
			Y:        mid,
		})
	}

	if m, ok := nearest(yAnchors(dragged), siblings, yAnchors, threshold); ok {
		y := m.ref
		g.Y, g.DY = &y, m.delta
		snapped := dragged.Translate(0, m.delta)
		distance, mid := gap(snapped.Left, snapped.Right(), m.sibling.Left, m.sibling.Right())
		g.Labels = append(g.Labels, DistanceLabel{
			Axis:     AxisY,
			Distance: int(math.Round(distance)),
			X:        mid,
			Y:        y + LabelOffset,
		})
	}
	return g
}
