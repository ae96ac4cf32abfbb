package geometry

import (
	"math"

	"github.com/aretw0/lattice/pkg/domain"
)

// MinSize is the smallest width or height a resize can produce.
const MinSize = 8.0

// GestureKind is the pointer interaction being tracked.
type GestureKind int

const (
	GestureDrag GestureKind = iota
	GestureResize
	GestureRotate
)

func (k GestureKind) String() string {
	switch k {
	case GestureDrag:
		return "drag"
	case GestureResize:
		return "resize"
	case GestureRotate:
		return "rotate"
	default:
		return "unknown"
	}
}

// Context carries the canvas state a pointer move is projected against.
type Context struct {
	Grid      float64 // see GridSize
	Threshold float64 // guide snap distance, DefaultThreshold when zero
	Siblings  []Rect

	// Container, Gap and DropIndex feed SpacingOverlay. A zero Gap disables it.
	Container Rect
	Gap       float64
	DropIndex int
}

// Projection is what the canvas renders after a pointer move.
type Projection struct {
	Frame   Frame  `json:"frame"`
	Guides  Guides `json:"guides"`
	Overlay *Rect  `json:"overlay,omitempty"`
	Readout string `json:"readout"`
}

// Gesture tracks a single drag, resize or rotate. The zero value is idle.
// It is not safe for concurrent use; a canvas owns one gesture per pointer.
type Gesture struct {
	kind    GestureKind
	nodeID  string
	start   Frame
	current Frame
	active  bool
}

// Begin starts tracking a gesture on nodeID, replacing any gesture in progress.
func (g *Gesture) Begin(kind GestureKind, nodeID string, frame Frame) {
	*g = Gesture{kind: kind, nodeID: nodeID, start: frame, current: frame, active: true}
}

// Active reports whether a gesture is in progress.
func (g *Gesture) Active() bool { return g.active }

// Kind returns the kind of the current gesture.
func (g *Gesture) Kind() GestureKind { return g.kind }

// NodeID returns the node being manipulated.
func (g *Gesture) NodeID() string { return g.nodeID }

// Move projects a pointer move. For drag and resize, (dx, dy) is the pointer
// offset since Begin. For rotate, (dx, dy) is the pointer position relative
// to the frame center; straight up is 0°.
func (g *Gesture) Move(dx, dy float64, ctx Context) Projection {
	if !g.active {
		return Projection{}
	}

	var p Projection
	next := g.start
	switch g.kind {
	case GestureDrag:
		next.Left = Snap(g.start.Left+dx, ctx.Grid)
		next.Top = Snap(g.start.Top+dy, ctx.Grid)
		p.Guides = AlignmentGuides(next.Rect(), ctx.Siblings, ctx.Threshold)
		next.Left += p.Guides.DX
		next.Top += p.Guides.DY
		p.Overlay = SpacingOverlay(ctx.Container, ctx.Siblings, ctx.DropIndex, ctx.Gap)
		p.Readout = PositionReadout(next.Rect())
	case GestureResize:
		next.Width = math.Max(MinSize, Snap(g.start.Width+dx, ctx.Grid))
		next.Height = math.Max(MinSize, Snap(g.start.Height+dy, ctx.Grid))
		p.Readout = SizeReadout(next.Rect())
	case GestureRotate:
		deg := math.Atan2(dy, dx)*180/math.Pi + 90
		next.Rotation = NormalizeAngle(math.Round(deg*1e6) / 1e6)
		p.Readout = RotationReadout(next.Rotation)
	}

	g.current = next
	p.Frame = next
	return p
}

// End finishes the gesture and returns the patch to commit. ok is false when
// no gesture was active or the frame did not change.
func (g *Gesture) End() (nodeID string, patch domain.Patch, ok bool) {
	if !g.active {
		return "", nil, false
	}
	defer g.Cancel()

	if g.current == g.start {
		return g.nodeID, nil, false
	}

	full := g.current.Patch()
	patch = domain.Patch{}
	var keys []string
	switch g.kind {
	case GestureDrag:
		keys = []string{"left", "top"}
	case GestureResize:
		keys = []string{"width", "height"}
	case GestureRotate:
		keys = []string{"rotation"}
	}
	for _, k := range keys {
		patch[k] = full[k]
	}
	return g.nodeID, patch, true
}

// Cancel discards the gesture without producing a commit.
func (g *Gesture) Cancel() {
	*g = Gesture{}
}
