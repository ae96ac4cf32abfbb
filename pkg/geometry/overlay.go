package geometry

// SpacingOverlay previews the gap a drop at index would introduce in a
// vertical stack of siblings inside container. It returns nil when there is
// nothing to preview.
func SpacingOverlay(container Rect, siblings []Rect, index int, gap float64) *Rect {
	if gap <= 0 || len(siblings) == 0 {
		return nil
	}
	overlay := Rect{Left: container.Left, Width: container.Width, Height: gap}
	switch {
	case index <= 0:
		overlay.Top = siblings[0].Top - gap
	case index >= len(siblings):
		overlay.Top = siblings[len(siblings)-1].Bottom()
	default:
		overlay.Top = siblings[index-1].Bottom()
	}
	return &overlay
}
