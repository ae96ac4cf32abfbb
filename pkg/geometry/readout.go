package geometry

import (
	"fmt"
	"math"
)

// SizeReadout formats the rounded size of r, e.g. "320×240".
func SizeReadout(r Rect) string {
	return fmt.Sprintf("%d×%d", round(r.Width), round(r.Height))
}

// PositionReadout formats the rounded position of r, e.g. "12, 48".
func PositionReadout(r Rect) string {
	return fmt.Sprintf("%d, %d", round(r.Left), round(r.Top))
}

// RotationReadout formats an angle rounded to whole degrees in [0, 360).
func RotationReadout(degrees float64) string {
	return fmt.Sprintf("%d°", round(NormalizeAngle(degrees))%360)
}

// NormalizeAngle maps degrees into [0, 360).
func NormalizeAngle(degrees float64) float64 {
	a := math.Mod(degrees, 360)
	if a < 0 {
		a += 360
	}
	return a
}

func round(v float64) int {
	return int(math.Round(v))
}
