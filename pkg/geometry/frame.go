package geometry

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Frame is the geometry a freeform component keeps in its props.
type Frame struct {
	Left     float64 `mapstructure:"left" json:"left"`
	Top      float64 `mapstructure:"top" json:"top"`
	Width    float64 `mapstructure:"width" json:"width"`
	Height   float64 `mapstructure:"height" json:"height"`
	Rotation float64 `mapstructure:"rotation" json:"rotation"`
}

// FrameFromProps decodes the frame keys of a props bag. Values may be
// numbers or numeric strings; other keys are ignored.
func FrameFromProps(props map[string]any) (Frame, error) {
	var f Frame
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &f,
	})
	if err != nil {
		return Frame{}, err
	}
	if err := dec.Decode(props); err != nil {
		return Frame{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	return f, nil
}

// Rect returns the unrotated bounding box of the frame.
func (f Frame) Rect() Rect {
	return Rect{Left: f.Left, Top: f.Top, Width: f.Width, Height: f.Height}
}

// Patch returns the props patch that stores the frame.
func (f Frame) Patch() domain.Patch {
	return domain.Patch{
		"left":     f.Left,
		"top":      f.Top,
		"width":    f.Width,
		"height":   f.Height,
		"rotation": f.Rotation,
	}
}
