// Package controls holds the editor viewport state: device preset,
// orientation, locale, grid and preview mode. It never mutates a document;
// it parameterises geometry and rendering.
package controls

import (
	"fmt"

	"github.com/aretw0/lattice/pkg/geometry"
)

// Device is a simulated preview device.
type Device string

const (
	DeviceDesktop Device = "desktop"
	DeviceTablet  Device = "tablet"
	DeviceMobile  Device = "mobile"
)

// Orientation of the preview frame.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
)

// Preset is the native frame of a device.
type Preset struct {
	Width       float64
	Height      float64
	Orientation Orientation
}

// Presets maps each device to its native frame.
var Presets = map[Device]Preset{
	DeviceDesktop: {Width: 1440, Height: 900, Orientation: Landscape},
	DeviceTablet:  {Width: 768, Height: 1024, Orientation: Portrait},
	DeviceMobile:  {Width: 375, Height: 667, Orientation: Portrait},
}

// DefaultColumns is the grid column count of a new viewport.
const DefaultColumns = 12

// Viewport is the controls state. The zero value is not usable; call New.
type Viewport struct {
	device      Device
	orientation Orientation
	locale      string
	gridVisible bool
	columns     int
	preview     bool
}

// Option configures a Viewport.
type Option func(*Viewport)

// WithLocale sets the initial locale.
func WithLocale(locale string) Option {
	return func(v *Viewport) { v.locale = locale }
}

// WithGrid sets the initial grid visibility and column count.
func WithGrid(visible bool, columns int) Option {
	return func(v *Viewport) {
		v.gridVisible = visible
		if columns > 0 {
			v.columns = columns
		}
	}
}

// New creates a desktop viewport in its native orientation.
func New(opts ...Option) *Viewport {
	v := &Viewport{
		device:      DeviceDesktop,
		orientation: Presets[DeviceDesktop].Orientation,
		locale:      "en",
		columns:     DefaultColumns,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SetDevice switches the device and resets to its native orientation.
func (v *Viewport) SetDevice(d Device) error {
	p, ok := Presets[d]
	if !ok {
		return fmt.Errorf("unknown device %q", d)
	}
	v.device = d
	v.orientation = p.Orientation
	return nil
}

func (v *Viewport) Device() Device           { return v.device }
func (v *Viewport) Orientation() Orientation { return v.orientation }

// ToggleOrientation flips between portrait and landscape. The frame swaps
// its width and height.
func (v *Viewport) ToggleOrientation() {
	if v.orientation == Portrait {
		v.orientation = Landscape
	} else {
		v.orientation = Portrait
	}
}

// Frame returns the preview frame size for the current device and orientation.
func (v *Viewport) Frame() (width, height float64) {
	p := Presets[v.device]
	if v.orientation != p.Orientation {
		return p.Height, p.Width
	}
	return p.Width, p.Height
}

func (v *Viewport) Locale() string          { return v.locale }
func (v *Viewport) SetLocale(locale string) { v.locale = locale }

// SetGrid changes grid visibility and column count. A non-positive column
// count keeps the current one.
func (v *Viewport) SetGrid(visible bool, columns int) {
	v.gridVisible = visible
	if columns > 0 {
		v.columns = columns
	}
}

func (v *Viewport) GridVisible() bool { return v.gridVisible }
func (v *Viewport) Columns() int      { return v.columns }

// GridSize is the snapping step for the current frame width.
func (v *Viewport) GridSize() float64 {
	width, _ := v.Frame()
	return geometry.GridSize(width, v.columns, v.gridVisible)
}

// Preview reports whether the canvas is read-only.
func (v *Viewport) Preview() bool { return v.preview }

// SetPreview toggles the read-only preview mode.
func (v *Viewport) SetPreview(on bool) { v.preview = on }

// Snapshot is the serialisable form of the viewport.
type Snapshot struct {
	Device      Device      `json:"device"`
	Orientation Orientation `json:"orientation"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Locale      string      `json:"locale"`
	GridVisible bool        `json:"grid_visible"`
	Columns     int         `json:"columns"`
	GridSize    float64     `json:"grid_size"`
	Preview     bool        `json:"preview"`
}

func (v *Viewport) Snapshot() Snapshot {
	w, h := v.Frame()
	return Snapshot{
		Device:      v.device,
		Orientation: v.orientation,
		Width:       w,
		Height:      h,
		Locale:      v.locale,
		GridVisible: v.gridVisible,
		Columns:     v.columns,
		GridSize:    v.GridSize(),
		Preview:     v.preview,
	}
}
