// Package capture provides the screen frame source consumed by the scan
// monitor. Failures are transient by contract: callers retry, this package
// never panics on capture problems.
package capture

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Source supplies pixel frames for a screen rectangle. Implementations must
// be safe to call repeatedly at high frequency.
type Source interface {
	Capture(bounds image.Rectangle) (*image.RGBA, error)
}

// ScreenSource captures from the physical displays, clipping requests to
// the union of all active display bounds.
type ScreenSource struct{}

func NewScreenSource() ScreenSource { return ScreenSource{} }

func (ScreenSource) Capture(bounds image.Rectangle) (*image.RGBA, error) {
	if bounds.Empty() {
		return nil, fmt.Errorf("capture: empty bounds %v", bounds)
	}
	virtual, err := VirtualBounds()
	if err != nil {
		return nil, err
	}
	r := bounds.Intersect(virtual)
	if r.Empty() {
		return nil, fmt.Errorf("capture: bounds %v outside displays %v", bounds, virtual)
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	if img == nil {
		return nil, fmt.Errorf("capture: nil frame for %v", r)
	}
	return img, nil
}

// VirtualBounds returns the union of all active display bounds.
func VirtualBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("capture: no active displays")
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union, nil
}
