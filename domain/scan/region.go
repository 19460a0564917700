package scan

import (
	"fmt"
	"image"
)

// Region is a validated screen rectangle in pixel coordinates.
// Construct via RegionFromPoints so corner order never matters.
type Region struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// RegionFromPoints normalizes two arbitrary corner points into a Region,
// regardless of drag direction.
func RegionFromPoints(p1, p2 image.Point) Region {
	return Region{
		Left:   min(p1.X, p2.X),
		Top:    min(p1.Y, p2.Y),
		Right:  max(p1.X, p2.X),
		Bottom: max(p1.Y, p2.Y),
	}
}

// Valid reports whether the region spans a positive area.
func (r Region) Valid() bool { return r.Right > r.Left && r.Bottom > r.Top }

func (r Region) Width() int  { return r.Right - r.Left }
func (r Region) Height() int { return r.Bottom - r.Top }

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle { return image.Rect(r.Left, r.Top, r.Right, r.Bottom) }

func (r Region) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", r.Left, r.Top, r.Right, r.Bottom)
}
