package scan

import (
	"image"
	"image/draw"
	"math"
)

// Outcome is the result of matching one template against one frame.
type Outcome struct {
	Active bool
	Score  float64
	At     image.Point
	Crop   *image.RGBA
}

// FramePrecomp stores per-frame grayscale values and their summed-area
// tables (integral images). The integrals allow O(1) window sum and
// variance queries, so one precomp serves the whole catalog for a cycle.
type FramePrecomp struct {
	frame      *image.RGBA
	gray       []float64
	integral   []float64
	integralSq []float64
	W, H       int
}

// NewFramePrecomp computes grayscale values and integral images for a frame.
func NewFramePrecomp(frame *image.RGBA) *FramePrecomp {
	if frame == nil {
		return nil
	}
	b := frame.Bounds()
	W, H := b.Dx(), b.Dy()
	if W == 0 || H == 0 {
		return nil
	}
	p := &FramePrecomp{
		frame:      frame,
		gray:       make([]float64, W*H),
		integral:   make([]float64, W*H),
		integralSq: make([]float64, W*H),
		W:          W,
		H:          H,
	}
	for y := 0; y < H; y++ {
		var rowSum, rowSum2 float64
		for x := 0; x < W; x++ {
			g := luminanceAt(frame, b.Min.X+x, b.Min.Y+y)
			off := y*W + x
			p.gray[off] = g
			rowSum += g
			rowSum2 += g * g
			if y == 0 {
				p.integral[off] = rowSum
				p.integralSq[off] = rowSum2
			} else {
				p.integral[off] = p.integral[(y-1)*W+x] + rowSum
				p.integralSq[off] = p.integralSq[(y-1)*W+x] + rowSum2
			}
		}
	}
	return p
}

// Match computes the normalized cross-correlation score map between the
// frame and tmpl and returns the global maximum. Active iff the maximum
// reaches threshold; on activation the matched sub-rectangle of the frame
// becomes Crop. Disabled templates and templates larger than the frame are
// unconditionally inactive with no scoring attempted. Deterministic for
// identical inputs.
func Match(pre *FramePrecomp, tmpl *Template, threshold float64) Outcome {
	res := Outcome{Score: -1}
	if pre == nil || tmpl == nil || tmpl.Disabled() {
		return res
	}
	w, h := tmpl.W, tmpl.H
	if w == 0 || h == 0 || w > pre.W || h > pre.H {
		return res
	}
	n := float64(w * h)

	// Flat templates have no variance to correlate against; fall back to an
	// exact-luminance window scan using the same integral tables.
	if tmpl.stdT <= 1e-9 {
		return matchFlat(pre, tmpl, threshold)
	}

	bestX, bestY, bestScore := 0, 0, -1.0
	for y := 0; y <= pre.H-h; y++ {
		for x := 0; x <= pre.W-w; x++ {
			sumF := integralSum(pre.integral, pre.W, x, y, x+w-1, y+h-1)
			sumF2 := integralSum(pre.integralSq, pre.W, x, y, x+w-1, y+h-1)
			meanF := sumF / n
			varF := (sumF2 - sumF*sumF/n) / n
			if varF <= 1e-9 {
				continue
			}
			var sumFT float64
			for ty := 0; ty < h; ty++ {
				frow := (y + ty) * pre.W
				trow := ty * w
				for tx := 0; tx < w; tx++ {
					sumFT += pre.gray[frow+x+tx] * tmpl.gray[trow+tx]
				}
			}
			numer := sumFT - n*meanF*tmpl.meanT
			denom := n * math.Sqrt(varF) * tmpl.stdT
			if denom <= 0 {
				continue
			}
			if score := numer / denom; score > bestScore {
				bestScore, bestX, bestY = score, x, y
			}
		}
	}
	res.Score = bestScore
	res.At = image.Pt(bestX, bestY)
	if bestScore >= threshold {
		res.Active = true
		res.Crop = cropFrame(pre.frame, bestX, bestY, w, h)
	}
	return res
}

// matchFlat scans for a window that is itself flat with the template's
// luminance: variance zero and matching mean, scored 1.
func matchFlat(pre *FramePrecomp, tmpl *Template, threshold float64) Outcome {
	res := Outcome{Score: -1}
	w, h := tmpl.W, tmpl.H
	n := float64(w * h)
	for y := 0; y <= pre.H-h; y++ {
		for x := 0; x <= pre.W-w; x++ {
			sumF := integralSum(pre.integral, pre.W, x, y, x+w-1, y+h-1)
			sumF2 := integralSum(pre.integralSq, pre.W, x, y, x+w-1, y+h-1)
			meanF := sumF / n
			varF := (sumF2 - sumF*sumF/n) / n
			if varF > 1e-6 || math.Abs(meanF-tmpl.meanT) > 1e-6 {
				continue
			}
			res.Score = 1
			res.At = image.Pt(x, y)
			if threshold <= 1 {
				res.Active = true
				res.Crop = cropFrame(pre.frame, x, y, w, h)
			}
			return res
		}
	}
	return res
}

// integralSum returns the inclusive sum over rectangle [x0..x1] x [y0..y1]
// from an integral image stored in row-major order with width W.
func integralSum(I []float64, W int, x0, y0, x1, y1 int) float64 {
	if x0 > x1 || y0 > y1 {
		return 0
	}
	A := func(x, y int) float64 {
		if x < 0 || y < 0 {
			return 0
		}
		return I[y*W+x]
	}
	return A(x1, y1) - A(x0-1, y1) - A(x1, y0-1) + A(x0-1, y0-1)
}

// cropFrame copies the w x h sub-rectangle of frame at (x, y), in frame-local
// coordinates, into a fresh RGBA image.
func cropFrame(frame *image.RGBA, x, y, w, h int) *image.RGBA {
	b := frame.Bounds()
	src := image.Rect(b.Min.X+x, b.Min.Y+y, b.Min.X+x+w, b.Min.Y+y+h)
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), frame, src.Min, draw.Src)
	return out
}
