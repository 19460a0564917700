package scan

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/soocke/buff-scanner-go/config"
)

// Template is a named reference icon with precomputed grayscale statistics.
// A template whose backing image failed to load stays in the catalog as a
// disabled entry so indices and ordering remain stable.
type Template struct {
	Name        string
	Refreshable bool
	Duration    time.Duration // 0 means unknown

	W, H  int
	gray  []float64
	sumT  float64
	meanT float64
	stdT  float64

	disabled bool
}

// Disabled reports whether the template can never match (load failure).
func (t *Template) Disabled() bool { return t.disabled }

// Catalog is the fixed, declaration-ordered set of templates for one run.
type Catalog struct {
	templates []*Template
}

func (c *Catalog) Templates() []*Template { return c.templates }
func (c *Catalog) Len() int               { return len(c.templates) }

// LoaderFunc resolves a template image path to a decoded image.
type LoaderFunc func(path string) (image.Image, error)

// FileLoader decodes an image file from disk (PNG registered).
func FileLoader(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// LoadCatalog builds the catalog from buff declarations. Image paths are
// resolved relative to baseDir. Load failures degrade the entry to disabled
// and are logged, never fatal.
func LoadCatalog(decls []config.BuffDecl, baseDir string, load LoaderFunc, logger *slog.Logger) *Catalog {
	if load == nil {
		load = FileLoader
	}
	c := &Catalog{}
	for _, d := range decls {
		t := &Template{Name: d.Name, Refreshable: d.Refreshable}
		if d.DurationSec != nil && *d.DurationSec > 0 {
			t.Duration = time.Duration(*d.DurationSec * float64(time.Second))
		}
		path := d.File
		if baseDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		img, err := load(path)
		if err != nil {
			t.disabled = true
			if logger != nil {
				logger.Warn("template load failed, entry disabled", "name", d.Name, "file", path, "error", err)
			}
		} else {
			t.precompute(img)
			if logger != nil {
				logger.Info("template loaded", "name", d.Name, "size", imageSize(t.W, t.H), "refreshable", d.Refreshable)
			}
		}
		c.templates = append(c.templates, t)
	}
	return c
}

// NewTemplate builds an enabled template directly from an image. Used by
// tests and callers that already hold decoded pixels.
func NewTemplate(name string, img image.Image) *Template {
	t := &Template{Name: name}
	t.precompute(img)
	return t
}

func (t *Template) precompute(img image.Image) {
	rgba := toRGBA(img)
	b := rgba.Bounds()
	t.W, t.H = b.Dx(), b.Dy()
	if t.W == 0 || t.H == 0 {
		t.disabled = true
		return
	}
	t.gray = make([]float64, t.W*t.H)
	var sum, sum2 float64
	for y := 0; y < t.H; y++ {
		for x := 0; x < t.W; x++ {
			g := luminanceAt(rgba, b.Min.X+x, b.Min.Y+y)
			t.gray[y*t.W+x] = g
			sum += g
			sum2 += g * g
		}
	}
	n := float64(t.W * t.H)
	t.sumT = sum
	t.meanT = sum / n
	if v := (sum2 - sum*sum/n) / n; v > 0 {
		t.stdT = math.Sqrt(v)
	}
}

// luminanceAt converts one pixel to Rec.709 luma in the 16-bit RGBA range.
// Fully transparent pixels contribute zero.
func luminanceAt(img *image.RGBA, x, y int) float64 {
	r, g, b, a := img.At(x, y).RGBA()
	if a == 0 {
		return 0
	}
	return 0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func imageSize(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}
