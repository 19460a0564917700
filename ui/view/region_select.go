package view

import (
	"fmt"
	"image"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/soocke/buff-scanner-go/domain/scan"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// RegionSelector manages the transparent window the user drags and resizes
// over the screen area to scan. The window frame marks the region; Confirm
// reads the final geometry, Cancel discards it. One selector at a time:
// opening while a selector is up just nudges the existing window.
type RegionSelector struct {
	logger *slog.Logger
	win    *ToplevelWidget
	onDone func(scan.Region, bool)
}

func NewRegionSelector(logger *slog.Logger) *RegionSelector {
	return &RegionSelector{logger: logger}
}

// Open shows the selector window. onDone is called exactly once on the Tk
// thread with the chosen region, or ok=false on cancel. Must run on the Tk
// thread.
func (v *RegionSelector) Open(onDone func(scan.Region, bool)) {
	if v.win != nil {
		WmGeometry(v.win.Window)
		return
	}
	v.onDone = onDone
	win := App.Toplevel(Borderwidth(2), Background("#008080"))
	win.WmTitle("Select Scan Region")
	v.win = win
	screenW, screenH := screenSize()
	initW, initH := screenW/2, screenH/3
	if initW < 1 {
		initW = 1
	}
	if initH < 1 {
		initH = 1
	}
	x, y := (screenW-initW)/2, (screenH-initH)/2
	WmGeometry(win.Window, fmt.Sprintf("%dx%d+%d+%d", initW, initH, x, y))
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-toolwindow", true)
	WmAttributes(win.Window, "-transparentcolor", "#008080")
	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 0, Weight(0))
	GridColumnConfigure(win.Window, 1, Weight(1))
	GridColumnConfigure(win.Window, 2, Weight(0))
	left := win.Frame(Width(4), Background("#FFFFFF"))
	Grid(left, Row(0), Column(0), Sticky("ns"))
	center := win.Frame(Background("#008080"))
	Grid(center, Row(0), Column(1), Sticky("nsew"))
	right := win.Frame(Width(4), Background("#FFFFFF"))
	Grid(right, Row(0), Column(2), Sticky("ns"))
	controls := win.Frame()
	Grid(controls, Row(1), Column(0), Columnspan(3), Sticky("we"))
	confirm := win.Button(Txt("Confirm [Enter]"), Command(v.confirm))
	Grid(confirm, In(controls), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	cancel := win.Button(Txt("Cancel [Esc]"), Command(v.cancel))
	Grid(cancel, In(controls), Row(0), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Bind(win, "<Return>", Command(v.confirm))
	Bind(win, "<Escape>", Command(v.cancel))
}

func (v *RegionSelector) confirm() {
	if v.win == nil {
		return
	}
	geom := WmGeometry(v.win.Window)
	rect, ok := parseGeometry(geom)
	v.finish(func() (scan.Region, bool) {
		if !ok {
			if v.logger != nil {
				v.logger.Warn("unparseable selector geometry", "geometry", geom)
			}
			return scan.Region{}, false
		}
		return scan.RegionFromPoints(rect.Min, rect.Max), true
	})
}

func (v *RegionSelector) cancel() {
	v.finish(func() (scan.Region, bool) { return scan.Region{}, false })
}

func (v *RegionSelector) finish(result func() (scan.Region, bool)) {
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
	done := v.onDone
	v.onDone = nil
	if done != nil {
		done(result())
	}
}

// screenSize returns the primary screen dimensions.
// Currently returns static values; should be replaced with proper Tk winfo queries.
func screenSize() (int, int) {
	return 1920, 1080
}

// geomRe matches window geometry strings in the format "WIDTHxHEIGHT+X+Y"
var geomRe = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

// parseGeometry parses a Tk geometry string and returns the corresponding rectangle.
func parseGeometry(g string) (image.Rectangle, bool) {
	g = strings.TrimSpace(g)
	m := geomRe.FindStringSubmatch(g)
	if len(m) != 5 {
		return image.Rectangle{}, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	x, _ := strconv.Atoi(m[3])
	y, _ := strconv.Atoi(m[4])
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}
