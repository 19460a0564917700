package view

import (
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// OverlayView manages one borderless, always-on-top icon window per active
// buff. All methods must run on the Tk thread; a recovered widget panic
// (surface destroyed during quit) marks the view gone instead of
// propagating.
type OverlayView struct {
	logger  *slog.Logger
	origin  image.Point
	spacing int
	icons   map[string]*iconWindow
	gone    atomic.Bool
}

type iconWindow struct {
	win   *ToplevelWidget
	label *LabelWidget
}

// NewOverlayView creates the overlay manager. origin is the screen position
// of slot 0; slot i sits at origin.X + i*spacing.
func NewOverlayView(origin image.Point, spacing int, logger *slog.Logger) *OverlayView {
	return &OverlayView{logger: logger, origin: origin, spacing: spacing, icons: map[string]*iconWindow{}}
}

// Alive reports whether the rendering surface is still usable.
func (v *OverlayView) Alive() bool { return !v.gone.Load() }

// Upsert creates or refreshes the icon window for name at its fixed slot.
func (v *OverlayView) Upsert(name string, index int, pngData []byte) {
	if v.gone.Load() || len(pngData) == 0 {
		return
	}
	v.guarded("upsert", func() {
		if ic, ok := v.icons[name]; ok {
			ic.label.Configure(Image(NewPhoto(Data(pngData))))
			return
		}
		title := "buff-" + name
		win := App.Toplevel(Background("black"))
		win.WmTitle(title)
		WmAttributes(win.Window, "-topmost", 1)
		WmAttributes(win.Window, "-toolwindow", true)
		x := v.origin.X + index*v.spacing
		WmGeometry(win.Window, fmt.Sprintf("+%d+%d", x, v.origin.Y))
		lbl := win.Label(Image(NewPhoto(Data(pngData))), Background("black"), Borderwidth(0))
		Pack(lbl)
		makeClickThrough(title)
		v.icons[name] = &iconWindow{win: win, label: lbl}
	})
}

// Remove destroys the icon window for name if present; a no-op when absent.
// The no-op case is intentional: reconciliation may ask to remove icons
// that were never shown.
func (v *OverlayView) Remove(name string) {
	ic, ok := v.icons[name]
	if !ok {
		return
	}
	delete(v.icons, name)
	if v.gone.Load() {
		return
	}
	v.guarded("remove", func() { Destroy(ic.win) })
}

// Close tears down all icon windows.
func (v *OverlayView) Close() {
	for name := range v.icons {
		v.Remove(name)
	}
	v.gone.Store(true)
}

func (v *OverlayView) guarded(op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			v.gone.Store(true)
			if v.logger != nil {
				v.logger.Warn("overlay surface gone", "op", op, "error", fmt.Sprint(r))
			}
		}
	}()
	fn()
}
