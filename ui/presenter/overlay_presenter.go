// Package presenter drives the Tk-side reconciliation loop: it drains queued
// UI commands, reflects the latest detection snapshot onto the overlay
// surface, and reschedules itself via the Tk timer.
package presenter

import (
	"log/slog"

	"github.com/soocke/buff-scanner-go/domain/scan"
	"github.com/soocke/buff-scanner-go/ui/images"
)

// Surface is the overlay rendering contract. Upsert creates or refreshes the
// icon for name at its slot; Remove hides it (no-op when absent); Alive
// reports whether the surface can still be drawn to.
type Surface interface {
	Upsert(name string, index int, pngData []byte)
	Remove(name string)
	Alive() bool
}

// StatusSurface receives the scanner state text.
type StatusSurface interface {
	SetState(text string)
}

// OverlayPresenter reconciles detection records onto a Surface. Every still
// active template gets its displayed image replaced with the latest matched
// crop each cycle, so the icon always shows what is on screen right now.
type OverlayPresenter struct {
	logger  *slog.Logger
	catalog *scan.Catalog
	store   *scan.Store
	surface Surface
	shown   map[string]bool
	stopped bool
}

func NewOverlayPresenter(catalog *scan.Catalog, store *scan.Store, surface Surface, logger *slog.Logger) *OverlayPresenter {
	return &OverlayPresenter{
		logger:  logger,
		catalog: catalog,
		store:   store,
		surface: surface,
		shown:   map[string]bool{},
	}
}

// Reconcile pushes one snapshot onto the surface. Returns false once the
// surface is gone; the presenter then stays stopped.
func (p *OverlayPresenter) Reconcile() bool {
	if p == nil || p.stopped {
		return false
	}
	if !p.surface.Alive() {
		p.stopped = true
		if p.logger != nil {
			p.logger.Warn("overlay surface gone, renderer stopping")
		}
		return false
	}
	snap := p.store.Snapshot()
	for i, t := range p.catalog.Templates() {
		rec, ok := snap[t.Name]
		if ok && rec.Active && rec.Crop != nil {
			p.surface.Upsert(t.Name, i, images.EncodePNG(rec.Crop))
			p.shown[t.Name] = true
		} else if p.shown[t.Name] {
			p.surface.Remove(t.Name)
			delete(p.shown, t.Name)
		}
	}
	return true
}

// Loop ties the presenter to the Tk timer. Tick runs on the Tk thread: it
// drains pending UI commands, updates the status label, reconciles the
// overlay, and reschedules unless the surface is gone.
type Loop struct {
	logger   *slog.Logger
	commands <-chan func()
	overlay  *OverlayPresenter
	status   StatusSurface
	state    func() string
	schedule func(tick func())
}

func NewLoop(commands <-chan func(), overlay *OverlayPresenter, status StatusSurface, state func() string, schedule func(tick func()), logger *slog.Logger) *Loop {
	return &Loop{
		logger:   logger,
		commands: commands,
		overlay:  overlay,
		status:   status,
		state:    state,
		schedule: schedule,
	}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	l.drain()
	if l.status != nil && l.state != nil {
		l.status.SetState(l.state())
	}
	alive := true
	if l.overlay != nil {
		alive = l.overlay.Reconcile()
	}
	if alive && l.schedule != nil {
		l.schedule(l.Tick)
	}
}

func (l *Loop) drain() {
	for {
		select {
		case fn := <-l.commands:
			if fn != nil {
				fn()
			}
		default:
			return
		}
	}
}
