package app

import (
	"log/slog"
	"os"

	"github.com/soocke/buff-scanner-go/config"
	"github.com/soocke/buff-scanner-go/domain/scan"
)

// MonitorControl is the slice of the scan monitor the controller drives.
type MonitorControl interface {
	Start() bool
	Stop() bool
	Running() bool
	Close()
}

// SelectorOpener shows the region selection window on the UI thread and
// calls done exactly once with the result.
type SelectorOpener func(done func(scan.Region, bool))

// Controller serializes user triggers (hotkeys, buttons, window close) onto
// one event goroutine. Triggers arriving from any thread post events; state
// transitions and config persistence happen only inside the loop. UI work
// (the region selector) is handed to the Tk thread through the command
// channel drained by the presenter tick.
type Controller struct {
	logger       *slog.Logger
	cfg          *config.Config
	cfgPath      string
	monitor      MonitorControl
	openSelector SelectorOpener
	exit         func(int)

	events chan any
	ui     chan func()

	selecting bool
}

type (
	evtToggle       struct{}
	evtSelectRegion struct{}
	evtRegionPicked struct {
		region scan.Region
		ok     bool
	}
	evtQuit struct{}
)

// NewController wires the controller and starts its event loop. exit may be
// nil, defaulting to os.Exit.
func NewController(logger *slog.Logger, cfg *config.Config, cfgPath string, monitor MonitorControl, openSelector SelectorOpener, exit func(int)) *Controller {
	if exit == nil {
		exit = os.Exit
	}
	c := &Controller{
		logger:       logger,
		cfg:          cfg,
		cfgPath:      cfgPath,
		monitor:      monitor,
		openSelector: openSelector,
		exit:         exit,
		events:       make(chan any, 16),
		ui:           make(chan func(), 4),
	}
	go c.loop()
	return c
}

// Toggle flips the monitor between running and paused.
func (c *Controller) Toggle() { c.post(evtToggle{}) }

// SelectRegion opens the region selector. Duplicate triggers while a
// selection is pending are ignored.
func (c *Controller) SelectRegion() { c.post(evtSelectRegion{}) }

// Quit terminates the monitor and exits the process. Unlike the other
// triggers it blocks until queued: quit must go through even when the event
// queue is saturated.
func (c *Controller) Quit() { c.events <- evtQuit{} }

// UICommands is drained on the Tk thread by the presenter tick.
func (c *Controller) UICommands() <-chan func() { return c.ui }

func (c *Controller) post(ev any) {
	select {
	case c.events <- ev:
	default:
		if c.logger != nil {
			c.logger.Warn("controller event dropped, queue full")
		}
	}
}

func (c *Controller) pushUI(fn func()) {
	select {
	case c.ui <- fn:
	default:
		if c.logger != nil {
			c.logger.Warn("ui command dropped, queue full")
		}
	}
}

func (c *Controller) loop() {
	defer func() {
		if r := recover(); r != nil && c.logger != nil {
			c.logger.Error("controller loop panic", "error", r)
		}
	}()
	for ev := range c.events {
		switch e := ev.(type) {
		case evtToggle:
			c.handleToggle()
		case evtSelectRegion:
			c.handleSelectRegion()
		case evtRegionPicked:
			c.handleRegionPicked(e)
		case evtQuit:
			c.handleQuit()
			return
		}
	}
}

func (c *Controller) handleToggle() {
	if c.monitor.Running() {
		c.monitor.Stop()
	} else if !c.monitor.Start() && c.logger != nil {
		c.logger.Warn("toggle ignored, monitor not startable")
	}
}

func (c *Controller) handleSelectRegion() {
	if c.selecting {
		if c.logger != nil {
			c.logger.Debug("region selection already open")
		}
		return
	}
	c.selecting = true
	open := c.openSelector
	c.pushUI(func() {
		open(func(r scan.Region, ok bool) {
			c.post(evtRegionPicked{region: r, ok: ok})
		})
	})
}

// handleRegionPicked persists a confirmed region. A running scan keeps its
// original region; the new one applies on the next start.
func (c *Controller) handleRegionPicked(e evtRegionPicked) {
	c.selecting = false
	if !e.ok {
		if c.logger != nil {
			c.logger.Info("region selection cancelled")
		}
		return
	}
	if !e.region.Valid() {
		if c.logger != nil {
			c.logger.Warn("selected region invalid, keeping previous", "region", e.region.String())
		}
		return
	}
	c.cfg.SearchRegion = [4]int{e.region.Left, e.region.Top, e.region.Right, e.region.Bottom}
	if err := c.cfg.Save(c.cfgPath); err != nil {
		if c.logger != nil {
			c.logger.Error("config save failed", "error", err)
		}
		return
	}
	if c.logger != nil {
		c.logger.Info("search region updated, applies on next scan start", "region", e.region.String())
	}
}

func (c *Controller) handleQuit() {
	c.monitor.Close()
	if c.logger != nil {
		c.logger.Info("quit requested")
	}
	c.exit(0)
}
