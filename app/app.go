// Package app assembles the scanner: catalog, detection store, monitor,
// overlay views, presenter loop, controller and hotkeys.
package app

import (
	"image"
	"log/slog"
	"path/filepath"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"

	"github.com/soocke/buff-scanner-go/config"
	"github.com/soocke/buff-scanner-go/debug"
	"github.com/soocke/buff-scanner-go/domain/capture"
	"github.com/soocke/buff-scanner-go/domain/scan"
	"github.com/soocke/buff-scanner-go/hotkey"
	"github.com/soocke/buff-scanner-go/ui/presenter"
	"github.com/soocke/buff-scanner-go/ui/view"
)

const debugLogInterval = 10 * time.Second

// AppContainer assembles models, services, presenters and the views.
type AppContainer struct {
	Config  *config.Config
	Logger  *slog.Logger
	Catalog *scan.Catalog
	Store   *scan.Store
	Monitor *scan.Monitor

	Overlay    *view.OverlayView
	Status     *view.StatusView
	Selector   *view.RegionSelector
	Controller *Controller
	Hotkeys    *hotkey.Manager
	Loop       *presenter.Loop
}

// BuildContainer constructs all components. Side-effects limited to template
// loading; the Tk window is only touched in Run.
func BuildContainer(cfg *config.Config, cfgPath string, logger *slog.Logger) *AppContainer {
	c := &AppContainer{Config: cfg, Logger: logger}
	c.Catalog = scan.LoadCatalog(cfg.Buffs, filepath.Dir(cfgPath), nil, logger)
	c.Store = scan.NewStore(c.Catalog)
	c.Monitor = scan.NewMonitor(logger, capture.NewScreenSource(), c.Catalog, c.Store, c.monitorParams)

	c.Overlay = view.NewOverlayView(image.Pt(cfg.OverlayPos[0], cfg.OverlayPos[1]), cfg.IconSpacing, logger)
	c.Status = view.NewStatusView(logger)
	c.Selector = view.NewRegionSelector(logger)
	c.Controller = NewController(logger, cfg, cfgPath, c.Monitor, c.Selector.Open, nil)
	c.Hotkeys = hotkey.NewManager(logger)

	overlayPresenter := presenter.NewOverlayPresenter(c.Catalog, c.Store, c.Overlay, logger)
	interval := time.Duration(cfg.OverlayIntervalMS) * time.Millisecond
	c.Loop = presenter.NewLoop(
		c.Controller.UICommands(),
		overlayPresenter,
		c.Status,
		func() string { return c.Monitor.State().String() },
		func(tick func()) { TclAfter(interval, tick) },
		logger,
	)
	return c
}

// monitorParams is read once per scan start; a region picked mid-run applies
// on the next start.
func (c *AppContainer) monitorParams() scan.Params {
	r := c.Config.SearchRegion
	return scan.Params{
		Region:    scan.Region{Left: r[0], Top: r[1], Right: r[2], Bottom: r[3]},
		Threshold: c.Config.Threshold,
		Interval:  time.Duration(c.Config.ScanIntervalMS) * time.Millisecond,
		Backoff:   time.Duration(c.Config.CaptureBackoffMS) * time.Millisecond,
	}
}

// Run builds the status window, installs hotkeys, kicks off the presenter
// loop and blocks in the Tk event loop until quit.
func (c *AppContainer) Run() {
	c.Status.Build(c.Config.Hotkeys, c.Controller.Toggle, c.Controller.SelectRegion, c.Controller.Quit)

	bind := func(combo string, action func()) {
		if err := c.Hotkeys.Register(combo, action); err != nil {
			c.Logger.Error("hotkey unavailable", "combo", combo, "error", err)
		}
	}
	bind(c.Config.Hotkeys.Toggle, c.Controller.Toggle)
	bind(c.Config.Hotkeys.SelectRegion, c.Controller.SelectRegion)
	bind(c.Config.Hotkeys.Quit, c.Controller.Quit)
	c.Hotkeys.Start()

	if c.Config.Debug {
		debug.StartGoroutineWatcher(debugLogInterval, c.Logger)
		debug.StartMemWatcher(debugLogInterval, c.Logger)
	}

	c.Logger.Info("scanner ready",
		"templates", c.Catalog.Len(),
		"region", c.monitorParams().Region.String(),
		"threshold", c.Config.Threshold,
	)

	c.Loop.Tick()
	App.Wait()
}
