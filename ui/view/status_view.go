package view

import (
	"fmt"
	"log/slog"

	"github.com/soocke/buff-scanner-go/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// StatusView is the small control window on the root Tk window: scanner
// state, hotkey hints, and buttons mirroring the hotkey actions. Closing the
// window quits the application.
type StatusView struct {
	logger     *slog.Logger
	StateLabel *LabelWidget
}

func NewStatusView(logger *slog.Logger) *StatusView {
	return &StatusView{logger: logger}
}

// Build constructs the layout and wires the action callbacks. Must run on
// the Tk thread before the event loop starts.
func (v *StatusView) Build(hk config.Hotkeys, onToggle, onSelectRegion, onQuit func()) {
	if v == nil {
		return
	}
	App.WmTitle("Buff Scanner")
	WmAttributes(App, "-topmost", 1)
	WmProtocol(App, "WM_DELETE_WINDOW", onQuit)

	v.StateLabel = Label(Txt("State: idle"), Borderwidth(1), Relief("ridge"))
	Grid(v.StateLabel, Row(0), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	rows := []struct {
		label  string
		combo  string
		action func()
	}{
		{"Toggle Scan", hk.Toggle, onToggle},
		{"Select Region", hk.SelectRegion, onSelectRegion},
		{"Quit", hk.Quit, onQuit},
	}
	for i, r := range rows {
		btn := Button(Txt(r.label), Command(r.action))
		Grid(btn, Row(i+1), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
		hint := Label(Txt(fmt.Sprintf("[%s]", r.combo)))
		Grid(hint, Row(i+1), Column(1), Sticky("w"), Padx("0.2m"), Pady("0.2m"))
	}
	GridColumnConfigure(App, 0, Weight(1))
}

// SetState updates the state label. No-op once the window is torn down.
func (v *StatusView) SetState(text string) {
	if v == nil || v.StateLabel == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && v.logger != nil {
			v.logger.Debug("state label update after teardown", "error", fmt.Sprint(r))
		}
	}()
	v.StateLabel.Configure(Txt("State: " + text))
}
