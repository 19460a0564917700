// Package hotkey registers global key combinations and fires callbacks when
// they are pressed. Combos are opaque strings from config, e.g. "f8" or
// "shift+f9". One hook event loop serves all registered bindings.
package hotkey

import (
	"fmt"
	"log/slog"
	"strings"

	hook "github.com/robotn/gohook"
)

// Manager collects bindings before starting the OS hook.
type Manager struct {
	logger   *slog.Logger
	bindings []binding
}

type binding struct {
	combo  string
	keys   []string
	action func()
}

func NewManager(logger *slog.Logger) *Manager {
	return &Manager{logger: logger}
}

// Register adds a combo → action binding. Must be called before Start.
func (m *Manager) Register(combo string, action func()) error {
	keys := ParseCombo(combo)
	if len(keys) == 0 {
		return fmt.Errorf("hotkey: empty combo %q", combo)
	}
	m.bindings = append(m.bindings, binding{combo: combo, keys: keys, action: action})
	return nil
}

// Start installs all bindings and runs the hook event loop in a goroutine.
// Callbacks fire on the hook goroutine; actions must not block.
func (m *Manager) Start() {
	for _, b := range m.bindings {
		b := b
		hook.Register(hook.KeyDown, b.keys, func(e hook.Event) {
			if m.logger != nil {
				m.logger.Debug("hotkey fired", "combo", b.combo)
			}
			b.action()
		})
		if m.logger != nil {
			m.logger.Info("hotkey registered", "combo", b.combo)
		}
	}
	go func() {
		defer func() {
			if r := recover(); r != nil && m.logger != nil {
				m.logger.Error("hotkey loop panic", "error", r)
			}
		}()
		s := hook.Start()
		<-hook.Process(s)
		if m.logger != nil {
			m.logger.Info("hotkey loop ended")
		}
	}()
}

// Stop tears down the OS hook.
func (m *Manager) Stop() { hook.End() }

// ParseCombo normalizes a combo string into gohook key names.
func ParseCombo(combo string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch part {
		case "control":
			part = "ctrl"
		case "escape":
			part = "esc"
		case "windows", "win", "super":
			part = "cmd"
		case "return":
			part = "enter"
		}
		keys = append(keys, part)
	}
	return keys
}
