package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Hotkeys names the trigger combos handled by the controller. Values are
// opaque combo strings like "f8" or "shift+f9"; the hotkey package parses
// them.
type Hotkeys struct {
	Toggle       string `json:"toggle"`
	SelectRegion string `json:"select_region"`
	Quit         string `json:"quit"`
}

// BuffDecl declares one template in the catalog. File is resolved relative
// to the config file's directory. DurationSec is optional metadata carried
// on the template (null means unknown).
type BuffDecl struct {
	Name        string   `json:"name"`
	File        string   `json:"file"`
	Refreshable bool     `json:"refreshable"`
	DurationSec *float64 `json:"duration"`
}

// Config holds runtime configuration for scanning and overlay behavior.
// It is persisted as JSON and rewritten whenever region selection succeeds.
type Config struct {
	// SearchRegion is [left, top, right, bottom] in screen pixels.
	SearchRegion [4]int `json:"search_region"`
	// OverlayPos is the [x, y] screen position of the first overlay icon.
	OverlayPos [2]int     `json:"overlay_pos"`
	Threshold  float64    `json:"threshold"`
	Hotkeys    Hotkeys    `json:"hotkeys"`
	Buffs      []BuffDecl `json:"buffs"`

	IconSpacing       int `json:"icon_spacing"`
	ScanIntervalMS    int `json:"scan_interval_ms"`
	OverlayIntervalMS int `json:"overlay_interval_ms"`
	CaptureBackoffMS  int `json:"capture_backoff_ms"`

	Debug bool `json:"debug"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		SearchRegion: [4]int{300, 1000, 1100, 1050},
		OverlayPos:   [2]int{100, 100},
		Threshold:    0.82,
		Hotkeys: Hotkeys{
			Toggle:       "f8",
			SelectRegion: "shift+f9",
			Quit:         "f10",
		},
		Buffs:             nil,
		IconSpacing:       70,
		ScanIntervalMS:    50,
		OverlayIntervalMS: 50,
		CaptureBackoffMS:  50,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	if c.Threshold <= 0 || c.Threshold > 1 {
		c.Threshold = 0.82
	}
	if c.SearchRegion[2] <= c.SearchRegion[0] || c.SearchRegion[3] <= c.SearchRegion[1] {
		c.SearchRegion = DefaultConfig().SearchRegion
	}
	if c.IconSpacing <= 0 {
		c.IconSpacing = 70
	}
	if c.ScanIntervalMS <= 0 {
		c.ScanIntervalMS = 50
	}
	if c.OverlayIntervalMS <= 0 {
		c.OverlayIntervalMS = 50
	}
	if c.CaptureBackoffMS <= 0 {
		c.CaptureBackoffMS = 50
	}
	if c.Hotkeys.Toggle == "" {
		c.Hotkeys.Toggle = "f8"
	}
	if c.Hotkeys.SelectRegion == "" {
		c.Hotkeys.SelectRegion = "shift+f9"
	}
	if c.Hotkeys.Quit == "" {
		c.Hotkeys.Quit = "f10"
	}
	return nil
}

// Load reads configuration from the given JSON file path. A missing or
// corrupt file is recovered from, not fatal: defaults are written back to
// path so the user has a file to edit, with the buff list seeded from the
// templates directory next to it. The decode error is still returned so the
// caller can report the recovery.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Buffs = DiscoverBuffs(filepath.Dir(path))
			return cfg, cfg.Save(path)
		}
		return cfg, err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		cfg = DefaultConfig()
		cfg.Buffs = DiscoverBuffs(filepath.Dir(path))
		_ = cfg.Save(path)
		return cfg, err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// DiscoverBuffs seeds a first-run buff list from templates/*.png under dir,
// sorted by filename, named after the file stem.
func DiscoverBuffs(dir string) []BuffDecl {
	matches, err := filepath.Glob(filepath.Join(dir, "templates", "*.png"))
	if err != nil || len(matches) == 0 {
		return nil
	}
	sort.Strings(matches)
	decls := make([]BuffDecl, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		decls = append(decls, BuffDecl{
			Name:        strings.TrimSuffix(base, filepath.Ext(base)),
			File:        filepath.Join("templates", base),
			Refreshable: true,
		})
	}
	return decls
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
