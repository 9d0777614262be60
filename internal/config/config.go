package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

const (
	appDirName = "ScreenPrompt"
	fileName   = "config.json"
)

// ErrNoConfigDir indicates no per-user configuration directory could be
// resolved.
var ErrNoConfigDir = errors.New("no user configuration directory")

// defaultJSON is the canonical settings schema. Every module reads these
// exact key names; new keys are added here with their default value.
const defaultJSON = `{
  "x": 100,
  "y": 100,
  "width": 400,
  "height": 200,
  "opacity": 0.85,
  "font_family": "Consolas",
  "font_size": 11,
  "font_color": "#FFFFFF",
  "bg_color": "#2d2d2d",
  "text": "",
  "first_run_shown": false,
  "locked": false,
  "panic_key": 27
}`

// Dir returns the per-user settings directory.
func Dir() (string, error) {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appDirName), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", ErrNoConfigDir
	}
	return filepath.Join(base, appDirName), nil
}

// DefaultPath returns the default settings file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Config holds the settings document. All accessors are safe for
// concurrent use.
type Config struct {
	mu   sync.RWMutex
	path string
	raw  []byte
}

// Load reads the settings file at path, merging saved values over the
// defaults. A missing or unreadable file yields the defaults; Load only
// fails when path itself cannot be resolved.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	c := &Config{path: path}
	c.raw = mergeOverDefaults(readFile(path))
	return c, nil
}

// readFile returns the file's contents, or nil when it cannot be read.
func readFile(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}

// pathEscaper quotes the characters gjson/sjson paths treat specially,
// so a raw top-level key (which may contain dots) addresses exactly one
// flat key instead of a nested path.
var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`:`, `\:`,
	`*`, `\*`,
	`?`, `\?`,
)

// mergeOverDefaults overlays every top-level key of saved onto the
// default document. Invalid input is discarded wholesale rather than
// half-merged.
func mergeOverDefaults(saved []byte) []byte {
	doc := []byte(defaultJSON)
	if len(saved) == 0 || !gjson.ValidBytes(saved) {
		return doc
	}
	gjson.ParseBytes(saved).ForEach(func(key, value gjson.Result) bool {
		merged, err := sjson.SetRawBytes(doc, pathEscaper.Replace(key.String()), []byte(value.Raw))
		if err == nil {
			doc = merged
		}
		return true
	})
	return doc
}

// Path returns the settings file location.
func (c *Config) Path() string {
	return c.path
}

// JSON returns a copy of the current settings document.
func (c *Config) JSON() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]byte(nil), c.raw...)
}

// Reload re-reads the settings file and replaces the in-memory document.
func (c *Config) Reload() {
	doc := mergeOverDefaults(readFile(c.path))
	c.mu.Lock()
	c.raw = doc
	c.mu.Unlock()
}

// Save writes the current document to disk, creating the settings
// directory if needed.
func (c *Config) Save() error {
	c.mu.RLock()
	doc := pretty.PrettyOptions(c.raw, &pretty.Options{Indent: "  "})
	c.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.path, doc, 0o644)
}

// Get returns the value at a settings key.
func (c *Config) Get(key string) gjson.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return gjson.GetBytes(c.raw, key)
}

// Set updates a settings key in memory. Save persists the change.
func (c *Config) Set(key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	updated, err := sjson.SetBytes(c.raw, key, value)
	if err != nil {
		return err
	}
	c.raw = updated
	return nil
}

// Window geometry.

// X returns the window's saved left edge.
func (c *Config) X() int { return int(c.Get("x").Int()) }

// Y returns the window's saved top edge.
func (c *Config) Y() int { return int(c.Get("y").Int()) }

// Width returns the window's saved width.
func (c *Config) Width() int { return int(c.Get("width").Int()) }

// Height returns the window's saved height.
func (c *Config) Height() int { return int(c.Get("height").Int()) }

// SetBounds stores the window geometry.
func (c *Config) SetBounds(x, y, width, height int) error {
	for key, v := range map[string]int{"x": x, "y": y, "width": width, "height": height} {
		if err := c.Set(key, v); err != nil {
			return err
		}
	}
	return nil
}

// Appearance.

// Opacity returns the overlay opacity in [0, 1].
func (c *Config) Opacity() float64 { return c.Get("opacity").Float() }

// FontFamily returns the prompt font family.
func (c *Config) FontFamily() string { return c.Get("font_family").String() }

// FontSize returns the prompt font size in points.
func (c *Config) FontSize() int { return int(c.Get("font_size").Int()) }

// FontColor returns the prompt text color.
func (c *Config) FontColor() string { return c.Get("font_color").String() }

// BgColor returns the overlay background color.
func (c *Config) BgColor() string { return c.Get("bg_color").String() }

// State.

// Text returns the saved prompt text.
func (c *Config) Text() string { return c.Get("text").String() }

// SetText stores the prompt text.
func (c *Config) SetText(text string) error { return c.Set("text", text) }

// Locked reports whether the overlay starts in click-through mode.
func (c *Config) Locked() bool { return c.Get("locked").Bool() }

// SetLocked stores the click-through state.
func (c *Config) SetLocked(locked bool) error { return c.Set("locked", locked) }

// PanicKey returns the virtual key code of the emergency-unlock key.
func (c *Config) PanicKey() uint32 { return uint32(c.Get("panic_key").Uint()) }

// IsFirstRun reports whether the first-run notice has never been shown.
func (c *Config) IsFirstRun() bool {
	if _, err := os.Stat(c.path); err != nil {
		return true
	}
	return !c.Get("first_run_shown").Bool()
}

// MarkFirstRunComplete records that the first-run notice was shown and
// persists the document.
func (c *Config) MarkFirstRunComplete() error {
	if err := c.Set("first_run_shown", true); err != nil {
		return err
	}
	return c.Save()
}
