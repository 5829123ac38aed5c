// Package config loads the figpad configuration file.
//
// The file is TOML:
//
//	font = "solid_box_small"
//	width = 80
//	fonts_dir = "~/.local/share/figpad/fonts"
//	fetch_timeout = "10s"
//
//	[[fonts]]
//	id = "standard"
//	location = "https://example.com/fonts/standard.flf"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultFetchTimeout bounds font fetches when the file does not set one.
const DefaultFetchTimeout = 30 * time.Second

// Font is an extra catalog entry.
type Font struct {
	ID          string `toml:"id"`
	Location    string `toml:"location"`
	Description string `toml:"description"`
}

// Duration reads TOML strings such as "1m30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("negative duration %q", text)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds the settings shared by every command. Flags override it.
type Config struct {
	Font         string   `toml:"font"`
	Width        int      `toml:"width"`
	FontsDir     string   `toml:"fonts_dir"`
	FontsURL     string   `toml:"fonts_url"`
	FetchTimeout Duration `toml:"fetch_timeout"`
	Trim         bool     `toml:"trim"`
	Fonts        []Font   `toml:"fonts"`

	// Path is the file the config was read from, empty for defaults
	Path string `toml:"-"`
}

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{
		Font:         "solid_box_small",
		FetchTimeout: Duration{DefaultFetchTimeout},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/figpad/config.toml, falling back to
// the platform config directory.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "figpad", "config.toml"), nil
}

// Load reads the file at path over the defaults. An empty path means
// DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.decode(string(data)); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse reads TOML text over the defaults.
func Parse(text string) (Config, error) {
	cfg := Default()
	err := cfg.decode(text)
	return cfg, err
}

func (c *Config) decode(text string) error {
	md, err := toml.Decode(text, c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	c.FontsDir = expandHome(c.FontsDir)
	return c.Validate()
}

// Validate reports settings no command could use.
func (c *Config) Validate() error {
	if c.Width < 0 {
		return fmt.Errorf("width must not be negative, got %d", c.Width)
	}
	if c.FontsURL != "" && !strings.HasPrefix(c.FontsURL, "http://") && !strings.HasPrefix(c.FontsURL, "https://") {
		return fmt.Errorf("fonts_url must be an http or https url, got %q", c.FontsURL)
	}
	seen := make(map[string]bool, len(c.Fonts))
	for i, f := range c.Fonts {
		if f.ID == "" || f.Location == "" {
			return fmt.Errorf("fonts[%d]: id and location are required", i)
		}
		if seen[f.ID] {
			return fmt.Errorf("fonts[%d]: duplicate id %q", i, f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
