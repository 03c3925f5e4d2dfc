// Package config handles configuration loading and validation for tasks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Placement values for lists.uncomplete_placement.
const (
	// PlacementTop moves an uncompleted item to the head of its list.
	PlacementTop = "top"
	// PlacementBoundary moves an uncompleted item to just above the first
	// completed item.
	PlacementBoundary = "boundary"
)

// Config holds the application configuration.
type Config struct {
	Gestures GesturesConfig `yaml:"gestures"`
	Lists    ListsConfig    `yaml:"lists"`
	Theme    ThemeConfig    `yaml:"theme"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// GesturesConfig tunes the interaction thresholds.
type GesturesConfig struct {
	// IconWidth is the swipe distance, in pointer units, that arms an action.
	IconWidth float64 `yaml:"icon_width"`
	// ColumnsPerIcon is how many terminal columns a full icon width spans.
	ColumnsPerIcon int `yaml:"columns_per_icon"`
	// RowHeight is the height of one row in terminal lines.
	RowHeight          int           `yaml:"row_height"`
	AutoscrollInterval time.Duration `yaml:"autoscroll_interval"`
	// AutoscrollMargin is the number of lines at each viewport edge that
	// trigger autoscroll while reordering.
	AutoscrollMargin int           `yaml:"autoscroll_margin"`
	LongPress        time.Duration `yaml:"long_press"`
}

// ListsConfig holds list behaviour options.
type ListsConfig struct {
	DefaultName         string   `yaml:"default_name"`
	UncompletePlacement string   `yaml:"uncomplete_placement"`
	Hidden              []string `yaml:"hidden"` // doublestar globs matched against list names
}

// ThemeConfig holds the UI theme and the gradient palettes as hex colors.
type ThemeConfig struct {
	Name       string   `yaml:"name"`
	TaskColors []string `yaml:"task_colors"`
	ListColors []string `yaml:"list_colors"`
}

// AuthConfig points at the authentication endpoint.
type AuthConfig struct {
	URL       string        `yaml:"url"`
	AppID     string        `yaml:"app_id"`
	RealmPath string        `yaml:"realm_path"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Gestures: GesturesConfig{
			IconWidth:          60,
			ColumnsPerIcon:     6,
			RowHeight:          1,
			AutoscrollInterval: 10 * time.Millisecond,
			AutoscrollMargin:   1,
			LongPress:          200 * time.Millisecond,
		},
		Lists: ListsConfig{
			DefaultName:         "My Tasks",
			UncompletePlacement: PlacementTop,
		},
		Theme: ThemeConfig{
			Name: "tokyo-night",
		},
		Auth: AuthConfig{
			URL:       "http://127.0.0.1:9080/auth",
			AppID:     "io.realm.RealmTasks",
			RealmPath: "realmtasks",
			Timeout:   10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 2,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	if c.Gestures.IconWidth == 0 {
		c.Gestures.IconWidth = d.Gestures.IconWidth
	}
	if c.Gestures.ColumnsPerIcon == 0 {
		c.Gestures.ColumnsPerIcon = d.Gestures.ColumnsPerIcon
	}
	if c.Gestures.RowHeight == 0 {
		c.Gestures.RowHeight = d.Gestures.RowHeight
	}
	if c.Gestures.AutoscrollInterval == 0 {
		c.Gestures.AutoscrollInterval = d.Gestures.AutoscrollInterval
	}
	if c.Gestures.LongPress == 0 {
		c.Gestures.LongPress = d.Gestures.LongPress
	}
	if c.Lists.DefaultName == "" {
		c.Lists.DefaultName = d.Lists.DefaultName
	}
	if c.Lists.UncompletePlacement == "" {
		c.Lists.UncompletePlacement = d.Lists.UncompletePlacement
	}
	if c.Theme.Name == "" {
		c.Theme.Name = d.Theme.Name
	}
	if c.Auth.Timeout == 0 {
		c.Auth.Timeout = d.Auth.Timeout
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = d.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = d.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = d.Database.BusyTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Gestures.IconWidth <= 0 {
		return fmt.Errorf("gestures.icon_width must be positive")
	}
	if c.Gestures.ColumnsPerIcon < 1 {
		return fmt.Errorf("gestures.columns_per_icon must be at least 1")
	}
	if c.Gestures.RowHeight < 1 {
		return fmt.Errorf("gestures.row_height must be at least 1")
	}
	if c.Gestures.AutoscrollInterval < time.Millisecond {
		return fmt.Errorf("gestures.autoscroll_interval must be at least 1ms")
	}
	if c.Gestures.AutoscrollMargin < 0 {
		return fmt.Errorf("gestures.autoscroll_margin cannot be negative")
	}

	switch c.Lists.UncompletePlacement {
	case PlacementTop, PlacementBoundary:
	default:
		return fmt.Errorf("lists.uncomplete_placement must be %q or %q, got %q",
			PlacementTop, PlacementBoundary, c.Lists.UncompletePlacement)
	}

	if n := len(c.Theme.TaskColors); n == 1 {
		return fmt.Errorf("theme.task_colors needs at least 2 colors")
	}
	if n := len(c.Theme.ListColors); n == 1 {
		return fmt.Errorf("theme.list_colors needs at least 2 colors")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}
	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout cannot be negative")
	}

	return nil
}

// DatabaseFile returns the path to the SQLite database.
func (c *Config) DatabaseFile() string {
	return filepath.Join(c.DataDir, "tasks.db")
}

// PointerScale converts terminal columns to swipe pointer units, so that
// ColumnsPerIcon columns equal one IconWidth.
func (c *Config) PointerScale() float64 {
	return c.Gestures.IconWidth / float64(c.Gestures.ColumnsPerIcon)
}
