package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"

	"github.com/colonyops/tasks/internal/core/gradient"
	"github.com/colonyops/tasks/internal/core/styles"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// palettes, glob patterns, and file accessibility. The configPath argument
// specifies the config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateTheme(),
		c.validateHidden(),
		criterio.Run("auth.url", c.Auth.URL, isHTTPURL),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	for i, pattern := range c.Lists.Hidden {
		if pattern == "*" || pattern == "**" {
			warnings = append(warnings, ValidationWarning{
				Category: "Lists",
				Item:     fmt.Sprintf("hidden[%d]", i),
				Message:  "pattern hides every list",
			})
		}
	}

	if c.Gestures.AutoscrollMargin == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Gestures",
			Item:     "autoscroll_margin",
			Message:  "autoscroll is disabled while reordering",
		})
	}

	return warnings
}

// validateFileAccess checks the config file and data directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func (c *Config) validateTheme() error {
	var errs criterio.FieldErrorsBuilder
	if _, ok := styles.GetPalette(c.Theme.Name); !ok {
		errs = errs.Append("theme.name", fmt.Errorf("unknown theme %q, available: %v", c.Theme.Name, styles.ThemeNames()))
	}
	if len(c.Theme.TaskColors) > 0 {
		if _, err := gradient.ParsePalette(c.Theme.TaskColors); err != nil {
			errs = errs.Append("theme.task_colors", err)
		}
	}
	if len(c.Theme.ListColors) > 0 {
		if _, err := gradient.ParsePalette(c.Theme.ListColors); err != nil {
			errs = errs.Append("theme.list_colors", err)
		}
	}
	return errs.ToError()
}

func (c *Config) validateHidden() error {
	var errs criterio.FieldErrorsBuilder
	for i, pattern := range c.Lists.Hidden {
		if !doublestar.ValidatePattern(pattern) {
			errs = errs.Append(fmt.Sprintf("lists.hidden[%d]", i), fmt.Errorf("invalid glob %q", pattern))
		}
	}
	return errs.ToError()
}

func isHTTPURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url has no host")
	}
	return nil
}

// TaskPalette returns the configured task palette or the built-in one.
func (c *Config) TaskPalette() gradient.Palette {
	if p, err := gradient.ParsePalette(c.Theme.TaskColors); err == nil {
		return p
	}
	return gradient.TaskColors
}

// ListPalette returns the configured list palette or the built-in one.
func (c *Config) ListPalette() gradient.Palette {
	if p, err := gradient.ParsePalette(c.Theme.ListColors); err == nil {
		return p
	}
	return gradient.ListColors
}

// IsHidden reports whether a list name matches any lists.hidden glob.
func (c *Config) IsHidden(name string) bool {
	for _, pattern := range c.Lists.Hidden {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
