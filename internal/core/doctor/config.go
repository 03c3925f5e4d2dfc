package doctor

import (
	"context"
	"errors"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/tasks/internal/core/config"
)

// ConfigCheck runs the deep configuration validation.
type ConfigCheck struct {
	cfg  *config.Config
	path string
}

// NewConfigCheck creates a check of cfg as loaded from path.
func NewConfigCheck(cfg *config.Config, path string) *ConfigCheck {
	return &ConfigCheck{cfg: cfg, path: path}
}

func (c *ConfigCheck) Name() string {
	return "Configuration"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if err := c.cfg.ValidateDeep(c.path); err != nil {
		var fieldErrs criterio.FieldErrors
		if !errors.As(err, &fieldErrs) {
			result.add("config", StatusFail, err.Error())
			return result
		}
		for _, fe := range fieldErrs {
			result.add(fe.Field, StatusFail, fe.Err.Error())
		}
		return result
	}

	for _, w := range c.cfg.Warnings() {
		label := w.Category
		if w.Item != "" {
			label += " " + w.Item
		}
		result.add(label, StatusWarn, w.Message)
	}

	result.add("theme", StatusPass, c.cfg.Theme.Name)
	return result
}
