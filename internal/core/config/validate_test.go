package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	return &cfg
}

func hasField(errs criterio.FieldErrors, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidateDeep_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	cfg.Theme.TaskColors = []string{"#e7a776", "#38477e"}
	cfg.Lists.Hidden = []string{"archive/**", "tmp-*"}

	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_InvalidPalette(t *testing.T) {
	cfg := validConfig(t)
	cfg.Theme.ListColors = []string{"#0693fb", "blue-ish"}

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 1)
	assert.Equal(t, "theme.list_colors", fieldErrs[0].Field)
}

func TestValidateDeep_UnknownTheme(t *testing.T) {
	cfg := validConfig(t)
	cfg.Theme.Name = "solarized-neon"

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.True(t, hasField(fieldErrs, "theme.name"))
}

func TestValidateDeep_InvalidGlob(t *testing.T) {
	cfg := validConfig(t)
	cfg.Lists.Hidden = []string{"ok-*", "[broken"}

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.True(t, hasField(fieldErrs, "lists.hidden[1]"))
}

func TestValidateDeep_AuthURL(t *testing.T) {
	cfg := validConfig(t)
	cfg.Auth.URL = "ftp://example.com/auth"

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.True(t, hasField(fieldErrs, "auth.url"))
}

func TestValidateDeep_DataDirIsFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "notadir")
	require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0o644))

	cfg := validConfig(t)
	cfg.DataDir = tmpFile

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.True(t, hasField(fieldErrs, "data_dir"), "expected error about data dir")
}

func TestValidateDeep_ConfigFileIsDirectory(t *testing.T) {
	cfg := validConfig(t)

	err := cfg.ValidateDeep(t.TempDir())

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.True(t, hasField(fieldErrs, "config_file"), "expected error about config file being a directory")
}

func TestWarnings(t *testing.T) {
	cfg := validConfig(t)
	assert.Empty(t, cfg.Warnings())

	cfg.Lists.Hidden = []string{"**"}
	cfg.Gestures.AutoscrollMargin = 0

	warnings := cfg.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "Lists", warnings[0].Category)
	assert.Equal(t, "Gestures", warnings[1].Category)
}

func TestIsHidden(t *testing.T) {
	cfg := validConfig(t)
	cfg.Lists.Hidden = []string{"archive/**", "tmp-*"}

	assert.True(t, cfg.IsHidden("tmp-groceries"))
	assert.True(t, cfg.IsHidden("archive/2024/q1"))
	assert.False(t, cfg.IsHidden("My Tasks"))
}

func TestPalettes(t *testing.T) {
	cfg := validConfig(t)
	assert.Len(t, cfg.TaskPalette(), 7)

	cfg.Theme.TaskColors = []string{"#000000", "#ffffff"}
	assert.Len(t, cfg.TaskPalette(), 2)
	assert.Len(t, cfg.ListPalette(), 7)
}
