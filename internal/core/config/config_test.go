package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load("", dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, 60.0, cfg.Gestures.IconWidth)
	assert.Equal(t, 10*time.Millisecond, cfg.Gestures.AutoscrollInterval)
	assert.Equal(t, 200*time.Millisecond, cfg.Gestures.LongPress)
	assert.Equal(t, "My Tasks", cfg.Lists.DefaultName)
	assert.Equal(t, PlacementTop, cfg.Lists.UncompletePlacement)
	assert.Equal(t, filepath.Join(dataDir, "tasks.db"), cfg.DatabaseFile())
	assert.InDelta(t, 10.0, cfg.PointerScale(), 1e-9)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Gestures, cfg.Gestures)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
gestures:
  icon_width: 40
  autoscroll_interval: 25ms
lists:
  default_name: Inbox
  uncomplete_placement: boundary
  hidden: ["archive/**"]
theme:
  task_colors: ["#ff0000", "#0000ff"]
`)

	cfg, err := Load(path, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 40.0, cfg.Gestures.IconWidth)
	assert.Equal(t, 25*time.Millisecond, cfg.Gestures.AutoscrollInterval)
	assert.Equal(t, 200*time.Millisecond, cfg.Gestures.LongPress, "unset keys keep defaults")
	assert.Equal(t, "Inbox", cfg.Lists.DefaultName)
	assert.Equal(t, PlacementBoundary, cfg.Lists.UncompletePlacement)
	assert.Equal(t, []string{"archive/**"}, cfg.Lists.Hidden)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "bad placement",
			body:    "lists:\n  uncomplete_placement: sideways\n",
			wantErr: "uncomplete_placement",
		},
		{
			name:    "single color palette",
			body:    "theme:\n  list_colors: [\"#ffffff\"]\n",
			wantErr: "at least 2 colors",
		},
		{
			name:    "negative margin",
			body:    "gestures:\n  autoscroll_margin: -1\n",
			wantErr: "autoscroll_margin",
		},
		{
			name:    "malformed yaml",
			body:    "gestures: [",
			wantErr: "parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_EmptyDataDir(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate())
}
