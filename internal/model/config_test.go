package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Timing.AuthGraceSec)
	assert.Equal(t, 200, cfg.Timing.SearchDebounceMs)
	assert.Equal(t, []string{"#Tech_Azure"}, cfg.Lists.Tags)
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	want := defaultAppConfig()
	want.Remote.BaseURL = "https://tracker.corp.example.com/DefaultCollection"
	want.Remote.Project = "Fabrikam"
	want.Remote.Account = "boss@fabrikam.com"
	want.Server.Addr = ":9999"
	want.Lists.Areas = []string{`CSEng\DWR\Reactive`, `CSEng\DWR\Proactive`}

	require.NoError(t, SaveConfig(path, want))

	got, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, want.Remote, got.Remote)
	assert.Equal(t, ":9999", got.Server.Addr)
	assert.Equal(t, want.Lists.Areas, got.Lists.Areas)
	assert.Equal(t, want.Timing, got.Timing)
}
