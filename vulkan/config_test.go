package vulkan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
app_name = "cube"
app_version = "2.3.4"
validation = true
layers = ["VK_LAYER_MESA_overlay"]
device = "radeon"
staging_size = 1048576
title = "Cube"
width = 800
height = 600
`))
	require.NoError(t, err)
	assert.Equal(t, "cube", cfg.AppName)
	assert.Equal(t, Version{2, 3, 4}, cfg.AppVersion)
	assert.True(t, cfg.Validation)
	assert.Equal(t, []string{"VK_LAYER_MESA_overlay"}, cfg.Layers)
	assert.Equal(t, "radeon", cfg.Device)
	assert.Equal(t, uint64(1<<20), cfg.StagingSize)
	assert.Equal(t, 800, cfg.Width)
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`title = "x"`))
	require.NoError(t, err)
	def := DefaultConfig()
	assert.Equal(t, def.Width, cfg.Width)
	assert.Equal(t, def.Height, cfg.Height)
	assert.Equal(t, uint64(DefaultStagingSize), cfg.StagingSize)
	assert.Equal(t, validationDefault, cfg.Validation)
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig([]byte(`width = 0`))
	assert.Error(t, err)
	_, err = ParseConfig([]byte(`app_version = "next"`))
	assert.Error(t, err)
	_, err = ParseConfig([]byte(`width = `))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vulkan.toml")
	require.NoError(t, os.WriteFile(path, []byte(`height = 300`), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Height)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	v := Version{1, 2, 3}
	assert.Equal(t, "1.2.3", v.String())
	text, err := v.MarshalText()
	require.NoError(t, err)

	var back Version
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, v, back)

	var partial Version
	require.NoError(t, partial.UnmarshalText([]byte("4")))
	assert.Equal(t, Version{Major: 4}, partial)

	assert.Equal(t, uint32(1<<22|2<<12|3), v.VKVersion())
}
