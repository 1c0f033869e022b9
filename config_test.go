package vkframe

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer/vkframe/gpu"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
wait_timeout = "250ms"
present_mode = "fifo"
surface_format = "b8g8r8a8_unorm"
color_format = "r16g16b16a16_sfloat"
image_count = 3
clear_color = [0.1, 0.2, 0.3, 1.0]
clear_depth = 0.5
`))
	require.NoError(t, err)
	assert.Equal(t, Duration(250*time.Millisecond), cfg.WaitTimeout)
	assert.Equal(t, uint32(3), cfg.ImageCount)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, cfg.ClearColor)
	assert.Equal(t, float32(0.5), cfg.ClearDepth)

	mode, err := cfg.presentMode()
	require.NoError(t, err)
	assert.Equal(t, gpu.PresentModeFifo, mode)
	f, err := cfg.colorFormat()
	require.NoError(t, err)
	assert.Equal(t, gpu.FormatR16G16B16A16Sfloat, f)
}

func TestParseConfigKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`image_count = 4`))
	require.NoError(t, err)
	def := DefaultConfig()
	assert.Equal(t, def.WaitTimeout, cfg.WaitTimeout)
	assert.Equal(t, def.PresentMode, cfg.PresentMode)
	assert.Equal(t, def.ClearDepth, cfg.ClearDepth)
}

func TestParseConfigRejectsInvalid(t *testing.T) {
	for name, doc := range map[string]string{
		"duration":     `wait_timeout = "soon"`,
		"present mode": `present_mode = "vsync"`,
		"depth color":  `color_format = "d32_sfloat"`,
		"format":       `surface_format = "rgb565"`,
		"clear depth":  `clear_depth = 2.0`,
		"syntax":       `image_count = `,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renderer.toml")
	require.NoError(t, os.WriteFile(path, []byte(`wait_timeout = "0s"`), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.WaitTimeout)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
