package vkframe

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

// Duration is a time.Duration read from configuration as a string such as
// "2s" or "500ms".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config holds the renderer settings.
type Config struct {
	// WaitTimeout bounds every fence wait. Zero waits forever.
	WaitTimeout Duration `toml:"wait_timeout"`
	// PresentMode is the preferred present mode; fifo is used when the
	// surface does not offer it.
	PresentMode string `toml:"present_mode"`
	// SurfaceFormat is the preferred swapchain format.
	SurfaceFormat string `toml:"surface_format"`
	// ColorFormat is the default color target format. Empty selects the
	// swapchain format.
	ColorFormat string `toml:"color_format"`
	// ImageCount is the requested swapchain image count. Zero selects one
	// more than the surface minimum.
	ImageCount uint32     `toml:"image_count"`
	ClearColor [4]float32 `toml:"clear_color"`
	ClearDepth float32    `toml:"clear_depth"`
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() *Config {
	return &Config{
		WaitTimeout:   Duration(5 * time.Second),
		PresentMode:   gpu.PresentModeMailbox.String(),
		SurfaceFormat: gpu.FormatB8G8R8A8Srgb.String(),
		ClearColor:    [4]float32{0, 0, 0, 1},
		ClearDepth:    1,
	}
}

// ParseConfig decodes TOML over the defaults and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a TOML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks every named value.
func (c *Config) Validate() error {
	if c.WaitTimeout < 0 {
		return errors.Errorf("wait_timeout must not be negative, got %s", time.Duration(c.WaitTimeout))
	}
	if _, err := c.presentMode(); err != nil {
		return errors.Wrap(err, "present_mode")
	}
	if _, err := c.surfaceFormat(); err != nil {
		return errors.Wrap(err, "surface_format")
	}
	if _, err := c.colorFormat(); err != nil {
		return errors.Wrap(err, "color_format")
	}
	if c.ClearDepth < 0 || c.ClearDepth > 1 {
		return errors.Errorf("clear_depth must be within [0,1], got %g", c.ClearDepth)
	}
	return nil
}

func (c *Config) presentMode() (gpu.PresentMode, error) {
	if c.PresentMode == "" {
		return gpu.PresentModeFifo, nil
	}
	return gpu.ParsePresentMode(c.PresentMode)
}

func (c *Config) surfaceFormat() (gpu.Format, error) {
	if c.SurfaceFormat == "" {
		return gpu.FormatB8G8R8A8Srgb, nil
	}
	f, err := gpu.ParseFormat(c.SurfaceFormat)
	if err != nil {
		return gpu.FormatUndefined, err
	}
	if f.IsDepth() {
		return gpu.FormatUndefined, errors.Errorf("%s is a depth format", f)
	}
	return f, nil
}

// colorFormat returns FormatUndefined when the swapchain format should be
// used.
func (c *Config) colorFormat() (gpu.Format, error) {
	if c.ColorFormat == "" {
		return gpu.FormatUndefined, nil
	}
	f, err := gpu.ParseFormat(c.ColorFormat)
	if err != nil {
		return gpu.FormatUndefined, err
	}
	if f.IsDepth() {
		return gpu.FormatUndefined, errors.Errorf("%s is a depth format", f)
	}
	return f, nil
}
