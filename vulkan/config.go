package vulkan

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// DefaultStagingSize is the size of the host visible arena staging buffers
// are carved from.
const DefaultStagingSize = 32 << 20

// Config selects how the instance, device and window are created.
type Config struct {
	AppName    string  `toml:"app_name"`
	AppVersion Version `toml:"app_version"`

	// Validation enables VK_LAYER_KHRONOS_validation and routes its
	// reports to the package logger. It defaults to on in builds with the
	// debug tag.
	Validation bool `toml:"validation"`
	// Layers and InstanceExtensions are enabled in addition to the ones
	// the window system and validation need.
	Layers             []string `toml:"layers"`
	InstanceExtensions []string `toml:"instance_extensions"`
	DeviceExtensions   []string `toml:"device_extensions"`

	// Device prefers the first physical device whose name contains it.
	Device string `toml:"device"`
	// StagingSize is the staging arena size in bytes. Zero disables the
	// arena and gives every staging buffer its own allocation.
	StagingSize uint64 `toml:"staging_size"`

	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() *Config {
	return &Config{
		AppName:     "vkframe",
		AppVersion:  Version{Major: 1},
		Validation:  validationDefault,
		StagingSize: DefaultStagingSize,
		Title:       "vkframe",
		Width:       1024,
		Height:      768,
	}
}

// ParseConfig decodes TOML over the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode vulkan config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a TOML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read vulkan config")
	}
	return ParseConfig(data)
}

func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("window size must be positive, got %dx%d", c.Width, c.Height)
	}
	return nil
}

// Version is used to specify versions of components. In configuration it
// is written "major.minor.patch".
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(text []byte) error {
	var out Version
	n, _ := fmt.Sscanf(string(text), "%d.%d.%d", &out.Major, &out.Minor, &out.Patch)
	if n == 0 || out.Major < 0 || out.Minor < 0 || out.Patch < 0 {
		return errors.Errorf("invalid version %q", text)
	}
	*v = out
	return nil
}
