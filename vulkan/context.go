package vulkan

import (
	"github.com/pkg/errors"
)

// Context is everything a renderer needs from the platform: an instance, a
// window with its surface and a device that can present to it.
type Context struct {
	Instance *Instance
	Window   *Window
	Device   *Device
}

// Open creates the window, instance and device described by cfg. Init must
// have been called.
func Open(cfg *Config) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Context{}
	var err error
	if c.Window, err = NewWindow(cfg.Title, cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	if c.Instance, err = CreateInstance(cfg, c.Window.RequiredExtensions()); err != nil {
		c.Close()
		return nil, err
	}
	if err = c.Window.createSurface(c.Instance); err != nil {
		c.Close()
		return nil, err
	}
	devices, err := c.Instance.PhysicalDevices()
	if err != nil {
		c.Close()
		return nil, errors.Wrap(err, "enumerate devices")
	}
	pd, qf, err := pickDevice(devices, c.Window.VKSurface, cfg.Device)
	if err != nil {
		c.Close()
		return nil, err
	}
	if c.Device, err = NewDevice(pd, qf, cfg); err != nil {
		c.Close()
		return nil, err
	}
	c.Window.device = c.Device
	return c, nil
}

// Close destroys the device, surface, window and instance in that order.
func (c *Context) Close() {
	if c.Device != nil {
		c.Device.Destroy()
		c.Device = nil
	}
	if c.Window != nil {
		c.Window.Destroy()
		c.Window = nil
	}
	if c.Instance != nil {
		c.Instance.Destroy()
		c.Instance = nil
	}
}
