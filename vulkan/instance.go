package vulkan

import (
	"context"
	"log/slog"
	"slices"
	"unsafe"

	"github.com/pkg/errors"

	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// VKVersion returns a Vulkan compatible version representation
func (v Version) VKVersion() uint32 {
	return vk.MakeVersion(v.Major, v.Minor, v.Patch)
}

// SupportedLayers returns the instance layers the loader offers. Vulkan must
// have been initialized with Init.
func SupportedLayers() ([]string, error) {
	var count uint32
	if err := newError("enumerate layers", vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.LayerProperties, count)
	if err := newError("enumerate layers", vk.EnumerateInstanceLayerProperties(&count, props)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.LayerName[:]))
	}
	return names, nil
}

// SupportedExtensions returns the instance extensions the loader offers.
func SupportedExtensions() ([]string, error) {
	var count uint32
	if err := newError("enumerate extensions", vk.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := newError("enumerate extensions", vk.EnumerateInstanceExtensionProperties("", &count, props)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.ExtensionName[:]))
	}
	return names, nil
}

// Instance is an instance of the Vulkan subsystem
type Instance struct {
	VKInstance vk.Instance

	debugCallback vk.DebugReportCallback
}

// CreateInstance creates the instance for cfg with the given window system
// extensions. Layers the loader does not offer are skipped with a warning.
func CreateInstance(cfg *Config, windowExtensions []string) (*Instance, error) {
	supportedLayers, err := SupportedLayers()
	if err != nil {
		return nil, errors.Wrap(err, "supported layers")
	}
	supportedExts, err := SupportedExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "supported extensions")
	}

	wantLayers := slices.Clone(cfg.Layers)
	exts := append(slices.Clone(windowExtensions), cfg.InstanceExtensions...)
	if cfg.Validation {
		wantLayers = append(wantLayers, validationLayer)
		exts = append(exts, "VK_EXT_debug_report")
	}
	var layers []string
	for _, l := range wantLayers {
		if !slices.Contains(supportedLayers, l) {
			vkframe.Logger().Warn("layer not available", "layer", l)
			continue
		}
		layers = append(layers, l)
	}
	for _, e := range exts {
		if !slices.Contains(supportedExts, e) {
			return nil, errors.Errorf("instance extension %q is not supported", e)
		}
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         vk.MakeVersion(1, 0, 0),
		ApplicationVersion: cfg.AppVersion.VKVersion(),
		PApplicationName:   safeString(cfg.AppName),
		PEngineName:        safeString("vkframe"),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(exts)),
		PpEnabledExtensionNames: safeStrings(exts),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}

	inst := &Instance{}
	if err := newError("create instance", vk.CreateInstance(&createInfo, nil, &inst.VKInstance)); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(inst.VKInstance); err != nil {
		vk.DestroyInstance(inst.VKInstance, nil)
		return nil, errors.Wrap(err, "init instance")
	}
	vkframe.Logger().Info("instance created", "layers", layers, "extensions", exts)

	if cfg.Validation {
		if err := inst.setDebugCallback(); err != nil {
			vkframe.Logger().Warn("debug report callback unavailable", "err", err)
		}
	}
	return inst, nil
}

func (i *Instance) setDebugCallback() error {
	return newError("create debug report callback", vk.CreateDebugReportCallback(i.VKInstance, &vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: debugReport,
	}, nil, &i.debugCallback))
}

// debugReport forwards validation messages to the package logger.
func debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	level := slog.LevelInfo
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		level = slog.LevelError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		level = slog.LevelWarn
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		level = slog.LevelDebug
	}
	vkframe.Logger().Log(context.Background(), level, pMessage, "layer", pLayerPrefix, "code", messageCode)
	return vk.False
}

// PhysicalDevices returns a list of physical devices known to Vulkan
func (i *Instance) PhysicalDevices() ([]*PhysicalDevice, error) {
	var count uint32
	if err := newError("enumerate physical devices", vk.EnumeratePhysicalDevices(i.VKInstance, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := newError("enumerate physical devices", vk.EnumeratePhysicalDevices(i.VKInstance, &count, devices)); err != nil {
		return nil, err
	}
	ret := make([]*PhysicalDevice, count)
	for n, d := range devices {
		ret[n] = newPhysicalDevice(d)
	}
	return ret, nil
}

func (i *Instance) Destroy() {
	if i.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(i.VKInstance, i.debugCallback, nil)
	}
	vk.DestroyInstance(i.VKInstance, nil)
}
