package vulkan

import (
	"os"

	"github.com/pkg/errors"

	vk "github.com/goki/vulkan"
)

const shaderEntryPoint = "main"

// ShaderModule is compiled SPIR-V loaded onto the device.
type ShaderModule struct {
	Device         *Device
	Path           string
	VKShaderModule vk.ShaderModule
}

// LoadShaderModule reads a SPIR-V file and creates a module from it.
func (d *Device) LoadShaderModule(path string) (*ShaderModule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load shader")
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, errors.Errorf("shader %s: %d bytes is not SPIR-V", path, len(data))
	}
	var module vk.ShaderModule
	err = newError("create shader module", vk.CreateShaderModule(d.VKDevice, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(data)),
		PCode:    codeWords(data),
	}, nil, &module))
	if err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}
	return &ShaderModule{Device: d, Path: path, VKShaderModule: module}, nil
}

func (s *ShaderModule) stage(stage vk.ShaderStageFlagBits) vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: s.VKShaderModule,
		PName:  safeString(shaderEntryPoint),
	}
}

func (s *ShaderModule) Destroy() {
	vk.DestroyShaderModule(s.Device.VKDevice, s.VKShaderModule, nil)
}
