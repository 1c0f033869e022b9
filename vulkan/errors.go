package vulkan

import (
	"github.com/pkg/errors"

	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe/gpu"
)

// newError turns a native result into an error. Results the orchestrator
// reacts to are reported as the matching gpu condition so errors.Is works
// across drivers.
func newError(op string, ret vk.Result) error {
	switch ret {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate:
		return errors.Wrap(gpu.ErrOutOfDate, op)
	case vk.Timeout, vk.NotReady:
		return errors.Wrap(gpu.ErrTimeout, op)
	case vk.ErrorDeviceLost:
		return errors.Wrap(gpu.ErrDeviceLost, op)
	}
	return errors.Wrapf(vk.Error(ret), "vulkan: %s (%d)", op, ret)
}
