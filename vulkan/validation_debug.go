//go:build debug

package vulkan

const validationDefault = true
