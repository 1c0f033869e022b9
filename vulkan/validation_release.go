//go:build !debug

package vulkan

const validationDefault = false
