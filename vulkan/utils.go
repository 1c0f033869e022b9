package vulkan

import (
	"strings"
	"unsafe"

	vk "github.com/goki/vulkan"
)

const end = "\x00"

// safeString returns s null terminated, as the native API expects.
func safeString(s string) string {
	if strings.HasSuffix(s, end) {
		return s
	}
	return s + end
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}

// codeWords reinterprets SPIR-V bytes as the word slice shader modules take.
func codeWords(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

func bool32(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
