package vkframe

import "time"

// FrameStats counts frames since the Renderer was created.
type FrameStats struct {
	FramesPresented uint64
	// FramesDropped counts frames abandoned for a surface rebuild.
	FramesDropped uint64
	Rebuilds      uint64
	// FrameTime is the CPU time from the last StartDraw to the end of its
	// EndDraw.
	FrameTime time.Duration
	// FenceWait is the time the last StartDraw blocked on its fence.
	FenceWait time.Duration
}
