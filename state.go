package vkframe

import "fmt"

// FrameState is the position of the Renderer in the frame cycle.
//
//	Idle -> Recording -> Rendering -> Recorded -> Submitted -> Presented -> Idle
//
// StartDraw, StartRendering, EndRendering and EndDraw drive the
// transitions. Submitted and Presented are only observed while EndDraw runs
// or after it failed fatally.
type FrameState int

const (
	StateIdle FrameState = iota
	StateRecording
	StateRendering
	StateRecorded
	StateSubmitted
	StatePresented
)

func (s FrameState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateRendering:
		return "rendering"
	case StateRecorded:
		return "recorded"
	case StateSubmitted:
		return "submitted"
	case StatePresented:
		return "presented"
	}
	return fmt.Sprintf("state(%d)", int(s))
}
