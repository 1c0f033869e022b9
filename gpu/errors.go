package gpu

// Error is a constant driver condition. Drivers return these, possibly
// wrapped, so callers can test for them with errors.Is.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrOutOfDate reports that the surface changed and the swapchain no
	// longer matches it.
	ErrOutOfDate = Error("gpu: surface out of date")
	// ErrTimeout reports that a bounded wait expired.
	ErrTimeout = Error("gpu: wait timed out")
	// ErrDeviceLost reports that the device can no longer execute work.
	ErrDeviceLost = Error("gpu: device lost")
)
