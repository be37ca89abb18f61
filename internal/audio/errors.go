package audio

import (
	"fmt"

	"github.com/desertthunder/previewer/internal/shared"
)

// DecodeError is returned when a payload cannot be decoded as audio.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{shared.ErrDecode, e.Err}
}

// DeviceError is returned when the output device is unavailable.
type DeviceError struct {
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device unavailable: %v", e.Err)
}

func (e *DeviceError) Unwrap() []error {
	return []error{shared.ErrDevice, e.Err}
}
