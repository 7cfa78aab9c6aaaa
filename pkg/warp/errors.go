package warp

import "errors"

var (
	// ErrLengthMismatch is wrapped into the panic raised when indices and
	// logits differ in length.
	ErrLengthMismatch = errors.New("warp: indices and logits length mismatch")
	ErrUnknownBackend = errors.New("warp: unknown top-k backend")
)
