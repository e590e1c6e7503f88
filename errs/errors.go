// Package errs defines the sentinel errors returned by strpack.
//
// Callers match them with errors.Is; most are wrapped with position or size
// detail through fmt.Errorf("%w").
package errs

import "errors"

var (
	// ErrUnrecognizedFormat is returned when the input does not start with a
	// known magic prefix and version.
	ErrUnrecognizedFormat = errors.New("strpack: format not recognized")

	// ErrMalformedPayload is returned when a recognized payload is corrupt or truncated.
	ErrMalformedPayload = errors.New("strpack: malformed payload")

	// ErrUnsupportedType is returned when a value has no wire representation.
	ErrUnsupportedType = errors.New("strpack: unsupported value type")

	// ErrInvalidView is returned when a typed view does not fit its backing buffer.
	ErrInvalidView = errors.New("strpack: view out of buffer bounds")

	// ErrInvalidOffset is returned when a compressed block references data
	// outside of the already decoded output.
	ErrInvalidOffset = errors.New("strpack: invalid block offset")

	// ErrCorruptBlock is returned when a compressed block is truncated or
	// decodes to an unexpected size.
	ErrCorruptBlock = errors.New("strpack: corrupt compressed block")

	// ErrWorkerUnavailable is returned when a background worker could not be
	// created or failed its handshake.
	ErrWorkerUnavailable = errors.New("strpack: background worker unavailable")

	// ErrPoolClosed is returned when work is submitted to a closed pool.
	ErrPoolClosed = errors.New("strpack: worker pool closed")

	// ErrInvalidConfig is returned when an option carries an invalid value.
	ErrInvalidConfig = errors.New("strpack: invalid configuration")
)
