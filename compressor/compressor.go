// Package compressor provides optional compression of event payloads
// between the transcoder and cipher stages of the pipeline.
package compressor

import "errors"

// ErrCorrupt is returned by Decompress when the input is not a valid
// compressed stream for this Compressor.
var ErrCorrupt = errors.New("corrupt compressed payload")

// Compressor compresses and decompresses opaque byte payloads.
// Implementations must be safe for concurrent use.
type Compressor interface {
	// Name identifies this compressor's topic, used by the factory to
	// select an implementation from configuration.
	Name() string

	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}
