package compressor

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// ZlibCompressor implements Compressor with DEFLATE (zlib framing).
type ZlibCompressor struct {
	name  string
	level int
}

// Zlib returns a ZlibCompressor named name at the given compression level
// (zlib.DefaultCompression if level is 0).
func Zlib(name string, level int) *ZlibCompressor {
	if level == 0 {
		level = zlib.DefaultCompression
	}
	return &ZlibCompressor{name: name, level: level}
}

func (z *ZlibCompressor) Name() string { return z.name }

func (z *ZlibCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, z.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (z *ZlibCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}
