package compryss

import (
	"bytes"
	"io"
	"os"

	gzip "github.com/klauspost/pgzip"
)

// Ext is the conventional file extension for compressed record-stream files.
// The library itself takes paths verbatim; the compryss tool applies the
// convention.
const Ext = ".stream"

// Compress compresses a whole buffer in one shot, with no record structure
// and no ledger. Unlike the streaming writer this uses parallel gzip, which
// pays off on large buffers.
func Compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress is the one-shot inverse of Compress. It also decodes stream
// files written by a Writer, ledger text included.
func Decompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}

// WriteSnapshot compresses data and writes it to path as a single-buffer
// compressed file.
func WriteSnapshot(path string, data []byte, level int) error {
	out, err := Compress(data, level)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0666)
}

// ReadSnapshot loads and decompresses a file written by WriteSnapshot.
func ReadSnapshot(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decompress(raw)
}
