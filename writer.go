package compryss

import (
	"bytes"
	"fmt"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Writer is a write session for one stream file. It owns a persistent gzip
// context: every record appended goes through the same compressor, so the
// deflate window carries across records and the resulting stream can only be
// decoded sequentially from the start.
//
// A session must be finished with Close, which appends the ledger and
// terminates the gzip stream. A target whose session never reached Close is
// corrupt and will not load. At most one session may be open per target; the
// caller serializes access.
type Writer struct {
	path   string
	gz     *gzip.Writer
	buf    bytes.Buffer
	ledger Ledger
	closed bool
}

// Create opens a write session for path using the default compression level.
// If a file already exists at path the session is refused with
// ErrAlreadyExists, unless overwrite is set, in which case the existing file
// is removed first.
func Create(path string, overwrite bool) (*Writer, error) {
	return CreateLevel(path, overwrite, gzip.DefaultCompression)
}

// Create a write session with an explicit compression level, in the range
// accepted by gzip.NewWriterLevel.
func CreateLevel(path string, overwrite bool, level int) (*Writer, error) {
	if _, err := os.Stat(path); err == nil {
		if !overwrite {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, path)
		}
		if err := os.Remove(path); err != nil {
			return nil, err
		}
	}
	w := &Writer{path: path, ledger: Ledger{RecordLengths: []int{}}}
	gz, err := gzip.NewWriterLevel(&w.buf, level)
	if err != nil {
		return nil, err
	}
	w.gz = gz
	return w, nil
}

// Append compresses one record through the session context and writes the
// produced bytes to the target immediately. The file handle is scoped to the
// call; only the compressor state persists between calls. Zero-length records
// are valid.
func (w *Writer) Append(rec []byte) error {
	if w.closed {
		return errWriterClosed
	}
	if _, err := w.gz.Write(rec); err != nil {
		return err
	}
	// Sync-flush so the bytes of this record are decodable on disk without
	// closing the stream. The dictionary window survives the flush.
	if err := w.gz.Flush(); err != nil {
		return err
	}
	if err := w.flushToFile(); err != nil {
		return err
	}
	w.ledger.RecordCount++
	w.ledger.RecordLengths = append(w.ledger.RecordLengths, len(rec))
	return nil
}

// Close encodes the accumulated ledger, compresses it through the same
// context as a final pseudo-record, terminates the gzip stream and appends
// the tail bytes to the target. The session is unusable afterwards; calling
// Close twice is an error.
func (w *Writer) Close() error {
	if w.closed {
		return errWriterClosed
	}
	w.closed = true
	enc, err := w.ledger.encode()
	if err != nil {
		return err
	}
	if _, err := w.gz.Write(enc); err != nil {
		return err
	}
	if err := w.gz.Close(); err != nil {
		return err
	}
	return w.flushToFile()
}

// Ledger returns a snapshot of the ledger accumulated so far.
func (w *Writer) Ledger() Ledger {
	l := w.ledger
	l.RecordLengths = append([]int(nil), w.ledger.RecordLengths...)
	return l
}

func (w *Writer) flushToFile() error {
	if w.buf.Len() == 0 {
		return nil
	}
	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	_, werr := f.Write(w.buf.Bytes())
	cerr := f.Close()
	w.buf.Reset()
	if werr != nil {
		return werr
	}
	return cerr
}
