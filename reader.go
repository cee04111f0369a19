package compryss

import (
	"fmt"
	"io"
	"os"
)

// DefaultBufferSize is the raw read size used by a Reader when none is given.
// It matches the historical default of the format.
const DefaultBufferSize = 1024

// Loader states. A Reader starts idle, moves to reassembling once the ledger
// has been discovered, and ends done after the last record was delivered or
// the session was closed.
type loadState int

const (
	stateIdle loadState = iota
	stateReassembling
	stateDone
)

// A Reader reconstructs the records of a stream file, one per call to Next.
//
// Loading is a two-pass affair. The first call to Next runs a discovery pass:
// a fresh decompression engine inflates the file from offset zero in
// buffer-size chunks until the ledger marker appears in the decompressed text
// and everything from the marker onwards parses as a ledger. Then a second,
// independent pass starts over from offset zero and slices records out of the
// decompressed text using the recorded lengths.
//
// The file handle is scoped to each call; between calls only the reader's own
// state survives: the byte offset into the file, the live engine, the pending
// plaintext not yet attributed to a record, and the index of the next record
// to deliver.
type Reader struct {
	path    string
	bufsize int

	state      loadState
	ledger     Ledger
	haveLedger bool

	// Pass 2 cursors.
	off       int64     // byte offset of the next raw read
	inf       *inflater // live engine, nil unless reassembling
	pending   []byte    // decompressed but not yet delivered
	total     int       // decompressed bytes seen so far
	delivered int       // plaintext bytes attributed to returned records
	next      int       // index of the next record to deliver
	exhausted bool      // raw input consumed and engine drained
	decodeErr error     // sticky engine error, if any
}

// NewReader prepares a read session for path. No I/O happens until the first
// call to Next or Ledger. A bufsize smaller than one selects
// DefaultBufferSize; larger buffers make fewer, bigger reads but decode to
// identical output.
func NewReader(path string, bufsize int) *Reader {
	if bufsize < 1 {
		bufsize = DefaultBufferSize
	}
	return &Reader{path: path, bufsize: bufsize}
}

// Next returns the next record in write order. Once every record has been
// delivered it returns io.EOF, consistently, and never re-delivers a record.
func (r *Reader) Next() ([]byte, error) {
	switch r.state {
	case stateDone:
		return nil, io.EOF
	case stateIdle:
		if err := r.ensureLedger(); err != nil {
			return nil, err
		}
		r.inf = newInflater()
		r.state = stateReassembling
	}

	if r.next == r.ledger.RecordCount {
		r.teardown()
		return nil, io.EOF
	}

	want := r.ledger.RecordLengths[r.next]
	if err := r.fill(r.delivered + want); err != nil {
		return nil, err
	}
	if len(r.pending) < want {
		derr := r.decodeErr
		r.teardown()
		if derr != nil {
			return nil, fmt.Errorf("%w (%v)", ErrStreamTruncated, derr)
		}
		return nil, ErrStreamTruncated
	}
	rec := r.pending[:want:want]
	r.pending = r.pending[want:]
	r.delivered += want
	r.next++
	return rec, nil
}

// Ledger runs the discovery pass if it has not happened yet and returns a
// copy of the ledger. The ledger is immutable for the session's lifetime.
func (r *Reader) Ledger() (Ledger, error) {
	if err := r.ensureLedger(); err != nil {
		return Ledger{}, err
	}
	l := r.ledger
	l.RecordLengths = append([]int(nil), l.RecordLengths...)
	return l, nil
}

// Close releases the session. Further calls to Next report io.EOF. Closing a
// fully consumed or never started reader is a no-op.
func (r *Reader) Close() error {
	r.teardown()
	return nil
}

// ReadAll loads every record of a stream file in one call.
func ReadAll(path string, bufsize int) ([][]byte, error) {
	r := NewReader(path, bufsize)
	defer r.Close()
	var recs [][]byte
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
}

func (r *Reader) ensureLedger() error {
	if r.haveLedger {
		return nil
	}
	led, err := r.scanLedger()
	if err != nil {
		return err
	}
	r.ledger = led
	r.haveLedger = true
	return nil
}

// scanLedger is the discovery pass. It uses its own one-shot engine and
// accumulation buffer, both discarded on return; the scan stops at the first
// successful ledger parse, which in a well-formed file is also the end of the
// decompressed text.
func (r *Reader) scanLedger() (Ledger, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return Ledger{}, err
	}
	defer f.Close()

	inf := newInflater()
	defer inf.close()

	var text []byte
	chunk := make([]byte, r.bufsize)
	for {
		n, rerr := f.Read(chunk)
		if n > 0 {
			out, ferr := inf.feed(chunk[:n])
			text = append(text, out...)
			if led, _, ok := findLedger(text); ok {
				return led, nil
			}
			if ferr != nil {
				// Decoder stopped early; no further plaintext will come.
				break
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return Ledger{}, rerr
		}
	}

	out, _ := inf.drain()
	text = append(text, out...)
	led, found, ok := findLedger(text)
	if ok {
		return led, nil
	}
	if found {
		return Ledger{}, ErrLedgerCorrupt
	}
	return Ledger{}, ErrNoLedger
}

// fill advances the reassembly pass until at least target decompressed bytes
// have been seen or the raw input is exhausted. Reads resume at the stored
// offset; the handle is closed again before returning.
func (r *Reader) fill(target int) error {
	if r.exhausted || r.total >= target {
		return nil
	}
	f, err := os.Open(r.path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Seek(r.off, io.SeekStart); err != nil {
		return err
	}

	chunk := make([]byte, r.bufsize)
	for r.total < target && !r.exhausted {
		n, rerr := f.Read(chunk)
		if n > 0 {
			r.off += int64(n)
			out, ferr := r.inf.feed(chunk[:n])
			r.pending = append(r.pending, out...)
			r.total += len(out)
			if ferr != nil {
				r.decodeErr = ferr
				r.exhausted = true
			}
		}
		if rerr == io.EOF {
			out, derr := r.inf.drain()
			r.pending = append(r.pending, out...)
			r.total += len(out)
			r.decodeErr = derr
			r.exhausted = true
		} else if rerr != nil {
			return rerr
		}
	}
	return nil
}

func (r *Reader) teardown() {
	if r.inf != nil {
		r.inf.close()
		r.inf = nil
	}
	r.pending = nil
	r.state = stateDone
}
