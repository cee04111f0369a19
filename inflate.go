package compryss

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"sync"
)

var errInflaterClosed = errors.New("compryss: inflater closed")

// inflater is a push-fed decompression engine: raw compressed bytes go in
// through feed in caller-chosen slices, plaintext comes out as soon as the
// decoder produces it. Go's gzip reader is pull-based, so each inflater runs
// one goroutine that pulls the decoder over a pipe and parks the output under
// a lock. The goroutine is strictly scoped to the instance and exits once the
// pipe is closed from either side.
//
// Output may trail input by a few bytes until the next feed or drain, but the
// concatenation of everything returned by feed calls plus drain is identical
// no matter how the input was split.
type inflater struct {
	pw   *io.PipeWriter
	done chan struct{}

	mu  sync.Mutex
	out bytes.Buffer

	err error // decode error; valid once done is closed
}

func newInflater() *inflater {
	pr, pw := io.Pipe()
	inf := &inflater{pw: pw, done: make(chan struct{})}
	go inf.run(pr)
	return inf
}

func (inf *inflater) run(pr *io.PipeReader) {
	defer close(inf.done)
	gz, err := gzip.NewReader(pr)
	if err != nil {
		inf.err = err
		pr.CloseWithError(err)
		return
	}
	buf := make([]byte, 32*1024)
	for {
		n, err := gz.Read(buf)
		if n > 0 {
			inf.mu.Lock()
			inf.out.Write(buf[:n])
			inf.mu.Unlock()
		}
		if err == io.EOF {
			pr.Close()
			return
		}
		if err != nil {
			inf.err = err
			pr.CloseWithError(err)
			return
		}
	}
}

// feed pushes raw compressed bytes into the decoder and returns whatever
// plaintext is available afterwards. A non-nil error means the decoder has
// stopped and no further plaintext will ever come out.
func (inf *inflater) feed(raw []byte) ([]byte, error) {
	if _, err := inf.pw.Write(raw); err != nil {
		<-inf.done
		out := inf.take()
		if inf.err != nil {
			err = inf.err
		}
		return out, err
	}
	return inf.take(), nil
}

// drain signals end of input, waits for the decoder to stop and returns all
// remaining plaintext. The error is io.ErrUnexpectedEOF when the compressed
// stream was cut short, nil for a cleanly terminated stream.
func (inf *inflater) drain() ([]byte, error) {
	inf.pw.Close()
	<-inf.done
	return inf.take(), inf.err
}

// close abandons the engine without requiring a clean end of stream, e.g.
// when the ledger scan succeeded before the file was exhausted.
func (inf *inflater) close() error {
	inf.pw.CloseWithError(errInflaterClosed)
	<-inf.done
	return nil
}

func (inf *inflater) take() []byte {
	inf.mu.Lock()
	defer inf.mu.Unlock()
	if inf.out.Len() == 0 {
		return nil
	}
	out := append([]byte(nil), inf.out.Bytes()...)
	inf.out.Reset()
	return out
}
