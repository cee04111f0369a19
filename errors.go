package compryss

import "errors"

var (
	// ErrAlreadyExists is returned by Create when the target file exists and
	// overwrite was not requested. Nothing has been written when it fires.
	ErrAlreadyExists = errors.New("compryss: target file already exists")

	// ErrNoLedger is returned when the whole file was decompressed during
	// ledger discovery without the ledger marker ever showing up. For very
	// small read buffers this can occasionally be cured by reopening the file
	// with a larger buffer size; otherwise the file was never finalized.
	ErrNoLedger = errors.New("compryss: no ledger found in stream")

	// ErrLedgerCorrupt is returned when the ledger marker was found but the
	// text following it does not parse into a complete ledger.
	ErrLedgerCorrupt = errors.New("compryss: malformed ledger")

	// ErrStreamTruncated is returned when the compressed input ran out before
	// every record promised by the ledger could be reconstructed.
	ErrStreamTruncated = errors.New("compryss: stream truncated before last record")

	errWriterClosed = errors.New("compryss: writer already finalized")
)
