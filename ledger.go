package compryss

import (
	"bytes"
	"encoding/json"
)

// Ledger is the bookkeeping record appended after the last real record of a
// stream. It stores how many records the stream holds and the exact byte
// length of each one, in write order; those lengths are the only way record
// boundaries can be recovered from the decompressed text.
type Ledger struct {
	RecordCount   int   `json:"record_count"`
	RecordLengths []int `json:"record_lengths"`
}

// ledgerMarker is the literal opening bytes of an encoded ledger. The writer
// relies on encoding/json emitting struct fields in declaration order, so the
// marker is stable and shared between writer and reader. Keep it in sync with
// the Ledger field tags.
var ledgerMarker = []byte(`{"record_count":`)

func (l Ledger) encode() ([]byte, error) {
	return json.Marshal(l)
}

// findLedger scans text for the ledger marker and, when present, tries to
// parse everything from the marker to the end of text as a ledger. found
// reports whether the marker was seen at all; ok whether the parse produced a
// complete, consistent ledger. During a scan over a growing buffer, found
// without ok usually just means the tail of the ledger has not been
// decompressed yet.
func findLedger(text []byte) (led Ledger, found, ok bool) {
	idx := bytes.Index(text, ledgerMarker)
	if idx < 0 {
		return Ledger{}, false, false
	}
	var raw struct {
		Count   *int   `json:"record_count"`
		Lengths *[]int `json:"record_lengths"`
	}
	if err := json.Unmarshal(text[idx:], &raw); err != nil {
		return Ledger{}, true, false
	}
	if raw.Count == nil || raw.Lengths == nil {
		return Ledger{}, true, false
	}
	if *raw.Count < 0 || len(*raw.Lengths) != *raw.Count {
		return Ledger{}, true, false
	}
	for _, n := range *raw.Lengths {
		if n < 0 {
			return Ledger{}, true, false
		}
	}
	return Ledger{RecordCount: *raw.Count, RecordLengths: *raw.Lengths}, true, true
}
