package compryss

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCreateRefusesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data"+Ext)
	if err := os.WriteFile(path, []byte("old contents"), 0666); err != nil {
		t.Fatal(err)
	}

	if _, err := Create(path, false); !errors.Is(err, ErrAlreadyExists) {
		t.Fatal("expected ErrAlreadyExists, got:", err)
	}

	// The refused create must not have touched the file.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "old contents" {
		t.Fatal("refused create modified the target")
	}
}

func TestCreateOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data"+Ext)
	if err := os.WriteFile(path, []byte("old contents"), 0666); err != nil {
		t.Fatal(err)
	}

	w, err := Create(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Append([]byte("fresh")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	// No byte of the prior file may survive: the new file must decode as a
	// valid one-record stream.
	recs, err := ReadAll(path, 64)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || string(recs[0]) != "fresh" {
		t.Fatal("overwritten file does not hold the new record:", recs)
	}
}

func TestWriterLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data"+Ext)
	records := []string{
		"more test1, testing until you drop!",
		"more test2",
		"more test3",
		"more test4",
	}

	w, err := Create(path, false)
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range records {
		if err := w.Append([]byte(rec)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	led := w.Ledger()
	if led.RecordCount != len(records) {
		t.Fatal("wrong record count:", led.RecordCount)
	}
	for i, rec := range records {
		if led.RecordLengths[i] != len(rec) {
			t.Fatalf("record %d: ledger says %d bytes, record has %d",
				i, led.RecordLengths[i], len(rec))
		}
	}
}

func TestWriterUnusableAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data"+Ext)
	w, err := Create(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Append([]byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Append([]byte("two")); err == nil {
		t.Fatal("Append after Close did not fail")
	}
	if err := w.Close(); err == nil {
		t.Fatal("second Close did not fail")
	}
}

func TestLedgerSnapshotIsACopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data"+Ext)
	w, err := Create(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Append([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	led := w.Ledger()
	led.RecordLengths[0] = 999
	if err := w.Append([]byte("defg")); err != nil {
		t.Fatal(err)
	}
	if got := w.Ledger(); got.RecordLengths[0] != 3 || got.RecordLengths[1] != 4 {
		t.Fatal("writer ledger was mutated through a snapshot:", got)
	}
	w.Close()
}
