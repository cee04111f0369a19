// Compryss - append text records to a continuously-compressed stream file
//
// Abstract
//
// This library persists an ordered sequence of text records into a single
// compressed file (conventionally named with a ".stream" extension), and
// later hands the records back one at a time without ever holding the whole
// decompressed file in memory. The file is one continuous gzip stream: every
// record is compressed through the same compressor, so later records may
// reference the dictionary window built from earlier ones. That makes the
// files small, but it also means there is no random access - a stream can
// only be decoded sequentially from offset zero.
//
//
// How to use
//
// Writing is a session: open a target with Create (or CreateLevel), call
// Append once per record, and finish with Close. Each Append compresses the
// record and flushes the produced bytes to the file immediately, so a crashed
// writer leaves at most one partial record behind; a file whose writer never
// reached Close is invalid and will not load. Close appends one final
// bookkeeping record - the ledger, which stores the record count and the
// exact byte length of every record - and terminates the gzip stream.
//
// Reading is also a session: open the file with NewReader and call Next until
// it returns io.EOF. The first Next performs a discovery pass over the whole
// file to locate and parse the trailing ledger, then a second pass begins
// from offset zero, slicing records out of the decompressed text using the
// lengths the ledger recorded. Both passes read the file in chunks of the
// buffer size given to NewReader; any size from one byte up works and decodes
// to identical output. ReadAll is a convenience that collects every record of
// a file in one call.
//
// One-shot helpers (Compress, Decompress, WriteSnapshot, ReadSnapshot) cover
// the degenerate case of a single buffer that needs no record structure.
//
//
// Command line tool
//
// This package contains a command line tool called "compryss", which can be
// installed with the following command:
//
//	$ go install github.com/GnomeBlue/compryss/cmd/compryss@latest
//
// The tool packs the lines of a text file into a .stream file and unpacks
// them again, loosely following gzip's option conventions:
//
//	$ compryss games.log           # creates games.log.stream
//	$ compryss -d games.log.stream # recreates games.log
//	$ compryss -l games.log.stream # prints the ledger
//
//
// Description of the stream format
//
// On disk a stream file is a single, ordinary gzip member. Decompressing it
// with any gzip tool yields the concatenation of all record texts followed
// directly by the ledger, a two-field JSON object in fixed key order:
//
//	{"record_count":N,"record_lengths":[l1,l2,...,lN]}
//
// There is no header, index or framing between records; the ledger's opening
// bytes act as the only marker, and the reader finds it by scanning the
// decompressed text. Record boundaries are recovered purely from the recorded
// lengths, which is why the ledger must be discovered before any record can
// be returned.
package compryss
