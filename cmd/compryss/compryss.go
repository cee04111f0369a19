package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/GnomeBlue/compryss"

	"github.com/djherbis/atime"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/ssh/terminal"
)

const VERSION = "1.0"

var flagStdout = pflag.BoolP("stdout", "c", false, "write records on standard output, keep original files unchanged")
var flagUnpack = pflag.BoolP("decompress", "d", false, "unpack records from stream files")
var flagForce = pflag.BoolP("force", "f", false, "force overwrite of output file")
var flagHelp = pflag.BoolP("help", "h", false, "give this help")
var flagKeep = pflag.BoolP("keep", "k", false, "keep (don't delete) input files")
var flagList = pflag.BoolP("list", "l", false, "print the ledger of stream files")
var flagTest = pflag.BoolP("test", "t", false, "test stream file integrity")
var flagVersion = pflag.BoolP("version", "V", false, "display version number")
var flagFast = pflag.BoolP("fast", "1", false, "compress faster")
var flagBest = pflag.BoolP("best", "9", false, "compress better")
var flagBuffer = pflag.IntP("buffer", "b", compryss.DefaultBufferSize, "read buffer size used while unpacking")

const (
	ModePack = iota
	ModeUnpack
	ModeTest
	ModeList
)

var Mode = ModePack
var Level = gzip.DefaultCompression
var Files []string
var OutFn string
var IsStdinTerm bool = terminal.IsTerminal(0)

func main() {
	pflag.Parse()
	if *flagHelp {
		Usage()
		return
	}
	if *flagVersion {
		fmt.Println("compryss", VERSION)
		return
	}

	switch {
	case *flagFast:
		Level = gzip.BestSpeed
	case *flagBest:
		Level = gzip.BestCompression
	}

	Files = pflag.Args()
	if len(Files) == 0 {
		Usage()
		os.Exit(1)
	}

	switch {
	case *flagList:
		Mode = ModeList
	case *flagTest:
		Mode = ModeTest
	case *flagUnpack:
		Mode = ModeUnpack
	}

	SetSignalHandler()
	os.Exit(Run())
}

func SetSignalHandler() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-ch
		if OutFn != "" {
			os.Remove(OutFn)
		}
		os.Exit(1)
	}()
}

// Carry mode, ownership and both timestamps of the input over to the output,
// the way gzip does.
func CopyStat(outfn string, fi os.FileInfo) {
	os.Chmod(outfn, fi.Mode())
	if sys, ok := fi.Sys().(*syscall.Stat_t); ok {
		os.Chown(outfn, int(sys.Uid), int(sys.Gid))
		os.Chtimes(outfn, atime.Get(fi), fi.ModTime())
	}
}

func fatal(args ...interface{}) {
	fmt.Fprint(os.Stderr, "compryss: ")
	fmt.Fprintln(os.Stderr, args...)
}

// Ask before clobbering an existing output file, if there is a terminal to
// ask on. Returns true if the file may be overwritten.
func confirmOverwrite(outfn string) bool {
	if *flagForce {
		return true
	}
	if _, err := os.Stat(outfn); err != nil {
		return true
	}
	if !IsStdinTerm {
		fatal(outfn, "already exists; use -f to overwrite")
		return false
	}
	fmt.Printf("compryss: %s already exists; do you wish to overwrite (y or n)? ", outfn)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	if len(input) == 0 || input[0] != 'y' {
		fmt.Println("\tnot overwritten")
		return false
	}
	return true
}

// packFile turns each line of fn into one record of fn.stream.
func packFile(fn string) bool {
	if fn == "-" {
		fatal("cannot pack standard input; give a file name")
		return false
	}
	f, err := os.Open(fn)
	if err != nil {
		fatal(err)
		return false
	}
	defer f.Close()

	outfn := fn + compryss.Ext
	if !confirmOverwrite(outfn) {
		return false
	}

	w, err := compryss.CreateLevel(outfn, true, Level)
	if err != nil {
		fatal(err)
		return false
	}
	OutFn = outfn
	defer func() {
		if OutFn != "" {
			os.Remove(OutFn)
		}
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if err := w.Append(scanner.Bytes()); err != nil {
			fatal(err)
			return false
		}
	}
	if err := scanner.Err(); err != nil {
		fatal(err)
		return false
	}
	if err := w.Close(); err != nil {
		fatal(err)
		return false
	}
	OutFn = ""

	if fi, err := f.Stat(); err == nil {
		CopyStat(outfn, fi)
	}
	if !*flagKeep {
		os.Remove(fn)
	}
	return true
}

// unpackFile writes the records of fn back out as lines, either next to the
// input (with the .stream suffix stripped) or on stdout with -c.
func unpackFile(fn string) bool {
	if filepath.Ext(fn) != compryss.Ext {
		fatal(fn, "unknown suffix -- ignored")
		return true
	}

	recs, err := compryss.ReadAll(fn, *flagBuffer)
	if err != nil {
		fatal(fn+":", err)
		return false
	}

	var out io.Writer
	var outfn string
	if *flagStdout {
		out = os.Stdout
	} else {
		outfn = strings.TrimSuffix(fn, compryss.Ext)
		if !confirmOverwrite(outfn) {
			return false
		}
		w, err := os.Create(outfn)
		if err != nil {
			fatal(err)
			return false
		}
		OutFn = outfn
		defer func() {
			w.Close()
			if OutFn != "" {
				os.Remove(OutFn)
			}
		}()
		out = w
	}

	bw := bufio.NewWriter(out)
	for _, rec := range recs {
		bw.Write(rec)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		fatal(err)
		return false
	}
	OutFn = ""

	if outfn != "" {
		if f, err := os.Open(fn); err == nil {
			if fi, err := f.Stat(); err == nil {
				CopyStat(outfn, fi)
			}
			f.Close()
		}
		if !*flagKeep {
			os.Remove(fn)
		}
	}
	return true
}

// testFile pulls every record of fn and reports decoding problems without
// writing anything.
func testFile(fn string) bool {
	r := compryss.NewReader(fn, *flagBuffer)
	defer r.Close()
	for {
		_, err := r.Next()
		if err == io.EOF {
			return true
		}
		if err != nil {
			fatal(fn+":", err)
			return false
		}
	}
}

func listFile(fn string) bool {
	r := compryss.NewReader(fn, *flagBuffer)
	defer r.Close()
	led, err := r.Ledger()
	if err != nil {
		fatal(fn+":", err)
		return false
	}
	fmt.Printf("%s: %d records, lengths %v\n", fn, led.RecordCount, led.RecordLengths)
	return true
}

func Run() int {
	ok := true
	for _, fn := range Files {
		switch Mode {
		case ModePack:
			ok = packFile(fn) && ok
		case ModeUnpack:
			ok = unpackFile(fn) && ok
		case ModeTest:
			ok = testFile(fn) && ok
		case ModeList:
			ok = listFile(fn) && ok
		}
	}
	if !ok {
		return 1
	}
	return 0
}

func Usage() {
	// pflag.Usage is avoided for the same reasons as gzip's own help: it
	// sorts by long name and prints "[=false]" next to boolean options.
	fmt.Print(`Usage: compryss [OPTION]... FILE...
Pack each line of FILEs into compressed record-stream files (FILE.stream),
or unpack them again.

  -c, --stdout      write records on standard output (with -d)
  -d, --decompress  unpack records from stream files
  -f, --force       force overwrite of output file
  -h, --help        give this help
  -k, --keep        keep (don't delete) input files
  -l, --list        print the ledger of stream files
  -t, --test        test stream file integrity
  -V, --version     display version number
  -b, --buffer N    read buffer size used while unpacking
  -1, --fast        compress faster
  -9, --best        compress better
`)
}
