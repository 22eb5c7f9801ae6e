// Package textio reads delimited row files line by line.
//
// Files that start with the gzip magic bytes are decompressed
// transparently, so a workflow may hand over psms.tsv or psms.tsv.gz.
package textio

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
)

// readerSize matches the large rows produced by search engines.
const readerSize = 50000

var gzipMagic = []byte{0x1f, 0x8b}

// Reader yields the lines of a row file.
type Reader struct {
	file *os.File
	gz   *pgzip.Reader
	buf  *bufio.Reader
}

// Open opens path for line reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := &Reader{file: f}
	peek := bufio.NewReaderSize(f, readerSize)
	magic, err := peek.Peek(len(gzipMagic))
	if err == nil && bytes.Equal(magic, gzipMagic) {
		gz, err := pgzip.NewReader(peek)
		if err != nil {
			f.Close()
			return nil, err
		}
		r.gz = gz
		r.buf = bufio.NewReaderSize(gz, readerSize)
		return r, nil
	}

	r.buf = peek
	return r, nil
}

// Ready reports whether another line can be read.
func (r *Reader) Ready() bool {
	if r == nil || r.buf == nil {
		return false
	}
	_, err := r.buf.Peek(1)
	return err == nil
}

// ReadLine returns the next line without its terminator.
// It returns io.EOF when no line is left.
func (r *Reader) ReadLine() (string, error) {
	if r == nil || r.buf == nil {
		return "", io.EOF
	}
	line, err := r.buf.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if line == "" && errors.Is(err, io.EOF) {
		return "", io.EOF
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// Close releases the file. Safe to call more than once.
func (r *Reader) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	var gzErr error
	if r.gz != nil {
		gzErr = r.gz.Close()
		r.gz = nil
	}
	err := r.file.Close()
	r.file = nil
	r.buf = nil
	if err != nil {
		return err
	}
	return gzErr
}

// IsGzip reports whether the file at path starts with the gzip magic bytes.
func IsGzip(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	magic := make([]byte, len(gzipMagic))
	n, err := io.ReadFull(f, magic)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return n == len(gzipMagic) && bytes.Equal(magic, gzipMagic), nil
}

// SplitRow splits a line on delimiter, keeping trailing empty cells.
func SplitRow(line string, delimiter rune) []string {
	return strings.Split(line, string(delimiter))
}

// ReadHeader returns the first line of a file split on delimiter.
func ReadHeader(path string, delimiter rune) ([]string, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	line, err := r.ReadLine()
	if err != nil {
		return nil, err
	}
	return SplitRow(line, delimiter), nil
}
