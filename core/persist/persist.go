// Package persist saves and loads gob-encoded objects by file name.
// Names are resolved by github.com/wangkuiyi/file, so they can refer
// to the local filesystem, the in-memory filesystem (/inmem/...), or
// HDFS (/hdfs/... and /webfs/...).  Names ending with ".gz" are
// gzip-compressed.
package persist

import (
	"encoding/gob"
	"fmt"
	"io"
	"strings"

	cmprs "github.com/wangkuiyi/compress_io"
	fs "github.com/wangkuiyi/file"
)

// Compression returns the format string compress_io expects for
// filename.  Any other extension, like ".batch", means plain content.
func Compression(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".gz"):
		return ".gz"
	case strings.HasSuffix(filename, ".bz2"):
		return ".bz2"
	}
	return ""
}

// Decompressing readers and compressing writers of compress_io do not
// close the underlying file.
type readCloser struct {
	io.ReadCloser
	f io.Closer
}

func (r *readCloser) Close() error {
	e := r.ReadCloser.Close()
	if ef := r.f.Close(); e == nil {
		e = ef
	}
	return e
}

type writeCloser struct {
	io.WriteCloser
	f io.Closer
}

func (w *writeCloser) Close() error {
	e := w.WriteCloser.Close()
	if ef := w.f.Close(); e == nil {
		e = ef
	}
	return e
}

// Open returns a reader of the decompressed content of filename.
func Open(filename string) (io.ReadCloser, error) {
	f, e := fs.Open(filename)
	if e != nil {
		return nil, fmt.Errorf("Cannot open %s: %w", filename, e)
	}
	format := Compression(filename)
	r := cmprs.NewReader(f, nil, format)
	if r == nil {
		f.Close()
		return nil, fmt.Errorf("Cannot decompress %s as %s", filename, format)
	}
	if format == "" {
		return r, nil
	}
	return &readCloser{r, f}, nil
}

// Create creates or truncates filename.  Callers must Close the
// returned writer to flush compressed content.
func Create(filename string) (io.WriteCloser, error) {
	f, e := fs.Create(filename)
	if e != nil {
		return nil, fmt.Errorf("Cannot create %s: %w", filename, e)
	}
	format := Compression(filename)
	w := cmprs.NewWriter(f, nil, format)
	if w == nil {
		f.Close()
		return nil, fmt.Errorf("Cannot compress %s as %s", filename, format)
	}
	if format == "" {
		return w, nil
	}
	return &writeCloser{w, f}, nil
}

// Save gob-encodes v into filename.
func Save(filename string, v interface{}) error {
	w, e := Create(filename)
	if e != nil {
		return e
	}
	if e := gob.NewEncoder(w).Encode(v); e != nil {
		w.Close()
		return fmt.Errorf("Cannot encode %s: %w", filename, e)
	}
	if e := w.Close(); e != nil {
		return fmt.Errorf("Cannot close %s: %w", filename, e)
	}
	return nil
}

// Load decodes the gob-encoded content of filename into v, which must
// be a pointer.
func Load(filename string, v interface{}) error {
	r, e := Open(filename)
	if e != nil {
		return e
	}
	defer r.Close()
	if e := gob.NewDecoder(r).Decode(v); e != nil {
		return fmt.Errorf("Cannot decode %s: %w", filename, e)
	}
	return nil
}
