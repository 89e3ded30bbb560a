// Package persistence implements the on-disk directory layout for
// collections: atomic, crash-safe writes of a collection's metadata,
// HNSW graph, and vector store.
package persistence

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
)

// ioBufferSize is the buffer size used for both writing and reading a
// collection's files. Large enough to amortize syscalls over a whole
// .hnsw/.vectors payload in one or two flushes.
const ioBufferSize = 256 * 1024

// SaveToFile writes the bytes produced by writeFunc to filename without
// ever leaving a partially-written file in its place: it writes to a
// sibling temp file in filename's directory, fsyncs it, closes it, then
// renames it over filename. The rename is the commit point — if writeFunc
// or any step before it fails, filename is left exactly as it was.
func SaveToFile(filename string, writeFunc func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp-*")
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmp.Name())
		}
	}()
	_ = tmp.Chmod(0644)

	w := bufio.NewWriterSize(tmp, ioBufferSize)
	if err := writeFunc(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return err
	}
	committed = true

	syncDir(filepath.Dir(filename))
	return nil
}

// syncDir fsyncs dir so a preceding rename within it is durable on POSIX
// filesystems. Best-effort: a failure here doesn't undo the rename, it
// just widens the crash window in which the rename might not yet be on
// disk, so it is not treated as an error.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}

// LoadFromFile opens filename and hands a buffered reader to readFunc.
func LoadFromFile(filename string, readFunc func(io.Reader) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	return readFunc(bufio.NewReaderSize(f, ioBufferSize))
}
