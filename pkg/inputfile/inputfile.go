// Package inputfile provides read-once, cached access to a source file's
// byte content (spec §5): "the Grammar's file content buffer is
// read-once and immutable... memoization of file contents is
// process-local and cleared implicitly when the InputFile instance is
// dropped."
package inputfile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"
)

// InputFile lazily reads and caches a file's content. Safe for
// concurrent use, though the engine itself is single-threaded.
type InputFile struct {
	path string

	once    sync.Once
	content []byte
	err     error
}

// New returns an InputFile bound to path. No I/O happens until Content
// is first called.
func New(path string) *InputFile {
	return &InputFile{path: path}
}

// Content returns the file's bytes, reading the file exactly once and
// caching the result (or the read error) for subsequent calls.
func (f *InputFile) Content() ([]byte, error) {
	f.once.Do(func() {
		handle, err := os.Open(f.path)
		if err != nil {
			f.err = err
			return
		}
		defer handle.Close()

		data, err := io.ReadAll(handle)
		if err != nil && !errors.Is(err, io.EOF) {
			f.err = err
			return
		}
		f.content = data
	})
	return f.content, f.err
}

// Path returns the path this InputFile was constructed with.
func (f *InputFile) Path() string {
	return f.path
}

// ColumnToLine converts a byte offset into a 1-based line number by
// counting newlines before it. Returns 1 if the content can't be read.
func (f *InputFile) ColumnToLine(column int) int {
	content, err := f.Content()
	if err != nil {
		return 1
	}
	if column > len(content) {
		column = len(content)
	}
	if column < 0 {
		column = 0
	}
	return bytes.Count(content[:column], []byte("\n")) + 1
}
