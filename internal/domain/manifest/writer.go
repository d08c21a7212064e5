package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/plugmirror/internal/domain/mirror"
)

// Writer errors.
var (
	ErrNotStarted = errors.New("manifest header not written")
	ErrClosed     = errors.New("manifest already closed")
)

// Writer streams a manifest: Begin writes the header, Add one stanza per
// record, Close the footer. Records are written as they arrive, so a run
// that aborts leaves everything resolved so far in place.
type Writer struct {
	w       io.Writer
	closer  io.Closer
	tmpl    Template
	started bool
	closed  bool
	count   int
}

// NewWriter wraps w.
func NewWriter(w io.Writer, tmpl Template) *Writer {
	return &Writer{w: w, tmpl: tmpl}
}

// Create truncates (or creates) the file at path and returns a Writer that
// closes it. The file is written in place, without a rename.
func Create(path string, tmpl Template) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest: %w", err)
	}

	w := NewWriter(f, tmpl)
	w.closer = f
	return w, nil
}

// Begin writes the header.
func (w *Writer) Begin() error {
	if w.closed {
		return ErrClosed
	}
	if w.started {
		return nil
	}
	if _, err := io.WriteString(w.w, w.tmpl.Header); err != nil {
		return fmt.Errorf("failed to write manifest header: %w", err)
	}
	w.started = true
	return nil
}

// Add writes the stanza for r.
func (w *Writer) Add(r mirror.Record) error {
	switch {
	case w.closed:
		return ErrClosed
	case !w.started:
		return ErrNotStarted
	}
	stanza, err := w.tmpl.Stanza(r)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w.w, stanza); err != nil {
		return fmt.Errorf("failed to write stanza %s: %w", r.ID(), err)
	}
	w.count++
	return nil
}

// Count returns the number of stanzas written.
func (w *Writer) Count() int {
	return w.count
}

// Close writes the footer and closes the underlying file, if any.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var err error
	if w.started {
		if _, werr := io.WriteString(w.w, w.tmpl.Footer); werr != nil {
			err = fmt.Errorf("failed to write manifest footer: %w", werr)
		}
	}
	if w.closer != nil {
		if cerr := w.closer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close manifest: %w", cerr)
		}
	}
	return err
}

// Abort closes the underlying file without writing the footer.
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
