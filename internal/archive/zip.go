// SPDX-License-Identifier: EPL-2.0

// Package archive bundles converted files into a single ZIP download.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var ErrClosed = errors.New("archive: writer closed")

// Writer streams entries into a ZIP archive. Entry names are made unique,
// so two uploads called "a.mp3" produce "a_square_wave.wav" and
// "a_square_wave (2).wav".
type Writer struct {
	zw      *zip.Writer
	names   map[string]int
	entries int
	closed  bool
	modTime time.Time
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		zw:      zip.NewWriter(w),
		names:   make(map[string]int),
		modTime: time.Now(),
	}
}

// Create starts a new entry and returns a writer for its contents. The
// previous entry is complete once Create or Close is called.
func (a *Writer) Create(name string) (io.Writer, error) {
	if a.closed {
		return nil, ErrClosed
	}

	unique := a.uniqueName(name)
	w, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:     unique,
		Method:   zip.Deflate,
		Modified: a.modTime,
	})
	if err != nil {
		return nil, fmt.Errorf("archive: create %s: %w", unique, err)
	}

	a.entries++
	return w, nil
}

// Len returns the number of entries created so far.
func (a *Writer) Len() int { return a.entries }

// Close writes the central directory. It does not close the underlying writer.
func (a *Writer) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	if err := a.zw.Close(); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	return nil
}

func (a *Writer) uniqueName(name string) string {
	name = strings.TrimLeft(path.Clean("/"+strings.ReplaceAll(name, `\`, "/")), "/")
	if name == "" {
		name = "file"
	}

	key := strings.ToLower(name)
	n := a.names[key]
	a.names[key] = n + 1
	if n == 0 {
		return name
	}

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for {
		n++
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		ckey := strings.ToLower(candidate)
		if _, taken := a.names[ckey]; !taken {
			a.names[ckey] = 1
			a.names[key] = n
			return candidate
		}
	}
}
