// Package source provides the immutable byte buffer that backs one file's
// lex/parse/evaluate cycle.
//
// A Buffer owns its bytes for the entire compile+generate cycle of a file;
// every Token derived from it records a Cursor and a byte offset into it,
// and diagnostics read source lines back from it.
package source

import (
	"fmt"
	"os"
)

// Buffer is a named, immutable, NUL-terminated byte slice.
//
// The trailing NUL sentinel is not counted by Len; At returns 0 for it and
// for any offset past the end. The lexer bounds its scans with Len.
type Buffer struct {
	Path string
	data []byte
}

// New wraps raw file content in a Buffer, appending the NUL sentinel.
func New(path string, content []byte) *Buffer {
	data := make([]byte, len(content)+1)
	copy(data, content)
	return &Buffer{Path: path, data: data}
}

// ReadFile loads path into a Buffer.
func ReadFile(path string) (*Buffer, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return New(path, content), nil
}

// FromString wraps a string as a Buffer, used for `$` interpolation, which
// re-lexes a runtime-produced string through a fresh lexer sharing the
// outer environment.
func FromString(path, content string) *Buffer {
	return New(path, []byte(content))
}

// Len returns the number of real (non-sentinel) bytes.
func (b *Buffer) Len() int { return len(b.data) - 1 }

// At returns the byte at offset, or 0 (NUL) past the end.
func (b *Buffer) At(offset int) byte {
	if offset < 0 || offset >= len(b.data) {
		return 0
	}
	return b.data[offset]
}

// Slice returns the bytes in [start, start+length), which must lie within
// the buffer (the NUL sentinel is never included in a returned slice by
// well-behaved callers).
func (b *Buffer) Slice(start, length int) []byte {
	return b.data[start : start+length]
}

// Text is a convenience wrapper over Slice returning a string copy.
func (b *Buffer) Text(start, length int) string {
	return string(b.Slice(start, length))
}

// Line returns the full text of the given 1-based line number, without the
// trailing newline, for diagnostic rendering.
func (b *Buffer) Line(line int) string {
	current := 1
	start := 0
	for i := 0; i < len(b.data)-1; i++ {
		if b.data[i] == '\n' {
			if current == line {
				return string(b.data[start:i])
			}
			current++
			start = i + 1
		}
	}
	if current == line {
		return string(b.data[start : len(b.data)-1])
	}
	return ""
}
