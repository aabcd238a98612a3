package core

// streaming.go provides the reader chain applied to CSV payloads.
//
//   - BOMSkippingReader: Removes the UTF-8 BOM (0xEF 0xBB 0xBF) Excel adds on Windows
//   - UTF8Sanitizer: Replaces invalid UTF-8 bytes with '?' without buffering the file
//   - SizeLimitReader: Fails with ErrFileTooLarge once a byte budget is spent
//
// Use WrapForCSV to apply the text transforms in the correct order.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips a leading UTF-8 BOM.
type BOMSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{r: bufio.NewReader(r)}
}

// Read implements io.Reader. The first call drops the BOM if present.
func (b *BOMSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			_, _ = b.r.Discard(len(utf8BOM))
		}
	}
	return b.r.Read(p)
}

// UTF8Sanitizer wraps an io.Reader and replaces each invalid UTF-8 byte
// with '?'. Multi-byte sequences split across reads are carried over.
type UTF8Sanitizer struct {
	r    io.Reader
	buf  []byte
	out  []byte // sanitized bytes not yet returned
	tail []byte // incomplete sequence held from the previous read
	err  error
}

// NewUTF8Sanitizer creates a new streaming UTF-8 sanitizer.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{
		r:    r,
		buf:  make([]byte, 32*1024),
		tail: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

func (s *UTF8Sanitizer) fill() {
	n := copy(s.buf, s.tail)
	s.tail = s.tail[:0]

	m, err := s.r.Read(s.buf[n:])
	n += m
	if err != nil {
		s.err = err
	}
	s.out = s.sanitize(s.buf[:n], s.err != nil)
}

// sanitize rewrites data in place. Unless final is set, a trailing
// incomplete sequence is moved to s.tail for the next fill.
func (s *UTF8Sanitizer) sanitize(data []byte, final bool) []byte {
	write := 0
	for read := 0; read < len(data); {
		if data[read] < utf8.RuneSelf {
			data[write] = data[read]
			write++
			read++
			continue
		}
		if !final && !utf8.FullRune(data[read:]) {
			s.tail = append(s.tail, data[read:]...)
			break
		}
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return data[:write]
}

// SizeLimitReader returns ErrFileTooLarge once more than Limit bytes have
// been read from the wrapped reader.
type SizeLimitReader struct {
	r         io.Reader
	Limit     int64
	BytesRead int64
}

// NewSizeLimitReader wraps r with a byte budget. limit <= 0 disables the check.
func NewSizeLimitReader(r io.Reader, limit int64) *SizeLimitReader {
	return &SizeLimitReader{r: r, Limit: limit}
}

// Read implements io.Reader.
func (l *SizeLimitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.BytesRead += int64(n)
	if l.Limit > 0 && l.BytesRead > l.Limit {
		return n, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, l.Limit)
	}
	return n, err
}

// WrapForCSV strips the BOM first and then sanitizes UTF-8.
func WrapForCSV(r io.Reader) io.Reader {
	return NewUTF8Sanitizer(NewBOMSkippingReader(r))
}
