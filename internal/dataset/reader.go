package dataset

// reader.go prepares raw file bytes for the CSV parser.
//
//   - skipBOM drops a leading UTF-8 byte order mark written by Excel and
//     other Windows tools.
//   - utf8Validator fails the read as soon as an invalid UTF-8 sequence
//     is seen. Multi-byte runes split across reads are carried over.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader positioned after a leading BOM, if any.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// utf8Validator wraps an io.Reader and rejects invalid UTF-8.
type utf8Validator struct {
	reader io.Reader

	// Leftover bytes from the previous read that may start a multi-byte rune
	pending []byte

	offset int64
}

func newUTF8Validator(r io.Reader) *utf8Validator {
	return &utf8Validator{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (v *utf8Validator) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := copy(p, v.pending)
	v.pending = v.pending[:0]

	m, err := v.reader.Read(p[n:])
	n += m
	if n == 0 {
		return 0, err
	}

	keep := n
	if err == nil {
		if t := incompleteTrailingBytes(p[:n]); t > 0 {
			keep = n - t
			v.pending = append(v.pending, p[keep:n]...)
			if keep == 0 {
				return 0, nil
			}
		}
	}

	if i := firstInvalid(p[:keep]); i >= 0 {
		return 0, fmt.Errorf("%w at byte %d", ErrInvalidEncoding, v.offset+int64(i))
	}

	v.offset += int64(keep)
	return keep, err
}

// firstInvalid returns the index of the first invalid UTF-8 sequence, or -1.
func firstInvalid(data []byte) int {
	if utf8.Valid(data) {
		return -1
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

// incompleteTrailingBytes returns the number of bytes at the end of data
// that could be the start of an incomplete multi-byte UTF-8 sequence.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= 3 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		// Anything but a continuation byte ends the scan
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen returns the expected length of a UTF-8 sequence starting with byte b.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}
