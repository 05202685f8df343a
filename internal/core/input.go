package core

// input.go prepares raw upload bytes for ParseRows.
//
// Exports from Windows tools often start with a UTF-8 BOM, and some
// telephony exports carry stray Latin-1 bytes in agent names. Both are
// cleaned here so that header detection and name matching see plain UTF-8.

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadImport reads at most maxSize bytes of CSV text from r.
// A non-positive maxSize disables the limit.
func ReadImport(r io.Reader, maxSize int64) (string, error) {
	src := r
	if maxSize > 0 {
		src = io.LimitReader(r, maxSize+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read import: %w", err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, maxSize)
	}

	return SanitizeText(data), nil
}

// SanitizeText drops a leading BOM and replaces invalid UTF-8 sequences
// with U+FFFD.
func SanitizeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}
