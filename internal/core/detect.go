package core

import "strings"

// Column names that identify and feed the two recognized export shapes.
const (
	ColAgentName   = "agent name"
	ColAnswered    = "answered"
	ColAvgHandle   = "avg handle"
	ColAvgHold     = "avg hold"
	ColTransferred = "transferred"

	ColAssignedTo = "assigned to"
	ColOutOfSLA   = "out of sla"
)

// HeaderIndex maps normalized column names to their position in a row.
// When a name repeats, the first position wins.
type HeaderIndex map[string]int

// MakeHeaderIndex builds a HeaderIndex from a raw header row.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := NormalizeHeader(h)
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// Lookup returns the column position for name, or -1 when absent.
func (h HeaderIndex) Lookup(name string) int {
	if i, ok := h[name]; ok {
		return i
	}
	return -1
}

// Has reports whether the column exists.
func (h HeaderIndex) Has(name string) bool {
	_, ok := h[name]
	return ok
}

// NormalizeHeader lower-cases a header cell and removes every quote character.
func NormalizeHeader(s string) string {
	return strings.TrimSpace(stripQuoteChars(strings.ToLower(s)))
}

// DetectFormat classifies a header row. Telephony wins when both
// signatures are present.
func DetectFormat(header []string) (SourceKind, HeaderIndex, error) {
	idx := MakeHeaderIndex(header)

	switch {
	case idx.Has(ColAgentName):
		return SourceTelephony, idx, nil
	case idx.Has(ColAssignedTo):
		return SourceTicketing, idx, nil
	default:
		return SourceUnknown, idx, newFormatError(
			"unknown CSV format: expected 'Agent Name' (%s) or 'Assigned to' (%s)",
			SourceTelephony.Label(), SourceTicketing.Label())
	}
}

// stripQuoteChars removes all single and double quote characters.
func stripQuoteChars(s string) string {
	if !strings.ContainsAny(s, `"'`) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\'' {
			return -1
		}
		return r
	}, s)
}

// stripWrappingQuotes drops one leading and one trailing double quote.
func stripWrappingQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

// cell returns the field at i, or "" when i is out of range.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
