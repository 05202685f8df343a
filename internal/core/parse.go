package core

import "strings"

// ParseRows splits CSV text into rows of trimmed fields.
//
// A '"' toggles quoting and a doubled quote inside a quoted field is a
// literal quote. Commas separate fields and '\n' or '\r' end a row only
// outside quotes. Blank lines produce no row, so "\r\n" is a single break.
//
// Returns a FormatError when fewer than two rows (header plus data) remain.
func ParseRows(text string) ([][]string, error) {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	flushRow := func() {
		if field.Len() > 0 || len(row) > 0 {
			row = append(row, strings.TrimSpace(field.String()))
			rows = append(rows, row)
		}
		row = nil
		field.Reset()
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(text) && text[i+1] == '"' {
				field.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			row = append(row, strings.TrimSpace(field.String()))
			field.Reset()
		case (c == '\n' || c == '\r') && !inQuotes:
			flushRow()
		default:
			field.WriteByte(c)
		}
	}
	flushRow()

	if len(rows) < 2 {
		return nil, newFormatError("CSV is empty or missing headers")
	}
	return rows, nil
}
