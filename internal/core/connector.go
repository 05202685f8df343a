package core

import (
	"math"
	"strconv"
	"strings"
)

// msThreshold is the raw duration above which a value is read as
// milliseconds rather than seconds.
const msThreshold = 10000

// Delta is the partial per-agent update one connector derives from one
// import. Only the fields the connector kind populates are non-nil.
type Delta struct {
	Resolved  *int64
	Breached  *int64
	Answered  *int64
	AHT       *int64
	Hold      *int64
	Transfers *int64
}

// Fields maps the delta onto stored StatRecord field names.
func (d Delta) Fields() StatFields {
	return StatFields{
		IncidentsResolved: d.Resolved,
		SLABreach:         d.Breached,
		CallsAnswered:     d.Answered,
		AHT:               d.AHT,
		AvgHold:           d.Hold,
		Transfers:         d.Transfers,
	}
}

// DeltaMap holds deltas keyed by the agent name as it appears in the export.
type DeltaMap map[string]*Delta

// Reduction is the output of a connector over the data rows of one file.
type Reduction struct {
	Deltas      DeltaMap
	RowsRead    int
	RowsSkipped int
}

// Connector turns the data rows of one detected format into deltas.
type Connector interface {
	Kind() SourceKind
	// Mode is how the produced deltas combine with stored records.
	Mode() MergeMode
	Reduce(idx HeaderIndex, rows [][]string) Reduction
}

// ConnectorFor returns the reduction strategy for a detected format.
func ConnectorFor(kind SourceKind) (Connector, bool) {
	switch kind {
	case SourceTelephony:
		return TelephonyConnector{}, true
	case SourceTicketing:
		return TicketConnector{}, true
	default:
		return nil, false
	}
}

// TicketConnector reads ticketing exports where every row is one ticket.
// Counters accumulate within the file and across imports.
type TicketConnector struct{}

func (TicketConnector) Kind() SourceKind { return SourceTicketing }

func (TicketConnector) Mode() MergeMode { return MergeAccumulate }

func (TicketConnector) Reduce(idx HeaderIndex, rows [][]string) Reduction {
	nameCol := idx.Lookup(ColAssignedTo)
	slaCol := idx.Lookup(ColOutOfSLA)

	out := Reduction{Deltas: make(DeltaMap)}
	for _, row := range rows {
		out.RowsRead++
		name, ok := rowAgentName(row, nameCol)
		if !ok {
			out.RowsSkipped++
			continue
		}

		d, exists := out.Deltas[name]
		if !exists {
			d = &Delta{Resolved: int64Ptr(0), Breached: int64Ptr(0)}
			out.Deltas[name] = d
		}
		*d.Resolved++

		if slaCol >= 0 && NormalizeHeader(cell(row, slaCol)) == "true" {
			*d.Breached++
		}
	}
	return out
}

// TelephonyConnector reads call-center exports with one summary row per
// agent. A later row for the same agent replaces the earlier one.
type TelephonyConnector struct{}

func (TelephonyConnector) Kind() SourceKind { return SourceTelephony }

func (TelephonyConnector) Mode() MergeMode { return MergeOverwrite }

func (TelephonyConnector) Reduce(idx HeaderIndex, rows [][]string) Reduction {
	nameCol := idx.Lookup(ColAgentName)
	answeredCol := idx.Lookup(ColAnswered)
	ahtCol := idx.Lookup(ColAvgHandle)
	holdCol := idx.Lookup(ColAvgHold)
	transferCol := idx.Lookup(ColTransferred)

	out := Reduction{Deltas: make(DeltaMap)}
	for _, row := range rows {
		out.RowsRead++
		name, ok := rowAgentName(row, nameCol)
		if !ok {
			out.RowsSkipped++
			continue
		}

		d := &Delta{}
		if answeredCol >= 0 {
			d.Answered = int64Ptr(parseCount(cell(row, answeredCol)))
		}
		if ahtCol >= 0 {
			d.AHT = int64Ptr(NormalizeSeconds(parseDuration(cell(row, ahtCol))))
		}
		if holdCol >= 0 {
			d.Hold = int64Ptr(NormalizeSeconds(parseDuration(cell(row, holdCol))))
		}
		if transferCol >= 0 {
			d.Transfers = int64Ptr(parseCount(cell(row, transferCol)))
		}
		out.Deltas[name] = d
	}
	return out
}

// NormalizeSeconds converts a raw duration to whole seconds. Values above
// msThreshold are taken to be milliseconds. Values that do not fit an
// int64 after scaling are 0.
func NormalizeSeconds(raw float64) int64 {
	if raw > msThreshold {
		raw /= 1000
	}
	raw = math.Round(raw)
	if raw < 0 || raw >= math.MaxInt64 || math.IsNaN(raw) {
		return 0
	}
	return int64(raw)
}

// rowAgentName extracts the agent name from a data row. Rows with fewer
// than two columns or an empty name are rejected.
func rowAgentName(row []string, col int) (string, bool) {
	if len(row) < 2 {
		return "", false
	}
	name := strings.TrimSpace(stripWrappingQuotes(cell(row, col)))
	return name, name != ""
}

// parseCount reads the leading integer of s, so "12.0" and "12abc" are
// both 12. Negatives, overflow and anything without a leading digit are 0.
func parseCount(s string) int64 {
	n, err := strconv.ParseInt(numericPrefix(s, false), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseDuration reads the leading decimal number of s, so "185s" is 185.
// Negatives and anything without a leading number are 0.
func parseDuration(s string) float64 {
	f, err := strconv.ParseFloat(numericPrefix(s, true), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// numericPrefix returns the longest leading run of s that forms a number:
// an optional sign and digits, plus a fraction and exponent when decimal is
// set. The result may be empty or a lone sign, which strconv rejects.
func numericPrefix(s string, decimal bool) string {
	s = strings.TrimSpace(s)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	i = skipDigits(s, i)
	if !decimal {
		return s[:i]
	}

	if i < len(s) && s[i] == '.' {
		if j := skipDigits(s, i+1); j > i+1 || i > start {
			i = j
		}
	}
	if i == start {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if k := skipDigits(s, j); k > j {
			i = k
		}
	}
	return s[:i]
}

func skipDigits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}
