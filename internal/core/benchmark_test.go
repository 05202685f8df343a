package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"
	"time"
)

// ============================================================================
// Parsing Benchmarks
// ============================================================================

// BenchmarkParseRows benchmarks tokenizing a typical telephony export.
func BenchmarkParseRows(b *testing.B) {
	text := generateTelephonyCSV(100)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ParseRows(text)
	}
}

// BenchmarkParseRows_Large benchmarks a larger ticketing export, which has
// one row per incident rather than one per agent.
func BenchmarkParseRows_Large(b *testing.B) {
	text := generateTicketingCSV(10000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ParseRows(text)
	}
}

// BenchmarkParseRows_Quoted benchmarks fields that need quote resolution.
func BenchmarkParseRows_Quoted(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("Agent Name,Answered\n")
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&sb, "\"Smith, \"\"Bob%d\"\"\",%d\n", i, i)
	}
	text := sb.String()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ParseRows(text)
	}
}

// BenchmarkSanitizeText_LargeDataset benchmarks BOM and UTF-8 cleanup on
// roughly 1MB of input.
func BenchmarkSanitizeText_LargeDataset(b *testing.B) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, bytes.Repeat([]byte("Jane Doe,42,185000,30,2\n"), 40000)...)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		SanitizeText(data)
	}
}

// ============================================================================
// Detection and Reduction Benchmarks
// ============================================================================

// BenchmarkDetectFormat benchmarks header classification.
// Called once per import.
func BenchmarkDetectFormat(b *testing.B) {
	header := []string{"Number", "Opened", "Short description", `"Assigned to"`, "State", "Out of SLA"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DetectFormat(header)
	}
}

// BenchmarkReduce compares the two connectors over parsed rows.
func BenchmarkReduce(b *testing.B) {
	cases := []struct {
		name string
		text string
	}{
		{"Telephony", generateTelephonyCSV(1000)},
		{"Ticketing", generateTicketingCSV(10000)},
	}

	for _, tc := range cases {
		rows, err := ParseRows(tc.text)
		if err != nil {
			b.Fatal(err)
		}
		kind, idx, err := DetectFormat(rows[0])
		if err != nil {
			b.Fatal(err)
		}
		conn, _ := ConnectorFor(kind)

		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				conn.Reduce(idx, rows[1:])
			}
		})
	}
}

// ============================================================================
// Merge and Aggregate Benchmarks
// ============================================================================

// BenchmarkResolveUpdates benchmarks name matching against a full roster.
func BenchmarkResolveUpdates(b *testing.B) {
	agents, _ := generateRoster(200)
	deltas := make(DeltaMap, len(agents))
	for _, a := range agents {
		deltas[a.Name] = &Delta{Resolved: int64Ptr(3), Breached: int64Ptr(1)}
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ResolveUpdates(agents, deltas, MergeAccumulate)
	}
}

// BenchmarkMerge benchmarks applying one accumulate update to a record.
func BenchmarkMerge(b *testing.B) {
	rec := StatRecord{AgentID: "a", StatFields: StatFields{IncidentsResolved: int64Ptr(10), CSAT: float64Ptr(4.2)}}
	u := StatUpdate{AgentID: "a", Mode: MergeAccumulate, Fields: StatFields{IncidentsResolved: int64Ptr(2), SLABreach: int64Ptr(1)}}
	now := time.Now()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rec.Merge(u, now)
	}
}

// BenchmarkComputeAggregate benchmarks the team snapshot for a large team.
func BenchmarkComputeAggregate(b *testing.B) {
	agents, stats := generateRoster(500)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ComputeAggregate(agents, stats)
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateTelephonyCSV generates a telephony export with one row per agent.
func generateTelephonyCSV(rows int) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{"Agent Name", "Answered", "Avg Handle", "Avg Hold", "Transferred"})
	for i := 0; i < rows; i++ {
		w.Write([]string{
			fmt.Sprintf("Agent %d", i),
			"42",
			"185000",
			"30",
			"2",
		})
	}
	w.Flush()

	return buf.String()
}

// generateTicketingCSV generates a ticketing export spread over 50 agents.
func generateTicketingCSV(rows int) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{"Number", "Assigned to", "Out of SLA"})
	for i := 0; i < rows; i++ {
		w.Write([]string{
			fmt.Sprintf("INC%07d", i),
			fmt.Sprintf("Agent %d", i%50),
			fmt.Sprint(i%7 == 0),
		})
	}
	w.Flush()

	return buf.String()
}

// generateRoster generates n agents, each with a full stat record.
func generateRoster(n int) ([]Agent, map[string]StatRecord) {
	agents := make([]Agent, n)
	stats := make(map[string]StatRecord, n)
	for i := range agents {
		id := fmt.Sprintf("agent-%d", i)
		agents[i] = Agent{ID: id, Name: fmt.Sprintf("Agent %d", i)}
		stats[id] = StatRecord{AgentID: id, StatFields: StatFields{
			IncidentsResolved: int64Ptr(int64(i % 40)),
			SLABreach:         int64Ptr(int64(i % 3)),
			CallsAnswered:     int64Ptr(int64(i % 90)),
			AHT:               int64Ptr(int64(120 + i%300)),
			CSAT:              float64Ptr(float64(i%50) / 10),
		}}
	}
	return agents, stats
}
