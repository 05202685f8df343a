package core

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// LeaderboardSize is how many agents each leaderboard lists.
const LeaderboardSize = 3

// ComputeAggregate derives team metrics from the complete record set.
//
// Totals and averages cover every record in stats. Leaderboards join the
// records onto agents, so ties keep the order of the agents slice. Missing
// fields count as zero.
func ComputeAggregate(agents []Agent, stats map[string]StatRecord) AggregateSnapshot {
	snap := AggregateSnapshot{
		AgentCount:  len(agents),
		RecordCount: len(stats),
		ComputedAt:  time.Now().UTC(),
	}

	var (
		ahtSum   int64
		ahtCount int
		csatSum  float64
	)
	for _, rec := range stats {
		snap.TotalIncidents += valueOr0(rec.IncidentsResolved)
		snap.TotalBreaches += valueOr0(rec.SLABreach)
		snap.TotalCalls += valueOr0(rec.CallsAnswered)

		if aht := valueOr0(rec.AHT); aht > 0 {
			ahtSum += aht
			ahtCount++
		}
		if rec.CSAT != nil {
			csatSum += *rec.CSAT
		}
	}

	if ahtCount > 0 {
		snap.AvgAHT = float64(ahtSum) / float64(ahtCount)
	}
	if len(stats) > 0 {
		snap.AvgCSAT = csatSum / float64(len(stats))
	}
	snap.AvgAHTLabel = fmt.Sprintf("%ds", int64(math.Round(snap.AvgAHT)))
	snap.AvgCSATLabel = fmt.Sprintf("%.1f", snap.AvgCSAT)
	snap.SLAPercent = SLAPercent(snap.TotalIncidents, snap.TotalBreaches)

	snap.TopCSAT, snap.TopAHT = leaderboards(agents, stats)
	return snap
}

// SLAPercent formats the share of incidents resolved within SLA.
func SLAPercent(incidents, breaches int64) string {
	if incidents == 0 {
		return "100%"
	}
	pct := (1 - float64(breaches)/float64(incidents)) * 100
	return fmt.Sprintf("%.1f%%", pct)
}

type rankedAgent struct {
	agent Agent
	csat  float64
	aht   int64
}

func leaderboards(agents []Agent, stats map[string]StatRecord) (topCSAT, topAHT []LeaderboardEntry) {
	var byCSAT, byAHT []rankedAgent
	for _, a := range agents {
		rec := stats[a.ID]
		ra := rankedAgent{agent: a, aht: valueOr0(rec.AHT)}
		if rec.CSAT != nil {
			ra.csat = *rec.CSAT
		}
		if ra.csat > 0 {
			byCSAT = append(byCSAT, ra)
		}
		if ra.aht > 0 {
			byAHT = append(byAHT, ra)
		}
	}

	// Stable sorts keep agent order for ties.
	slices.SortStableFunc(byCSAT, func(a, b rankedAgent) int {
		switch {
		case a.csat > b.csat:
			return -1
		case a.csat < b.csat:
			return 1
		}
		return 0
	})
	slices.SortStableFunc(byAHT, func(a, b rankedAgent) int {
		switch {
		case a.aht < b.aht:
			return -1
		case a.aht > b.aht:
			return 1
		}
		return 0
	})

	topCSAT = make([]LeaderboardEntry, 0, LeaderboardSize)
	for i, ra := range byCSAT[:min(len(byCSAT), LeaderboardSize)] {
		topCSAT = append(topCSAT, entry(i, ra.agent, ra.csat))
	}
	topAHT = make([]LeaderboardEntry, 0, LeaderboardSize)
	for i, ra := range byAHT[:min(len(byAHT), LeaderboardSize)] {
		topAHT = append(topAHT, entry(i, ra.agent, float64(ra.aht)))
	}
	return topCSAT, topAHT
}

func entry(i int, a Agent, v float64) LeaderboardEntry {
	return LeaderboardEntry{Rank: i + 1, AgentID: a.ID, Name: a.Name, Avatar: a.Avatar, Value: v}
}
