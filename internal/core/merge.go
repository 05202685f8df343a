package core

import "time"

// ResolveUpdates matches deltas to known agents by name.
//
// Agents are visited in the given (stored) order. A delta is looked up by
// the exact agent name first and then by the name with wrapping quotes
// stripped. The fallback has no collision detection: two stored names that
// differ only by wrapping quotes both receive the same delta.
func ResolveUpdates(agents []Agent, deltas DeltaMap, mode MergeMode) []StatUpdate {
	var updates []StatUpdate
	for _, a := range agents {
		d, ok := deltas[a.Name]
		if !ok {
			d, ok = deltas[stripWrappingQuotes(a.Name)]
		}
		if !ok || d == nil {
			continue
		}
		updates = append(updates, StatUpdate{
			AgentID: a.ID,
			Mode:    mode,
			Fields:  d.Fields(),
		})
	}
	return updates
}

// Merge applies an update to the record and returns the result. Only the
// fields present in the update are written; every other field is kept.
func (r StatRecord) Merge(u StatUpdate, at time.Time) StatRecord {
	out := r
	out.AgentID = u.AgentID
	f := u.Fields

	out.IncidentsResolved = mergeCounter(r.IncidentsResolved, f.IncidentsResolved, u.Mode)
	out.SLABreach = mergeCounter(r.SLABreach, f.SLABreach, u.Mode)
	out.CallsAnswered = mergeCounter(r.CallsAnswered, f.CallsAnswered, u.Mode)
	out.AHT = mergeCounter(r.AHT, f.AHT, u.Mode)
	out.AvgHold = mergeCounter(r.AvgHold, f.AvgHold, u.Mode)
	out.Transfers = mergeCounter(r.Transfers, f.Transfers, u.Mode)
	if f.CSAT != nil {
		out.CSAT = float64Ptr(*f.CSAT)
	}

	out.LastUpdated = at
	return out
}

func mergeCounter(cur, next *int64, mode MergeMode) *int64 {
	switch {
	case next == nil:
		return cur
	case mode == MergeAccumulate:
		return int64Ptr(valueOr0(cur) + *next)
	default:
		return int64Ptr(*next)
	}
}
