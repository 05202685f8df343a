package core

import (
	"context"
	"time"
)

// SourceKind identifies which vendor export shape an import was read as.
type SourceKind string

const (
	SourceUnknown   SourceKind = ""
	SourceTelephony SourceKind = "telephony"
	SourceTicketing SourceKind = "ticketing"
)

// Label returns the vendor name shown to users for this kind of export.
func (k SourceKind) Label() string {
	switch k {
	case SourceTelephony:
		return "Genesys"
	case SourceTicketing:
		return "ServiceNow"
	default:
		return "unknown"
	}
}

// Agent is a team member whose statistics are tracked.
// Name is unique within an owner's team and is the key imports match on.
type Agent struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

// StatFields is a partial set of agent metrics. A nil field is absent,
// which is distinct from a present zero.
type StatFields struct {
	IncidentsResolved *int64   `json:"incidentsResolved,omitempty"`
	SLABreach         *int64   `json:"slaBreach,omitempty"`
	CallsAnswered     *int64   `json:"callsAnswered,omitempty"`
	AHT               *int64   `json:"aht,omitempty"`     // seconds
	AvgHold           *int64   `json:"avgHold,omitempty"` // seconds
	Transfers         *int64   `json:"transfers,omitempty"`
	CSAT              *float64 `json:"csat,omitempty"`
}

// IsEmpty reports whether no field is present.
func (f StatFields) IsEmpty() bool {
	return f.IncidentsResolved == nil && f.SLABreach == nil && f.CallsAnswered == nil &&
		f.AHT == nil && f.AvgHold == nil && f.Transfers == nil && f.CSAT == nil
}

// StatRecord holds the stored metrics for one agent.
type StatRecord struct {
	AgentID string `json:"agentId"`
	StatFields
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
}

// MergeMode selects how a StatUpdate combines with an existing record.
type MergeMode int

const (
	// MergeOverwrite replaces each supplied field.
	MergeOverwrite MergeMode = iota
	// MergeAccumulate adds each supplied counter to the stored value.
	MergeAccumulate
)

func (m MergeMode) String() string {
	if m == MergeAccumulate {
		return "accumulate"
	}
	return "overwrite"
}

// StatUpdate is a resolved per-agent write produced by one import.
type StatUpdate struct {
	AgentID string
	Mode    MergeMode
	Fields  StatFields
}

// Store is the persistence gateway the service depends on.
//
// ApplyUpdates must be all-or-nothing: either every update in the batch is
// committed or none is. Implementations assign LastUpdated themselves.
type Store interface {
	ListAgents(ctx context.Context, ownerID string) ([]Agent, error)
	GetAgent(ctx context.Context, ownerID, agentID string) (Agent, error)
	CreateAgent(ctx context.Context, agent Agent) error
	DeleteAgent(ctx context.Context, ownerID, agentID string) error

	ListStats(ctx context.Context, ownerID string) (map[string]StatRecord, error)
	GetStats(ctx context.Context, ownerID, agentID string) (StatRecord, bool, error)
	ApplyUpdates(ctx context.Context, ownerID string, updates []StatUpdate) error
	ReplaceStats(ctx context.Context, ownerID string, record StatRecord) error
}

// LeaderboardEntry is one ranked agent on a leaderboard.
type LeaderboardEntry struct {
	Rank    int     `json:"rank"`
	AgentID string  `json:"agentId"`
	Name    string  `json:"name"`
	Avatar  string  `json:"avatar"`
	Value   float64 `json:"value"`
}

// AggregateSnapshot is the team-wide view derived from the current records.
// It is recomputed on every request and never stored.
type AggregateSnapshot struct {
	AgentCount     int                `json:"agentCount"`
	RecordCount    int                `json:"recordCount"`
	TotalIncidents int64              `json:"totalIncidents"`
	TotalBreaches  int64              `json:"totalBreaches"`
	TotalCalls     int64              `json:"totalCalls"`
	AvgAHT         float64            `json:"avgAht"`
	AvgAHTLabel    string             `json:"avgAhtLabel"`
	AvgCSAT        float64            `json:"avgCsat"`
	AvgCSATLabel   string             `json:"avgCsatLabel"`
	SLAPercent     string             `json:"slaPercent"`
	TopCSAT        []LeaderboardEntry `json:"topCsat"`
	TopAHT         []LeaderboardEntry `json:"topAht"`
	ComputedAt     time.Time          `json:"computedAt"`
}

func int64Ptr(v int64) *int64 { return &v }

func float64Ptr(v float64) *float64 { return &v }

func valueOr0(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
