package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/agentstats/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Postgres error codes handled explicitly.
const (
	pgUniqueViolation = "23505"
)

// statColumns are the nullable counter columns of agent_stats, in the
// parameter order used by the upsert statements.
var statColumns = []string{
	"incidents_resolved",
	"sla_breach",
	"calls_answered",
	"aht",
	"avg_hold",
	"transfers",
}

var (
	upsertOverwriteSQL  = buildUpsert(overwriteExpr, overwriteExpr("csat"))
	upsertAccumulateSQL = buildUpsert(accumulateExpr, overwriteExpr("csat"))
	replaceStatsSQL     = buildUpsert(replaceExpr, replaceExpr("csat"))
)

func replaceExpr(col string) string {
	return "EXCLUDED." + col
}

func overwriteExpr(col string) string {
	return fmt.Sprintf("COALESCE(EXCLUDED.%[1]s, agent_stats.%[1]s)", col)
}

func accumulateExpr(col string) string {
	return fmt.Sprintf("CASE WHEN EXCLUDED.%[1]s IS NULL THEN agent_stats.%[1]s "+
		"ELSE COALESCE(agent_stats.%[1]s, 0) + EXCLUDED.%[1]s END", col)
}

// buildUpsert renders an INSERT .. ON CONFLICT for one agent's stats.
// The row is only written when the agent exists on the team, so a zero
// rows-affected result means the agent is missing.
func buildUpsert(counter func(col string) string, csat string) string {
	var sets []string
	for _, col := range statColumns {
		sets = append(sets, fmt.Sprintf("%s = %s", col, counter(col)))
	}
	sets = append(sets, "csat = "+csat, "last_updated = now()")

	return `INSERT INTO agent_stats (agent_id, team_id, ` + strings.Join(statColumns, ", ") + `, csat, last_updated)
SELECT a.id, a.team_id, $3::bigint, $4::bigint, $5::bigint, $6::bigint, $7::bigint, $8::bigint, $9::double precision, now()
FROM agents a
WHERE a.id = $1::uuid AND a.team_id = $2
ON CONFLICT (agent_id) DO UPDATE SET
	` + strings.Join(sets, ",\n\t")
}

// Postgres is a core.Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the tables and indexes when they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) ListAgents(ctx context.Context, ownerID string) ([]core.Agent, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id::text, team_id, name, role, avatar, created_at
		FROM agents
		WHERE team_id = $1
		ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	agents, err := pgx.CollectRows(rows, pgx.RowToStructByPos[core.Agent])
	if err != nil {
		return nil, fmt.Errorf("scan agents: %w", err)
	}
	return agents, nil
}

func (p *Postgres) GetAgent(ctx context.Context, ownerID, agentID string) (core.Agent, error) {
	if uuid.Validate(agentID) != nil {
		return core.Agent{}, core.ErrAgentNotFound
	}
	rows, err := p.pool.Query(ctx, `
		SELECT id::text, team_id, name, role, avatar, created_at
		FROM agents
		WHERE id = $1::uuid AND team_id = $2`, agentID, ownerID)
	if err != nil {
		return core.Agent{}, fmt.Errorf("query agent: %w", err)
	}
	agent, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[core.Agent])
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Agent{}, core.ErrAgentNotFound
	}
	if err != nil {
		return core.Agent{}, fmt.Errorf("scan agent: %w", err)
	}
	return agent, nil
}

func (p *Postgres) CreateAgent(ctx context.Context, agent core.Agent) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO agents (id, team_id, name, role, avatar, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)`,
		agent.ID, agent.OwnerID, agent.Name, agent.Role, agent.Avatar, agent.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %q", core.ErrDuplicateAgent, agent.Name)
	}
	if err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// DeleteAgent removes the agent. Its agent_stats row goes with it through
// the foreign key cascade.
func (p *Postgres) DeleteAgent(ctx context.Context, ownerID, agentID string) error {
	if uuid.Validate(agentID) != nil {
		return core.ErrAgentNotFound
	}
	tag, err := p.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1::uuid AND team_id = $2`, agentID, ownerID)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrAgentNotFound
	}
	return nil
}

const selectStats = `
	SELECT agent_id::text, incidents_resolved, sla_breach, calls_answered,
	       aht, avg_hold, transfers, csat, last_updated
	FROM agent_stats`

func scanStats(row pgx.CollectableRow) (core.StatRecord, error) {
	var r core.StatRecord
	err := row.Scan(
		&r.AgentID,
		&r.IncidentsResolved, &r.SLABreach, &r.CallsAnswered,
		&r.AHT, &r.AvgHold, &r.Transfers, &r.CSAT,
		&r.LastUpdated,
	)
	return r, err
}

func (p *Postgres) ListStats(ctx context.Context, ownerID string) (map[string]core.StatRecord, error) {
	rows, err := p.pool.Query(ctx, selectStats+` WHERE team_id = $1`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanStats)
	if err != nil {
		return nil, fmt.Errorf("scan stats: %w", err)
	}

	out := make(map[string]core.StatRecord, len(records))
	for _, r := range records {
		out[r.AgentID] = r
	}
	return out, nil
}

func (p *Postgres) GetStats(ctx context.Context, ownerID, agentID string) (core.StatRecord, bool, error) {
	if uuid.Validate(agentID) != nil {
		return core.StatRecord{}, false, nil
	}
	rows, err := p.pool.Query(ctx, selectStats+` WHERE agent_id = $1::uuid AND team_id = $2`, agentID, ownerID)
	if err != nil {
		return core.StatRecord{}, false, fmt.Errorf("query stats: %w", err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, scanStats)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.StatRecord{}, false, nil
	}
	if err != nil {
		return core.StatRecord{}, false, fmt.Errorf("scan stats: %w", err)
	}
	return rec, true, nil
}

func statArgs(agentID, ownerID string, f core.StatFields) []any {
	return []any{
		agentID, ownerID,
		f.IncidentsResolved, f.SLABreach, f.CallsAnswered,
		f.AHT, f.AvgHold, f.Transfers, f.CSAT,
	}
}

// ApplyUpdates sends every upsert in one batch inside one transaction.
func (p *Postgres) ApplyUpdates(ctx context.Context, ownerID string, updates []core.StatUpdate) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, u := range updates {
		sql := upsertOverwriteSQL
		if u.Mode == core.MergeAccumulate {
			sql = upsertAccumulateSQL
		}
		batch.Queue(sql, statArgs(u.AgentID, ownerID, u.Fields)...)
	}

	br := tx.SendBatch(ctx, batch)
	for _, u := range updates {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return fmt.Errorf("upsert stats for %s: %w", u.AgentID, err)
		}
		if tag.RowsAffected() == 0 {
			br.Close()
			return fmt.Errorf("upsert stats for %s: %w", u.AgentID, core.ErrAgentNotFound)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (p *Postgres) ReplaceStats(ctx context.Context, ownerID string, record core.StatRecord) error {
	if uuid.Validate(record.AgentID) != nil {
		return core.ErrAgentNotFound
	}
	tag, err := p.pool.Exec(ctx, replaceStatsSQL, statArgs(record.AgentID, ownerID, record.StatFields)...)
	if err != nil {
		return fmt.Errorf("replace stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrAgentNotFound
	}
	return nil
}

var _ core.Store = (*Postgres)(nil)
