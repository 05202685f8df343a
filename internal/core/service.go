package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JonMunkholm/agentstats/internal/logging"
	"github.com/JonMunkholm/agentstats/internal/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWaitTime   time.Duration
	CommitTimeout time.Duration
}

// DefaultCommitTimeout bounds the batch write of one import.
const DefaultCommitTimeout = 30 * time.Second

// Service runs imports and serves team views over a Store.
type Service struct {
	store   Store
	limiter *ImportLimiter
	opts    Options
}

// NewService creates a Service backed by store.
func NewService(store Store, opts Options) *Service {
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = DefaultCommitTimeout
	}
	return &Service{
		store:   store,
		limiter: NewImportLimiter(opts.MaxConcurrent, opts.MaxWaitTime),
		opts:    opts,
	}
}

// ImportReader reads an upload and imports it. See ImportFile.
func (s *Service) ImportReader(ctx context.Context, ownerID, fileName string, r io.Reader) *ImportJob {
	text, err := ReadImport(r, s.opts.MaxFileSize)
	if err != nil {
		job := newImportJob(ownerID, fileName)
		logger := logging.WithFields(ctx, "job_id", job.ID, "team_id", ownerID, "file", fileName)
		metrics.ObserveImport("", false, job.Duration())
		return job.finish(logger, failed(SourceUnknown, err))
	}
	return s.ImportFile(ctx, ownerID, fileName, text)
}

// ImportFile parses one export, matches it against the team's agents and
// commits every matched update in a single batch.
//
// The returned job is always in JobDone. Its Outcome reports success with
// the number of agents updated, or failure with the cause: a FormatError,
// ErrNoMatch, ErrTooManyImports, or the store error unmodified. Nothing is
// written unless the outcome is a success.
func (s *Service) ImportFile(ctx context.Context, ownerID, fileName, text string) *ImportJob {
	job := newImportJob(ownerID, fileName)
	logger := logging.WithFields(ctx, "job_id", job.ID, "team_id", ownerID, "file", fileName)

	if err := s.limiter.Acquire(ctx); err != nil {
		metrics.ObserveImport("", false, job.Duration())
		return job.finish(logger, failed(SourceUnknown, err))
	}
	metrics.ImportsInFlight.Inc()
	defer func() {
		metrics.ImportsInFlight.Dec()
		s.limiter.Release()
	}()

	o := s.runImport(ctx, job, logger, text)
	job.finish(logger, o)

	metrics.ObserveImport(string(o.Source), o.Success, job.Duration())
	if job.Source != SourceUnknown {
		metrics.ObserveRows(string(job.Source), job.RowsRead, job.RowsSkipped)
	}
	if o.Success {
		metrics.AgentsUpdated.WithLabelValues(string(o.Source)).Add(float64(o.UpdatedCount))
	}
	return job
}

func (s *Service) runImport(ctx context.Context, job *ImportJob, logger *slog.Logger, text string) Outcome {
	job.advance(logger, JobParsing)
	rows, err := ParseRows(text)
	if err != nil {
		return failed(SourceUnknown, err)
	}
	kind, idx, err := DetectFormat(rows[0])
	if err != nil {
		return failed(SourceUnknown, err)
	}
	conn, _ := ConnectorFor(kind)
	job.Source = kind

	red := conn.Reduce(idx, rows[1:])
	job.RowsRead = red.RowsRead
	job.RowsSkipped = red.RowsSkipped
	job.NamesImported = len(red.Deltas)

	job.advance(logger, JobMatching)
	agents, err := s.store.ListAgents(ctx, job.OwnerID)
	if err != nil {
		return failed(kind, fmt.Errorf("list agents: %w", err))
	}
	updates := ResolveUpdates(agents, red.Deltas, conn.Mode())
	if len(updates) == 0 {
		return failed(kind, fmt.Errorf("%w: none of the %d imported names match the %d agents on the team",
			ErrNoMatch, len(red.Deltas), len(agents)))
	}

	// The commit runs to completion even if the caller goes away, so the
	// store either applies the whole batch or none of it.
	job.advance(logger, JobCommitting)
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.CommitTimeout)
	defer cancel()
	if err := s.store.ApplyUpdates(commitCtx, job.OwnerID, updates); err != nil {
		return failed(kind, err)
	}
	return succeeded(kind, len(updates))
}

// Aggregate reads a fresh snapshot of the team and computes its metrics.
func (s *Service) Aggregate(ctx context.Context, ownerID string) (AggregateSnapshot, error) {
	start := time.Now()
	defer func() { metrics.AggregateDuration.Observe(time.Since(start).Seconds()) }()

	var (
		agents []Agent
		stats  map[string]StatRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		agents, err = s.store.ListAgents(gctx, ownerID)
		if err != nil {
			return fmt.Errorf("list agents: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stats, err = s.store.ListStats(gctx, ownerID)
		if err != nil {
			return fmt.Errorf("list stats: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return AggregateSnapshot{}, err
	}

	return ComputeAggregate(agents, stats), nil
}

// ListAgents returns the team's agents in creation order.
func (s *Service) ListAgents(ctx context.Context, ownerID string) ([]Agent, error) {
	return s.store.ListAgents(ctx, ownerID)
}

// CreateAgent validates in and adds a new agent to the team.
func (s *Service) CreateAgent(ctx context.Context, ownerID string, in AgentInput) (Agent, error) {
	in = in.normalize()
	if err := validateStruct(in); err != nil {
		return Agent{}, err
	}

	agent := Agent{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      in.Name,
		Role:      in.Role,
		Avatar:    in.Avatar,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateAgent(ctx, agent); err != nil {
		return Agent{}, err
	}

	logging.FromContext(ctx).Info("agent created", "team_id", ownerID, "agent_id", agent.ID)
	return agent, nil
}

// DeleteAgent removes an agent and its stat record.
func (s *Service) DeleteAgent(ctx context.Context, ownerID, agentID string) error {
	if err := s.store.DeleteAgent(ctx, ownerID, agentID); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("agent deleted", "team_id", ownerID, "agent_id", agentID)
	return nil
}

// GetStats returns an agent's stat record. An agent with no record yet gets
// an empty one.
func (s *Service) GetStats(ctx context.Context, ownerID, agentID string) (StatRecord, error) {
	if _, err := s.store.GetAgent(ctx, ownerID, agentID); err != nil {
		return StatRecord{}, err
	}
	rec, ok, err := s.store.GetStats(ctx, ownerID, agentID)
	if err != nil {
		return StatRecord{}, err
	}
	if !ok {
		return StatRecord{AgentID: agentID}, nil
	}
	return rec, nil
}

// ReplaceStats overwrites an agent's whole stat record; fields left out of
// in are cleared.
func (s *Service) ReplaceStats(ctx context.Context, ownerID, agentID string, in StatsInput) (StatRecord, error) {
	if err := validateStruct(in); err != nil {
		return StatRecord{}, err
	}
	if _, err := s.store.GetAgent(ctx, ownerID, agentID); err != nil {
		return StatRecord{}, err
	}

	rec := StatRecord{AgentID: agentID, StatFields: in.Fields()}
	if err := s.store.ReplaceStats(ctx, ownerID, rec); err != nil {
		return StatRecord{}, err
	}
	return s.GetStats(ctx, ownerID, agentID)
}

// LimiterStatus exposes import slot usage.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until in-flight imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
