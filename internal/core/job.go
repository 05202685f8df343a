package core

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// JobState is the stage an import job has reached.
type JobState string

const (
	JobIdle       JobState = "idle"
	JobParsing    JobState = "parsing"
	JobMatching   JobState = "matching"
	JobCommitting JobState = "committing"
	JobDone       JobState = "done"
)

// Outcome is the reported result of one import.
type Outcome struct {
	Success      bool       `json:"success"`
	UpdatedCount int        `json:"updatedCount"`
	Source       SourceKind `json:"sourceKind,omitempty"`
	Reason       string     `json:"reason,omitempty"`

	// Err is the underlying failure, unmodified. Nil on success.
	Err error `json:"-"`
}

// Message is the one-line summary shown after an import.
func (o Outcome) Message() string {
	if o.Success {
		return fmt.Sprintf("Success! Updated stats for %d agents from %s.", o.UpdatedCount, o.Source.Label())
	}
	return o.Reason
}

func succeeded(source SourceKind, updated int) Outcome {
	return Outcome{Success: true, UpdatedCount: updated, Source: source}
}

func failed(source SourceKind, err error) Outcome {
	return Outcome{Source: source, Reason: err.Error(), Err: err}
}

// ImportJob tracks one import from upload to commit. A job is owned by the
// goroutine running it and is handed back to the caller when done.
type ImportJob struct {
	ID       string     `json:"id"`
	OwnerID  string     `json:"teamId"`
	FileName string     `json:"fileName,omitempty"`
	State    JobState   `json:"state"`
	Source   SourceKind `json:"sourceKind,omitempty"`

	RowsRead      int `json:"rowsRead"`
	RowsSkipped   int `json:"rowsSkipped"`
	NamesImported int `json:"namesImported"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
	Outcome    Outcome   `json:"outcome"`
}

func newImportJob(ownerID, fileName string) *ImportJob {
	return &ImportJob{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		FileName:  fileName,
		State:     JobIdle,
		StartedAt: time.Now().UTC(),
	}
}

// Duration is the time from start to finish, or to now while running.
func (j *ImportJob) Duration() time.Duration {
	if j.FinishedAt.IsZero() {
		return time.Since(j.StartedAt)
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

func (j *ImportJob) advance(logger *slog.Logger, next JobState) {
	logger.Debug("import state", "from", j.State, "to", next)
	j.State = next
}

func (j *ImportJob) finish(logger *slog.Logger, o Outcome) *ImportJob {
	j.Outcome = o
	j.State = JobDone
	j.FinishedAt = time.Now().UTC()

	if o.Success {
		logger.Info("import completed",
			"source", o.Source,
			"updated", o.UpdatedCount,
			"rows", j.RowsRead,
			"skipped", j.RowsSkipped,
			"duration_ms", j.Duration().Milliseconds(),
		)
	} else {
		logger.Warn("import failed",
			"source", o.Source,
			"reason", o.Reason,
			"duration_ms", j.Duration().Milliseconds(),
		)
	}
	return j
}
