package core_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/agentstats/internal/core"
	"github.com/JonMunkholm/agentstats/internal/store"
)

const (
	team = "team-1"

	telephonyCSV = "Agent Name,Answered,Avg Handle,Avg Hold,Transferred\n" +
		"Jane Doe,42,185000,30,2\n" +
		"John Roe,17,240,12,0\n" +
		"Unknown Person,99,100,1,1\n"

	ticketingCSV = "Number,Assigned to,Out of SLA\n" +
		"INC001,Jane Doe,false\n" +
		"INC002,Jane Doe,true\n" +
		"INC003,John Roe,false\n"
)

func newService(t *testing.T, names ...string) (*core.Service, *store.Memory, map[string]string) {
	t.Helper()
	mem := store.NewMemory()
	svc := core.NewService(mem, core.Options{MaxFileSize: 1 << 20})

	ids := make(map[string]string, len(names))
	for _, name := range names {
		a, err := svc.CreateAgent(context.Background(), team, core.AgentInput{Name: name})
		if err != nil {
			t.Fatalf("CreateAgent(%q) error = %v", name, err)
		}
		ids[name] = a.ID
	}
	return svc, mem, ids
}

func mustStats(t *testing.T, svc *core.Service, agentID string) core.StatRecord {
	t.Helper()
	rec, err := svc.GetStats(context.Background(), team, agentID)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	return rec
}

func val(p *int64) int64 {
	if p == nil {
		return -1
	}
	return *p
}

func TestImportFile_Telephony(t *testing.T) {
	svc, _, ids := newService(t, "Jane Doe", "John Roe", "Idle Agent")

	job := svc.ImportFile(context.Background(), team, "genesys.csv", telephonyCSV)
	o := job.Outcome
	if !o.Success {
		t.Fatalf("import failed: %s", o.Reason)
	}
	if o.UpdatedCount != 2 || o.Source != core.SourceTelephony {
		t.Errorf("outcome = %+v, want 2 updates from telephony", o)
	}
	if got, want := o.Message(), "Success! Updated stats for 2 agents from Genesys."; got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
	if job.State != core.JobDone || job.RowsRead != 3 || job.NamesImported != 3 {
		t.Errorf("job = %+v, want done with 3 rows and 3 names", job)
	}

	jane := mustStats(t, svc, ids["Jane Doe"])
	if val(jane.CallsAnswered) != 42 || val(jane.AHT) != 185 || val(jane.AvgHold) != 30 || val(jane.Transfers) != 2 {
		t.Errorf("Jane stats = %+v", jane.StatFields)
	}
	if jane.IncidentsResolved != nil {
		t.Errorf("telephony import wrote ticketing field: %v", *jane.IncidentsResolved)
	}
	idle := mustStats(t, svc, ids["Idle Agent"])
	if !idle.StatFields.IsEmpty() {
		t.Errorf("unmatched agent got stats: %+v", idle.StatFields)
	}
}

func TestImportFile_TelephonyReimportIsIdempotent(t *testing.T) {
	svc, _, ids := newService(t, "Jane Doe", "John Roe")
	ctx := context.Background()

	svc.ImportFile(ctx, team, "a.csv", telephonyCSV)
	first := mustStats(t, svc, ids["Jane Doe"])
	svc.ImportFile(ctx, team, "a.csv", telephonyCSV)
	second := mustStats(t, svc, ids["Jane Doe"])

	if val(first.CallsAnswered) != val(second.CallsAnswered) || val(first.AHT) != val(second.AHT) {
		t.Errorf("re-import changed stats: %+v -> %+v", first.StatFields, second.StatFields)
	}
}

func TestImportFile_TicketingReimportAccumulates(t *testing.T) {
	svc, _, ids := newService(t, "Jane Doe", "John Roe")
	ctx := context.Background()

	job := svc.ImportFile(ctx, team, "snow.csv", ticketingCSV)
	if !job.Outcome.Success || job.Outcome.Source != core.SourceTicketing {
		t.Fatalf("outcome = %+v", job.Outcome)
	}
	jane := mustStats(t, svc, ids["Jane Doe"])
	if val(jane.IncidentsResolved) != 2 || val(jane.SLABreach) != 1 {
		t.Errorf("after first import Jane = %+v, want 2 resolved 1 breach", jane.StatFields)
	}

	svc.ImportFile(ctx, team, "snow.csv", ticketingCSV)
	jane = mustStats(t, svc, ids["Jane Doe"])
	if val(jane.IncidentsResolved) != 4 || val(jane.SLABreach) != 2 {
		t.Errorf("after second import Jane = %+v, want 4 resolved 2 breaches", jane.StatFields)
	}
}

func TestImportFile_SourcesDoNotClobberEachOther(t *testing.T) {
	svc, _, ids := newService(t, "Jane Doe", "John Roe")
	ctx := context.Background()

	svc.ImportFile(ctx, team, "snow.csv", ticketingCSV)
	svc.ImportFile(ctx, team, "genesys.csv", telephonyCSV)

	jane := mustStats(t, svc, ids["Jane Doe"])
	if val(jane.IncidentsResolved) != 2 || val(jane.CallsAnswered) != 42 {
		t.Errorf("Jane = %+v, want ticketing and telephony fields together", jane.StatFields)
	}
}

func TestImportFile_Failures(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantErr  error
		wantCode string
	}{
		{"empty", "", core.ErrFormat, "CSV001"},
		{"header only", "Agent Name,Answered\n", core.ErrFormat, "CSV001"},
		{"unknown format", "Name,Calls\nJane Doe,3\n", core.ErrFormat, "CSV002"},
		{"no matching agents", "Agent Name,Answered\nSomeone Else,3\n", core.ErrNoMatch, "IMP001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mem, _ := newService(t, "Jane Doe")

			job := svc.ImportFile(context.Background(), team, "x.csv", tt.text)
			o := job.Outcome
			if o.Success {
				t.Fatal("import succeeded, want failure")
			}
			if !errors.Is(o.Err, tt.wantErr) {
				t.Errorf("Outcome.Err = %v, want %v", o.Err, tt.wantErr)
			}
			if code := core.MapError(o.Err).Code; code != tt.wantCode {
				t.Errorf("code = %s, want %s", code, tt.wantCode)
			}
			if job.State != core.JobDone {
				t.Errorf("State = %s, want done", job.State)
			}

			stats, _ := mem.ListStats(context.Background(), team)
			if len(stats) != 0 {
				t.Errorf("failed import wrote %d records", len(stats))
			}
		})
	}
}

func TestImportFile_StoreErrorPropagatesUnmodified(t *testing.T) {
	svc, mem, _ := newService(t, "Jane Doe")
	boom := errors.New("connection reset by peer")
	mem.FailOn(func(op string) error {
		if op == "ApplyUpdates" {
			return boom
		}
		return nil
	})

	o := svc.ImportFile(context.Background(), team, "x.csv", telephonyCSV).Outcome
	if o.Success {
		t.Fatal("import succeeded, want store failure")
	}
	if o.Err != boom {
		t.Errorf("Outcome.Err = %v, want the store error itself", o.Err)
	}
	if o.Source != core.SourceTelephony {
		t.Errorf("Source = %q, want telephony", o.Source)
	}
}

func TestImportReader_TooLarge(t *testing.T) {
	mem := store.NewMemory()
	svc := core.NewService(mem, core.Options{MaxFileSize: 16})

	job := svc.ImportReader(context.Background(), team, "big.csv", strings.NewReader(telephonyCSV))
	if !errors.Is(job.Outcome.Err, core.ErrFileTooLarge) {
		t.Errorf("Outcome.Err = %v, want ErrFileTooLarge", job.Outcome.Err)
	}
}

// blockingStore holds ApplyUpdates until release is closed.
type blockingStore struct {
	*store.Memory
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) ApplyUpdates(ctx context.Context, ownerID string, updates []core.StatUpdate) error {
	b.entered <- struct{}{}
	<-b.release
	return b.Memory.ApplyUpdates(ctx, ownerID, updates)
}

func TestImportFile_Busy(t *testing.T) {
	bs := &blockingStore{
		Memory:  store.NewMemory(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	svc := core.NewService(bs, core.Options{MaxConcurrent: 1, MaxWaitTime: 20 * time.Millisecond})
	if _, err := svc.CreateAgent(context.Background(), team, core.AgentInput{Name: "Jane Doe"}); err != nil {
		t.Fatalf("CreateAgent() error = %v", err)
	}

	done := make(chan *core.ImportJob)
	go func() { done <- svc.ImportFile(context.Background(), team, "a.csv", telephonyCSV) }()
	<-bs.entered

	busy := svc.ImportFile(context.Background(), team, "b.csv", telephonyCSV)
	if !errors.Is(busy.Outcome.Err, core.ErrTooManyImports) {
		t.Errorf("second import error = %v, want ErrTooManyImports", busy.Outcome.Err)
	}
	if got := svc.LimiterStatus().Active; got != 1 {
		t.Errorf("Active = %d, want 1", got)
	}

	close(bs.release)
	if first := <-done; !first.Outcome.Success {
		t.Errorf("first import failed: %s", first.Outcome.Reason)
	}
	if err := svc.WaitForImports(context.Background()); err != nil {
		t.Errorf("WaitForImports() error = %v", err)
	}
}

func TestAggregate(t *testing.T) {
	svc, _, _ := newService(t, "Jane Doe", "John Roe")
	ctx := context.Background()

	svc.ImportFile(ctx, team, "snow.csv", ticketingCSV)
	svc.ImportFile(ctx, team, "genesys.csv", telephonyCSV)

	snap, err := svc.Aggregate(ctx, team)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if snap.AgentCount != 2 || snap.TotalIncidents != 3 || snap.TotalBreaches != 1 || snap.TotalCalls != 59 {
		t.Errorf("snapshot totals = %+v", snap)
	}
	if snap.SLAPercent != "66.7%" {
		t.Errorf("SLAPercent = %q, want 66.7%%", snap.SLAPercent)
	}
	if len(snap.TopAHT) != 2 || snap.TopAHT[0].Name != "Jane Doe" {
		t.Errorf("TopAHT = %+v, want Jane (185s) first", snap.TopAHT)
	}
}

func TestAgentLifecycle(t *testing.T) {
	svc, _, ids := newService(t, "Jane Doe")
	ctx := context.Background()

	if _, err := svc.CreateAgent(ctx, team, core.AgentInput{Name: "Jane Doe"}); !errors.Is(err, core.ErrDuplicateAgent) {
		t.Errorf("duplicate CreateAgent error = %v, want ErrDuplicateAgent", err)
	}
	if _, err := svc.CreateAgent(ctx, team, core.AgentInput{Name: "   "}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("blank CreateAgent error = %v, want ErrValidation", err)
	}

	agents, _ := svc.ListAgents(ctx, team)
	if len(agents) != 1 || agents[0].Role != core.DefaultRole || agents[0].Avatar != "JA" {
		t.Errorf("agents = %+v, want one with defaults", agents)
	}

	csat := 4.6
	rec, err := svc.ReplaceStats(ctx, team, ids["Jane Doe"], core.StatsInput{CSAT: &csat})
	if err != nil {
		t.Fatalf("ReplaceStats() error = %v", err)
	}
	if rec.CSAT == nil || *rec.CSAT != 4.6 || rec.LastUpdated.IsZero() {
		t.Errorf("ReplaceStats() = %+v", rec)
	}

	if err := svc.DeleteAgent(ctx, team, ids["Jane Doe"]); err != nil {
		t.Fatalf("DeleteAgent() error = %v", err)
	}
	if _, err := svc.GetStats(ctx, team, ids["Jane Doe"]); !errors.Is(err, core.ErrAgentNotFound) {
		t.Errorf("GetStats after delete error = %v, want ErrAgentNotFound", err)
	}
	snap, _ := svc.Aggregate(ctx, team)
	if snap.RecordCount != 0 {
		t.Errorf("RecordCount after delete = %d, want 0", snap.RecordCount)
	}
}
