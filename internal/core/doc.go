// Package core provides the business logic for agent statistics imports.
//
// This package contains all domain logic independent of any transport or
// storage backend. Web handlers and tests drive it through [Service], and
// persistence is reached only through the [Store] interface.
//
// # Import Pipeline
//
// One import is one synchronous pipeline tracked by an [ImportJob]:
//
//  1. [ReadImport] enforces the size limit, drops a BOM and repairs UTF-8
//  2. [ParseRows] tokenizes the text under CSV quoting rules
//  3. [DetectFormat] classifies the header row as telephony or ticketing
//  4. The [Connector] for that kind reduces data rows to a [DeltaMap]
//  5. [ResolveUpdates] matches imported names to the team's agents
//  6. [Store.ApplyUpdates] commits every matched update in one batch
//
// A job moves through Idle, Parsing, Matching, Committing and Done. The
// batch either commits in full or not at all, and nothing is written when
// a file is malformed or names no known agent.
//
// # Merge Modes
//
// Ticketing exports list one row per incident, so their counters are
// added to the stored record ([MergeAccumulate]). Telephony exports carry
// one summary row per agent and replace the stored values
// ([MergeOverwrite]). Either way, fields the import does not carry are
// left untouched.
//
// # Aggregates
//
// [ComputeAggregate] derives SLA percentage, totals, averages and
// leaderboards from the current records. Snapshots are never stored.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - CSV001-CSV003: File errors (missing header, unknown format, size)
//   - IMP001-IMP002: Import errors (no matching agents, busy)
//   - AGT001-AGT002: Roster errors (duplicate name, unknown agent)
//   - VAL001: Request validation
//   - DB004-DB007: Database connectivity
package core
