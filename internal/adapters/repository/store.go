// Package repository keeps the per-session emission log and final report.
package repository

import (
	"context"

	"github.com/okian/dojo/internal/domain/session"
)

// Record is an emission with its position in the session log. Seq starts at
// 1 and never repeats within a session.
type Record struct {
	Seq uint64 `json:"seq"`
	session.Emission
}

// Store provides read/write access to session output.
type Store interface {
	// Create registers a session. Returns ErrExists if the id is taken.
	Create(ctx context.Context, id string) error
	// Delete forgets a session and closes its subscribers.
	Delete(ctx context.Context, id string) error

	// Append sequences emissions onto the session log and fans them out to
	// subscribers. The oldest records are evicted beyond the bound.
	Append(ctx context.Context, id string, emissions ...session.Emission) ([]Record, error)
	// Since returns retained records with Seq > seq, oldest first, at most
	// limit of them (limit <= 0 means all).
	Since(ctx context.Context, id string, seq uint64, limit int) ([]Record, error)

	// SetReport stores the final report of a session.
	SetReport(ctx context.Context, id string, r session.Report) error
	// Report returns the stored report, or ErrNoReport.
	Report(ctx context.Context, id string) (session.Report, error)

	// Subscribe streams records appended after the call. cancel releases
	// the subscription; the channel is closed on cancel or Delete.
	Subscribe(ctx context.Context, id string) (records <-chan Record, cancel func(), err error)

	// Count returns the number of sessions tracked.
	Count(ctx context.Context) int
}
