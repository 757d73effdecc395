// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: journal/query.go
// Summary: Read side of the event journal.

package journal

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/framegrace/ghostbridge/event"
	"github.com/framegrace/ghostbridge/protocol"
)

// Entry is one stored event.
type Entry struct {
	Seq        uint64
	RecordedAt time.Time
	Event      event.Event
	Digest     uint64 // clipboard text fingerprint, 0 for other kinds
	Redacted   bool
}

// Query filters Entries. Zero values match everything.
type Query struct {
	SurfaceID *int32
	Kind      event.Kind
	AfterSeq  uint64
	Limit     int
}

// Entries returns matching events in sequence order.
func (j *Journal) Entries(ctx context.Context, q Query) ([]Entry, error) {
	var where []string
	var args []any
	if q.SurfaceID != nil {
		where = append(where, "surface_id = ?")
		args = append(args, *q.SurfaceID)
	}
	if q.Kind != 0 {
		where = append(where, "kind = ?")
		args = append(args, q.Kind.String())
	}
	if q.AfterSeq > 0 {
		where = append(where, "seq > ?")
		args = append(args, int64(q.AfterSeq))
	}

	query := "SELECT seq, recorded_at, digest, frame FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			seq, recordedAt int64
			digest          sql.NullInt64
			frame           []byte
		)
		if err := rows.Scan(&seq, &recordedAt, &digest, &frame); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		hdr, ev, err := protocol.ReadEvent(bytes.NewReader(frame))
		if err != nil {
			return nil, fmt.Errorf("journal: decode event %d: %w", seq, err)
		}
		out = append(out, Entry{
			Seq:        uint64(seq),
			RecordedAt: time.Unix(0, recordedAt),
			Event:      ev,
			Digest:     uint64(digest.Int64),
			Redacted:   hdr.Flags&protocol.FlagRedacted != 0,
		})
	}
	return out, rows.Err()
}

// KindCount is a per-kind total.
type KindCount struct {
	Kind  string
	Count int64
}

// Summary counts stored events per kind.
func (j *Journal) Summary(ctx context.Context) ([]KindCount, error) {
	rows, err := j.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM events GROUP BY kind ORDER BY kind")
	if err != nil {
		return nil, fmt.Errorf("journal: summary: %w", err)
	}
	defer rows.Close()

	var out []KindCount
	for rows.Next() {
		var kc KindCount
		if err := rows.Scan(&kc.Kind, &kc.Count); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		out = append(out, kc)
	}
	return out, rows.Err()
}
