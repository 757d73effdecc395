// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: journal/journal.go
// Summary: Optional SQLite journal of delivered bridge events.
// Usage: Wrap the host handler with Tee; inspect with cmd/ghostbridge-journal.
// Notes: Recording never blocks the caller. Entries are batched by a background
// goroutine and dropped (and counted) when its queue is full.

package journal

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/framegrace/ghostbridge/bridge"
	"github.com/framegrace/ghostbridge/event"
	"github.com/framegrace/ghostbridge/protocol"
	"github.com/zeebo/xxh3"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
    seq INTEGER PRIMARY KEY,
    recorded_at INTEGER NOT NULL,
    surface_id INTEGER NOT NULL,
    kind TEXT NOT NULL,
    digest INTEGER,
    frame BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS events_surface ON events(surface_id, seq);
CREATE INDEX IF NOT EXISTS events_kind ON events(kind, seq);
`

// ErrClosed is returned after Close.
var ErrClosed = errors.New("journal: closed")

// Options tune batching and redaction.
type Options struct {
	BatchSize     int           // rows per transaction
	FlushInterval time.Duration // max time an entry waits in memory
	QueueSize     int           // pending entries before Record drops

	// RedactClipboard stores only the digest of clipboard text.
	RedactClipboard bool
}

func (o *Options) applyDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = 500 * time.Millisecond
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 4096
	}
}

type row struct {
	seq        uint64
	recordedAt time.Time
	surfaceID  int32
	kind       string
	digest     *uint64
	frame      []byte
}

// Journal records events into SQLite.
type Journal struct {
	db   *sql.DB
	opts Options

	rows    chan row
	flushCh chan chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once

	seqMu sync.Mutex // serializes sequence assignment with the enqueue

	seq      atomic.Uint64
	recorded atomic.Uint64
	dropped  atomic.Uint64
	written  atomic.Uint64
	failed   atomic.Uint64
}

// Open opens or creates the journal database at path.
func Open(path string, opts Options) (*Journal, error) {
	opts.applyDefaults()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal: ensure dir: %w", err)
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: connect: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: schema: %w", err)
	}

	var last int64
	if err := db.QueryRow("SELECT COALESCE(MAX(seq), 0) FROM events").Scan(&last); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: read sequence: %w", err)
	}

	j := &Journal{
		db:      db,
		opts:    opts,
		rows:    make(chan row, opts.QueueSize),
		flushCh: make(chan chan struct{}),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	j.seq.Store(uint64(last))
	go j.batchWriter()
	return j, nil
}

// Digest fingerprints clipboard text.
func Digest(text string) uint64 {
	return xxh3.HashString(text)
}

func (j *Journal) encode(ev event.Event, seq uint64) (row, error) {
	r := row{
		seq:        seq,
		recordedAt: time.Now(),
		surfaceID:  ev.SurfaceID,
		kind:       ev.Kind().String(),
	}
	var flags uint8
	if w, ok := ev.Payload.(event.ClipboardWrite); ok {
		d := Digest(w.Text)
		r.digest = &d
		if j.opts.RedactClipboard {
			w.Text = ""
			ev.Payload = w
			flags |= protocol.FlagRedacted
		}
	}
	var buf bytes.Buffer
	if err := protocol.WriteEvent(&buf, r.seq, flags, ev); err != nil {
		return row{}, err
	}
	r.frame = buf.Bytes()
	return r, nil
}

// Record queues ev for writing. It returns false when the event was not
// queued: the journal is closed, the event is malformed or the queue is full.
// Only queued events consume a sequence number.
func (j *Journal) Record(ev event.Event) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed || !ev.Kind().Valid() {
		return false
	}
	j.seqMu.Lock()
	defer j.seqMu.Unlock()
	seq := j.seq.Load() + 1
	r, err := j.encode(ev, seq)
	if err != nil {
		debugLog.Printf("Journal: skipping event: %v", err)
		return false
	}
	select {
	case j.rows <- r:
		j.seq.Store(seq)
		j.recorded.Add(1)
		return true
	default:
		if n := j.dropped.Add(1); n == 1 || n%1024 == 0 {
			log.Printf("Journal: queue full, %d events dropped", n)
		}
		return false
	}
}

// Tee returns a handler that records every event before passing it to next.
func (j *Journal) Tee(next bridge.Handler) bridge.Handler {
	return func(ev event.Event) {
		j.Record(ev)
		if next != nil {
			next(ev)
		}
	}
}

// Flush blocks until every entry queued before the call is written.
func (j *Journal) Flush() error {
	done := make(chan struct{})
	select {
	case j.flushCh <- done:
	case <-j.doneCh:
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-j.doneCh:
		return nil
	}
}

// Close writes pending entries and closes the database.
func (j *Journal) Close() error {
	var err error
	j.once.Do(func() {
		j.mu.Lock()
		j.closed = true
		j.mu.Unlock()
		close(j.stopCh)
		<-j.doneCh
		err = j.db.Close()
	})
	return err
}

// Stats reports counters since Open.
type Stats struct {
	Recorded uint64
	Dropped  uint64
	Written  uint64
	Failed   uint64
}

func (j *Journal) Stats() Stats {
	return Stats{
		Recorded: j.recorded.Load(),
		Dropped:  j.dropped.Load(),
		Written:  j.written.Load(),
		Failed:   j.failed.Load(),
	}
}

// batchWriter runs in a background goroutine, batching rows and flushing
// periodically.
func (j *Journal) batchWriter() {
	defer close(j.doneCh)

	batch := make([]row, 0, j.opts.BatchSize)
	timer := time.NewTimer(j.opts.FlushInterval)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		j.writeBatch(batch)
		batch = batch[:0]
	}
	drain := func() {
		for {
			select {
			case r := <-j.rows:
				batch = append(batch, r)
			default:
				return
			}
		}
	}

	for {
		select {
		case r := <-j.rows:
			batch = append(batch, r)
			if len(batch) >= j.opts.BatchSize {
				flush()
				timer.Reset(j.opts.FlushInterval)
			}

		case <-timer.C:
			flush()
			timer.Reset(j.opts.FlushInterval)

		case done := <-j.flushCh:
			drain()
			flush()
			close(done)

		case <-j.stopCh:
			drain()
			flush()
			return
		}
	}
}

// writeBatch stores a batch in a single transaction.
func (j *Journal) writeBatch(batch []row) {
	tx, err := j.db.Begin()
	if err != nil {
		log.Printf("Journal: failed to begin transaction: %v", err)
		j.failed.Add(uint64(len(batch)))
		return
	}

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO events (seq, recorded_at, surface_id, kind, digest, frame) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		log.Printf("Journal: failed to prepare statement: %v", err)
		tx.Rollback()
		j.failed.Add(uint64(len(batch)))
		return
	}
	defer stmt.Close()

	for _, r := range batch {
		var digest any
		if r.digest != nil {
			digest = int64(*r.digest)
		}
		if _, err := stmt.Exec(int64(r.seq), r.recordedAt.UnixNano(), r.surfaceID, r.kind, digest, r.frame); err != nil {
			log.Printf("Journal: failed to insert event %d: %v", r.seq, err)
			tx.Rollback()
			j.failed.Add(uint64(len(batch)))
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("Journal: failed to commit batch: %v", err)
		j.failed.Add(uint64(len(batch)))
		return
	}
	j.written.Add(uint64(len(batch)))
	debugLog.Printf("Journal: wrote %d events", len(batch))
}
