// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: bridge/stats.go
// Summary: Delivery counters and a logging observer for the event bridge.

package bridge

import (
	"log"
	"sync/atomic"

	"github.com/dustin/go-humanize"
)

type counters struct {
	emitted          atomic.Uint64
	enqueued         atomic.Uint64
	delivered        atomic.Uint64
	droppedNoHandler atomic.Uint64
	droppedFull      atomic.Uint64
	droppedRetired   atomic.Uint64
	droppedPost      atomic.Uint64
	registrations    atomic.Uint64
}

// Stats is a snapshot of bridge counters.
type Stats struct {
	Emitted          uint64
	Enqueued         uint64
	Delivered        uint64
	DroppedNoHandler uint64
	DroppedFull      uint64
	DroppedRetired   uint64
	DroppedPost      uint64
	Registrations    uint64
}

// Dropped sums every drop reason.
func (s Stats) Dropped() uint64 {
	return s.DroppedNoHandler + s.DroppedFull + s.DroppedRetired + s.DroppedPost
}

// Stats returns a snapshot of the bridge counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Emitted:          b.stats.emitted.Load(),
		Enqueued:         b.stats.enqueued.Load(),
		Delivered:        b.stats.delivered.Load(),
		DroppedNoHandler: b.stats.droppedNoHandler.Load(),
		DroppedFull:      b.stats.droppedFull.Load(),
		DroppedRetired:   b.stats.droppedRetired.Load(),
		DroppedPost:      b.stats.droppedPost.Load(),
		Registrations:    b.stats.registrations.Load(),
	}
}

// StatsObserver receives bridge stats snapshots.
type StatsObserver interface {
	ObserveBridgeStats(stats Stats)
}

// StatsLogger logs bridge stats.
type StatsLogger struct {
	logger *log.Logger
}

// NewStatsLogger returns an observer that logs bridge stats.
func NewStatsLogger(l *log.Logger) *StatsLogger {
	if l == nil {
		l = log.Default()
	}
	return &StatsLogger{logger: l}
}

func (s *StatsLogger) ObserveBridgeStats(stats Stats) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger.Printf("bridge emitted=%s delivered=%s dropped=%s (no_handler=%s full=%s retired=%s post=%s) registrations=%s",
		humanize.Comma(int64(stats.Emitted)),
		humanize.Comma(int64(stats.Delivered)),
		humanize.Comma(int64(stats.Dropped())),
		humanize.Comma(int64(stats.DroppedNoHandler)),
		humanize.Comma(int64(stats.DroppedFull)),
		humanize.Comma(int64(stats.DroppedRetired)),
		humanize.Comma(int64(stats.DroppedPost)),
		humanize.Comma(int64(stats.Registrations)),
	)
}
