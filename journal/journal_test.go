// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/framegrace/ghostbridge/event"
)

func openTemp(t *testing.T, opts Options) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal", "events.db")
	j, err := Open(path, opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j, path
}

func allKinds() []event.Event {
	return []event.Event{
		{SurfaceID: 0, Payload: event.SetTitle{Title: "shell"}},
		{SurfaceID: 0, Payload: event.Bell{}},
		{SurfaceID: 1, Payload: event.ClipboardReadRequest{RequestID: 9, Clipboard: event.ClipboardStandard}},
		{SurfaceID: 1, Payload: event.ClipboardWrite{Text: "secret", Clipboard: event.ClipboardSelection, Confirm: true}},
		{SurfaceID: 0, Payload: event.SurfaceExit{ExitCode: 2}},
	}
}

func TestJournalRoundTrip(t *testing.T) {
	j, _ := openTemp(t, Options{})
	for _, ev := range allKinds() {
		if !j.Record(ev) {
			t.Fatalf("record %s failed", ev.Kind())
		}
	}
	if err := j.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	entries, err := j.Entries(context.Background(), Query{})
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	want := allKinds()
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e.Event != want[i] {
			t.Fatalf("entry %d: got %+v want %+v", i, e.Event, want[i])
		}
		if e.Seq != uint64(i+1) {
			t.Fatalf("entry %d has seq %d", i, e.Seq)
		}
	}
	if entries[3].Digest != Digest("secret") || entries[3].Redacted {
		t.Fatalf("unexpected clipboard metadata %+v", entries[3])
	}
	if entries[0].Digest != 0 {
		t.Fatalf("title should not carry a digest")
	}
	if s := j.Stats(); s.Written != 5 || s.Dropped != 0 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestJournalFilters(t *testing.T) {
	j, _ := openTemp(t, Options{BatchSize: 2, FlushInterval: time.Hour})
	for _, ev := range allKinds() {
		j.Record(ev)
	}
	if err := j.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	ctx := context.Background()

	one := int32(1)
	entries, err := j.Entries(ctx, Query{SurfaceID: &one})
	if err != nil || len(entries) != 2 {
		t.Fatalf("surface filter: %d entries, err %v", len(entries), err)
	}

	entries, err = j.Entries(ctx, Query{Kind: event.KindBell})
	if err != nil || len(entries) != 1 || entries[0].Event.Kind() != event.KindBell {
		t.Fatalf("kind filter: %+v, err %v", entries, err)
	}

	entries, err = j.Entries(ctx, Query{AfterSeq: 3, Limit: 1})
	if err != nil || len(entries) != 1 || entries[0].Seq != 4 {
		t.Fatalf("seq filter: %+v, err %v", entries, err)
	}

	summary, err := j.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 5 {
		t.Fatalf("expected 5 kinds, got %+v", summary)
	}
}

func TestJournalRedactsClipboard(t *testing.T) {
	j, _ := openTemp(t, Options{RedactClipboard: true})
	j.Record(event.Event{SurfaceID: 4, Payload: event.ClipboardWrite{Text: "hunter2", Clipboard: event.ClipboardStandard}})
	if err := j.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	entries, err := j.Entries(context.Background(), Query{})
	if err != nil || len(entries) != 1 {
		t.Fatalf("entries: %+v err %v", entries, err)
	}
	e := entries[0]
	w := e.Event.Payload.(event.ClipboardWrite)
	if w.Text != "" || !e.Redacted || e.Digest != Digest("hunter2") {
		t.Fatalf("clipboard text not redacted: %+v", e)
	}
}

func TestJournalSequenceContinuesAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	j, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	j.Record(event.Event{Payload: event.Bell{}})
	j.Record(event.Event{Payload: event.Bell{}})
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if j.Record(event.Event{Payload: event.Bell{}}) {
		t.Fatalf("record after close succeeded")
	}
	if err := j.Flush(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	j, err = Open(path, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	j.Record(event.Event{Payload: event.Bell{}})
	if err := j.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	entries, err := j.Entries(context.Background(), Query{})
	if err != nil || len(entries) != 3 || entries[2].Seq != 3 {
		t.Fatalf("unexpected entries after reopen: %+v err %v", entries, err)
	}
}

func TestTeeForwardsAndRecords(t *testing.T) {
	j, _ := openTemp(t, Options{})
	var forwarded int
	h := j.Tee(func(event.Event) { forwarded++ })
	h(event.Event{SurfaceID: 2, Payload: event.Bell{}})
	h(event.Event{SurfaceID: 2}) // no payload: forwarded, not recorded

	if forwarded != 2 {
		t.Fatalf("expected 2 forwarded events, got %d", forwarded)
	}
	if err := j.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if s := j.Stats(); s.Recorded != 1 {
		t.Fatalf("expected 1 recorded event, got %+v", s)
	}
}

func TestDroppedEventsLeaveNoSequenceGaps(t *testing.T) {
	j, _ := openTemp(t, Options{QueueSize: 1, BatchSize: 1000, FlushInterval: time.Hour})
	const total = 5000
	for i := 0; i < total; i++ {
		j.Record(event.Event{SurfaceID: int32(i % 3), Payload: event.Bell{}})
	}
	if err := j.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	s := j.Stats()
	if s.Recorded+s.Dropped != total {
		t.Fatalf("recorded %d + dropped %d != %d", s.Recorded, s.Dropped, total)
	}
	entries, err := j.Entries(context.Background(), Query{})
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if uint64(len(entries)) != s.Recorded {
		t.Fatalf("expected %d entries, got %d", s.Recorded, len(entries))
	}
	for i, e := range entries {
		if e.Seq != uint64(i+1) {
			t.Fatalf("entry %d has seq %d; sequence has a gap", i, e.Seq)
		}
	}
}
