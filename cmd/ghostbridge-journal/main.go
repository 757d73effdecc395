// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/ghostbridge-journal/main.go
// Summary: Lists and summarises events recorded by `ghostbridge -journal`.
// Usage: `ghostbridge-journal [-db path] [-surface id] [-kind bell] [-after seq] [-limit n] [-json] [-summary]`.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"

	"github.com/framegrace/ghostbridge/config"
	"github.com/framegrace/ghostbridge/event"
	"github.com/framegrace/ghostbridge/journal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	dbPath := flag.String("db", "", "Journal file (default: user config dir)")
	surfaceID := flag.Int("surface", -1, "Only show events of this surface")
	kindName := flag.String("kind", "", "Only show this kind (set-title, bell, surface-exit, clipboard-read, clipboard-write)")
	after := flag.Uint64("after", 0, "Only show events after this sequence number")
	limit := flag.Int("limit", 100, "Maximum events to show (0 for all)")
	asJSON := flag.Bool("json", false, "Print one JSON object per event")
	summary := flag.Bool("summary", false, "Print per-kind totals instead of events")
	flag.Parse()

	path := *dbPath
	if path == "" {
		var err error
		if path, err = config.DefaultJournalPath(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to resolve journal path: %v\n", err)
			os.Exit(1)
		}
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "journal %s: %v\n", path, err)
		os.Exit(1)
	}

	q := journal.Query{AfterSeq: *after, Limit: *limit}
	if *surfaceID >= 0 {
		id := int32(*surfaceID)
		q.SurfaceID = &id
	}
	if *kindName != "" {
		k, ok := parseKind(*kindName)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown kind %q\n", *kindName)
			os.Exit(2)
		}
		q.Kind = k
	}

	j, err := journal.Open(path, journal.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open journal: %v\n", err)
		os.Exit(1)
	}
	defer j.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *summary {
		err = printSummary(ctx, os.Stdout, j)
	} else {
		err = printEntries(ctx, os.Stdout, j, q, *asJSON)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func parseKind(name string) (event.Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k := event.KindSetTitle; k.Valid(); k++ {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

func printSummary(ctx context.Context, w io.Writer, j *journal.Journal) error {
	counts, err := j.Summary(ctx)
	if err != nil {
		return err
	}
	var total int64
	for _, kc := range counts {
		fmt.Fprintf(w, "%-16s %s\n", kc.Kind, humanize.Comma(kc.Count))
		total += kc.Count
	}
	fmt.Fprintf(w, "%-16s %s\n", "total", humanize.Comma(total))

	latest, err := j.Entries(ctx, journal.Query{})
	if err != nil || len(latest) == 0 {
		return err
	}
	first, last := latest[0], latest[len(latest)-1]
	fmt.Fprintf(w, "first event %s, last event %s\n",
		humanize.Time(first.RecordedAt), humanize.Time(last.RecordedAt))
	return nil
}

type entryLine struct {
	Seq        uint64      `json:"seq"`
	RecordedAt time.Time   `json:"recordedAt"`
	Event      event.Event `json:"event"`
	Digest     string      `json:"digest,omitempty"`
	Redacted   bool        `json:"redacted,omitempty"`
}

func printEntries(ctx context.Context, w io.Writer, j *journal.Journal, q journal.Query, asJSON bool) error {
	entries, err := j.Entries(ctx, q)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if asJSON {
			line := entryLine{Seq: e.Seq, RecordedAt: e.RecordedAt, Event: e.Event, Redacted: e.Redacted}
			if e.Digest != 0 {
				line.Digest = fmt.Sprintf("%016x", e.Digest)
			}
			if err := enc.Encode(line); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(w, "%6d %s surface %-3d %s\n",
			e.Seq, e.RecordedAt.Format("2006-01-02 15:04:05.000"), e.Event.SurfaceID, describe(e))
	}
	return nil
}

// describe renders an entry's payload in one line.
func describe(e journal.Entry) string {
	switch p := e.Event.Payload.(type) {
	case event.SetTitle:
		return fmt.Sprintf("set-title %q", p.Title)
	case event.Bell:
		return "bell"
	case event.SurfaceExit:
		if p.ProcessAlive {
			return fmt.Sprintf("surface-exit code %d (process alive)", p.ExitCode)
		}
		return fmt.Sprintf("surface-exit code %d", p.ExitCode)
	case event.ClipboardReadRequest:
		return fmt.Sprintf("clipboard-read #%d %s", p.RequestID, p.Clipboard)
	case event.ClipboardWrite:
		text := fmt.Sprintf("%q", p.Text)
		if e.Redacted {
			text = fmt.Sprintf("[redacted %016x]", e.Digest)
		}
		return fmt.Sprintf("clipboard-write %s %s confirm=%t", p.Clipboard, text, p.Confirm)
	default:
		return e.Event.Kind().String()
	}
}
