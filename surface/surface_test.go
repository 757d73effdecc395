// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: surface/surface_test.go
// Summary: Exercises the slot table and registry lifecycle.

package surface

import (
	"errors"
	"testing"

	"github.com/framegrace/ghostbridge/core"
)

func TestTableStaleIDNeverResolves(t *testing.T) {
	tbl := NewTable[string]()
	id := tbl.Insert("first")
	if id < 0 {
		t.Fatalf("insert failed: %d", id)
	}
	if v, ok := tbl.Get(id); !ok || v != "first" {
		t.Fatalf("get returned %q, %v", v, ok)
	}
	if _, ok := tbl.Remove(id); !ok {
		t.Fatalf("remove failed")
	}
	if _, ok := tbl.Get(id); ok {
		t.Fatalf("removed id still resolves")
	}
	if _, ok := tbl.Remove(id); ok {
		t.Fatalf("second remove succeeded")
	}

	next := tbl.Insert("second")
	if next == id {
		t.Fatalf("slot reuse produced the same id %d", id)
	}
	if _, ok := tbl.Get(id); ok {
		t.Fatalf("stale id resolved after slot reuse")
	}
	if v, ok := tbl.Get(next); !ok || v != "second" {
		t.Fatalf("new id resolved to %q, %v", v, ok)
	}
	if tbl.Len() != 1 {
		t.Fatalf("expected 1 live value, got %d", tbl.Len())
	}
}

func TestTableRejectsNegativeAndUnknownIDs(t *testing.T) {
	tbl := NewTable[int]()
	tbl.Insert(1)
	for _, id := range []int32{-1, -1 << 20, 5, 1 << 16} {
		if _, ok := tbl.Get(id); ok {
			t.Fatalf("id %d resolved", id)
		}
	}
}

func TestTableEachVisitsLiveValues(t *testing.T) {
	tbl := NewTable[int]()
	a := tbl.Insert(10)
	b := tbl.Insert(20)
	tbl.Insert(30)
	tbl.Remove(b)

	seen := map[int32]int{}
	tbl.Each(func(id int32, v int) { seen[id] = v })
	if len(seen) != 2 || seen[a] != 10 {
		t.Fatalf("unexpected visit set %v", seen)
	}
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	frame := core.Frame{Width: 100, Height: 50}

	if err := r.Add(-1, frame, 2); !errors.Is(err, ErrNegativeID) {
		t.Fatalf("expected ErrNegativeID, got %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("negative id was stored")
	}

	if err := r.Add(3, frame, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := r.Add(3, frame, 2); !errors.Is(err, ErrIDInUse) {
		t.Fatalf("expected ErrIDInUse, got %v", err)
	}

	if err := r.Resize(3, core.Frame{Width: 200, Height: 80}, 1); err != nil {
		t.Fatalf("resize failed: %v", err)
	}
	if err := r.SetFocus(3, true); err != nil {
		t.Fatalf("focus failed: %v", err)
	}
	info, ok := r.Lookup(3)
	if !ok || info.Frame.Width != 200 || info.Scale != 1 || !info.Focused {
		t.Fatalf("unexpected info %+v", info)
	}

	if !r.Remove(3) {
		t.Fatalf("remove failed")
	}
	if r.Remove(3) {
		t.Fatalf("second remove reported live id")
	}
	if err := r.SetOccluded(3, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryIDsSorted(t *testing.T) {
	r := NewRegistry()
	for _, id := range []int32{9, 1, 5} {
		if err := r.Add(id, core.Frame{}, 0); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}
	ids := r.IDs()
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 5 || ids[2] != 9 {
		t.Fatalf("unexpected ids %v", ids)
	}
}
