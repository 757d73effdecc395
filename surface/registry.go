// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: surface/registry.go
// Summary: Host-side record of the surface ids the engine handed out.
// Usage: Maintained by the binding facade across create/resize/destroy.
// Notes: The registry never gates engine calls; it only records accepted results.

package surface

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/framegrace/ghostbridge/core"
)

var (
	ErrNegativeID = errors.New("surface: negative id")
	ErrIDInUse    = errors.New("surface: id already live")
	ErrNotFound   = errors.New("surface: id not registered")
)

// Info describes a live surface as last accepted by the engine.
type Info struct {
	ID       int32
	Frame    core.Frame
	Scale    float64
	Focused  bool
	Occluded bool
	Created  time.Time
}

// Registry tracks live surface ids. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	live map[int32]*Info
	now  func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{live: make(map[int32]*Info), now: time.Now}
}

// Add records a newly created surface. Negative ids are failures and are
// never stored; an id that is still live is rejected.
func (r *Registry) Add(id int32, frame core.Frame, scale float64) error {
	if id < 0 {
		return ErrNegativeID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live[id]; ok {
		return ErrIDInUse
	}
	r.live[id] = &Info{ID: id, Frame: frame, Scale: scale, Created: r.now()}
	return nil
}

func (r *Registry) update(id int32, fn func(*Info)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.live[id]
	if !ok {
		return ErrNotFound
	}
	fn(info)
	return nil
}

// Resize records a frame the engine accepted.
func (r *Registry) Resize(id int32, frame core.Frame, scale float64) error {
	return r.update(id, func(info *Info) {
		info.Frame = frame
		info.Scale = scale
	})
}

// SetFocus records the focus state the engine accepted.
func (r *Registry) SetFocus(id int32, focus bool) error {
	return r.update(id, func(info *Info) { info.Focused = focus })
}

// SetOccluded records the occlusion state the engine accepted.
func (r *Registry) SetOccluded(id int32, occluded bool) error {
	return r.update(id, func(info *Info) { info.Occluded = occluded })
}

// Remove marks id dead. It reports whether the id was live.
func (r *Registry) Remove(id int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live[id]; !ok {
		return false
	}
	delete(r.live, id)
	return true
}

// Lookup returns a copy of the record for id.
func (r *Registry) Lookup(id int32) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.live[id]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// Len returns the number of live ids.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.live)
}

// IDs returns the live ids in ascending order.
func (r *Registry) IDs() []int32 {
	r.mu.RLock()
	ids := make([]int32, 0, len(r.live))
	for id := range r.live {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
