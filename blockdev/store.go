// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

package blockdev

// DevicePath is an ordered sequence of BlockDev, read base-to-tip: the
// chain's index i+1 is built on top of index i. Implemented as a plain
// slice since every operation needed is push-tail, pop-tail or
// clone-then-truncate (per the design notes of the system this was
// distilled from) — no random insertion is ever required.
type DevicePath []BlockDev

// Tip returns the last element of the path. Callers must not invoke
// this on an empty DevicePath; the store never holds one.
func (p DevicePath) Tip() BlockDev {
	return p[len(p)-1]
}

// Clone returns a copy of p so that appends to the copy never mutate
// the original or any other clone sharing its prefix.
func (p DevicePath) Clone() DevicePath {
	out := make(DevicePath, len(p))
	copy(out, p)
	return out
}

// WithAppended returns a clone of p with node appended to the tip. The
// original is left untouched, matching the rule that paths must be
// cloned before fan-out rather than share a mutable suffix.
func (p DevicePath) WithAppended(node BlockDev) DevicePath {
	out := p.Clone()
	return append(out, node)
}

// Store is an ordered collection of DevicePath values. There is no
// global uniqueness invariant across paths: the same LV tip may appear
// in several paths when its VG spans multiple PV routes, one path per
// route.
type Store struct {
	paths []DevicePath
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Push appends a whole path to the store.
func (s *Store) Push(p DevicePath) {
	s.paths = append(s.paths, p)
}

// Paths returns the store's paths. Callers must not mutate the
// returned slice's DevicePath elements directly; use WithAppended and
// Push instead.
func (s *Store) Paths() []DevicePath {
	return s.paths
}

// Tips returns the BlockDev at the tip of every path in the store.
func (s *Store) Tips() []BlockDev {
	out := make([]BlockDev, 0, len(s.paths))
	for _, p := range s.paths {
		out = append(out, p.Tip())
	}
	return out
}

// FindByTip returns every path in the store whose tip's device path
// string equals devicePath.
func (s *Store) FindByTip(devicePath string) []DevicePath {
	var out []DevicePath
	for _, p := range s.paths {
		if p.Tip().DevicePath == devicePath {
			out = append(out, p)
		}
	}
	return out
}

// RemoveByTip deletes every path in the store whose tip's device path
// string equals devicePath, leaving paths with a different tip intact.
func (s *Store) RemoveByTip(devicePath string) {
	kept := s.paths[:0]
	for _, p := range s.paths {
		if p.Tip().DevicePath != devicePath {
			kept = append(kept, p)
		}
	}
	s.paths = kept
}

// AppendIfTipMatches scans the store for paths whose tip has the given
// device path string. Each such path whose tip kind satisfies pred is
// replaced in place by a clone with node pushed on top. matched reports
// whether any tip had the device path, including a tip that failed
// pred; predFailed reports whether any matching tip failed pred (the
// other matching paths are still extended).
//
// Every matching path is extended (fan-out): a VG spanning multiple PV
// routes needs a LUKS or LV node appended to every route that carries
// it, not just the first.
func (s *Store) AppendIfTipMatches(devicePath string, pred func(Kind) bool, node BlockDev) (matched bool, predFailed bool) {
	for i, p := range s.paths {
		if p.Tip().DevicePath != devicePath {
			continue
		}
		matched = true
		if !pred(p.Tip().Kind) {
			predFailed = true
			continue
		}
		s.paths[i] = p.WithAppended(node)
	}
	return matched, predFailed
}
