// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

// Package scanner produces the system snapshot the validator consumes:
// the set of devices already carrying a filesystem, the set of devices
// usable as a fresh filesystem base, and the LVM stacks already present
// on the host. The concrete implementation here shells out to
// lsblk/lvs/pvs to classify every block device on the system.
package scanner

import "github.com/tessera-linux/installer/blockdev"

// Snapshot is the mutable system state the validator threads through
// the disk, DM and filesystem stages. FsReady and Lvms are consumed in
// place as the validator adopts entries from them.
type Snapshot struct {
	// FsDevs holds devices that already carry a filesystem or swap,
	// keyed by device path. Read-only.
	FsDevs map[string]blockdev.Kind

	// FsReady holds devices usable as the base of a fresh filesystem:
	// empty partitions, bare disks, unused LVs or LUKS mappings.
	// Entries are removed as the validator consumes them.
	FsReady map[string]blockdev.Kind

	// Lvms holds, for each discovered PV, every DevicePath the scanner
	// found rooted at it (PV -> VG -> LV). A VG with several LVs pushes
	// one path per LV, so a PV's Store commonly holds more than one
	// path. Adopting a path removes only that path from its PV's Store
	// (the key itself is kept, to preserve key stability during
	// iteration) so sibling LVs of the same VG stay available.
	Lvms map[string]*blockdev.Store
}

// NewSnapshot returns an empty, ready-to-populate Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		FsDevs:  map[string]blockdev.Kind{},
		FsReady: map[string]blockdev.Kind{},
		Lvms:    map[string]*blockdev.Store{},
	}
}

// Scan is implemented by anything that can produce a Snapshot of the
// running system. The validator depends only on this interface, never
// on the concrete lsblk/pvs/lvs backend, so tests can supply a fixed
// Snapshot directly.
type Scan interface {
	Scan() (*Snapshot, error)
}

// ConsumeFsReady removes path from FsReady if present and returns its
// kind and whether it was present.
func (s *Snapshot) ConsumeFsReady(path string) (blockdev.Kind, bool) {
	k, ok := s.FsReady[path]
	if ok {
		delete(s.FsReady, path)
	}
	return k, ok
}

// lvmEntry names which PV's Store a matched path came from, so callers
// can clear the right entry on adoption.
type lvmEntry struct {
	PV   string
	Path blockdev.DevicePath
}

// findLvmByTip returns every (pv, path) pair across all of Lvms whose
// path's tip device equals devicePath.
func (s *Snapshot) findLvmByTip(devicePath string) []lvmEntry {
	var out []lvmEntry
	for pv, store := range s.Lvms {
		if store == nil {
			continue
		}
		for _, p := range store.Paths() {
			if len(p) > 0 && p.Tip().DevicePath == devicePath {
				out = append(out, lvmEntry{PV: pv, Path: p})
			}
		}
	}
	return out
}

// FindLvmByTip returns every system LVM path (across all PVs) whose tip
// device equals devicePath, together with the PV key it lives under so
// the caller can clear it on adoption.
func (s *Snapshot) FindLvmByTip(devicePath string) []struct {
	PV   string
	Path blockdev.DevicePath
} {
	entries := s.findLvmByTip(devicePath)
	out := make([]struct {
		PV   string
		Path blockdev.DevicePath
	}, len(entries))
	for i, e := range entries {
		out[i] = struct {
			PV   string
			Path blockdev.DevicePath
		}{PV: e.PV, Path: e.Path}
	}
	return out
}

// HasVgNode reports whether the Store rooted at pv already contains a
// node of kind Dm(LvmVg) anywhere along any of its paths — used to
// reject a PV that some VG has already claimed.
func (s *Snapshot) HasVgNode(pv string) bool {
	store := s.Lvms[pv]
	if store == nil {
		return false
	}
	for _, p := range store.Paths() {
		for _, node := range p {
			if dm, ok := node.Kind.IsDm(); ok && dm == blockdev.LvmVg {
				return true
			}
		}
	}
	return false
}

// AdoptAndClear finds every system LVM path whose tip equals
// devicePath, removes just those paths from their home Store (leaving
// sibling paths, such as another LV of the same VG, untouched) and
// returns the matched paths. Used by the VG/LV/LUKS adoption steps,
// which clone the returned paths before extending them.
func (s *Snapshot) AdoptAndClear(devicePath string) []blockdev.DevicePath {
	entries := s.findLvmByTip(devicePath)
	out := make([]blockdev.DevicePath, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
		if store := s.Lvms[e.PV]; store != nil {
			store.RemoveByTip(devicePath)
		}
	}
	return out
}
