// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

package validate

import (
	"github.com/tessera-linux/installer/blockdev"
	"github.com/tessera-linux/installer/errors"
	"github.com/tessera-linux/installer/manifest"
	"github.com/tessera-linux/installer/scanner"
)

// fsReadyTips collects every device path that may now back a filesystem
// or swap: survivors of sys_fs_ready, every tip still left in sys_lvms,
// and every tip in the manifest store, each filtered by IsFsBase.
func fsReadyTips(store *blockdev.Store, snap *scanner.Snapshot) (map[string]bool, error) {
	tips := map[string]bool{}

	for path, kind := range snap.FsReady {
		if !blockdev.IsFsBase(kind) {
			return nil, errors.New(errors.InternalBug,
				"fs-ready device %s has a kind that cannot back a filesystem: %s", path, kind)
		}
		tips[path] = true
	}

	for _, lvmStore := range snap.Lvms {
		if lvmStore == nil {
			continue
		}
		for _, p := range lvmStore.Paths() {
			if len(p) == 0 {
				continue
			}
			if blockdev.IsFsBase(p.Tip().Kind) {
				tips[p.Tip().DevicePath] = true
			}
		}
	}

	for _, p := range store.Paths() {
		if blockdev.IsFsBase(p.Tip().Kind) {
			tips[p.Tip().DevicePath] = true
		}
	}

	return tips, nil
}

// FilesystemsAndSwap validates rootfs, the auxiliary filesystem list and
// the swap device list against the fs-ready tips surviving disk and DM
// validation, consuming each tip exactly once.
func FilesystemsAndSwap(m *manifest.Manifest, store *blockdev.Store, snap *scanner.Snapshot) error {
	tips, err := fsReadyTips(store, snap)
	if err != nil {
		return err
	}

	if m.RootFs.Device == "" {
		return errors.New(errors.BadManifest, "rootfs is missing a device")
	}
	if !tips[m.RootFs.Device] {
		return errors.New(errors.BadManifest, "rootfs validation failed: no top-level fs-ready device for rootfs: %s", m.RootFs.Device)
	}
	delete(tips, m.RootFs.Device)

	for i, fs := range m.Filesystems {
		if !tips[fs.Device] {
			return errors.New(errors.BadManifest,
				"fs validation failed: device %s for fs #%d (%s) is not fs-ready", fs.Device, i, fs.FsType)
		}
		delete(tips, fs.Device)
	}

	for i, swap := range m.Swap {
		if !tips[swap] {
			return errors.New(errors.BadManifest,
				"swap validation failed: device %s for swap #%d is not fs-ready", swap, i)
		}
		delete(tips, swap)
	}

	return nil
}
