// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

package validate

import (
	"fmt"
	"strings"

	"github.com/tessera-linux/installer/blockdev"
	"github.com/tessera-linux/installer/errors"
	"github.com/tessera-linux/installer/manifest"
	"github.com/tessera-linux/installer/scanner"
	"github.com/tessera-linux/installer/utils"
)

// partitionName synthesizes the device path of partition index (1-based)
// on disk. nvme/mmcblk-style device names insert a "p" between the
// device name and the index; all other disks concatenate directly.
func partitionName(disk string, index int) string {
	infix := ""
	if strings.Contains(disk, "nvme") || strings.Contains(disk, "mmcblk") {
		infix = "p"
	}
	return fmt.Sprintf("%s%s%d", disk, infix, index)
}

// Disks validates the manifest's disk declarations against the host,
// appending one [Disk, Partition] path per declared partition to store.
func Disks(disks []manifest.Disk, store *blockdev.Store, snap *scanner.Snapshot) error {
	for _, disk := range disks {
		if disk.Device == "" {
			return errors.New(errors.BadManifest, "disk declaration is missing a device")
		}

		exists, err := utils.FileExists(disk.Device)
		if err != nil {
			return errors.WrapKind(errors.FileError, err)
		}
		if !exists {
			return errors.New(errors.NoSuchDevice, "disk device does not exist: %s", disk.Device)
		}

		for i, part := range disk.Partitions {
			name := partitionName(disk.Device, i+1)

			// Partitions named by the manifest must not pre-exist: the
			// apply stage will recreate the table. This is the inverse
			// of the DM/FS stages, where sys_fs_ready membership is a
			// legitimate adoption base, not a rejection reason.
			if _, ok := snap.FsReady[name]; ok {
				return errors.New(errors.BadManifest,
					"partition %s (disk %s, label %s) already exists on the host", name, disk.Device, part.Label)
			}

			if _, ok := snap.FsDevs[name]; ok {
				return errors.New(errors.BadManifest,
					"partition %s (disk %s, label %s) already carries a filesystem", name, disk.Device, part.Label)
			}

			store.Push(blockdev.DevicePath{
				{DevicePath: disk.Device, Kind: blockdev.DiskKind()},
				{DevicePath: name, Kind: blockdev.PartitionKind()},
			})
		}
	}

	return nil
}
