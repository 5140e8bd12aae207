// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

package scanner

import (
	"bytes"
	"encoding/json"

	"github.com/tessera-linux/installer/blockdev"
	"github.com/tessera-linux/installer/cmd"
	"github.com/tessera-linux/installer/errors"
)

// lsblkDevice is the subset of lsblk's JSON schema this scanner reads.
type lsblkDevice struct {
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	FsType   string        `json:"fstype"`
	MountPt  string        `json:"mountpoint"`
	Children []lsblkDevice `json:"children,omitempty"`
}

type lsblkOutput struct {
	BlockDevices []lsblkDevice `json:"blockdevices"`
}

func devPath(name string) string {
	return "/dev/" + name
}

// hostBlkidScan shells out to lsblk to classify every device on the host
// as either already carrying a filesystem (FsDevs) or ready to receive
// one (FsReady). LVM-mapped devices are skipped here and recorded by
// lvm.go from pvs/lvs instead. Crypt-mapped devices are skipped too and
// are not recorded by either scan, so an existing LUKS mapping never
// appears in FsReady.
func hostBlkidScan(s *Snapshot) error {
	w := bytes.NewBuffer(nil)
	if err := cmd.Run(w, "lsblk", "-J", "-b", "-O"); err != nil {
		return errors.New(errors.CmdFailed, "lsblk failed: %s", w.String())
	}

	var out lsblkOutput
	if err := json.Unmarshal(w.Bytes(), &out); err != nil {
		return errors.New(errors.InternalBug, "parsing lsblk output: %v", err)
	}

	var walk func(d lsblkDevice, kind blockdev.Kind)
	walk = func(d lsblkDevice, kind blockdev.Kind) {
		path := devPath(d.Name)

		switch d.Type {
		case "lvm", "crypt":
			// classified by lvm.go, not here
		case "part":
			classifyLeaf(s, path, d.FsType, d.MountPt, blockdev.PartitionKind())
		case "disk":
			if len(d.Children) == 0 {
				classifyLeaf(s, path, d.FsType, d.MountPt, blockdev.DiskKind())
			}
		}

		for _, c := range d.Children {
			walk(c, kind)
		}
	}

	for _, d := range out.BlockDevices {
		walk(d, blockdev.UnknownBlockKind())
	}

	return nil
}

// classifyLeaf records path as fs-devs if it already carries a
// filesystem or is mounted, otherwise as fs-ready under kind.
func classifyLeaf(s *Snapshot, path, fsType, mountPt string, kind blockdev.Kind) {
	if fsType != "" || mountPt != "" {
		fsKind := blockdev.FsKind(fsType)
		if fsType == "" {
			fsKind = blockdev.FsKind("unknown")
		}
		s.FsDevs[path] = fsKind
		return
	}
	s.FsReady[path] = kind
}
