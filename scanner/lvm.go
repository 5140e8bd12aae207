// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

package scanner

import (
	"bytes"
	"strings"

	"github.com/tessera-linux/installer/blockdev"
	"github.com/tessera-linux/installer/cmd"
	"github.com/tessera-linux/installer/errors"
)

// runLvmReport shells out to an LVM2 reporting command and reads back
// a colon-separated, headerless report: one external binary, one
// parse step, no persistent daemon.
func runLvmReport(binary string, columns string) ([][]string, error) {
	w := bytes.NewBuffer(nil)
	if err := cmd.Run(w, binary, "--noheadings", "--separator", ":", "-o", columns); err != nil {
		return nil, errors.New(errors.CmdFailed, "%s failed: %s", binary, w.String())
	}

	var rows [][]string
	for _, line := range strings.Split(w.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ":")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		rows = append(rows, fields)
	}
	return rows, nil
}

// hostLvmScan discovers the PV/VG/LV topology already present on the
// host via pvs and lvs, and populates Lvms under each PV with one
// DevicePath per LV of its VG (PV -> VG -> LV), or a single PV -> VG
// path when the VG has no LVs, or a bare PV path when the PV belongs to
// no VG. A VG spanning several PVs gets these paths under every PV, all
// sharing the VG's and LV's tip device paths, matching the fan-out the
// manifest-side store builds when adopting these entries.
func hostLvmScan(s *Snapshot) error {
	pvRows, err := runLvmReport("pvs", "pv_name,vg_name")
	if err != nil {
		return err
	}

	vgLvs := map[string][]string{}
	lvRows, err := runLvmReport("lvs", "vg_name,lv_name")
	if err != nil {
		return err
	}
	for _, row := range lvRows {
		if len(row) < 2 || row[0] == "" || row[1] == "" {
			continue
		}
		vgLvs[row[0]] = append(vgLvs[row[0]], row[1])
	}

	for _, row := range pvRows {
		if len(row) < 1 || row[0] == "" {
			continue
		}
		pvPath := row[0]
		vgName := ""
		if len(row) > 1 {
			vgName = row[1]
		}

		path := blockdev.DevicePath{
			{DevicePath: pvPath, Kind: blockdev.DmTarget(blockdev.LvmPv)},
		}

		if vgName != "" {
			vgPath := "/dev/" + vgName
			path = path.WithAppended(blockdev.BlockDev{DevicePath: vgPath, Kind: blockdev.DmTarget(blockdev.LvmVg)})

			for _, lvName := range vgLvs[vgName] {
				lvPath := vgPath + "/" + lvName
				lvChain := path.WithAppended(blockdev.BlockDev{DevicePath: lvPath, Kind: blockdev.DmTarget(blockdev.LvmLv)})
				s.pushLvm(pvPath, lvChain)
			}
			if len(vgLvs[vgName]) == 0 {
				s.pushLvm(pvPath, path)
			}
			continue
		}

		s.pushLvm(pvPath, path)
	}

	return nil
}

// pushLvm appends path to the Store rooted at pv, creating the Store on
// first use.
func (s *Snapshot) pushLvm(pv string, path blockdev.DevicePath) {
	store, ok := s.Lvms[pv]
	if !ok || store == nil {
		store = blockdev.NewStore()
		s.Lvms[pv] = store
	}
	store.Push(path)
}

// hostScan implements Scan against the running host via lsblk, pvs and
// lvs.
type hostScan struct{}

// NewHostScan returns a Scan backed by the host's lsblk/pvs/lvs binaries.
func NewHostScan() Scan {
	return hostScan{}
}

func (hostScan) Scan() (*Snapshot, error) {
	s := NewSnapshot()

	if err := hostBlkidScan(s); err != nil {
		return nil, err
	}
	if err := hostLvmScan(s); err != nil {
		return nil, err
	}

	// A device topped by an LVM stack is, by definition, not itself
	// fs-ready: drop any PV base that hostBlkidScan classified as bare.
	for pv := range s.Lvms {
		delete(s.FsReady, pv)
	}

	return s, nil
}
