// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

// dm.go implements the device-mapper validator: the LUKS, PV, VG and
// LV search-or-adopt-or-reject algorithm.
package validate

import (
	"strings"

	"github.com/tessera-linux/installer/blockdev"
	"github.com/tessera-linux/installer/errors"
	"github.com/tessera-linux/installer/manifest"
	"github.com/tessera-linux/installer/scanner"
	"github.com/tessera-linux/installer/sizeparse"
	"github.com/tessera-linux/installer/utils"
)

// dmState carries the mutable data threaded through every DM stage.
type dmState struct {
	store *blockdev.Store
	snap  *scanner.Snapshot

	// usedPVs maps a manifest PV device path to the VG name that
	// consumed it, so a second VG claiming the same PV is rejected
	// with a precise diagnostic instead of relying on tip-search
	// side effects.
	usedPVs map[string]string

	// mapperNames tracks LUKS mapper names already created within this
	// manifest, mirroring the host /dev/mapper/<name> existence check.
	mapperNames map[string]bool
}

func newDMState(store *blockdev.Store, snap *scanner.Snapshot) *dmState {
	return &dmState{
		store:       store,
		snap:        snap,
		usedPVs:     map[string]string{},
		mapperNames: map[string]bool{},
	}
}

func vgNodePath(name string) string {
	return "/dev/" + strings.TrimPrefix(name, "/dev/")
}

func luksMapperPath(name string) string {
	return "/dev/mapper/" + name
}

func lvNodePath(vg, lv string) string {
	return vgNodePath(vg) + "/" + lv
}

// DeviceMappers processes device_mappers in manifest order, enforcing
// PV -> VG -> LV sub-order within each LVM entry.
func DeviceMappers(dms []manifest.Dm, store *blockdev.Store, snap *scanner.Snapshot) error {
	if err := checkLastLVUnsizedRule(dms); err != nil {
		return err
	}

	st := newDMState(store, snap)

	for _, dm := range dms {
		switch {
		case dm.Luks != nil:
			if err := st.validateLuks(*dm.Luks); err != nil {
				return err
			}
		case dm.Lvm != nil:
			for _, pv := range dm.Lvm.Pvs {
				if err := st.validatePV(pv); err != nil {
					return err
				}
			}
			for _, vg := range dm.Lvm.Vgs {
				if err := st.validateVG(vg); err != nil {
					return err
				}
			}
			for _, lv := range dm.Lvm.Lvs {
				if err := st.validateLV(lv); err != nil {
					return err
				}
			}
		default:
			return errors.New(errors.BadManifest, "device_mappers entry has neither luks nor lvm")
		}
	}

	return nil
}

func checkLastLVUnsizedRule(dms []manifest.Dm) error {
	type lvRef struct {
		lv manifest.Lv
		vg string
	}

	var order []string
	byVg := map[string][]lvRef{}

	for _, dm := range dms {
		if dm.Lvm == nil {
			continue
		}
		for _, lv := range dm.Lvm.Lvs {
			vg := vgNodePath(lv.Vg)
			if _, ok := byVg[vg]; !ok {
				order = append(order, vg)
			}
			byVg[vg] = append(byVg[vg], lvRef{lv: lv, vg: vg})
		}
	}

	for _, vg := range order {
		lvs := byVg[vg]
		if len(lvs) < 2 {
			continue
		}
		for i, ref := range lvs[:len(lvs)-1] {
			if ref.lv.Size == "" {
				return errors.New(errors.BadManifest,
					"lv %s on vg %s has no size and is not the last lv declared for that vg (position %d of %d)",
					ref.lv.Name, vg, i+1, len(lvs))
			}
		}
	}

	return nil
}

func (st *dmState) validateLuks(luks manifest.Luks) error {
	if luks.Name == "" || luks.Device == "" {
		return errors.New(errors.BadManifest, "luks entry requires both name and device")
	}

	mapperPath := luksMapperPath(luks.Name)

	if st.mapperNames[luks.Name] {
		return errors.New(errors.BadManifest, "luks mapper name already used in this manifest: %s", luks.Name)
	}

	exists, err := utils.FileExists(mapperPath)
	if err != nil {
		return errors.WrapKind(errors.FileError, err)
	}
	if exists {
		return errors.New(errors.BadManifest, "luks mapper already exists on host: %s", mapperPath)
	}

	if _, ok := st.snap.FsDevs[luks.Device]; ok {
		return errors.New(errors.BadManifest, "luks base %s already carries a filesystem", luks.Device)
	}

	node := blockdev.BlockDev{DevicePath: mapperPath, Kind: blockdev.DmTarget(blockdev.Luks)}

	// System search: base is the tip of an existing LV.
	sysMatches := st.snap.FindLvmByTip(luks.Device)
	if len(sysMatches) > 0 {
		for _, m := range sysMatches {
			if dm, ok := m.Path.Tip().Kind.IsDm(); !ok || dm != blockdev.LvmLv {
				continue
			}
			if len(m.Path) < 2 || !blockdev.IsLvBase(m.Path[len(m.Path)-2].Kind) {
				return errors.New(errors.InternalBug,
					"system lvm path for %s has an LV tip but its predecessor is not a VG", luks.Device)
			}
		}
		adopted := st.snap.AdoptAndClear(luks.Device)
		appended := false
		for _, p := range adopted {
			if dm, ok := p.Tip().Kind.IsDm(); ok && dm == blockdev.LvmLv {
				st.store.Push(p.WithAppended(node))
				appended = true
			}
		}
		if appended {
			st.mapperNames[luks.Name] = true
			return nil
		}
	}

	// Manifest-store search: base is the tip of a manifest-derived path.
	manifestMatches := st.store.FindByTip(luks.Device)
	if len(manifestMatches) > 0 {
		matched, predFailed := st.store.AppendIfTipMatches(luks.Device, blockdev.IsLuksBase, node)
		if predFailed {
			return errors.New(errors.BadManifest, "device %s may not be a luks base", luks.Device)
		}
		if matched {
			st.mapperNames[luks.Name] = true
			return nil
		}
	}

	// Adopt from the system fs-ready set, or fall back to a bare
	// file-existence probe.
	if _, ok := st.snap.ConsumeFsReady(luks.Device); ok {
		st.store.Push(blockdev.DevicePath{
			{DevicePath: luks.Device, Kind: blockdev.UnknownBlockKind()},
			node,
		})
		st.mapperNames[luks.Name] = true
		return nil
	}

	baseExists, err := utils.FileExists(luks.Device)
	if err != nil {
		return errors.WrapKind(errors.FileError, err)
	}
	if baseExists {
		st.store.Push(blockdev.DevicePath{
			{DevicePath: luks.Device, Kind: blockdev.UnknownBlockKind()},
			node,
		})
		st.mapperNames[luks.Name] = true
		return nil
	}

	return errors.New(errors.NoSuchDevice, "luks base device does not exist: %s", luks.Device)
}

func (st *dmState) validatePV(pvPath string) error {
	if pvPath == "" {
		return errors.New(errors.BadManifest, "pv entry has empty device path")
	}

	if _, ok := st.snap.FsDevs[pvPath]; ok {
		return errors.New(errors.BadManifest, "pv %s already carries a filesystem", pvPath)
	}

	if st.snap.HasVgNode(pvPath) {
		return errors.New(errors.BadManifest, "pv %s is already consumed by a vg on the host", pvPath)
	}

	node := blockdev.BlockDev{DevicePath: pvPath, Kind: blockdev.DmTarget(blockdev.LvmPv)}

	matches := st.store.FindByTip(pvPath)
	if len(matches) > 0 {
		for _, m := range matches {
			if dm, ok := m.Tip().Kind.IsDm(); ok && dm == blockdev.LvmPv {
				return errors.New(errors.BadManifest, "pv %s declared more than once in this manifest", pvPath)
			}
		}
		matched, predFailed := st.store.AppendIfTipMatches(pvPath, blockdev.IsPvBase, node)
		if predFailed {
			return errors.New(errors.BadManifest, "device %s may not be a pv base", pvPath)
		}
		if matched {
			return nil
		}
	}

	if _, ok := st.snap.ConsumeFsReady(pvPath); ok {
		st.store.Push(blockdev.DevicePath{
			{DevicePath: pvPath, Kind: blockdev.UnknownBlockKind()},
			node,
		})
		return nil
	}

	exists, err := utils.FileExists(pvPath)
	if err != nil {
		return errors.WrapKind(errors.FileError, err)
	}
	if exists {
		st.store.Push(blockdev.DevicePath{
			{DevicePath: pvPath, Kind: blockdev.UnknownBlockKind()},
			node,
		})
		return nil
	}

	return errors.New(errors.BadManifest, "pv %s: no such device anywhere (manifest or host)", pvPath)
}

func (st *dmState) validateVG(vg manifest.Vg) error {
	if vg.Name == "" {
		return errors.New(errors.BadManifest, "vg entry has empty name")
	}

	vgPath := vgNodePath(vg.Name)
	node := blockdev.BlockDev{DevicePath: vgPath, Kind: blockdev.DmTarget(blockdev.LvmVg)}

	for _, pv := range vg.Pvs {
		if owner, used := st.usedPVs[pv]; used {
			return errors.New(errors.BadManifest, "pv %s was already used for other vg %s", pv, owner)
		}

		if _, ok := st.snap.FsDevs[pv]; ok {
			return errors.New(errors.BadManifest, "pv %s already carries a filesystem", pv)
		}
		if st.snap.HasVgNode(pv) {
			return errors.New(errors.BadManifest, "pv %s was already used for a vg on the host", pv)
		}

		matched, predFailed := st.store.AppendIfTipMatches(pv, blockdev.IsVgBase, node)
		if predFailed {
			return errors.New(errors.BadManifest, "pv %s is not ready to carry a vg (wrong kind)", pv)
		}
		if matched {
			st.usedPVs[pv] = vg.Name
			continue
		}

		sysMatches := st.snap.FindLvmByTip(pv)
		if len(sysMatches) > 0 {
			if dup := st.snap.FindLvmByTip(vgPath); len(dup) > 0 {
				return errors.New(errors.BadManifest, "vg %s already exists on the host", vg.Name)
			}
			for _, m := range sysMatches {
				if !blockdev.IsVgBase(m.Path.Tip().Kind) {
					return errors.New(errors.BadManifest, "pv %s is not ready to carry a vg (wrong kind)", pv)
				}
			}
			adopted := st.snap.AdoptAndClear(pv)
			for _, p := range adopted {
				st.store.Push(p.WithAppended(node))
			}
			st.usedPVs[pv] = vg.Name
			continue
		}

		return errors.New(errors.BadManifest, "vg %s: no such pv anywhere: %s", vg.Name, pv)
	}

	return nil
}

func (st *dmState) validateLV(lv manifest.Lv) error {
	if lv.Name == "" || lv.Vg == "" {
		return errors.New(errors.BadManifest, "lv entry requires both name and vg")
	}

	vgPath := vgNodePath(lv.Vg)
	lvPath := lvNodePath(lv.Vg, lv.Name)

	if lv.Size != "" {
		if _, err := sizeparse.Parse(lv.Size); err != nil {
			return errors.New(errors.BadManifest, "lv %s on vg %s: %v", lv.Name, vgPath, err)
		}
	}

	node := blockdev.BlockDev{DevicePath: lvPath, Kind: blockdev.DmTarget(blockdev.LvmLv)}

	// Manifest-store routes to the VG stay in place so that further LVs
	// on the same VG can find them; each LV gets its own clone per route.
	matched := false
	vgRoutes := st.store.FindByTip(vgPath)
	for _, p := range vgRoutes {
		if !blockdev.IsLvBase(p.Tip().Kind) {
			return errors.New(errors.BadManifest, "vg %s is not ready to carry an lv (wrong kind)", vgPath)
		}
	}
	for _, p := range vgRoutes {
		st.store.Push(p.WithAppended(node))
		matched = true
	}

	sysMatches := st.snap.FindLvmByTip(vgPath)
	if len(sysMatches) > 0 {
		for _, m := range sysMatches {
			if !blockdev.IsLvBase(m.Path.Tip().Kind) {
				return errors.New(errors.BadManifest, "vg %s is not ready to carry an lv (wrong kind)", vgPath)
			}
		}
		adopted := st.snap.AdoptAndClear(vgPath)
		for _, p := range adopted {
			st.store.Push(p.WithAppended(node))
			matched = true
		}
	}

	if !matched {
		return errors.New(errors.BadManifest, "lv %s: no such vg anywhere: %s", lv.Name, vgPath)
	}

	return nil
}
