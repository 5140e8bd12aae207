// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

package validate

import (
	"testing"

	"github.com/tessera-linux/installer/blockdev"
	"github.com/tessera-linux/installer/errors"
	"github.com/tessera-linux/installer/manifest"
	"github.com/tessera-linux/installer/scanner"
)

func lvm(pvs []string, vgs []manifest.Vg, lvs []manifest.Lv) manifest.Dm {
	return manifest.Dm{Lvm: &manifest.Lvm{Pvs: pvs, Vgs: vgs, Lvs: lvs}}
}

func seedPV(store *blockdev.Store, pv string) {
	store.Push(blockdev.DevicePath{{DevicePath: pv, Kind: blockdev.DmTarget(blockdev.LvmPv)}})
}

func TestDeviceMappersAcceptsSinglePVChain(t *testing.T) {
	store := blockdev.NewStore()
	seedPV(store, "/dev/sda2")

	dms := []manifest.Dm{
		lvm(nil,
			[]manifest.Vg{{Name: "myvg", Pvs: []string{"/dev/sda2"}}},
			[]manifest.Lv{{Name: "mylv", Vg: "myvg"}},
		),
	}

	if err := DeviceMappers(dms, store, scanner.NewSnapshot()); err != nil {
		t.Fatalf("expected accept, got %v", err)
	}

	tips := store.Tips()
	found := false
	for _, tip := range tips {
		if tip.DevicePath == "/dev/myvg/mylv" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a path tipped at /dev/myvg/mylv, got %+v", tips)
	}
}

func TestDeviceMappersRejectsPVReusedByTwoVGs(t *testing.T) {
	store := blockdev.NewStore()
	seedPV(store, "/dev/sda2")

	dms := []manifest.Dm{
		lvm(nil, []manifest.Vg{
			{Name: "myvg", Pvs: []string{"/dev/sda2"}},
			{Name: "somevg", Pvs: []string{"/dev/sda2"}},
		}, nil),
	}

	err := DeviceMappers(dms, store, scanner.NewSnapshot())
	if !errors.Is(err, errors.BadManifest) {
		t.Fatalf("expected BadManifest, got %v", err)
	}
}

func TestDeviceMappersRejectsUnsizedNonLastLV(t *testing.T) {
	store := blockdev.NewStore()
	seedPV(store, "/dev/sda2")

	dms := []manifest.Dm{
		lvm(nil,
			[]manifest.Vg{{Name: "myvg", Pvs: []string{"/dev/sda2"}}},
			[]manifest.Lv{
				{Name: "first", Vg: "myvg"},
				{Name: "second", Vg: "myvg", Size: "10G"},
			},
		),
	}

	err := DeviceMappers(dms, store, scanner.NewSnapshot())
	if !errors.Is(err, errors.BadManifest) {
		t.Fatalf("expected BadManifest for unsized non-last LV, got %v", err)
	}
}

func TestDeviceMappersAcceptsUnsizedLastLV(t *testing.T) {
	store := blockdev.NewStore()
	seedPV(store, "/dev/sda2")

	dms := []manifest.Dm{
		lvm(nil,
			[]manifest.Vg{{Name: "myvg", Pvs: []string{"/dev/sda2"}}},
			[]manifest.Lv{
				{Name: "first", Vg: "myvg", Size: "10G"},
				{Name: "last", Vg: "myvg"},
			},
		),
	}

	if err := DeviceMappers(dms, store, scanner.NewSnapshot()); err != nil {
		t.Fatalf("expected accept, got %v", err)
	}
}

func TestDeviceMappersVgFanOutAcrossTwoPVs(t *testing.T) {
	store := blockdev.NewStore()
	seedPV(store, "/dev/sda2")
	seedPV(store, "/dev/sdb2")

	dms := []manifest.Dm{
		lvm(nil,
			[]manifest.Vg{{Name: "myvg", Pvs: []string{"/dev/sda2", "/dev/sdb2"}}},
			[]manifest.Lv{{Name: "mylv", Vg: "myvg"}},
		),
	}

	if err := DeviceMappers(dms, store, scanner.NewSnapshot()); err != nil {
		t.Fatalf("expected accept, got %v", err)
	}

	count := 0
	for _, p := range store.Paths() {
		if p.Tip().DevicePath == "/dev/myvg/mylv" {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected fan-out producing 2 paths tipped at the LV, got %d", count)
	}
}

func TestDeviceMappersAdoptsSystemLvmStack(t *testing.T) {
	store := blockdev.NewStore()
	snap := scanner.NewSnapshot()

	vgPath := "/dev/existingvg"
	snap.Lvms["/dev/sdc2"] = blockdev.NewStore()
	snap.Lvms["/dev/sdc2"].Push(blockdev.DevicePath{
		{DevicePath: "/dev/sdc2", Kind: blockdev.DmTarget(blockdev.LvmPv)},
		{DevicePath: vgPath, Kind: blockdev.DmTarget(blockdev.LvmVg)},
	})

	dms := []manifest.Dm{
		lvm(nil, nil, []manifest.Lv{{Name: "newlv", Vg: "existingvg"}}),
	}

	if err := DeviceMappers(dms, store, snap); err != nil {
		t.Fatalf("expected accept adopting system vg, got %v", err)
	}

	if len(snap.Lvms["/dev/sdc2"].Paths()) != 0 {
		t.Fatal("expected adopted system path to be cleared")
	}

	found := false
	for _, p := range store.Paths() {
		if p.Tip().DevicePath == "/dev/existingvg/newlv" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected manifest store to gain the adopted+extended path")
	}
}

func TestDeviceMappersRejectsVgNameCollidingWithExistingHostVg(t *testing.T) {
	store := blockdev.NewStore()
	snap := scanner.NewSnapshot()

	vgPath := "/dev/collidingvg"

	// An existing host VG already sits on a different PV.
	snap.Lvms["/dev/sde2"] = blockdev.NewStore()
	snap.Lvms["/dev/sde2"].Push(blockdev.DevicePath{
		{DevicePath: "/dev/sde2", Kind: blockdev.DmTarget(blockdev.LvmPv)},
		{DevicePath: vgPath, Kind: blockdev.DmTarget(blockdev.LvmVg)},
	})

	// A fresh, unused PV is offered to create a VG of the same name.
	snap.Lvms["/dev/sdf2"] = blockdev.NewStore()
	snap.Lvms["/dev/sdf2"].Push(blockdev.DevicePath{
		{DevicePath: "/dev/sdf2", Kind: blockdev.DmTarget(blockdev.LvmPv)},
	})

	dms := []manifest.Dm{
		lvm(nil, []manifest.Vg{{Name: "collidingvg", Pvs: []string{"/dev/sdf2"}}}, nil),
	}

	err := DeviceMappers(dms, store, snap)
	if !errors.Is(err, errors.BadManifest) {
		t.Fatalf("expected BadManifest for vg name colliding with an existing host vg, got %v", err)
	}
}

func TestCheckLastLVUnsizedRuleIndependentVGs(t *testing.T) {
	dms := []manifest.Dm{
		lvm(nil, nil, []manifest.Lv{
			{Name: "a", Vg: "vg1"},
			{Name: "b", Vg: "vg2"},
		}),
	}

	if err := checkLastLVUnsizedRule(dms); err != nil {
		t.Fatalf("unsized LVs on separate VGs are each trivially last: %v", err)
	}
}
