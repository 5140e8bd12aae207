// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

package blockdev

import "testing"

func TestKindEquals(t *testing.T) {
	if !DiskKind().Equals(DiskKind()) {
		t.Fatal("DiskKind should equal itself")
	}
	if DiskKind().Equals(PartitionKind()) {
		t.Fatal("DiskKind should not equal PartitionKind")
	}
	if !DmTarget(Luks).Equals(DmTarget(Luks)) {
		t.Fatal("Dm(Luks) should equal Dm(Luks)")
	}
	if DmTarget(Luks).Equals(DmTarget(LvmPv)) {
		t.Fatal("Dm(Luks) should not equal Dm(LvmPv)")
	}
	if !FsKind("ext4").Equals(FsKind("ext4")) {
		t.Fatal("Fs(ext4) should equal Fs(ext4)")
	}
	if FsKind("ext4").Equals(FsKind("btrfs")) {
		t.Fatal("Fs(ext4) should not equal Fs(btrfs)")
	}
}

func TestPredicates(t *testing.T) {
	fsBases := []Kind{DiskKind(), PartitionKind(), UnknownBlockKind(), DmTarget(Luks), DmTarget(LvmLv)}
	for _, k := range fsBases {
		if !IsFsBase(k) {
			t.Fatalf("%v should be a valid fs base", k)
		}
	}
	if IsFsBase(DmTarget(LvmPv)) || IsFsBase(DmTarget(LvmVg)) {
		t.Fatal("PV/VG kinds must not be fs bases")
	}

	pvBases := []Kind{DiskKind(), PartitionKind(), UnknownBlockKind(), DmTarget(Luks)}
	for _, k := range pvBases {
		if !IsPvBase(k) {
			t.Fatalf("%v should be a valid pv base", k)
		}
	}
	if IsPvBase(DmTarget(LvmLv)) {
		t.Fatal("LV must not be a valid pv base")
	}

	if !IsVgBase(DmTarget(LvmPv)) || IsVgBase(DmTarget(LvmVg)) {
		t.Fatal("only Dm(LvmPv) should be a vg base")
	}
	if !IsLvBase(DmTarget(LvmVg)) || IsLvBase(DmTarget(LvmPv)) {
		t.Fatal("only Dm(LvmVg) should be an lv base")
	}

	luksBases := []Kind{DiskKind(), PartitionKind(), UnknownBlockKind(), DmTarget(LvmLv)}
	for _, k := range luksBases {
		if !IsLuksBase(k) {
			t.Fatalf("%v should be a valid luks base", k)
		}
	}
	if IsLuksBase(DmTarget(LvmPv)) {
		t.Fatal("PV must not be a valid luks base")
	}
}

func TestBlockDevEquals(t *testing.T) {
	a := BlockDev{DevicePath: "/dev/sda1", Kind: PartitionKind()}
	b := BlockDev{DevicePath: "/dev/sda1", Kind: PartitionKind()}
	c := BlockDev{DevicePath: "/dev/sda1", Kind: DiskKind()}

	if !a.Equals(b) {
		t.Fatal("identical BlockDevs should be equal")
	}
	if a.Equals(c) {
		t.Fatal("BlockDevs with different kinds should not be equal")
	}
}
