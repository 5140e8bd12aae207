// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

// Package blockdev implements the block-device type model and the
// device-path store: the data model that the disk, DM and filesystem
// validators build and query. Kind is a tagged sum of the block-device
// kinds the manifest can declare.
package blockdev

import "fmt"

// DmKind distinguishes the four device-mapper targets the validator
// understands.
type DmKind int

const (
	// Luks is an encrypted mapped device under /dev/mapper/<name>.
	Luks DmKind = iota
	// LvmPv is a block device initialised as an LVM physical volume.
	LvmPv
	// LvmVg is an LVM volume group.
	LvmVg
	// LvmLv is a logical volume carved out of a volume group.
	LvmLv
)

var dmKindNames = map[DmKind]string{
	Luks:  "luks",
	LvmPv: "lvm-pv",
	LvmVg: "lvm-vg",
	LvmLv: "lvm-lv",
}

func (k DmKind) String() string {
	if s, ok := dmKindNames[k]; ok {
		return s
	}
	return "unknown-dm"
}

// kindTag discriminates the Kind tagged sum.
type kindTag int

const (
	tagDisk kindTag = iota
	tagPartition
	tagUnknownBlock
	tagDm
	tagFs
)

// Kind is a tagged sum describing what a block device is: a disk, a
// partition, a placeholder for an unverified base, a device-mapper
// target, or a filesystem (carrying its mkfs family name).
type Kind struct {
	tag    kindTag
	dm     DmKind
	fsName string
}

// DiskKind is a whole raw block device.
func DiskKind() Kind { return Kind{tag: tagDisk} }

// PartitionKind is a slice of a disk defined by a partition table.
func PartitionKind() Kind { return Kind{tag: tagPartition} }

// UnknownBlockKind placeholders a base whose real nature was not
// verified by the scanner (e.g. adopted purely from a file-exists
// check).
func UnknownBlockKind() Kind { return Kind{tag: tagUnknownBlock} }

// DmTarget wraps a DmKind as a Kind.
func DmTarget(dm DmKind) Kind { return Kind{tag: tagDm, dm: dm} }

// FsKind names a filesystem family ("btrfs", "ext4", "swap", ...).
func FsKind(name string) Kind { return Kind{tag: tagFs, fsName: name} }

// IsDisk reports whether k is DiskKind.
func (k Kind) IsDisk() bool { return k.tag == tagDisk }

// IsPartition reports whether k is PartitionKind.
func (k Kind) IsPartition() bool { return k.tag == tagPartition }

// IsUnknownBlock reports whether k is UnknownBlockKind.
func (k Kind) IsUnknownBlock() bool { return k.tag == tagUnknownBlock }

// IsDm reports whether k is a device-mapper target, and returns which one.
func (k Kind) IsDm() (DmKind, bool) {
	if k.tag == tagDm {
		return k.dm, true
	}
	return 0, false
}

// IsFs reports whether k is a filesystem kind, and returns its family name.
func (k Kind) IsFs() (string, bool) {
	if k.tag == tagFs {
		return k.fsName, true
	}
	return "", false
}

// Equals compares two Kind values by tag and payload.
func (k Kind) Equals(o Kind) bool {
	if k.tag != o.tag {
		return false
	}
	switch k.tag {
	case tagDm:
		return k.dm == o.dm
	case tagFs:
		return k.fsName == o.fsName
	default:
		return true
	}
}

func (k Kind) String() string {
	switch k.tag {
	case tagDisk:
		return "disk"
	case tagPartition:
		return "partition"
	case tagUnknownBlock:
		return "unknown-block"
	case tagDm:
		return fmt.Sprintf("dm(%s)", k.dm)
	case tagFs:
		return fmt.Sprintf("fs(%s)", k.fsName)
	default:
		return "invalid-kind"
	}
}

// IsFsBase reports whether k may be the immediate base of a filesystem
// or swap: Disk, Partition, UnknownBlock, Dm(Luks), Dm(LvmLv).
func IsFsBase(k Kind) bool {
	if k.IsDisk() || k.IsPartition() || k.IsUnknownBlock() {
		return true
	}
	if dm, ok := k.IsDm(); ok {
		return dm == Luks || dm == LvmLv
	}
	return false
}

// IsPvBase reports whether k may be initialised as an LVM PV: Disk,
// Partition, UnknownBlock, Dm(Luks).
func IsPvBase(k Kind) bool {
	if k.IsDisk() || k.IsPartition() || k.IsUnknownBlock() {
		return true
	}
	if dm, ok := k.IsDm(); ok {
		return dm == Luks
	}
	return false
}

// IsVgBase reports whether k may carry a VG: only Dm(LvmPv).
func IsVgBase(k Kind) bool {
	dm, ok := k.IsDm()
	return ok && dm == LvmPv
}

// IsLvBase reports whether k may carry an LV: only Dm(LvmVg).
func IsLvBase(k Kind) bool {
	dm, ok := k.IsDm()
	return ok && dm == LvmVg
}

// IsLuksBase reports whether k may be the base of a LUKS mapping: Disk,
// Partition, UnknownBlock, Dm(LvmLv).
func IsLuksBase(k Kind) bool {
	if k.IsDisk() || k.IsPartition() || k.IsUnknownBlock() {
		return true
	}
	if dm, ok := k.IsDm(); ok {
		return dm == LvmLv
	}
	return false
}

// BlockDev pairs a device path string with its Kind. Two BlockDevs are
// equal iff both fields match. Values are immutable after creation.
type BlockDev struct {
	DevicePath string
	Kind       Kind
}

// Equals compares two BlockDev values by path and kind.
func (b BlockDev) Equals(o BlockDev) bool {
	return b.DevicePath == o.DevicePath && b.Kind.Equals(o.Kind)
}

func (b BlockDev) String() string {
	return fmt.Sprintf("%s(%s)", b.DevicePath, b.Kind)
}
