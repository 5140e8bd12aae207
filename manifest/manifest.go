// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

// Package manifest defines the YAML-tagged view of the installer
// manifest. The validator itself never touches YAML; this package is the
// boundary that turns a manifest file into the plain Go values the
// validate package reads.
package manifest

import (
	"io/ioutil"

	"gopkg.in/yaml.v2"

	"github.com/tessera-linux/installer/errors"
)

// Partition is one entry in a Disk's partition table.
type Partition struct {
	Label    string `yaml:"label"`
	Size     string `yaml:"size,omitempty"`
	PartType string `yaml:"part_type"`
}

// Disk describes a whole block device and the partition table to lay
// down on it.
type Disk struct {
	Device     string      `yaml:"device"`
	Table      string      `yaml:"table"`
	Partitions []Partition `yaml:"partitions"`
}

// Luks describes a LUKS encryption target.
type Luks struct {
	Name   string `yaml:"name"`
	Device string `yaml:"device"`
}

// Vg describes an LVM volume group and the PVs it spans.
type Vg struct {
	Name string   `yaml:"name"`
	Pvs  []string `yaml:"pvs"`
}

// Lv describes a logical volume carved from a VG. Size is optional:
// an empty string means "unsized", legal only for the last LV declared
// on its VG.
type Lv struct {
	Name string `yaml:"name"`
	Vg   string `yaml:"vg"`
	Size string `yaml:"size,omitempty"`
}

// Lvm describes one LVM device-mapper entry: zero or more bare PVs to
// initialise, VGs to assemble, and LVs to carve.
type Lvm struct {
	Pvs []string `yaml:"pvs,omitempty"`
	Vgs []Vg     `yaml:"vgs,omitempty"`
	Lvs []Lv     `yaml:"lvs,omitempty"`
}

// Dm is one device_mappers list entry: exactly one of Luks or Lvm is
// populated, mirroring the manifest's tagged-union YAML shape.
type Dm struct {
	Luks *Luks `yaml:"luks,omitempty"`
	Lvm  *Lvm  `yaml:"lvm,omitempty"`
}

// Fs describes a filesystem to create and where to mount it.
type Fs struct {
	Device string `yaml:"device"`
	Mnt    string `yaml:"mnt,omitempty"`
	FsType string `yaml:"fs_type"`
}

// Manifest is the top-level installer manifest document.
type Manifest struct {
	Disks          []Disk   `yaml:"disks"`
	DeviceMappers  []Dm     `yaml:"device_mappers"`
	RootFs         Fs       `yaml:"rootfs"`
	Filesystems    []Fs     `yaml:"filesystems,omitempty"`
	Swap           []string `yaml:"swap,omitempty"`
	Pacstraps      []string `yaml:"pacstraps,omitempty"`
	Chroot         []string `yaml:"chroot,omitempty"`
	PostInstall    []string `yaml:"postinstall,omitempty"`
	Hostname       string   `yaml:"hostname,omitempty"`
	Timezone       string   `yaml:"timezone,omitempty"`
}

// Load reads and parses the manifest file at path.
func Load(path string) (*Manifest, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.WrapKind(errors.FileError, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.New(errors.BadManifest, "parsing %s: %v", path, err)
	}

	return &m, nil
}
