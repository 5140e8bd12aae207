// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

package apply

import (
	"testing"

	"github.com/tessera-linux/installer/errors"
	"github.com/tessera-linux/installer/manifest"
)

func TestBuildPlanOrdering(t *testing.T) {
	m := &manifest.Manifest{
		Disks: []manifest.Disk{
			{Device: "/dev/sda", Table: "gpt", Partitions: []manifest.Partition{{Label: "efi", Size: "500M", PartType: "ef"}}},
		},
		DeviceMappers: []manifest.Dm{
			{Lvm: &manifest.Lvm{Pvs: []string{"/dev/sda2"}}},
		},
		RootFs:   manifest.Fs{Device: "/dev/sda1", Mnt: "/", FsType: "ext4"},
		Hostname: "tessera",
		Timezone: "UTC",
	}

	plan := BuildPlan(m)

	if plan.Actions[0].Kind != ApplyDisks {
		t.Fatalf("expected first action to be applyDisks, got %s", plan.Actions[0].Kind)
	}

	var sawLvmPv, sawRootfs, sawHostname, sawTimezone bool
	for _, a := range plan.Actions {
		switch a.Kind {
		case CreateLvmPv:
			sawLvmPv = true
		case CreateRootFs:
			sawRootfs = true
		case SetHostname:
			sawHostname = true
		case SetTimezone:
			sawTimezone = true
		}
	}
	if !sawLvmPv || !sawRootfs || !sawHostname || !sawTimezone {
		t.Fatalf("expected plan to cover disks, lvm, rootfs and hostname/timezone: %+v", plan.Actions)
	}
}

func TestRunStopsAtFirstNotImplemented(t *testing.T) {
	plan := &Plan{Actions: []Action{{Kind: CreateRootFs, Target: "/dev/sda1"}}}

	err := Run(plan)
	if !errors.Is(err, errors.NotImplemented) {
		t.Fatalf("expected NotImplemented, got %v", err)
	}
	if plan.Performed != 0 {
		t.Fatalf("expected Performed to stay at 0 on failure, got %d", plan.Performed)
	}
}
