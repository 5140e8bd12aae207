// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

package apply

import (
	"fmt"

	"github.com/tessera-linux/installer/errors"
	"github.com/tessera-linux/installer/manifest"
	"github.com/tessera-linux/installer/progress"
)

// BuildPlan sequences a manifest already accepted by validate.Manifest
// into the ordered action log. It never touches the host: it only
// produces the steps that a later, destructive phase would run.
func BuildPlan(m *manifest.Manifest) *Plan {
	plan := &Plan{}

	if len(m.Disks) > 0 {
		plan.Append(Action{Kind: ApplyDisks})
		for _, disk := range m.Disks {
			plan.Append(Action{Kind: CreatePartitionTbl, Target: disk.Device, Args: map[string]string{"table": disk.Table}})
			for i, part := range disk.Partitions {
				plan.Append(Action{
					Kind:   CreatePartition,
					Target: disk.Device,
					Args:   map[string]string{"index": fmt.Sprintf("%d", i+1), "label": part.Label, "size": part.Size},
				})
				plan.Append(Action{Kind: SetPartitionType, Target: disk.Device, Args: map[string]string{"part_type": part.PartType}})
			}
		}
	}

	if len(m.DeviceMappers) > 0 {
		plan.Append(Action{Kind: ApplyDms})
		for _, dm := range m.DeviceMappers {
			switch {
			case dm.Luks != nil:
				plan.Append(Action{Kind: CreateDmLuks, Target: dm.Luks.Device, Args: map[string]string{"name": dm.Luks.Name}})
			case dm.Lvm != nil:
				for _, pv := range dm.Lvm.Pvs {
					plan.Append(Action{Kind: CreateLvmPv, Target: pv})
				}
				for _, vg := range dm.Lvm.Vgs {
					plan.Append(Action{Kind: CreateLvmVg, Target: vg.Name, Args: map[string]string{"pvs": fmt.Sprintf("%v", vg.Pvs)}})
				}
				for _, lv := range dm.Lvm.Lvs {
					plan.Append(Action{Kind: CreateLvmLv, Target: lv.Name, Args: map[string]string{"vg": lv.Vg, "size": lv.Size}})
				}
			}
		}
	}

	plan.Append(Action{Kind: CreateFilesystem, Target: m.RootFs.Device, Args: map[string]string{"fs_type": m.RootFs.FsType}})
	plan.Append(Action{Kind: CreateRootFs, Target: m.RootFs.Device})
	plan.Append(Action{Kind: MountRootFs, Target: m.RootFs.Device, Args: map[string]string{"mnt": m.RootFs.Mnt}})

	for _, fs := range m.Filesystems {
		plan.Append(Action{Kind: CreateFilesystem, Target: fs.Device, Args: map[string]string{"fs_type": fs.FsType}})
		plan.Append(Action{Kind: MkdirFs, Target: fs.Mnt})
		plan.Append(Action{Kind: MountFilesystem, Target: fs.Device, Args: map[string]string{"mnt": fs.Mnt}})
	}

	if len(m.Pacstraps) > 0 {
		plan.Append(Action{Kind: InstallPackages, Args: map[string]string{"count": fmt.Sprintf("%d", len(m.Pacstraps))}})
	}

	plan.Append(Action{Kind: Genfstab})

	if m.Hostname != "" {
		plan.Append(Action{Kind: SetHostname, Target: m.Hostname})
	}
	if m.Timezone != "" {
		plan.Append(Action{Kind: SetTimezone, Target: m.Timezone})
	}

	if len(m.Chroot) > 0 {
		plan.Append(Action{Kind: CommandsChroot, Args: map[string]string{"count": fmt.Sprintf("%d", len(m.Chroot))}})
	}
	if len(m.PostInstall) > 0 {
		plan.Append(Action{Kind: CommandsPostInstall, Args: map[string]string{"count": fmt.Sprintf("%d", len(m.PostInstall))}})
	}

	return plan
}

// Run performs the plan in order, advancing Plan.Performed after every
// successful step so a caller that aborts partway through knows exactly
// how much has landed. The leaves that would run sfdisk/mkfs.*/mount/
// cryptsetup/lvm/package installation are intentionally out of scope
// and return NotImplemented; the orchestration and bookkeeping above
// them are real.
func Run(plan *Plan) error {
	var prg progress.Progress
	if progress.IsSet() {
		prg = progress.MultiStep(len(plan.Actions), "Apply", "applying %d actions", len(plan.Actions))
	}

	for i := plan.Performed; i < len(plan.Actions); i++ {
		if err := runAction(plan.Actions[i]); err != nil {
			if prg != nil {
				prg.Failure()
			}
			return err
		}
		plan.Performed = i + 1
		if prg != nil {
			prg.Partial(plan.Performed)
		}
	}

	if prg != nil {
		prg.Success()
	}
	return nil
}

func runAction(a Action) error {
	return errors.New(errors.NotImplemented, "apply step %s is not implemented (target %s)", a.Kind, a.Target)
}
