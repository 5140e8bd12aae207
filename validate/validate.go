// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

// Package validate implements the block-device validation core: the
// sequence of checks that must pass before any manifest is allowed to
// drive destructive storage operations.
package validate

import (
	"github.com/tessera-linux/installer/blockdev"
	"github.com/tessera-linux/installer/errors"
	"github.com/tessera-linux/installer/hostname"
	"github.com/tessera-linux/installer/manifest"
	"github.com/tessera-linux/installer/scanner"
	"github.com/tessera-linux/installer/timezone"
)

// Manifest runs every validation stage against m and snap in order,
// returning the first diagnostic encountered. A nil return means the
// manifest is safe to apply.
func Manifest(m *manifest.Manifest, snap *scanner.Snapshot, timezones []*timezone.TimeZone) error {
	if m.Hostname != "" {
		if msg := hostname.IsValidHostname(m.Hostname); msg != "" {
			return errors.New(errors.BadManifest, "invalid hostname %q: %s", m.Hostname, msg)
		}
	}

	if m.Timezone != "" && !timezone.IsValidTimezone(m.Timezone, timezones) {
		return errors.New(errors.BadManifest, "invalid timezone: %s", m.Timezone)
	}

	store := blockdev.NewStore()

	if err := Disks(m.Disks, store, snap); err != nil {
		return err
	}

	if err := DeviceMappers(m.DeviceMappers, store, snap); err != nil {
		return err
	}

	if err := FilesystemsAndSwap(m, store, snap); err != nil {
		return err
	}

	return nil
}
