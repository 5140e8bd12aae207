// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

// Command blkinstall loads a manifest, scans the host, validates the
// manifest's block-device declarations against the scan, and prints
// either the first diagnostic or the resulting apply plan.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nightlyone/lockfile"
	flag "github.com/spf13/pflag"

	"github.com/tessera-linux/installer/apply"
	"github.com/tessera-linux/installer/conf"
	"github.com/tessera-linux/installer/errors"
	"github.com/tessera-linux/installer/log"
	"github.com/tessera-linux/installer/manifest"
	"github.com/tessera-linux/installer/scanner"
	"github.com/tessera-linux/installer/timezone"
	"github.com/tessera-linux/installer/utils"
	"github.com/tessera-linux/installer/validate"
)

func fatal(err error) {
	log.ErrorError(err)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func main() {
	manifestFile := flag.StringP("manifest", "m", "", "path to the installer manifest")
	logFile := flag.StringP("log-file", "l", conf.LogFile, "path to the log file")
	logLevel := flag.IntP("log-level", "v", log.LevelInfo, "log level (1=error .. 5=verbose)")
	root := flag.StringP("root", "r", "", "override install root ("+conf.RootEnvVar+")")
	applyPlan := flag.Bool("apply", false, "print the apply plan after a successful validation")
	flag.Parse()

	f, err := log.SetOutputFilename(*logFile)
	if err != nil {
		fatal(err)
	}
	defer func() { _ = f.Close() }()
	log.SetLevel(*logLevel)

	if errString := utils.VerifyRootUser(); errString != "" {
		fatal(errors.New(errors.BadArgs, "%s", errString))
	}

	mf := *manifestFile
	if mf == "" {
		mf, err = conf.LookupDefaultManifest()
		if err != nil {
			fatal(err)
		}
	}

	absMf, err := filepath.Abs(mf)
	if err != nil {
		fatal(errors.WrapKind(errors.FileError, err))
	}

	lock, err := lockfile.New(absMf + ".lock")
	if err != nil {
		fatal(errors.WrapKind(errors.FileError, err))
	}
	if err := lock.TryLock(); err != nil {
		fatal(errors.New(errors.BadArgs, "another instance is already running: %v", err))
	}
	defer func() { _ = lock.Unlock() }()

	_ = conf.InstallRoot(*root)

	m, err := manifest.Load(mf)
	if err != nil {
		fatal(err)
	}

	log.Info("Scanning host block devices")
	snap, err := scanner.NewHostScan().Scan()
	if err != nil {
		fatal(err)
	}

	var timezones []*timezone.TimeZone
	if m.Timezone != "" {
		timezones, err = timezone.Load()
		if err != nil {
			fatal(err)
		}
	}

	if err := validate.Manifest(m, snap, timezones); err != nil {
		fatal(err)
	}

	log.Info("Manifest validated successfully")

	if !*applyPlan {
		return
	}

	plan := apply.BuildPlan(m)
	out, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		fatal(errors.Wrap(err))
	}
	fmt.Println(string(out))
}
