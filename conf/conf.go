// Copyright © 2018 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

// Package conf resolves the manifest file location and the
// installation root directory: source-tree path if running from a
// build directory, else the system default.
package conf

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// ManifestFile is the default manifest file name.
	ManifestFile = "installer.yaml"

	// LogFile is the installation log file name.
	LogFile = "installer.log"

	// DefaultConfigDir is the system-wide default configuration directory.
	DefaultConfigDir = "/usr/share/defaults/installer"

	// SourcePath is this module's import path, used to recognise a
	// source-tree checkout versus an installed binary.
	SourcePath = "src/github.com/tessera-linux/installer"

	// RootEnvVar is the environment variable used to override the
	// installation root without a CLI flag.
	RootEnvVar = "INSTALLER_ROOT"

	// DefaultRoot is the installation root used when RootEnvVar is unset.
	DefaultRoot = "/"
)

func isRunningFromSourceTree() (bool, string, error) {
	src, err := os.Executable()
	if err != nil {
		return false, src, err
	}
	src, err = filepath.Abs(filepath.Dir(src))
	if err != nil {
		return false, src, err
	}

	return !strings.HasPrefix(src, "/usr/bin"), src, nil
}

func lookupDefaultFile(file string) (string, error) {
	isSourceTree, sourcePath, err := isRunningFromSourceTree()
	if err != nil {
		return "", err
	}

	if isSourceTree {
		sourceRoot := strings.Replace(sourcePath, "bin", filepath.Join(SourcePath, "etc"), 1)
		return filepath.Join(sourceRoot, file), nil
	}

	return filepath.Join(DefaultConfigDir, file), nil
}

// LookupDefaultManifest returns the manifest path to use when neither a
// CLI flag nor RootEnvVar-adjacent override was given.
func LookupDefaultManifest() (string, error) {
	return lookupDefaultFile(ManifestFile)
}

// InstallRoot resolves the installation root: flagValue if non-empty,
// else RootEnvVar if set, else DefaultRoot.
func InstallRoot(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(RootEnvVar); v != "" {
		return v
	}
	return DefaultRoot
}
