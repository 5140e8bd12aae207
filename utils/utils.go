// Copyright © 2018 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

// Package utils holds small filesystem and process helpers shared by
// the scanner, apply and CLI packages.
package utils

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/user"
	"path"
	"path/filepath"
	"strings"

	"github.com/tessera-linux/installer/errors"
)

// MkdirAll is like os.MkdirAll but takes no action if path already
// exists.
func MkdirAll(path string, perm os.FileMode) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.MkdirAll(path, perm); err != nil {
		return errors.WrapKind(errors.FileError, err)
	}

	return nil
}

// CopyFile copies src to dest, preserving src's mode bits.
func CopyFile(src string, dest string) error {
	destDir := filepath.Dir(dest)

	srcInfo, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.FileError, "no such file: %s", src)
		}
		return errors.WrapKind(errors.FileError, err)
	}

	if _, err = os.Stat(destDir); err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.FileError, "no such dest directory: %s", destDir)
		}
		return errors.WrapKind(errors.FileError, err)
	}

	data, err := ioutil.ReadFile(src)
	if err != nil {
		return errors.WrapKind(errors.FileError, err)
	}

	if err = ioutil.WriteFile(dest, data, srcInfo.Mode()&os.ModePerm); err != nil {
		return errors.WrapKind(errors.FileError, err)
	}

	return nil
}

// FileExists returns true if the file or directory exists.
func FileExists(filePath string) (bool, error) {
	_, err := os.Stat(filePath)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return true, err
}

// VerifyRootUser returns a non-empty message if the current process is
// not running as root.
func VerifyRootUser() string {
	progName := path.Base(os.Args[0])

	u, err := user.Current()
	if err != nil {
		return fmt.Sprintf("%s MUST run as 'root' user (user=%s)", progName, "UNKNOWN")
	}

	if u.Uid != "0" {
		return fmt.Sprintf("%s MUST run as 'root' user (user=%s)", progName, u.Uid)
	}

	return ""
}

// StringSliceContains returns true if sl contains str.
func StringSliceContains(sl []string, str string) bool {
	for _, curr := range sl {
		if curr == str {
			return true
		}
	}
	return false
}

// ExpandVariables replaces all occurrences of ${var} or $var in str
// using the vars map.
func ExpandVariables(vars map[string]string, str string) string {
	out := str
	for k, v := range vars {
		for _, rep := range []string{fmt.Sprintf("$%s", k), fmt.Sprintf("${%s}", k)} {
			if strings.Contains(out, rep) {
				out = strings.Replace(out, rep, v, -1)
			}
		}
	}
	return out
}
