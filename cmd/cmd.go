// Copyright © 2018 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

package cmd

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/tessera-linux/installer/log"
)

// Run executes a command and uses writer to write both stdout and stderr.
// args are the actual command and its arguments.
func Run(writer io.Writer, args ...string) error {
	log.Debug("%s", strings.Join(args, " "))

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = writer
	cmd.Stderr = writer
	cmd.Stdin = os.Stdin

	return cmd.Run()
}
