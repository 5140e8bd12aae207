// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

package apply

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/crypto/ssh/terminal"

	"github.com/tessera-linux/installer/log"
)

const (
	// MinPassphraseLength is the shortest passphrase this installer accepts.
	MinPassphraseLength = 8
	// MaxPassphraseLength is the longest passphrase this installer accepts.
	MaxPassphraseLength = 94
)

// IsValidPassphrase checks the minimum passphrase requirements for a
// LUKS volume.
func IsValidPassphrase(phrase string) (bool, string) {
	if phrase == "" {
		return false, "Passphrase is required"
	}
	if !isPrintable(phrase) {
		return false, "Passphrase may only contain 7-bit, printable characters"
	}
	if len(phrase) < MinPassphraseLength {
		return false, fmt.Sprintf("Passphrase must be at least %d characters long", MinPassphraseLength)
	}
	if len(phrase) > MaxPassphraseLength {
		return false, fmt.Sprintf("Passphrase may be at most %d characters long", MaxPassphraseLength)
	}
	return true, ""
}

func isPrintable(s string) bool {
	for _, c := range s {
		if c < 32 || c > 126 {
			return false
		}
	}
	return true
}

// GetPassPhrase prompts interactively for a LUKS passphrase, asking
// twice and looping until both entries match and pass
// IsValidPassphrase.
func GetPassPhrase() string {
	for {
		passphrase := askPassPhrase("Disk Encryption Passphrase")
		confirm := askPassPhrase("Confirm Passphrase")

		if passphrase != confirm {
			fmt.Print("Passphrases do not match!\n\n")
			continue
		}
		return passphrase
	}
}

func askPassPhrase(prompt string) string {
	initialState, termErr := terminal.GetState(int(syscall.Stdin))
	if termErr != nil {
		log.Warning("Unable to get terminal state for recovery: %v", termErr)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	go func() {
		<-sig
		if initialState != nil {
			_ = terminal.Restore(int(syscall.Stdin), initialState)
		}
		signal.Stop(sig)
	}()
	defer signal.Stop(sig)

	for {
		fmt.Print(prompt + ": ")
		raw, err := terminal.ReadPassword(int(syscall.Stdin))
		fmt.Print("\n")
		if err != nil {
			fmt.Printf("Error getting passphrase: %v\n", err)
			return ""
		}

		passphrase := strings.TrimSpace(string(raw))
		ok, msg := IsValidPassphrase(passphrase)
		if ok {
			return passphrase
		}
		fmt.Println(msg)
	}
}
