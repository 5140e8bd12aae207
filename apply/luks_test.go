// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

package apply

import "testing"

func TestIsValidPassphrase(t *testing.T) {
	cases := []struct {
		phrase string
		want   bool
	}{
		{"", false},
		{"short", false},
		{"this-is-a-fine-passphrase", true},
		{string(make([]byte, MaxPassphraseLength+1)), false},
	}

	for _, c := range cases {
		ok, _ := IsValidPassphrase(c.phrase)
		if ok != c.want {
			t.Errorf("IsValidPassphrase(%q) = %v, want %v", c.phrase, ok, c.want)
		}
	}
}
