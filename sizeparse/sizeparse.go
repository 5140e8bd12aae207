// Copyright © 2020 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

// Package sizeparse parses the human-readable byte sizes used in the
// manifest's disk and LVM size fields, plus the "N%FREE" sentinel
// meaning "remainder of the enclosing volume group".
package sizeparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tessera-linux/installer/errors"
)

var (
	sizeExp = regexp.MustCompile(`^([0-9]*(\.)?[0-9]*)\s*([a-z]{1,3})?$`)
	freeExp = regexp.MustCompile(`^([0-9]*(\.)?[0-9]*)\s*%\s*free$`)
)

// Size is a parsed size field: either a concrete byte count, or a
// percent-of-free sentinel to be resolved once the enclosing VG's free
// space is known.
type Size struct {
	Bytes    uint64
	IsFree   bool
	Percent  float64
}

// Parse parses str as either a concrete human byte size ("500M", "8GiB")
// or a "N%FREE" sentinel. Whitespace is trimmed, matching is
// case-insensitive. Malformed input is a BadManifest error.
func Parse(str string) (Size, error) {
	trimmed := strings.TrimSpace(strings.ToLower(str))
	if trimmed == "" {
		return Size{}, errors.New(errors.BadManifest, "empty size string")
	}

	if m := freeExp.FindStringSubmatch(trimmed); m != nil {
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Size{}, errors.New(errors.BadManifest, "invalid size %q: %v", str, err)
		}
		if pct < 0 || pct > 100 {
			return Size{}, errors.New(errors.BadManifest, "invalid size %q: percent out of range", str)
		}
		return Size{IsFree: true, Percent: pct}, nil
	}

	b, err := ParseBytes(trimmed)
	if err != nil {
		return Size{}, err
	}
	return Size{Bytes: b}, nil
}

// ParseBytes parses a concrete human byte size into bytes. Every unit
// is a power of two: the bare letter, the "b" suffix and the "ib"
// (IEC) suffix give the same multiplier, so "8g", "8gb" and "8gib" are
// all accepted spellings of the same value.
func ParseBytes(str string) (uint64, error) {
	str = strings.TrimSpace(strings.ToLower(str))

	m := sizeExp.FindStringSubmatch(str)
	if m == nil {
		return 0, errors.New(errors.BadManifest, "invalid size %q", str)
	}

	numPart := m[1]
	unit := m[3]

	if numPart == "" {
		return 0, errors.New(errors.BadManifest, "invalid size %q: missing number", str)
	}

	fsize, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, errors.New(errors.BadManifest, "invalid size %q: %v", str, err)
	}

	switch unit {
	case "", "b":
		// no-op: already in bytes
	case "k", "kb":
		fsize *= 1 << 10
	case "m", "mb":
		fsize *= 1 << 20
	case "g", "gb":
		fsize *= 1 << 30
	case "t", "tb":
		fsize *= 1 << 40
	case "p", "pb":
		fsize *= 1 << 50
	case "e", "eb":
		fsize *= math.Exp2(60)
	case "kib":
		fsize *= math.Exp2(10)
	case "mib":
		fsize *= math.Exp2(20)
	case "gib":
		fsize *= math.Exp2(30)
	case "tib":
		fsize *= math.Exp2(40)
	case "pib":
		fsize *= math.Exp2(50)
	case "eib":
		fsize *= math.Exp2(60)
	default:
		return 0, errors.New(errors.BadManifest, "invalid size %q: unknown unit %q", str, unit)
	}

	if fsize < 0 {
		return 0, errors.New(errors.BadManifest, "invalid size %q: negative", str)
	}

	return uint64(math.Round(fsize)), nil
}

// ResolveFree computes the concrete byte count of a Size that is a
// percent-of-free sentinel, given the free space available.
func (s Size) ResolveFree(freeBytes uint64) uint64 {
	if !s.IsFree {
		return s.Bytes
	}
	return uint64(math.Round(float64(freeBytes) * s.Percent / 100.0))
}
