// Copyright © 2018 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

// Package errors provides the typed error taxonomy shared by the
// manifest loader, scanner, validator and apply packages, built on a
// stack-trace-capturing error type so a Kind can drive programmatic
// dispatch while the trace stays available for diagnostics.
package errors

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Kind classifies an Error by the situation that produced it. Callers
// that need to react differently to different failures should switch
// on Kind rather than pattern-match Error strings.
type Kind int

const (
	// Internal marks an error whose Kind was not otherwise classified.
	Internal Kind = iota
	// BadManifest means the manifest failed a structural or semantic check
	// (e.g. duplicate names, a VG with no matching PVs, a bad size string).
	BadManifest
	// NoSuchDevice means validation needed a device that the scanner
	// snapshot and the manifest-derived store both fail to provide.
	NoSuchDevice
	// InternalBug marks a state the validator believes cannot occur
	// given its own invariants; seeing it means the algorithm has a bug.
	InternalBug
	// NotImplemented marks a surface the core intentionally stubs out,
	// such as the destructive leaves of the apply stage.
	NotImplemented
	// BadArgs means a caller (typically the CLI) passed invalid arguments.
	BadArgs
	// FileError wraps a failure touching the filesystem (open, stat, write).
	FileError
	// CmdFailed wraps a failure running an external command.
	CmdFailed
)

func (k Kind) String() string {
	switch k {
	case BadManifest:
		return "BadManifest"
	case NoSuchDevice:
		return "NoSuchDevice"
	case InternalBug:
		return "InternalBug"
	case NotImplemented:
		return "NotImplemented"
	case BadArgs:
		return "BadArgs"
	case FileError:
		return "FileError"
	case CmdFailed:
		return "CmdFailed"
	default:
		return "Internal"
	}
}

// Error is the single error type returned by this module's packages. It
// carries a Kind for programmatic dispatch and a captured stack trace
// for diagnostics.
type Error struct {
	Kind  Kind
	Trace string
	When  time.Time
	What  string
	cause error
}

func (e *Error) Error() string {
	return e.What
}

// Unwrap lets errors.Is/errors.As from the standard library see through
// to the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

func getTraceIdx(idx int) (string, string, int) {
	pc := make([]uintptr, 10)
	runtime.Callers(2, pc)
	f := runtime.FuncForPC(pc[idx+1])
	file, line := f.FileLine(pc[idx+1])
	return f.Name(), file, line
}

func formatTraceIdx(idx int) (string, string) {
	funcName, file, line := getTraceIdx(idx)
	fileName := filepath.Base(file)

	fn := strings.Split(funcName, "github.com/tessera-linux/installer/")
	if len(fn) > 1 {
		funcName = fn[1]
	} else {
		funcName = fn[0]
	}

	dir := strings.Split(filepath.Dir(file), "/installer/")
	var dirName string
	if len(dir) > 1 {
		dirName = dir[1]
	} else {
		dirName = dir[0]
	}

	return funcName, fmt.Sprintf("%s/%s:%d", dirName, fileName, line)
}

func getTrace() string {
	cfName, cTrace := formatTraceIdx(3)
	caller := fmt.Sprintf("%s()\n     %s\n", cfName, cTrace)

	rfName, rTrace := formatTraceIdx(2)
	raiser := fmt.Sprintf("%s()\n     %s\n", rfName, rTrace)

	return fmt.Sprintf("\n\nError Trace:\n%s%s", raiser, caller)
}

func newf(kind Kind, cause error, format string, a ...interface{}) *Error {
	return &Error{
		Kind:  kind,
		Trace: getTrace(),
		When:  time.Now(),
		What:  fmt.Sprintf(format, a...),
		cause: cause,
	}
}

// Errorf returns an Internal-kind error with a captured stack trace.
func Errorf(format string, a ...interface{}) error {
	return newf(Internal, nil, format, a...)
}

// Wrap returns an Internal-kind error wrapping err, with the caller's
// stack trace attached.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return newf(Internal, err, "%s", err.Error())
}

// New builds an error of the given Kind.
func New(kind Kind, format string, a ...interface{}) error {
	return newf(kind, nil, format, a...)
}

// Newf is an alias of New kept for readability at call sites that
// already read as "errors.Newf(errors.BadManifest, ...)".
func Newf(kind Kind, format string, a ...interface{}) error {
	return newf(kind, nil, format, a...)
}

// WrapKind wraps err as the given Kind, capturing a fresh stack trace.
func WrapKind(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return newf(kind, err, "%s", err.Error())
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and
// false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if as(err, &e) {
		return e.Kind, true
	}
	return Internal, false
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// as is a tiny local errors.As to avoid importing the stdlib package
// under the same name as this one inside this file.
func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
