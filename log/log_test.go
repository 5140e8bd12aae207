// Copyright © 2019 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

package log

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tessera-linux/installer/errors"
	"github.com/tessera-linux/installer/utils"
)

func setLog(t *testing.T) *os.File {
	var handle *os.File

	tmpfile, err := ioutil.TempFile("", "writeLog")
	if err != nil {
		t.Fatalf("could not make tempfile: %v", err)
	}
	_ = tmpfile.Close()

	if handle, err = SetOutputFilename(tmpfile.Name()); err != nil {
		t.Fatal("could not set log file")
	}

	return handle
}

func readLog(t *testing.T) *bytes.Buffer {
	tmpfile, err := ioutil.TempFile("", "readLog")
	if err != nil {
		t.Fatalf("could not make tempfile: %v", err)
	}
	_ = tmpfile.Close()
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	_ = ArchiveLogFile(tmpfile.Name())

	contents, err := ioutil.ReadFile(tmpfile.Name())
	if err != nil {
		t.Fatalf("could not read tempfile: %v %q", err, tmpfile.Name())
	}
	return bytes.NewBuffer(contents)
}

func TestTag(t *testing.T) {
	tests := []struct {
		msg string
		tag string
		fc  func(fmt string, args ...interface{})
	}{
		{"debug tag test", "[DBG]", Debug},
		{"info tag test", "[INF]", Info},
		{"warning tag test", "[WRN]", Warning},
		{"error tag test", "[ERR]", Error},
	}

	fh := setLog(t)
	defer func() {
		_ = fh.Close()
		_ = os.Remove(fh.Name())
	}()

	SetLevel(LevelDebug)

	for _, curr := range tests {
		curr.fc(curr.msg)

		str := readLog(t).String()
		if str == "" {
			t.Fatal("no log written to output")
		}

		if !strings.Contains(str, curr.tag) {
			t.Fatalf("log generated an entry without the expected tag: %s - entry: %s", curr.tag, str)
		}
	}
}

func TestRepeat(t *testing.T) {
	fh := setLog(t)
	defer func() {
		_ = fh.Close()
		_ = os.Remove(fh.Name())
	}()

	SetLevel(LevelDebug)

	msg := "this is a log message"
	Debug(msg)
	Debug(msg)
	Debug(msg)
	Debug(msg)
	Debug("different")

	str := readLog(t).String()
	if str == "" {
		t.Fatal("no log written to output")
	}

	if !strings.Contains(str, "repeated") {
		t.Fatalf("log generated entries without the expected repeated message")
	}
}

func TestErrorError(t *testing.T) {
	fh := setLog(t)
	defer func() {
		_ = fh.Close()
		_ = os.Remove(fh.Name())
	}()

	ErrorError(fmt.Errorf("testing log with error"))

	if readLog(t).String() == "" {
		t.Fatal("no log written to output")
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		mutedLevel int
		msg        string
		fc         func(fmt string, args ...interface{})
	}{
		{LevelInfo, "Debug() log with LevelInfo", Debug},
		{LevelWarning, "Info() with LevelWarning", Info},
		{LevelError, "Warning() with LevelError", Warning},
	}

	fh := setLog(t)
	defer func() {
		_ = fh.Close()
		_ = os.Remove(fh.Name())
	}()

	for _, curr := range tests {
		SetLevel(curr.mutedLevel)
		curr.fc(curr.msg)

		if readLog(t).String() != "" {
			t.Fatalf("shouldn't produce any log with level: %d", curr.mutedLevel)
		}
	}
}

func TestLogLevelStr(t *testing.T) {
	tests := []struct {
		level int
		str   string
	}{
		{LevelVerbose, "LevelVerbose"},
		{LevelDebug, "LevelDebug"},
		{LevelInfo, "LevelInfo"},
		{LevelWarning, "LevelWarning"},
		{LevelError, "LevelError"},
	}

	for _, curr := range tests {
		str, err := LevelStr(curr.level)
		if err != nil {
			t.Fatal(err)
		}

		if str != curr.str {
			t.Fatalf("expected string %s, but got: %s", curr.str, str)
		}
	}
}

func TestInvalidLogLevelStr(t *testing.T) {
	_, err := LevelStr(-1)
	if err == nil {
		t.Fatal("should have failed to format an invalid log level")
	}
}

func TestInvalidLogLevel(t *testing.T) {
	SetLevel(-1)
	SetLevel(999)
}

func TestLogTraceableError(t *testing.T) {
	fh := setLog(t)
	defer func() {
		_ = fh.Close()
		_ = os.Remove(fh.Name())
	}()

	ErrorError(errors.Errorf("traceable error"))

	if !strings.Contains(readLog(t).String(), "log_test.go") {
		t.Fatal("traceable error should contain the source name")
	}
}

func TestFailSeek(t *testing.T) {
	if err := ArchiveLogFile("archivefile"); err == nil {
		t.Fatal("should have failed, unseekable file")
	}
}

func TestNoFileHandle(t *testing.T) {
	prevHandle := filehandle
	filehandle = nil
	if err := ArchiveLogFile("archivefile"); err == nil {
		t.Fatal("should have failed, no output set")
	}
	filehandle = prevHandle
}

func TestFailedToArchiveUnwritableFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "installer-utest")
	if err != nil {
		t.Fatal(err)
	}

	rootDir := filepath.Join(dir, "root")
	if err = utils.MkdirAll(rootDir, 0755); err != nil {
		t.Fatal(err)
	}

	if err = os.Chmod(rootDir, 0000); err != nil {
		t.Fatal(err)
	}

	defer func() {
		if err := os.Chmod(rootDir, 0700); err != nil {
			t.Fatal(err)
		}
		_ = os.RemoveAll(dir)
	}()

	if err = ArchiveLogFile(filepath.Join(rootDir, "test.log")); err == nil {
		t.Fatal("should have failed, no permission to archive file")
	}
}
