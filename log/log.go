// Copyright © 2018 Intel Corporation
//
// SPDX-License-Identifier: GPL-3.0-only

// Package log provides the leveled logger used across the scanner,
// validator and apply stages: level filtering, a tag prefix per line,
// and repeat-suppression for noisy callers.
package log

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/tessera-linux/installer/errors"
)

const (
	// LevelError specifies the log level as: ERROR
	LevelError = 1

	// LevelWarning specifies the log level as: WARNING
	LevelWarning = 2

	// LevelInfo specifies the log level as: INFO
	LevelInfo = 3

	// LevelDebug specifies the log level as: DEBUG
	LevelDebug = 4

	// LevelVerbose is the same as Debug, but without repeat filtering.
	LevelVerbose = 5
)

var (
	level    = LevelInfo
	levelMap = map[int]string{
		LevelError:   "LevelError",
		LevelWarning: "LevelWarning",
		LevelInfo:    "LevelInfo",
		LevelDebug:   "LevelDebug",
		LevelVerbose: "LevelVerbose",
	}
	filehandle *os.File

	logFileName string

	lineLast  string
	lineCount int
)

// SetLevel sets the default log level to l, clamping to the valid range.
func SetLevel(l int) {
	if l < LevelError {
		level = LevelError
		logTag("WRN", "Log Level '%d' too low, forcing to %s (%d)", l, levelMap[level], level)
	} else if l > LevelVerbose {
		level = LevelVerbose
		logTag("WRN", "Log Level '%d' too high, forcing to %s (%d)", l, levelMap[level], level)
	} else {
		level = l
		Debug("Log Level set to %s (%d)", levelMap[level], l)
	}
}

// SetOutputFilename redirects log output to filename instead of stderr.
func SetOutputFilename(logFile string) (*os.File, error) {
	logFileName = logFile
	var err error
	filehandle, err = os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	log.SetOutput(filehandle)

	return filehandle, nil
}

// ArchiveLogFile copies the contents of the log to the given filename.
func ArchiveLogFile(archiveFile string) error {
	if filehandle == nil {
		return errors.Errorf("log output should be set, see log.SetOutputFilename()")
	}

	a, err := os.OpenFile(archiveFile, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return err
	}

	defer func() {
		_ = a.Close()
		_, _ = filehandle.Seek(0, 2)
	}()

	_ = filehandle.Sync()

	if _, err = filehandle.Seek(0, 0); err != nil {
		Error("failed to seek log file (%v)", err)
	}

	bytesCopied, err := io.Copy(a, filehandle)
	if err != nil {
		Error("failed to archive log file (%v) %q", err, archiveFile)
	}
	Debug("archived %d bytes to file %q", bytesCopied, archiveFile)
	_ = a.Sync()

	return err
}

// LevelStr converts level to its text equivalent, returning an error if
// level is out of range.
func LevelStr(level int) (string, error) {
	if s, ok := levelMap[level]; ok {
		return s, nil
	}
	return "", fmt.Errorf("invalid log level: %d", level)
}

func logTag(tag string, format string, a ...interface{}) {
	f := fmt.Sprintf("[%s] %s\n", tag, format)
	output := fmt.Sprintf(f, a...)

	if level >= LevelVerbose {
		log.Print(output)
		return
	}

	if output != lineLast {
		if lineCount > 0 {
			plural := ""
			if lineCount > 1 {
				plural = "s"
			}
			log.Printf("[%s] [Previous line repeated %d time%s]\n", tag, lineCount, plural)
		}

		log.Print(output)

		lineLast = output
		lineCount = 0
	} else {
		lineCount++
	}
}

// Debug prints a debug log entry with the DBG tag.
func Debug(format string, a ...interface{}) {
	if level < LevelDebug {
		return
	}
	logTag("DBG", format, a...)
}

// Error prints an error log entry with the ERR tag.
func Error(format string, a ...interface{}) {
	logTag("ERR", format, a...)
}

// ErrorError prints an error log entry with the ERR tag; if err carries
// a captured stack trace it is included.
func ErrorError(err error) {
	msg := err.Error()

	if e, ok := err.(*errors.Error); ok {
		msg = fmt.Sprintf("%s %s", e.Trace, e.What)
	}

	logTag("ERR", "%s", msg)
}

// Info prints an info log entry with the INF tag.
func Info(format string, a ...interface{}) {
	if level < LevelInfo {
		return
	}
	logTag("INF", format, a...)
}

// Warning prints a warning log entry with the WRN tag.
func Warning(format string, a ...interface{}) {
	if level < LevelWarning {
		return
	}
	logTag("WRN", format, a...)
}
