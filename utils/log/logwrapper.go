/*
 * Copyright 2019 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package log wraps logrus with caller tracking and per package filtering.
package log

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

const modulePrefix = "github.com/CovenantSQL/sequent/"

const (
	// PanicLevel logs and then panics.
	PanicLevel logrus.Level = iota
	// FatalLevel logs and then calls `os.Exit(1)`.
	FatalLevel
	// ErrorLevel is for errors that should definitely be noted.
	ErrorLevel
	// WarnLevel is for non-critical entries that deserve eyes.
	WarnLevel
	// InfoLevel is for general operational entries.
	InfoLevel
	// DebugLevel is very verbose, usually only enabled when debugging.
	DebugLevel
)

var (
	// PkgDebugLogFilter drops entries of a package which are more verbose
	// than the mapped level.
	PkgDebugLogFilter = map[string]logrus.Level{
		"metric": InfoLevel,
	}
	// SimpleLog disables caller tracking, "Y" for true, set by `go build`.
	SimpleLog = "N"
)

// Fields defines the field map to pass to `WithFields`.
type Fields logrus.Fields

// Level is the logging severity.
type Level = logrus.Level

// Entry wraps logrus entry.
type Entry logrus.Entry

// NilFormatter discards the log entry.
type NilFormatter struct{}

// Format implements logrus.Formatter.
func (f *NilFormatter) Format(*logrus.Entry) ([]byte, error) {
	return nil, nil
}

// CallerHook adds the caller of error entries, and a stack for StackLevels.
type CallerHook struct {
	StackLevels []logrus.Level
}

// StandardCallerHook returns the hook installed by default.
func StandardCallerHook() *CallerHook {
	if SimpleLog == "Y" {
		return &CallerHook{}
	}
	return &CallerHook{
		StackLevels: []logrus.Level{PanicLevel, FatalLevel},
	}
}

// Levels implements logrus.Hook.
func (hook *CallerHook) Levels() []logrus.Level {
	if SimpleLog == "Y" {
		return nil
	}
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (hook *CallerHook) Fire(entry *logrus.Entry) error {
	frames := callerFrames()
	if len(frames) == 0 {
		return nil
	}
	fn := strings.TrimPrefix(frames[0].Function, modulePrefix)
	if level, ok := PkgDebugLogFilter[strings.SplitN(fn, ".", 2)[0]]; ok && entry.Level > level {
		discard := logrus.New()
		discard.Formatter = &NilFormatter{}
		discard.Out = io.Discard
		entry.Logger = discard
		return nil
	}
	if entry.Level > ErrorLevel {
		return nil
	}
	entry.Data["caller"] = fmt.Sprintf("%s:%d %s", filepath.Base(frames[0].File), frames[0].Line, fn)
	for _, level := range hook.StackLevels {
		if entry.Level == level {
			stack := make([]string, 0, len(frames))
			for i, f := range frames {
				stack = append(stack, fmt.Sprintf("#%d %s@%s:%d",
					i, strings.TrimPrefix(f.Function, modulePrefix), filepath.Base(f.File), f.Line))
			}
			entry.Data["stack"] = stack
			break
		}
	}
	return nil
}

// callerFrames returns the stack above the logging calls.
func callerFrames() (frames []runtime.Frame) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	it := runtime.CallersFrames(pcs[:n])
	for {
		f, more := it.Next()
		if len(frames) > 0 || !isLoggingFrame(f) {
			frames = append(frames, f)
		}
		if !more {
			break
		}
	}
	return
}

func isLoggingFrame(f runtime.Frame) bool {
	return strings.Contains(f.Function, "sirupsen/logrus") ||
		strings.HasSuffix(f.File, "utils/log/logwrapper.go")
}

func init() {
	AddHook(StandardCallerHook())
}

// SetOutput sets the standard logger output.
func SetOutput(out io.Writer) {
	logrus.SetOutput(out)
}

// SetFormatter sets the standard logger formatter.
func SetFormatter(formatter logrus.Formatter) {
	logrus.SetFormatter(formatter)
}

// SetLevel sets the standard logger level.
func SetLevel(level logrus.Level) {
	logrus.SetLevel(level)
}

// GetLevel returns the standard logger level.
func GetLevel() logrus.Level {
	return logrus.GetLevel()
}

// ParseLevel parses a level name.
func ParseLevel(lvl string) (logrus.Level, error) {
	return logrus.ParseLevel(lvl)
}

// SetStringLevel sets the level by name, falling back to defaultLevel.
func SetStringLevel(lvl string, defaultLevel logrus.Level) {
	if level, err := ParseLevel(lvl); err != nil {
		SetLevel(defaultLevel)
	} else {
		SetLevel(level)
	}
}

// AddHook adds a hook to the standard logger.
func AddHook(hook logrus.Hook) {
	logrus.AddHook(hook)
}

// StandardLogger returns the underlying logrus logger, for libraries
// expecting a Printf style logger.
func StandardLogger() *logrus.Logger {
	return logrus.StandardLogger()
}

// WithError creates an entry with err under the error key.
func WithError(err error) *Entry {
	return (*Entry)(logrus.WithError(err))
}

// WithField creates an entry with a single field.
func WithField(key string, value interface{}) *Entry {
	return (*Entry)(logrus.WithField(key, value))
}

// WithFields creates an entry with multiple fields.
func WithFields(fields Fields) *Entry {
	return (*Entry)(logrus.WithFields(logrus.Fields(fields)))
}

// Debug logs at level Debug.
func Debug(args ...interface{}) { logrus.Debug(args...) }

// Info logs at level Info.
func Info(args ...interface{}) { logrus.Info(args...) }

// Warning logs at level Warn.
func Warning(args ...interface{}) { logrus.Warning(args...) }

// Error logs at level Error.
func Error(args ...interface{}) { logrus.Error(args...) }

// Fatal logs at level Fatal and exits.
func Fatal(args ...interface{}) { logrus.Fatal(args...) }

// Debugf logs at level Debug.
func Debugf(format string, args ...interface{}) { logrus.Debugf(format, args...) }

// Infof logs at level Info.
func Infof(format string, args ...interface{}) { logrus.Infof(format, args...) }

// Warningf logs at level Warn.
func Warningf(format string, args ...interface{}) { logrus.Warningf(format, args...) }

// Errorf logs at level Error.
func Errorf(format string, args ...interface{}) { logrus.Errorf(format, args...) }

// Fatalf logs at level Fatal and exits.
func Fatalf(format string, args ...interface{}) { logrus.Fatalf(format, args...) }

func (entry *Entry) raw() *logrus.Entry { return (*logrus.Entry)(entry) }

// WithError adds err to the entry.
func (entry *Entry) WithError(err error) *Entry {
	return (*Entry)(entry.raw().WithError(err))
}

// WithField adds a field to the entry.
func (entry *Entry) WithField(key string, value interface{}) *Entry {
	return (*Entry)(entry.raw().WithField(key, value))
}

// WithFields adds fields to the entry.
func (entry *Entry) WithFields(fields Fields) *Entry {
	return (*Entry)(entry.raw().WithFields(logrus.Fields(fields)))
}

// Debug logs the entry at level Debug.
func (entry *Entry) Debug(args ...interface{}) { entry.raw().Debug(args...) }

// Info logs the entry at level Info.
func (entry *Entry) Info(args ...interface{}) { entry.raw().Info(args...) }

// Warning logs the entry at level Warn.
func (entry *Entry) Warning(args ...interface{}) { entry.raw().Warning(args...) }

// Error logs the entry at level Error.
func (entry *Entry) Error(args ...interface{}) { entry.raw().Error(args...) }

// Fatal logs the entry at level Fatal and exits.
func (entry *Entry) Fatal(args ...interface{}) { entry.raw().Fatal(args...) }

// Debugf logs the entry at level Debug.
func (entry *Entry) Debugf(format string, args ...interface{}) { entry.raw().Debugf(format, args...) }

// Infof logs the entry at level Info.
func (entry *Entry) Infof(format string, args ...interface{}) { entry.raw().Infof(format, args...) }

// Warningf logs the entry at level Warn.
func (entry *Entry) Warningf(format string, args ...interface{}) { entry.raw().Warningf(format, args...) }

// Errorf logs the entry at level Error.
func (entry *Entry) Errorf(format string, args ...interface{}) { entry.raw().Errorf(format, args...) }

// Fatalf logs at fatal level with entry fields, then exits.
func (entry *Entry) Fatalf(format string, args ...interface{}) { entry.raw().Fatalf(format, args...) }
