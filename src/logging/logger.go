// Package logging provides the process-wide leveled log helpers used by the
// dashboard binaries. Output goes through a zap core whose level can be changed
// at runtime with SetLogLevel.
package logging

import (
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var levelNames = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
}

var currentLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

var base atomic.Pointer[zap.SugaredLogger]

func init() {
	base.Store(zap.New(defaultCore()).Sugar())
}

func defaultCore() zapcore.Core {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05.000000")
	enc.EncodeCaller = nil
	return zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), zapcore.DebugLevel)
}

// SetLogLevel parses and sets the global log level. Unknown names are ignored.
func SetLogLevel(s string) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return
	}
	currentLevel.SetLevel(l)
}

// GetLogLevel returns the current global log level.
func GetLogLevel() zapcore.Level { return currentLevel.Level() }

// UseCore routes all helpers through core until the returned restore func is called.
func UseCore(core zapcore.Core) (restore func()) {
	prev := base.Swap(zap.New(core).Sugar())
	return func() { base.Store(prev) }
}

// Sync flushes buffered entries. Errors from syncing stderr are not interesting.
func Sync() { _ = base.Load().Sync() }

func logf(l zapcore.Level, format string, args ...interface{}) {
	if !currentLevel.Enabled(l) {
		return
	}
	s := base.Load()
	// No args means the message is already formatted; passing it through Sprintf would
	// mangle literal % characters.
	if len(args) == 0 {
		switch l {
		case zapcore.DebugLevel:
			s.Debug(format)
		case zapcore.WarnLevel:
			s.Warn(format)
		case zapcore.ErrorLevel:
			s.Error(format)
		default:
			s.Info(format)
		}
		return
	}
	switch l {
	case zapcore.DebugLevel:
		s.Debugf(format, args...)
	case zapcore.WarnLevel:
		s.Warnf(format, args...)
	case zapcore.ErrorLevel:
		s.Errorf(format, args...)
	default:
		s.Infof(format, args...)
	}
}

func Debugf(format string, a ...interface{}) { logf(zapcore.DebugLevel, format, a...) }
func Infof(format string, a ...interface{})  { logf(zapcore.InfoLevel, format, a...) }
func Warnf(format string, a ...interface{})  { logf(zapcore.WarnLevel, format, a...) }
func Errorf(format string, a ...interface{}) { logf(zapcore.ErrorLevel, format, a...) }

// TimeTrack logs how long a phase took at debug level.
func TimeTrack(start time.Time, label string) {
	Debugf("%s took %s", label, time.Since(start))
}
