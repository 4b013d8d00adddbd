// SPDX-License-Identifier: GPL-2.0-or-later

package conlog

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

// SetLogger replaces the logger used by Printf and DPrintf. A nil logger
// restores slog.Default().
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func current() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

func Printf(format string, v ...interface{}) {
	current().Info(fmt.Sprintf(format, v...))
}

// DPrintf only shows up with a debug level handler.
func DPrintf(format string, v ...interface{}) {
	l := current()
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	l.Debug(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	current().Warn(fmt.Sprintf(format, v...))
}
