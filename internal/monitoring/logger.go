// Package monitoring provides the package-level diagnostic logger used across
// the pipeline. It is backed by zap and defaults to a production logger.
package monitoring

import (
	"fmt"

	"go.uber.org/zap"
)

var sugar = mustProduction()

// Logf is the package-level diagnostic logger. It defaults to the zap
// production logger at info level but may be replaced by SetLogger.
var Logf func(format string, v ...interface{}) = func(format string, v ...interface{}) {
	sugar.Infof(format, v...)
}

func mustProduction() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// Init replaces the backing zap logger. debug selects the development
// config (console encoder, debug level).
func Init(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("can't initialize zap logger: %w", err)
	}
	Use(l)
	return nil
}

// Use installs l as the backing logger and points Logf at it.
func Use(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	sugar = l.Sugar()
	Logf = func(format string, v ...interface{}) {
		sugar.Infof(format, v...)
	}
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Debugf logs at debug level; it is silent unless Init(true) was called.
func Debugf(format string, v ...interface{}) {
	sugar.Debugf(format, v...)
}

// Infow logs a message with structured key/value context.
func Infow(msg string, keysAndValues ...interface{}) {
	sugar.Infow(msg, keysAndValues...)
}

// L returns the structured logger for key/value logging.
func L() *zap.SugaredLogger {
	return sugar
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = sugar.Sync()
}
