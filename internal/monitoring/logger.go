package monitoring

import (
	"io"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Logf is the package-level diagnostic logger. It defaults to the shared
// logrus logger at info level and may be replaced by SetLogger.
var Logf func(format string, v ...interface{}) = func(format string, v ...interface{}) {
	logger.Infof(format, v...)
}

// Warnf reports conditions the caller recovered from.
var Warnf func(format string, v ...interface{}) = func(format string, v ...interface{}) {
	logger.Warnf(format, v...)
}

// SetLogger replaces Logf and Warnf. Passing nil mutes both, which is what
// tests normally want.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		Warnf = func(string, ...interface{}) {}
		logger.SetOutput(io.Discard)
		return
	}
	Logf = f
	Warnf = f
}

// Logger returns the shared logrus logger.
func Logger() *logrus.Logger {
	return logger
}

// Component returns an entry tagged with the emitting component.
func Component(name string) *logrus.Entry {
	return logger.WithField("component", name)
}

// SetLevel parses and applies a logrus level name such as "debug".
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)
	return nil
}
