package log

import (
	"io"

	kitlog "github.com/go-kit/log"
	kitlevel "github.com/go-kit/log/level"
	"github.com/go-kit/log/term"
)

const (
	msgKey   = "_msg" // "_" prefixed to avoid collisions
	levelKey = "level"
)

type termLogger struct {
	srcLogger kitlog.Logger
}

// Interface assertions
var _ Logger = (*termLogger)(nil)

// NewTermLogger returns a logger that encodes msg and keyvals to the Writer
// in logfmt, colored by level when the Writer is a terminal. go-kit's log is
// the underlying logger and could be swapped with something else.
func NewTermLogger(w io.Writer) Logger {
	colorFn := func(keyvals ...interface{}) term.FgBgColor {
		if len(keyvals) < 2 || keyvals[0] != kitlevel.Key() {
			return term.FgBgColor{}
		}

		var levelStr string
		if stringer, ok := keyvals[1].(interface{ String() string }); ok {
			levelStr = stringer.String()
		} else if strVal, ok := keyvals[1].(string); ok {
			levelStr = strVal
		} else {
			return term.FgBgColor{}
		}

		switch levelStr {
		case "debug":
			return term.FgBgColor{Fg: term.DarkGray}
		case "error":
			return term.FgBgColor{Fg: term.Red}
		default:
			return term.FgBgColor{}
		}
	}

	return &termLogger{term.NewLogger(w, kitlog.NewLogfmtLogger, colorFn)}
}

// Debug logs a message at level Debug.
func (l *termLogger) Debug(msg string, keyvals ...interface{}) {
	lWithLevel := kitlevel.Debug(l.srcLogger)

	if err := kitlog.With(lWithLevel, msgKey, msg).Log(keyvals...); err != nil {
		errLogger := kitlevel.Error(l.srcLogger)
		kitlog.With(errLogger, msgKey, msg).Log("err", err) //nolint:errcheck // no need to check error again
	}
}

// Info logs a message at level Info.
func (l *termLogger) Info(msg string, keyvals ...interface{}) {
	lWithLevel := kitlevel.Info(l.srcLogger)

	if err := kitlog.With(lWithLevel, msgKey, msg).Log(keyvals...); err != nil {
		errLogger := kitlevel.Error(l.srcLogger)
		kitlog.With(errLogger, msgKey, msg).Log("err", err) //nolint:errcheck // no need to check error again
	}
}

// Error logs a message at level Error.
func (l *termLogger) Error(msg string, keyvals ...interface{}) {
	lWithLevel := kitlevel.Error(l.srcLogger)

	lWithMsg := kitlog.With(lWithLevel, msgKey, msg)
	if err := lWithMsg.Log(keyvals...); err != nil {
		lWithMsg.Log("err", err) //nolint:errcheck // no need to check error again
	}
}

// With returns a new contextual logger with keyvals prepended to those passed
// to calls to Debug, Info or Error.
func (l *termLogger) With(keyvals ...interface{}) Logger {
	return &termLogger{kitlog.With(l.srcLogger, keyvals...)}
}
