// Package logsvc implements core.Logger.
package logsvc

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

type ZeroLogger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*ZeroLogger)(nil)

// NewZeroLogger writes JSON lines to `w`, or colored lines if `pretty`.
// An unknown `level` falls back to info.
func NewZeroLogger(w io.Writer, level string, pretty bool) *ZeroLogger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	return &ZeroLogger{zl: zerolog.New(w).Level(lvl).With().Timestamp().Logger()}
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l *ZeroLogger) log(evt *zerolog.Event, msg string, args []interface{}) {
	if evt == nil { // level disabled
		return
	}
	for _, arg := range args {
		switch a := arg.(type) {
		case error:
			evt = evt.Err(a)
		case map[string]interface{}:
			evt = evt.Fields(a)
		case user.User:
			evt = evt.Str("user", a.Username)
		case *user.User:
			if a != nil {
				evt = evt.Str("user", a.Username)
			}
		default:
			evt = evt.Interface("extra", a)
		}
	}
	evt.Msg(msg)
}

func (l *ZeroLogger) Debug(msg string, args ...interface{}) { l.log(l.zl.Debug(), msg, args) }
func (l *ZeroLogger) Info(msg string, args ...interface{})  { l.log(l.zl.Info(), msg, args) }
func (l *ZeroLogger) Warn(msg string, args ...interface{})  { l.log(l.zl.Warn(), msg, args) }
func (l *ZeroLogger) Error(msg string, args ...interface{}) { l.log(l.zl.Error(), msg, args) }

// Fatal logs then exits.
func (l *ZeroLogger) Fatal(msg string, args ...interface{}) { l.log(l.zl.Fatal(), msg, args) }
