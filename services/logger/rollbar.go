package logsvc

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/edubridge/backoffice/core"
)

// RollbarLogger reports to Rollbar and mirrors every entry on a standard logger as one line:
// LEVEL message key=value...
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

// Enable toggles reporting to Rollbar. The standard logger always prints.
func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

// Fatal flushes the pending Rollbar items before exiting.
func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}

// log expects args of type error, map[string]interface{} or core.Actor.
// The first Actor becomes the Rollbar person of the item only, no global state is touched.
func (l *RollbarLogger) log(level, msg string, args []interface{}) {
	items := make([]interface{}, 0, len(args)+2)
	items = append(items, msg)
	fields := make([]string, 0, len(args))
	var actor *core.Actor

	for _, arg := range args {
		switch v := arg.(type) {
		case core.Actor:
			if actor == nil {
				actor = &v
				fields = append(fields, "user="+v.UserID)
			}
		case error:
			items = append(items, v)
			fields = append(fields, fmt.Sprintf("error=%q", v.Error()))
		case map[string]interface{}:
			items = append(items, v)
			fields = append(fields, formatFields(v)...)
		default:
			items = append(items, v)
			fields = append(fields, fmt.Sprintf("%+v", v))
		}
	}
	if actor != nil {
		person := &rollbar.Person{Id: actor.UserID, Email: actor.Email}
		items = append(items, rollbar.NewPersonContext(context.Background(), person))
	}

	rollbar.Log(level, items...)
	l.std.Println(formatLine(level, msg, fields))
}

func formatLine(level, msg string, fields []string) string {
	line := strings.ToUpper(level) + " " + msg
	if len(fields) > 0 {
		line += " " + strings.Join(fields, " ")
	}
	return line
}

// formatFields renders m as key=value pairs sorted by key.
func formatFields(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return out
}
