// Package logger provides leveled loggers for the SDK and the servers.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

// Logger is what SDK components log with.
//
// *log.Logger of gommon and echo.Logger satisfy this.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

const header = `${time_rfc3339} ${level} ${prefix}`

// New creates a logger writing into w at the level.
func New(prefix string, w io.Writer, level string) *log.Logger {
	l := log.New(prefix)
	l.SetOutput(w)
	l.SetHeader(header)
	SetLevel(l, level)
	return l
}

// Default logger writes warnings and errors into stderr.
//
// Level can be changed by DIGITALHUB_LOG_LEVEL.
func Default() *log.Logger {
	return New("digitalhub", os.Stderr, os.Getenv("DIGITALHUB_LOG_LEVEL"))
}

// Null logger discards everything.
func Null() *log.Logger {
	return New("", io.Discard, "off")
}

type leveled interface {
	SetLevel(log.Lvl)
	Warnf(format string, args ...interface{})
}

// SetLevel sets level by name: debug|info|warn|error|off. Empty is warn.
func SetLevel(l leveled, level string) {
	switch strings.ToLower(level) {
	case "debug":
		l.SetLevel(log.DEBUG)
	case "info":
		l.SetLevel(log.INFO)
	case "warn", "":
		l.SetLevel(log.WARN)
	case "error":
		l.SetLevel(log.ERROR)
	case "off":
		l.SetLevel(log.OFF)
	default:
		l.SetLevel(log.WARN)
		l.Warnf("unknown loglevel: %s . fall-backed to warn", level)
	}
}
