// Package logging provides the leveled logger shared by the adapters.
package logging

import (
	"io"
	"log"
	"strings"
)

// Logger is the logging surface injected into sessions, storage and the
// server.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel parses a level name case-insensitively. Unknown names map to
// info.
func ParseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Leveled writes messages at or above its level through a standard logger.
type Leveled struct {
	level Level
	out   *log.Logger
}

// New returns a leveled logger writing to w with the standard flags.
func New(w io.Writer, level string) *Leveled {
	return &Leveled{
		level: ParseLevel(level),
		out:   log.New(w, "", log.LstdFlags),
	}
}

func (l *Leveled) Level() Level { return l.level }

func (l *Leveled) shouldLog(level Level) bool { return level >= l.level }

func (l *Leveled) Debugf(format string, v ...any) {
	if l.shouldLog(LevelDebug) {
		l.out.Printf("[DEBUG] "+format, v...)
	}
}

func (l *Leveled) Infof(format string, v ...any) {
	if l.shouldLog(LevelInfo) {
		l.out.Printf("[INFO] "+format, v...)
	}
}

func (l *Leveled) Warnf(format string, v ...any) {
	if l.shouldLog(LevelWarn) {
		l.out.Printf("[WARN] "+format, v...)
	}
}

func (l *Leveled) Errorf(format string, v ...any) {
	if l.shouldLog(LevelError) {
		l.out.Printf("[ERROR] "+format, v...)
	}
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) Debugf(format string, v ...any) {}
func (NoOp) Infof(format string, v ...any)  {}
func (NoOp) Warnf(format string, v ...any)  {}
func (NoOp) Errorf(format string, v ...any) {}

// Discard is a Logger that drops every message.
var Discard Logger = NoOp{}
