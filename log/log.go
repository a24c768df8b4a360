// Package log provides the structured, leveled logger used throughout
// dna-messenger-sub018. It follows the go-ethereum convention of a
// Logger value carrying a fixed set of key/value context pairs, rather
// than a global package-level logger: callers hold their own Logger and
// pass it down explicitly (see the Context design note in DESIGN.md).
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-stack/stack"
)

// Level is the verbosity of a log record, ordered from most to least severe.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

// Record is one emitted log line.
type Record struct {
	Time  time.Time
	Lvl   Level
	Msg   string
	Ctx   []interface{}
	Call  stack.Call
}

// Handler processes a Record. Implementations must be safe for concurrent use.
type Handler interface {
	Log(r *Record) error
}

// Logger emits records carrying a fixed context prefix.
type Logger interface {
	New(ctx ...interface{}) Logger
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
}

type logger struct {
	ctx []interface{}
	h   *swapHandler
}

type swapHandler struct {
	mu sync.RWMutex
	h  Handler
}

func (s *swapHandler) Log(r *Record) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.h.Log(r)
}

func (s *swapHandler) Swap(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.h = h
}

// New creates a standalone Logger with the given handler and initial context.
// Unlike the teacher's global log.Root(), there is no process-wide default:
// every component that wants to log is handed one of these explicitly.
func New(h Handler, ctx ...interface{}) Logger {
	sh := &swapHandler{h: h}
	return &logger{ctx: normalize(ctx), h: sh}
}

// Discard returns a Logger whose records are dropped. Useful as a zero value
// for components constructed without an explicit logger in tests.
func Discard() Logger {
	return New(FuncHandler(func(*Record) error { return nil }))
}

func (l *logger) write(lvl Level, msg string, ctx []interface{}) {
	r := &Record{
		Time: time.Now(),
		Lvl:  lvl,
		Msg:  msg,
		Ctx:  append(append([]interface{}{}, l.ctx...), normalize(ctx)...),
		Call: stack.Caller(2),
	}
	_ = l.h.Log(r)
}

func (l *logger) New(ctx ...interface{}) Logger {
	child := &logger{ctx: append(append([]interface{}{}, l.ctx...), normalize(ctx)...), h: l.h}
	return child
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(LevelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LevelError, msg, ctx) }

func normalize(ctx []interface{}) []interface{} {
	if len(ctx)%2 != 0 {
		ctx = append(ctx, "MISSING_VALUE")
	}
	return ctx
}

// FuncHandler adapts a plain function to the Handler interface.
type FuncHandler func(r *Record) error

func (f FuncHandler) Log(r *Record) error { return f(r) }

// StreamHandler writes human-readable records to w, filtering anything more
// verbose than minLevel. Matches the teacher's log.StreamHandler shape.
func StreamHandler(w io.Writer, minLevel Level) Handler {
	var mu sync.Mutex
	return FuncHandler(func(r *Record) error {
		if r.Lvl > minLevel {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "%s [%s] %s", r.Time.Format("2006-01-02T15:04:05.000"), r.Lvl, r.Msg)
		for i := 0; i+1 < len(r.Ctx); i += 2 {
			fmt.Fprintf(w, " %v=%v", r.Ctx[i], r.Ctx[i+1])
		}
		fmt.Fprintln(w)
		return nil
	})
}

// NewTerminal is the common-case constructor: a Logger that writes to os.Stderr
// at LevelInfo, matching the default verbosity of the teacher's CLI tools.
func NewTerminal(ctx ...interface{}) Logger {
	return New(StreamHandler(os.Stderr, LevelInfo), ctx...)
}
