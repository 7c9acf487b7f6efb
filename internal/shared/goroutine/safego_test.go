package goroutine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

type recordingLogger struct {
	logged chan string
}

func (l *recordingLogger) Debug(msg string, args ...any)        {}
func (l *recordingLogger) Info(msg string, args ...any)         {}
func (l *recordingLogger) Warn(msg string, args ...any)         {}
func (l *recordingLogger) Error(msg string, args ...any)        {}
func (l *recordingLogger) With(args ...any) logger.Interface    { return l }
func (l *recordingLogger) Named(name string) logger.Interface   { return l }
func (l *recordingLogger) Debugw(msg string, kv ...interface{}) {}
func (l *recordingLogger) Infow(msg string, kv ...interface{})  {}
func (l *recordingLogger) Warnw(msg string, kv ...interface{})  {}
func (l *recordingLogger) Errorw(msg string, kv ...interface{}) { l.logged <- msg }

func TestSafeGo_RunsFunction(t *testing.T) {
	log := &recordingLogger{logged: make(chan string, 1)}
	done := make(chan struct{})

	SafeGo(log, "worker", func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("function never ran")
	}
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	log := &recordingLogger{logged: make(chan string, 1)}

	SafeGo(log, "exploder", func() { panic("kaboom") })

	select {
	case msg := <-log.logged:
		assert.Equal(t, "background goroutine panicked", msg)
	case <-time.After(time.Second):
		t.Fatal("panic was not recovered and logged")
	}
}
