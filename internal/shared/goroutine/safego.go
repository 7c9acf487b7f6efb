// Package goroutine launches background work with panic recovery.
package goroutine

import (
	"runtime/debug"

	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// SafeGo runs fn on a new goroutine named for the log line. A panic in fn
// is logged with its stack instead of taking the process down.
func SafeGo(log logger.Interface, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("background goroutine panicked",
					"name", name,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}
