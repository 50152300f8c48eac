// Package goroutine guards background work against panics.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/quotagate/quotagate/internal/shared/logger"
)

// Guard wraps fn so that a panic is logged with its stack trace and returned
// as an error instead of crashing the process. The result fits errgroup.Go.
func Guard(log logger.Interface, name string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("goroutine panicked",
					"goroutine", name,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
				err = fmt.Errorf("goroutine %s panicked: %v", name, r)
			}
		}()
		return fn()
	}
}
