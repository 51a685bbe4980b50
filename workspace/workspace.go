// Package workspace bundles the stores into task-oriented facades: each
// facade pairs one store with the notification queue and keeps local
// busy/error flags so a front end can bind to a single object per screen.
package workspace

import (
	"sync"

	"github.com/barale2906/carmot-go/notifications"
)

// activity tracks the busy flag and last error shared by every facade.
type activity struct {
	mu    sync.Mutex
	busy  bool
	error string
}

func (a *activity) begin() {
	a.mu.Lock()
	a.busy = true
	a.error = ""
	a.mu.Unlock()
}

func (a *activity) end(errMessage string) {
	a.mu.Lock()
	a.busy = false
	a.error = errMessage
	a.mu.Unlock()
}

// Busy reports whether an operation is in flight.
func (a *activity) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy
}

// LastError returns the message of the most recent failed operation, or "".
func (a *activity) LastError() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.error
}

// notifyError pushes err to the queue under defaultTitle and returns the
// resolved message for the facade's error flag.
func notifyError(queue *notifications.Store, err error, defaultTitle string) string {
	if queue != nil {
		queue.PushError(err, defaultTitle)
	}
	_, message := notifications.FromError(err, defaultTitle)
	return message
}
