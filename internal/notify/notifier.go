package notify

//go:generate mockgen -source=notifier.go -destination=mocks/mock_notifier.go -package=mocks Notifier

import (
	"sync"
	"time"
)

// DefaultSuccessTimeout is how long a success message stays up when no timeout is given.
const DefaultSuccessTimeout = 2500 * time.Millisecond

// Dismiss removes a notification. Calling it more than once has no further effect.
type Dismiss func()

// Notifier presents user facing messages.
type Notifier interface {
	// Success shows a message that goes away on its own after timeout.
	// A zero timeout means DefaultSuccessTimeout.
	Success(message string, timeout time.Duration) Dismiss
	// Warning shows a message without a close affordance.
	Warning(message string) Dismiss
	// Error shows a message that stays until dismissed. When dismissible is
	// false the user gets no way to close it and only the returned handle can.
	Error(message string, dismissible bool) Dismiss
}

// Once wraps fn so that repeated calls run it at most once. A nil fn yields a no-op.
func Once(fn func()) Dismiss {
	if fn == nil {
		return func() {}
	}
	var once sync.Once
	return func() { once.Do(fn) }
}

// SavedSuccessfully is shown after an update was stored.
func SavedSuccessfully(n Notifier) Dismiss {
	return n.Success("Changes successfully saved!", 0)
}

// SavingSuccessful is shown after a new record was stored.
func SavingSuccessful(n Notifier) Dismiss {
	return n.Success("Saving successful!", 0)
}
