package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the severity of a recorded notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Record is one notification captured by a Recorder.
type Record struct {
	ID          string
	Kind        Kind
	Message     string
	Timeout     time.Duration
	Dismissible bool
	Dismissals  int
}

// Recorder is an in-memory Notifier. It keeps every notification and how
// often its handle was invoked, which makes it useful for headless runs and tests.
type Recorder struct {
	mu      sync.Mutex
	records []*Record
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Success(message string, timeout time.Duration) Dismiss {
	if timeout == 0 {
		timeout = DefaultSuccessTimeout
	}
	return r.add(&Record{Kind: KindSuccess, Message: message, Timeout: timeout, Dismissible: true})
}

func (r *Recorder) Warning(message string) Dismiss {
	return r.add(&Record{Kind: KindWarning, Message: message})
}

func (r *Recorder) Error(message string, dismissible bool) Dismiss {
	return r.add(&Record{Kind: KindError, Message: message, Dismissible: dismissible})
}

func (r *Recorder) add(rec *Record) Dismiss {
	rec.ID = uuid.NewString()
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()

	// Count every call so tests can see repeated dismissals, but only the
	// first one changes the active set.
	return func() {
		r.mu.Lock()
		rec.Dismissals++
		r.mu.Unlock()
	}
}

// All returns a snapshot of every notification shown so far.
func (r *Recorder) All() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out
}

// Active returns the notifications whose handle has not been called yet.
func (r *Recorder) Active() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Record
	for _, rec := range r.records {
		if rec.Dismissals == 0 {
			out = append(out, *rec)
		}
	}
	return out
}

// Messages returns the text of every notification in display order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Message)
	}
	return out
}
