package notify

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Terminal renders notifications as coloured lines. Persistent errors keep a
// spinner running until the last of them is dismissed.
type Terminal struct {
	out   io.Writer
	quiet bool

	mu         sync.Mutex
	spin       *spinner.Spinner
	persistent []*entry
	nextID     int
}

type entry struct {
	id      int
	message string
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithWriter sends output to w instead of stderr.
func WithWriter(w io.Writer) TerminalOption {
	return func(t *Terminal) { t.out = w }
}

// WithQuiet suppresses success and warning messages.
func WithQuiet(quiet bool) TerminalOption {
	return func(t *Terminal) { t.quiet = quiet }
}

// NewTerminal creates a Terminal notifier.
func NewTerminal(opts ...TerminalOption) *Terminal {
	t := &Terminal{out: os.Stderr}
	for _, opt := range opts {
		opt(t)
	}
	t.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(t.out))
	return t
}

func (t *Terminal) Success(message string, timeout time.Duration) Dismiss {
	if t.quiet {
		return Once(nil)
	}
	t.println(text.FgGreen.Sprint("✔ ") + message)
	return Once(nil)
}

func (t *Terminal) Warning(message string) Dismiss {
	if t.quiet {
		return Once(nil)
	}
	t.println(text.FgYellow.Sprint("⚠ ") + message)
	return Once(nil)
}

func (t *Terminal) Error(message string, dismissible bool) Dismiss {
	t.println(text.FgRed.Sprint("✖ ") + message)
	if dismissible {
		return Once(nil)
	}

	t.mu.Lock()
	t.nextID++
	e := &entry{id: t.nextID, message: message}
	t.persistent = append(t.persistent, e)
	t.showLatestLocked()
	t.mu.Unlock()

	return Once(func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, p := range t.persistent {
			if p.id == e.id {
				t.persistent = append(t.persistent[:i], t.persistent[i+1:]...)
				break
			}
		}
		t.showLatestLocked()
	})
}

// Active reports the number of persistent messages still on screen.
func (t *Terminal) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.persistent)
}

func (t *Terminal) showLatestLocked() {
	if len(t.persistent) == 0 {
		t.spin.Stop()
		return
	}
	t.spin.Suffix = " " + t.persistent[len(t.persistent)-1].message
	if !t.spin.Active() {
		t.spin.Start()
	}
}

func (t *Terminal) println(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	restart := t.spin.Active()
	if restart {
		t.spin.Stop()
	}
	fmt.Fprintln(t.out, line)
	if restart {
		t.spin.Start()
	}
}
