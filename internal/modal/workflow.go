// Package modal implements the dialog state machine shared by the add, edit,
// delete and rent dialogs.
package modal

import (
	"context"
	"sync"
	"time"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

// DefaultSuccessDelay is how long a success message stays up before the
// dialog closes itself
const DefaultSuccessDelay = 1500 * time.Millisecond

// Phase is the dialog state
type Phase int

const (
	Closed Phase = iota
	Idle
	Pending
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Closed:
		return "closed"
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsOpen reports whether the dialog is visible
func (p Phase) IsOpen() bool {
	return p != Closed
}

// Scheduler runs f once after d and returns a function that cancels it. The
// stop function reports whether it prevented f from running.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

// AfterFunc schedules with time.AfterFunc
func AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// State is a snapshot of a workflow
type State[F any] struct {
	Phase   Phase
	Form    F
	Err     error
	Message string
}

// Action performs the dialog's backend call and returns the success message
type Action[F any] func(ctx context.Context, form F) (string, error)

// Option configures a Workflow
type Option func(*options)

type options struct {
	delay    time.Duration
	schedule Scheduler
}

// WithDelay overrides DefaultSuccessDelay
func WithDelay(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

// WithScheduler overrides AfterFunc
func WithScheduler(s Scheduler) Option {
	return func(o *options) { o.schedule = s }
}

// Workflow is safe for concurrent use. The refresh callback runs without any
// workflow lock held, possibly on a timer goroutine.
type Workflow[F any] struct {
	mu      sync.Mutex
	phase   Phase
	form    F
	err     error
	message string

	// gen changes on every open and close so a stale timer cannot close a
	// newer dialog
	gen  uint64
	stop func() bool

	refresh  func()
	delay    time.Duration
	schedule Scheduler
}

// New creates a closed workflow. refresh may be nil.
func New[F any](refresh func(), opts ...Option) *Workflow[F] {
	o := options{delay: DefaultSuccessDelay, schedule: AfterFunc}
	for _, opt := range opts {
		opt(&o)
	}
	return &Workflow[F]{
		refresh:  refresh,
		delay:    o.delay,
		schedule: o.schedule,
	}
}

// State returns a snapshot
func (w *Workflow[F]) State() State[F] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State[F]{Phase: w.phase, Form: w.form, Err: w.err, Message: w.message}
}

// Open shows the dialog with an initial form. A dialog still displaying a
// success message is closed first and its refresh runs now.
func (w *Workflow[F]) Open(form F) error {
	w.mu.Lock()
	if w.phase == Pending {
		w.mu.Unlock()
		return models.ErrBusy
	}
	due := w.closeLocked()
	w.gen++
	w.phase = Idle
	w.form = form
	w.mu.Unlock()

	if due {
		w.fireRefresh()
	}
	return nil
}

// SetForm replaces the user's input
func (w *Workflow[F]) SetForm(form F) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.phase {
	case Closed, Succeeded:
		return models.ErrNotOpen
	case Pending:
		return models.ErrBusy
	}
	w.form = form
	return nil
}

// Submit runs action with the current form. Only one submission can be in
// flight; a second one gets models.ErrBusy. On failure the dialog stays open
// with the form intact and the error is returned. On success the dialog shows
// the message and closes itself after the success delay.
func (w *Workflow[F]) Submit(ctx context.Context, action Action[F]) error {
	w.mu.Lock()
	switch w.phase {
	case Closed:
		w.mu.Unlock()
		return models.ErrNotOpen
	case Pending, Succeeded:
		w.mu.Unlock()
		return models.ErrBusy
	}
	w.phase = Pending
	w.err = nil
	w.message = ""
	form := w.form
	gen := w.gen
	w.mu.Unlock()

	message, err := action(ctx, form)

	w.mu.Lock()
	if err != nil {
		w.phase = Failed
		w.err = err
		w.mu.Unlock()
		return err
	}
	w.phase = Succeeded
	w.message = message
	w.mu.Unlock()

	stop := w.schedule(w.delay, func() { w.expire(gen) })

	w.mu.Lock()
	if w.gen == gen && w.phase == Succeeded {
		w.stop = stop
	}
	w.mu.Unlock()
	return nil
}

// Cancel closes the dialog and discards its transient fields. A pending
// submission cannot be cancelled.
func (w *Workflow[F]) Cancel() error {
	w.mu.Lock()
	if w.phase == Pending {
		w.mu.Unlock()
		return models.ErrBusy
	}
	due := w.closeLocked()
	w.gen++
	w.mu.Unlock()

	if due {
		w.fireRefresh()
	}
	return nil
}

func (w *Workflow[F]) expire(gen uint64) {
	w.mu.Lock()
	if w.gen != gen || w.phase != Succeeded {
		w.mu.Unlock()
		return
	}
	w.stop = nil
	w.reset()
	w.gen++
	w.mu.Unlock()

	w.fireRefresh()
}

// closeLocked resets the dialog and reports whether a success refresh was
// still owed
func (w *Workflow[F]) closeLocked() bool {
	due := false
	if w.phase == Succeeded {
		due = true
		if w.stop != nil {
			// The timer may already be running expire, which will see the
			// bumped generation and do nothing.
			w.stop()
		}
	}
	w.stop = nil
	w.reset()
	return due
}

func (w *Workflow[F]) reset() {
	var zero F
	w.phase = Closed
	w.form = zero
	w.err = nil
	w.message = ""
}

func (w *Workflow[F]) fireRefresh() {
	if w.refresh != nil {
		w.refresh()
	}
}
