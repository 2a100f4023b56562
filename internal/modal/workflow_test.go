package modal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raymond9734/film-rental-frontdesk/internal/models"
)

// manualScheduler holds scheduled callbacks until the test fires them
type manualScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (s *manualScheduler) schedule(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{f: f}
	s.delays = append(s.delays, d)
	s.pending = append(s.pending, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t.fired || t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

// fireAll runs every callback that was not stopped, even ones that a real
// timer could no longer prevent
func (s *manualScheduler) fireAll() {
	s.mu.Lock()
	timers := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, t := range timers {
		t.fired = true
		t.f()
	}
}

type form struct {
	Name string
}

func succeed(msg string) Action[form] {
	return func(ctx context.Context, f form) (string, error) { return msg, nil }
}

func fail(err error) Action[form] {
	return func(ctx context.Context, f form) (string, error) { return "", err }
}

func TestWorkflow_SuccessClosesAfterDelayAndRefreshesOnce(t *testing.T) {
	sched := &manualScheduler{}
	var refreshes atomic.Int32
	w := New[form](func() { refreshes.Add(1) }, WithScheduler(sched.schedule))

	require.NoError(t, w.Open(form{Name: "Ann"}))
	assert.Equal(t, Idle, w.State().Phase)

	require.NoError(t, w.Submit(context.Background(), succeed("Customer added successfully")))
	st := w.State()
	assert.Equal(t, Succeeded, st.Phase)
	assert.Equal(t, "Customer added successfully", st.Message)
	assert.Equal(t, []time.Duration{DefaultSuccessDelay}, sched.delays)
	assert.Equal(t, int32(0), refreshes.Load())

	sched.fireAll()
	assert.Equal(t, Closed, w.State().Phase)
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestWorkflow_FailureKeepsFormAndAllowsRetry(t *testing.T) {
	sched := &manualScheduler{}
	w := New[form](nil, WithScheduler(sched.schedule))
	require.NoError(t, w.Open(form{Name: "Ann"}))

	boom := models.ErrConflictWithMsg("a customer with email ann@example.com already exists")
	err := w.Submit(context.Background(), fail(boom))
	require.ErrorIs(t, err, models.ErrConflict)

	st := w.State()
	assert.Equal(t, Failed, st.Phase)
	assert.Equal(t, "Ann", st.Form.Name)
	assert.Equal(t, boom, st.Err)

	require.NoError(t, w.SetForm(form{Name: "Ann B"}))
	require.NoError(t, w.Submit(context.Background(), succeed("ok")))
	st = w.State()
	assert.Equal(t, Succeeded, st.Phase)
	assert.Nil(t, st.Err)
}

func TestWorkflow_RejectsSecondSubmissionWhilePending(t *testing.T) {
	w := New[form](nil)
	require.NoError(t, w.Open(form{}))

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	slow := func(ctx context.Context, f form) (string, error) {
		calls.Add(1)
		close(started)
		<-release
		return "", errors.New("server said no")
	}

	done := make(chan error, 1)
	go func() { done <- w.Submit(context.Background(), slow) }()
	<-started

	assert.Equal(t, Pending, w.State().Phase)
	assert.ErrorIs(t, w.Submit(context.Background(), succeed("x")), models.ErrBusy)
	assert.ErrorIs(t, w.Cancel(), models.ErrBusy)
	assert.ErrorIs(t, w.Open(form{}), models.ErrBusy)
	assert.ErrorIs(t, w.SetForm(form{}), models.ErrBusy)

	close(release)
	require.Error(t, <-done)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWorkflow_CancelDiscardsTransientFields(t *testing.T) {
	w := New[form](nil)
	require.NoError(t, w.Open(form{Name: "Ann"}))
	require.Error(t, w.Submit(context.Background(), fail(errors.New("nope"))))

	require.NoError(t, w.Cancel())
	assert.Equal(t, State[form]{Phase: Closed}, w.State())

	require.NoError(t, w.Open(form{}))
	st := w.State()
	assert.Nil(t, st.Err)
	assert.Empty(t, st.Message)
	assert.Empty(t, st.Form.Name)
}

func TestWorkflow_ClosedRejectsActions(t *testing.T) {
	w := New[form](nil)
	assert.ErrorIs(t, w.Submit(context.Background(), succeed("x")), models.ErrNotOpen)
	assert.ErrorIs(t, w.SetForm(form{}), models.ErrNotOpen)
	assert.NoError(t, w.Cancel())
}

func TestWorkflow_EarlyCloseStillRefreshesExactlyOnce(t *testing.T) {
	tests := []struct {
		name  string
		close func(w *Workflow[form]) error
		want  Phase
	}{
		{"cancel", func(w *Workflow[form]) error { return w.Cancel() }, Closed},
		{"reopen", func(w *Workflow[form]) error { return w.Open(form{Name: "next"}) }, Idle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := &manualScheduler{}
			var refreshes atomic.Int32
			w := New[form](func() { refreshes.Add(1) }, WithScheduler(sched.schedule))

			require.NoError(t, w.Open(form{Name: "Ann"}))
			require.NoError(t, w.Submit(context.Background(), succeed("done")))
			require.NoError(t, tt.close(w))
			assert.Equal(t, int32(1), refreshes.Load())
			assert.Equal(t, tt.want, w.State().Phase)

			// a timer that could not be stopped in time must not close the
			// new dialog or refresh again
			sched.fireAll()
			assert.Equal(t, int32(1), refreshes.Load())
			assert.Equal(t, tt.want, w.State().Phase)
		})
	}
}

func TestWorkflow_ImmediateScheduler(t *testing.T) {
	immediate := func(d time.Duration, f func()) func() bool {
		f()
		return func() bool { return false }
	}
	var refreshes int
	w := New[form](func() { refreshes++ }, WithScheduler(immediate), WithDelay(0))

	require.NoError(t, w.Open(form{}))
	require.NoError(t, w.Submit(context.Background(), succeed("done")))

	assert.Equal(t, Closed, w.State().Phase)
	assert.Equal(t, 1, refreshes)
}

func TestWorkflow_RealTimer(t *testing.T) {
	refreshed := make(chan struct{})
	w := New[form](func() { close(refreshed) }, WithDelay(10*time.Millisecond))

	require.NoError(t, w.Open(form{}))
	require.NoError(t, w.Submit(context.Background(), succeed("done")))

	select {
	case <-refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not run")
	}
	assert.Equal(t, Closed, w.State().Phase)
}
