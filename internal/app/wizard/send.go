package wizard

import (
	"context"
	"sync"

	"github.com/PabloGalante/advocate/internal/domain"
)

// Outcome is the settled result of a send.
type Outcome struct {
	ActivityID domain.ActivityID
	Err        error
}

// SendTask runs the persistence write of a session at most once at a time,
// and never again after a successful write. The isSending/messageSent pair
// makes repeated triggers harmless.
type SendTask struct {
	mu          sync.Mutex
	isSending   bool
	messageSent bool
	done        chan struct{}
	outcome     Outcome
}

func NewSendTask() *SendTask {
	return &SendTask{}
}

// Start launches write in its own goroutine and reports whether it did.
// The write's settle callback runs before Done is closed, so a waiter always
// observes the settled state.
func (t *SendTask) Start(
	ctx context.Context,
	write func(ctx context.Context) (domain.ActivityID, error),
	settle func(Outcome),
) bool {
	t.mu.Lock()
	if t.isSending || t.messageSent {
		t.mu.Unlock()
		return false
	}
	t.isSending = true
	done := make(chan struct{})
	t.done = done
	t.mu.Unlock()

	go func() {
		id, err := write(ctx)
		out := Outcome{ActivityID: id, Err: err}

		if settle != nil {
			settle(out)
		}

		t.mu.Lock()
		t.isSending = false
		t.messageSent = err == nil
		t.outcome = out
		t.mu.Unlock()
		close(done)
	}()
	return true
}

// Done is closed when the current or most recent send settles. It is nil
// before the first Start.
func (t *SendTask) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Wait blocks until the current send settles or ctx ends.
func (t *SendTask) Wait(ctx context.Context) (Outcome, error) {
	done := t.Done()
	if done == nil {
		return Outcome{}, ErrNotSending
	}
	select {
	case <-done:
		return t.Outcome(), nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (t *SendTask) Outcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

func (t *SendTask) Sending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isSending
}

func (t *SendTask) Sent() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.messageSent
}
