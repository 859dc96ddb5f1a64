package chat

import (
	"context"
	"sync"
	"time"
)

type ReplyStatus string

const (
	ReplyPending   ReplyStatus = "pending"
	ReplyDelivered ReplyStatus = "delivered"
	ReplyCancelled ReplyStatus = "cancelled"
	// ReplyDropped means the session was gone when the reply came due.
	ReplyDropped ReplyStatus = "dropped"
	ReplyFailed  ReplyStatus = "failed"
)

// Reply is a scheduled assistant answer. It settles exactly once.
type Reply struct {
	ID        string
	SessionID string
	Prompt    string
	DueAt     time.Time

	ctx context.Context

	mu       sync.Mutex
	status   ReplyStatus
	message  *Message
	err      error
	timer    *time.Timer
	stopCtx  func() bool
	done     chan struct{}
	onSettle func(*Reply)
}

func (r *Reply) Status() ReplyStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Message returns the appended assistant message once delivered.
func (r *Reply) Message() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.message == nil {
		return Message{}, false
	}
	return *r.message, true
}

func (r *Reply) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Done is closed when the reply settles, whatever the outcome.
func (r *Reply) Done() <-chan struct{} {
	return r.done
}

// Cancel stops a pending reply. It reports false when the reply already
// settled or is being delivered.
func (r *Reply) Cancel() bool {
	r.mu.Lock()
	if r.status != ReplyPending {
		r.mu.Unlock()
		return false
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.settleLocked(ReplyCancelled, nil, nil)
	r.mu.Unlock()
	return true
}

func (r *Reply) settleLocked(status ReplyStatus, msg *Message, err error) {
	r.status = status
	r.message = msg
	r.err = err
	if r.stopCtx != nil {
		r.stopCtx()
	}
	if r.onSettle != nil {
		r.onSettle(r)
	}
	close(r.done)
}
