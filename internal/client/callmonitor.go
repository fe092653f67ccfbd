package client

import (
	"context"
	"sync"
	"time"

	"github.com/tbourn/go-voice-backend/internal/domain"
)

// CallState is one observed snapshot of the user's signaling situation.
// Incoming is set while a call addressed to this user is still ringing;
// Active is the newest open call in any non-terminal status. During an
// unanswered inbound ring both fields reference the same call.
type CallState struct {
	Incoming *Call
	Active   *Call
}

// CallMonitor polls call status on a fixed interval and exposes the latest
// snapshot. A poll that fails leaves the previous snapshot in place; state
// only changes on a successful fetch or an explicit action.
type CallMonitor struct {
	api      *Client
	interval time.Duration

	mu    sync.Mutex
	state CallState

	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewCallMonitor builds a monitor over api. A non-positive interval
// defaults to 3 seconds.
func NewCallMonitor(api *Client, interval time.Duration) *CallMonitor {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &CallMonitor{api: api, interval: interval}
}

// Start begins polling. It performs one immediate refresh before the first
// tick so callers observe current state right away. Start is a no-op when
// the monitor is already running.
func (m *CallMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.loop(ctx)
}

// Stop halts polling. When Stop returns no further poll will run and no
// further state change will be observed.
func (m *CallMonitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done
}

// State returns the latest snapshot.
func (m *CallMonitor) State() CallState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *CallMonitor) loop(ctx context.Context) {
	defer close(m.done)

	m.refresh(ctx)

	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.refresh(ctx)
		}
	}
}

// refresh fetches status once and rederives the snapshot. Errors are
// swallowed: the last good snapshot stands until the next successful poll.
func (m *CallMonitor) refresh(ctx context.Context) {
	call, err := m.api.Status(ctx)
	if err != nil {
		return
	}

	var next CallState
	if call != nil {
		next.Active = call
		if call.Status == domain.StatusRinging && call.CalleeID == m.api.UserID {
			next.Incoming = call
		}
	}

	m.mu.Lock()
	m.state = next
	m.mu.Unlock()
}

// Initiate places an outbound call and adopts it as the active call
// without waiting for the next tick.
func (m *CallMonitor) Initiate(ctx context.Context, calleeID string) (*Call, error) {
	call, err := m.api.CreateCall(ctx, calleeID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.state = CallState{Active: call}
	m.mu.Unlock()
	return call, nil
}

// Answer accepts the current incoming call.
func (m *CallMonitor) Answer(ctx context.Context) error {
	return m.transitionIncoming(ctx, domain.StatusActive)
}

// Decline rejects the current incoming call.
func (m *CallMonitor) Decline(ctx context.Context) error {
	return m.transitionIncoming(ctx, domain.StatusDeclined)
}

// End hangs up the active call.
func (m *CallMonitor) End(ctx context.Context) error {
	m.mu.Lock()
	active := m.state.Active
	m.mu.Unlock()
	if active == nil {
		return nil
	}
	if _, err := m.api.Transition(ctx, active.ID, domain.StatusEnded); err != nil {
		return err
	}
	m.refresh(ctx)
	return nil
}

func (m *CallMonitor) transitionIncoming(ctx context.Context, to domain.CallStatus) error {
	m.mu.Lock()
	incoming := m.state.Incoming
	m.mu.Unlock()
	if incoming == nil {
		return nil
	}
	if _, err := m.api.Transition(ctx, incoming.ID, to); err != nil {
		return err
	}
	m.refresh(ctx)
	return nil
}
