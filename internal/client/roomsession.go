package client

import (
	"context"
	"sync"
	"time"
)

// Watermark marks the newest clip already delivered to a session. Ordering
// is by creation time with the id as tie-break, so two clips stored in the
// same instant are still totally ordered.
type Watermark struct {
	Time time.Time
	ID   uint
}

// Covers reports whether msg is at or before the watermark.
func (w Watermark) Covers(msg VoiceMessage) bool {
	if msg.CreatedAt.Before(w.Time) {
		return true
	}
	return msg.CreatedAt.Equal(w.Time) && msg.ID <= w.ID
}

// RoomSession is one user's live attachment to a room. Opening a session
// records presence and starts two independent poll loops: participants on
// a slow cadence, messages on a fast one. New clips are fed to the
// playback queue in delivery order; closing the session stops both loops
// and withdraws presence.
type RoomSession struct {
	api    *Client
	roomID string
	queue  *PlaybackQueue

	msgInterval  time.Duration
	partInterval time.Duration

	mu           sync.Mutex
	participants []Participant
	messages     []VoiceMessage
	wm           Watermark

	cancel   context.CancelFunc
	msgDone  chan struct{}
	partDone chan struct{}
	open     bool
}

// NewRoomSession builds a session for roomID over api, delivering clips to
// queue. Non-positive intervals default to 3 s for messages and 10 s for
// participants.
func NewRoomSession(api *Client, roomID string, queue *PlaybackQueue, msgInterval, partInterval time.Duration) *RoomSession {
	if msgInterval <= 0 {
		msgInterval = 3 * time.Second
	}
	if partInterval <= 0 {
		partInterval = 10 * time.Second
	}
	return &RoomSession{
		api:          api,
		roomID:       roomID,
		queue:        queue,
		msgInterval:  msgInterval,
		partInterval: partInterval,
	}
}

// RoomID returns the room this session is attached to.
func (s *RoomSession) RoomID() string { return s.roomID }

// Open joins the room, takes an initial snapshot of participants and
// messages, and starts both poll loops. Open fails without side effects
// when the join is rejected.
func (s *RoomSession) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.open {
		s.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	msgDone := make(chan struct{})
	partDone := make(chan struct{})
	s.open = true
	s.cancel = cancel
	s.msgDone = msgDone
	s.partDone = partDone
	s.mu.Unlock()

	if err := s.api.Join(ctx, s.roomID); err != nil {
		cancel()
		close(msgDone)
		close(partDone)
		s.mu.Lock()
		s.open = false
		s.mu.Unlock()
		return err
	}

	s.pollParticipants(ctx)
	s.pollMessages(ctx)

	go s.participantLoop(loopCtx)
	go s.messageLoop(loopCtx)
	return nil
}

// Close stops both poll loops, waits for them to finish, then withdraws
// presence. After Close returns no further poll runs.
func (s *RoomSession) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return nil
	}
	s.open = false
	cancel, msgDone, partDone := s.cancel, s.msgDone, s.partDone
	s.mu.Unlock()

	cancel()
	<-msgDone
	<-partDone

	return s.api.Leave(ctx, s.roomID)
}

// Send uploads one recorded clip to the room.
func (s *RoomSession) Send(ctx context.Context, audio []byte) error {
	return s.api.PostMessage(ctx, s.roomID, audio)
}

// Participants returns the latest observed member list.
func (s *RoomSession) Participants() []Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Participant, len(s.participants))
	copy(out, s.participants)
	return out
}

// Messages returns every clip delivered so far, oldest first.
func (s *RoomSession) Messages() []VoiceMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]VoiceMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *RoomSession) participantLoop(ctx context.Context) {
	defer close(s.partDone)
	t := time.NewTicker(s.partInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.pollParticipants(ctx)
		}
	}
}

func (s *RoomSession) messageLoop(ctx context.Context) {
	defer close(s.msgDone)
	t := time.NewTicker(s.msgInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.pollMessages(ctx)
		}
	}
}

func (s *RoomSession) pollParticipants(ctx context.Context) {
	parts, err := s.api.Participants(ctx, s.roomID)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.participants = parts
	s.mu.Unlock()
}

// pollMessages fetches clips past the watermark and delivers the new ones.
// The request is made one nanosecond behind the watermark instant so a
// clip stored in the same instant as the last delivered one is still
// fetched; the watermark's id tie-break then filters out what was already
// delivered. A failed poll leaves the watermark untouched, so nothing is
// skipped.
func (s *RoomSession) pollMessages(ctx context.Context) {
	s.mu.Lock()
	wm := s.wm
	s.mu.Unlock()

	since := wm.Time
	if wm.ID > 0 {
		since = since.Add(-time.Nanosecond)
	}

	msgs, err := s.api.MessagesSince(ctx, s.roomID, since)
	if err != nil {
		return
	}

	fresh := msgs[:0:0]
	for _, m := range msgs {
		if !wm.Covers(m) {
			fresh = append(fresh, m)
		}
	}
	if len(fresh) == 0 {
		return
	}

	last := fresh[len(fresh)-1]

	s.mu.Lock()
	s.messages = append(s.messages, fresh...)
	s.wm = Watermark{Time: last.CreatedAt, ID: last.ID}
	s.mu.Unlock()

	if s.queue != nil {
		s.queue.Enqueue(fresh...)
	}
}
