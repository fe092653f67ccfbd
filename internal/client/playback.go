package client

import "sync"

// Player renders one clip. Play must not block; the implementation calls
// the queue's Done when rendering finishes.
type Player interface {
	Play(msg VoiceMessage)
}

// PlaybackQueue serializes clip playback: clips play strictly in enqueue
// order and at most one plays at a time. Clips arriving while one is
// playing wait their turn.
type PlaybackQueue struct {
	player Player

	mu      sync.Mutex
	pending []VoiceMessage
	playing bool
	current uint
}

// NewPlaybackQueue builds a queue over player.
func NewPlaybackQueue(player Player) *PlaybackQueue {
	return &PlaybackQueue{player: player}
}

// Enqueue appends clips in the given order and starts playback if idle.
func (q *PlaybackQueue) Enqueue(msgs ...VoiceMessage) {
	if len(msgs) == 0 {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, msgs...)
	q.mu.Unlock()
	q.startNext()
}

// Done signals that the current clip finished and advances the queue.
func (q *PlaybackQueue) Done() {
	q.mu.Lock()
	q.playing = false
	q.current = 0
	q.mu.Unlock()
	q.startNext()
}

// NowPlaying reports the id of the clip currently playing.
func (q *PlaybackQueue) NowPlaying() (uint, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current, q.playing
}

// Len reports how many clips are waiting, not counting any clip playing.
func (q *PlaybackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *PlaybackQueue) startNext() {
	q.mu.Lock()
	if q.playing || len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	next := q.pending[0]
	q.pending = q.pending[1:]
	q.playing = true
	q.current = next.ID
	q.mu.Unlock()

	q.player.Play(next)
}
