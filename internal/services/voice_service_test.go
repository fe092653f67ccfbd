package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-voice-backend/internal/repo"
)

func newVoiceSvc(t *testing.T) *VoiceService {
	t.Helper()
	db := newTestDB(t)
	if err := repo.SeedRooms(db); err != nil {
		t.Fatalf("seed rooms: %v", err)
	}
	return &VoiceService{DB: db}
}

func TestVoicePost_Validation(t *testing.T) {
	svc := newVoiceSvc(t)
	seedUsers(t, svc.DB, map[string]string{"u1": "alice"})

	if err := svc.Post(context.Background(), "general", "u1", nil); !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("empty audio: got %v", err)
	}
	if err := svc.Post(context.Background(), "lounge", "u1", []byte("x")); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("unknown room: got %v", err)
	}

	svc.MaxClipBytes = 4
	if err := svc.Post(context.Background(), "general", "u1", []byte("12345")); !errors.Is(err, ErrClipTooLarge) {
		t.Fatalf("oversize clip: got %v", err)
	}
	if err := svc.Post(context.Background(), "general", "u1", []byte("1234")); err != nil {
		t.Fatalf("clip at the cap: %v", err)
	}
}

func TestVoicePostAndListSince_Relay(t *testing.T) {
	svc := newVoiceSvc(t)
	seedUsers(t, svc.DB, map[string]string{"u1": "alice", "u2": "bob"})

	clips := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for _, clip := range clips {
		if err := svc.Post(context.Background(), "general", "u1", clip); err != nil {
			t.Fatalf("post %q: %v", clip, err)
		}
	}
	// A clip in another room must not leak into the poll.
	if err := svc.Post(context.Background(), "tech-talk", "u2", []byte("elsewhere")); err != nil {
		t.Fatalf("post other room: %v", err)
	}

	rows, err := svc.ListSince(context.Background(), "general", time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("ListSince: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 clips, got %d", len(rows))
	}
	for i, r := range rows {
		if !bytes.Equal(r.AudioData, clips[i]) {
			t.Fatalf("clip %d out of order or mutated: %q", i, r.AudioData)
		}
		if r.SenderUsername != "alice" {
			t.Fatalf("sender not joined: %+v", r)
		}
	}

	// Re-polling from the last delivered clip's timestamp yields nothing new.
	last := rows[len(rows)-1]
	rows, err = svc.ListSince(context.Background(), "general", last.CreatedAt)
	if err != nil {
		t.Fatalf("ListSince from watermark: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("watermark re-poll returned duplicates: %+v", rows)
	}
}

func TestVoiceListSince_UnknownRoom(t *testing.T) {
	svc := newVoiceSvc(t)
	if _, err := svc.ListSince(context.Background(), "lounge", time.Unix(0, 0).UTC()); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("got %v", err)
	}
}
