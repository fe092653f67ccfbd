package repo

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/tbourn/go-voice-backend/internal/domain"
)

func TestCreateVoiceMessage_StoresRawBytes(t *testing.T) {
	db := newRepoDB(t, &domain.VoiceMessage{})

	audio := []byte{0x00, 0xFF, 0x10, 0x80} // binary, not valid UTF-8
	m, err := CreateVoiceMessage(context.Background(), db, "general", "u1", audio)
	if err != nil {
		t.Fatalf("CreateVoiceMessage: %v", err)
	}
	if m.ID == 0 || m.RoomID != "general" || m.SenderID != "u1" {
		t.Fatalf("unexpected message: %+v", m)
	}

	var got domain.VoiceMessage
	if err := db.First(&got, "id = ?", m.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(got.AudioData, audio) {
		t.Fatalf("payload mutated: %x != %x", got.AudioData, audio)
	}
}

func TestListMessagesSince_StrictBoundaryAndOrder(t *testing.T) {
	db := newRepoDB(t, &domain.User{}, &domain.VoiceMessage{})
	if _, err := CreateUser(context.Background(), db, "u1", "alice"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seed := []domain.VoiceMessage{
		{ID: 1, RoomID: "general", SenderID: "u1", AudioData: []byte("a"), CreatedAt: base},
		{ID: 2, RoomID: "general", SenderID: "u1", AudioData: []byte("b"), CreatedAt: base.Add(time.Second)},
		{ID: 3, RoomID: "general", SenderID: "u1", AudioData: []byte("c"), CreatedAt: base.Add(2 * time.Second)},
		{ID: 4, RoomID: "other", SenderID: "u1", AudioData: []byte("x"), CreatedAt: base.Add(3 * time.Second)},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed %d: %v", seed[i].ID, err)
		}
	}

	// since == message 1's timestamp: message 1 itself is excluded.
	rows, err := ListMessagesSince(context.Background(), db, "general", base)
	if err != nil {
		t.Fatalf("ListMessagesSince: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != 2 || rows[1].ID != 3 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if rows[0].SenderUsername != "alice" {
		t.Fatalf("sender username not joined: %+v", rows[0])
	}

	// Epoch watermark returns the full room history in order.
	rows, err = ListMessagesSince(context.Background(), db, "general", time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("ListMessagesSince epoch: %v", err)
	}
	if len(rows) != 3 || rows[0].ID != 1 || rows[2].ID != 3 {
		t.Fatalf("unexpected full history: %+v", rows)
	}
}

func TestListMessagesSince_IDBreaksTimestampTies(t *testing.T) {
	db := newRepoDB(t, &domain.User{}, &domain.VoiceMessage{})
	if _, err := CreateUser(context.Background(), db, "u1", "alice"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// Insert out of id order to make sure the ORDER BY does the work.
	for _, id := range []uint{11, 10, 12} {
		m := domain.VoiceMessage{ID: id, RoomID: "general", SenderID: "u1", AudioData: []byte{byte(id)}, CreatedAt: ts}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed %d: %v", id, err)
		}
	}

	rows, err := ListMessagesSince(context.Background(), db, "general", ts.Add(-time.Second))
	if err != nil {
		t.Fatalf("ListMessagesSince: %v", err)
	}
	if len(rows) != 3 || rows[0].ID != 10 || rows[1].ID != 11 || rows[2].ID != 12 {
		t.Fatalf("tie not broken by id: %+v", rows)
	}
}
