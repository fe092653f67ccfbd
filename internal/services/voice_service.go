// Package services – VoiceService
//
// This file implements the VoiceService, the relay that accepts voice clips
// and serves watermark polls. Clips are opaque byte blobs; the relay never
// inspects, transcodes, or mutates them. Delivery order equals creation
// order, keyed by (created_at, id).
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-voice-backend/internal/repo"
)

// VoiceService implements the use-cases around the voice message relay.
type VoiceService struct {
	// DB is the database handle used for all relay operations.
	DB *gorm.DB

	// MaxClipBytes caps the size of a single clip. Zero disables the cap;
	// the HTTP layer additionally limits whole request bodies.
	MaxClipBytes int
}

// Post appends one clip from senderID to roomID. Validation (known room,
// non-empty payload) precedes the write; the stored clip is immutable.
func (s *VoiceService) Post(ctx context.Context, roomID, senderID string, audio []byte) error {
	tr := otel.Tracer("services/VoiceService")
	ctx, span := tr.Start(ctx, "Post",
		trace.WithAttributes(
			attribute.String("room.id", roomID),
			attribute.Int("clip.bytes", len(audio)),
		),
	)
	defer span.End()

	if len(audio) == 0 {
		return ErrEmptyAudio
	}
	if s.MaxClipBytes > 0 && len(audio) > s.MaxClipBytes {
		return ErrClipTooLarge
	}
	ok, err := repo.RoomExists(ctx, s.DB, roomID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRoomNotFound
	}
	_, err = repo.CreateVoiceMessage(ctx, s.DB, roomID, senderID, audio)
	return err
}

// ListSince returns the clips in roomID strictly newer than since, ascending
// by (created_at, id). Re-polling with the timestamp of the last returned
// clip yields no duplicates; clients that also carry the last id into their
// watermark cannot skip a clip that shares that timestamp.
func (s *VoiceService) ListSince(ctx context.Context, roomID string, since time.Time) ([]repo.VoiceMessageRow, error) {
	tr := otel.Tracer("services/VoiceService")
	ctx, span := tr.Start(ctx, "ListSince",
		trace.WithAttributes(attribute.String("room.id", roomID)),
	)
	defer span.End()

	ok, err := repo.RoomExists(ctx, s.DB, roomID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRoomNotFound
	}
	return repo.ListMessagesSince(ctx, s.DB, roomID, since)
}
