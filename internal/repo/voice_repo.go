// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the voice
// message relay, the time-ordered store of voice clips per room.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-voice-backend/internal/domain"
)

// VoiceMessageRow is a voice message joined with the sender's display name.
// AudioData stays raw bytes here; base64 happens at the HTTP boundary.
type VoiceMessageRow struct {
	ID             uint      `json:"id"`
	RoomID         string    `json:"room_id"`
	SenderID       string    `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	AudioData      []byte    `json:"audio_data"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateVoiceMessage appends one immutable clip to roomID. CreatedAt is
// taken from the process clock in UTC at nanosecond resolution; together
// with the monotonically assigned ID it forms the delivery ordering key.
func CreateVoiceMessage(ctx context.Context, db *gorm.DB, roomID, senderID string, audio []byte) (*domain.VoiceMessage, error) {
	m := &domain.VoiceMessage{
		RoomID:    roomID,
		SenderID:  senderID,
		AudioData: audio,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// ListMessagesSince returns the clips in roomID strictly newer than since,
// ascending by (created_at, id). The boundary is strict-greater-than: a clip
// stamped exactly at since is never returned, which is why pollers advance
// their watermark with the (timestamp, id) pair rather than time alone.
func ListMessagesSince(ctx context.Context, db *gorm.DB, roomID string, since time.Time) ([]VoiceMessageRow, error) {
	var out []VoiceMessageRow
	err := db.WithContext(ctx).
		Model(&domain.VoiceMessage{}).
		Select("voice_messages.id, voice_messages.room_id, voice_messages.sender_id, users.username AS sender_username, voice_messages.audio_data, voice_messages.created_at").
		Joins("JOIN users ON users.id = voice_messages.sender_id").
		Where("voice_messages.room_id = ? AND voice_messages.created_at > ?", roomID, since).
		Order("voice_messages.created_at ASC, voice_messages.id ASC").
		Scan(&out).Error
	return out, err
}
