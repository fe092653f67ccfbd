// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the voice room
// catalog and the presence registry.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-voice-backend/internal/domain"
)

// RoomParticipant is a participant row joined with the user directory.
type RoomParticipant struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// ListRooms returns the full room catalog ordered by name.
func ListRooms(ctx context.Context, db *gorm.DB) ([]domain.VoiceRoom, error) {
	var out []domain.VoiceRoom
	err := db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

// RoomExists reports whether roomID is part of the catalog.
func RoomExists(ctx context.Context, db *gorm.DB, roomID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.VoiceRoom{}).
		Where("id = ?", roomID).
		Count(&n).Error
	return n > 0, err
}

// JoinRoom records presence of userID in roomID. Inserting a duplicate
// (room, user) pair is a no-op, not an error.
func JoinRoom(ctx context.Context, db *gorm.DB, roomID, userID string) error {
	p := &domain.Participant{RoomID: roomID, UserID: userID}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(p).Error
}

// LeaveRoom removes presence of userID in roomID. Leaving a room the user
// is not in is a no-op.
func LeaveRoom(ctx context.Context, db *gorm.DB, roomID, userID string) error {
	return db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&domain.Participant{}).Error
}

// ListParticipants returns the current members of roomID with display names.
// Order is unspecified.
func ListParticipants(ctx context.Context, db *gorm.DB, roomID string) ([]RoomParticipant, error) {
	var out []RoomParticipant
	err := db.WithContext(ctx).
		Model(&domain.Participant{}).
		Select("voice_room_participants.user_id, users.username").
		Joins("JOIN users ON users.id = voice_room_participants.user_id").
		Where("voice_room_participants.room_id = ?", roomID).
		Scan(&out).Error
	return out, err
}
