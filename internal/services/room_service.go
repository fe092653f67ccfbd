// Package services – RoomService
//
// This file implements the RoomService, which owns the room catalog and the
// presence registry. Join and leave are idempotent by contract: duplicate
// joins and leaves of rooms the user is not in are no-ops. There is no
// session heartbeat, so a client that crashes without leaving remains
// listed until an explicit leave.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-voice-backend/internal/domain"
	"github.com/tbourn/go-voice-backend/internal/repo"
)

// RoomService implements the use-cases around voice rooms and presence.
type RoomService struct {
	// DB is the database handle used for all room operations.
	DB *gorm.DB
}

// Rooms returns the static room catalog ordered by name.
func (s *RoomService) Rooms(ctx context.Context) ([]domain.VoiceRoom, error) {
	return repo.ListRooms(ctx, s.DB)
}

// Join records userID as present in roomID. Joining twice is equivalent to
// joining once. Unknown rooms are rejected with ErrRoomNotFound before any
// write.
func (s *RoomService) Join(ctx context.Context, roomID, userID string) error {
	if err := s.requireRoom(ctx, roomID); err != nil {
		return err
	}
	return repo.JoinRoom(ctx, s.DB, roomID, userID)
}

// Leave removes userID from roomID. Leaving a room the user is not in is a
// no-op.
func (s *RoomService) Leave(ctx context.Context, roomID, userID string) error {
	if err := s.requireRoom(ctx, roomID); err != nil {
		return err
	}
	return repo.LeaveRoom(ctx, s.DB, roomID, userID)
}

// Participants returns the current members of roomID with display names,
// unordered.
func (s *RoomService) Participants(ctx context.Context, roomID string) ([]repo.RoomParticipant, error) {
	if err := s.requireRoom(ctx, roomID); err != nil {
		return nil, err
	}
	return repo.ListParticipants(ctx, s.DB, roomID)
}

func (s *RoomService) requireRoom(ctx context.Context, roomID string) error {
	ok, err := repo.RoomExists(ctx, s.DB, roomID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRoomNotFound
	}
	return nil
}
