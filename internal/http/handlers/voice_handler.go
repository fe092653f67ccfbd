// Voice room HTTP handlers.
//
// This file exposes the REST surface of the room registry and the relay:
//   - GET  /voice?type=rooms
//   - GET  /voice?type=participants&roomId=
//   - GET  /voice?type=messages&roomId=&since=   (since: RFC 3339, default epoch)
//   - POST /voice?type=message                   (post a clip)
//   - POST /voice                                (join/leave membership)
//
// Audio crosses this boundary base64-encoded; everything past it is raw
// bytes. The since parameter is parsed here so the relay only ever sees a
// time.Time.
package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-voice-backend/internal/http/middleware"
	"github.com/tbourn/go-voice-backend/internal/repo"
	"github.com/tbourn/go-voice-backend/internal/services"
)

// VoiceService defines the relay operations consumed by HTTP handlers.
type VoiceService interface {
	// Post appends one clip (raw bytes) to a room.
	Post(ctx context.Context, roomID, senderID string, audio []byte) error
	// ListSince returns the clips strictly newer than since, in order.
	ListSince(ctx context.Context, roomID string, since time.Time) ([]repo.VoiceMessageRow, error)
}

//
// DTOs
//

// PostVoiceMessageRequest is the JSON payload for posting a clip.
type PostVoiceMessageRequest struct {
	RoomID string `json:"roomId"`
	// AudioData is the clip payload, base64-encoded.
	AudioData string `json:"audioData"`
}

// RoomMembershipRequest is the JSON payload for join/leave actions.
type RoomMembershipRequest struct {
	RoomID string `json:"roomId"`
	Action string `json:"action"`
}

// VoiceMessageResponse is one relay clip as served over the wire.
type VoiceMessageResponse struct {
	ID             uint      `json:"id"`
	SenderID       string    `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	AudioData      string    `json:"audio_data"`
	CreatedAt      time.Time `json:"created_at"`
}

//
// Handlers
//

// GetVoice dispatches GET /voice on its type parameter: rooms lists the
// catalog, participants lists presence for a room, and messages serves the
// watermark poll.
func (h *Handlers) GetVoice(c *gin.Context) {
	ctx := c.Request.Context()

	switch c.Query("type") {
	case "rooms":
		rooms, err := h.roomSvc.Rooms(ctx)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "Internal Server Error")
			return
		}
		ok(c, http.StatusOK, rooms)
		return

	case "participants":
		roomID := c.Query("roomId")
		if roomID == "" {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "roomId is required.")
			return
		}
		parts, err := h.roomSvc.Participants(ctx, roomID)
		if err != nil {
			failRoomErr(c, err)
			return
		}
		ok(c, http.StatusOK, parts)
		return

	case "messages":
		roomID := c.Query("roomId")
		if roomID == "" {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "roomId is required.")
			return
		}
		since, err := parseSince(c.Query("since"))
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		rows, err := h.voiceSvc.ListSince(ctx, roomID, since)
		if err != nil {
			failRoomErr(c, err)
			return
		}
		out := make([]VoiceMessageResponse, 0, len(rows))
		for _, r := range rows {
			out = append(out, VoiceMessageResponse{
				ID:             r.ID,
				SenderID:       r.SenderID,
				SenderUsername: r.SenderUsername,
				AudioData:      base64.StdEncoding.EncodeToString(r.AudioData),
				CreatedAt:      r.CreatedAt,
			})
		}
		ok(c, http.StatusOK, out)
		return
	}

	fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid GET request type.")
}

// PostVoice dispatches POST /voice: type=message posts a clip, anything
// else is a membership action (join or leave).
func (h *Handlers) PostVoice(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)

	if c.Query("type") == "message" {
		var req PostVoiceMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RoomID == "" || req.AudioData == "" {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "roomId and audioData are required.")
			return
		}
		audio, err := base64.StdEncoding.DecodeString(req.AudioData)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "audioData must be base64")
			return
		}
		if err := h.voiceSvc.Post(ctx, req.RoomID, uid, audio); err != nil {
			if errors.Is(err, services.ErrEmptyAudio) {
				fail(c, http.StatusBadRequest, ErrCodeBadRequest, "audio payload is empty")
				return
			}
			if errors.Is(err, services.ErrClipTooLarge) {
				fail(c, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "audio payload too large")
				return
			}
			failRoomErr(c, err)
			return
		}
		middleware.ObserveClipSize(len(audio))
		ok(c, http.StatusCreated, gin.H{"message": "Message sent."})
		return
	}

	var req RoomMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomID == "" || req.Action == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "roomId and action are required.")
		return
	}

	switch req.Action {
	case "join":
		if err := h.roomSvc.Join(ctx, req.RoomID, uid); err != nil {
			failRoomErr(c, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"message": "Joined room."})
	case "leave":
		if err := h.roomSvc.Leave(ctx, req.RoomID, uid); err != nil {
			failRoomErr(c, err)
			return
		}
		ok(c, http.StatusOK, gin.H{"message": "Left room."})
	default:
		fail(c, http.StatusBadRequest, ErrCodeInvalidAction, "Invalid POST action.")
	}
}

// failRoomErr maps relay/registry errors onto the envelope.
func failRoomErr(c *gin.Context, err error) {
	if errors.Is(err, services.ErrRoomNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Room not found.")
		return
	}
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "Internal Server Error")
}

// parseSince interprets the watermark query parameter. Absent means the
// epoch (deliver everything); otherwise RFC 3339 with or without
// fractional seconds.
func parseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Unix(0, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
