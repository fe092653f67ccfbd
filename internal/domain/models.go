// Package domain defines the persistence models for calls, voice rooms,
// room membership, and voice messages. These types are mapped with GORM and
// form the core data layer of the voice backend.
package domain

import "time"

// Call represents one signaling record between two users. The ledger is
// append-only history: rows are created in StatusRinging, mutated only
// through the signaling service's transition operation, and never deleted.
//
// Fields:
//   - ID: monotonically assigned integer primary key.
//   - CallerID / CalleeID: identifiers of the two parties; indexed for the
//     frequent "latest call involving user" lookup.
//   - Status: one of the CallStatus variants (see status.go).
//   - CreatedAt: set on initiation; ordering key for status polls.
//   - AnsweredAt: set exactly when the call first transitions to active.
//   - EndedAt: set exactly when the call transitions to ended.
type Call struct {
	ID         uint       `json:"id"          gorm:"primaryKey"`
	CallerID   string     `json:"caller_id"   gorm:"type:varchar(64);not null;index:idx_calls_caller"`
	CalleeID   string     `json:"callee_id"   gorm:"type:varchar(64);not null;index:idx_calls_callee"`
	Status     CallStatus `json:"status"      gorm:"type:varchar(16);not null"`
	CreatedAt  time.Time  `json:"created_at"  gorm:"index"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

// TableName returns the database table name for Call.
func (Call) TableName() string { return "calls" }

// VoiceRoom is one entry of the static, pre-seeded room catalog.
// Effectively immutable reference data.
type VoiceRoom struct {
	ID   string `json:"id"   gorm:"type:varchar(64);primaryKey"`
	Name string `json:"name" gorm:"type:varchar(255);not null"`
}

// TableName returns the database table name for VoiceRoom.
func (VoiceRoom) TableName() string { return "voice_rooms" }

// Participant records that a user is currently present in a room. It is
// presence bookkeeping only, not ownership: created on join, removed on
// leave, unique per (room, user) pair via the composite primary key.
type Participant struct {
	RoomID string `json:"room_id" gorm:"type:varchar(64);primaryKey"`
	UserID string `json:"user_id" gorm:"type:varchar(64);primaryKey"`
}

// TableName returns the database table name for Participant.
func (Participant) TableName() string { return "voice_room_participants" }

// VoiceMessage is one immutable voice clip posted to a room. Ordering is by
// (CreatedAt, ID); the integer ID breaks timestamp ties so delivery order
// always equals creation order. Rows are only appended and read.
type VoiceMessage struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	RoomID    string    `json:"room_id"    gorm:"type:varchar(64);not null;index:idx_voice_msgs,priority:1"`
	SenderID  string    `json:"sender_id"  gorm:"type:varchar(64);not null"`
	AudioData []byte    `json:"audio_data" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_voice_msgs,priority:2"`
}

// TableName returns the database table name for VoiceMessage.
func (VoiceMessage) TableName() string { return "voice_messages" }

// User is the minimal surface of the external account subsystem that this
// service needs: a stable id and a display name. Account management,
// passwords, and sessions live elsewhere.
type User struct {
	ID       string `json:"id"       gorm:"type:varchar(64);primaryKey"`
	Username string `json:"username" gorm:"type:varchar(64);not null;uniqueIndex"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }
