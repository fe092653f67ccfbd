// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the call
// ledger, the authoritative record of call state.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. The state machine (and its deliberate
// gaps) lives in services.CallService.
//
// Error semantics:
//   - When a call is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-voice-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateCall inserts a new ringing call from callerID to calleeID.
// CreatedAt is set to UTC; the integer ID is assigned by the database.
func CreateCall(ctx context.Context, db *gorm.DB, callerID, calleeID string) (*domain.Call, error) {
	c := &domain.Call{
		CallerID:  callerID,
		CalleeID:  calleeID,
		Status:    domain.StatusRinging,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetCall fetches a call by id regardless of who is asking.
// Returns ErrNotFound when the row is missing.
func GetCall(ctx context.Context, db *gorm.DB, id uint) (*domain.Call, error) {
	var c domain.Call
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCallForUser fetches a call by id, enforcing that userID is the caller
// or the callee. A call that exists but does not involve userID is reported
// as ErrNotFound, indistinguishable from a missing row.
func GetCallForUser(ctx context.Context, db *gorm.DB, id uint, userID string) (*domain.Call, error) {
	var c domain.Call
	err := db.WithContext(ctx).
		Where("id = ? AND (caller_id = ? OR callee_id = ?)", id, userID, userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// LatestOpenCall returns the most recently created call involving userID
// whose status is neither ended nor declined. A (nil, nil) result means the
// user currently has no open call; that is how a poller observes terminal
// transitions made by the other party.
func LatestOpenCall(ctx context.Context, db *gorm.DB, userID string) (*domain.Call, error) {
	var out []domain.Call
	err := db.WithContext(ctx).
		Where("(caller_id = ? OR callee_id = ?) AND status NOT IN ?",
			userID, userID, []domain.CallStatus{domain.StatusEnded, domain.StatusDeclined}).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// HasOpenCall reports whether userID is caller or callee on any call whose
// status is not terminal. Used by the concurrency policy check.
func HasOpenCall(ctx context.Context, db *gorm.DB, userID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Call{}).
		Where("(caller_id = ? OR callee_id = ?) AND status NOT IN ?",
			userID, userID, []domain.CallStatus{domain.StatusEnded, domain.StatusDeclined}).
		Count(&n).Error
	return n > 0, err
}

// UpdateCallStatus overwrites the status of call id and applies the
// timestamp side effects: answered_at is stamped when moving to active,
// ended_at when moving to ended. The current status is intentionally not
// consulted; concurrent transitions resolve last-write-wins.
//
// Returns the updated row, or ErrNotFound when no call with id exists.
func UpdateCallStatus(ctx context.Context, db *gorm.DB, id uint, status domain.CallStatus) (*domain.Call, error) {
	updates := map[string]any{"status": status}
	switch status {
	case domain.StatusActive:
		updates["answered_at"] = time.Now().UTC()
	case domain.StatusEnded:
		updates["ended_at"] = time.Now().UTC()
	}

	res := db.WithContext(ctx).
		Model(&domain.Call{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return GetCall(ctx, db, id)
}
