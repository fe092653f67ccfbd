// Package services defines the business logic for call signaling, room
// presence, and the voice message relay. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

// Call signaling errors.
var (
	// ErrCallNotFound indicates that the requested call does not exist or
	// does not involve the requesting user.
	ErrCallNotFound = errors.New("call not found")

	// ErrInvalidCallStatus is returned when a transition names a status
	// outside the closed ringing/active/ended/declined set.
	ErrInvalidCallStatus = errors.New("invalid call status")

	// ErrCallInProgress is returned by Create when the concurrency policy
	// is strict and one of the parties already has an open call.
	ErrCallInProgress = errors.New("party already has an open call")

	// ErrMissingCallee is returned when a call is initiated without a callee.
	ErrMissingCallee = errors.New("calleeId is required")

	// ErrSelfCall is returned when a user attempts to call themselves.
	ErrSelfCall = errors.New("cannot call yourself")
)

// Voice room errors.
var (
	// ErrRoomNotFound indicates the room id is not part of the catalog.
	ErrRoomNotFound = errors.New("room not found")

	// ErrEmptyAudio is returned when a posted clip carries no payload.
	ErrEmptyAudio = errors.New("audio payload is empty")

	// ErrClipTooLarge is returned when a posted clip exceeds the configured
	// size cap.
	ErrClipTooLarge = errors.New("audio payload too large")
)
