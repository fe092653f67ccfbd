// Call signaling HTTP handlers.
//
// This file exposes the REST surface of the call ledger:
//   - POST /calls?type=call      (initiate)
//   - GET  /calls?type=status    (poll own status)
//   - GET  /calls?type=users     (callable peers)
//   - GET  /calls?id=N           (fetch one call)
//   - PUT  /calls?id=N           (transition status)
//
// The query-style dispatch mirrors the wire contract the polling clients
// already speak. Handlers are transport-thin: they validate input, call the
// signaling service, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-voice-backend/internal/domain"
	"github.com/tbourn/go-voice-backend/internal/http/middleware"
	"github.com/tbourn/go-voice-backend/internal/repo"
	"github.com/tbourn/go-voice-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// CallService defines the signaling operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CallService interface {
	// Create initiates a ringing call from callerID to calleeID.
	Create(ctx context.Context, callerID, calleeID string) (*services.CallView, error)
	// StatusFor returns the newest non-terminal call involving userID, or nil.
	StatusFor(ctx context.Context, userID string) (*services.CallView, error)
	// Get fetches a call by id, requiring requesterID to be a party to it.
	Get(ctx context.Context, id uint, requesterID string) (*services.CallView, error)
	// Transition applies a raw status to call id (validated at the boundary).
	Transition(ctx context.Context, id uint, rawStatus string) (*services.CallView, error)
	// Peers lists the users that userID can call.
	Peers(ctx context.Context, userID string) ([]domain.User, error)
}

// RoomService defines room catalog and presence operations.
type RoomService interface {
	Rooms(ctx context.Context) ([]domain.VoiceRoom, error)
	Join(ctx context.Context, roomID, userID string) error
	Leave(ctx context.Context, roomID, userID string) error
	Participants(ctx context.Context, roomID string) ([]repo.RoomParticipant, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for calls and voice rooms. It depends
// on abstract service interfaces to keep transport concerns separate from
// signaling logic.
type Handlers struct {
	callSvc  CallService
	roomSvc  RoomService
	voiceSvc VoiceService
}

// New constructs a Handlers instance bound to the given services.
func New(callSvc CallService, roomSvc RoomService, voiceSvc VoiceService) *Handlers {
	return &Handlers{callSvc: callSvc, roomSvc: roomSvc, voiceSvc: voiceSvc}
}

//
// DTOs
//

// CreateCallRequest is the JSON payload for initiating a call.
type CreateCallRequest struct {
	// CalleeID identifies the user being called.
	CalleeID string `json:"calleeId"`
}

// TransitionCallRequest is the JSON payload for a status transition.
type TransitionCallRequest struct {
	// Status is the target state: ringing, active, ended, or declined.
	Status string `json:"status"`
}

//
// Handlers
//

// GetCalls dispatches GET /calls on its query parameters: type=status polls
// the caller's own state, type=users lists callable peers, and id=N fetches
// one call the requester participates in.
func (h *Handlers) GetCalls(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)

	switch c.Query("type") {
	case "status":
		view, err := h.callSvc.StatusFor(ctx, uid)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "Internal Server Error")
			return
		}
		// view is nil between calls; the poller expects a literal null.
		ok(c, http.StatusOK, view)
		return
	case "users":
		peers, err := h.callSvc.Peers(ctx, uid)
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "Internal Server Error")
			return
		}
		ok(c, http.StatusOK, peers)
		return
	}

	if raw := c.Query("id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "call id must be an integer")
			return
		}
		view, err := h.callSvc.Get(ctx, uint(id), uid)
		if err != nil {
			if errors.Is(err, services.ErrCallNotFound) {
				fail(c, http.StatusNotFound, ErrCodeNotFound, "Call not found.")
				return
			}
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "Internal Server Error")
			return
		}
		ok(c, http.StatusOK, view)
		return
	}

	fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid GET request type.")
}

// CreateCall handles POST /calls?type=call and returns the new ringing
// record. The strict concurrency policy, when enabled, answers 409.
func (h *Handlers) CreateCall(c *gin.Context) {
	if c.Query("type") != "call" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid POST request type.")
		return
	}

	var req CreateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	view, err := h.callSvc.Create(c.Request.Context(), middleware.UserID(c), req.CalleeID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingCallee):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "calleeId is required.")
		case errors.Is(err, services.ErrSelfCall):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot call yourself")
		case errors.Is(err, services.ErrCallInProgress):
			fail(c, http.StatusConflict, ErrCodeCallInProgress, "party already has an open call")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "Internal Server Error")
		}
		return
	}
	ok(c, http.StatusCreated, view)
}

// TransitionCall handles PUT /calls?id=N. The stored status is overwritten
// last-write-wins; out-of-order or duplicate transitions are accepted by
// design, so the only rejections here are an unknown status or id.
func (h *Handlers) TransitionCall(c *gin.Context) {
	raw := c.Query("id")
	if raw == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "call id is required")
		return
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "call id must be an integer")
		return
	}

	var req TransitionCallRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "A valid status is required.")
		return
	}

	view, err := h.callSvc.Transition(c.Request.Context(), uint(id), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCallStatus):
			fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, "A valid status is required.")
		case errors.Is(err, services.ErrCallNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "Call not found.")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "Internal Server Error")
		}
		return
	}
	ok(c, http.StatusOK, view)
}
