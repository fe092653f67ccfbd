// Package services – CallService
//
// This file implements the CallService, the signaling authority over the
// call ledger. It creates ringing records, answers status polls, and applies
// status transitions.
//
// Two behaviors are deliberate and load-bearing:
//
//   - Transition performs a blind overwrite of the stored status. Two
//     transitions racing (say a decline against an answer) resolve
//     last-write-wins; neither is rejected. Hardened compare-before-apply
//     semantics can be swapped in here without touching any caller.
//   - Transition does not verify the requester participates in the call,
//     unlike Get. The asymmetry is inherited from the system this replaces
//     and is kept until a product decision says otherwise.
//
// Service-level errors (e.g. ErrCallNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-voice-backend/internal/domain"
	"github.com/tbourn/go-voice-backend/internal/repo"
)

// CallRepo defines the ledger contract required by CallService.
// Implementations are responsible for persistence of call records.
type CallRepo interface {
	// CreateCall inserts a new ringing call record.
	CreateCall(ctx context.Context, db *gorm.DB, callerID, calleeID string) (*domain.Call, error)

	// GetCall fetches a call by id with no participation check.
	GetCall(ctx context.Context, db *gorm.DB, id uint) (*domain.Call, error)

	// GetCallForUser fetches a call by id ensuring userID is a party to it.
	GetCallForUser(ctx context.Context, db *gorm.DB, id uint, userID string) (*domain.Call, error)

	// LatestOpenCall returns the newest non-terminal call involving userID, or nil.
	LatestOpenCall(ctx context.Context, db *gorm.DB, userID string) (*domain.Call, error)

	// HasOpenCall reports whether userID has any non-terminal call.
	HasOpenCall(ctx context.Context, db *gorm.DB, userID string) (bool, error)

	// UpdateCallStatus overwrites the status and stamps timestamps.
	UpdateCallStatus(ctx context.Context, db *gorm.DB, id uint, status domain.CallStatus) (*domain.Call, error)
}

// CallView is a call decorated with the parties' display names, the shape
// polling clients render directly.
type CallView struct {
	domain.Call
	CallerUsername string `json:"caller_username"`
	CalleeUsername string `json:"callee_username"`
}

// CallService exposes the signaling operations over the call ledger.
type CallService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the call ledger repository used by this service.
	Repo CallRepo

	// AllowConcurrentCalls controls whether a party may hold several open
	// call records at once. The system this replaces never enforced
	// uniqueness, so true preserves its behavior; false rejects Create
	// with ErrCallInProgress when either party already has an open call.
	AllowConcurrentCalls bool
}

// NewCallService constructs a CallService with the permissive concurrency
// policy, matching the historical behavior.
func NewCallService(db *gorm.DB, r CallRepo) *CallService {
	return &CallService{DB: db, Repo: r, AllowConcurrentCalls: true}
}

// Create initiates a call from callerID to calleeID and returns the new
// ringing record. Validation precedes any write; under the strict
// concurrency policy an open call on either side rejects the creation.
func (s *CallService) Create(ctx context.Context, callerID, calleeID string) (*CallView, error) {
	tr := otel.Tracer("services/CallService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("call.caller_id", callerID),
			attribute.String("call.callee_id", calleeID),
		),
	)
	defer span.End()

	if calleeID == "" {
		return nil, ErrMissingCallee
	}
	if calleeID == callerID {
		return nil, ErrSelfCall
	}

	if !s.AllowConcurrentCalls {
		for _, id := range []string{callerID, calleeID} {
			open, err := s.Repo.HasOpenCall(ctx, s.DB, id)
			if err != nil {
				return nil, err
			}
			if open {
				return nil, ErrCallInProgress
			}
		}
	}

	c, err := s.Repo.CreateCall(ctx, s.DB, callerID, calleeID)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, c)
}

// StatusFor returns the newest call involving userID whose status is not
// terminal, or (nil, nil) when the user has no open call. This single value
// is what every poll tick renders: a ringing call where userID is the
// callee doubles as the incoming-call prompt.
func (s *CallService) StatusFor(ctx context.Context, userID string) (*CallView, error) {
	tr := otel.Tracer("services/CallService")
	ctx, span := tr.Start(ctx, "StatusFor",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	c, err := s.Repo.LatestOpenCall(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	return s.decorate(ctx, c)
}

// Get fetches a call by id on behalf of requesterID. A call the requester
// is not a party to is reported as ErrCallNotFound.
func (s *CallService) Get(ctx context.Context, id uint, requesterID string) (*CallView, error) {
	c, err := s.Repo.GetCallForUser(ctx, s.DB, id, requesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, err
	}
	return s.decorate(ctx, c)
}

// Transition applies newStatus to call id. The raw status is validated at
// this boundary; past it only domain.CallStatus values circulate. The
// overwrite itself is blind (see the package comment) and answered_at /
// ended_at stamping happens in the ledger repository.
func (s *CallService) Transition(ctx context.Context, id uint, rawStatus string) (*CallView, error) {
	tr := otel.Tracer("services/CallService")
	ctx, span := tr.Start(ctx, "Transition",
		trace.WithAttributes(
			attribute.Int("call.id", int(id)),
			attribute.String("call.status", rawStatus),
		),
	)
	defer span.End()

	status, err := domain.ParseCallStatus(rawStatus)
	if err != nil {
		return nil, ErrInvalidCallStatus
	}

	c, err := s.Repo.UpdateCallStatus(ctx, s.DB, id, status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, err
	}
	return s.decorate(ctx, c)
}

// Peers lists the users that userID can call, ordered by username.
func (s *CallService) Peers(ctx context.Context, userID string) ([]domain.User, error) {
	return repo.ListPeers(ctx, s.DB, userID)
}

// decorate joins the parties' display names onto a ledger row. Missing
// directory entries leave the username fields empty rather than failing the
// signaling operation.
func (s *CallService) decorate(ctx context.Context, c *domain.Call) (*CallView, error) {
	names, err := repo.UsernamesFor(ctx, s.DB, []string{c.CallerID, c.CalleeID})
	if err != nil {
		return nil, err
	}
	return &CallView{
		Call:           *c,
		CallerUsername: names[c.CallerID],
		CalleeUsername: names[c.CalleeID],
	}, nil
}
