package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-voice-backend/internal/domain"
	"github.com/tbourn/go-voice-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:callsvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Call{}, &domain.VoiceRoom{}, &domain.Participant{}, &domain.VoiceMessage{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUsers(t *testing.T, db *gorm.DB, users map[string]string) {
	t.Helper()
	for id, name := range users {
		if _, err := repo.CreateUser(context.Background(), db, id, name); err != nil {
			t.Fatalf("seed user %s: %v", id, err)
		}
	}
}

// Shim implementing CallRepo over the repo package, the same shape the
// router wires in.
type testCallRepo struct{}

func (testCallRepo) CreateCall(ctx context.Context, db *gorm.DB, callerID, calleeID string) (*domain.Call, error) {
	return repo.CreateCall(ctx, db, callerID, calleeID)
}

func (testCallRepo) GetCall(ctx context.Context, db *gorm.DB, id uint) (*domain.Call, error) {
	return repo.GetCall(ctx, db, id)
}

func (testCallRepo) GetCallForUser(ctx context.Context, db *gorm.DB, id uint, userID string) (*domain.Call, error) {
	return repo.GetCallForUser(ctx, db, id, userID)
}

func (testCallRepo) LatestOpenCall(ctx context.Context, db *gorm.DB, userID string) (*domain.Call, error) {
	return repo.LatestOpenCall(ctx, db, userID)
}

func (testCallRepo) HasOpenCall(ctx context.Context, db *gorm.DB, userID string) (bool, error) {
	return repo.HasOpenCall(ctx, db, userID)
}

func (testCallRepo) UpdateCallStatus(ctx context.Context, db *gorm.DB, id uint, status domain.CallStatus) (*domain.Call, error) {
	return repo.UpdateCallStatus(ctx, db, id, status)
}

func newCallSvc(t *testing.T) (*CallService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewCallService(db, testCallRepo{}), db
}

func TestCallCreate_Validation(t *testing.T) {
	svc, _ := newCallSvc(t)

	if _, err := svc.Create(context.Background(), "alice", ""); !errors.Is(err, ErrMissingCallee) {
		t.Fatalf("empty callee: got %v", err)
	}
	if _, err := svc.Create(context.Background(), "alice", "alice"); !errors.Is(err, ErrSelfCall) {
		t.Fatalf("self call: got %v", err)
	}
}

func TestCallCreate_RingsAndDecorates(t *testing.T) {
	svc, db := newCallSvc(t)
	seedUsers(t, db, map[string]string{"alice": "Alice", "bob": "Bob"})

	view, err := svc.Create(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if view.Status != domain.StatusRinging || view.CallerID != "alice" || view.CalleeID != "bob" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.CallerUsername != "Alice" || view.CalleeUsername != "Bob" {
		t.Fatalf("usernames not joined: %+v", view)
	}
}

func TestCallCreate_UnknownPartiesStillRing(t *testing.T) {
	svc, _ := newCallSvc(t)

	// No directory entries seeded; decoration degrades to empty names
	// instead of failing the signaling operation.
	view, err := svc.Create(context.Background(), "ghost1", "ghost2")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if view.CallerUsername != "" || view.CalleeUsername != "" {
		t.Fatalf("expected empty usernames: %+v", view)
	}
}

func TestCallCreate_ConcurrencyPolicy(t *testing.T) {
	svc, db := newCallSvc(t)
	seedUsers(t, db, map[string]string{"alice": "Alice", "bob": "Bob", "carol": "Carol"})

	first, err := svc.Create(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}

	// Permissive policy (the default) lets overlapping calls through.
	if _, err := svc.Create(context.Background(), "alice", "carol"); err != nil {
		t.Fatalf("permissive overlap: %v", err)
	}

	// Strict policy rejects while either party has an open call.
	svc.AllowConcurrentCalls = false
	if _, err := svc.Create(context.Background(), "carol", "bob"); !errors.Is(err, ErrCallInProgress) {
		t.Fatalf("strict callee busy: got %v", err)
	}
	if _, err := svc.Create(context.Background(), "alice", "carol"); !errors.Is(err, ErrCallInProgress) {
		t.Fatalf("strict caller busy: got %v", err)
	}

	// Terminal transitions release the parties.
	if _, err := svc.Transition(context.Background(), first.ID, "ended"); err != nil {
		t.Fatalf("end first: %v", err)
	}
	if _, err := svc.Transition(context.Background(), first.ID+1, "ended"); err != nil {
		t.Fatalf("end second: %v", err)
	}
	if _, err := svc.Create(context.Background(), "carol", "bob"); err != nil {
		t.Fatalf("strict after release: %v", err)
	}
}

func TestStatusFor_NilWhenIdle(t *testing.T) {
	svc, _ := newCallSvc(t)

	view, err := svc.StatusFor(context.Background(), "alice")
	if err != nil {
		t.Fatalf("StatusFor: %v", err)
	}
	if view != nil {
		t.Fatalf("expected nil view, got %+v", view)
	}
}

func TestStatusFor_TracksTheNewestOpenCall(t *testing.T) {
	svc, db := newCallSvc(t)
	seedUsers(t, db, map[string]string{"alice": "Alice", "bob": "Bob"})

	created, err := svc.Create(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Both parties observe the same ringing record.
	for _, uid := range []string{"alice", "bob"} {
		view, err := svc.StatusFor(context.Background(), uid)
		if err != nil {
			t.Fatalf("StatusFor(%s): %v", uid, err)
		}
		if view == nil || view.ID != created.ID || view.Status != domain.StatusRinging {
			t.Fatalf("poll for %s: %+v", uid, view)
		}
	}

	// A decline by the callee disappears from the caller's next poll.
	if _, err := svc.Transition(context.Background(), created.ID, "declined"); err != nil {
		t.Fatalf("decline: %v", err)
	}
	view, err := svc.StatusFor(context.Background(), "alice")
	if err != nil {
		t.Fatalf("StatusFor after decline: %v", err)
	}
	if view != nil {
		t.Fatalf("declined call still visible: %+v", view)
	}
}

func TestCallGet_PartyScoping(t *testing.T) {
	svc, db := newCallSvc(t)
	seedUsers(t, db, map[string]string{"alice": "Alice", "bob": "Bob"})

	created, err := svc.Create(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.Get(context.Background(), created.ID, "bob")
	if err != nil {
		t.Fatalf("Get as callee: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("wrong call: %+v", got)
	}

	if _, err := svc.Get(context.Background(), created.ID, "mallory"); !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("third party: got %v", err)
	}
	if _, err := svc.Get(context.Background(), 9999, "alice"); !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("missing id: got %v", err)
	}
}

func TestTransition_ValidatesAtTheBoundary(t *testing.T) {
	svc, _ := newCallSvc(t)

	for _, s := range []string{"", "busy", "ACTIVE", "ringing "} {
		if _, err := svc.Transition(context.Background(), 1, s); !errors.Is(err, ErrInvalidCallStatus) {
			t.Fatalf("Transition(%q): got %v", s, err)
		}
	}

	if _, err := svc.Transition(context.Background(), 9999, "ended"); !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("missing call: got %v", err)
	}
}

func TestTransition_AnswerStampsAndDecorates(t *testing.T) {
	svc, db := newCallSvc(t)
	seedUsers(t, db, map[string]string{"alice": "Alice", "bob": "Bob"})

	created, err := svc.Create(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	view, err := svc.Transition(context.Background(), created.ID, "active")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if view.Status != domain.StatusActive || view.AnsweredAt == nil {
		t.Fatalf("answer not recorded: %+v", view)
	}
	if time.Since(*view.AnsweredAt) > time.Minute {
		t.Fatalf("stale answered_at: %v", view.AnsweredAt)
	}
	if view.CallerUsername != "Alice" || view.CalleeUsername != "Bob" {
		t.Fatalf("usernames not joined: %+v", view)
	}
}

func TestPeers(t *testing.T) {
	svc, db := newCallSvc(t)
	seedUsers(t, db, map[string]string{"u1": "alice", "u2": "bob", "u3": "carol"})

	peers, err := svc.Peers(context.Background(), "u2")
	if err != nil {
		t.Fatalf("Peers: %v", err)
	}
	if len(peers) != 2 || peers[0].Username != "alice" || peers[1].Username != "carol" {
		t.Fatalf("unexpected peers: %+v", peers)
	}
}

// Error-injecting repo stub for the unexpected-DB-error paths.
type errCallRepo struct {
	testCallRepo
	err error
}

func (r errCallRepo) HasOpenCall(ctx context.Context, db *gorm.DB, userID string) (bool, error) {
	return false, r.err
}

func (r errCallRepo) LatestOpenCall(ctx context.Context, db *gorm.DB, userID string) (*domain.Call, error) {
	return nil, r.err
}

func TestCallService_BubblesRepoErrors(t *testing.T) {
	db := newTestDB(t)
	boom := errors.New("boom")
	svc := &CallService{DB: db, Repo: errCallRepo{err: boom}}

	if _, err := svc.Create(context.Background(), "a", "b"); !errors.Is(err, boom) {
		t.Fatalf("Create under strict policy: got %v", err)
	}
	if _, err := svc.StatusFor(context.Background(), "a"); !errors.Is(err, boom) {
		t.Fatalf("StatusFor: got %v", err)
	}
}
