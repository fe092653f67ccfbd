package repo

import (
	"context"
	"testing"

	"github.com/tbourn/go-voice-backend/internal/domain"
)

func TestListPeers_ExcludesSelfAndOrders(t *testing.T) {
	db := newRepoDB(t, &domain.User{})

	for _, u := range []domain.User{
		{ID: "u3", Username: "carol"},
		{ID: "u1", Username: "alice"},
		{ID: "u2", Username: "bob"},
	} {
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("seed %s: %v", u.ID, err)
		}
	}

	peers, err := ListPeers(context.Background(), db, "u2")
	if err != nil {
		t.Fatalf("ListPeers: %v", err)
	}
	if len(peers) != 2 || peers[0].Username != "alice" || peers[1].Username != "carol" {
		t.Fatalf("unexpected peers: %+v", peers)
	}
}

func TestUsernamesFor(t *testing.T) {
	db := newRepoDB(t, &domain.User{})

	if _, err := CreateUser(context.Background(), db, "u1", "alice"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Empty input short-circuits without touching the DB.
	m, err := UsernamesFor(context.Background(), db, nil)
	if err != nil || len(m) != 0 {
		t.Fatalf("empty ids: m=%v err=%v", m, err)
	}

	m, err = UsernamesFor(context.Background(), db, []string{"u1", "missing"})
	if err != nil {
		t.Fatalf("UsernamesFor: %v", err)
	}
	if m["u1"] != "alice" {
		t.Fatalf("u1 not resolved: %v", m)
	}
	if _, ok := m["missing"]; ok {
		t.Fatalf("unknown id present in result: %v", m)
	}
}
