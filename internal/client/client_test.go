package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tbourn/go-voice-backend/internal/domain"
)

func TestClient_SendsIdentityHeader(t *testing.T) {
	var gotUser, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get("X-User-ID")
		gotType = r.URL.Query().Get("type")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("null"))
	}))
	defer srv.Close()

	api := New(srv.URL, "u1")
	if _, err := api.Status(context.Background()); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if gotUser != "u1" {
		t.Fatalf("X-User-ID = %q", gotUser)
	}
	if gotType != "status" {
		t.Fatalf("type = %q", gotType)
	}
}

func TestClient_StatusNullMeansNoCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	}))
	defer srv.Close()

	call, err := New(srv.URL, "u1").Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if call != nil {
		t.Fatalf("expected nil call, got %+v", call)
	}
}

func TestClient_StatusDecodesCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Call{
			ID: 7, CallerID: "u1", CalleeID: "u2",
			Status: domain.StatusRinging, CallerUsername: "alice", CalleeUsername: "bob",
			CreatedAt: time.Now().UTC(),
		})
	}))
	defer srv.Close()

	call, err := New(srv.URL, "u2").Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if call == nil || call.ID != 7 || call.Status != domain.StatusRinging || call.CallerUsername != "alice" {
		t.Fatalf("unexpected call: %+v", call)
	}
}

func TestClient_ErrorEnvelopeBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"request_id":"rid","code":"not_found","message":"Call not found."}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "u1").GetCall(context.Background(), 9)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Code != "not_found" || apiErr.Message != "Call not found." {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
}

func TestClient_PostMessageEncodesBase64(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"message":"Message sent."}`))
	}))
	defer srv.Close()

	clip := []byte{0x00, 0xFF, 0x42}
	if err := New(srv.URL, "u1").PostMessage(context.Background(), "general", clip); err != nil {
		t.Fatalf("PostMessage: %v", err)
	}
	if body["roomId"] != "general" {
		t.Fatalf("roomId = %q", body["roomId"])
	}
	decoded, err := base64.StdEncoding.DecodeString(body["audioData"])
	if err != nil {
		t.Fatalf("audioData not base64: %v", err)
	}
	if string(decoded) != string(clip) {
		t.Fatalf("payload mangled: %x", decoded)
	}
}

func TestClient_MessagesSinceDecodesAudio(t *testing.T) {
	var gotSince string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSince = r.URL.Query().Get("since")
		// audio_data is wire-encoded base64; encoding/json decodes []byte.
		w.Write([]byte(`[{"id":1,"sender_id":"u1","sender_username":"alice","audio_data":"AAECAw==","created_at":"2025-06-01T12:00:00Z"}]`))
	}))
	defer srv.Close()

	since := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	msgs, err := New(srv.URL, "u2").MessagesSince(context.Background(), "general", since)
	if err != nil {
		t.Fatalf("MessagesSince: %v", err)
	}
	if gotSince != "2025-06-01T11:00:00Z" {
		t.Fatalf("since = %q", gotSince)
	}
	if len(msgs) != 1 || string(msgs[0].AudioData) != string([]byte{0, 1, 2, 3}) {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestClient_MembershipActions(t *testing.T) {
	var actions []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		actions = append(actions, body["action"])
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	api := New(srv.URL, "u1")
	if err := api.Join(context.Background(), "general"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := api.Leave(context.Background(), "general"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if len(actions) != 2 || actions[0] != "join" || actions[1] != "leave" {
		t.Fatalf("actions = %v", actions)
	}
}
