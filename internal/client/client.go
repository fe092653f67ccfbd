// Package client implements the polling side of the protocol: a thin HTTP
// API client plus the stateful pieces a frontend embeds. Those are the
// call monitor (incoming/active call state), the room session (presence
// and message polling with a watermark), and the audio playback queue.
//
// There is no push transport. Every piece of shared state is observed by
// re-fetching it on a timer, and every timer is owned by the session or
// view that created it: stopping an owner synchronously guarantees no
// further polls fire.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tbourn/go-voice-backend/internal/domain"
)

// Call is a signaling record as served by the backend, decorated with the
// parties' display names.
type Call struct {
	ID             uint              `json:"id"`
	CallerID       string            `json:"caller_id"`
	CalleeID       string            `json:"callee_id"`
	Status         domain.CallStatus `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	AnsweredAt     *time.Time        `json:"answered_at,omitempty"`
	EndedAt        *time.Time        `json:"ended_at,omitempty"`
	CallerUsername string            `json:"caller_username"`
	CalleeUsername string            `json:"callee_username"`
}

// Peer is one callable user from the directory.
type Peer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Room is one entry of the room catalog.
type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Participant is one present member of a room.
type Participant struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// VoiceMessage is one relay clip. AudioData is raw bytes; encoding/json
// handles the base64 wire form transparently.
type VoiceMessage struct {
	ID             uint      `json:"id"`
	SenderID       string    `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	AudioData      []byte    `json:"audio_data"`
	CreatedAt      time.Time `json:"created_at"`
}

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
}

// Client is the HTTP API client. It carries the identity of exactly one
// user; the identity is threaded explicitly rather than read from any
// ambient global.
type Client struct {
	// BaseURL is the API root including the base path, e.g.
	// "http://localhost:8080/api/v1".
	BaseURL string
	// UserID is the opaque identity sent as X-User-ID on every request.
	UserID string
	// HTTPClient defaults to a client with a 10 s timeout.
	HTTPClient *http.Client
}

// New constructs a Client for one user.
func New(baseURL, userID string) *Client {
	return &Client{
		BaseURL:    baseURL,
		UserID:     userID,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// do issues one request and decodes the JSON response into out (when out is
// non-nil). Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("X-User-ID", c.UserID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpc := c.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

//
// Call signaling
//

// Status returns the user's newest open call, or nil when there is none.
func (c *Client) Status(ctx context.Context) (*Call, error) {
	var call *Call
	q := url.Values{"type": {"status"}}
	if err := c.do(ctx, http.MethodGet, "/calls", q, nil, &call); err != nil {
		return nil, err
	}
	return call, nil
}

// CreateCall initiates a ringing call to calleeID.
func (c *Client) CreateCall(ctx context.Context, calleeID string) (*Call, error) {
	var call Call
	q := url.Values{"type": {"call"}}
	body := map[string]string{"calleeId": calleeID}
	if err := c.do(ctx, http.MethodPost, "/calls", q, body, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

// GetCall fetches one call the user participates in.
func (c *Client) GetCall(ctx context.Context, id uint) (*Call, error) {
	var call Call
	q := url.Values{"id": {fmt.Sprint(id)}}
	if err := c.do(ctx, http.MethodGet, "/calls", q, nil, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

// Transition submits a status transition for call id and returns the
// updated record.
func (c *Client) Transition(ctx context.Context, id uint, status domain.CallStatus) (*Call, error) {
	var call Call
	q := url.Values{"id": {fmt.Sprint(id)}}
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, http.MethodPut, "/calls", q, body, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

// Peers lists the users this client can call.
func (c *Client) Peers(ctx context.Context) ([]Peer, error) {
	var out []Peer
	q := url.Values{"type": {"users"}}
	if err := c.do(ctx, http.MethodGet, "/calls", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

//
// Voice rooms
//

// Rooms lists the room catalog.
func (c *Client) Rooms(ctx context.Context) ([]Room, error) {
	var out []Room
	q := url.Values{"type": {"rooms"}}
	if err := c.do(ctx, http.MethodGet, "/voice", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Participants lists the present members of roomID.
func (c *Client) Participants(ctx context.Context, roomID string) ([]Participant, error) {
	var out []Participant
	q := url.Values{"type": {"participants"}, "roomId": {roomID}}
	if err := c.do(ctx, http.MethodGet, "/voice", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MessagesSince returns the clips in roomID strictly newer than since, in
// delivery order.
func (c *Client) MessagesSince(ctx context.Context, roomID string, since time.Time) ([]VoiceMessage, error) {
	var out []VoiceMessage
	q := url.Values{
		"type":   {"messages"},
		"roomId": {roomID},
		"since":  {since.UTC().Format(time.RFC3339Nano)},
	}
	if err := c.do(ctx, http.MethodGet, "/voice", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PostMessage uploads one recorded clip to roomID.
func (c *Client) PostMessage(ctx context.Context, roomID string, audio []byte) error {
	q := url.Values{"type": {"message"}}
	body := map[string]string{
		"roomId":    roomID,
		"audioData": base64.StdEncoding.EncodeToString(audio),
	}
	return c.do(ctx, http.MethodPost, "/voice", q, body, nil)
}

// Join records presence in roomID. Idempotent.
func (c *Client) Join(ctx context.Context, roomID string) error {
	body := map[string]string{"roomId": roomID, "action": "join"}
	return c.do(ctx, http.MethodPost, "/voice", nil, body, nil)
}

// Leave removes presence from roomID. Idempotent.
func (c *Client) Leave(ctx context.Context, roomID string) error {
	body := map[string]string{"roomId": roomID, "action": "leave"}
	return c.do(ctx, http.MethodPost, "/voice", nil, body, nil)
}
