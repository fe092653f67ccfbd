package domain

import "fmt"

// CallStatus is the closed set of states a call can be in. New values must
// never be introduced at runtime; everything arriving over the wire goes
// through ParseCallStatus.
type CallStatus string

const (
	// StatusRinging is the initial state of every call.
	StatusRinging CallStatus = "ringing"
	// StatusActive means the callee answered and the call is ongoing.
	StatusActive CallStatus = "active"
	// StatusEnded means either party hung up. Terminal.
	StatusEnded CallStatus = "ended"
	// StatusDeclined means the callee rejected the ring. Terminal.
	StatusDeclined CallStatus = "declined"
)

// ParseCallStatus validates a raw string against the closed status set.
// It is the only place where a CallStatus is constructed from outside input.
func ParseCallStatus(s string) (CallStatus, error) {
	switch CallStatus(s) {
	case StatusRinging, StatusActive, StatusEnded, StatusDeclined:
		return CallStatus(s), nil
	}
	return "", fmt.Errorf("invalid call status %q", s)
}

// Terminal reports whether no further transitions are accepted from s.
func (s CallStatus) Terminal() bool {
	return s == StatusEnded || s == StatusDeclined
}

// String implements fmt.Stringer.
func (s CallStatus) String() string { return string(s) }
