// internal/synccode/codec.go

// Package synccode converts an account record into a short-lived text token
// that can be pasted into another device, and back.
//
// A token is the standard base64 encoding of the JSON object
// {"t": <unix millis>, "d": <account record>}. Decoding is a pure function of
// the token and the caller's clock; nothing is stored.
package synccode

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"novapay-wallet/internal/domain"
)

// ValidityWindow is how long a token stays importable after its timestamp.
const ValidityWindow = 5 * time.Minute

var (
	ErrInvalidFormat           = errors.New("sync code is not a valid code")
	ErrUnsupportedLegacyFormat = errors.New("sync code format is no longer supported")
	ErrExpired                 = errors.New("sync code has expired")
	ErrInvalidRecord           = errors.New("sync code does not contain a valid account")
)

// Payload is a decoded token.
type Payload struct {
	Timestamp time.Time
	User      *domain.User
}

type envelope struct {
	T int64        `json:"t"`
	D *domain.User `json:"d"`
}

// Encode serializes user stamped with t. The output is deterministic for fixed inputs.
func Encode(user *domain.User, t time.Time) (string, error) {
	if user == nil {
		return "", fmt.Errorf("encode sync code: %w", ErrInvalidRecord)
	}
	raw, err := json.Marshal(envelope{T: t.UnixMilli(), D: user})
	if err != nil {
		return "", fmt.Errorf("encode sync code: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode parses token and validates it against now.
// Checks run in order: structure, legacy shape, expiry, record contents.
func Decode(token string, now time.Time) (*Payload, error) {
	compact := strings.Join(strings.Fields(token), "")
	if compact == "" {
		return nil, ErrInvalidFormat
	}
	raw, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, ErrInvalidFormat
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, ErrInvalidFormat
	}

	ts, hasT := timestampField(fields["t"])
	record, hasD := present(fields["d"])
	if !hasT || !hasD {
		if _, legacy := present(fields["email"]); legacy {
			return nil, ErrUnsupportedLegacyFormat
		}
		return nil, ErrInvalidFormat
	}

	if now.UnixMilli()-ts > ValidityWindow.Milliseconds() {
		return nil, ErrExpired
	}

	user, err := decodeRecord(record)
	if err != nil {
		return nil, err
	}
	return &Payload{Timestamp: time.UnixMilli(ts).UTC(), User: user}, nil
}

// ExpiresAt is the last instant a token stamped with t is accepted.
func ExpiresAt(t time.Time) time.Time {
	return t.Add(ValidityWindow)
}

// WindowStart rounds now down to the start of its validity window, so a code
// shown to the user only changes once per window.
func WindowStart(now time.Time) time.Time {
	return now.Truncate(ValidityWindow)
}

func decodeRecord(raw json.RawMessage) (*domain.User, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, ErrInvalidRecord
	}
	if _, ok := present(fields["balance"]); !ok {
		return nil, ErrInvalidRecord
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, ErrInvalidRecord
	}
	if strings.TrimSpace(user.Email) == "" {
		return nil, ErrInvalidRecord
	}
	return &user, nil
}

// timestampField accepts a positive JSON number.
func timestampField(raw json.RawMessage) (int64, bool) {
	if _, ok := present(raw); !ok {
		return 0, false
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return 0, false
	}
	if ms, err := n.Int64(); err == nil && ms > 0 {
		return ms, true
	}
	if f, err := n.Float64(); err == nil && f > 0 {
		return int64(f), true
	}
	return 0, false
}

func present(raw json.RawMessage) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}
	return trimmed, true
}
