package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys of the verification service reply.
const (
	FieldScore       = "score"
	FieldHasLied     = "hasLied"
	FieldBot         = "bot"
	FieldFingerprint = "fingerprint"
)

var (
	// ErrMalformedResponse is returned when the reply body is not a JSON object.
	ErrMalformedResponse = errors.New("verification response is not a JSON object")

	// ErrMissingField is returned when one of the four required keys is
	// absent or null.
	ErrMissingField = errors.New("verification response is missing a required field")
)

// VerificationResponse is the parsed reply of the verification service.
// The four values are kept as raw JSON so they reach the output record
// with their original types.
type VerificationResponse struct {
	Raw         json.RawMessage
	Score       json.RawMessage
	HasLied     json.RawMessage
	Bot         json.RawMessage
	Fingerprint json.RawMessage
}

// ParseVerificationResponse parses body and checks that score, hasLied,
// bot and fingerprint are present and not null. Their types are not checked.
func ParseVerificationResponse(body []byte) (*VerificationResponse, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if fields == nil {
		return nil, ErrMalformedResponse
	}

	get := func(key string) (json.RawMessage, error) {
		v, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, key)
		}
		return v, nil
	}

	resp := &VerificationResponse{Raw: json.RawMessage(body)}
	var err error
	if resp.Score, err = get(FieldScore); err != nil {
		return nil, err
	}
	if resp.HasLied, err = get(FieldHasLied); err != nil {
		return nil, err
	}
	if resp.Bot, err = get(FieldBot); err != nil {
		return nil, err
	}
	if resp.Fingerprint, err = get(FieldFingerprint); err != nil {
		return nil, err
	}
	return resp, nil
}

// Record maps the response onto the output record.
func (r *VerificationResponse) Record() OutputRecord {
	return OutputRecord{
		TrustScore:  r.Score,
		Lies:        r.HasLied,
		Bot:         r.Bot,
		Fingerprint: r.Fingerprint,
	}
}

// OutputRecord is the document written to output_<i>.json.
// It has exactly these four fields.
type OutputRecord struct {
	TrustScore  json.RawMessage `json:"trustScore"`
	Lies        json.RawMessage `json:"lies"`
	Bot         json.RawMessage `json:"bot"`
	Fingerprint json.RawMessage `json:"fingerprint"`
}
