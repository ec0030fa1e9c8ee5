package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/inspectra/pkg/httpclient"
)

// Envelope is the backend's response wrapper.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Error is a failure reported by the backend inside the envelope. Err holds
// the underlying client error when the request itself failed.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

var ErrEmptyResponse = errors.New("api: empty response body")

// Session is the credential slot login writes and logout clears.
type Session interface {
	Save(token string) error
	Clear() error
}

// API groups the typed services. Scoped serves paths below /api, Direct the
// rest of the origin.
type API struct {
	Auth        *AuthService
	Profile     *ProfileService
	Defects     *DefectService
	Inspections *InspectionService
	Users       *UserService
	Detection   *DetectionService
	Analytics   *AnalyticsService
	System      *SystemService
}

// New wires every service over the two clients.
func New(scoped, direct httpclient.Client, session Session) *API {
	return &API{
		Auth:        &AuthService{c: scoped, session: session},
		Profile:     &ProfileService{c: scoped},
		Defects:     &DefectService{c: scoped},
		Inspections: &InspectionService{c: scoped},
		Users:       &UserService{c: scoped},
		Detection:   &DetectionService{c: scoped},
		Analytics:   &AnalyticsService{c: scoped},
		System:      &SystemService{c: direct},
	}
}

// call dispatches req and decodes the envelope's data into out (may be nil).
func call(ctx context.Context, c httpclient.Client, req *httpclient.Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return withEnvelopeMessage(err)
	}
	return DecodeEnvelope(resp.Body(), out)
}

// DecodeEnvelope unwraps body and decodes its data into out.
func DecodeEnvelope(body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		if out == nil {
			return nil
		}
		return ErrEmptyResponse
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}
	if !env.Success {
		return &Error{Message: envelopeMessage(env, "request unsuccessful")}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// withEnvelopeMessage attaches the backend's error text to a failed request
// while keeping the client error in the chain.
func withEnvelopeMessage(err error) error {
	e, ok := httpclient.AsError(err)
	if !ok || len(e.Body) == 0 {
		return err
	}
	var env Envelope
	if json.Unmarshal(e.Body, &env) != nil {
		return err
	}
	msg := envelopeMessage(env, "")
	if msg == "" {
		return err
	}
	return &Error{Message: msg, Err: err}
}

func envelopeMessage(env Envelope, fallback string) string {
	if msg := strings.TrimSpace(env.Error); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(env.Message); msg != "" {
		return msg
	}
	return fallback
}
