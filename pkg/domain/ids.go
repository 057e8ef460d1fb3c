// Package domain holds the typed identifiers shared across vouch packages.
//
// Each identifier wraps a UUID in its own named type so an agency ID can never be
// passed where a worker ID is expected. Parse functions are the only trust-boundary
// entry points and reject empty, malformed and nil UUIDs.
package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "vouch/pkg/domain-errors"
)

// maxIDLength bounds input before it reaches the UUID parser. The longest accepted
// form is the braced/urn representation.
const maxIDLength = 45

type (
	AgencyID uuid.UUID
	WorkerID uuid.UUID
	ReviewID uuid.UUID
)

func (id AgencyID) String() string { return uuid.UUID(id).String() }
func (id AgencyID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id WorkerID) String() string { return uuid.UUID(id).String() }
func (id WorkerID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id ReviewID) String() string { return uuid.UUID(id).String() }
func (id ReviewID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// NewReviewID allocates a random review identifier.
func NewReviewID() ReviewID { return ReviewID(uuid.New()) }

func ParseAgencyID(s string) (AgencyID, error) { return parseID[AgencyID](s, "agency ID") }
func ParseWorkerID(s string) (WorkerID, error) { return parseID[WorkerID](s, "worker ID") }
func ParseReviewID(s string) (ReviewID, error) { return parseID[ReviewID](s, "review ID") }

func parseID[T ~[16]byte](s, kind string) (T, error) {
	var zero T
	if strings.TrimSpace(s) == "" {
		return zero, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength || !utf8.ValidString(s) {
		return zero, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return zero, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return zero, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return T(parsed), nil
}

// Text marshaling lets typed IDs appear as canonical UUID strings in JSON
// payloads (cache entries, events). Unmarshal accepts the nil UUID so zero
// values survive a round trip; trust-boundary input goes through Parse*.

func (id AgencyID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id WorkerID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ReviewID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *AgencyID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *WorkerID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ReviewID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
