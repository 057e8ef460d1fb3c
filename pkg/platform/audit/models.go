package audit

import (
	"context"
	"time"

	id "vouch/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// access to and mutation of identity documents.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring, such as
	// identity tokens that fail to decrypt.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine moderation activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It never carries
// identity document values or review text.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	WorkerID  id.WorkerID
	// Subject names the affected record, e.g. "identity:passport" or a review ID.
	Subject string
	Action  string
	Reason  string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
	// ActorID records who performed the action when different from WorkerID.
	ActorID string
}

type AuditEvent string

const (
	// Identity events
	EventIdentityStored        AuditEvent = "identity_stored"
	EventIdentityCleared       AuditEvent = "identity_cleared"
	EventIdentityRead          AuditEvent = "identity_read"
	EventIdentityDecryptFailed AuditEvent = "identity_decrypt_failed"

	// Review moderation events
	EventReviewModerated AuditEvent = "review_moderated"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventIdentityStored:        CategoryCompliance,
	EventIdentityCleared:       CategoryCompliance,
	EventIdentityRead:          CategoryCompliance,
	EventIdentityDecryptFailed: CategorySecurity,
	EventReviewModerated:       CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByWorker(ctx context.Context, workerID id.WorkerID) ([]Event, error)
}
