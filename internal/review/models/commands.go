package models

import (
	"time"

	id "vouch/pkg/domain"
)

// SubmitCommand carries a new review. Comment is raw user input and is
// sanitized by the service before validation.
type SubmitCommand struct {
	AgencyID    id.AgencyID
	WorkerID    id.WorkerID
	Rating      int
	Comment     string
	IsAnonymous bool
}

// UpdateCommand carries an author's partial edit. Nil fields are left unchanged.
type UpdateCommand struct {
	Rating      *int
	Comment     *string
	IsAnonymous *bool
}

// ListFilter narrows ListByAgency. An empty Status returns every status.
type ListFilter struct {
	Status Status
}

// Event types published to the review stream.
const (
	EventSubmitted = "review.submitted"
	EventUpdated   = "review.updated"
	EventModerated = "review.moderated"
)

// Event is the payload published whenever a review changes in a way that can
// move the agency aggregate. It never carries the comment or worker identity.
type Event struct {
	Type               string    `json:"type"`
	ReviewID           string    `json:"review_id"`
	AgencyID           string    `json:"agency_id"`
	Rating             int       `json:"rating"`
	Status             string    `json:"status"`
	VerificationStatus string    `json:"verification_status"`
	Action             string    `json:"action,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// NewEvent builds an Event describing the current state of r.
func NewEvent(eventType string, r *Review, action ModerationAction, now time.Time) Event {
	return Event{
		Type:               eventType,
		ReviewID:           r.ID.String(),
		AgencyID:           r.AgencyID.String(),
		Rating:             r.Rating,
		Status:             r.Status.String(),
		VerificationStatus: r.VerificationStatus.String(),
		Action:             action.String(),
		OccurredAt:         now.UTC(),
	}
}
