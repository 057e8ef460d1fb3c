package models

import (
	dErrors "vouch/pkg/domain-errors"
)

// Status is the moderation axis of a review.
type Status string

const (
	StatusActive  Status = "active"
	StatusHidden  Status = "hidden"
	StatusDeleted Status = "deleted"
)

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusHidden, StatusDeleted:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus creates a Status from a string, validating it.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid review status: must be 'active', 'hidden' or 'deleted'")
	}
	return st, nil
}

// VerificationStatus is orthogonal to Status. It records whether an
// employment relationship behind the review has been confirmed.
type VerificationStatus string

const (
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
	VerificationUnverified VerificationStatus = "unverified"
)

// IsValid checks if the verification status is one of the supported enum values.
func (v VerificationStatus) IsValid() bool {
	switch v {
	case VerificationPending, VerificationVerified, VerificationUnverified:
		return true
	}
	return false
}

func (v VerificationStatus) String() string {
	return string(v)
}

// ModerationAction is a command accepted by Review.Moderate.
type ModerationAction string

const (
	ActionHide         ModerationAction = "hide"
	ActionRestore      ModerationAction = "restore"
	ActionSoftDelete   ModerationAction = "soft_delete"
	ActionVerify       ModerationAction = "verify"
	ActionUnverify     ModerationAction = "unverify"
	ActionClearReports ModerationAction = "clear_reports"
)

// IsValid checks if the action is one of the supported enum values.
func (a ModerationAction) IsValid() bool {
	switch a {
	case ActionHide, ActionRestore, ActionSoftDelete, ActionVerify, ActionUnverify, ActionClearReports:
		return true
	}
	return false
}

func (a ModerationAction) String() string {
	return string(a)
}

// AffectsAggregate reports whether applying the action can change the
// agency rating aggregate.
func (a ModerationAction) AffectsAggregate() bool {
	return a != ActionClearReports
}

// ParseModerationAction creates a ModerationAction from a string, validating it.
// "softDelete" is accepted as an alias of "soft_delete".
func ParseModerationAction(s string) (ModerationAction, error) {
	if s == "" {
		return "", dErrors.Validation("action", "moderation action cannot be empty")
	}
	if s == "softDelete" {
		return ActionSoftDelete, nil
	}
	a := ModerationAction(s)
	if !a.IsValid() {
		return "", dErrors.Validation("action", "unknown moderation action: "+s)
	}
	return a, nil
}
