// Package models defines the worker identity fields held as encrypted tokens.
package models

import (
	"strings"
	"unicode"
	"unicode/utf8"

	dErrors "vouch/pkg/domain-errors"
)

// IdentityField names an identity document number stored on a worker profile.
type IdentityField string

const (
	FieldPassport IdentityField = "passport"
	FieldNID      IdentityField = "nid"
)

// MaxIdentityLength bounds an identity number in runes.
const MaxIdentityLength = 64

func (f IdentityField) String() string {
	return string(f)
}

func (f IdentityField) IsValid() bool {
	return f == FieldPassport || f == FieldNID
}

// Subject is the audit subject for the field, e.g. "identity:passport".
func (f IdentityField) Subject() string {
	return "identity:" + string(f)
}

// ParseIdentityField accepts "passport" and "nid", case-insensitively.
func ParseIdentityField(s string) (IdentityField, error) {
	f := IdentityField(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", dErrors.Validation("field", "identity field must be passport or nid")
	}
	return f, nil
}

// NormalizeIdentity trims surrounding whitespace and rejects values that are
// too long or contain control characters. An empty result means "clear".
func NormalizeIdentity(value string) (string, error) {
	value = strings.TrimSpace(value)
	if !utf8.ValidString(value) {
		return "", dErrors.Validation("value", "identity value must be valid UTF-8")
	}
	if utf8.RuneCountInString(value) > MaxIdentityLength {
		return "", dErrors.Validation("value", "identity value is too long")
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return "", dErrors.Validation("value", "identity value contains control characters")
		}
	}
	return value, nil
}
