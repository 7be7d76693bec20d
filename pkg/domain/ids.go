// Package domain holds the typed identifiers and domain value types shared
// across services. Typed IDs prevent cross-type assignment at compile time;
// parse helpers enforce validity at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "vigie/pkg/domain-errors"
)

// UserID identifies an account owner.
type UserID uuid.UUID

// SurveillanceID identifies a standing company watch.
type SurveillanceID uuid.UUID

// SnapshotID identifies one captured company projection.
type SnapshotID uuid.UUID

// ChangeID identifies one detected change event.
type ChangeID uuid.UUID

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id SurveillanceID) String() string { return uuid.UUID(id).String() }
func (id SnapshotID) String() string     { return uuid.UUID(id).String() }
func (id ChangeID) String() string       { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id SurveillanceID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SnapshotID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ChangeID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// Text marshalling keeps the IDs as canonical UUID strings in JSON payloads.

func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id SurveillanceID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id SnapshotID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id ChangeID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SurveillanceID) UnmarshalText(text []byte) error {
	parsed, err := ParseSurveillanceID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *SnapshotID) UnmarshalText(text []byte) error {
	parsed, err := ParseSnapshotID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ChangeID) UnmarshalText(text []byte) error {
	parsed, err := ParseChangeID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseUserID constructs a UserID from external input.
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseSurveillanceID constructs a SurveillanceID from external input.
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseSurveillanceID(s string) (SurveillanceID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return SurveillanceID{}, err
	}
	return SurveillanceID(u), nil
}

// ParseSnapshotID constructs a SnapshotID from external input.
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseSnapshotID(s string) (SnapshotID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return SnapshotID{}, err
	}
	return SnapshotID(u), nil
}

// ParseChangeID constructs a ChangeID from external input.
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseChangeID(s string) (ChangeID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ChangeID{}, err
	}
	return ChangeID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
