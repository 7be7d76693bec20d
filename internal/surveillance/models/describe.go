package models

import (
	"encoding/json"
	"fmt"
)

// Describe renders a human-readable one-liner for a change, used in alert
// email bodies and the manual-check response.
func (c Change) Describe() string {
	switch c.Type {
	case ChangeIdentity:
		return fmt.Sprintf("Company name changed: %s -> %s", decodeString(c.OldValue), decodeString(c.NewValue))

	case ChangeAddress:
		return fmt.Sprintf("Address changed (%s): %s -> %s", c.Field, decodeString(c.OldValue), decodeString(c.NewValue))

	case ChangeOfficerAdded:
		o := decodeOfficer(c.NewValue)
		return fmt.Sprintf("New officer: %s %s (%s)", o.FirstName, o.LastName, o.Role)

	case ChangeOfficerRemoved:
		o := decodeOfficer(c.OldValue)
		return fmt.Sprintf("Officer left: %s %s", o.FirstName, o.LastName)

	case ChangeOfficerRoleChanged:
		oldO := decodeOfficer(c.OldValue)
		newO := decodeOfficer(c.NewValue)
		return fmt.Sprintf("Officer role changed: %s %s, %s -> %s", newO.FirstName, newO.LastName, oldO.Role, newO.Role)

	case ChangeCapital:
		return fmt.Sprintf("Share capital changed: %s -> %s", decodeNumber(c.OldValue), decodeNumber(c.NewValue))

	case ChangeDocumentAdded:
		var d Document
		_ = json.Unmarshal(c.NewValue, &d)
		return fmt.Sprintf("New document: %s (%s)", d.Kind, d.FiledAt)

	case ChangeProceedingAdded:
		var p Proceeding
		_ = json.Unmarshal(c.NewValue, &p)
		return fmt.Sprintf("NEW LEGAL PROCEEDING: %s - %s", p.Kind, p.Court)

	default:
		return fmt.Sprintf("Change detected in field: %s", c.Field)
	}
}

func decodeString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return s
}

func decodeNumber(raw json.RawMessage) string {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return string(raw)
	}
	return fmt.Sprintf("%.2f", f)
}

func decodeOfficer(raw json.RawMessage) Officer {
	var o Officer
	_ = json.Unmarshal(raw, &o)
	return o
}
