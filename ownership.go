package devconnect

import (
	"strings"

	"github.com/google/uuid"
)

// Authorize decides whether the authenticated subject may mutate a
// resource recorded as owned by ownerID. Identifiers may arrive in
// different representations of the same logical identity (uuid casing,
// surrounding whitespace), so both sides are normalized before the
// equality check. A mismatch yields ErrNotResourceOwner.
func Authorize(subjectID, ownerID string) error {
	if normalizeID(subjectID) == "" {
		return ErrNotResourceOwner
	}

	if normalizeID(subjectID) != normalizeID(ownerID) {
		return ErrNotResourceOwner
	}

	return nil
}

// IsOwner reports whether subjectID and ownerID identify the same
// logical identity.
func IsOwner(subjectID, ownerID string) bool {
	return Authorize(subjectID, ownerID) == nil
}

func normalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}

	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}

	return strings.ToLower(id)
}
