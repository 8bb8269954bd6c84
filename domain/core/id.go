package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	ProjectID   ID
	ParameterID ID
	ArtifactID  ID
)

// String conversions for domain IDs
func (id ProjectID) String() string   { return ID(id).String() }
func (id ParameterID) String() string { return ID(id).String() }
func (id ArtifactID) String() string  { return ID(id).String() }

// ParseProjectID parses a string into ProjectID, requiring a valid UUID
func ParseProjectID(s string) (ProjectID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("project ID cannot be empty")
	}
	if _, err := uuid.Parse(trimmed); err != nil {
		return "", fmt.Errorf("invalid project ID %q: %w", trimmed, err)
	}
	return ProjectID(trimmed), nil
}

// ParseParameterID parses a string into ParameterID
func ParseParameterID(s string) (ParameterID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("parameter ID cannot be empty")
	}
	return ParameterID(s), nil
}
