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
	ChartID   ID
	RequestID uint64
)

func (id ChartID) String() string { return ID(id).String() }

// NewChartID creates a fresh chart instance identifier
func NewChartID() ChartID { return ChartID(NewID()) }

// ParseChartID parses a string into ChartID
func ParseChartID(s string) (ChartID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("chart ID cannot be empty")
	}
	return ChartID(s), nil
}
