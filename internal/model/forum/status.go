package forum

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle stage of a question.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusEscalated Status = "Escalated"
	StatusAnswered  Status = "Answered"
)

// Rank orders statuses for display: escalated first, answered last.
func (s Status) Rank() int {
	switch s {
	case StatusEscalated:
		return 0
	case StatusPending:
		return 1
	case StatusAnswered:
		return 2
	default:
		return 3
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusEscalated, StatusAnswered:
		return true
	}
	return false
}

// ParseStatus converts a wire value into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown question status %q", raw)
	}
	return s, nil
}

// UnmarshalJSON rejects statuses the forum does not know about.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
