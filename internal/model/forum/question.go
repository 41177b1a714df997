package forum

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ID is the opaque identifier the backend assigns to questions and replies.
// The backend emits integers; the client only compares and echoes them.
type ID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("id must not be null")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids back as numbers so the backend sees what it sent.
func (id ID) MarshalJSON() ([]byte, error) {
	if isDigits(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Timestamp decodes both RFC 3339 and the naive ISO form the backend emits.
// Naive values are taken as UTC.
type Timestamp struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a backend timestamp string.
func ParseTimestamp(raw string) (Timestamp, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return Timestamp{t}, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return Timestamp{t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// Reply is an answer posted under a question. Replies never change once created.
type Reply struct {
	ID         ID        `json:"id"`
	Message    string    `json:"message"`
	Timestamp  Timestamp `json:"timestamp"`
	QuestionID ID        `json:"question_id"`
}

// Question is a forum entry together with its replies in insertion order.
type Question struct {
	ID        ID        `json:"id"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	Timestamp Timestamp `json:"timestamp"`
	Replies   []Reply   `json:"replies"`
}

// Clone returns a copy that shares no reply storage with q.
func (q Question) Clone() Question {
	q.Replies = append([]Reply(nil), q.Replies...)
	return q
}

// DecodeQuestion parses a single serialized question, as delivered by the push channel.
func DecodeQuestion(data []byte) (Question, error) {
	var q Question
	if err := json.Unmarshal(data, &q); err != nil {
		return Question{}, fmt.Errorf("decode question: %w", err)
	}
	if err := q.Normalize(); err != nil {
		return Question{}, fmt.Errorf("decode question: %w", err)
	}
	return q, nil
}

// Normalize checks a decoded question and fills the backend defaults.
// A record without an id cannot be merged and is rejected.
func (q *Question) Normalize() error {
	if q.ID == "" {
		return errors.New("missing id")
	}
	if q.Status == "" {
		q.Status = StatusPending
	}
	return nil
}
