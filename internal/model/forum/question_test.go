package forum

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDecodeQuestionBackendPayload(t *testing.T) {
	raw := []byte(`{"id":12,"message":"How?","status":"Escalated","timestamp":"2024-05-01T10:00:00.123456",
		"replies":[{"id":3,"message":"Like this","timestamp":"2024-05-01T10:05:00","question_id":12}]}`)

	q, err := DecodeQuestion(raw)
	if err != nil {
		t.Fatalf("DecodeQuestion err: %v", err)
	}
	if q.ID != "12" {
		t.Fatalf("unexpected id %q", q.ID)
	}
	if q.Status != StatusEscalated {
		t.Fatalf("unexpected status %s", q.Status)
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC)
	if !q.Timestamp.Equal(want) {
		t.Fatalf("unexpected timestamp %v", q.Timestamp)
	}
	if len(q.Replies) != 1 || q.Replies[0].QuestionID != "12" {
		t.Fatalf("unexpected replies %+v", q.Replies)
	}

	out, err := json.Marshal(q.ID)
	if err != nil {
		t.Fatalf("marshal id: %v", err)
	}
	if string(out) != "12" {
		t.Fatalf("numeric id should stay numeric, got %s", out)
	}
}

func TestDecodeQuestionRejectsGarbage(t *testing.T) {
	inputs := []string{
		`not json`,
		`{"message":"no id","status":"Pending","timestamp":"2024-05-01T10:00:00"}`,
		`{"id":1,"message":"x","status":"Closed","timestamp":"2024-05-01T10:00:00"}`,
		`{"id":1,"message":"x","status":"Pending","timestamp":"yesterday"}`,
	}
	for _, in := range inputs {
		if _, err := DecodeQuestion([]byte(in)); err == nil {
			t.Fatalf("expected error for %s", in)
		}
	}
}

func TestStatusRank(t *testing.T) {
	if !(StatusEscalated.Rank() < StatusPending.Rank() && StatusPending.Rank() < StatusAnswered.Rank()) {
		t.Fatal("rank must order escalated < pending < answered")
	}
}
