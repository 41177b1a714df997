package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zhouzirui/qa-forum/frontend/internal/config"
	"github.com/zhouzirui/qa-forum/frontend/internal/metrics"
	"github.com/zhouzirui/qa-forum/frontend/internal/model/account"
	"github.com/zhouzirui/qa-forum/frontend/internal/model/forum"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.APIConfig{BaseURL: srv.URL, Timeout: 2 * time.Second}, metrics.New())
}

func TestListQuestions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/questions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		io.WriteString(w, `[{"id":1,"message":"a","status":"Pending","timestamp":"2024-05-01T10:00:00","replies":[]}]`)
	})

	qs, err := client.ListQuestions(context.Background())
	if err != nil {
		t.Fatalf("ListQuestions err: %v", err)
	}
	if len(qs) != 1 || qs[0].ID != "1" || qs[0].Status != forum.StatusPending {
		t.Fatalf("unexpected questions %+v", qs)
	}
}

func TestListQuestionsNormalizesRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id":1,"message":"a","timestamp":"2024-05-01T10:00:00"},
			{"message":"no id","status":"Escalated","timestamp":"2024-05-01T10:01:00"},
			{"message":"no id either","status":"Answered","timestamp":"2024-05-01T10:02:00"},
			{"id":2,"message":"b","status":"Answered","timestamp":"2024-05-01T10:03:00"}
		]`)
	})

	qs, err := client.ListQuestions(context.Background())
	if err != nil {
		t.Fatalf("ListQuestions err: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected records without id to be dropped, got %+v", qs)
	}
	if qs[0].ID != "1" || qs[0].Status != forum.StatusPending {
		t.Fatalf("missing status should default to Pending, got %+v", qs[0])
	}
	if qs[1].ID != "2" || qs[1].Status != forum.StatusAnswered {
		t.Fatalf("unexpected second record %+v", qs[1])
	}
}

func TestCreateQuestionSendsMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["message"] != "Why?" {
			t.Errorf("unexpected message %q", body["message"])
		}
		io.WriteString(w, `{"id":9,"message":"Why?","status":"Pending","timestamp":"2024-05-01T10:00:00"}`)
	})

	q, err := client.CreateQuestion(context.Background(), "Why?")
	if err != nil {
		t.Fatalf("CreateQuestion err: %v", err)
	}
	if q.ID != "9" {
		t.Fatalf("unexpected id %s", q.ID)
	}
}

func TestServerRejectionKeepsBodyVerbatim(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail":"Question cannot be blank."}`)
	})

	_, err := client.CreateQuestion(context.Background(), "  ")
	if forum.KindOf(err) != forum.KindServer {
		t.Fatalf("expected server error, got %v", err)
	}
	if got := forum.UserMessage(err, ""); got != `{"detail":"Question cannot be blank."}` {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestServerRejectionWithoutBodyUsesFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.UpdateStatus(context.Background(), "4", forum.StatusAnswered)
	if got := forum.UserMessage(err, ""); got != forum.MsgStatusFailed {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestUpdateStatusPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/questions/4/status" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("status"); got != "Escalated" {
			t.Errorf("unexpected status query %q", got)
		}
	})

	if err := client.UpdateStatus(context.Background(), "4", forum.StatusEscalated); err != nil {
		t.Fatalf("UpdateStatus err: %v", err)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewClient(config.APIConfig{BaseURL: base, Timeout: time.Second}, nil)
	_, err := client.ListQuestions(context.Background())
	if forum.KindOf(err) != forum.KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
	if got := forum.UserMessage(err, ""); got != forum.MsgNetworkError {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestLoginAndRegister(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Path {
		case "/login":
			if body["username_or_email"] != "ann" || body["password"] != "pw" {
				t.Errorf("unexpected login body %v", body)
			}
			io.WriteString(w, `{"user_id":5,"username":"ann"}`)
		case "/register":
			if _, leaked := body["ConfirmPassword"]; leaked {
				t.Error("confirm password must not be sent")
			}
			io.WriteString(w, `{"user_id":6}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	login, err := client.Login(context.Background(), account.LoginForm{UsernameOrEmail: "ann", Password: "pw"})
	if err != nil || login.UserID != "5" || login.Username != "ann" {
		t.Fatalf("unexpected login result %+v err=%v", login, err)
	}

	reg, err := client.Register(context.Background(), account.RegisterForm{Username: "bob", Email: "b@c.io", Password: "x", ConfirmPassword: "x"})
	if err != nil || reg.UserID != "6" {
		t.Fatalf("unexpected register result %+v err=%v", reg, err)
	}
}
