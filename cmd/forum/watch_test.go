package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/zhouzirui/qa-forum/frontend/internal/model/forum"
	forumService "github.com/zhouzirui/qa-forum/frontend/internal/service/forum"
)

func TestRenderView(t *testing.T) {
	view := forumService.View{
		Connection:     "closed",
		ConnectionLost: true,
		Error:          forum.MsgNetworkError,
		Questions: []forum.Question{{
			ID:        "2",
			Message:   "Is the build green?",
			Status:    forum.StatusEscalated,
			Timestamp: forum.Timestamp{Time: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
			Replies:   []forum.Reply{{ID: "1", Message: "Not yet", QuestionID: "2"}},
		}},
	}

	var out bytes.Buffer
	renderView(&out, view)
	text := out.String()

	for _, want := range []string{forum.MsgConnectionLost, forum.MsgNetworkError, "#2", "Escalated", "Is the build green?", "> Not yet"} {
		if !strings.Contains(text, want) {
			t.Fatalf("rendered view missing %q:\n%s", want, text)
		}
	}
}

func TestRenderEmptyAndLoading(t *testing.T) {
	var out bytes.Buffer
	renderView(&out, forumService.View{Loading: true})
	if !strings.Contains(out.String(), "Loading...") {
		t.Fatalf("expected loading marker, got %q", out.String())
	}

	out.Reset()
	renderView(&out, forumService.View{})
	if !strings.Contains(out.String(), "No questions yet.") {
		t.Fatalf("expected empty marker, got %q", out.String())
	}
}
