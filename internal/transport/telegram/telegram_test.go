package telegram

import (
	"io"
	"log/slog"
	"testing"

	"taskbot/internal/modules/conversation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCallbackCodecRoundTrip(t *testing.T) {
	cases := []conversation.Callback{
		{Action: conversation.ActionStart},
		{Action: conversation.ActionShowTasks},
		conversation.WithArg(conversation.ActionTaskSelect, 17),
		conversation.WithArg(conversation.ActionTaskDelete, 0),
		conversation.WithArg(conversation.ActionFilterSetPriority, 2),
	}
	for _, cb := range cases {
		got, ok := decodeCallback(encodeCallback(cb))
		if !ok {
			t.Fatalf("decode(%q) failed", encodeCallback(cb))
		}
		if got != cb {
			t.Errorf("round trip: got %+v, want %+v", got, cb)
		}
	}
}

func TestDecodeCallbackMalformed(t *testing.T) {
	cases := []string{"", "task:", "task:abc", "edit:1.5"}
	for _, data := range cases {
		if _, ok := decodeCallback(data); ok {
			t.Errorf("decode(%q): expected failure", data)
		}
	}
}

func TestCommandCallback(t *testing.T) {
	cases := []struct {
		text string
		want conversation.Action
	}{
		{"/start", conversation.ActionStart},
		{"/cancel", conversation.ActionCancel},
		{"/tasks", conversation.ActionShowTasks},
		{"/list", conversation.ActionShowTasks},
		{"/completed", conversation.ActionShowCompleted},
		{"/add", conversation.ActionAddTask},
		{"/categories", conversation.ActionCategories},
		{"/filter", conversation.ActionFilter},
		{"/settings", conversation.ActionSettings},
		{"/tasks@MyPlannerBot", conversation.ActionShowTasks},
		{"/cancel какой-то хвост", conversation.ActionCancel},
		{"/unknown", conversation.ActionStart},
	}
	for _, tc := range cases {
		cb := commandCallback(tc.text)
		if cb.Action != tc.want {
			t.Errorf("commandCallback(%q) = %s, want %s", tc.text, cb.Action, tc.want)
		}
		if cb.HasArg {
			t.Errorf("commandCallback(%q) carries an arg", tc.text)
		}
	}
}

func TestQueueDrainsPerChat(t *testing.T) {
	tr := New("token", 1, nil, testLogger())

	tr.Queue(1, conversation.Reply{Text: "a"})
	tr.Queue(1, conversation.Reply{Text: "b"})
	tr.Queue(2, conversation.Reply{Text: "c"})

	tr.pendingMu.Lock()
	defer tr.pendingMu.Unlock()
	if len(tr.pending[1]) != 2 || tr.pending[1][0].Text != "a" {
		t.Errorf("chat 1 queue = %+v", tr.pending[1])
	}
	if len(tr.pending[2]) != 1 {
		t.Errorf("chat 2 queue = %+v", tr.pending[2])
	}
}
