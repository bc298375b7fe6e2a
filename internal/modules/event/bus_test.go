package event

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func newTestBus() *Bus {
	return NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDispatchReachesSubscribersInOrder(t *testing.T) {
	bus := newTestBus()

	var order []string
	bus.Subscribe(TasksChanged, HandlerFunc(func(ctx context.Context, e Event) {
		order = append(order, "first")
	}))
	bus.Subscribe(TasksChanged, HandlerFunc(func(ctx context.Context, e Event) {
		order = append(order, "second")
	}))

	bus.Dispatch(context.Background(), Event{Type: TasksChanged, UserID: 1, ChatID: 1})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("order = %v", order)
	}
}

func TestDispatchFiltersByType(t *testing.T) {
	bus := newTestBus()

	calls := 0
	bus.Subscribe(SettingsChanged, HandlerFunc(func(ctx context.Context, e Event) {
		calls++
	}))

	bus.Dispatch(context.Background(), Event{Type: TasksChanged})
	if calls != 0 {
		t.Errorf("handler fired for wrong event type")
	}
	bus.Dispatch(context.Background(), Event{Type: SettingsChanged})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDispatchWithoutHandlersIsNoop(t *testing.T) {
	bus := newTestBus()
	// Не должно паниковать.
	bus.Dispatch(context.Background(), Event{Type: TasksChanged})
}
