package event

import (
	"context"
	"log/slog"
	"sync"
)

// Bus - синхронный диспетчер: пост-коммитные события обрабатываются до
// возврата из Dispatch, так что перерисовка списка уходит в транспорт в
// порядке коммитов.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	log      *slog.Logger
}

func NewBus(log *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
		log:      log.With(slog.String("service", "EventBus")),
	}
}

func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = append(b.handlers[t], h)
}

func (b *Bus) Dispatch(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := b.handlers[e.Type]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("no handlers for event", slog.String("eventType", string(e.Type)))
		return
	}
	for _, h := range handlers {
		h.Handle(ctx, e)
	}
}
