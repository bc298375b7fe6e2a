package event

import "context"

type Type string

const (
	// TasksChanged испускается после коммита add/edit/delete/restore/
	// complete; подписчик транспорта перерисовывает список задач.
	TasksChanged Type = "TASKS_CHANGED"
	// SettingsChanged испускается после коммита настроек; планировщик
	// пересчитывает расписание напоминаний пользователя.
	SettingsChanged Type = "SETTINGS_CHANGED"
)

type Event struct {
	Type   Type
	UserID int64
	ChatID int64
}

type Dispatcher interface {
	Dispatch(ctx context.Context, event Event)
}

type Handler interface {
	Handle(ctx context.Context, event Event)
}

type HandlerFunc func(ctx context.Context, event Event)

func (f HandlerFunc) Handle(ctx context.Context, event Event) {
	f(ctx, event)
}
