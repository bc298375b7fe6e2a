package conversation

import (
	"context"
	"time"

	"taskbot/internal/modules/task"
)

// State - состояние диалога в рамках одной сессии (user, chat).
type State int

const (
	StateIdle State = iota

	StateAddTitle
	StateAddCategoryChoice
	StateAddCategoryInput
	StateAddPriority
	StateAddTags

	StateEditTitle
	StateEditCategoryChoice
	StateEditCategoryInput
	StateEditPriority
	StateEditTags

	StateCommentPrompt

	StateCategoryMenu
	StateCategoryAdd
	StateCategoryEdit

	StateFilterMenu

	StateSettingsMenu
	StateSettingsTime
)

// Action - тип callback-действия. Токен разбирается на границе
// транспорта один раз; до движка доходит уже типизированный Callback.
type Action string

const (
	ActionStart         Action = "start"
	ActionCancel        Action = "cancel"
	ActionShowTasks     Action = "show_tasks"
	ActionShowCompleted Action = "show_completed"

	ActionAddTask     Action = "add_task"
	ActionTaskSelect  Action = "task"
	ActionTaskEdit    Action = "edit"
	ActionTaskDelete  Action = "delete"
	ActionTaskRestore Action = "restore"

	ActionCategoryChoose Action = "choose_cat"
	ActionNewCategory    Action = "new_category"
	ActionPriorityChoose Action = "priority"
	ActionSkipTags       Action = "skip_tags"

	ActionCategories     Action = "categories"
	ActionCategoryAdd    Action = "addcat"
	ActionCategoryEdit   Action = "editcat"
	ActionCategoryDelete Action = "delcat"

	ActionFilter            Action = "filter"
	ActionFilterCategory    Action = "filter_category"
	ActionFilterPriority    Action = "filter_priority"
	ActionFilterTag         Action = "filter_tag"
	ActionFilterSetCategory Action = "fcat"
	ActionFilterSetPriority Action = "fprio"
	ActionFilterSetTag      Action = "ftag"
	ActionFilterReset       Action = "filter_reset"

	ActionSettings       Action = "settings"
	ActionSettingsTime   Action = "set_time"
	ActionToggleWeekends Action = "toggle_weekends"
)

// Callback - типизированный вариант callback-токена: действие плюс
// необязательный числовой аргумент (id задачи или индекс в списке).
type Callback struct {
	Action Action
	Arg    int64
	HasArg bool
}

// WithArg - удобный конструктор для кнопок с аргументом.
func WithArg(action Action, arg int64) Callback {
	return Callback{Action: action, Arg: arg, HasArg: true}
}

// Update - входящее событие от транспорта: либо текст, либо callback.
type Update struct {
	UserID   int64
	ChatID   int64
	Name     string
	Text     string
	Callback *Callback
}

type Button struct {
	Label    string
	Callback Callback
}

// Reply - текст плюс упорядоченные ряды кнопок для отрисовки транспортом.
type Reply struct {
	Text     string
	Keyboard [][]Button
}

// Sender отправляет готовый Reply в чат. Реализуется транспортом.
type Sender interface {
	Send(ctx context.Context, chatID int64, reply Reply) error
}

// Filter - активный фильтр списка задач. Живёт в сессии, переживает
// отдельные workflow; измерения комбинируются по "и".
type Filter struct {
	Category string
	Priority string
	Tag      string
}

func (f Filter) Empty() bool {
	return f.Category == "" && f.Priority == "" && f.Tag == ""
}

// Scratch - накопитель полей текущего workflow. Сбрасывается при
// коммите и при отмене; до финального шага в хранилище ничего не
// попадает.
type Scratch struct {
	TaskID     int64
	Title      string
	Category   string
	Priority   string
	CategoryID int64
}

// Session - состояние диалога одной пары (user, chat). Сессии разных
// пользователей независимы и не делят изменяемое состояние.
type Session struct {
	UserID       int64
	ChatID       int64
	State        State
	Scratch      Scratch
	Filter       Filter
	LastActivity time.Time
}

// Reset возвращает сессию в Idle и выбрасывает накопленные поля.
// Фильтр намеренно не трогает.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Scratch = Scratch{}
}

// ApplyFilter оставляет задачи, проходящие все заданные измерения
// фильтра.
func ApplyFilter(views []task.TaskView, f Filter) []task.TaskView {
	if f.Empty() {
		return views
	}
	out := make([]task.TaskView, 0, len(views))
	for _, v := range views {
		if f.Category != "" && v.Category != f.Category {
			continue
		}
		if f.Priority != "" && v.Priority != f.Priority {
			continue
		}
		if f.Tag != "" && !containsTag(v.Tags, f.Tag) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func containsTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
