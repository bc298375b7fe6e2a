package task

import (
	"time"
)

const (
	StatusActive = "active"
	StatusDone   = "done"
)

// Task - GORM модель для таблицы 'tasks'. id выдаётся из глобального
// счётчика (task_sequence), а не автоинкрементом, поэтому autoIncrement
// выключен явно.
type Task struct {
	ID         int64      `gorm:"primaryKey;autoIncrement:false;column:id"`
	UserID     int64      `gorm:"column:user_id;not null;index:ix_tasks_user_status"`
	Title      string     `gorm:"type:text;not null"`
	CategoryID *int64     `gorm:"column:category_id"`
	Priority   int16      `gorm:"not null;default:1"`
	Status     string     `gorm:"type:varchar(16);not null;default:'active';index:ix_tasks_user_status"`
	Comment    string     `gorm:"type:text;not null;default:''"`
	DueAt      *time.Time `gorm:"column:due_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
	DoneAt     *time.Time `gorm:"column:done_at"`
}

func (Task) TableName() string {
	return "tasks"
}

// TaskTag - связь многие-ко-многим между задачами и тегами.
type TaskTag struct {
	TaskID int64 `gorm:"primaryKey;autoIncrement:false;column:task_id"`
	TagID  int64 `gorm:"primaryKey;autoIncrement:false;column:tag_id"`
}

func (TaskTag) TableName() string {
	return "task_tags"
}

// Sequence - единственная строка глобального счётчика id задач.
type Sequence struct {
	ID     int16 `gorm:"primaryKey;autoIncrement:false;column:id"`
	LastID int64 `gorm:"column:last_id;not null"`
}

func (Sequence) TableName() string {
	return "task_sequence"
}

// TaskView - представление задачи для диалогового слоя: имена вместо
// внешних ключей, приоритет меткой, Done как производное от статуса.
// Tags всегда отсортированы по возрастанию.
type TaskView struct {
	ID       int64
	Title    string
	Category string
	Priority string
	Done     bool
	Comment  string
	Tags     []string
	DueAt    *time.Time
}

type Repo interface {
	// Load возвращает задачи пользователя по id по возрастанию, с именем
	// категории и списком тегов.
	Load(userID int64) ([]TaskView, error)
	// SaveAll сверяет полный входящий список с хранимым: upsert каждой
	// задачи (нулевой id - выдача свежего), полная перезапись связей с
	// тегами, удаление хранимых id, отсутствующих во входе. Контракт
	// "пришли всё желаемое состояние целиком".
	SaveAll(userID int64, views []TaskView) error
	// NextID выдаёт следующий id из глобального счётчика.
	NextID() (int64, error)
	// ListActiveTags возвращает имена тегов, которыми помечены активные
	// задачи пользователя, без повторов, по возрастанию.
	ListActiveTags(userID int64) ([]string, error)
}

type UseCase interface {
	List(userID int64) ([]TaskView, error)
	Add(userID int64, draft TaskView) error
	// Update перезаписывает поля задачи; если задача исчезла до коммита,
	// операция тихо пропускается.
	Update(userID int64, taskID int64, draft TaskView) error
	Complete(userID int64, taskID int64, comment string) error
	Delete(userID int64, taskID int64) error
	Restore(userID int64, taskID int64) error
}
