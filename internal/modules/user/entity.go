package user

import (
	"time"

	"taskbot/internal/modules/task"
)

// User - GORM модель для таблицы 'users'. Первичный ключ - внешний id
// пользователя чата, не суррогат.
type User struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false;column:user_id"`
	Name      *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string {
	return "users"
}

// Setting - строка пользовательских настроек (user_id, key) -> value.
type Setting struct {
	UserID int64  `gorm:"primaryKey;autoIncrement:false;column:user_id"`
	Key    string `gorm:"primaryKey;column:key;type:text"`
	Value  string `gorm:"type:text;not null"`
}

func (Setting) TableName() string {
	return "settings"
}

// Ключи настроек, которые обязаны существовать после регистрации.
const (
	SettingReminderTime   = "reminder_time"
	SettingNotifyWeekends = "notify_weekends"
)

const (
	DefaultReminderTime   = "09:00"
	DefaultNotifyWeekends = "0"
)

// DefaultSettings возвращает значения по умолчанию для обязательных
// ключей.
func DefaultSettings() map[string]string {
	return map[string]string{
		SettingReminderTime:   DefaultReminderTime,
		SettingNotifyWeekends: DefaultNotifyWeekends,
	}
}

// Шаблон, импортируемый новому пользователю: категории - если у него их
// ноль, задачи - если у него ноль задач. Задачи идут обычным путём
// сохранения, так что id берутся из счётчика, а категории и теги
// нормализуются.
var (
	TemplateCategories = []string{"Дом", "Личное", "Работа"}

	TemplateTasks = []task.TaskView{
		{
			Title:    "Запланировать день",
			Category: "Личное",
			Priority: task.PriorityLabelMedium,
			Tags:     []string{"планирование"},
		},
		{
			Title:    "Разобрать входящие",
			Category: "Работа",
			Priority: task.PriorityLabelLow,
			Tags:     []string{},
		},
	}
)

// TaskImporter - кусок task.Repo, нужный для импорта шаблонных задач.
type TaskImporter interface {
	SaveAll(userID int64, views []task.TaskView) error
}

type Repo interface {
	// Register - идемпотентная регистрация: insert-or-ignore пользователя,
	// добивка недостающих настроек, разовый импорт шаблона. Зовётся в
	// начале каждого взаимодействия.
	Register(userID int64, name string) error
	ListUserIDs() ([]int64, error)
	GetSettings(userID int64) (map[string]string, error)
	PutSetting(userID int64, key, value string) error
}
