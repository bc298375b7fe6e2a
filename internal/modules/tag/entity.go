package tag

import (
	"time"
)

// Tag - GORM модель для таблицы 'tags'. Пара (user_id, name) уникальна.
type Tag struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:uq_tags_user_id_name"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:uq_tags_user_id_name"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
}

func (Tag) TableName() string {
	return "tags"
}

type Repo interface {
	// List возвращает имена всех тегов пользователя по возрастанию.
	List(userID int64) ([]string, error)
	// Resolve отображает имя тега в id, создавая тег при отсутствии.
	Resolve(userID int64, name string) (int64, error)
}
