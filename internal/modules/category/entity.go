package category

import (
	"time"
)

// Category - GORM модель для таблицы 'categories'.
// Пара (user_id, name) уникальна: нормализация не должна плодить
// дубликаты в пределах одного пользователя.
type Category struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:uq_categories_user_id_name"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:uq_categories_user_id_name"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
}

func (Category) TableName() string {
	return "categories"
}

type Repo interface {
	// List возвращает категории пользователя по имени по возрастанию.
	List(userID int64) ([]*Category, error)
	// Resolve отображает свободный текст в id категории, создавая её при
	// отсутствии. Пустое после обрезки имя означает "без категории" - nil.
	Resolve(userID int64, name string) (*int64, error)
	Create(userID int64, name string) error
	Rename(userID int64, categoryID int64, name string) error
	// Delete снимает ссылку с задач (category_id -> NULL) и удаляет
	// категорию; сами задачи не трогает.
	Delete(userID int64, categoryID int64) error
}
