package database

import (
	"errors"
	"log/slog"
	"strings"

	"taskbot/internal/modules/category"
	"taskbot/internal/modules/task"

	"gorm.io/gorm"
)

type CategoryDatabase struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewCategoryDatabase(db *gorm.DB, log *slog.Logger) *CategoryDatabase {
	return &CategoryDatabase{
		db:  db,
		log: log,
	}
}

func (r *CategoryDatabase) List(userID int64) ([]*category.Category, error) {
	op := "CategoryDatabase.List"
	log := r.log.With(slog.String("op", op), slog.Int64("userID", userID))

	var categories []*category.Category
	if err := r.db.Where("user_id = ?", userID).Order("name ASC").Find(&categories).Error; err != nil {
		log.Error("failed to list categories", "error", err)
		return nil, category.ErrCategoryInternal
	}
	return categories, nil
}

func (r *CategoryDatabase) Resolve(userID int64, name string) (*int64, error) {
	op := "CategoryDatabase.Resolve"
	log := r.log.With(slog.String("op", op), slog.Int64("userID", userID))

	id, err := ResolveTx(r.db, userID, name)
	if err != nil {
		log.Error("failed to resolve category", "error", err)
		return nil, category.ErrCategoryInternal
	}
	return id, nil
}

func (r *CategoryDatabase) Create(userID int64, name string) error {
	_, err := r.Resolve(userID, name)
	return err
}

func (r *CategoryDatabase) Rename(userID int64, categoryID int64, name string) error {
	op := "CategoryDatabase.Rename"
	log := r.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("categoryID", categoryID))

	result := r.db.Model(&category.Category{}).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Update("name", strings.TrimSpace(name))
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			log.Warn("rename rejected, name already taken", slog.String("name", name))
			return category.ErrCategoryNameConflict
		}
		log.Error("failed to rename category", "error", result.Error)
		return category.ErrCategoryInternal
	}
	if result.RowsAffected == 0 {
		log.Warn("category not found for rename")
		return category.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryDatabase) Delete(userID int64, categoryID int64) error {
	op := "CategoryDatabase.Delete"
	log := r.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("categoryID", categoryID))

	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Задачи остаются, ссылка на категорию обнуляется.
		if err := tx.Model(&task.Task{}).
			Where("user_id = ? AND category_id = ?", userID, categoryID).
			Update("category_id", nil).Error; err != nil {
			return err
		}

		result := tx.Where("id = ? AND user_id = ?", categoryID, userID).Delete(&category.Category{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return category.ErrCategoryNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, category.ErrCategoryNotFound) {
			log.Warn("category not found for deletion")
			return err
		}
		log.Error("failed to delete category", "error", err)
		return category.ErrCategoryInternal
	}
	return nil
}

// ResolveTx выполняет get-or-create в рамках транзакции вызывающего,
// чтобы категория, созданная по ходу сохранения задач, была видна
// последующим чтениям той же операции.
func ResolveTx(tx *gorm.DB, userID int64, name string) (*int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	var cat category.Category
	err := tx.Where("user_id = ? AND name = ?", userID, name).First(&cat).Error
	if err == nil {
		return &cat.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cat = category.Category{UserID: userID, Name: name}
	if err := tx.Create(&cat).Error; err != nil {
		// Проигравший гонку создания перечитывает уже существующую строку.
		if isUniqueViolation(err) {
			if err := tx.Where("user_id = ? AND name = ?", userID, name).First(&cat).Error; err != nil {
				return nil, err
			}
			return &cat.ID, nil
		}
		return nil, err
	}
	return &cat.ID, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "uq_categories_user_id_name") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed: categories")
}
