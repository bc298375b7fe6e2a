package database

import (
	"errors"
	"log/slog"
	"strings"

	"taskbot/internal/modules/tag"

	"gorm.io/gorm"
)

type TagDatabase struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewTagDatabase(db *gorm.DB, log *slog.Logger) *TagDatabase {
	return &TagDatabase{
		db:  db,
		log: log,
	}
}

func (r *TagDatabase) List(userID int64) ([]string, error) {
	op := "TagDatabase.List"
	log := r.log.With(slog.String("op", op), slog.Int64("userID", userID))

	var names []string
	if err := r.db.Model(&tag.Tag{}).
		Where("user_id = ?", userID).
		Order("name ASC").
		Pluck("name", &names).Error; err != nil {
		log.Error("failed to list tags", "error", err)
		return nil, tag.ErrTagInternal
	}
	return names, nil
}

func (r *TagDatabase) Resolve(userID int64, name string) (int64, error) {
	op := "TagDatabase.Resolve"
	log := r.log.With(slog.String("op", op), slog.Int64("userID", userID))

	id, err := ResolveTx(r.db, userID, name)
	if err != nil {
		if errors.Is(err, tag.ErrTagEmptyName) {
			return 0, err
		}
		log.Error("failed to resolve tag", "error", err)
		return 0, tag.ErrTagInternal
	}
	return id, nil
}

// ResolveTx - get-or-create тега внутри транзакции вызывающего.
func ResolveTx(tx *gorm.DB, userID int64, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, tag.ErrTagEmptyName
	}

	var t tag.Tag
	err := tx.Where("user_id = ? AND name = ?", userID, name).First(&t).Error
	if err == nil {
		return t.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	t = tag.Tag{UserID: userID, Name: name}
	if err := tx.Create(&t).Error; err != nil {
		if isUniqueViolation(err) {
			if err := tx.Where("user_id = ? AND name = ?", userID, name).First(&t).Error; err != nil {
				return 0, err
			}
			return t.ID, nil
		}
		return 0, err
	}
	return t.ID, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "uq_tags_user_id_name") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed: tags")
}
