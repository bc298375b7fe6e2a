package database

import (
	"errors"
	"log/slog"

	"taskbot/internal/modules/category"
	categoryDb "taskbot/internal/modules/category/repo/database"
	"taskbot/internal/modules/task"
	"taskbot/internal/modules/user"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserDatabase struct {
	db       *gorm.DB
	log      *slog.Logger
	importer user.TaskImporter
}

func NewUserDatabase(db *gorm.DB, log *slog.Logger, importer user.TaskImporter) *UserDatabase {
	return &UserDatabase{
		db:       db,
		log:      log,
		importer: importer,
	}
}

func (r *UserDatabase) Register(userID int64, name string) error {
	op := "UserDatabase.Register"
	log := r.log.With(slog.String("op", op), slog.Int64("userID", userID))

	needImport := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var u user.User
		err := tx.First(&u, "user_id = ?", userID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			u = user.User{UserID: userID}
			if name != "" {
				u.Name = &name
			}
			if err := tx.Create(&u).Error; err != nil {
				return err
			}
			log.Info("user registered")
		case err != nil:
			return err
		default:
			if name != "" && (u.Name == nil || *u.Name == "") {
				if err := tx.Model(&user.User{}).
					Where("user_id = ?", userID).
					Update("name", name).Error; err != nil {
					return err
				}
			}
		}

		// Недостающие настройки добиваются значениями по умолчанию;
		// существующие не трогаем.
		var keys []string
		if err := tx.Model(&user.Setting{}).
			Where("user_id = ?", userID).
			Pluck("key", &keys).Error; err != nil {
			return err
		}
		have := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			have[k] = struct{}{}
		}
		for key, value := range user.DefaultSettings() {
			if _, ok := have[key]; ok {
				continue
			}
			if err := tx.Create(&user.Setting{UserID: userID, Key: key, Value: value}).Error; err != nil {
				return err
			}
		}

		var categoryCount int64
		if err := tx.Model(&category.Category{}).
			Where("user_id = ?", userID).
			Count(&categoryCount).Error; err != nil {
			return err
		}
		if categoryCount == 0 {
			for _, catName := range user.TemplateCategories {
				if _, err := categoryDb.ResolveTx(tx, userID, catName); err != nil {
					return err
				}
			}
		}

		var taskCount int64
		if err := tx.Model(&task.Task{}).
			Where("user_id = ?", userID).
			Count(&taskCount).Error; err != nil {
			return err
		}
		needImport = taskCount == 0
		return nil
	})
	if err != nil {
		log.Error("failed to register user", "error", err)
		return user.ErrUserInternal
	}

	// Шаблонные задачи идут обычным путём сохранения: id из счётчика,
	// категории и теги через нормализацию.
	if needImport {
		views := make([]task.TaskView, len(user.TemplateTasks))
		copy(views, user.TemplateTasks)
		if err := r.importer.SaveAll(userID, views); err != nil {
			log.Error("failed to import template tasks", "error", err)
			return user.ErrUserInternal
		}
		log.Info("template tasks imported", slog.Int("count", len(views)))
	}

	return nil
}

func (r *UserDatabase) ListUserIDs() ([]int64, error) {
	op := "UserDatabase.ListUserIDs"
	log := r.log.With(slog.String("op", op))

	var ids []int64
	if err := r.db.Model(&user.User{}).Order("user_id ASC").Pluck("user_id", &ids).Error; err != nil {
		log.Error("failed to list users", "error", err)
		return nil, user.ErrUserInternal
	}
	return ids, nil
}

func (r *UserDatabase) GetSettings(userID int64) (map[string]string, error) {
	op := "UserDatabase.GetSettings"
	log := r.log.With(slog.String("op", op), slog.Int64("userID", userID))

	var rows []user.Setting
	if err := r.db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		log.Error("failed to load settings", "error", err)
		return nil, user.ErrUserInternal
	}
	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}

func (r *UserDatabase) PutSetting(userID int64, key, value string) error {
	op := "UserDatabase.PutSetting"
	log := r.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.String("key", key))

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&user.Setting{UserID: userID, Key: key, Value: value}).Error
	if err != nil {
		log.Error("failed to save setting", "error", err)
		return user.ErrUserInternal
	}
	return nil
}
