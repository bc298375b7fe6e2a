package database

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"taskbot/internal/modules/category"
	categoryDb "taskbot/internal/modules/category/repo/database"
	tagDb "taskbot/internal/modules/tag/repo/database"
	"taskbot/internal/modules/task"

	"gorm.io/gorm"
)

type TaskDatabase struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewTaskDatabase(db *gorm.DB, log *slog.Logger) *TaskDatabase {
	return &TaskDatabase{
		db:  db,
		log: log,
	}
}

func (r *TaskDatabase) Load(userID int64) ([]task.TaskView, error) {
	op := "TaskDatabase.Load"
	log := r.log.With(slog.String("op", op), slog.Int64("userID", userID))

	var tasks []*task.Task
	if err := r.db.Where("user_id = ?", userID).Order("id ASC").Find(&tasks).Error; err != nil {
		log.Error("failed to load tasks", "error", err)
		return nil, task.ErrTaskInternal
	}

	if len(tasks) == 0 {
		return []task.TaskView{}, nil
	}

	ids := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}

	type taggedRow struct {
		TaskID int64
		Name   string
	}
	var rows []taggedRow
	if err := r.db.Table("task_tags").
		Select("task_tags.task_id AS task_id, tags.name AS name").
		Joins("JOIN tags ON tags.id = task_tags.tag_id").
		Where("task_tags.task_id IN ?", ids).
		Scan(&rows).Error; err != nil {
		log.Error("failed to load task tags", "error", err)
		return nil, task.ErrTaskInternal
	}
	tagsByTask := make(map[int64][]string, len(tasks))
	for _, row := range rows {
		tagsByTask[row.TaskID] = append(tagsByTask[row.TaskID], row.Name)
	}
	for _, names := range tagsByTask {
		sort.Strings(names)
	}

	var categories []*category.Category
	if err := r.db.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		log.Error("failed to load categories for tasks", "error", err)
		return nil, task.ErrTaskInternal
	}
	categoryNames := make(map[int64]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	views := make([]task.TaskView, 0, len(tasks))
	for _, t := range tasks {
		v := task.TaskView{
			ID:       t.ID,
			Title:    t.Title,
			Priority: task.PriorityLabel(t.Priority),
			Done:     t.Status == task.StatusDone,
			Comment:  t.Comment,
			Tags:     tagsByTask[t.ID],
			DueAt:    t.DueAt,
		}
		if v.Tags == nil {
			v.Tags = []string{}
		}
		if t.CategoryID != nil {
			v.Category = categoryNames[*t.CategoryID]
		}
		views = append(views, v)
	}

	log.Debug("tasks loaded", slog.Int("count", len(views)))
	return views, nil
}

func (r *TaskDatabase) SaveAll(userID int64, views []task.TaskView) error {
	op := "TaskDatabase.SaveAll"
	log := r.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int("incoming", len(views)))

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var stored []*task.Task
		if err := tx.Where("user_id = ?", userID).Find(&stored).Error; err != nil {
			return err
		}
		existing := make(map[int64]*task.Task, len(stored))
		for _, t := range stored {
			existing[t.ID] = t
		}

		incoming := make(map[int64]struct{}, len(views))

		for i := range views {
			v := &views[i]

			// Категория всегда разрешается в пределах действующего
			// пользователя, чужие id сюда не попадают.
			catID, err := categoryDb.ResolveTx(tx, userID, v.Category)
			if err != nil {
				return err
			}

			if v.ID == 0 {
				id, err := nextIDTx(tx)
				if err != nil {
					return err
				}
				v.ID = id
			}
			incoming[v.ID] = struct{}{}

			status := task.StatusActive
			if v.Done {
				status = task.StatusDone
			}

			if prior, ok := existing[v.ID]; ok {
				if prior.UserID != userID {
					continue
				}
				var doneAt *time.Time
				if v.Done {
					if prior.DoneAt != nil {
						doneAt = prior.DoneAt
					} else {
						now := time.Now()
						doneAt = &now
					}
				}
				updates := map[string]interface{}{
					"title":       v.Title,
					"category_id": catID,
					"priority":    task.PriorityOrdinal(v.Priority),
					"status":      status,
					"comment":     v.Comment,
					"due_at":      v.DueAt,
					"done_at":     doneAt,
				}
				if err := tx.Model(&task.Task{}).
					Where("id = ? AND user_id = ?", v.ID, userID).
					Updates(updates).Error; err != nil {
					return err
				}
			} else {
				t := task.Task{
					ID:         v.ID,
					UserID:     userID,
					Title:      v.Title,
					CategoryID: catID,
					Priority:   task.PriorityOrdinal(v.Priority),
					Status:     status,
					Comment:    v.Comment,
					DueAt:      v.DueAt,
				}
				if v.Done {
					now := time.Now()
					t.DoneAt = &now
				}
				if err := tx.Create(&t).Error; err != nil {
					return err
				}
			}

			// Связи с тегами переписываются целиком: дешевле по коду, чем
			// диф, при небольшом числе тегов на задачу.
			if err := tx.Where("task_id = ?", v.ID).Delete(&task.TaskTag{}).Error; err != nil {
				return err
			}
			seen := make(map[int64]struct{}, len(v.Tags))
			for _, name := range v.Tags {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				tagID, err := tagDb.ResolveTx(tx, userID, name)
				if err != nil {
					return err
				}
				if _, dup := seen[tagID]; dup {
					continue
				}
				seen[tagID] = struct{}{}
				if err := tx.Create(&task.TaskTag{TaskID: v.ID, TagID: tagID}).Error; err != nil {
					return err
				}
			}
		}

		// Задачи, не пришедшие во входе, считаются удалёнными.
		var toDelete []int64
		for id := range existing {
			if _, ok := incoming[id]; !ok {
				toDelete = append(toDelete, id)
			}
		}
		if len(toDelete) > 0 {
			if err := tx.Where("task_id IN ?", toDelete).Delete(&task.TaskTag{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ? AND id IN ?", userID, toDelete).Delete(&task.Task{}).Error; err != nil {
				return err
			}
		}

		return resyncSequenceTx(tx)
	})
	if err != nil {
		log.Error("failed to save tasks", "error", err)
		return task.ErrTaskInternal
	}

	log.Info("tasks saved", slog.Int("count", len(views)))
	return nil
}

func (r *TaskDatabase) NextID() (int64, error) {
	op := "TaskDatabase.NextID"
	log := r.log.With(slog.String("op", op))

	var id int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = nextIDTx(tx)
		return err
	})
	if err != nil {
		log.Error("failed to allocate task id", "error", err)
		return 0, task.ErrTaskInternal
	}
	return id, nil
}

func (r *TaskDatabase) ListActiveTags(userID int64) ([]string, error) {
	op := "TaskDatabase.ListActiveTags"
	log := r.log.With(slog.String("op", op), slog.Int64("userID", userID))

	var names []string
	err := r.db.Raw(`
		SELECT DISTINCT tags.name
		FROM tags
		JOIN task_tags ON task_tags.tag_id = tags.id
		JOIN tasks ON tasks.id = task_tags.task_id
		WHERE tasks.user_id = ? AND tasks.status = ?
		ORDER BY tags.name ASC`,
		userID, task.StatusActive,
	).Scan(&names).Error
	if err != nil {
		log.Error("failed to list active tags", "error", err)
		return nil, task.ErrTaskInternal
	}
	return names, nil
}

// nextIDTx выдаёт следующий id из счётчика. Отсутствующая строка счётчика
// (чистая тестовая база) инициализируется от max(id).
func nextIDTx(tx *gorm.DB) (int64, error) {
	var id int64
	result := tx.Raw("UPDATE task_sequence SET last_id = last_id + 1 WHERE id = 1 RETURNING last_id").Scan(&id)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		var maxID int64
		if err := tx.Model(&task.Task{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return 0, err
		}
		id = maxID + 1
		if err := tx.Create(&task.Sequence{ID: 1, LastID: id}).Error; err != nil {
			return 0, err
		}
	}
	return id, nil
}

// resyncSequenceTx подтягивает счётчик к max(id), чтобы после массового
// сохранения с явными id выдача никогда не вернулась назад.
func resyncSequenceTx(tx *gorm.DB) error {
	var maxID int64
	if err := tx.Model(&task.Task{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return err
	}
	return tx.Model(&task.Sequence{}).
		Where("id = 1 AND last_id < ?", maxID).
		Update("last_id", maxID).Error
}
