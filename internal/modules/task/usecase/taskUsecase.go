package usecase

import (
	"log/slog"

	"taskbot/internal/modules/task"
)

// TaskUseCase выражает точечные операции через контракт "перечитай,
// поменяй, сохрани весь список": частичное обновление - это Load,
// правка на месте и SaveAll целиком.
type TaskUseCase struct {
	repo task.Repo
	log  *slog.Logger
}

func NewTaskUseCase(repo task.Repo, log *slog.Logger) task.UseCase {
	return &TaskUseCase{
		repo: repo,
		log:  log,
	}
}

func (uc *TaskUseCase) List(userID int64) ([]task.TaskView, error) {
	return uc.repo.Load(userID)
}

func (uc *TaskUseCase) Add(userID int64, draft task.TaskView) error {
	op := "TaskUseCase.Add"
	log := uc.log.With(slog.String("op", op), slog.Int64("userID", userID))

	views, err := uc.repo.Load(userID)
	if err != nil {
		return err
	}
	draft.ID = 0
	views = append(views, draft)
	if err := uc.repo.SaveAll(userID, views); err != nil {
		return err
	}
	log.Info("task added", slog.String("title", draft.Title))
	return nil
}

func (uc *TaskUseCase) Update(userID int64, taskID int64, draft task.TaskView) error {
	op := "TaskUseCase.Update"
	log := uc.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("taskID", taskID))

	return uc.mutate(userID, taskID, log, func(v *task.TaskView) {
		v.Title = draft.Title
		v.Category = draft.Category
		v.Priority = draft.Priority
		v.Tags = draft.Tags
	})
}

func (uc *TaskUseCase) Complete(userID int64, taskID int64, comment string) error {
	op := "TaskUseCase.Complete"
	log := uc.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("taskID", taskID))

	return uc.mutate(userID, taskID, log, func(v *task.TaskView) {
		v.Done = true
		v.Comment = comment
	})
}

func (uc *TaskUseCase) Delete(userID int64, taskID int64) error {
	op := "TaskUseCase.Delete"
	log := uc.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("taskID", taskID))

	views, err := uc.repo.Load(userID)
	if err != nil {
		return err
	}
	kept := views[:0]
	found := false
	for _, v := range views {
		if v.ID == taskID {
			found = true
			continue
		}
		kept = append(kept, v)
	}
	if !found {
		// Задачу уже удалили в другой сессии - не о чем сообщать.
		log.Warn("task vanished before delete")
		return nil
	}
	if err := uc.repo.SaveAll(userID, kept); err != nil {
		return err
	}
	log.Info("task deleted")
	return nil
}

func (uc *TaskUseCase) Restore(userID int64, taskID int64) error {
	op := "TaskUseCase.Restore"
	log := uc.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("taskID", taskID))

	return uc.mutate(userID, taskID, log, func(v *task.TaskView) {
		v.Done = false
	})
}

// mutate перечитывает список, применяет правку к задаче с данным id и
// сохраняет всё обратно. Исчезнувшая до коммита задача - тихий no-op:
// гонку двух сессий не выносим наружу и не пересоздаём запись.
func (uc *TaskUseCase) mutate(userID int64, taskID int64, log *slog.Logger, fn func(*task.TaskView)) error {
	views, err := uc.repo.Load(userID)
	if err != nil {
		return err
	}
	found := false
	for i := range views {
		if views[i].ID == taskID {
			fn(&views[i])
			found = true
			break
		}
	}
	if !found {
		log.Warn("task vanished before commit")
		return nil
	}
	return uc.repo.SaveAll(userID, views)
}
