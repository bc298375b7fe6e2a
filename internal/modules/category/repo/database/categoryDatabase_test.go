package database_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"taskbot/internal/modules/category"
	"taskbot/internal/modules/category/repo/database"
	"taskbot/internal/modules/task"
	taskDb "taskbot/internal/modules/task/repo/database"
	"taskbot/internal/testutil"

	"gorm.io/gorm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRepo(t *testing.T) (*database.CategoryDatabase, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	return database.NewCategoryDatabase(db, discardLogger()), db
}

func TestResolveGetOrCreate(t *testing.T) {
	repo, _ := newTestRepo(t)

	first, err := repo.Resolve(1, "Работа")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if first == nil {
		t.Fatal("Resolve returned nil id for non-blank name")
	}

	second, err := repo.Resolve(1, "  Работа  ")
	if err != nil {
		t.Fatalf("Resolve again: %v", err)
	}
	if second == nil || *second != *first {
		t.Errorf("Resolve is not idempotent: %v vs %v", first, second)
	}

	cats, err := repo.List(1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(cats) != 1 {
		t.Errorf("got %d categories, want 1", len(cats))
	}
}

func TestResolveBlankMeansNoCategory(t *testing.T) {
	repo, _ := newTestRepo(t)

	id, err := repo.Resolve(1, "   ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id != nil {
		t.Errorf("blank name resolved to id %d, want nil", *id)
	}
}

func TestResolveScopedPerUser(t *testing.T) {
	repo, _ := newTestRepo(t)

	mine, err := repo.Resolve(1, "Дом")
	if err != nil {
		t.Fatalf("Resolve user 1: %v", err)
	}
	theirs, err := repo.Resolve(2, "Дом")
	if err != nil {
		t.Fatalf("Resolve user 2: %v", err)
	}
	if *mine == *theirs {
		t.Errorf("same category id %d shared between users", *mine)
	}
}

func TestRenameConflict(t *testing.T) {
	repo, _ := newTestRepo(t)

	workID, _ := repo.Resolve(1, "Работа")
	repo.Resolve(1, "Дом")

	err := repo.Rename(1, *workID, "Дом")
	if !errors.Is(err, category.ErrCategoryNameConflict) {
		t.Errorf("Rename into taken name: got %v, want ErrCategoryNameConflict", err)
	}

	if err := repo.Rename(1, *workID, "Офис"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	cats, _ := repo.List(1)
	names := []string{}
	for _, c := range cats {
		names = append(names, c.Name)
	}
	if len(names) != 2 || names[0] != "Дом" || names[1] != "Офис" {
		t.Errorf("names = %v, want [Дом Офис]", names)
	}
}

func TestRenameNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	err := repo.Rename(1, 999, "Дом")
	if !errors.Is(err, category.ErrCategoryNotFound) {
		t.Errorf("got %v, want ErrCategoryNotFound", err)
	}
}

func TestDeleteUnlinksTasks(t *testing.T) {
	repo, db := newTestRepo(t)
	tasks := taskDb.NewTaskDatabase(db, discardLogger())

	if err := tasks.SaveAll(1, []task.TaskView{
		{Title: "report", Category: "Работа", Priority: task.PriorityLabelMedium},
	}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	cats, _ := repo.List(1)
	if len(cats) != 1 {
		t.Fatalf("expected resolved category, got %d", len(cats))
	}
	if err := repo.Delete(1, cats[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	views, err := tasks.Load(1)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("task disappeared with its category")
	}
	if views[0].Category != "" {
		t.Errorf("Category = %q, want empty after deletion", views[0].Category)
	}

	if err := repo.Delete(1, cats[0].ID); !errors.Is(err, category.ErrCategoryNotFound) {
		t.Errorf("second delete: got %v, want ErrCategoryNotFound", err)
	}
}
