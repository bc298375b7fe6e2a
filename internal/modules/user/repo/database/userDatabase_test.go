package database

import (
	"io"
	"log/slog"
	"testing"

	"taskbot/internal/modules/category"
	taskDb "taskbot/internal/modules/task/repo/database"
	"taskbot/internal/modules/user"
	"taskbot/internal/testutil"

	"gorm.io/gorm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRepo(t *testing.T) (*UserDatabase, *taskDb.TaskDatabase, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	log := discardLogger()
	tasks := taskDb.NewTaskDatabase(db, log)
	return NewUserDatabase(db, log, tasks), tasks, db
}

func TestRegisterBootstrapsNewUser(t *testing.T) {
	repo, tasks, db := newTestRepo(t)

	if err := repo.Register(42, "Ivan"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	settings, err := repo.GetSettings(42)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if settings[user.SettingReminderTime] != user.DefaultReminderTime {
		t.Errorf("reminder_time = %q, want %q", settings[user.SettingReminderTime], user.DefaultReminderTime)
	}
	if settings[user.SettingNotifyWeekends] != user.DefaultNotifyWeekends {
		t.Errorf("notify_weekends = %q, want %q", settings[user.SettingNotifyWeekends], user.DefaultNotifyWeekends)
	}

	var catCount int64
	if err := db.Model(&category.Category{}).Where("user_id = ?", 42).Count(&catCount).Error; err != nil {
		t.Fatalf("count categories: %v", err)
	}
	if int(catCount) != len(user.TemplateCategories) {
		t.Errorf("categories = %d, want %d", catCount, len(user.TemplateCategories))
	}

	views, err := tasks.Load(42)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(views) != len(user.TemplateTasks) {
		t.Fatalf("template tasks = %d, want %d", len(views), len(user.TemplateTasks))
	}
	if views[0].ID == 0 {
		t.Error("imported task did not get an id from the sequence")
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	repo, tasks, _ := newTestRepo(t)

	if err := repo.Register(42, "Ivan"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := repo.Register(42, "Ivan"); err != nil {
		t.Fatalf("second Register: %v", err)
	}

	views, _ := tasks.Load(42)
	if len(views) != len(user.TemplateTasks) {
		t.Errorf("template import repeated: %d tasks", len(views))
	}
	settings, _ := repo.GetSettings(42)
	if len(settings) != len(user.DefaultSettings()) {
		t.Errorf("settings rows = %d, want %d", len(settings), len(user.DefaultSettings()))
	}
}

func TestRegisterKeepsExistingSettings(t *testing.T) {
	repo, _, _ := newTestRepo(t)

	if err := repo.Register(42, ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := repo.PutSetting(42, user.SettingReminderTime, "07:45"); err != nil {
		t.Fatalf("PutSetting: %v", err)
	}
	if err := repo.Register(42, "Ivan"); err != nil {
		t.Fatalf("re-Register: %v", err)
	}

	settings, _ := repo.GetSettings(42)
	if settings[user.SettingReminderTime] != "07:45" {
		t.Errorf("reminder_time = %q, want kept 07:45", settings[user.SettingReminderTime])
	}
}

func TestPutSettingUpsert(t *testing.T) {
	repo, _, _ := newTestRepo(t)

	if err := repo.Register(42, ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := repo.PutSetting(42, user.SettingNotifyWeekends, "1"); err != nil {
		t.Fatalf("PutSetting: %v", err)
	}
	if err := repo.PutSetting(42, user.SettingNotifyWeekends, "0"); err != nil {
		t.Fatalf("PutSetting update: %v", err)
	}

	settings, _ := repo.GetSettings(42)
	if settings[user.SettingNotifyWeekends] != "0" {
		t.Errorf("notify_weekends = %q, want 0", settings[user.SettingNotifyWeekends])
	}
}

func TestListUserIDs(t *testing.T) {
	repo, _, _ := newTestRepo(t)

	repo.Register(3, "")
	repo.Register(1, "")
	repo.Register(2, "")

	ids, err := repo.ListUserIDs()
	if err != nil {
		t.Fatalf("ListUserIDs: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Errorf("ids = %v, want [1 2 3]", ids)
	}
}
