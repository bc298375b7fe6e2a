package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"taskbot/internal/modules/category"
	"taskbot/internal/modules/tag"
	"taskbot/internal/modules/task"
	"taskbot/internal/modules/user"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB поднимает изолированную sqlite базу в памяти со схемой бота.
// Одно соединение, чтобы in-memory база не исчезала между запросами.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:taskbot_test_%d?mode=memory&cache=shared&_fk=1", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&user.User{},
		&user.Setting{},
		&category.Category{},
		&tag.Tag{},
		&task.Task{},
		&task.TaskTag{},
		&task.Sequence{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	if err := db.Create(&task.Sequence{ID: 1, LastID: 0}).Error; err != nil {
		t.Fatalf("failed to seed sequence: %v", err)
	}
	return db
}
