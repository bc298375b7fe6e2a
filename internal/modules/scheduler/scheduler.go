package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"taskbot/internal/modules/conversation"
	"taskbot/internal/modules/task"
	"taskbot/internal/modules/user"

	"github.com/robfig/cron/v3"
)

// ReminderScheduler держит по одной cron-записи на пользователя и
// перечитывает её из настроек при каждом Reschedule. Рассылка уходит в
// личный чат, id которого совпадает с id пользователя.
type ReminderScheduler struct {
	cron   *cron.Cron
	users  user.Repo
	tasks  task.UseCase
	sender conversation.Sender
	log    *slog.Logger

	mu      sync.Mutex
	entries map[int64]cron.EntryID
}

func New(c *cron.Cron, users user.Repo, tasks task.UseCase, sender conversation.Sender, log *slog.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		cron:    c,
		users:   users,
		tasks:   tasks,
		sender:  sender,
		log:     log,
		entries: make(map[int64]cron.EntryID),
	}
}

// Reschedule заменяет cron-запись пользователя согласно его текущим
// настройкам. Старая запись снимается до добавления новой, так что
// дублей не бывает.
func (s *ReminderScheduler) Reschedule(userID int64) error {
	op := "ReminderScheduler.Reschedule"
	log := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	settings, err := s.users.GetSettings(userID)
	if err != nil {
		return err
	}
	spec, err := cronSpec(settings)
	if err != nil {
		log.Error("invalid reminder settings", "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[userID]; ok {
		s.cron.Remove(old)
		delete(s.entries, userID)
	}
	id, err := s.cron.AddFunc(spec, func() {
		s.remind(userID)
	})
	if err != nil {
		log.Error("failed to schedule reminder", "error", err)
		return err
	}
	s.entries[userID] = id
	log.Info("reminder scheduled", slog.String("spec", spec))
	return nil
}

// RescheduleAll строит расписание для всех известных пользователей.
// Зовётся один раз на старте приложения.
func (s *ReminderScheduler) RescheduleAll() error {
	op := "ReminderScheduler.RescheduleAll"
	log := s.log.With(slog.String("op", op))

	ids, err := s.users.ListUserIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.Reschedule(id); err != nil {
			log.Error("failed to reschedule user", slog.Int64("userID", id), "error", err)
		}
	}
	log.Info("reminders scheduled", slog.Int("users", len(ids)))
	return nil
}

func (s *ReminderScheduler) remind(userID int64) {
	op := "ReminderScheduler.remind"
	log := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	views, err := s.tasks.List(userID)
	if err != nil {
		log.Error("failed to load tasks for reminder", "error", err)
		return
	}
	reply := conversation.DailyTaskList(views)
	if err := s.sender.Send(context.Background(), userID, reply); err != nil {
		log.Error("failed to send reminder", "error", err)
	}
}

// cronSpec строит cron-выражение из настроек: будни при
// notify_weekends=0, все дни при 1.
func cronSpec(settings map[string]string) (string, error) {
	timeStr := settings[user.SettingReminderTime]
	if timeStr == "" {
		timeStr = user.DefaultReminderTime
	}
	parts := strings.SplitN(timeStr, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("malformed reminder time %q", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("malformed reminder time %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("malformed reminder time %q", timeStr)
	}

	days := "1-5"
	if settings[user.SettingNotifyWeekends] == "1" {
		days = "*"
	}
	return fmt.Sprintf("%d %d * * %s", minute, hour, days), nil
}
