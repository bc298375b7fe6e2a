package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"taskbot/internal/modules/conversation"
	taskDb "taskbot/internal/modules/task/repo/database"
	taskUC "taskbot/internal/modules/task/usecase"
	"taskbot/internal/modules/user"
	userDb "taskbot/internal/modules/user/repo/database"
	"taskbot/internal/testutil"

	"github.com/robfig/cron/v3"
)

type nopSender struct{}

func (nopSender) Send(ctx context.Context, chatID int64, reply conversation.Reply) error {
	return nil
}

func newTestScheduler(t *testing.T) (*ReminderScheduler, user.Repo, *cron.Cron) {
	t.Helper()
	db := testutil.NewDB(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tasks := taskDb.NewTaskDatabase(db, log)
	users := userDb.NewUserDatabase(db, log, tasks)
	uc := taskUC.NewTaskUseCase(tasks, log)

	c := cron.New()
	return New(c, users, uc, nopSender{}, log), users, c
}

func TestCronSpec(t *testing.T) {
	cases := []struct {
		name     string
		settings map[string]string
		want     string
	}{
		{
			name:     "weekdays by default",
			settings: map[string]string{user.SettingReminderTime: "09:00", user.SettingNotifyWeekends: "0"},
			want:     "0 9 * * 1-5",
		},
		{
			name:     "every day with weekends on",
			settings: map[string]string{user.SettingReminderTime: "18:45", user.SettingNotifyWeekends: "1"},
			want:     "45 18 * * *",
		},
		{
			name:     "missing time falls back to default",
			settings: map[string]string{},
			want:     "0 9 * * 1-5",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := cronSpec(tc.settings)
			if err != nil {
				t.Fatalf("cronSpec: %v", err)
			}
			if got != tc.want {
				t.Errorf("spec = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCronSpecRejectsGarbage(t *testing.T) {
	cases := []string{"9", "9:00:00", "ab:cd", "24:00", "10:60"}
	for _, v := range cases {
		if _, err := cronSpec(map[string]string{user.SettingReminderTime: v}); err == nil {
			t.Errorf("cronSpec(%q): expected error", v)
		}
	}
}

func TestRescheduleReplacesEntry(t *testing.T) {
	s, users, c := newTestScheduler(t)

	if err := users.Register(42, ""); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := s.Reschedule(42); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if err := users.PutSetting(42, user.SettingReminderTime, "07:15"); err != nil {
		t.Fatalf("PutSetting: %v", err)
	}
	if err := s.Reschedule(42); err != nil {
		t.Fatalf("Reschedule again: %v", err)
	}

	if got := len(c.Entries()); got != 1 {
		t.Errorf("cron entries = %d, want 1", got)
	}
}

func TestRescheduleAllCoversEveryUser(t *testing.T) {
	s, users, c := newTestScheduler(t)

	for _, id := range []int64{1, 2, 3} {
		if err := users.Register(id, ""); err != nil {
			t.Fatalf("Register(%d): %v", id, err)
		}
	}
	if err := s.RescheduleAll(); err != nil {
		t.Fatalf("RescheduleAll: %v", err)
	}
	if got := len(c.Entries()); got != 3 {
		t.Errorf("cron entries = %d, want 3", got)
	}
}
