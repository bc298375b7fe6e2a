package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskbot/internal/modules/conversation"
	"taskbot/internal/modules/event"
	"taskbot/internal/modules/user"
)

// Настройки напоминаний: время ежедневной рассылки и флаг выходных.
// Каждый коммит настроек испускает SettingsChanged, планировщик по нему
// перечитывает расписание пользователя.

func (e *Engine) handleSettingsCallback(ctx context.Context, log *slog.Logger, sess *conversation.Session, cb conversation.Callback) ([]conversation.Reply, error) {
	switch cb.Action {
	case conversation.ActionSettings:
		sess.Reset()
		sess.State = conversation.StateSettingsMenu
		return e.settingsMenuReplies(sess)

	case conversation.ActionSettingsTime:
		if sess.State != conversation.StateSettingsMenu {
			return []conversation.Reply{conversation.MainMenu()}, nil
		}
		sess.State = conversation.StateSettingsTime
		return []conversation.Reply{conversation.Prompt("Введите время напоминания в формате ЧЧ:ММ:")}, nil

	case conversation.ActionToggleWeekends:
		if sess.State != conversation.StateSettingsMenu {
			return []conversation.Reply{conversation.MainMenu()}, nil
		}
		settings, err := e.users.GetSettings(sess.UserID)
		if err != nil {
			return nil, err
		}
		next := "1"
		if settings[user.SettingNotifyWeekends] == "1" {
			next = "0"
		}
		if err := e.users.PutSetting(sess.UserID, user.SettingNotifyWeekends, next); err != nil {
			log.Error("failed to update weekend setting", "error", err)
			return nil, err
		}
		e.dispatcher.Dispatch(ctx, event.Event{Type: event.SettingsChanged, UserID: sess.UserID, ChatID: sess.ChatID})
		return e.settingsMenuReplies(sess)

	default:
		return []conversation.Reply{conversation.MainMenu()}, nil
	}
}

func (e *Engine) handleSettingsText(ctx context.Context, log *slog.Logger, sess *conversation.Session, text string) ([]conversation.Reply, error) {
	if err := e.validate.Var(text, "required,datetime=15:04"); err != nil {
		return []conversation.Reply{conversation.Prompt("Неверный формат времени, попробуйте ещё раз:")}, nil
	}
	parsed, err := time.Parse("15:04", text)
	if err != nil {
		return []conversation.Reply{conversation.Prompt("Неверный формат времени, попробуйте ещё раз:")}, nil
	}
	value := fmt.Sprintf("%02d:%02d", parsed.Hour(), parsed.Minute())
	if err := e.users.PutSetting(sess.UserID, user.SettingReminderTime, value); err != nil {
		log.Error("failed to update reminder time", "error", err)
		return nil, err
	}
	sess.State = conversation.StateSettingsMenu
	e.dispatcher.Dispatch(ctx, event.Event{Type: event.SettingsChanged, UserID: sess.UserID, ChatID: sess.ChatID})

	replies, err := e.settingsMenuReplies(sess)
	if err != nil {
		return nil, err
	}
	return append([]conversation.Reply{{Text: "Время напоминания обновлено."}}, replies...), nil
}

func (e *Engine) settingsMenuReplies(sess *conversation.Session) ([]conversation.Reply, error) {
	settings, err := e.users.GetSettings(sess.UserID)
	if err != nil {
		return nil, err
	}
	return []conversation.Reply{conversation.SettingsMenu(settings)}, nil
}
