package engine

import (
	"context"
	"errors"
	"log/slog"

	"taskbot/internal/modules/category"
	"taskbot/internal/modules/conversation"
	"taskbot/internal/modules/event"
)

// Управление справочником категорий: список, добавление, переименование,
// удаление. Удаление снимает категорию с задач, сами задачи остаются.

func (e *Engine) handleCategoryCallback(ctx context.Context, log *slog.Logger, sess *conversation.Session, cb conversation.Callback) ([]conversation.Reply, error) {
	switch cb.Action {
	case conversation.ActionCategories:
		sess.Reset()
		sess.State = conversation.StateCategoryMenu
		names, err := e.categoryNames(sess.UserID)
		if err != nil {
			return nil, err
		}
		return []conversation.Reply{conversation.CategoryMenu(names)}, nil

	case conversation.ActionCategoryAdd:
		if sess.State != conversation.StateCategoryMenu {
			return []conversation.Reply{conversation.MainMenu()}, nil
		}
		sess.State = conversation.StateCategoryAdd
		return []conversation.Reply{conversation.Prompt("Введите название категории:")}, nil

	case conversation.ActionCategoryEdit:
		if sess.State != conversation.StateCategoryMenu {
			return []conversation.Reply{conversation.MainMenu()}, nil
		}
		cats, err := e.categories.List(sess.UserID)
		if err != nil {
			return nil, err
		}
		if !cb.HasArg || cb.Arg < 0 || cb.Arg >= int64(len(cats)) {
			log.Warn("category index out of range", slog.Int64("index", cb.Arg))
			return e.categoryMenuReplies(sess)
		}
		sess.Scratch.CategoryID = cats[cb.Arg].ID
		sess.State = conversation.StateCategoryEdit
		return []conversation.Reply{conversation.Prompt("Введите новое название категории:")}, nil

	case conversation.ActionCategoryDelete:
		if sess.State != conversation.StateCategoryMenu {
			return []conversation.Reply{conversation.MainMenu()}, nil
		}
		cats, err := e.categories.List(sess.UserID)
		if err != nil {
			return nil, err
		}
		if !cb.HasArg || cb.Arg < 0 || cb.Arg >= int64(len(cats)) {
			log.Warn("category index out of range", slog.Int64("index", cb.Arg))
			return e.categoryMenuReplies(sess)
		}
		if err := e.categories.Delete(sess.UserID, cats[cb.Arg].ID); err != nil {
			if errors.Is(err, category.ErrCategoryNotFound) {
				return e.categoryMenuReplies(sess)
			}
			log.Error("failed to delete category", "error", err)
			return nil, err
		}
		// У задач этой категории ссылка обнулилась, список надо перерисовать.
		e.dispatcher.Dispatch(ctx, event.Event{Type: event.TasksChanged, UserID: sess.UserID, ChatID: sess.ChatID})
		replies, err := e.categoryMenuReplies(sess)
		if err != nil {
			return nil, err
		}
		return append([]conversation.Reply{{Text: "Категория удалена."}}, replies...), nil

	default:
		return []conversation.Reply{conversation.MainMenu()}, nil
	}
}

func (e *Engine) handleCategoryText(ctx context.Context, log *slog.Logger, sess *conversation.Session, text string) ([]conversation.Reply, error) {
	if err := e.validate.Var(text, "required,max=100"); err != nil {
		return []conversation.Reply{conversation.Prompt("Название категории не может быть пустым, попробуйте ещё раз:")}, nil
	}

	switch sess.State {
	case conversation.StateCategoryAdd:
		if err := e.categories.Create(sess.UserID, text); err != nil {
			if errors.Is(err, category.ErrCategoryNameConflict) {
				return []conversation.Reply{conversation.Prompt("Такая категория уже есть, введите другое название:")}, nil
			}
			log.Error("failed to create category", "error", err)
			return nil, err
		}
		sess.State = conversation.StateCategoryMenu
		replies, err := e.categoryMenuReplies(sess)
		if err != nil {
			return nil, err
		}
		return append([]conversation.Reply{{Text: "Категория добавлена."}}, replies...), nil

	case conversation.StateCategoryEdit:
		if err := e.categories.Rename(sess.UserID, sess.Scratch.CategoryID, text); err != nil {
			if errors.Is(err, category.ErrCategoryNameConflict) {
				return []conversation.Reply{conversation.Prompt("Такая категория уже есть, введите другое название:")}, nil
			}
			if errors.Is(err, category.ErrCategoryNotFound) {
				sess.State = conversation.StateCategoryMenu
				return e.categoryMenuReplies(sess)
			}
			log.Error("failed to rename category", "error", err)
			return nil, err
		}
		sess.State = conversation.StateCategoryMenu
		e.dispatcher.Dispatch(ctx, event.Event{Type: event.TasksChanged, UserID: sess.UserID, ChatID: sess.ChatID})
		replies, err := e.categoryMenuReplies(sess)
		if err != nil {
			return nil, err
		}
		return append([]conversation.Reply{{Text: "Категория переименована."}}, replies...), nil

	default:
		return []conversation.Reply{conversation.MainMenu()}, nil
	}
}

func (e *Engine) categoryMenuReplies(sess *conversation.Session) ([]conversation.Reply, error) {
	names, err := e.categoryNames(sess.UserID)
	if err != nil {
		return nil, err
	}
	return []conversation.Reply{conversation.CategoryMenu(names)}, nil
}
