package engine

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"taskbot/internal/modules/conversation"
	"taskbot/internal/modules/event"
	"taskbot/internal/modules/task"
)

// Workflow добавления и редактирования задачи. Оба идут по одной
// лесенке состояний (название, категория, приоритет, теги), коммит
// строго на последнем шаге.

func (e *Engine) handleTaskCallback(ctx context.Context, log *slog.Logger, sess *conversation.Session, cb conversation.Callback) ([]conversation.Reply, error) {
	switch cb.Action {
	case conversation.ActionAddTask:
		sess.Reset()
		sess.State = conversation.StateAddTitle
		return []conversation.Reply{conversation.Prompt("Введите название задачи:")}, nil

	case conversation.ActionTaskSelect:
		if !cb.HasArg {
			return []conversation.Reply{conversation.MainMenu()}, nil
		}
		sess.Reset()
		sess.Scratch.TaskID = cb.Arg
		sess.State = conversation.StateCommentPrompt
		return []conversation.Reply{conversation.Prompt("Задача выполнена! Введите комментарий (или «-», чтобы пропустить):")}, nil

	case conversation.ActionTaskEdit:
		if !cb.HasArg {
			return []conversation.Reply{conversation.MainMenu()}, nil
		}
		sess.Reset()
		sess.Scratch.TaskID = cb.Arg
		sess.State = conversation.StateEditTitle
		return []conversation.Reply{conversation.Prompt("Введите новое название задачи:")}, nil

	case conversation.ActionTaskDelete:
		if !cb.HasArg {
			return []conversation.Reply{conversation.MainMenu()}, nil
		}
		if err := e.tasks.Delete(sess.UserID, cb.Arg); err != nil {
			log.Error("failed to delete task", "error", err)
			return nil, err
		}
		e.dispatcher.Dispatch(ctx, event.Event{Type: event.TasksChanged, UserID: sess.UserID, ChatID: sess.ChatID})
		return []conversation.Reply{{Text: "Задача удалена."}}, nil

	case conversation.ActionTaskRestore:
		if !cb.HasArg {
			return []conversation.Reply{conversation.MainMenu()}, nil
		}
		if err := e.tasks.Restore(sess.UserID, cb.Arg); err != nil {
			log.Error("failed to restore task", "error", err)
			return nil, err
		}
		e.dispatcher.Dispatch(ctx, event.Event{Type: event.TasksChanged, UserID: sess.UserID, ChatID: sess.ChatID})
		return []conversation.Reply{{Text: "Задача восстановлена."}}, nil

	case conversation.ActionCategoryChoose:
		return e.chooseCategory(log, sess, cb)

	case conversation.ActionNewCategory:
		switch sess.State {
		case conversation.StateAddCategoryChoice:
			sess.State = conversation.StateAddCategoryInput
		case conversation.StateEditCategoryChoice:
			sess.State = conversation.StateEditCategoryInput
		default:
			return []conversation.Reply{conversation.MainMenu()}, nil
		}
		return []conversation.Reply{conversation.Prompt("Введите название новой категории:")}, nil

	case conversation.ActionPriorityChoose:
		return e.choosePriority(sess, cb)

	case conversation.ActionSkipTags:
		switch sess.State {
		case conversation.StateAddTags:
			return e.commitAdd(ctx, log, sess, nil)
		case conversation.StateEditTags:
			return e.commitEdit(ctx, log, sess, nil)
		default:
			return []conversation.Reply{conversation.MainMenu()}, nil
		}

	default:
		return []conversation.Reply{conversation.MainMenu()}, nil
	}
}

func (e *Engine) chooseCategory(log *slog.Logger, sess *conversation.Session, cb conversation.Callback) ([]conversation.Reply, error) {
	if sess.State != conversation.StateAddCategoryChoice && sess.State != conversation.StateEditCategoryChoice {
		return []conversation.Reply{conversation.MainMenu()}, nil
	}
	names, err := e.categoryNames(sess.UserID)
	if err != nil {
		return nil, err
	}
	if !cb.HasArg || cb.Arg < 0 || cb.Arg >= int64(len(names)) {
		// Список мог измениться с момента отрисовки кнопок.
		log.Warn("category index out of range", slog.Int64("index", cb.Arg))
		return []conversation.Reply{conversation.CategoryChoiceKeyboard(names)}, nil
	}
	sess.Scratch.Category = names[cb.Arg]
	if sess.State == conversation.StateAddCategoryChoice {
		sess.State = conversation.StateAddPriority
	} else {
		sess.State = conversation.StateEditPriority
	}
	return []conversation.Reply{conversation.PriorityChoiceKeyboard()}, nil
}

func (e *Engine) choosePriority(sess *conversation.Session, cb conversation.Callback) ([]conversation.Reply, error) {
	if sess.State != conversation.StateAddPriority && sess.State != conversation.StateEditPriority {
		return []conversation.Reply{conversation.MainMenu()}, nil
	}
	labels := task.PriorityLabels()
	if !cb.HasArg || cb.Arg < 0 || cb.Arg >= int64(len(labels)) {
		return []conversation.Reply{conversation.PriorityChoiceKeyboard()}, nil
	}
	sess.Scratch.Priority = labels[cb.Arg]
	if sess.State == conversation.StateAddPriority {
		sess.State = conversation.StateAddTags
	} else {
		sess.State = conversation.StateEditTags
	}
	return []conversation.Reply{conversation.TagsPrompt()}, nil
}

func (e *Engine) handleTaskText(ctx context.Context, log *slog.Logger, sess *conversation.Session, text string) ([]conversation.Reply, error) {
	switch sess.State {
	case conversation.StateAddTitle, conversation.StateEditTitle:
		if err := e.validate.Var(text, "required,max=200"); err != nil {
			return []conversation.Reply{conversation.Prompt("Название не может быть пустым, попробуйте ещё раз:")}, nil
		}
		sess.Scratch.Title = text
		if sess.State == conversation.StateAddTitle {
			sess.State = conversation.StateAddCategoryChoice
		} else {
			sess.State = conversation.StateEditCategoryChoice
		}
		names, err := e.categoryNames(sess.UserID)
		if err != nil {
			return nil, err
		}
		return []conversation.Reply{conversation.CategoryChoiceKeyboard(names)}, nil

	case conversation.StateAddCategoryInput, conversation.StateEditCategoryInput:
		if err := e.validate.Var(text, "required,max=100"); err != nil {
			return []conversation.Reply{conversation.Prompt("Название категории не может быть пустым, попробуйте ещё раз:")}, nil
		}
		sess.Scratch.Category = text
		if sess.State == conversation.StateAddCategoryInput {
			sess.State = conversation.StateAddPriority
		} else {
			sess.State = conversation.StateEditPriority
		}
		return []conversation.Reply{conversation.PriorityChoiceKeyboard()}, nil

	case conversation.StateAddTags:
		return e.commitAdd(ctx, log, sess, parseTags(text))

	case conversation.StateEditTags:
		return e.commitEdit(ctx, log, sess, parseTags(text))

	case conversation.StateCommentPrompt:
		comment := text
		if comment == "-" {
			comment = ""
		}
		if err := e.tasks.Complete(sess.UserID, sess.Scratch.TaskID, comment); err != nil {
			log.Error("failed to complete task", "error", err)
			return nil, err
		}
		sess.Reset()
		e.dispatcher.Dispatch(ctx, event.Event{Type: event.TasksChanged, UserID: sess.UserID, ChatID: sess.ChatID})
		return []conversation.Reply{{Text: "Задача сохранена."}}, nil

	default:
		return []conversation.Reply{conversation.MainMenu()}, nil
	}
}

func (e *Engine) commitAdd(ctx context.Context, log *slog.Logger, sess *conversation.Session, tags []string) ([]conversation.Reply, error) {
	draft := task.TaskView{
		Title:    sess.Scratch.Title,
		Category: sess.Scratch.Category,
		Priority: sess.Scratch.Priority,
		Tags:     tags,
	}
	if err := e.tasks.Add(sess.UserID, draft); err != nil {
		log.Error("failed to add task", "error", err)
		return nil, err
	}
	sess.Reset()
	e.dispatcher.Dispatch(ctx, event.Event{Type: event.TasksChanged, UserID: sess.UserID, ChatID: sess.ChatID})
	return []conversation.Reply{{Text: "Задача добавлена."}}, nil
}

func (e *Engine) commitEdit(ctx context.Context, log *slog.Logger, sess *conversation.Session, tags []string) ([]conversation.Reply, error) {
	draft := task.TaskView{
		Title:    sess.Scratch.Title,
		Category: sess.Scratch.Category,
		Priority: sess.Scratch.Priority,
		Tags:     tags,
	}
	if err := e.tasks.Update(sess.UserID, sess.Scratch.TaskID, draft); err != nil {
		log.Error("failed to update task", "error", err)
		return nil, err
	}
	sess.Reset()
	e.dispatcher.Dispatch(ctx, event.Event{Type: event.TasksChanged, UserID: sess.UserID, ChatID: sess.ChatID})
	return []conversation.Reply{{Text: "Задача обновлена."}}, nil
}

// parseTags разбирает ввод "дом, срочно" в упорядоченный список без
// пустых значений и повторов.
func parseTags(text string) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, part := range strings.Split(text, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, name)
	}
	sort.Strings(tags)
	return tags
}
