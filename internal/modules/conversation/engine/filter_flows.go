package engine

import (
	"context"
	"log/slog"

	"taskbot/internal/modules/conversation"
	"taskbot/internal/modules/task"
)

// Фильтр списка задач. Живёт в сессии и не трогается Reset, поэтому
// выставленный фильтр переживает любые workflow до явного сброса.
// Кнопка без аргумента ("Любая", "Любой") очищает одно измерение.

func (e *Engine) handleFilterCallback(ctx context.Context, log *slog.Logger, sess *conversation.Session, cb conversation.Callback) ([]conversation.Reply, error) {
	switch cb.Action {
	case conversation.ActionFilter:
		sess.State = conversation.StateFilterMenu
		return []conversation.Reply{conversation.FilterMenu()}, nil

	case conversation.ActionFilterCategory:
		names, err := e.categoryNames(sess.UserID)
		if err != nil {
			return nil, err
		}
		return []conversation.Reply{conversation.FilterCategoryKeyboard(names)}, nil

	case conversation.ActionFilterPriority:
		return []conversation.Reply{conversation.FilterPriorityKeyboard()}, nil

	case conversation.ActionFilterTag:
		tags, err := e.taskRepo.ListActiveTags(sess.UserID)
		if err != nil {
			return nil, err
		}
		return []conversation.Reply{conversation.FilterTagKeyboard(tags)}, nil

	case conversation.ActionFilterSetCategory:
		if !cb.HasArg {
			sess.Filter.Category = ""
			return e.filteredListReplies(sess)
		}
		names, err := e.categoryNames(sess.UserID)
		if err != nil {
			return nil, err
		}
		if cb.Arg < 0 || cb.Arg >= int64(len(names)) {
			log.Warn("filter category index out of range", slog.Int64("index", cb.Arg))
			return []conversation.Reply{conversation.FilterCategoryKeyboard(names)}, nil
		}
		sess.Filter.Category = names[cb.Arg]
		return e.filteredListReplies(sess)

	case conversation.ActionFilterSetPriority:
		if !cb.HasArg {
			sess.Filter.Priority = ""
			return e.filteredListReplies(sess)
		}
		labels := task.PriorityLabels()
		if cb.Arg < 0 || cb.Arg >= int64(len(labels)) {
			return []conversation.Reply{conversation.FilterPriorityKeyboard()}, nil
		}
		sess.Filter.Priority = labels[cb.Arg]
		return e.filteredListReplies(sess)

	case conversation.ActionFilterSetTag:
		if !cb.HasArg {
			sess.Filter.Tag = ""
			return e.filteredListReplies(sess)
		}
		tags, err := e.taskRepo.ListActiveTags(sess.UserID)
		if err != nil {
			return nil, err
		}
		if cb.Arg < 0 || cb.Arg >= int64(len(tags)) {
			log.Warn("filter tag index out of range", slog.Int64("index", cb.Arg))
			return []conversation.Reply{conversation.FilterTagKeyboard(tags)}, nil
		}
		sess.Filter.Tag = tags[cb.Arg]
		return e.filteredListReplies(sess)

	case conversation.ActionFilterReset:
		sess.Filter = conversation.Filter{}
		replies, err := e.filteredListReplies(sess)
		if err != nil {
			return nil, err
		}
		return append([]conversation.Reply{{Text: "Фильтр сброшен."}}, replies...), nil

	default:
		return []conversation.Reply{conversation.MainMenu()}, nil
	}
}

func (e *Engine) filteredListReplies(sess *conversation.Session) ([]conversation.Reply, error) {
	sess.State = conversation.StateIdle
	reply, err := e.RenderTaskList(sess.UserID, sess.ChatID)
	if err != nil {
		return nil, err
	}
	return []conversation.Reply{reply}, nil
}
