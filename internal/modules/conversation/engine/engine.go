package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taskbot/internal/modules/category"
	"taskbot/internal/modules/conversation"
	"taskbot/internal/modules/event"
	"taskbot/internal/modules/task"
	"taskbot/internal/modules/user"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type sessionKey struct {
	userID int64
	chatID int64
}

// Engine - конечный автомат диалога. Держит сессии (user, chat),
// накапливает поля workflow в Scratch и коммитит в хранилище только на
// финальном переходе; отменённый или брошенный диалог не оставляет
// следов в данных.
type Engine struct {
	users      user.Repo
	tasks      task.UseCase
	taskRepo   task.Repo
	categories category.Repo
	dispatcher event.Dispatcher
	validate   *validator.Validate
	log        *slog.Logger

	mu       sync.Mutex
	sessions map[sessionKey]*conversation.Session
}

func New(
	users user.Repo,
	tasks task.UseCase,
	taskRepo task.Repo,
	categories category.Repo,
	dispatcher event.Dispatcher,
	log *slog.Logger,
) *Engine {
	return &Engine{
		users:      users,
		tasks:      tasks,
		taskRepo:   taskRepo,
		categories: categories,
		dispatcher: dispatcher,
		validate:   validator.New(),
		log:        log,
		sessions:   make(map[sessionKey]*conversation.Session),
	}
}

// Handle обрабатывает одно входящее событие и возвращает ответы для
// отправки транспортом. Регистрация зовётся на каждом событии - она
// идемпотентна.
func (e *Engine) Handle(ctx context.Context, upd conversation.Update) ([]conversation.Reply, error) {
	op := "Engine.Handle"
	log := e.log.With(
		slog.String("op", op),
		slog.String("updateID", uuid.NewString()),
		slog.Int64("userID", upd.UserID),
	)

	if err := e.users.Register(upd.UserID, upd.Name); err != nil {
		log.Error("failed to register user", "error", err)
		return nil, err
	}

	sess := e.session(upd.UserID, upd.ChatID)
	sess.LastActivity = time.Now()

	if upd.Callback != nil {
		return e.handleCallback(ctx, log, sess, *upd.Callback)
	}
	return e.handleText(ctx, log, sess, strings.TrimSpace(upd.Text))
}

func (e *Engine) session(userID, chatID int64) *conversation.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := sessionKey{userID: userID, chatID: chatID}
	sess, ok := e.sessions[key]
	if !ok {
		sess = &conversation.Session{UserID: userID, ChatID: chatID, State: conversation.StateIdle}
		e.sessions[key] = sess
	}
	return sess
}

// ExpireSessions сбрасывает сессии, простоявшие дольше ttl, и убирает
// их из памяти. Возвращает число затронутых сессий.
func (e *Engine) ExpireSessions(ttl time.Duration) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	expired := 0
	for key, sess := range e.sessions {
		if sess.LastActivity.After(cutoff) {
			continue
		}
		if sess.State != conversation.StateIdle {
			e.log.Info("expiring stale conversation",
				slog.Int64("userID", sess.UserID), slog.Int64("chatID", sess.ChatID))
		}
		delete(e.sessions, key)
		expired++
	}
	return expired
}

// RenderTaskList строит список задач с учётом фильтра сессии. Им же
// пользуется подписчик пост-коммитных событий.
func (e *Engine) RenderTaskList(userID, chatID int64) (conversation.Reply, error) {
	views, err := e.tasks.List(userID)
	if err != nil {
		return conversation.Reply{}, err
	}
	filter := e.session(userID, chatID).Filter
	return conversation.TaskList(conversation.ApplyFilter(views, filter), true), nil
}

func (e *Engine) handleCallback(ctx context.Context, log *slog.Logger, sess *conversation.Session, cb conversation.Callback) ([]conversation.Reply, error) {
	log = log.With(slog.String("action", string(cb.Action)))

	switch cb.Action {
	case conversation.ActionCancel:
		sess.Reset()
		return []conversation.Reply{{Text: "Действие отменено."}, conversation.MainMenu()}, nil

	case conversation.ActionStart:
		sess.Reset()
		return []conversation.Reply{conversation.MainMenu()}, nil

	case conversation.ActionShowTasks:
		reply, err := e.RenderTaskList(sess.UserID, sess.ChatID)
		if err != nil {
			return nil, err
		}
		return []conversation.Reply{reply}, nil

	case conversation.ActionShowCompleted:
		views, err := e.tasks.List(sess.UserID)
		if err != nil {
			return nil, err
		}
		return []conversation.Reply{conversation.CompletedList(views)}, nil

	case conversation.ActionAddTask, conversation.ActionTaskSelect, conversation.ActionTaskEdit,
		conversation.ActionTaskDelete, conversation.ActionTaskRestore,
		conversation.ActionCategoryChoose, conversation.ActionNewCategory,
		conversation.ActionPriorityChoose, conversation.ActionSkipTags:
		return e.handleTaskCallback(ctx, log, sess, cb)

	case conversation.ActionCategories, conversation.ActionCategoryAdd,
		conversation.ActionCategoryEdit, conversation.ActionCategoryDelete:
		return e.handleCategoryCallback(ctx, log, sess, cb)

	case conversation.ActionFilter, conversation.ActionFilterCategory,
		conversation.ActionFilterPriority, conversation.ActionFilterTag,
		conversation.ActionFilterSetCategory, conversation.ActionFilterSetPriority,
		conversation.ActionFilterSetTag, conversation.ActionFilterReset:
		return e.handleFilterCallback(ctx, log, sess, cb)

	case conversation.ActionSettings, conversation.ActionSettingsTime,
		conversation.ActionToggleWeekends:
		return e.handleSettingsCallback(ctx, log, sess, cb)

	default:
		log.Warn("unknown callback action")
		return []conversation.Reply{conversation.MainMenu()}, nil
	}
}

func (e *Engine) handleText(ctx context.Context, log *slog.Logger, sess *conversation.Session, text string) ([]conversation.Reply, error) {
	switch sess.State {
	case conversation.StateAddTitle, conversation.StateAddCategoryInput, conversation.StateAddTags,
		conversation.StateEditTitle, conversation.StateEditCategoryInput, conversation.StateEditTags,
		conversation.StateCommentPrompt:
		return e.handleTaskText(ctx, log, sess, text)

	case conversation.StateCategoryAdd, conversation.StateCategoryEdit:
		return e.handleCategoryText(ctx, log, sess, text)

	case conversation.StateSettingsTime:
		return e.handleSettingsText(ctx, log, sess, text)

	default:
		// Свободный текст вне workflow - показываем главное меню.
		return []conversation.Reply{conversation.MainMenu()}, nil
	}
}

func (e *Engine) categoryNames(userID int64) ([]string, error) {
	cats, err := e.categories.List(userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return names, nil
}
