package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"taskbot/internal/modules/conversation"
)

// Типы Telegram Bot API, в объёме, нужном боту.

type tgUpdate struct {
	UpdateID      int              `json:"update_id"`
	Message       *tgMessage       `json:"message"`
	CallbackQuery *tgCallbackQuery `json:"callback_query"`
}

type tgMessage struct {
	MessageID int     `json:"message_id"`
	From      *tgUser `json:"from"`
	Chat      tgChat  `json:"chat"`
	Text      string  `json:"text"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

type tgUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type tgCallbackQuery struct {
	ID      string     `json:"id"`
	From    tgUser     `json:"from"`
	Message *tgMessage `json:"message"`
	Data    string     `json:"data"`
}

type tgInlineKeyboard struct {
	InlineKeyboard [][]tgInlineButton `json:"inline_keyboard"`
}

type tgInlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
}

// Engine - кусок движка диалога, нужный транспорту.
type Engine interface {
	Handle(ctx context.Context, upd conversation.Update) ([]conversation.Reply, error)
}

// Transport - long-poll клиент Telegram. Разбирает callback-токены в
// типизированные Callback на своей границе, движок сырых строк не видит.
type Transport struct {
	token       string
	pollTimeout int
	client      *http.Client
	engine      Engine
	log         *slog.Logger

	// Очередь пост-коммитных перерисовок: подписчик шины кладёт сюда
	// Reply, а цикл обработки отправляет их после прямых ответов, чтобы
	// порядок сообщений в чате совпадал с порядком действий.
	pendingMu sync.Mutex
	pending   map[int64][]conversation.Reply
}

func New(token string, pollTimeout int, engine Engine, log *slog.Logger) *Transport {
	return &Transport{
		token:       token,
		pollTimeout: pollTimeout,
		client:      &http.Client{Timeout: time.Duration(pollTimeout+10) * time.Second},
		engine:      engine,
		log:         log,
		pending:     make(map[int64][]conversation.Reply),
	}
}

// Run крутит getUpdates до отмены контекста.
func (t *Transport) Run(ctx context.Context) {
	op := "Transport.Run"
	log := t.log.With(slog.String("op", op))
	log.Info("telegram polling started")

	offset := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		url := fmt.Sprintf("https://api.telegram.org/bot%s/getUpdates?offset=%d&timeout=%d",
			t.token, offset, t.pollTimeout)

		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := t.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("poll error", "error", err)
			time.Sleep(5 * time.Second)
			continue
		}

		var body struct {
			OK     bool       `json:"ok"`
			Result []tgUpdate `json:"result"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			log.Error("failed to decode updates", "error", err)
		}
		resp.Body.Close()

		for _, u := range body.Result {
			offset = u.UpdateID + 1
			t.handleUpdate(ctx, u)
		}
	}
}

func (t *Transport) handleUpdate(ctx context.Context, u tgUpdate) {
	op := "Transport.handleUpdate"
	log := t.log.With(slog.String("op", op))

	var upd conversation.Update
	switch {
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		if cq.Message == nil {
			t.answerCallback(cq.ID)
			return
		}
		cb, ok := decodeCallback(cq.Data)
		t.answerCallback(cq.ID)
		if !ok {
			log.Warn("malformed callback data", slog.String("data", cq.Data))
			return
		}
		upd = conversation.Update{
			UserID:   cq.From.ID,
			ChatID:   cq.Message.Chat.ID,
			Name:     displayName(cq.From),
			Callback: &cb,
		}

	case u.Message != nil && u.Message.From != nil:
		msg := u.Message
		text := strings.TrimSpace(msg.Text)
		upd = conversation.Update{
			UserID: msg.From.ID,
			ChatID: msg.Chat.ID,
			Name:   displayName(*msg.From),
			Text:   text,
		}
		if strings.HasPrefix(text, "/") {
			cb := commandCallback(text)
			upd.Text = ""
			upd.Callback = &cb
		}

	default:
		return
	}

	replies, err := t.engine.Handle(ctx, upd)
	if err != nil {
		log.Error("engine error", slog.Int64("userID", upd.UserID), "error", err)
		t.Send(ctx, upd.ChatID, conversation.Reply{Text: "Что-то пошло не так, попробуйте ещё раз."})
		return
	}
	for _, reply := range replies {
		if err := t.Send(ctx, upd.ChatID, reply); err != nil {
			log.Error("failed to send reply", "error", err)
		}
	}
	t.drainPending(ctx, upd.ChatID)
}

// commandCallback отображает слэш-команду в действие диалога.
// Неизвестная команда ведёт в главное меню.
func commandCallback(text string) conversation.Callback {
	cmd := strings.SplitN(text, " ", 2)[0]
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}
	switch cmd {
	case "/cancel":
		return conversation.Callback{Action: conversation.ActionCancel}
	case "/tasks", "/list":
		return conversation.Callback{Action: conversation.ActionShowTasks}
	case "/completed":
		return conversation.Callback{Action: conversation.ActionShowCompleted}
	case "/add":
		return conversation.Callback{Action: conversation.ActionAddTask}
	case "/categories":
		return conversation.Callback{Action: conversation.ActionCategories}
	case "/filter":
		return conversation.Callback{Action: conversation.ActionFilter}
	case "/settings":
		return conversation.Callback{Action: conversation.ActionSettings}
	default:
		return conversation.Callback{Action: conversation.ActionStart}
	}
}

func displayName(u tgUser) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// Кодек callback-токена: "action" либо "action:arg".

func encodeCallback(cb conversation.Callback) string {
	if !cb.HasArg {
		return string(cb.Action)
	}
	return fmt.Sprintf("%s:%d", cb.Action, cb.Arg)
}

func decodeCallback(data string) (conversation.Callback, bool) {
	if data == "" {
		return conversation.Callback{}, false
	}
	parts := strings.SplitN(data, ":", 2)
	cb := conversation.Callback{Action: conversation.Action(parts[0])}
	if len(parts) == 2 {
		arg, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return conversation.Callback{}, false
		}
		cb.Arg = arg
		cb.HasArg = true
	}
	return cb, true
}

// Queue откладывает Reply до конца обработки текущего события. Зовётся
// подписчиком TasksChanged.
func (t *Transport) Queue(chatID int64, reply conversation.Reply) {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()
	t.pending[chatID] = append(t.pending[chatID], reply)
}

func (t *Transport) drainPending(ctx context.Context, chatID int64) {
	t.pendingMu.Lock()
	queued := t.pending[chatID]
	delete(t.pending, chatID)
	t.pendingMu.Unlock()

	for _, reply := range queued {
		if err := t.Send(ctx, chatID, reply); err != nil {
			t.log.Error("failed to send queued reply", "error", err)
		}
	}
}

// Send реализует conversation.Sender.
func (t *Transport) Send(ctx context.Context, chatID int64, reply conversation.Reply) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    reply.Text,
	}
	if len(reply.Keyboard) > 0 {
		payload["reply_markup"] = tgInlineKeyboard{InlineKeyboard: toInlineKeyboard(reply.Keyboard)}
	}
	body, _ := json.Marshal(payload)

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram sendMessage %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

func toInlineKeyboard(keyboard [][]conversation.Button) [][]tgInlineButton {
	rows := make([][]tgInlineButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgInlineButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgInlineButton{
				Text:         b.Label,
				CallbackData: encodeCallback(b.Callback),
			})
		}
		rows = append(rows, buttons)
	}
	return rows
}

// answerCallback снимает "часики" с нажатой кнопки. Best effort.
func (t *Transport) answerCallback(callbackQueryID string) {
	payload := map[string]any{"callback_query_id": callbackQueryID}
	body, _ := json.Marshal(payload)
	url := fmt.Sprintf("https://api.telegram.org/bot%s/answerCallbackQuery", t.token)
	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return
	}
	resp.Body.Close()
}
