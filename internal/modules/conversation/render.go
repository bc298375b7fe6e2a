package conversation

import (
	"fmt"
	"strings"

	"taskbot/internal/modules/task"
	"taskbot/internal/modules/user"
)

// Тексты и клавиатуры диалога. Движок и планировщик напоминаний строят
// сообщения через эти функции, чтобы ежедневная рассылка выглядела ровно
// как интерактивный список.

func priorityDisplay(label string) string {
	switch label {
	case task.PriorityLabelLow:
		return "низкий"
	case task.PriorityLabelHigh:
		return "высокий"
	default:
		return "средний"
	}
}

func CancelKeyboard() [][]Button {
	return [][]Button{{{Label: "Отмена", Callback: Callback{Action: ActionCancel}}}}
}

func Prompt(text string) Reply {
	return Reply{Text: text, Keyboard: CancelKeyboard()}
}

func MainMenu() Reply {
	return Reply{
		Text: "Привет! Я помогу спланировать день.",
		Keyboard: [][]Button{
			{{Label: "Показать задачи", Callback: Callback{Action: ActionShowTasks}}},
			{{Label: "Добавить задачу", Callback: Callback{Action: ActionAddTask}}},
			{{Label: "Категории", Callback: Callback{Action: ActionCategories}}},
			{{Label: "Фильтр", Callback: Callback{Action: ActionFilter}}},
			{{Label: "Настройки", Callback: Callback{Action: ActionSettings}}},
		},
	}
}

func taskLabel(v task.TaskView) string {
	label := fmt.Sprintf("%s (%s, %s)", v.Title, v.Category, priorityDisplay(v.Priority))
	if len(v.Tags) > 0 {
		label += fmt.Sprintf(" [%s]", strings.Join(v.Tags, ", "))
	}
	return label
}

// TaskList строит список активных задач: строка выбора задачи и строка
// действий на каждую.
func TaskList(views []task.TaskView, includeAdd bool) Reply {
	var keyboard [][]Button
	active := 0
	for _, v := range views {
		if v.Done {
			continue
		}
		active++
		keyboard = append(keyboard, []Button{
			{Label: taskLabel(v), Callback: WithArg(ActionTaskSelect, v.ID)},
		})
		keyboard = append(keyboard, []Button{
			{Label: "✏️", Callback: WithArg(ActionTaskEdit, v.ID)},
			{Label: "🗑️", Callback: WithArg(ActionTaskDelete, v.ID)},
		})
	}
	if includeAdd {
		keyboard = append(keyboard, []Button{
			{Label: "Добавить задачу", Callback: Callback{Action: ActionAddTask}},
		})
	}

	text := "Ваши задачи:"
	if active == 0 {
		text = "Задач нет."
	}
	return Reply{Text: text, Keyboard: keyboard}
}

// DailyTaskList - то же представление для ежедневного напоминания.
func DailyTaskList(views []task.TaskView) Reply {
	reply := TaskList(views, false)
	if len(reply.Keyboard) == 0 {
		return Reply{Text: "На сегодня задач нет."}
	}
	reply.Text = "Задачи на сегодня:"
	return reply
}

func CompletedList(views []task.TaskView) Reply {
	var keyboard [][]Button
	for _, v := range views {
		if !v.Done {
			continue
		}
		keyboard = append(keyboard, []Button{
			{Label: taskLabel(v) + " ✓", Callback: WithArg(ActionTaskRestore, v.ID)},
		})
	}
	if len(keyboard) == 0 {
		return Reply{Text: "Выполненных задач нет."}
	}
	return Reply{Text: "Выполненные задачи:", Keyboard: keyboard}
}

func CategoryChoiceKeyboard(categories []string) Reply {
	keyboard := make([][]Button, 0, len(categories)+2)
	for i, name := range categories {
		keyboard = append(keyboard, []Button{
			{Label: name, Callback: WithArg(ActionCategoryChoose, int64(i))},
		})
	}
	keyboard = append(keyboard, []Button{
		{Label: "Новая категория", Callback: Callback{Action: ActionNewCategory}},
	})
	keyboard = append(keyboard, CancelKeyboard()...)
	return Reply{Text: "Выберите категорию:", Keyboard: keyboard}
}

func PriorityChoiceKeyboard() Reply {
	labels := task.PriorityLabels()
	keyboard := make([][]Button, 0, len(labels)+1)
	for i, label := range labels {
		keyboard = append(keyboard, []Button{
			{Label: priorityDisplay(label), Callback: WithArg(ActionPriorityChoose, int64(i))},
		})
	}
	keyboard = append(keyboard, CancelKeyboard()...)
	return Reply{Text: "Выберите приоритет:", Keyboard: keyboard}
}

func TagsPrompt() Reply {
	return Reply{
		Text: "Введите теги через запятую:",
		Keyboard: [][]Button{
			{{Label: "Без тегов", Callback: Callback{Action: ActionSkipTags}}},
			{{Label: "Отмена", Callback: Callback{Action: ActionCancel}}},
		},
	}
}

func CategoryMenu(categories []string) Reply {
	keyboard := make([][]Button, 0, len(categories)+2)
	for i, name := range categories {
		keyboard = append(keyboard, []Button{
			{Label: name, Callback: WithArg(ActionCategoryEdit, int64(i))},
			{Label: "🗑️", Callback: WithArg(ActionCategoryDelete, int64(i))},
		})
	}
	keyboard = append(keyboard, []Button{
		{Label: "Добавить категорию", Callback: Callback{Action: ActionCategoryAdd}},
	})
	keyboard = append(keyboard, CancelKeyboard()...)
	return Reply{Text: "Категории:", Keyboard: keyboard}
}

func FilterMenu() Reply {
	return Reply{
		Text: "Фильтр задач:",
		Keyboard: [][]Button{
			{{Label: "Категория", Callback: Callback{Action: ActionFilterCategory}}},
			{{Label: "Приоритет", Callback: Callback{Action: ActionFilterPriority}}},
			{{Label: "Тег", Callback: Callback{Action: ActionFilterTag}}},
			{{Label: "Сбросить", Callback: Callback{Action: ActionFilterReset}}},
			{{Label: "Отмена", Callback: Callback{Action: ActionCancel}}},
		},
	}
}

func FilterCategoryKeyboard(categories []string) Reply {
	keyboard := make([][]Button, 0, len(categories)+2)
	for i, name := range categories {
		keyboard = append(keyboard, []Button{
			{Label: name, Callback: WithArg(ActionFilterSetCategory, int64(i))},
		})
	}
	keyboard = append(keyboard, []Button{
		{Label: "Любая", Callback: Callback{Action: ActionFilterSetCategory}},
	})
	keyboard = append(keyboard, []Button{
		{Label: "Назад", Callback: Callback{Action: ActionFilter}},
	})
	return Reply{Text: "Выберите категорию:", Keyboard: keyboard}
}

func FilterPriorityKeyboard() Reply {
	labels := task.PriorityLabels()
	keyboard := make([][]Button, 0, len(labels)+2)
	for i, label := range labels {
		keyboard = append(keyboard, []Button{
			{Label: priorityDisplay(label), Callback: WithArg(ActionFilterSetPriority, int64(i))},
		})
	}
	keyboard = append(keyboard, []Button{
		{Label: "Любой", Callback: Callback{Action: ActionFilterSetPriority}},
	})
	keyboard = append(keyboard, []Button{
		{Label: "Назад", Callback: Callback{Action: ActionFilter}},
	})
	return Reply{Text: "Выберите приоритет:", Keyboard: keyboard}
}

func FilterTagKeyboard(tags []string) Reply {
	keyboard := make([][]Button, 0, len(tags)+2)
	for i, name := range tags {
		keyboard = append(keyboard, []Button{
			{Label: name, Callback: WithArg(ActionFilterSetTag, int64(i))},
		})
	}
	keyboard = append(keyboard, []Button{
		{Label: "Любой", Callback: Callback{Action: ActionFilterSetTag}},
	})
	keyboard = append(keyboard, []Button{
		{Label: "Назад", Callback: Callback{Action: ActionFilter}},
	})
	return Reply{Text: "Выберите тег:", Keyboard: keyboard}
}

func SettingsMenu(settings map[string]string) Reply {
	timeStr := settings[user.SettingReminderTime]
	if timeStr == "" {
		timeStr = user.DefaultReminderTime
	}
	weekends := settings[user.SettingNotifyWeekends] == "1"
	weekendLabel := "Уведомлять в выходные"
	if weekends {
		weekendLabel = "Не уведомлять в выходные"
	}
	return Reply{
		Text: "Настройки напоминаний:",
		Keyboard: [][]Button{
			{{Label: fmt.Sprintf("Время: %s", timeStr), Callback: Callback{Action: ActionSettingsTime}}},
			{{Label: weekendLabel, Callback: Callback{Action: ActionToggleWeekends}}},
			{{Label: "Отмена", Callback: Callback{Action: ActionCancel}}},
		},
	}
}
