package conversation

import (
	"testing"

	"taskbot/internal/modules/task"
)

func sampleViews() []task.TaskView {
	return []task.TaskView{
		{ID: 1, Title: "Отчёт", Category: "Работа", Priority: task.PriorityLabelHigh, Tags: []string{"срочно"}},
		{ID: 2, Title: "Уборка", Category: "Дом", Priority: task.PriorityLabelLow, Tags: []string{"дом", "срочно"}},
		{ID: 3, Title: "Сделано", Category: "Дом", Priority: task.PriorityLabelLow, Done: true, Tags: []string{}},
	}
}

func TestApplyFilterEmptyPassesAll(t *testing.T) {
	views := sampleViews()
	if got := ApplyFilter(views, Filter{}); len(got) != len(views) {
		t.Errorf("got %d views, want %d", len(got), len(views))
	}
}

func TestApplyFilterCombinesDimensions(t *testing.T) {
	views := sampleViews()

	got := ApplyFilter(views, Filter{Tag: "срочно"})
	if len(got) != 2 {
		t.Fatalf("tag filter: %d views, want 2", len(got))
	}

	got = ApplyFilter(views, Filter{Tag: "срочно", Priority: task.PriorityLabelLow})
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("combined filter: %+v, want only task 2", got)
	}

	got = ApplyFilter(views, Filter{Category: "Дача"})
	if len(got) != 0 {
		t.Errorf("unknown category matched %d views", len(got))
	}
}

func TestTaskListSkipsCompleted(t *testing.T) {
	reply := TaskList(sampleViews(), true)
	if reply.Text != "Ваши задачи:" {
		t.Errorf("text = %q", reply.Text)
	}
	// Две активные задачи по два ряда плюс кнопка добавления.
	if len(reply.Keyboard) != 5 {
		t.Errorf("keyboard rows = %d, want 5", len(reply.Keyboard))
	}
}

func TestTaskListEmpty(t *testing.T) {
	done := []task.TaskView{{ID: 1, Title: "x", Done: true}}
	reply := TaskList(done, true)
	if reply.Text != "Задач нет." {
		t.Errorf("text = %q", reply.Text)
	}
}

func TestDailyTaskListEmpty(t *testing.T) {
	reply := DailyTaskList(nil)
	if reply.Text != "На сегодня задач нет." {
		t.Errorf("text = %q", reply.Text)
	}
	if len(reply.Keyboard) != 0 {
		t.Errorf("empty daily list has keyboard: %+v", reply.Keyboard)
	}
}

func TestCompletedListOnlyDone(t *testing.T) {
	reply := CompletedList(sampleViews())
	if reply.Text != "Выполненные задачи:" {
		t.Errorf("text = %q", reply.Text)
	}
	if len(reply.Keyboard) != 1 {
		t.Errorf("keyboard rows = %d, want 1", len(reply.Keyboard))
	}
	cb := reply.Keyboard[0][0].Callback
	if cb.Action != ActionTaskRestore || cb.Arg != 3 {
		t.Errorf("restore button = %+v", cb)
	}
}

func TestSessionResetKeepsFilter(t *testing.T) {
	s := Session{
		State:   StateAddTags,
		Scratch: Scratch{Title: "x", Priority: task.PriorityLabelHigh},
		Filter:  Filter{Category: "Дом"},
	}
	s.Reset()
	if s.State != StateIdle {
		t.Errorf("State = %v, want StateIdle", s.State)
	}
	if s.Scratch != (Scratch{}) {
		t.Errorf("Scratch = %+v, want zero", s.Scratch)
	}
	if s.Filter.Category != "Дом" {
		t.Error("Reset must not clear the filter")
	}
}

func TestSettingsMenuWeekendLabel(t *testing.T) {
	reply := SettingsMenu(map[string]string{"reminder_time": "10:00", "notify_weekends": "0"})
	if reply.Keyboard[0][0].Label != "Время: 10:00" {
		t.Errorf("time label = %q", reply.Keyboard[0][0].Label)
	}
	if reply.Keyboard[1][0].Label != "Уведомлять в выходные" {
		t.Errorf("weekend label = %q", reply.Keyboard[1][0].Label)
	}

	reply = SettingsMenu(map[string]string{"notify_weekends": "1"})
	if reply.Keyboard[0][0].Label != "Время: 09:00" {
		t.Errorf("default time label = %q", reply.Keyboard[0][0].Label)
	}
	if reply.Keyboard[1][0].Label != "Не уведомлять в выходные" {
		t.Errorf("weekend label = %q", reply.Keyboard[1][0].Label)
	}
}
