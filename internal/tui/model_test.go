package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/leadboard/internal/app"
	"github.com/evanschultz/leadboard/internal/domain"
	"github.com/evanschultz/leadboard/internal/kanban"
)

type moveCall struct {
	itemID   string
	columnID string
}

type deleteCall struct {
	itemID string
	mode   app.DeleteMode
}

type fakeService struct {
	boards  []domain.Board
	columns map[string][]domain.Column
	leads   []domain.Lead
	tasks   []domain.Task

	loads   int
	mu      sync.Mutex
	moves   []moveCall
	deletes []deleteCall
	moveErr error
	nextID  int
}

var testNow = time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

func newFakeService() *fakeService {
	leadsBoard, _ := domain.NewBoard("b-leads", domain.BoardKindLeads, "Pipeline", "", testNow)
	tasksBoard, _ := domain.NewBoard("b-tasks", domain.BoardKindTasks, "Ops", "", testNow)
	newCol, _ := domain.NewColumn("c-new", leadsBoard.ID, "New", "blue", 0, testNow)
	wonCol, _ := domain.NewColumn("c-won", leadsBoard.ID, "Won", "green", 1, testNow)
	todoCol, _ := domain.NewColumn("c-todo", tasksBoard.ID, "To do", "gray", 0, testNow)
	doneCol, _ := domain.NewColumn("c-done", tasksBoard.ID, "Done", "green", 1, testNow)

	ada, _ := domain.NewLead(domain.LeadInput{
		ID: "l-ada", BoardID: leadsBoard.ID, Status: newCol.ID,
		LeadDetails: domain.LeadDetails{Name: "Ada", Company: "Analytical", Email: "ada@example.com", ValueCents: 150000},
	}, testNow)
	bob, _ := domain.NewLead(domain.LeadInput{
		ID: "l-bob", BoardID: leadsBoard.ID, Status: newCol.ID,
		LeadDetails: domain.LeadDetails{Name: "Bob"},
	}, testNow)
	stray, _ := domain.NewLead(domain.LeadInput{
		ID: "l-stray", BoardID: leadsBoard.ID, Status: "c-gone",
		LeadDetails: domain.LeadDetails{Name: "Stray"},
	}, testNow)
	lease, _ := domain.NewTask(domain.TaskInput{
		ID: "t-lease", BoardID: tasksBoard.ID, Status: todoCol.ID,
		TaskDetails: domain.TaskDetails{Title: "Renew lease", Labels: []string{"office"}},
	}, testNow)

	return &fakeService{
		boards: []domain.Board{leadsBoard, tasksBoard},
		columns: map[string][]domain.Column{
			leadsBoard.ID: {newCol, wonCol},
			tasksBoard.ID: {todoCol, doneCol},
		},
		leads: []domain.Lead{ada, bob, stray},
		tasks: []domain.Task{lease},
	}
}

func (f *fakeService) EnsureDefaultBoards(context.Context) ([]domain.Board, error) {
	f.loads++
	return append([]domain.Board(nil), f.boards...), nil
}

func (f *fakeService) ListColumns(_ context.Context, boardID string, _ bool) ([]domain.Column, error) {
	return append([]domain.Column(nil), f.columns[boardID]...), nil
}

func (f *fakeService) ListLeads(_ context.Context, boardID string, _ bool) ([]domain.Lead, error) {
	out := make([]domain.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		if lead.BoardID == boardID && lead.ArchivedAt == nil {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (f *fakeService) ListTasks(_ context.Context, boardID string, _ bool) ([]domain.Task, error) {
	out := make([]domain.Task, 0, len(f.tasks))
	for _, task := range f.tasks {
		if task.BoardID == boardID && task.ArchivedAt == nil {
			out = append(out, task)
		}
	}
	return out, nil
}

func (f *fakeService) CreateLead(_ context.Context, in app.CreateLeadInput) (domain.Lead, error) {
	f.nextID++
	lead, err := domain.NewLead(domain.LeadInput{
		ID: fmt.Sprintf("l-new-%d", f.nextID), BoardID: in.BoardID, Status: in.ColumnID, LeadDetails: in.LeadDetails,
	}, testNow)
	if err != nil {
		return domain.Lead{}, err
	}
	f.leads = append(f.leads, lead)
	return lead, nil
}

func (f *fakeService) UpdateLead(_ context.Context, id string, details domain.LeadDetails) (domain.Lead, error) {
	for i := range f.leads {
		if f.leads[i].ID == id {
			if err := f.leads[i].UpdateDetails(details, testNow); err != nil {
				return domain.Lead{}, err
			}
			return f.leads[i], nil
		}
	}
	return domain.Lead{}, app.ErrNotFound
}

func (f *fakeService) MoveLead(_ context.Context, id, columnID string) (domain.Lead, error) {
	f.recordMove(id, columnID)
	if f.moveErr != nil {
		return domain.Lead{}, f.moveErr
	}
	for i := range f.leads {
		if f.leads[i].ID == id {
			_ = f.leads[i].Move(columnID, testNow)
			return f.leads[i], nil
		}
	}
	return domain.Lead{}, app.ErrNotFound
}

// recordMove is safe to call from a running program's command goroutines.
func (f *fakeService) recordMove(id, columnID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, moveCall{itemID: id, columnID: columnID})
}

func (f *fakeService) moveCalls() []moveCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]moveCall(nil), f.moves...)
}

func (f *fakeService) DeleteLead(_ context.Context, id string, mode app.DeleteMode) error {
	f.deletes = append(f.deletes, deleteCall{itemID: id, mode: mode})
	for i := range f.leads {
		if f.leads[i].ID != id {
			continue
		}
		if mode == app.DeleteModeHard {
			f.leads = append(f.leads[:i], f.leads[i+1:]...)
		} else {
			f.leads[i].Archive(testNow)
		}
		return nil
	}
	return app.ErrNotFound
}

func (f *fakeService) CreateTask(_ context.Context, in app.CreateTaskInput) (domain.Task, error) {
	f.nextID++
	task, err := domain.NewTask(domain.TaskInput{
		ID: fmt.Sprintf("t-new-%d", f.nextID), BoardID: in.BoardID, Status: in.ColumnID, TaskDetails: in.TaskDetails,
	}, testNow)
	if err != nil {
		return domain.Task{}, err
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

func (f *fakeService) UpdateTask(_ context.Context, id string, details domain.TaskDetails) (domain.Task, error) {
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			if err := f.tasks[i].UpdateDetails(details, testNow); err != nil {
				return domain.Task{}, err
			}
			return f.tasks[i], nil
		}
	}
	return domain.Task{}, app.ErrNotFound
}

func (f *fakeService) MoveTask(_ context.Context, id, columnID string) (domain.Task, error) {
	f.recordMove(id, columnID)
	if f.moveErr != nil {
		return domain.Task{}, f.moveErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			_ = f.tasks[i].Move(columnID, testNow)
			return f.tasks[i], nil
		}
	}
	return domain.Task{}, app.ErrNotFound
}

func (f *fakeService) DeleteTask(_ context.Context, id string, mode app.DeleteMode) error {
	f.deletes = append(f.deletes, deleteCall{itemID: id, mode: mode})
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Archive(testNow)
			return nil
		}
	}
	return app.ErrNotFound
}

func TestModelLoadPartitionsBothBoards(t *testing.T) {
	svc := newFakeService()
	m := loadReadyModel(t, NewModel(svc))

	lanes := m.leads.Lanes()
	if len(lanes) != 2 {
		t.Fatalf("expected 2 lead lanes, got %d", len(lanes))
	}
	if got := laneIDs(lanes[0].Items); got != "l-ada,l-bob" {
		t.Fatalf("unexpected first lane %q", got)
	}
	if len(lanes[1].Items) != 0 {
		t.Fatalf("expected empty won lane, got %#v", lanes[1].Items)
	}
	if m.hidden[pageLeads] != 1 || m.hidden[pageTasks] != 0 {
		t.Fatalf("unexpected hidden counts %#v", m.hidden)
	}
	if taskLanes := m.tasks.Lanes(); len(taskLanes) != 2 || len(taskLanes[0].Items) != 1 {
		t.Fatalf("unexpected task lanes %#v", taskLanes)
	}
	if m.status != "ready" {
		t.Fatalf("expected ready status, got %q", m.status)
	}
}

func TestModelKeyboardNavigationAndPageSwitch(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))

	m = applyMsg(t, m, keyRune('j'))
	if id, _, _ := m.focusedCard(); id != "l-bob" {
		t.Fatalf("expected bob focused after j, got %q", id)
	}
	m = applyMsg(t, m, keyRune('l'))
	if col, _ := m.leads.FocusedColumn(); col.ID != "c-won" {
		t.Fatalf("expected won column focused, got %q", col.ID)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyLeft})
	if col, _ := m.leads.FocusedColumn(); col.ID != "c-new" {
		t.Fatalf("expected new column focused, got %q", col.ID)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	if m.page != pageTasks {
		t.Fatalf("expected tasks page, got %v", m.page)
	}
	if id, _, _ := m.focusedCard(); id != "t-lease" {
		t.Fatalf("expected lease focused, got %q", id)
	}
}

func TestModelMouseDragMovesLead(t *testing.T) {
	svc := newFakeService()
	m := loadReadyModel(t, NewModel(svc))
	loadsBefore := svc.loads

	cardX, cardY := cardCell(t, m, "l-ada")
	laneX, laneY := laneCell(t, m, "c-won")

	m = applyMsg(t, m, tea.MouseClickMsg{X: cardX, Y: cardY, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseMotionMsg{X: laneX, Y: laneY, Button: tea.MouseLeft})
	drag := m.leads.Drag()
	if drag.Phase() != kanban.PhaseHovering || drag.DraggedItemID() != "l-ada" || drag.HoveredColumnID() != "c-won" {
		t.Fatalf("unexpected drag state phase=%v item=%q hover=%q", drag.Phase(), drag.DraggedItemID(), drag.HoveredColumnID())
	}
	if len(svc.moves) != 0 {
		t.Fatalf("expected no move before drop, got %#v", svc.moves)
	}

	m = applyMsg(t, m, tea.MouseReleaseMsg{X: laneX, Y: laneY, Button: tea.MouseLeft})
	if len(svc.moves) != 1 || svc.moves[0] != (moveCall{itemID: "l-ada", columnID: "c-won"}) {
		t.Fatalf("expected one move of ada to won, got %#v", svc.moves)
	}
	if m.leads.Drag().Phase() != kanban.PhaseIdle {
		t.Fatalf("expected idle after drop, got %v", m.leads.Drag().Phase())
	}
	if svc.loads <= loadsBefore {
		t.Fatal("expected a reload after the move")
	}
	if got := laneIDs(m.leads.Lanes()[1].Items); got != "l-ada" {
		t.Fatalf("expected ada in won after reload, got %q", got)
	}
	if m.status != "moved Ada to Won" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if m.mode != modeNone {
		t.Fatalf("drop must not open the detail overlay, mode=%v", m.mode)
	}
}

func TestModelMouseReleaseOutsideCancels(t *testing.T) {
	svc := newFakeService()
	m := loadReadyModel(t, NewModel(svc))

	cardX, cardY := cardCell(t, m, "l-ada")
	laneX, laneY := laneCell(t, m, "c-won")
	m = applyMsg(t, m, tea.MouseClickMsg{X: cardX, Y: cardY, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseMotionMsg{X: laneX, Y: laneY, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: laneX, Y: 0, Button: tea.MouseLeft})

	if len(svc.moves) != 0 {
		t.Fatalf("expected no move, got %#v", svc.moves)
	}
	if m.leads.Drag().Phase() != kanban.PhaseIdle {
		t.Fatalf("expected idle after cancel, got %v", m.leads.Drag().Phase())
	}
	if m.status != "move cancelled" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelMouseClickOpensDetail(t *testing.T) {
	svc := newFakeService()
	m := loadReadyModel(t, NewModel(svc))

	x, y := cardCell(t, m, "l-bob")
	m = applyMsg(t, m, tea.MouseClickMsg{X: x, Y: y, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: x, Y: y, Button: tea.MouseLeft})

	if m.mode != modeDetail || m.detail.itemID != "l-bob" || m.detail.page != pageLeads {
		t.Fatalf("expected bob detail, got mode=%v detail=%#v", m.mode, m.detail)
	}
	if len(svc.moves) != 0 {
		t.Fatalf("click must not move, got %#v", svc.moves)
	}
	doc, ok := m.detailMarkdown()
	if !ok || !strings.Contains(doc, "# Bob") || !strings.Contains(doc, "**Stage:** New") {
		t.Fatalf("unexpected detail markdown %q", doc)
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.mode != modeNone {
		t.Fatalf("expected detail closed, got %v", m.mode)
	}
}

func TestModelTabClickSwitchesPage(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	leadsTab := m.tabLabels(lipgloss.Color("62"), lipgloss.Color("241"))[0]
	m = applyMsg(t, m, tea.MouseClickMsg{X: lipgloss.Width(leadsTab) + 1, Y: 1, Button: tea.MouseLeft})
	if m.page != pageTasks {
		t.Fatalf("expected tasks page after tab click, got %v", m.page)
	}
}

func TestModelMouseWheelMovesFocus(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = applyMsg(t, m, tea.MouseWheelMsg{Button: tea.MouseWheelDown})
	if id, _, _ := m.focusedCard(); id != "l-bob" {
		t.Fatalf("expected bob focused after wheel down, got %q", id)
	}
	m = applyMsg(t, m, tea.MouseWheelMsg{Button: tea.MouseWheelUp})
	if id, _, _ := m.focusedCard(); id != "l-ada" {
		t.Fatalf("expected ada focused after wheel up, got %q", id)
	}
}

func TestModelKeyboardGrabAndDrop(t *testing.T) {
	svc := newFakeService()
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	drag := m.leads.Drag()
	if drag.DraggedItemID() != "l-ada" || drag.HoveredColumnID() != "c-new" {
		t.Fatalf("expected ada grabbed over new, got item=%q hover=%q", drag.DraggedItemID(), drag.HoveredColumnID())
	}
	m = applyMsg(t, m, keyRune('l'))
	if got := m.leads.Drag().HoveredColumnID(); got != "c-won" {
		t.Fatalf("expected hover on won, got %q", got)
	}
	m = applyMsg(t, m, keyRune('l'))
	if got := m.leads.Drag().HoveredColumnID(); got != "c-won" {
		t.Fatalf("expected hover clamped to won, got %q", got)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if len(svc.moves) != 1 || svc.moves[0].columnID != "c-won" {
		t.Fatalf("expected one move to won, got %#v", svc.moves)
	}
	if m.mode != modeNone {
		t.Fatalf("enter during a drag drops and must not open detail, mode=%v", m.mode)
	}
}

func TestModelKeyboardGrabCancel(t *testing.T) {
	svc := newFakeService()
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if len(svc.moves) != 0 {
		t.Fatalf("expected no move, got %#v", svc.moves)
	}
	if m.leads.Drag().Phase() != kanban.PhaseIdle || m.status != "move cancelled" {
		t.Fatalf("expected cancelled idle drag, phase=%v status=%q", m.leads.Drag().Phase(), m.status)
	}
}

func TestModelDropOnOriginStillReportsMove(t *testing.T) {
	svc := newFakeService()
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	if len(svc.moves) != 1 || svc.moves[0] != (moveCall{itemID: "l-ada", columnID: "c-new"}) {
		t.Fatalf("expected a same-column move, got %#v", svc.moves)
	}
}

func TestModelMoveFailureReportsAndReloads(t *testing.T) {
	svc := newFakeService()
	svc.moveErr = errors.New("store offline")
	m := loadReadyModel(t, NewModel(svc))
	loadsBefore := svc.loads

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	if !strings.Contains(m.status, "store offline") {
		t.Fatalf("expected failure on status line, got %q", m.status)
	}
	if svc.loads <= loadsBefore {
		t.Fatal("expected reload after failed move")
	}
	if got := laneIDs(m.leads.Lanes()[0].Items); got != "l-ada,l-bob" {
		t.Fatalf("expected ada to stay in new, got %q", got)
	}
	if m.err != nil {
		t.Fatalf("move failure must not replace the board, err=%v", m.err)
	}
}

func TestModelCreateLeadForm(t *testing.T) {
	svc := newFakeService()
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, keyRune('l'))

	m = applyMsg(t, m, keyRune('n'))
	if m.mode != modeForm || m.form.columnID != "c-won" || m.form.editing() {
		t.Fatalf("expected new lead form in won, got mode=%v form=%#v", m.mode, m.form)
	}
	m.form.setValue("name", "Grace")
	m.form.setValue("company", "Navy")
	m.form.setValue("value", "$2,500.50")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	if m.mode != modeNone || m.status != "lead created" {
		t.Fatalf("expected lead created, mode=%v status=%q", m.mode, m.status)
	}
	created := svc.leads[len(svc.leads)-1]
	if created.Name != "Grace" || created.Status != "c-won" || created.ValueCents != 250050 {
		t.Fatalf("unexpected created lead %#v", created)
	}
	if id, _, _ := m.focusedCard(); id != created.ID {
		t.Fatalf("expected focus on created lead, got %q", id)
	}
}

func TestModelFormValidationKeepsFormOpen(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = applyMsg(t, m, keyRune('n'))
	m.form.setValue("name", "Zed")
	m.form.setValue("value", "lots")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeForm || !strings.Contains(m.status, "value must be") {
		t.Fatalf("expected form to stay open with error, mode=%v status=%q", m.mode, m.status)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.mode != modeNone {
		t.Fatalf("expected esc to close form, got %v", m.mode)
	}
}

func TestModelEditTaskForm(t *testing.T) {
	svc := newFakeService()
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyTab})

	m = applyMsg(t, m, keyRune('e'))
	if m.mode != modeForm || m.form.itemID != "t-lease" {
		t.Fatalf("expected edit form for lease, got mode=%v form=%#v", m.mode, m.form)
	}
	if got := m.form.value("labels"); got != "office" {
		t.Fatalf("expected labels prefilled, got %q", got)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	if m.form.focus != 1 {
		t.Fatalf("expected tab to move form focus, got %d", m.form.focus)
	}
	m.form.setValue("priority", "high")
	m.form.setValue("due", "2026-03-01")
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	task := svc.tasks[0]
	if task.Priority != domain.PriorityHigh || task.DueAt == nil || task.DueAt.Format(time.DateOnly) != "2026-03-01" {
		t.Fatalf("unexpected updated task %#v", task)
	}
	if m.status != "task updated" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelArchiveAndHardDelete(t *testing.T) {
	svc := newFakeService()
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune('d'))
	if len(svc.deletes) != 1 || svc.deletes[0] != (deleteCall{itemID: "l-ada", mode: app.DeleteModeArchive}) {
		t.Fatalf("expected ada archived, got %#v", svc.deletes)
	}
	if got := laneIDs(m.leads.Lanes()[0].Items); got != "l-bob" {
		t.Fatalf("expected only bob left, got %q", got)
	}

	m = applyMsg(t, m, keyRune('D'))
	if m.mode != modeConfirmHardDelete {
		t.Fatalf("expected confirm mode, got %v", m.mode)
	}
	m = applyMsg(t, m, keyRune('n'))
	if len(svc.deletes) != 1 || m.status != "delete cancelled" {
		t.Fatalf("expected cancel, deletes=%#v status=%q", svc.deletes, m.status)
	}
	m = applyMsg(t, m, keyRune('D'))
	m = applyMsg(t, m, keyRune('y'))
	if len(svc.deletes) != 2 || svc.deletes[1] != (deleteCall{itemID: "l-bob", mode: app.DeleteModeHard}) {
		t.Fatalf("expected bob hard deleted, got %#v", svc.deletes)
	}
}

func TestDeleteUsesConfiguredDefaultMode(t *testing.T) {
	svc := newFakeService()
	m := loadReadyModel(t, NewModel(svc, WithDefaultDeleteMode(app.DeleteModeHard)))
	m = applyMsg(t, m, keyRune('d'))
	if m.mode != modeConfirmHardDelete {
		t.Fatalf("expected hard default to ask for confirmation, got %v", m.mode)
	}
}

func TestModelCopyUsesClipboard(t *testing.T) {
	var copied []string
	clip := func(s string) error {
		copied = append(copied, s)
		return nil
	}
	m := loadReadyModel(t, NewModel(newFakeService(), WithClipboard(clip)))

	m = applyMsg(t, m, keyRune('y'))
	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('y'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	m = applyMsg(t, m, keyRune('y'))

	want := []string{"ada@example.com", "Bob", "Renew lease"}
	if strings.Join(copied, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected clipboard writes %#v", copied)
	}
	if m.status != "copied title" {
		t.Fatalf("unexpected status %q", m.status)
	}

	failing := loadReadyModel(t, NewModel(newFakeService(), WithClipboard(func(string) error { return errors.New("no display") })))
	failing = applyMsg(t, failing, keyRune('y'))
	if !strings.Contains(failing.status, "no display") {
		t.Fatalf("expected copy failure status, got %q", failing.status)
	}
}

func TestModelKeyConfigRebindsGrab(t *testing.T) {
	svc := newFakeService()
	m := loadReadyModel(t, NewModel(svc, WithKeyConfig(KeyConfig{Grab: "g"})))
	m = applyMsg(t, m, keyRune('g'))
	if m.leads.Drag().DraggedItemID() != "l-ada" {
		t.Fatalf("expected g to grab, got %q", m.leads.Drag().DraggedItemID())
	}
}

func TestModelHelpToggleAndQuit(t *testing.T) {
	m := loadReadyModel(t, NewModel(newFakeService()))
	m = applyMsg(t, m, keyRune('?'))
	if !m.help.ShowAll {
		t.Fatal("expected full help")
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.help.ShowAll {
		t.Fatal("expected help closed")
	}

	_, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestModelViewStates(t *testing.T) {
	m := NewModel(newFakeService())
	v := m.View()
	if v.Content == nil || v.MouseMode != tea.MouseModeCellMotion {
		t.Fatal("expected loading view with mouse enabled")
	}

	m = loadReadyModel(t, m)
	v = m.View()
	if v.Content == nil || !v.AltScreen {
		t.Fatal("expected board view")
	}

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeDetail {
		t.Fatalf("expected enter to open detail, got %v", m.mode)
	}
	if v = m.View(); v.Content == nil {
		t.Fatal("expected detail view content")
	}

	m.err = context.DeadlineExceeded
	if v = m.View(); v.Content == nil {
		t.Fatal("expected error view content")
	}
	m = applyMsg(t, m, keyRune('r'))
	if m.err != nil {
		t.Fatalf("expected retry to clear error, got %v", m.err)
	}
}

func TestFormParsing(t *testing.T) {
	cents, err := parseMoneyInput("$1,500.5")
	if err != nil || cents != 150050 {
		t.Fatalf("parseMoneyInput() = %d, %v", cents, err)
	}
	if _, err := parseMoneyInput("-3"); err == nil {
		t.Fatal("expected negative value to fail")
	}
	if got := formatMoneyInput(150050); got != "1500.50" {
		t.Fatalf("formatMoneyInput() = %q", got)
	}

	current := testNow
	due, err := parseDueInput("", &current)
	if err != nil || due != &current {
		t.Fatalf("expected blank due to keep current, got %v %v", due, err)
	}
	due, err = parseDueInput("-", &current)
	if err != nil || due != nil {
		t.Fatalf("expected - to clear due, got %v %v", due, err)
	}
	due, err = parseDueInput("2026-03-01T09:30", nil)
	if err != nil || formatDueValue(due) != "2026-03-01 09:30" {
		t.Fatalf("unexpected parsed due %v %v", due, err)
	}
	if _, err := parseDueInput("tomorrow", nil); err == nil {
		t.Fatal("expected invalid due to fail")
	}

	labels := parseLabelsInput(" a, ,b ")
	if strings.Join(labels, ",") != "a,b" {
		t.Fatalf("unexpected labels %#v", labels)
	}
	if got := summarizeLabels([]string{"a", "b", "c"}, 2); got != "#a #b +1" {
		t.Fatalf("unexpected label summary %q", got)
	}
	if wrapIndex(-1, 5) != 4 || wrapIndex(5, 5) != 0 {
		t.Fatal("unexpected wrapIndex")
	}
}

func TestCardRenderers(t *testing.T) {
	svc := newFakeService()
	if got := renderLeadCard(svc.leads[0]); got != "Ada\nAnalytical · $1,500.00" {
		t.Fatalf("unexpected lead card %q", got)
	}
	if got := renderLeadCard(svc.leads[1]); got != "Bob" {
		t.Fatalf("unexpected bare lead card %q", got)
	}
	if got := renderTaskCard(svc.tasks[0]); got != "Renew lease\nmedium\n#office" {
		t.Fatalf("unexpected task card %q", got)
	}
}

func laneIDs[T kanban.Item](items []T) string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.CardID())
	}
	return strings.Join(ids, ",")
}

// cardCell returns a screen cell inside the card drawn for itemID.
func cardCell(t *testing.T, m Model, itemID string) (int, int) {
	t.Helper()
	for _, lane := range m.active().Layout().Lanes {
		for _, card := range lane.Cards {
			if card.ItemID == itemID {
				return card.Rect.X + 1, card.Rect.Y + 1 + boardTop
			}
		}
	}
	t.Fatalf("card %q not drawn", itemID)
	return 0, 0
}

// laneCell returns a screen cell inside the column surface of columnID.
func laneCell(t *testing.T, m Model, columnID string) (int, int) {
	t.Helper()
	for _, lane := range m.active().Layout().Lanes {
		if lane.ColumnID == columnID {
			return lane.Rect.X + 2, lane.Rect.Y + lane.Rect.H - 2 + boardTop
		}
	}
	t.Fatalf("column %q not drawn", columnID)
	return 0, 0
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	return applyMsg(t, applyCmd(t, m, m.Init()), tea.WindowSizeMsg{Width: 120, Height: 40})
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return applyCmd(t, out, cmd)
}

func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	out := m
	currentCmd := cmd
	for i := 0; i < 6 && currentCmd != nil; i++ {
		msg := currentCmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				out = applyCmd(t, out, c)
			}
			return out
		}
		updated, nextCmd := out.Update(msg)
		casted, ok := updated.(Model)
		if !ok {
			t.Fatalf("expected Model, got %T", updated)
		}
		out = casted
		currentCmd = nextCmd
	}
	return out
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}
