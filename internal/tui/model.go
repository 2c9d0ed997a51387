package tui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/evanschultz/leadboard/internal/app"
	"github.com/evanschultz/leadboard/internal/domain"
	"github.com/evanschultz/leadboard/internal/kanban"
)

// Service is the part of the application service the terminal board uses.
type Service interface {
	EnsureDefaultBoards(context.Context) ([]domain.Board, error)
	ListColumns(context.Context, string, bool) ([]domain.Column, error)
	ListLeads(context.Context, string, bool) ([]domain.Lead, error)
	ListTasks(context.Context, string, bool) ([]domain.Task, error)
	CreateLead(context.Context, app.CreateLeadInput) (domain.Lead, error)
	UpdateLead(context.Context, string, domain.LeadDetails) (domain.Lead, error)
	MoveLead(context.Context, string, string) (domain.Lead, error)
	DeleteLead(context.Context, string, app.DeleteMode) error
	CreateTask(context.Context, app.CreateTaskInput) (domain.Task, error)
	UpdateTask(context.Context, string, domain.TaskDetails) (domain.Task, error)
	MoveTask(context.Context, string, string) (domain.Task, error)
	DeleteTask(context.Context, string, app.DeleteMode) error
}

// page selects which board is on screen.
type page int

const (
	pageLeads page = iota
	pageTasks
)

func (p page) String() string {
	if p == pageTasks {
		return "Tasks"
	}
	return "Leads"
}

// inputMode represents a selectable mode.
type inputMode int

const (
	modeNone inputMode = iota
	modeDetail
	modeForm
	modeConfirmHardDelete
)

const (
	// header, tabs and one blank line sit above the board
	boardTop = 3
	// info line, status line and the bordered help line sit below it
	footerHeight = 4
)

// pointerBoard is the board surface the model drives for whichever page is
// active. Both *kanban.Board[domain.Lead] and *kanban.Board[domain.Task]
// satisfy it.
type pointerBoard interface {
	SetSize(width, height int)
	PointerDown(x, y int)
	PointerMove(x, y int)
	PointerUp(x, y int)
	PointerCancel()
	DragStart(itemID string) bool
	DropOn(columnID string) bool
	DragEnd()
	StepHover(delta int) bool
	Drag() kanban.DragState
	Click(itemID string) bool
	MoveFocus(dCol, dRow int)
	FocusItem(itemID string) bool
	FocusedColumn() (kanban.Column, bool)
	Columns() []kanban.Column
	Layout() kanban.Layout
	View() string
}

// detailRef points at the card shown in the detail overlay.
type detailRef struct {
	page   page
	itemID string
}

type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	defaultDeleteMode app.DeleteMode
	copyText          ClipboardFunc
	markdown          *markdownRenderer

	page        page
	leadsRef    domain.Board
	tasksRef    domain.Board
	leadColumns []domain.Column
	taskColumns []domain.Column
	leadItems   []domain.Lead
	taskItems   []domain.Task
	hidden      map[page]int

	leads   kanban.Board[domain.Lead]
	tasks   kanban.Board[domain.Task]
	intents *intentQueue

	mode           inputMode
	detail         detailRef
	form           cardForm
	confirmID      string
	pendingFocusID string
}

type loadedMsg struct {
	leadsRef    domain.Board
	tasksRef    domain.Board
	leadColumns []domain.Column
	taskColumns []domain.Column
	leads       []domain.Lead
	tasks       []domain.Task
	err         error
}

// actionMsg reports a finished mutation. Failures stay on the status line and
// still reload so the board shows authoritative data.
type actionMsg struct {
	err     error
	status  string
	reload  bool
	focusID string
}

func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	intents := &intentQueue{}
	m := Model{
		svc:               svc,
		status:            "loading...",
		help:              h,
		keys:              newKeyMap(),
		defaultDeleteMode: app.DeleteModeArchive,
		copyText:          systemClipboard,
		markdown:          &markdownRenderer{},
		hidden:            map[page]int{},
		intents:           intents,
		leads: kanban.New(kanban.Options[domain.Lead]{
			OnMoveCard: func(itemID, columnID string) {
				intents.push(intent{kind: intentMove, page: pageLeads, itemID: itemID, columnID: columnID})
			},
			OnCardClick: func(lead domain.Lead) {
				intents.push(intent{kind: intentOpen, page: pageLeads, itemID: lead.ID})
			},
			RenderCard: renderLeadCard,
		}),
		tasks: kanban.New(kanban.Options[domain.Task]{
			OnMoveCard: func(itemID, columnID string) {
				intents.push(intent{kind: intentMove, page: pageTasks, itemID: itemID, columnID: columnID})
			},
			OnCardClick: func(task domain.Task) {
				intents.push(intent{kind: intentOpen, page: pageTasks, itemID: task.ID})
			},
			RenderCard: renderTaskCard,
			// priority and labels sit under the title
			CardLines: 3,
		}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.loadData
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.resizeBoards()
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.applyLoaded(msg)
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
		} else if msg.status != "" {
			m.status = msg.status
		}
		if msg.focusID != "" {
			m.pendingFocusID = msg.focusID
		}
		if msg.reload {
			return m, m.loadData
		}
		return m, nil

	case tea.KeyPressMsg:
		if m.err != nil {
			switch {
			case key.Matches(msg, m.keys.quit):
				return m, tea.Quit
			case key.Matches(msg, m.keys.reload):
				m.err = nil
				m.status = "loading..."
				return m, m.loadData
			}
			return m, nil
		}
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// loadData fetches both boards. The first live board of each kind is shown.
func (m Model) loadData() tea.Msg {
	ctx := context.Background()
	boards, err := m.svc.EnsureDefaultBoards(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	out := loadedMsg{
		leadsRef: pickBoard(boards, domain.BoardKindLeads, m.leadsRef.ID),
		tasksRef: pickBoard(boards, domain.BoardKindTasks, m.tasksRef.ID),
	}
	if out.leadsRef.ID != "" {
		if out.leadColumns, err = m.svc.ListColumns(ctx, out.leadsRef.ID, false); err != nil {
			return loadedMsg{err: err}
		}
		if out.leads, err = m.svc.ListLeads(ctx, out.leadsRef.ID, false); err != nil {
			return loadedMsg{err: err}
		}
	}
	if out.tasksRef.ID != "" {
		if out.taskColumns, err = m.svc.ListColumns(ctx, out.tasksRef.ID, false); err != nil {
			return loadedMsg{err: err}
		}
		if out.tasks, err = m.svc.ListTasks(ctx, out.tasksRef.ID, false); err != nil {
			return loadedMsg{err: err}
		}
	}
	return out
}

// pickBoard keeps the current board when it is still live.
func pickBoard(boards []domain.Board, kind domain.BoardKind, currentID string) domain.Board {
	var first domain.Board
	for _, board := range boards {
		if board.Kind != kind {
			continue
		}
		if board.ID == currentID {
			return board
		}
		if first.ID == "" {
			first = board
		}
	}
	return first
}

func (m *Model) applyLoaded(msg loadedMsg) {
	m.leadsRef = msg.leadsRef
	m.tasksRef = msg.tasksRef
	m.leadColumns = msg.leadColumns
	m.taskColumns = msg.taskColumns
	m.leadItems = msg.leads
	m.taskItems = msg.tasks

	leadColumns := app.KanbanColumns(msg.leadColumns)
	taskColumns := app.KanbanColumns(msg.taskColumns)
	m.leads.SetColumns(leadColumns)
	m.leads.SetItems(msg.leads)
	m.tasks.SetColumns(taskColumns)
	m.tasks.SetItems(msg.tasks)
	m.hidden[pageLeads] = len(kanban.Hidden(leadColumns, msg.leads))
	m.hidden[pageTasks] = len(kanban.Hidden(taskColumns, msg.tasks))

	if m.pendingFocusID != "" {
		if !m.leads.FocusItem(m.pendingFocusID) {
			m.tasks.FocusItem(m.pendingFocusID)
		}
		m.pendingFocusID = ""
	}
	if m.mode == modeDetail {
		if _, ok := m.detailMarkdown(); !ok {
			m.mode = modeNone
			m.detail = detailRef{}
			m.status = "card no longer available"
		}
	}
}

func (m *Model) resizeBoards() {
	height := max(4, m.height-boardTop-footerHeight)
	m.leads.SetSize(m.width, height)
	m.tasks.SetSize(m.width, height)
}

// active returns the board on screen.
func (m *Model) active() pointerBoard {
	if m.page == pageTasks {
		return &m.tasks
	}
	return &m.leads
}

func (m Model) activeRef() domain.Board {
	if m.page == pageTasks {
		return m.tasksRef
	}
	return m.leadsRef
}

// focusedCard returns the id and display name of the card under the cursor.
func (m Model) focusedCard() (string, string, bool) {
	if m.page == pageTasks {
		task, ok := m.tasks.FocusedItem()
		return task.ID, task.Title, ok
	}
	lead, ok := m.leads.FocusedItem()
	return lead.ID, lead.Name, ok
}

func (m Model) leadByID(id string) (domain.Lead, bool) {
	for _, lead := range m.leadItems {
		if lead.ID == id {
			return lead, true
		}
	}
	return domain.Lead{}, false
}

func (m Model) taskByID(id string) (domain.Task, bool) {
	for _, task := range m.taskItems {
		if task.ID == id {
			return task, true
		}
	}
	return domain.Task{}, false
}

func columnTitle(columns []domain.Column, id string) string {
	for _, column := range columns {
		if column.ID == id {
			return column.Title
		}
	}
	return id
}

// flushIntents applies the callbacks the boards fired during this update.
func (m *Model) flushIntents() tea.Cmd {
	var cmds []tea.Cmd
	for _, in := range m.intents.drain() {
		switch in.kind {
		case intentOpen:
			m.mode = modeDetail
			m.detail = detailRef{page: in.page, itemID: in.itemID}
			m.status = "card detail"
		case intentMove:
			cmds = append(cmds, m.moveCardCmd(in))
		}
	}
	return tea.Batch(cmds...)
}

// moveCardCmd persists a drop. The board is not touched until the reload
// that follows, whether the move succeeded or not.
func (m Model) moveCardCmd(in intent) tea.Cmd {
	svc := m.svc
	switch in.page {
	case pageTasks:
		name := in.itemID
		if task, ok := m.taskByID(in.itemID); ok {
			name = task.Title
		}
		target := columnTitle(m.taskColumns, in.columnID)
		return func() tea.Msg {
			if _, err := svc.MoveTask(context.Background(), in.itemID, in.columnID); err != nil {
				return actionMsg{err: fmt.Errorf("move %s: %w", name, err), reload: true}
			}
			return actionMsg{status: fmt.Sprintf("moved %s to %s", name, target), reload: true, focusID: in.itemID}
		}
	default:
		name := in.itemID
		if lead, ok := m.leadByID(in.itemID); ok {
			name = lead.Name
		}
		target := columnTitle(m.leadColumns, in.columnID)
		return func() tea.Msg {
			if _, err := svc.MoveLead(context.Background(), in.itemID, in.columnID); err != nil {
				return actionMsg{err: fmt.Errorf("move %s: %w", name, err), reload: true}
			}
			return actionMsg{status: fmt.Sprintf("moved %s to %s", name, target), reload: true, focusID: in.itemID}
		}
	}
}

// afterGesture reports a drag that ended without a drop.
func (m *Model) afterGesture(wasDragging bool) tea.Cmd {
	moved := false
	for _, in := range m.intents.pending {
		if in.kind == intentMove {
			moved = true
		}
	}
	if wasDragging && !moved && m.active().Drag().Phase() == kanban.PhaseIdle {
		m.status = "move cancelled"
	}
	return m.flushIntents()
}

func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	board := m.active()
	dragging := board.Drag().Phase() != kanban.PhaseIdle

	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	if m.help.ShowAll {
		if key.Matches(msg, m.keys.toggleHelp) || msg.String() == "esc" {
			m.help.ShowAll = false
		}
		return m, nil
	}

	if dragging {
		switch {
		case key.Matches(msg, m.keys.moveLeft):
			board.StepHover(-1)
		case key.Matches(msg, m.keys.moveRight):
			board.StepHover(1)
		case key.Matches(msg, m.keys.grab), key.Matches(msg, m.keys.openCard):
			if hovered := board.Drag().HoveredColumnID(); hovered != "" {
				board.DropOn(hovered)
			} else {
				board.DragEnd()
			}
		case key.Matches(msg, m.keys.cancel):
			board.PointerCancel()
		}
		return m, m.afterGesture(true)
	}

	switch {
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = true
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.switchPage):
		if m.page == pageLeads {
			m.page = pageTasks
		} else {
			m.page = pageLeads
		}
		m.status = m.page.String()
		return m, nil
	case key.Matches(msg, m.keys.moveLeft):
		board.MoveFocus(-1, 0)
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		board.MoveFocus(1, 0)
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		board.MoveFocus(0, -1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		board.MoveFocus(0, 1)
		return m, nil
	case key.Matches(msg, m.keys.openCard):
		if id, _, ok := m.focusedCard(); ok {
			board.Click(id)
		}
		return m, m.flushIntents()
	case key.Matches(msg, m.keys.grab):
		id, name, ok := m.focusedCard()
		if !ok || !board.DragStart(id) {
			m.status = "no card selected"
			return m, nil
		}
		board.StepHover(0)
		m.status = fmt.Sprintf("moving %s • h/l choose column • enter drop • esc cancel", name)
		return m, nil
	case key.Matches(msg, m.keys.newCard):
		return m, m.startCreateForm()
	case key.Matches(msg, m.keys.editCard):
		id, _, ok := m.focusedCard()
		if !ok {
			m.status = "no card selected"
			return m, nil
		}
		return m, m.startEditForm(m.page, id)
	case key.Matches(msg, m.keys.archive):
		id, name, ok := m.focusedCard()
		if !ok {
			m.status = "no card selected"
			return m, nil
		}
		if m.defaultDeleteMode == app.DeleteModeHard {
			return m.confirmHardDelete(id, name)
		}
		return m, m.deleteCardCmd(m.page, id, name, app.DeleteModeArchive)
	case key.Matches(msg, m.keys.hardDelete):
		id, name, ok := m.focusedCard()
		if !ok {
			m.status = "no card selected"
			return m, nil
		}
		return m.confirmHardDelete(id, name)
	case key.Matches(msg, m.keys.copyField):
		m.copyFocused()
		return m, nil
	}
	return m, nil
}

func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeDetail:
		switch {
		case msg.String() == "esc", key.Matches(msg, m.keys.openCard), msg.String() == "q":
			m.mode = modeNone
			m.detail = detailRef{}
			m.status = "ready"
			return m, nil
		case key.Matches(msg, m.keys.editCard):
			return m, m.startEditForm(m.detail.page, m.detail.itemID)
		case key.Matches(msg, m.keys.copyField):
			m.copyCard(m.detail.page, m.detail.itemID)
			return m, nil
		}
		return m, nil

	case modeConfirmHardDelete:
		switch msg.String() {
		case "y", "enter":
			id := m.confirmID
			name := id
			if m.page == pageTasks {
				if task, ok := m.taskByID(id); ok {
					name = task.Title
				}
			} else if lead, ok := m.leadByID(id); ok {
				name = lead.Name
			}
			m.mode = modeNone
			m.confirmID = ""
			return m, m.deleteCardCmd(m.page, id, name, app.DeleteModeHard)
		default:
			m.mode = modeNone
			m.confirmID = ""
			m.status = "delete cancelled"
			return m, nil
		}

	case modeForm:
		switch msg.String() {
		case "esc":
			m.mode = modeNone
			m.form = cardForm{}
			m.status = "cancelled"
			return m, nil
		case "tab", "down":
			return m, m.form.focusField(m.form.focus + 1)
		case "shift+tab", "up":
			return m, m.form.focusField(m.form.focus - 1)
		case "enter":
			return m.submitForm()
		}
		return m, m.form.update(msg)
	}
	return m, nil
}

func (m Model) confirmHardDelete(id, name string) (tea.Model, tea.Cmd) {
	m.mode = modeConfirmHardDelete
	m.confirmID = id
	m.status = fmt.Sprintf("hard delete %s? y to confirm", name)
	return m, nil
}

func (m *Model) startCreateForm() tea.Cmd {
	column, ok := m.active().FocusedColumn()
	if !ok {
		m.status = "board has no columns"
		return nil
	}
	ref := m.activeRef()
	if m.page == pageTasks {
		m.form = newTaskForm(ref.ID, column.ID, nil)
	} else {
		m.form = newLeadForm(ref.ID, column.ID, nil)
	}
	m.mode = modeForm
	m.status = m.form.title() + " in " + column.Title
	return m.form.focusField(0)
}

func (m *Model) startEditForm(pg page, id string) tea.Cmd {
	switch pg {
	case pageTasks:
		task, ok := m.taskByID(id)
		if !ok {
			m.status = "card not found"
			return nil
		}
		m.form = newTaskForm(task.BoardID, task.Status, &task)
	default:
		lead, ok := m.leadByID(id)
		if !ok {
			m.status = "card not found"
			return nil
		}
		m.form = newLeadForm(lead.BoardID, lead.Status, &lead)
	}
	m.mode = modeForm
	m.status = m.form.title()
	return m.form.focusField(0)
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	form := m.form
	svc := m.svc
	var cmd tea.Cmd
	switch form.page {
	case pageTasks:
		in, err := form.createTaskInput()
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		if strings.TrimSpace(in.Title) == "" {
			m.status = "title is required"
			return m, nil
		}
		if form.editing() {
			cmd = func() tea.Msg {
				task, err := svc.UpdateTask(context.Background(), form.itemID, in.TaskDetails)
				if err != nil {
					return actionMsg{err: err}
				}
				return actionMsg{status: "task updated", reload: true, focusID: task.ID}
			}
		} else {
			cmd = func() tea.Msg {
				task, err := svc.CreateTask(context.Background(), in)
				if err != nil {
					return actionMsg{err: err}
				}
				return actionMsg{status: "task created", reload: true, focusID: task.ID}
			}
		}
	default:
		in, err := form.createLeadInput()
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		if strings.TrimSpace(in.Name) == "" {
			m.status = "name is required"
			return m, nil
		}
		if form.editing() {
			cmd = func() tea.Msg {
				lead, err := svc.UpdateLead(context.Background(), form.itemID, in.LeadDetails)
				if err != nil {
					return actionMsg{err: err}
				}
				return actionMsg{status: "lead updated", reload: true, focusID: lead.ID}
			}
		} else {
			cmd = func() tea.Msg {
				lead, err := svc.CreateLead(context.Background(), in)
				if err != nil {
					return actionMsg{err: err}
				}
				return actionMsg{status: "lead created", reload: true, focusID: lead.ID}
			}
		}
	}
	m.mode = modeNone
	m.form = cardForm{}
	m.detail = detailRef{}
	m.status = "saving..."
	return m, cmd
}

func (m Model) deleteCardCmd(pg page, id, name string, mode app.DeleteMode) tea.Cmd {
	svc := m.svc
	verb := "archived"
	if mode == app.DeleteModeHard {
		verb = "deleted"
	}
	return func() tea.Msg {
		var err error
		if pg == pageTasks {
			err = svc.DeleteTask(context.Background(), id, mode)
		} else {
			err = svc.DeleteLead(context.Background(), id, mode)
		}
		if err != nil {
			return actionMsg{err: err, reload: errors.Is(err, app.ErrNotFound)}
		}
		return actionMsg{status: fmt.Sprintf("%s %s", verb, name), reload: true}
	}
}

func (m *Model) copyFocused() {
	id, _, ok := m.focusedCard()
	if !ok {
		m.status = "no card selected"
		return
	}
	m.copyCard(m.page, id)
}

func (m *Model) copyCard(pg page, id string) {
	var text, what string
	switch pg {
	case pageTasks:
		task, ok := m.taskByID(id)
		if !ok {
			m.status = "card not found"
			return
		}
		text, what = task.Title, "title"
	default:
		lead, ok := m.leadByID(id)
		if !ok {
			m.status = "card not found"
			return
		}
		text, what = leadCopyText(lead)
	}
	if err := m.copyText(text); err != nil {
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = "copied " + what
}

// boardPoint converts screen cells to board-local cells.
func boardPoint(x, y int) (int, int) {
	return x, y - boardTop
}

func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone || m.err != nil {
		return m, nil
	}
	if msg.Button != tea.MouseLeft {
		return m, nil
	}
	if msg.Y == 1 {
		if pg, ok := m.tabAt(msg.X); ok && m.active().Drag().Phase() == kanban.PhaseIdle {
			m.page = pg
			m.status = pg.String()
		}
		return m, nil
	}
	x, y := boardPoint(msg.X, msg.Y)
	m.active().PointerDown(x, y)
	return m, nil
}

func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || m.err != nil {
		return m, nil
	}
	board := m.active()
	wasIdle := board.Drag().Phase() == kanban.PhaseIdle
	x, y := boardPoint(msg.X, msg.Y)
	board.PointerMove(x, y)
	if wasIdle && board.Drag().Phase() != kanban.PhaseIdle {
		m.status = "dragging • release over a column to drop"
	}
	return m, nil
}

func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || m.err != nil {
		return m, nil
	}
	board := m.active()
	wasDragging := board.Drag().Phase() != kanban.PhaseIdle
	x, y := boardPoint(msg.X, msg.Y)
	board.PointerUp(x, y)
	return m, m.afterGesture(wasDragging)
}

func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone {
		return m, nil
	}
	board := m.active()
	if board.Drag().Phase() != kanban.PhaseIdle {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		board.MoveFocus(0, -1)
	case tea.MouseWheelDown:
		board.MoveFocus(0, 1)
	case tea.MouseWheelLeft:
		board.MoveFocus(-1, 0)
	case tea.MouseWheelRight:
		board.MoveFocus(1, 0)
	}
	return m, nil
}

// tabLabels returns the rendered tab strings in page order.
func (m Model) tabLabels(accent, dim color.Color) []string {
	active := lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	inactive := lipgloss.NewStyle().Foreground(dim).Padding(0, 1)
	pages := []struct {
		pg    page
		count int
	}{
		{pg: pageLeads, count: len(m.leadItems)},
		{pg: pageTasks, count: len(m.taskItems)},
	}
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		label := fmt.Sprintf("%s (%d)", p.pg, p.count)
		if p.pg == m.page {
			out = append(out, active.Render("▸ "+label))
		} else {
			out = append(out, inactive.Render("  "+label))
		}
	}
	return out
}

// tabAt maps a click on the tab row to a page.
func (m Model) tabAt(x int) (page, bool) {
	start := 0
	for idx, tab := range m.tabLabels(lipgloss.Color("62"), lipgloss.Color("241")) {
		w := lipgloss.Width(tab)
		if x >= start && x < start+w {
			return page(idx), true
		}
		start += w
	}
	return pageLeads, false
}

func (m Model) detailMarkdown() (string, bool) {
	switch m.detail.page {
	case pageTasks:
		task, ok := m.taskByID(m.detail.itemID)
		if !ok {
			return "", false
		}
		return taskDetailMarkdown(task, columnTitle(m.taskColumns, task.Status)), true
	default:
		lead, ok := m.leadByID(m.detail.itemID)
		if !ok {
			return "", false
		}
		return leadDetailMarkdown(lead, columnTitle(m.leadColumns, lead.Status)), true
	}
}

func (m Model) modeLabel() string {
	if phase := m.active().Drag().Phase(); phase != kanban.PhaseIdle {
		return "moving"
	}
	switch m.mode {
	case modeDetail:
		return "detail"
	case modeForm:
		return m.form.title()
	case modeConfirmHardDelete:
		return "confirm"
	default:
		return "board"
	}
}

func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	ref := m.activeRef()
	header := titleStyle.Render("leadboard") + "  " + ref.Name
	header += statusStyle.Render("  [" + m.modeLabel() + "]")
	header = truncate(header, max(1, m.width))
	tabs := strings.Join(m.tabLabels(accent, dim), "")

	board := m.leads.View()
	columns := m.leads.Columns()
	if m.page == pageTasks {
		board = m.tasks.View()
		columns = m.tasks.Columns()
	}
	if len(columns) == 0 {
		board = statusStyle.Render("no columns on this board")
	}
	board = fitLines(board, max(4, m.height-boardTop-footerHeight))

	info := ""
	if hidden := m.hidden[m.page]; hidden > 0 {
		info = warnStyle.Render(fmt.Sprintf("%d cards hidden: their column is archived or missing", hidden))
	}
	status := ""
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		status = statusStyle.Render(m.status)
	}

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	content := strings.Join([]string{header, tabs, "", board, info, status}, "\n")
	fullContent := content + "\n" + helpLine

	overlay := m.renderModeOverlay(accent, muted, dim, max(24, m.width-8))
	if m.help.ShowAll {
		overlay = m.renderHelpOverlay(accent, muted, dim, max(24, m.width-8))
	}
	if overlay != "" {
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, m.height))
	}

	view := tea.NewView(fullContent)
	view.MouseMode = tea.MouseModeCellMotion
	view.AltScreen = true
	return view
}

func (m Model) renderModeOverlay(accent, muted, dim color.Color, maxWidth int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)
	width := min(maxWidth, 80)

	switch m.mode {
	case modeDetail:
		doc, ok := m.detailMarkdown()
		if !ok {
			return ""
		}
		body := m.markdown.render(doc, width-4)
		hint := hintStyle.Render("e edit • y copy • esc close")
		return box.Width(width).Render(body + "\n\n" + hint)

	case modeForm:
		lines := []string{titleStyle.Render(m.form.title()), ""}
		labelStyle := lipgloss.NewStyle().Foreground(muted).Width(12)
		focusLabel := lipgloss.NewStyle().Foreground(accent).Bold(true).Width(12)
		for i, field := range m.form.fields {
			label := labelStyle.Render(field.label)
			if i == m.form.focus {
				label = focusLabel.Render(field.label)
			}
			in := m.form.inputs[i]
			in.SetWidth(max(8, width-18))
			lines = append(lines, label+" "+in.View())
		}
		lines = append(lines, "", hintStyle.Render("tab next • shift+tab prev • enter save • esc cancel"))
		return box.Width(width).Render(strings.Join(lines, "\n"))

	case modeConfirmHardDelete:
		warn := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
		body := warn.Render("Hard delete this card?") + "\n" +
			lipgloss.NewStyle().Foreground(dim).Render("It will be removed from the store for good.") + "\n\n" +
			hintStyle.Render("y confirm • any other key cancels")
		return box.BorderForeground(lipgloss.Color("203")).Render(body)
	}
	return ""
}

func (m Model) renderHelpOverlay(accent, muted, dim color.Color, maxWidth int) string {
	helpBubble := m.help
	helpBubble.ShowAll = true
	helpBubble.SetWidth(max(20, maxWidth-4))
	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("keys")
	mouse := lipgloss.NewStyle().Foreground(muted).Render(
		"mouse: drag a card onto a column to move it • click opens it • wheel scrolls")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Render(title + "\n\n" + helpBubble.View(m.keys) + "\n\n" + mouse)
}

func formatActivityTimestamp(at time.Time) string {
	if at.IsZero() {
		return ""
	}
	local := at.Local()
	now := time.Now().In(local.Location())
	if local.Year() != now.Year() || local.YearDay() != now.YearDay() {
		return local.Format("2006-01-02 15:04")
	}
	return local.Format("15:04")
}

// fitLines pads or cuts content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay on top of base.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	overlayLayer := lipgloss.NewLayer(centered).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	return ansi.Truncate(s, max, "…")
}
