package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/leadboard/internal/app"
	"github.com/evanschultz/leadboard/internal/domain"
)

// formField is one labelled input of a card form.
type formField struct {
	key         string
	label       string
	placeholder string
	limit       int
}

var leadFormFields = []formField{
	{key: "name", label: "name", placeholder: "contact name (required)", limit: 120},
	{key: "company", label: "company", placeholder: "company", limit: 120},
	{key: "email", label: "email", placeholder: "name@example.com", limit: 160},
	{key: "phone", label: "phone", placeholder: "+1 555 0100", limit: 40},
	{key: "source", label: "source", placeholder: "referral, web, event", limit: 60},
	{key: "value", label: "value", placeholder: "deal value, e.g. 1500 or 1,500.50", limit: 24},
	{key: "notes", label: "notes", placeholder: "markdown notes", limit: 2000},
}

var taskFormFields = []formField{
	{key: "title", label: "title", placeholder: "task title (required)", limit: 120},
	{key: "description", label: "description", placeholder: "markdown description", limit: 2000},
	{key: "priority", label: "priority", placeholder: "low | medium | high", limit: 16},
	{key: "due", label: "due", placeholder: "YYYY-MM-DD[THH:MM] or -", limit: 32},
	{key: "labels", label: "labels", placeholder: "csv labels", limit: 160},
}

// cardForm is the create/edit form for one card.
type cardForm struct {
	page     page
	itemID   string
	boardID  string
	columnID string
	fields   []formField
	inputs   []textinput.Model
	focus    int
	dueAt    *time.Time
}

func (f cardForm) editing() bool {
	return f.itemID != ""
}

func (f cardForm) title() string {
	noun := "lead"
	if f.page == pageTasks {
		noun = "task"
	}
	if f.editing() {
		return "edit " + noun
	}
	return "new " + noun
}

func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

func newCardForm(pg page, fields []formField, values map[string]string) cardForm {
	f := cardForm{page: pg, fields: fields}
	f.inputs = make([]textinput.Model, 0, len(fields))
	for _, field := range fields {
		f.inputs = append(f.inputs, newModalInput("", field.placeholder, values[field.key], field.limit))
	}
	return f
}

// newLeadForm opens an empty form, or a form for lead when it is non-nil.
func newLeadForm(boardID, columnID string, lead *domain.Lead) cardForm {
	values := map[string]string{}
	if lead != nil {
		values["name"] = lead.Name
		values["company"] = lead.Company
		values["email"] = lead.Email
		values["phone"] = lead.Phone
		values["source"] = lead.Source
		if lead.ValueCents > 0 {
			values["value"] = formatMoneyInput(lead.ValueCents)
		}
		values["notes"] = lead.NotesMarkdown
	}
	f := newCardForm(pageLeads, leadFormFields, values)
	f.boardID = boardID
	f.columnID = columnID
	if lead != nil {
		f.itemID = lead.ID
	}
	return f
}

func newTaskForm(boardID, columnID string, task *domain.Task) cardForm {
	values := map[string]string{"priority": string(domain.PriorityMedium)}
	if task != nil {
		values["title"] = task.Title
		values["description"] = task.Description
		values["priority"] = string(task.Priority)
		if task.DueAt != nil {
			values["due"] = formatDueValue(task.DueAt)
		}
		values["labels"] = strings.Join(task.Labels, ",")
	}
	f := newCardForm(pageTasks, taskFormFields, values)
	f.boardID = boardID
	f.columnID = columnID
	if task != nil {
		f.itemID = task.ID
		f.dueAt = task.DueAt
	}
	return f
}

// focusField moves input focus to idx, wrapping around both ends.
func (f *cardForm) focusField(idx int) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	f.focus = wrapIndex(idx, len(f.inputs))
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f.inputs[f.focus].Focus()
}

func (f *cardForm) update(msg tea.Msg) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f cardForm) value(key string) string {
	for i, field := range f.fields {
		if field.key == key {
			return strings.TrimSpace(f.inputs[i].Value())
		}
	}
	return ""
}

// setValue is used by tests and prefill helpers.
func (f *cardForm) setValue(key, value string) {
	for i, field := range f.fields {
		if field.key == key {
			f.inputs[i].SetValue(value)
			return
		}
	}
}

func (f cardForm) leadDetails() (domain.LeadDetails, error) {
	value, err := parseMoneyInput(f.value("value"))
	if err != nil {
		return domain.LeadDetails{}, err
	}
	return domain.LeadDetails{
		Name:          f.value("name"),
		Company:       f.value("company"),
		Email:         f.value("email"),
		Phone:         f.value("phone"),
		Source:        f.value("source"),
		ValueCents:    value,
		NotesMarkdown: f.value("notes"),
	}, nil
}

func (f cardForm) taskDetails() (domain.TaskDetails, error) {
	priority := domain.Priority(strings.ToLower(f.value("priority")))
	switch priority {
	case "", domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
	default:
		return domain.TaskDetails{}, fmt.Errorf("priority must be low, medium, or high")
	}
	dueAt, err := parseDueInput(f.value("due"), f.dueAt)
	if err != nil {
		return domain.TaskDetails{}, err
	}
	return domain.TaskDetails{
		Title:       f.value("title"),
		Description: f.value("description"),
		Priority:    priority,
		DueAt:       dueAt,
		Labels:      parseLabelsInput(f.value("labels")),
	}, nil
}

func (f cardForm) createLeadInput() (app.CreateLeadInput, error) {
	details, err := f.leadDetails()
	if err != nil {
		return app.CreateLeadInput{}, err
	}
	return app.CreateLeadInput{BoardID: f.boardID, ColumnID: f.columnID, LeadDetails: details}, nil
}

func (f cardForm) createTaskInput() (app.CreateTaskInput, error) {
	details, err := f.taskDetails()
	if err != nil {
		return app.CreateTaskInput{}, err
	}
	return app.CreateTaskInput{BoardID: f.boardID, ColumnID: f.columnID, TaskDetails: details}, nil
}

// parseMoneyInput reads "1500", "1,500.5" or "$1,500.50" as cents.
func parseMoneyInput(raw string) (int64, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "$")
	text = strings.ReplaceAll(text, ",", "")
	if text == "" || text == "-" {
		return 0, nil
	}
	amount, err := strconv.ParseFloat(text, 64)
	if err != nil || amount < 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return 0, fmt.Errorf("value must be a non-negative amount like 1500 or 1,500.50")
	}
	return int64(math.Round(amount * 100)), nil
}

func formatMoneyInput(cents int64) string {
	if cents%100 == 0 {
		return strconv.FormatInt(cents/100, 10)
	}
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// parseDueInput keeps current when raw is blank and clears the date on "-".
func parseDueInput(raw string, current *time.Time) (*time.Time, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return current, nil
	}
	if text == "-" {
		return nil, nil
	}
	layouts := []string{
		time.DateOnly,
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		time.RFC3339,
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, text)
		if err == nil {
			ts := parsed.UTC()
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("due date must be YYYY-MM-DD, YYYY-MM-DDTHH:MM, RFC3339, or -")
}

// formatDueValue renders a due time for display and editing.
func formatDueValue(dueAt *time.Time) string {
	if dueAt == nil {
		return "-"
	}
	due := dueAt.UTC()
	if due.Hour() == 0 && due.Minute() == 0 {
		return due.Format(time.DateOnly)
	}
	return due.Format("2006-01-02 15:04")
}

func parseLabelsInput(raw string) []string {
	text := strings.TrimSpace(raw)
	if text == "" || text == "-" {
		return nil
	}
	out := make([]string, 0, strings.Count(text, ",")+1)
	for _, label := range strings.Split(text, ",") {
		if label = strings.TrimSpace(label); label != "" {
			out = append(out, label)
		}
	}
	return out
}

func wrapIndex(idx, total int) int {
	if total <= 0 {
		return 0
	}
	idx %= total
	if idx < 0 {
		idx += total
	}
	return idx
}
