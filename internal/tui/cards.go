package tui

import (
	"fmt"
	"strings"

	"github.com/evanschultz/leadboard/internal/app"
	"github.com/evanschultz/leadboard/internal/domain"
)

// renderLeadCard is the lead board's card body: name, then company and value.
func renderLeadCard(lead domain.Lead) string {
	return cardBody(app.LeadCard(lead))
}

// renderTaskCard is the task board's card body: title, then priority, due date
// and labels.
func renderTaskCard(task domain.Task) string {
	body := cardBody(app.TaskCard(task))
	if labels := summarizeLabels(task.Labels, 2); labels != "" {
		body += "\n" + labels
	}
	return body
}

func cardBody(card app.CardView) string {
	if card.Subtitle == "" {
		return card.Title
	}
	return card.Title + "\n" + card.Subtitle
}

func leadDetailMarkdown(lead domain.Lead, column string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", lead.Name)
	writeField(&sb, "Stage", column)
	writeField(&sb, "Company", lead.Company)
	writeField(&sb, "Email", lead.Email)
	writeField(&sb, "Phone", lead.Phone)
	writeField(&sb, "Source", lead.Source)
	if lead.ValueCents > 0 {
		writeField(&sb, "Value", app.FormatMoney(lead.ValueCents))
	}
	writeField(&sb, "Updated", formatActivityTimestamp(lead.UpdatedAt))
	if notes := strings.TrimSpace(lead.NotesMarkdown); notes != "" {
		sb.WriteString("\n---\n\n")
		sb.WriteString(notes)
		sb.WriteString("\n")
	}
	return sb.String()
}

func taskDetailMarkdown(task domain.Task, column string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", task.Title)
	writeField(&sb, "Column", column)
	writeField(&sb, "Priority", string(task.Priority))
	if task.DueAt != nil {
		writeField(&sb, "Due", formatDueValue(task.DueAt))
	}
	if len(task.Labels) > 0 {
		writeField(&sb, "Labels", strings.Join(task.Labels, ", "))
	}
	writeField(&sb, "Updated", formatActivityTimestamp(task.UpdatedAt))
	if desc := strings.TrimSpace(task.Description); desc != "" {
		sb.WriteString("\n---\n\n")
		sb.WriteString(desc)
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeField(sb *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "- **%s:** %s\n", label, value)
}

// leadCopyText prefers the email address so it can be pasted into a mail client.
func leadCopyText(lead domain.Lead) (string, string) {
	if lead.Email != "" {
		return lead.Email, "email"
	}
	return lead.Name, "name"
}

// summarizeLabels renders at most maxLabels labels as hashtags.
func summarizeLabels(labels []string, maxLabels int) string {
	if len(labels) == 0 {
		return ""
	}
	if maxLabels <= 0 {
		maxLabels = 1
	}
	visible := labels
	extra := 0
	if len(labels) > maxLabels {
		visible = labels[:maxLabels]
		extra = len(labels) - maxLabels
	}
	joined := "#" + strings.Join(visible, " #")
	if extra > 0 {
		joined += fmt.Sprintf(" +%d", extra)
	}
	return joined
}
