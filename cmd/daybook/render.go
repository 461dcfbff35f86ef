package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tkessler/daybook/internal/models"
	"github.com/tkessler/daybook/internal/util"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)

	priorityStyles = map[models.Priority]lipgloss.Style{
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

func renderTaskLine(t models.Task) string {
	box := "[ ]"
	if t.Done {
		box = "[x]"
	}
	priority := priorityStyles[t.Priority].Render(string(t.Priority))

	title := t.Title
	if t.Done {
		title = doneStyle.Render(title)
	}

	line := fmt.Sprintf("%s #%-4d %s %s (%s)", box, t.ID, priority, title, t.Status)
	if t.DueAt != nil && !t.Done {
		line += mutedStyle.Render(" due " + t.DueAt.Format("2006-01-02"))
	}
	if t.RecurrenceType != models.RecurrenceNone {
		line += mutedStyle.Render(" ↻")
	}
	return line
}

func renderLogLine(l models.TaskLog) string {
	stamp := mutedStyle.Render(l.CreatedAt.Format("2006-01-02 15:04"))
	line := fmt.Sprintf("%s  %s", stamp, l.Event)
	if comment := util.Deref(l.Comment); comment != "" {
		line += ": " + comment
	}
	if len(l.Changes) > 0 {
		line += mutedStyle.Render("  " + renderChanges(l.Changes))
	}
	return line
}

func renderChanges(changes models.Changes) string {
	fields := make([]string, 0, len(changes))
	for field := range changes {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		change := changes[field]
		parts = append(parts, fmt.Sprintf("%s: %v → %v", field, renderValue(change.Old), renderValue(change.New)))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func renderValue(v interface{}) interface{} {
	if v == nil {
		return "-"
	}
	return v
}
