package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskboard/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)

	priorityColors = map[models.Priority]lipgloss.Color{
		models.PriorityHigh:   lipgloss.Color("9"),
		models.PriorityMedium: lipgloss.Color("214"),
		models.PriorityLow:    lipgloss.Color("42"),
	}

	boxChecked   = "☑"
	boxUnchecked = "☐"
)

func ok(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render("✔ "+msg))
}

// card renders one task the way the dashboard shows it.
func card(t models.Task) string {
	box, title := boxUnchecked, titleStyle.Render(t.Title)
	if t.Completed {
		box, title = boxChecked, doneStyle.Render(t.Title)
	}

	lines := []string{fmt.Sprintf("%s #%d %s", box, t.ID, title)}
	if t.Description != "" {
		lines = append(lines, t.Description)
	}
	badge := lipgloss.NewStyle().Foreground(priorityColors[t.Priority]).Render(string(t.Priority))
	lines = append(lines, badge+mutedStyle.Render(" · created "+t.CreatedAt.Local().Format("Jan 2, 2006")))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(priorityColors[t.Priority]).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// summary is the footer of a listing. Completion counts only make sense for
// the whole board, so a filtered page just reports how many tasks it shows.
func summary(tasks []models.Task, filtered bool) string {
	if filtered {
		return mutedStyle.Render(fmt.Sprintf("%d shown", len(tasks)))
	}
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return mutedStyle.Render(fmt.Sprintf("%d of %d done", done, len(tasks)))
}
