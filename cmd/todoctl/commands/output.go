package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/benvon/todo-api/internal/client"
	"github.com/benvon/todo-api/internal/models"
	"github.com/fatih/color"
)

var (
	faint  = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

func disableColor() {
	if !color.NoColor {
		color.NoColor = true
	}
}

func priorityLabel(p models.Priority) string {
	switch p {
	case models.PriorityUrgent:
		return red(string(p))
	case models.PriorityHigh:
		return yellow(string(p))
	case models.PriorityLow:
		return faint(string(p))
	default:
		return cyan(string(p))
	}
}

func checkbox(done bool) string {
	if done {
		return green("[x]")
	}
	return "[ ]"
}

func printTodoLine(w io.Writer, t *models.Todo) {
	fmt.Fprintf(w, "%4d  %s  %s  %s\n", t.ID, checkbox(t.Done), bold(t.Title), priorityLabel(t.Priority))
}

func printTodo(w io.Writer, t *models.Todo) {
	printTodoLine(w, t)
	fmt.Fprintf(w, "      %s %s\n", faint("Created:"), faint(t.CreatedAt.Local().Format("2006-01-02 15:04")))
	if t.UpdatedAt != nil {
		fmt.Fprintf(w, "      %s %s\n", faint("Updated:"), faint(t.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}
}

func printStats(w io.Writer, s *models.TodoStats) {
	fmt.Fprintf(w, "Total:     %d\n", s.Total)
	fmt.Fprintf(w, "Completed: %s\n", green(s.Completed))
	fmt.Fprintf(w, "Pending:   %s\n", yellow(s.Pending))
	fmt.Fprintf(w, "Progress:  %d%%\n", s.CompletionRate)
}

func printDetailedStats(w io.Writer, s *models.DetailedTodoStats) {
	printStats(w, &s.TodoStats)

	fmt.Fprintln(w, bold("\nBy priority:"))
	for _, p := range models.Priorities() {
		fmt.Fprintf(w, "  %-8s %d\n", string(p), s.ByPriority[p])
	}

	fmt.Fprintln(w, bold("\nRecent activity (24h):"))
	if len(s.RecentActivity) == 0 {
		fmt.Fprintln(w, faint("  none"))
		return
	}
	for _, t := range s.RecentActivity {
		printTodoLine(w, t)
	}
}

func printHealth(w io.Writer, h *client.HealthStatus) {
	status := green(h.Status)
	if h.Status != "healthy" {
		status = red(h.Status)
	}
	fmt.Fprintf(w, "Status: %s\n", status)
	fmt.Fprintf(w, "Uptime: %.1fs\n", h.Uptime)
	fmt.Fprintf(w, "Todos:  %d\n", h.Count)

	if len(h.Checks) == 0 {
		return
	}
	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Checks:")
	for _, name := range names {
		result := h.Checks[name]
		if strings.HasPrefix(result, "healthy") {
			result = green("✓ " + result)
		} else {
			result = red("✗ " + result)
		}
		fmt.Fprintf(w, "  %-10s %s\n", name, result)
	}
}
