package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/daylog/internal/models"
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	MutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	KeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	DraftStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	DoneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// maxCellWidth truncates long free-text answers in tables.
const maxCellWidth = 60

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// Status renders the draft/submitted state of an entry.
func Status(isDraft bool) string {
	if isDraft {
		return DraftStyle.Render("draft")
	}
	return DoneStyle.Render("submitted")
}

// RenderEntry renders one entry with its answers in catalog order.
func RenderEntry(date string, e models.EntryWithAnswers, questions []models.Question) string {
	if e.Entry == nil {
		return MutedStyle.Render(fmt.Sprintf("No entry for %s.", date))
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(e.Entry.Date))
	b.WriteString("  ")
	b.WriteString(Status(e.Entry.IsDraft))
	if e.Entry.CompletedAt != nil {
		b.WriteString(MutedStyle.Render("  completed " + e.Entry.CompletedAt.Local().Format("2006-01-02 15:04")))
	}
	b.WriteString("\n")

	if len(e.Answers) == 0 {
		b.WriteString(MutedStyle.Render("No answers."))
		return b.String()
	}

	wording := make(map[string]string, len(questions))
	for _, q := range questions {
		wording[q.Key] = q.Wording
	}
	t := newTable("Question", "Answer")
	for _, a := range e.Answers {
		label := a.QuestionKey
		if w, ok := wording[a.QuestionKey]; ok && w != "" {
			label = w
		}
		t.Row(truncate(label, 40), truncate(models.FormatValue(a.Value), maxCellWidth))
	}
	b.WriteString(t.Render())
	return b.String()
}

// RenderResults renders search and exploration results, one row per entry.
func RenderResults(results []models.EntryResult) string {
	if len(results) == 0 {
		return MutedStyle.Render("No matching entries.")
	}
	t := newTable("Date", "Status", "Answers", "Highlights")
	for _, r := range results {
		t.Row(r.Date, Status(r.IsDraft), fmt.Sprint(len(r.Answers)), truncate(highlights(r.Answers), maxCellWidth))
	}
	return t.Render() + "\n" + MutedStyle.Render(fmt.Sprintf("%d entries", len(results)))
}

// RenderQuestions renders the question catalog.
func RenderQuestions(questions []models.Question, source string) string {
	t := newTable("#", "Key", "Type", "Wording")
	for _, q := range questions {
		t.Row(fmt.Sprint(q.DisplayOrder), KeyStyle.Render(q.Key), string(q.Type), truncate(q.Wording, maxCellWidth))
	}
	return t.Render() + "\n" + MutedStyle.Render(fmt.Sprintf("%d questions (%s)", len(questions), source))
}

func highlights(answers []models.Answer) string {
	parts := make([]string, 0, 3)
	for _, a := range answers {
		if len(parts) == cap(parts) {
			break
		}
		parts = append(parts, a.QuestionKey+": "+models.FormatValue(a.Value))
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
