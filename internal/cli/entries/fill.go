package entries

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/daylog/internal/cli"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/utils"
)

const questionsPerPage = 6

// FillCmd walks through the question catalog interactively, prefilled with
// any answers already stored for the date.
type FillCmd struct {
	Date  string `arg:"" optional:"" help:"Entry date (YYYY-MM-DD, today, yesterday). Defaults to today."`
	Draft bool   `help:"Save as a draft instead of submitting."`
}

func (c *FillCmd) Run(ctx *cli.Context) error {
	date, err := cli.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	bg := context.Background()

	set, err := ctx.Catalog.Questions(bg)
	if err != nil {
		return err
	}
	existing, err := ctx.Journal.GetEntry(bg, date)
	if err != nil {
		return err
	}

	fields := newFields(set.Questions, existing)
	form := buildForm(date, fields).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("Cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("interactive form error: %w", err)
	}

	answers := collect(fields)
	var saved models.EntryWithAnswers
	if c.Draft {
		saved, err = ctx.Journal.SaveDraft(bg, date, answers)
	} else {
		ctx.PerformAutomaticBackup(bg)
		saved, err = ctx.Journal.SubmitEntry(bg, date, answers)
	}
	if err != nil {
		return err
	}

	fmt.Println(cli.RenderEntry(date, saved, set.Questions))
	return nil
}

// field holds the form binding for one question.
type field struct {
	question models.Question
	text     string
	list     []string
}

func newFields(questions []models.Question, existing models.EntryWithAnswers) []*field {
	fields := make([]*field, 0, len(questions))
	for _, q := range questions {
		f := &field{question: q}
		if a, ok := existing.Answer(q.Key); ok && a.Value != nil {
			switch v := a.Value.(type) {
			case models.ListValue:
				f.list = append([]string(nil), v...)
			case models.BoolValue:
				f.text = boolChoice(bool(v))
			default:
				f.text = v.String()
			}
		}
		fields = append(fields, f)
	}
	return fields
}

func boolChoice(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func buildForm(date string, fields []*field) *huh.Form {
	var groups []*huh.Group
	for start := 0; start < len(fields); start += questionsPerPage {
		end := min(start+questionsPerPage, len(fields))
		inputs := make([]huh.Field, 0, end-start)
		for _, f := range fields[start:end] {
			inputs = append(inputs, f.input())
		}
		groups = append(groups, huh.NewGroup(inputs...).Title(fmt.Sprintf("Journal for %s", date)))
	}
	return huh.NewForm(groups...)
}

func (f *field) input() huh.Field {
	q := f.question
	switch q.Type {
	case models.QuestionBoolean:
		return huh.NewSelect[string]().
			Title(q.Wording).
			Description(q.Description).
			Options(
				huh.NewOption("Skip", ""),
				huh.NewOption("Yes", "yes"),
				huh.NewOption("No", "no"),
			).
			Value(&f.text)
	case models.QuestionMultiselect:
		return huh.NewMultiSelect[string]().
			Title(q.Wording).
			Description(q.Description).
			Options(huh.NewOptions(mergeOptions(q.Options(), f.list)...)...).
			Value(&f.list)
	case models.QuestionNumber, models.QuestionRating:
		return huh.NewInput().
			Title(q.Wording).
			Description(q.Description).
			Value(&f.text).
			Validate(numberValidator(q))
	case models.QuestionDate:
		return huh.NewInput().
			Title(q.Wording).
			Description(q.Description).
			Placeholder("YYYY-MM-DD").
			Value(&f.text).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return nil
				}
				_, err := utils.ParseDate(s)
				return err
			})
	default:
		return huh.NewText().
			Title(q.Wording).
			Description(q.Description).
			Lines(2).
			Value(&f.text)
	}
}

// mergeOptions appends stored items missing from the catalog options so
// they stay selected.
func mergeOptions(options, selected []string) []string {
	out := append([]string(nil), options...)
	for _, s := range selected {
		found := false
		for _, o := range options {
			if o == s {
				found = true
				break
			}
		}
		if !found {
			out = append(out, s)
		}
	}
	return out
}

func numberValidator(q models.Question) func(string) error {
	lo, hi, bounded := q.Bounds()
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", s)
		}
		if bounded && (n < lo || n > hi) {
			return fmt.Errorf("must be between %v and %v", lo, hi)
		}
		return nil
	}
}

// collect turns the form bindings into answers, leaving out skipped questions.
func collect(fields []*field) []models.AnswerInput {
	answers := make([]models.AnswerInput, 0, len(fields))
	for _, f := range fields {
		if f.question.Type == models.QuestionMultiselect {
			if len(f.list) > 0 {
				answers = append(answers, models.AnswerInput{QuestionKey: f.question.Key, Value: f.list})
			}
			continue
		}
		if strings.TrimSpace(f.text) == "" {
			continue
		}
		answers = append(answers, models.AnswerInput{QuestionKey: f.question.Key, Value: f.text})
	}
	return answers
}
