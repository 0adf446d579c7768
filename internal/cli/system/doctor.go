package system

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/daylog/internal/backup"
	"github.com/julianstephens/daylog/internal/cli"
	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/storage"
	"github.com/julianstephens/daylog/internal/storage/sqlite"
	"github.com/julianstephens/daylog/internal/validation"
)

// doctorSampleSize is how many recent entries have their answers validated.
const doctorSampleSize = 50

type DoctorCmd struct {
	SkipSmoke bool `help:"Skip the write/read round trip on the smoke-test date."`
}

type checkLevel int

const (
	levelFail checkLevel = iota
	levelWarn
)

type check struct {
	name    string
	level   checkLevel
	needsDB bool
	run     func(context.Context, *cli.Context) error
}

func (cmd *DoctorCmd) checks() []check {
	checks := []check{
		{name: "Database reachable", run: checkDBReachable},
		{name: "Schema version", needsDB: true, run: checkSchemaVersion},
		{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
		{name: "Backups present", level: levelWarn, run: checkBackupsPresent},
		{name: "Question catalog", needsDB: true, run: checkCatalog},
		{name: "Storage integrity", needsDB: true, run: checkIntegrity},
		{name: "Answer validation", level: levelWarn, needsDB: true, run: checkAnswers},
	}
	if !cmd.SkipSmoke {
		checks = append(checks, check{name: "Write/read round trip", needsDB: true, run: checkSmoke})
	}
	return append(checks, check{name: "Clock/timezone", run: func(context.Context, *cli.Context) error { return checkClockTimezone() }})
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	bg := context.Background()
	hasError := false
	dbReachable := false

	for i, c := range cmd.checks() {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(bg, ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
			if i == 0 {
				dbReachable = true
			}
		case c.level == levelWarn:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx context.Context, c *cli.Context) error {
	if err := c.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if _, err := c.Store.ListQuestions(ctx); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchemaVersion(_ context.Context, c *cli.Context) error {
	current, latest, err := c.Store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(_ context.Context, c *cli.Context) error {
	current, latest, err := c.Store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkBackupsPresent(_ context.Context, c *cli.Context) error {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return nil
	}
	_, err := backup.NewManager(c.Store.GetConfigPath()).Latest()
	if errors.Is(err, backup.ErrNoBackups) {
		return fmt.Errorf("no backups found - consider creating one with 'daylog backup create'")
	}
	return err
}

func checkCatalog(ctx context.Context, c *cli.Context) error {
	questions, err := c.Store.ListQuestions(ctx)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("question catalog is empty - run 'daylog init' or 'daylog questions import'")
	}
	result := validation.New().ValidateQuestions(questions)
	if result.HasConflicts() {
		return &result
	}
	return nil
}

func checkIntegrity(ctx context.Context, c *cli.Context) error {
	report, err := c.Store.Integrity(ctx)
	if err != nil {
		return err
	}
	if report.OK() {
		return nil
	}
	var problems []string
	if n := len(report.DraftMismatches); n > 0 {
		problems = append(problems, fmt.Sprintf("%d entries with inconsistent draft state (%s)", n, strings.Join(report.DraftMismatches, ", ")))
	}
	if report.ColumnCountViolations > 0 {
		problems = append(problems, fmt.Sprintf("%d answers without exactly one value column", report.ColumnCountViolations))
	}
	if report.TypeMismatches > 0 {
		problems = append(problems, fmt.Sprintf("%d answers stored in the wrong column for their question type", report.TypeMismatches))
	}
	return fmt.Errorf("%s", strings.Join(problems, "; "))
}

// checkAnswers validates the most recent entries against catalog bounds and
// options. Out-of-range answers are reported but never rejected on write.
func checkAnswers(ctx context.Context, c *cli.Context) error {
	questions, err := c.Store.ListQuestions(ctx)
	if err != nil {
		return err
	}
	entries, err := c.Store.ListEntries(ctx, storage.EntryFilter{Limit: doctorSampleSize})
	if err != nil {
		return err
	}
	hydrated, err := c.Journal.Hydrate(ctx, entries)
	if err != nil {
		return err
	}

	v := validation.New()
	combined := validation.ValidationResult{}
	for _, e := range hydrated {
		r := v.ValidateAnswers(questions, e)
		combined.Conflicts = append(combined.Conflicts, r.Conflicts...)
	}
	if combined.HasConflicts() {
		return fmt.Errorf("%s", strings.TrimSpace(combined.FormatReport()))
	}
	return nil
}

// checkSmoke writes a draft on SmokeDate, reads it back and removes it.
func checkSmoke(ctx context.Context, c *cli.Context) error {
	status, err := c.Journal.EntryExists(ctx, constants.SmokeDate)
	if err != nil {
		return err
	}
	if status.Exists {
		return fmt.Errorf("an entry already exists on %s; refusing to overwrite it", constants.SmokeDate)
	}

	set, err := c.Catalog.Questions(ctx)
	if err != nil {
		return err
	}
	var sample *models.Question
	for i := range set.Questions {
		if set.Questions[i].Type == models.QuestionText {
			sample = &set.Questions[i]
			break
		}
	}
	if sample == nil {
		return fmt.Errorf("no text question available for the round trip")
	}

	want := fmt.Sprintf("doctor %d", time.Now().UnixNano())
	defer func() {
		if _, err := c.Journal.DeleteEntry(ctx, constants.SmokeDate); err != nil {
			fmt.Printf("   Warning: failed to remove smoke entry: %v\n", err)
		}
	}()

	if _, err := c.Journal.SaveDraft(ctx, constants.SmokeDate, []models.AnswerInput{{QuestionKey: sample.Key, Value: want}}); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	got, err := c.Journal.GetEntry(ctx, constants.SmokeDate)
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}
	a, ok := got.Answer(sample.Key)
	if !ok || models.FormatValue(a.Value) != want {
		return fmt.Errorf("read back %q, want %q", models.FormatValue(a.Value), want)
	}
	return nil
}

func checkClockTimezone() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, offset := now.Zone(); offset%(15*60) != 0 {
		return fmt.Errorf("local timezone offset %ds is not a multiple of 15 minutes", offset)
	}
	return nil
}
