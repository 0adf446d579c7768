// Package catalog resolves question keys to their catalog ids and types and
// provides the default question set.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/daylog/internal/constants"
	"github.com/julianstephens/daylog/internal/logger"
	"github.com/julianstephens/daylog/internal/models"
	"github.com/julianstephens/daylog/internal/validation"
)

//go:embed questions.yaml
var defaultQuestionsYAML []byte

const (
	SourceDatabase       = "database"
	SourceSchemaFallback = "schema_fallback"
)

// Store is the subset of storage.Provider the catalog reads and writes.
type Store interface {
	UpsertQuestions(ctx context.Context, questions []models.Question) error
	ListQuestions(ctx context.Context) ([]models.Question, error)
	QuestionsByKeys(ctx context.Context, keys []string) ([]models.Question, error)
}

// QuestionSet is the active question list and where it came from.
type QuestionSet struct {
	Questions []models.Question `json:"questions"`
	Source    string            `json:"source"`
}

// Catalog caches question definitions by key.
type Catalog struct {
	store Store
	cache *lru.Cache[string, models.Question]
}

func New(store Store) (*Catalog, error) {
	cache, err := lru.New[string, models.Question](constants.CatalogCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create catalog cache: %w", err)
	}
	return &Catalog{store: store, cache: cache}, nil
}

// Lookup returns the known questions among keys. Unknown keys are omitted.
func (c *Catalog) Lookup(ctx context.Context, keys []string) (map[string]models.Question, error) {
	found := make(map[string]models.Question, len(keys))
	var missing []string
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		if q, ok := c.cache.Get(key); ok {
			found[key] = q
			continue
		}
		missing = append(missing, key)
	}
	if len(missing) == 0 {
		return found, nil
	}

	questions, err := c.store.QuestionsByKeys(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, q := range questions {
		c.cache.Add(q.Key, q)
		found[q.Key] = q
	}
	return found, nil
}

// ResolveKeysToIDs maps each known key to its question id.
func (c *Catalog) ResolveKeysToIDs(ctx context.Context, keys []string) (map[string]string, error) {
	questions, err := c.Lookup(ctx, keys)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(questions))
	for key, q := range questions {
		ids[key] = q.ID
	}
	return ids, nil
}

// QuestionIDs returns the ids of the known keys in input order.
func (c *Catalog) QuestionIDs(ctx context.Context, keys []string) ([]string, error) {
	resolved, err := c.ResolveKeysToIDs(ctx, keys)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resolved))
	for _, key := range keys {
		if id, ok := resolved[key]; ok {
			ids = append(ids, id)
			delete(resolved, key)
		}
	}
	return ids, nil
}

// QuestionType reports the catalog type of key; ok is false for unknown keys.
func (c *Catalog) QuestionType(ctx context.Context, key string) (models.QuestionType, bool, error) {
	questions, err := c.Lookup(ctx, []string{key})
	if err != nil {
		return "", false, err
	}
	q, ok := questions[key]
	if !ok {
		return "", false, nil
	}
	return q.Type, true, nil
}

// Questions returns the active question set ordered by display order. An
// empty catalog falls back to the embedded defaults.
func (c *Catalog) Questions(ctx context.Context) (QuestionSet, error) {
	questions, err := c.store.ListQuestions(ctx)
	if err != nil {
		return QuestionSet{}, err
	}
	if len(questions) > 0 {
		return QuestionSet{Questions: questions, Source: SourceDatabase}, nil
	}

	defaults, err := Defaults()
	if err != nil {
		return QuestionSet{}, err
	}
	for i := range defaults {
		defaults[i].ID = strconv.Itoa(i + 1)
	}
	return QuestionSet{Questions: defaults, Source: SourceSchemaFallback}, nil
}

// TextualQuestionIDs returns the ids of every text and date question.
func (c *Catalog) TextualQuestionIDs(ctx context.Context) ([]string, error) {
	questions, err := c.store.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, q := range questions {
		if q.Type.IsTextual() {
			ids = append(ids, q.ID)
		}
	}
	return ids, nil
}

// Seed writes the embedded default question set.
func (c *Catalog) Seed(ctx context.Context) error {
	defaults, err := Defaults()
	if err != nil {
		return err
	}
	return c.Import(ctx, defaults)
}

// Import validates questions and upserts them by key. The cache is purged so
// type and wording changes are visible immediately.
func (c *Catalog) Import(ctx context.Context, questions []models.Question) error {
	result := validation.New().ValidateQuestions(questions)
	if result.HasConflicts() {
		return &result
	}

	if err := c.store.UpsertQuestions(ctx, questions); err != nil {
		return err
	}
	c.cache.Purge()
	logger.Info("Question catalog updated", "count", len(questions))
	return nil
}

type questionFile struct {
	Questions []models.Question `yaml:"questions"`
}

// Parse decodes a YAML question file.
func Parse(r io.Reader) ([]models.Question, error) {
	var file questionFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse question file: %w", err)
	}
	return file.Questions, nil
}

// Defaults returns a fresh copy of the embedded default question set.
func Defaults() ([]models.Question, error) {
	return Parse(bytes.NewReader(defaultQuestionsYAML))
}
