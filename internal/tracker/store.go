package tracker

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"

	"github.com/sirupsen/logrus"
)

// PersistedStore reads and writes one tracker document slot.
type PersistedStore struct {
	repo     repository.DocumentRepository
	key      string
	fallback func() domain.Document
}

// NewPersistedStore binds a store to the slot key. fallback supplies the
// document used when the slot is empty or its contents cannot be decoded.
func NewPersistedStore(repo repository.DocumentRepository, key string, fallback func() domain.Document) *PersistedStore {
	if fallback == nil {
		fallback = EmptyDocument
	}
	return &PersistedStore{
		repo:     repo,
		key:      key,
		fallback: fallback,
	}
}

// Key returns the slot key.
func (s *PersistedStore) Key() string {
	return s.key
}

// Load returns the stored document, or the fallback when the slot is absent
// or corrupt. Any other read error is returned; the slot may still hold data
// that a fallback would later overwrite.
func (s *PersistedStore) Load(ctx context.Context) (domain.Document, error) {
	doc, err := s.repo.Get(ctx, s.key)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		logrus.WithField("key", s.key).Debug("tracker document not found, using default")
		return s.fallback(), nil
	case errors.Is(err, repository.ErrCorrupt):
		logrus.WithError(err).WithField("key", s.key).Warn("tracker document is corrupt, using default")
		return s.fallback(), nil
	case err != nil:
		return domain.Document{}, fmt.Errorf("load tracker document %s: %w", s.key, err)
	case doc == nil:
		return s.fallback(), nil
	}
	return normalize(*doc), nil
}

// Save writes the document through to the slot.
func (s *PersistedStore) Save(ctx context.Context, doc domain.Document) error {
	if err := s.repo.Put(ctx, s.key, &doc); err != nil {
		return fmt.Errorf("save tracker document %s: %w", s.key, err)
	}
	return nil
}

// EmptyDocument returns a document without days.
func EmptyDocument() domain.Document {
	return domain.Document{
		Days:      []domain.Day{},
		Series:    []domain.Series{},
		Exercises: []domain.Exercise{},
	}
}

// normalize replaces nil slices left by decoding so the document always
// serializes with empty lists.
func normalize(doc domain.Document) domain.Document {
	if doc.Days == nil {
		doc.Days = []domain.Day{}
	}
	if doc.Series == nil {
		doc.Series = []domain.Series{}
	}
	if doc.Exercises == nil {
		doc.Exercises = []domain.Exercise{}
	}
	for i := range doc.Days {
		if doc.Days[i].SeriesIDs == nil {
			doc.Days[i].SeriesIDs = []string{}
		}
	}
	for i := range doc.Series {
		if doc.Series[i].ExerciseIDs == nil {
			doc.Series[i].ExerciseIDs = []string{}
		}
	}
	return doc
}
