// Package memory is an in-process store used by tests and by "serve"
// when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formembed/internal/store"
	"github.com/goliatone/go-formembed/pkg/model"
)

// Store keeps everything in maps guarded by one RWMutex.
type Store struct {
	mu          sync.RWMutex
	forms       map[string]model.FormDefinition
	submissions map[string][]model.Submission
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		forms:       make(map[string]model.FormDefinition),
		submissions: make(map[string][]model.Submission),
	}
}

func (s *Store) Forms() store.Forms             { return formRepo{s} }
func (s *Store) Submissions() store.Submissions { return submissionRepo{s} }
func (s *Store) Close() error                   { return nil }

type formRepo struct{ s *Store }

func (r formRepo) Get(_ context.Context, id string) (model.FormDefinition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	def, ok := r.s.forms[id]
	if !ok {
		return model.FormDefinition{}, fmt.Errorf("form %q: %w", id, store.ErrNotFound)
	}
	return def.Clone(), nil
}

func (r formRepo) List(_ context.Context) ([]model.FormDefinition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.FormDefinition, 0, len(r.s.forms))
	for _, def := range r.s.forms {
		out = append(out, def.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r formRepo) Put(_ context.Context, def model.FormDefinition) error {
	if strings.TrimSpace(def.ID) == "" {
		return fmt.Errorf("memory: form id is required")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.forms[def.ID] = def.Clone()
	return nil
}

func (r formRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.forms[id]; !ok {
		return fmt.Errorf("form %q: %w", id, store.ErrNotFound)
	}
	delete(r.s.forms, id)
	return nil
}

type submissionRepo struct{ s *Store }

func (r submissionRepo) Save(_ context.Context, sub model.Submission) error {
	if sub.ID == "" || sub.FormID == "" {
		return fmt.Errorf("memory: submission id and form id are required")
	}
	sub.Values = model.CloneValues(sub.Values)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.submissions[sub.FormID] = append(r.s.submissions[sub.FormID], sub)
	return nil
}

func (r submissionRepo) ListByForm(_ context.Context, formID string) ([]model.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	subs := r.s.submissions[formID]
	out := make([]model.Submission, 0, len(subs))
	for _, sub := range subs {
		sub.Values = model.CloneValues(sub.Values)
		out = append(out, sub)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
