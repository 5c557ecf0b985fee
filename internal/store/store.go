// Package store defines persistence for form definitions and accepted
// submissions. Adapters live in the memory and sqlite subpackages.
package store

import (
	"context"
	"errors"

	"github.com/goliatone/go-formembed/pkg/model"
)

// ErrNotFound indicates a requested entity does not exist.
var ErrNotFound = errors.New("store: not found")

// Forms persists form definitions keyed by id.
type Forms interface {
	Get(ctx context.Context, id string) (model.FormDefinition, error)
	List(ctx context.Context) ([]model.FormDefinition, error)
	Put(ctx context.Context, def model.FormDefinition) error
	Delete(ctx context.Context, id string) error
}

// Submissions persists accepted submissions.
type Submissions interface {
	Save(ctx context.Context, sub model.Submission) error
	ListByForm(ctx context.Context, formID string) ([]model.Submission, error)
}

// Store groups the repositories behind one backend.
type Store interface {
	Forms() Forms
	Submissions() Submissions
	Close() error
}
