package testsupport

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/goliatone/go-formembed/pkg/client"
	"github.com/goliatone/go-formembed/pkg/model"
)

// Post is one recorded submission.
type Post struct {
	FormID string
	Values map[string]any
}

// FakeAPI is an in-memory forms API that records every call. It satisfies
// widget.API. Unknown or unpublished ids resolve like a 404.
type FakeAPI struct {
	mu sync.Mutex

	definitions   map[string]model.FormDefinition
	definitionErr error
	submitErrs    []error
	gate          chan struct{}

	gets  []string
	posts []Post
}

// NewFakeAPI serves the given definitions.
func NewFakeAPI(defs ...model.FormDefinition) *FakeAPI {
	api := &FakeAPI{definitions: make(map[string]model.FormDefinition, len(defs))}
	for _, def := range defs {
		api.definitions[def.ID] = def.Clone()
	}
	return api
}

// FailDefinitions makes every definition fetch return err.
func (f *FakeAPI) FailDefinitions(err error) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.definitionErr = err
	return f
}

// FailNextSubmits queues errors returned by the next submissions, in order.
func (f *FakeAPI) FailNextSubmits(errs ...error) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitErrs = append(f.submitErrs, errs...)
	return f
}

// Hold makes every call block until Release is called.
func (f *FakeAPI) Hold() *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f
}

// Release unblocks calls parked by Hold.
func (f *FakeAPI) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

func (f *FakeAPI) GetDefinition(ctx context.Context, formID string) (model.FormDefinition, error) {
	f.mu.Lock()
	f.gets = append(f.gets, formID)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.definitionErr != nil {
		return model.FormDefinition{}, f.definitionErr
	}
	def, ok := f.definitions[formID]
	if !ok || !def.Published {
		return model.FormDefinition{}, &client.ResolutionError{Status: http.StatusNotFound, Message: "Form not found"}
	}
	return def.Clone(), nil
}

func (f *FakeAPI) Submit(ctx context.Context, formID string, values map[string]any) (client.Receipt, error) {
	f.mu.Lock()
	f.posts = append(f.posts, Post{FormID: formID, Values: model.CloneValues(values)})
	n := len(f.posts)
	gate := f.gate
	var err error
	if len(f.submitErrs) > 0 {
		err = f.submitErrs[0]
		f.submitErrs = f.submitErrs[1:]
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return client.Receipt{}, err
	}
	return client.Receipt{ID: fmt.Sprintf("sub-%d", n)}, nil
}

// Gets returns the ids requested so far.
func (f *FakeAPI) Gets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.gets...)
}

// Posts returns the submissions received so far.
func (f *FakeAPI) Posts() []Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Post(nil), f.posts...)
}
