// Package widget implements the host-agnostic embeddable form widget: the
// loading / error / ready / submitting / submitted state machine, the
// in-memory submission draft, client-side validation and the two network
// suspend points (definition fetch and submission POST).
//
// Hosts (the DOM host in pkg/dom, the terminal host in pkg/renderers/tui)
// call Attach when their element or session starts, forward user edits
// through SetValue, trigger Submit, and call Detach on teardown. Every state
// change is delivered to the configured Observer as an immutable model.View.
package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formembed/pkg/client"
	"github.com/goliatone/go-formembed/pkg/model"
	"github.com/goliatone/go-formembed/pkg/render"
	"github.com/goliatone/go-formembed/pkg/validation"
)

// User-facing messages rendered into the widget subtree.
const (
	MessageMissingFormID = "Form ID is required"
	MessageFormNotFound  = "Form not found"
	MessageNetwork       = "We couldn't reach the form service. Please try again."
	MessageInvalid       = "Please correct the highlighted fields."
	MessageSubmitted     = "Thank you! Your response has been recorded."
)

var (
	ErrMissingFormID  = errors.New("widget: form id is required")
	ErrNotAttached    = errors.New("widget: not attached")
	ErrAttached       = errors.New("widget: already attached")
	ErrNotReady       = errors.New("widget: form is not ready")
	ErrSubmitInFlight = errors.New("widget: submission already in flight")
	ErrNotRetryable   = errors.New("widget: nothing to retry")
)

// API is the public forms API as seen by the widget. *client.Client
// satisfies it.
type API interface {
	GetDefinition(ctx context.Context, formID string) (model.FormDefinition, error)
	Submit(ctx context.Context, formID string, values map[string]any) (client.Receipt, error)
}

// Observer receives a snapshot after every transition. Observers run
// sequentially in transition order and must not call SetValue, Submit,
// Retry, Attach or Detach on the same widget.
type Observer func(model.View)

// Widget is one mounted form instance. It is safe for concurrent use; all
// transitions are serialised.
type Widget struct {
	api      API
	logger   *zap.Logger
	observer Observer
	timeout  time.Duration

	mu          sync.Mutex
	notifyMu    sync.Mutex
	wg          sync.WaitGroup
	attached    bool
	generation  uint64
	formID      string
	state       model.WidgetState
	def         *model.FormDefinition
	draft       *model.Draft
	fieldErrors map[string][]string
	message     string
	notice      string
	retryable   bool
	receiptID   string
}

// New constructs a detached widget bound to api.
func New(api API, opts ...Option) *Widget {
	w := &Widget{
		api:     api,
		logger:  zap.NewNop(),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Attach starts a fresh lifecycle for formID. A blank id moves the widget to
// the error state synchronously without touching the network and returns
// ErrMissingFormID. Otherwise the widget enters loading and issues exactly one
// definition fetch in the background.
func (w *Widget) Attach(ctx context.Context, formID string) error {
	w.mu.Lock()
	if w.attached {
		w.mu.Unlock()
		return ErrAttached
	}
	w.attached = true
	w.generation++
	w.reset()
	w.formID = strings.TrimSpace(formID)

	if w.formID == "" {
		w.state = model.StateError
		w.message = MessageMissingFormID
		w.logger.Debug("widget attach without form id")
		w.commit()
		return ErrMissingFormID
	}

	w.state = model.StateLoading
	w.startLoad(ctx)
	w.commit()
	return nil
}

// Detach releases the widget from its host. Responses still in flight are
// discarded when they arrive; nothing is cancelled.
func (w *Widget) Detach() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.attached {
		return
	}
	w.attached = false
	w.generation++
	w.logger.Debug("widget detached", zap.String("form_id", w.formID))
	w.reset()
	w.formID = ""
}

// Retry re-issues the definition fetch after a retryable load failure.
func (w *Widget) Retry(ctx context.Context) error {
	w.mu.Lock()
	if !w.attached {
		w.mu.Unlock()
		return ErrNotAttached
	}
	if w.state != model.StateError || !w.retryable || w.formID == "" {
		w.mu.Unlock()
		return ErrNotRetryable
	}
	w.state = model.StateLoading
	w.message = ""
	w.retryable = false
	w.startLoad(ctx)
	w.commit()
	return nil
}

// SetValue records a user edit in the draft. It never touches the network.
func (w *Widget) SetValue(name string, value any) error {
	w.mu.Lock()
	if err := w.editableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if err := w.draft.Set(*w.def, name, value); err != nil {
		w.mu.Unlock()
		return fmt.Errorf("widget: %w", err)
	}
	if _, ok := w.fieldErrors[name]; ok {
		delete(w.fieldErrors, name)
		if len(w.fieldErrors) == 0 {
			w.message = ""
		}
	}
	w.commit()
	return nil
}

// Submit validates the whole draft. Violations keep the widget ready, are
// rendered per field and returned as *validation.Error without any network
// call. A valid draft moves the widget to submitting and posts it once.
func (w *Widget) Submit(ctx context.Context) error {
	w.mu.Lock()
	if err := w.editableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}

	values := w.draft.Values()
	result := validation.Validate(*w.def, values)
	if !result.Valid() {
		w.fieldErrors = result.FieldErrors()
		w.message = MessageInvalid
		w.logger.Debug("widget submission blocked",
			zap.String("form_id", w.formID),
			zap.Int("issues", len(result.Issues)),
		)
		w.commit()
		return result.Err()
	}

	if ctx == nil {
		ctx = context.Background()
	}
	w.state = model.StateSubmitting
	w.fieldErrors = nil
	w.message = ""
	gen := w.generation
	formID := w.formID
	w.wg.Add(1)
	go w.submit(context.WithoutCancel(ctx), gen, formID, values)
	w.commit()
	return nil
}

// Wait blocks until every network operation started so far has completed
// and its outcome has been applied or discarded.
func (w *Widget) Wait() {
	w.wg.Wait()
}

// View returns a snapshot of the current state.
func (w *Widget) View() model.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// State is shorthand for View().State.
func (w *Widget) State() model.WidgetState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Widget) editableLocked() error {
	switch {
	case !w.attached:
		return ErrNotAttached
	case w.state == model.StateSubmitting:
		return ErrSubmitInFlight
	case w.state != model.StateReady:
		return ErrNotReady
	}
	return nil
}

func (w *Widget) startLoad(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	gen := w.generation
	formID := w.formID
	w.wg.Add(1)
	go w.load(context.WithoutCancel(ctx), gen, formID)
}

func (w *Widget) load(ctx context.Context, gen uint64, formID string) {
	defer w.wg.Done()

	def, err := w.fetch(ctx, formID)

	w.mu.Lock()
	if !w.currentLocked(gen) {
		w.mu.Unlock()
		w.logger.Debug("widget discarded definition response", zap.String("form_id", formID))
		return
	}

	if err != nil {
		w.state = model.StateError
		w.message, w.retryable = loadFailureMessage(err)
		w.logger.Info("widget load failed", zap.String("form_id", formID), zap.Error(err))
		w.commit()
		return
	}

	clone := def.Clone()
	w.def = &clone
	w.draft = model.NewDraft(clone)
	w.state = model.StateReady
	w.logger.Debug("widget ready", zap.String("form_id", formID), zap.Int("fields", len(clone.Fields)))
	w.commit()
}

func (w *Widget) fetch(ctx context.Context, formID string) (model.FormDefinition, error) {
	if w.api == nil {
		return model.FormDefinition{}, fmt.Errorf("widget: api is not configured: %w", client.ErrNetwork)
	}
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	def, err := w.api.GetDefinition(ctx, formID)
	if err != nil {
		return model.FormDefinition{}, err
	}
	if issues := validation.CheckDefinition(def); len(issues) > 0 {
		return model.FormDefinition{}, &InvalidDefinitionError{FormID: formID, Issues: issues}
	}
	return def, nil
}

func (w *Widget) submit(ctx context.Context, gen uint64, formID string, values map[string]any) {
	defer w.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	receipt, err := w.api.Submit(ctx, formID, values)
	cancel()

	w.mu.Lock()
	if !w.currentLocked(gen) {
		w.mu.Unlock()
		w.logger.Debug("widget discarded submission response", zap.String("form_id", formID))
		return
	}

	if err == nil {
		w.state = model.StateSubmitted
		w.receiptID = receipt.ID
		w.notice = MessageSubmitted
		if w.def != nil && strings.TrimSpace(w.def.SuccessMessage) != "" {
			w.notice = w.def.SuccessMessage
		}
		w.draft = nil
		w.logger.Info("widget submitted", zap.String("form_id", formID), zap.String("submission_id", receipt.ID))
		w.commit()
		return
	}

	w.state = model.StateReady
	var rejected *client.RejectedError
	switch {
	case errors.As(err, &rejected):
		mapping := render.MapErrorPayload(*w.def, rejected.Fields)
		w.fieldErrors = mapping.Fields
		w.message = firstNonEmpty(rejected.Message, strings.Join(mapping.Form, " "), MessageInvalid)
	case errors.Is(err, client.ErrFormNotFound):
		w.message = resolutionMessage(err)
	default:
		w.message = MessageNetwork
	}
	w.logger.Info("widget submission failed", zap.String("form_id", formID), zap.Error(err))
	w.commit()
}

func (w *Widget) currentLocked(gen uint64) bool {
	return w.attached && w.generation == gen
}

func (w *Widget) reset() {
	w.state = ""
	w.def = nil
	w.draft = nil
	w.fieldErrors = nil
	w.message = ""
	w.notice = ""
	w.retryable = false
	w.receiptID = ""
}

// commit publishes the current snapshot and releases w.mu. notifyMu is taken
// before w.mu is released so observers see transitions in order.
func (w *Widget) commit() {
	view := w.snapshotLocked()
	observer := w.observer
	w.notifyMu.Lock()
	w.mu.Unlock()
	defer w.notifyMu.Unlock()
	if observer != nil {
		observer(view)
	}
}

func (w *Widget) snapshotLocked() model.View {
	view := model.View{
		FormID:       w.formID,
		State:        w.state,
		Definition:   w.def,
		Error:        w.message,
		Retryable:    w.retryable,
		Notice:       w.notice,
		SubmissionID: w.receiptID,
	}
	if w.draft != nil {
		view.Values = w.draft.Values()
	}
	if len(w.fieldErrors) > 0 {
		view.FieldErrors = make(map[string][]string, len(w.fieldErrors))
		for name, messages := range w.fieldErrors {
			view.FieldErrors[name] = append([]string(nil), messages...)
		}
	}
	return view
}

func loadFailureMessage(err error) (string, bool) {
	var invalid *InvalidDefinitionError
	switch {
	case errors.Is(err, client.ErrFormNotFound):
		return resolutionMessage(err), false
	case errors.As(err, &invalid):
		return MessageFormNotFound, false
	default:
		return MessageNetwork, true
	}
}

func resolutionMessage(err error) string {
	var resolution *client.ResolutionError
	if errors.As(err, &resolution) && strings.TrimSpace(resolution.Message) != "" {
		return resolution.Message
	}
	return MessageFormNotFound
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
