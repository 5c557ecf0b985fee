package model

// WidgetState is the lifecycle phase of a mounted widget.
type WidgetState string

const (
	StateLoading    WidgetState = "loading"
	StateError      WidgetState = "error"
	StateReady      WidgetState = "ready"
	StateSubmitting WidgetState = "submitting"
	StateSubmitted  WidgetState = "submitted"
)

// Terminal reports whether the state only changes through detach/re-attach
// (or an explicit retry for load errors).
func (s WidgetState) Terminal() bool {
	return s == StateError || s == StateSubmitted
}

// View is an immutable snapshot of a widget handed to hosts and renderers.
type View struct {
	FormID      string              `json:"formId"`
	State       WidgetState         `json:"state"`
	Definition  *FormDefinition     `json:"definition,omitempty"`
	Values      map[string]any      `json:"values,omitempty"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
	Error       string              `json:"error,omitempty"`
	Retryable   bool                `json:"retryable,omitempty"`
	// Notice is the confirmation shown once a submission is accepted.
	Notice       string `json:"notice,omitempty"`
	SubmissionID string `json:"submissionId,omitempty"`
}

// Busy reports whether the submit affordance must be disabled.
func (v View) Busy() bool {
	return v.State == StateSubmitting
}

// ErrorsFor returns the messages attached to a field.
func (v View) ErrorsFor(name string) []string {
	if len(v.FieldErrors) == 0 {
		return nil
	}
	return v.FieldErrors[name]
}
