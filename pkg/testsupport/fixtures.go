package testsupport

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/goliatone/go-formembed/pkg/model"
)

// ContactFormID is the id of the single-field contact fixture.
const ContactFormID = "f1"

// ContactForm is the smallest embeddable form: one required short-text
// field labelled "Name".
func ContactForm() model.FormDefinition {
	return model.FormDefinition{
		ID:        ContactFormID,
		Title:     "Contact us",
		Published: true,
		Fields: []model.FieldDefinition{
			{Name: "name", Label: "Name", Kind: model.KindShortText, Required: true},
		},
	}
}

// SurveyFormID identifies SurveyForm.
const SurveyFormID = "7c1f7a1e-5d7b-4f7e-9f43-3b1c4d2a9e10"

// SurveyForm declares one field of every kind with representative
// constraints.
func SurveyForm() model.FormDefinition {
	return model.FormDefinition{
		ID:          SurveyFormID,
		Title:       "Product survey",
		Description: "Tell us how we are doing.",
		Published:   true,
		SubmitLabel: "Send",
		Fields: []model.FieldDefinition{
			{Name: "name", Label: "Name", Kind: model.KindShortText, Required: true, Validations: []model.ValidationRule{model.MaxLength(80)}},
			{Name: "email", Label: "Email", Kind: model.KindEmail, Required: true, Placeholder: "you@example.com"},
			{Name: "seats", Label: "Seats", Kind: model.KindNumber, Validations: []model.ValidationRule{model.Min(1), model.Max(500)}},
			{Name: "feedback", Label: "Feedback", Kind: model.KindLongText, Help: "At least ten characters.", Validations: []model.ValidationRule{model.MinLength(10), model.MaxLength(2000)}},
			{Name: "plan", Label: "Plan", Kind: model.KindSingleSelect, Options: []model.Option{{Value: "free", Label: "Free"}, {Value: "pro", Label: "Pro"}}},
			{Name: "channels", Label: "Channels", Kind: model.KindMultiSelect, Options: []model.Option{{Value: "email", Label: "Email"}, {Value: "phone", Label: "Phone"}}},
			{Name: "newsletter", Label: "Subscribe to the newsletter", Kind: model.KindCheckbox},
			{Name: "start", Label: "Start date", Kind: model.KindDate},
			{Name: "attachment", Label: "Attachment", Kind: model.KindFile},
		},
	}
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput runs a render function that writes to an io.Writer
// and returns both the returned string and what was written.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
