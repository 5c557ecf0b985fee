package tui

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formembed/pkg/model"
	"github.com/goliatone/go-formembed/pkg/render"
	"github.com/goliatone/go-formembed/pkg/testsupport"
)

func TestTextRendererReadyView(t *testing.T) {
	def := testsupport.ContactForm()
	def.Description = "<p>We reply <strong>fast</strong> &amp; kindly.</p>"
	view := model.View{
		FormID:      def.ID,
		State:       model.StateReady,
		Definition:  &def,
		Values:      map[string]any{"name": ""},
		FieldErrors: map[string][]string{"name": {"Name is required"}},
		Error:       "Please correct the highlighted fields.",
	}

	out, err := NewTextRenderer().Render(testsupport.Context(), view, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := strings.Join([]string{
		"[ready] f1",
		"Contact us",
		"We reply fast & kindly.",
		"  Name *: ",
		"    ! Name is required",
		"! Please correct the highlighted fields.",
		"",
	}, "\n")
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("unexpected output (-want +got):\n%s", diff)
	}
}

func TestTextRendererStates(t *testing.T) {
	def := testsupport.SurveyForm()
	renderer := NewTextRenderer()

	cases := []struct {
		name string
		view model.View
		want string
	}{
		{"loading", model.View{FormID: "f1", State: model.StateLoading}, "Loading form..."},
		{"error", model.View{FormID: "f1", State: model.StateError, Error: "offline", Retryable: true}, "(retry available)"},
		{"submitted", model.View{FormID: def.ID, State: model.StateSubmitted, Definition: &def, Notice: "Thanks!"}, "Thanks!"},
		{"options", model.View{FormID: def.ID, State: model.StateSubmitting, Definition: &def, Values: map[string]any{
			"plan": "pro", "channels": []string{"email", "phone"}, "newsletter": true,
		}}, "Channels: Email, Phone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := renderer.Render(testsupport.Context(), tc.view, render.RenderOptions{})
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if !strings.Contains(string(out), tc.want) {
				t.Fatalf("expected %q in\n%s", tc.want, out)
			}
		})
	}
	if renderer.Name() != "text" || renderer.ContentType() != "text/plain; charset=utf-8" {
		t.Fatalf("unexpected metadata %s %s", renderer.Name(), renderer.ContentType())
	}
}
