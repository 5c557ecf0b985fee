package model_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formembed/pkg/model"
)

func sampleDefinition() model.FormDefinition {
	return model.FormDefinition{
		ID:    "f1",
		Title: "Contact",
		Fields: []model.FieldDefinition{
			{Name: "name", Label: "Name", Kind: model.KindShortText, Required: true},
			{Name: "topics", Label: "Topics", Kind: model.KindMultiSelect, Options: []model.Option{{Value: "a"}, {Value: "b"}}},
			{Name: "consent", Label: "Consent", Kind: model.KindCheckbox},
		},
	}
}

func TestNewDraftSeedsEveryField(t *testing.T) {
	draft := model.NewDraft(sampleDefinition())

	want := map[string]any{
		"name":    "",
		"topics":  []string{},
		"consent": false,
	}
	if diff := cmp.Diff(want, draft.Values()); diff != "" {
		t.Fatalf("seeded draft mismatch (-want +got):\n%s", diff)
	}
}

func TestDraftSetNormalisesByKind(t *testing.T) {
	def := sampleDefinition()
	draft := model.NewDraft(def)

	if err := draft.Set(def, "name", "Ada"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	if err := draft.Set(def, "topics", []any{"a", "b"}); err != nil {
		t.Fatalf("set topics: %v", err)
	}
	if err := draft.Set(def, "consent", "on"); err != nil {
		t.Fatalf("set consent: %v", err)
	}

	want := map[string]any{
		"name":    "Ada",
		"topics":  []string{"a", "b"},
		"consent": true,
	}
	if diff := cmp.Diff(want, draft.Values()); diff != "" {
		t.Fatalf("draft mismatch (-want +got):\n%s", diff)
	}
}

func TestDraftRejectsUnknownFieldsAndBadValues(t *testing.T) {
	def := sampleDefinition()
	draft := model.NewDraft(def)

	if err := draft.Set(def, "missing", "x"); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if err := draft.Set(def, "consent", "perhaps"); err == nil {
		t.Fatalf("expected boolean parse error")
	}
	if got := draft.String("name"); got != "" {
		t.Fatalf("failed sets must not mutate the draft, got %q", got)
	}
}

func TestDraftValuesAreCopies(t *testing.T) {
	def := sampleDefinition()
	draft := model.NewDraft(def)
	_ = draft.Set(def, "topics", []string{"a"})

	values := draft.Values()
	values["topics"].([]string)[0] = "mutated"

	got, _ := draft.Get("topics")
	if diff := cmp.Diff([]string{"a"}, got); diff != "" {
		t.Fatalf("draft mutated through copy (-want +got):\n%s", diff)
	}
}

func TestDefinitionCloneIsDeep(t *testing.T) {
	def := sampleDefinition()
	def.Fields[0].Validations = []model.ValidationRule{model.MaxLength(10)}

	clone := def.Clone()
	clone.Fields[0].Validations[0].Params["value"] = "99"
	clone.Fields[1].Options[0].Value = "z"

	if def.Fields[0].Validations[0].Params["value"] != "10" {
		t.Fatalf("rule params shared with clone")
	}
	if def.Fields[1].Options[0].Value != "a" {
		t.Fatalf("options shared with clone")
	}
}

func TestFieldKindValid(t *testing.T) {
	for _, kind := range model.Kinds() {
		if !kind.Valid() {
			t.Fatalf("kind %q should be valid", kind)
		}
	}
	if model.FieldKind("color").Valid() {
		t.Fatalf("unexpected valid kind")
	}
}

func TestDisplayLabelFallsBackToHumanizedName(t *testing.T) {
	cases := map[string]string{
		"first_name":   "First Name",
		"company-size": "Company Size",
		"email":        "Email",
	}
	for name, want := range cases {
		got := model.FieldDefinition{Name: name}.DisplayLabel()
		if got != want {
			t.Fatalf("DisplayLabel(%q) = %q, want %q", name, got, want)
		}
	}
}
