package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formembed/pkg/model"
)

const leadsDocument = `openapi: 3.0.3
info:
  title: Leads
  version: 1.0.0
paths:
  /leads:
    get:
      operationId: listLeads
      responses:
        "200":
          description: ok
    post:
      operationId: createLead
      summary: Talk to sales
      description: <p>We reply within a day.</p>
      x-formembed-submit-label: Send
      x-formembed-success-message: Thanks, we will be in touch.
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Lead'
      responses:
        "201":
          description: created
  /leads/{id}:
    patch:
      x-formembed-skip: true
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Lead'
      responses:
        "200":
          description: ok
  /ping:
    post:
      operationId: ping
      responses:
        "204":
          description: ok
components:
  schemas:
    Lead:
      type: object
      required: [name, email]
      properties:
        id:
          type: string
          readOnly: true
        name:
          type: string
          title: Full name
          minLength: 2
          maxLength: 80
        email:
          type: string
          format: email
        company_size:
          type: integer
          minimum: 1
          maximum: 10000
        topic:
          type: string
          enum: [pricing, support]
          x-formembed-option-labels:
            pricing: Pricing
        channels:
          type: array
          items:
            type: string
            enum: [email, phone]
        message:
          type: string
          maxLength: 2000
        newsletter:
          type: boolean
          description: Occasional product news.
        start:
          type: string
          format: date
        deck:
          type: string
          format: binary
        phone:
          type: string
          x-formembed-placeholder: +1 555 0100
          pattern: '^[0-9 +()-]+$'
        address:
          type: object
          properties:
            city:
              type: string
`

func TestParseBuildsFormsFromRequestBodies(t *testing.T) {
	result, err := New(Options{Publish: true}).Parse(context.Background(), []byte(leadsDocument))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := []model.FormDefinition{{
		ID:             "createlead",
		Title:          "Talk to sales",
		Description:    "<p>We reply within a day.</p>",
		SubmitLabel:    "Send",
		SuccessMessage: "Thanks, we will be in touch.",
		Published:      true,
		Fields: []model.FieldDefinition{
			{Name: "name", Label: "Full name", Kind: model.KindShortText, Required: true,
				Validations: []model.ValidationRule{model.MinLength(2), model.MaxLength(80)}},
			{Name: "email", Kind: model.KindEmail, Required: true},
			{Name: "channels", Kind: model.KindMultiSelect,
				Options: []model.Option{{Value: "email"}, {Value: "phone"}}},
			{Name: "company_size", Kind: model.KindNumber,
				Validations: []model.ValidationRule{model.Min(1), model.Max(10000)}},
			{Name: "deck", Kind: model.KindFile},
			{Name: "message", Kind: model.KindLongText,
				Validations: []model.ValidationRule{model.MaxLength(2000)}},
			{Name: "newsletter", Kind: model.KindCheckbox, Help: "Occasional product news."},
			{Name: "phone", Kind: model.KindShortText, Placeholder: "+1 555 0100",
				Validations: []model.ValidationRule{model.Pattern("^[0-9 +()-]+$")}},
			{Name: "start", Kind: model.KindDate},
			{Name: "topic", Kind: model.KindSingleSelect,
				Options: []model.Option{{Value: "pricing", Label: "Pricing"}, {Value: "support"}}},
		},
	}}
	if diff := cmp.Diff(want, result.Forms); diff != "" {
		t.Fatalf("forms mismatch (-want +got):\n%s", diff)
	}

	wantSkipped := []Skip{
		{Operation: "patch /leads/{id}", Reason: "marked x-formembed-skip"},
		{Operation: "ping", Reason: "operation has no request body"},
	}
	if diff := cmp.Diff(wantSkipped, result.Skipped); diff != "" {
		t.Fatalf("skipped mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDerivesIDsFromMethodAndPath(t *testing.T) {
	doc := `{
  "openapi": "3.0.3",
  "info": {"title": "t", "version": "1"},
  "paths": {
    "/api/v1/newsletter": {
      "put": {
        "requestBody": {"content": {"application/x-www-form-urlencoded": {"schema": {
          "type": "object",
          "properties": {"email": {"type": "string", "format": "email"}}
        }}}},
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`
	result, err := New(Options{}).Parse(context.Background(), []byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(result.Forms) != 1 {
		t.Fatalf("expected one form, got %+v", result)
	}
	form := result.Forms[0]
	if form.ID != "put-api-v1-newsletter" {
		t.Fatalf("unexpected id %q", form.ID)
	}
	if form.Title != "Put Api V1 Newsletter" {
		t.Fatalf("unexpected title %q", form.Title)
	}
	if form.Published {
		t.Fatalf("forms must stay unpublished unless requested")
	}
}

func TestParseHonoursOperationFilter(t *testing.T) {
	result, err := New(Options{Operations: []string{"ping"}}).Parse(context.Background(), []byte(leadsDocument))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(result.Forms) != 0 || len(result.Skipped) != 1 {
		t.Fatalf("expected only ping to be considered, got %+v", result)
	}
}

func TestParseKindOverride(t *testing.T) {
	doc := strings.Replace(leadsDocument, "          maxLength: 2000\n", "          x-formembed-kind: short-text\n", 1)
	result, err := New(Options{}).Parse(context.Background(), []byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	field, ok := result.Forms[0].Field("message")
	if !ok || field.Kind != model.KindShortText {
		t.Fatalf("expected override to short-text, got %+v", field)
	}
}

func TestParseRejectsEmptyAndInvalidDocuments(t *testing.T) {
	p := New(Options{})
	if _, err := p.Parse(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	if _, err := p.Parse(context.Background(), []byte("{not json")); err == nil {
		t.Fatalf("expected load error")
	}
	noPaths := `{"openapi":"3.0.3","info":{"title":"t","version":"1"},"paths":{}}`
	if _, err := p.Parse(context.Background(), []byte(noPaths)); err == nil {
		t.Fatalf("expected error for a document without paths")
	}
}

func TestParseHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Options{}).Parse(ctx, []byte(leadsDocument)); err == nil {
		t.Fatalf("expected context error")
	}
}
