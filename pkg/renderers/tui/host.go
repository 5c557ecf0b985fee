package tui

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-formembed/pkg/model"
	"github.com/goliatone/go-formembed/pkg/validation"
	"github.com/goliatone/go-formembed/pkg/widget"
)

const noneOption = "(none)"

// Host drives a mounted widget from a terminal: one prompt per field,
// re-prompting until the field passes the same checks the widget applies,
// then a submit and a report of the outcome.
type Host struct {
	driver      PromptDriver
	theme       Theme
	logger      *zap.Logger
	maxAttempts int
	strip       *bluemonday.Policy
}

// NewHost constructs a terminal host with defaults (survey driver).
func NewHost(options ...Option) *Host {
	h := &Host{
		theme:       DefaultTheme,
		logger:      zap.NewNop(),
		maxAttempts: defaultMaxAttempts,
		strip:       bluemonday.StrictPolicy(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(h)
	}
	if h.driver == nil {
		h.driver = newSurveyDriver()
	}
	return h
}

// Fill waits for w to finish loading, collects every field and submits.
// The widget must already be attached. Failed submissions keep the draft;
// the user is offered another attempt with the rejected fields re-prompted.
func (h *Host) Fill(ctx context.Context, w *widget.Widget) (model.View, error) {
	if ctx == nil {
		return model.View{}, errors.New("tui: context is required")
	}
	if w == nil {
		return model.View{}, errors.New("tui: widget is required")
	}

	view, err := h.awaitReady(ctx, w)
	if err != nil {
		return view, err
	}
	def := *view.Definition
	h.introduce(ctx, def)

	pending := def.Fields
	for attempt := 1; ; attempt++ {
		for _, field := range pending {
			if err := h.promptField(ctx, w, def, field); err != nil {
				return w.View(), err
			}
		}

		err := w.Submit(ctx)
		var invalid *validation.Error
		if errors.As(err, &invalid) {
			h.reportFieldErrors(ctx, def, invalid.FieldErrors())
			pending = fieldsWithErrors(def, invalid.FieldErrors())
			continue
		}
		if err != nil {
			return w.View(), fmt.Errorf("tui: submit: %w", err)
		}

		w.Wait()
		view = w.View()
		switch view.State {
		case model.StateSubmitted:
			h.info(ctx, view.Notice)
			h.logger.Debug("submission accepted", zap.String("form_id", view.FormID), zap.String("submission_id", view.SubmissionID))
			return view, nil
		case model.StateReady:
			h.fail(ctx, view.Error)
			h.reportFieldErrors(ctx, def, view.FieldErrors)
			if attempt >= h.maxAttempts {
				return view, fmt.Errorf("%w after %d attempts: %s", ErrGaveUp, attempt, view.Error)
			}
			again, err := h.driver.Confirm(ctx, ConfirmConfig{Message: "Try again?", Default: true})
			if err != nil {
				return view, err
			}
			if !again {
				return view, ErrAborted
			}
			pending = fieldsWithErrors(def, view.FieldErrors)
		default:
			return view, fmt.Errorf("tui: unexpected widget state %s", view.State)
		}
	}
}

func (h *Host) awaitReady(ctx context.Context, w *widget.Widget) (model.View, error) {
	for {
		w.Wait()
		view := w.View()
		switch {
		case view.State == model.StateReady && view.Definition != nil:
			return view, nil
		case view.State == model.StateError && view.Retryable:
			h.fail(ctx, view.Error)
			again, err := h.driver.Confirm(ctx, ConfirmConfig{Message: "Retry loading the form?", Default: true})
			if err != nil {
				return view, err
			}
			if !again {
				return view, ErrAborted
			}
			if err := w.Retry(ctx); err != nil {
				return w.View(), fmt.Errorf("tui: retry: %w", err)
			}
		default:
			h.fail(ctx, view.Error)
			return view, fmt.Errorf("%w: %s", ErrUnavailable, view.Error)
		}
	}
}

func (h *Host) introduce(ctx context.Context, def model.FormDefinition) {
	if title := strings.TrimSpace(def.Title); title != "" {
		h.info(ctx, title)
	}
	if description := strings.TrimSpace(html.UnescapeString(h.strip.Sanitize(def.Description))); description != "" {
		h.info(ctx, description)
	}
}

func (h *Host) promptField(ctx context.Context, w *widget.Widget, def model.FormDefinition, field model.FieldDefinition) error {
	for {
		current := w.View().Values[field.Name]
		value, err := h.ask(ctx, field, current)
		if err != nil {
			return err
		}
		if messages := checkField(def, field, value); len(messages) > 0 {
			for _, message := range messages {
				h.fail(ctx, message)
			}
			continue
		}
		if err := w.SetValue(field.Name, value); err != nil {
			return fmt.Errorf("tui: field %q: %w", field.Name, err)
		}
		return nil
	}
}

func (h *Host) ask(ctx context.Context, field model.FieldDefinition, current any) (any, error) {
	label := h.theme.PromptPrefix + field.DisplayLabel()
	if field.Required {
		label += " *"
	}
	help := field.Help

	switch field.Kind {
	case model.KindCheckbox:
		checked, _ := current.(bool)
		return h.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: checked, Help: help})
	case model.KindLongText:
		return h.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: asString(current), Help: help})
	case model.KindSingleSelect:
		options := optionLabels(field)
		if !field.Required {
			options = append([]string{noneOption}, options...)
		}
		idx, err := h.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      options,
			DefaultIndex: indexOf(options, labelFor(field, asString(current))),
			Help:         help,
		})
		if err != nil {
			return nil, err
		}
		if !field.Required {
			idx--
		}
		if idx < 0 || idx >= len(field.Options) {
			return "", nil
		}
		return field.Options[idx].Value, nil
	case model.KindMultiSelect:
		options := optionLabels(field)
		selected, _ := current.([]string)
		defaults := make([]int, 0, len(selected))
		for _, value := range selected {
			if idx := indexOf(options, labelFor(field, value)); idx >= 0 {
				defaults = append(defaults, idx)
			}
		}
		indices, err := h.driver.MultiSelect(ctx, SelectConfig{Message: label, Options: options, Defaults: defaults, Help: help})
		if err != nil {
			return nil, err
		}
		values := make([]string, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(field.Options) {
				values = append(values, field.Options[idx].Value)
			}
		}
		return values, nil
	case model.KindFile:
		if help == "" {
			help = "Name of the file to attach"
		}
		return h.driver.Input(ctx, InputConfig{Message: label, Default: asString(current), Help: help})
	default:
		if help == "" && field.Placeholder != "" {
			help = "e.g. " + field.Placeholder
		}
		if field.Kind == model.KindDate && help == "" {
			help = "YYYY-MM-DD"
		}
		return h.driver.Input(ctx, InputConfig{Message: label, Default: asString(current), Help: help})
	}
}

func (h *Host) reportFieldErrors(ctx context.Context, def model.FormDefinition, errs map[string][]string) {
	for _, field := range def.Fields {
		for _, message := range errs[field.Name] {
			h.fail(ctx, message)
		}
	}
}

func (h *Host) info(ctx context.Context, msg string) {
	if strings.TrimSpace(msg) == "" {
		return
	}
	if err := h.driver.Info(ctx, h.theme.InfoPrefix+msg); err != nil {
		h.logger.Debug("terminal write failed", zap.Error(err))
	}
}

func (h *Host) fail(ctx context.Context, msg string) {
	if strings.TrimSpace(msg) == "" {
		return
	}
	if err := h.driver.Info(ctx, h.theme.ErrorPrefix+msg); err != nil {
		h.logger.Debug("terminal write failed", zap.Error(err))
	}
}

// checkField runs the widget's validator over a single field.
func checkField(def model.FormDefinition, field model.FieldDefinition, value any) []string {
	single := model.FormDefinition{ID: def.ID, Fields: []model.FieldDefinition{field}}
	result := validation.Validate(single, map[string]any{field.Name: value})
	return result.FieldErrors()[field.Name]
}

// fieldsWithErrors keeps definition order.
func fieldsWithErrors(def model.FormDefinition, errs map[string][]string) []model.FieldDefinition {
	var out []model.FieldDefinition
	for _, field := range def.Fields {
		if len(errs[field.Name]) > 0 {
			out = append(out, field)
		}
	}
	return out
}

func optionLabels(field model.FieldDefinition) []string {
	labels := make([]string, 0, len(field.Options))
	for _, option := range field.Options {
		labels = append(labels, option.DisplayLabel())
	}
	return labels
}

func labelFor(field model.FieldDefinition, value string) string {
	for _, option := range field.Options {
		if option.Value == value {
			return option.DisplayLabel()
		}
	}
	return ""
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}
