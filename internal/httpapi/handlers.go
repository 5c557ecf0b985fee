package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-formembed/internal/store"
	"github.com/goliatone/go-formembed/pkg/client"
	"github.com/goliatone/go-formembed/pkg/model"
	"github.com/goliatone/go-formembed/pkg/render"
	"github.com/goliatone/go-formembed/pkg/renderers/vanilla"
	"github.com/goliatone/go-formembed/pkg/validation"
	"github.com/goliatone/go-formembed/pkg/widget"
)

const (
	codeInvalidID   = "invalid_id"
	codeNotFound    = "not_found"
	codeInvalid     = "invalid"
	codeBadPayload  = "bad_payload"
	codeTooLarge    = "too_large"
	codeRateLimited = "rate_limited"
	codeInternal    = "internal"
	codeBadTheme    = "bad_theme"

	formLevelKey = "form"
)

// lookup resolves a published form. Malformed ids and unknown or
// unpublished forms are written as errors and reported with ok=false.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (model.FormDefinition, bool) {
	formID := chi.URLParam(r, "formID")
	if !model.ValidFormID(formID) {
		writeError(w, http.StatusBadRequest, client.ErrorPayload{Error: widget.MessageFormNotFound, Code: codeInvalidID})
		return model.FormDefinition{}, false
	}
	def, err := s.forms.Get(r.Context(), formID)
	switch {
	case errors.Is(err, store.ErrNotFound), err == nil && !def.Published:
		writeError(w, http.StatusNotFound, client.ErrorPayload{Error: widget.MessageFormNotFound, Code: codeNotFound})
		return model.FormDefinition{}, false
	case err != nil:
		s.internalError(w, r, "load form", err)
		return model.FormDefinition{}, false
	}
	return def, true
}

func (s *Server) getDefinition(w http.ResponseWriter, r *http.Request) {
	def, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) createSubmission(w http.ResponseWriter, r *http.Request) {
	def, ok := s.lookup(w, r)
	if !ok {
		return
	}

	values, status, payload := s.decodeValues(w, r)
	if payload != nil {
		writeError(w, status, *payload)
		return
	}

	result := validation.Validate(def, values, validation.RejectUnknownFields())
	if !result.Valid() {
		errs := result.FieldErrors()
		if errs == nil {
			errs = make(map[string][]string)
		}
		if form := result.FormErrors(); len(form) > 0 {
			errs[formLevelKey] = form
		}
		writeError(w, http.StatusUnprocessableEntity, client.ErrorPayload{
			Error:  widget.MessageInvalid,
			Code:   codeInvalid,
			Errors: errs,
		})
		return
	}

	sub := model.Submission{
		ID:         s.newID(),
		FormID:     def.ID,
		Values:     normalise(def, values),
		CreatedAt:  s.now().UTC(),
		RemoteAddr: clientAddr(r),
	}
	if err := s.submissions.Save(r.Context(), sub); err != nil {
		s.internalError(w, r, "save submission", err)
		return
	}
	s.logger.Info("submission accepted",
		zap.String("form_id", def.ID),
		zap.String("submission_id", sub.ID),
		zap.String("request_id", requestID(r)),
	)
	writeJSON(w, http.StatusCreated, client.Receipt{ID: sub.ID})
}

func (s *Server) decodeValues(w http.ResponseWriter, r *http.Request) (map[string]any, int, *client.ErrorPayload) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, &client.ErrorPayload{
				Error: fmt.Sprintf("Submission exceeds %d bytes", tooLarge.Limit),
				Code:  codeTooLarge,
			}
		}
		return nil, http.StatusBadRequest, &client.ErrorPayload{Error: "Could not read submission", Code: codeBadPayload}
	}

	var values map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&values); err != nil || values == nil || dec.More() {
		return nil, http.StatusBadRequest, &client.ErrorPayload{
			Error: "Submission must be a JSON object of field values",
			Code:  codeBadPayload,
		}
	}
	return values, 0, nil
}

func normalise(def model.FormDefinition, values map[string]any) map[string]any {
	out := make(map[string]any, len(def.Fields))
	for _, field := range def.Fields {
		value, err := model.Normalize(field.Kind, values[field.Name])
		if err != nil {
			value = model.ZeroValue(field.Kind)
		}
		if field.Kind == model.KindNumber {
			// validated already; empty optional numbers stay "".
			if number, ok := validation.ParseDecimal(fmt.Sprint(value)); ok {
				value = number
			}
		}
		out[field.Name] = value
	}
	return out
}

// embedSnippet renders a ready widget server-side, wrapped with the theme
// properties and the loader script.
func (s *Server) embedSnippet(w http.ResponseWriter, r *http.Request) {
	def, ok := s.lookup(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	cfg, err := s.themes.RendererConfig(query.Get("theme"), query.Get("variant"))
	if err != nil {
		writeError(w, http.StatusBadRequest, client.ErrorPayload{Error: err.Error(), Code: codeBadTheme})
		return
	}

	view := model.View{
		FormID:     def.ID,
		State:      model.StateReady,
		Definition: &def,
		Values:     model.NewDraft(def).Values(),
	}
	out, err := s.renderer.Render(r.Context(), view, render.RenderOptions{
		Theme:      cfg,
		AssetBase:  s.assetBase,
		APIBase:    s.apiBase,
		Standalone: true,
		InstanceID: strings.TrimSpace(query.Get("instance")),
	})
	if err != nil {
		s.internalError(w, r, "render snippet", err)
		return
	}
	w.Header().Set("Content-Type", s.renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) asset(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(vanilla.AssetsFS(), name)
		if err != nil {
			s.internalError(w, r, "read asset", err)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		_, _ = w.Write(data)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error("request failed",
		zap.String("op", op),
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestID(r)),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, client.ErrorPayload{Error: widget.MessageNetwork, Code: codeInternal})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, payload client.ErrorPayload) {
	writeJSON(w, status, payload)
}
