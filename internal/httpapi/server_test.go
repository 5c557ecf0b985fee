package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-formembed/internal/httpapi"
	"github.com/goliatone/go-formembed/internal/store"
	"github.com/goliatone/go-formembed/internal/store/memory"
	"github.com/goliatone/go-formembed/pkg/client"
	"github.com/goliatone/go-formembed/pkg/model"
	"github.com/goliatone/go-formembed/pkg/testsupport"
	"github.com/goliatone/go-formembed/pkg/validation"
	"github.com/goliatone/go-formembed/pkg/widget"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	server *httpapi.Server
}

func newFixture(t *testing.T, mutate func(*httpapi.Config)) fixture {
	t.Helper()
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.Forms().Put(ctx, testsupport.ContactForm()))
	require.NoError(t, st.Forms().Put(ctx, testsupport.SurveyForm()))
	hidden := testsupport.ContactForm()
	hidden.ID = "hidden"
	hidden.Published = false
	require.NoError(t, st.Forms().Put(ctx, hidden))

	cfg := httpapi.Config{
		Forms:          st.Forms(),
		Submissions:    st.Submissions(),
		AllowedOrigins: []string{"https://shop.example"},
		APIBase:        "https://forms.example",
		Now:            func() time.Time { return fixedNow },
		NewID:          func() string { return "sub-1" },
	}
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := httpapi.New(cfg)
	require.NoError(t, err)
	return fixture{store: st, server: srv}
}

func (f fixture) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) client.ErrorPayload {
	t.Helper()
	var payload client.ErrorPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload), rec.Body.String())
	return payload
}

func TestGetDefinition(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/public/forms/f1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.NotContains(t, rec.Body.String(), "published")

	var got model.FormDefinition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	want := testsupport.ContactForm()
	want.Published = false
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("definition mismatch (-want +got):\n%s", diff)
	}

	rec = f.do(t, http.MethodGet, "/api/public/forms/"+testsupport.SurveyFormID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetDefinitionResolutionFailures(t *testing.T) {
	f := newFixture(t, nil)

	cases := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{name: "unknown", path: "/api/public/forms/nope", status: http.StatusNotFound, code: "not_found"},
		{name: "unpublished", path: "/api/public/forms/hidden", status: http.StatusNotFound, code: "not_found"},
		{name: "malformed", path: "/api/public/forms/not.a.slug", status: http.StatusBadRequest, code: "invalid_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tc.path, "")
			require.Equal(t, tc.status, rec.Code)
			payload := decodeError(t, rec)
			assert.Equal(t, widget.MessageFormNotFound, payload.Error)
			assert.Equal(t, tc.code, payload.Code)
		})
	}
}

func TestCreateSubmissionStoresNormalisedValues(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/public/forms/f1/submissions", `{"name":"Ada"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":"sub-1"}`, rec.Body.String())

	subs, err := f.store.Submissions().ListByForm(context.Background(), "f1")
	require.NoError(t, err)
	want := []model.Submission{{
		ID:         "sub-1",
		FormID:     "f1",
		Values:     map[string]any{"name": "Ada"},
		CreatedAt:  fixedNow,
		RemoteAddr: "192.0.2.1",
	}}
	if diff := cmp.Diff(want, subs); diff != "" {
		t.Fatalf("stored submissions mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateSubmissionStoresNumbersAsNumbers(t *testing.T) {
	f := newFixture(t, nil)
	path := "/api/public/forms/" + testsupport.SurveyFormID + "/submissions"

	rec := f.do(t, http.MethodPost, path, `{"name":"Ada","email":"ada@example.com","seats":" 3 "}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	subs, err := f.store.Submissions().ListByForm(context.Background(), testsupport.SurveyFormID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	want := map[string]any{
		"name":       "Ada",
		"email":      "ada@example.com",
		"seats":      float64(3),
		"feedback":   "",
		"plan":       "",
		"channels":   []string{},
		"newsletter": false,
		"start":      "",
		"attachment": "",
	}
	if diff := cmp.Diff(want, subs[0].Values); diff != "" {
		t.Fatalf("stored values mismatch (-want +got):\n%s", diff)
	}

	for _, seats := range []string{`"0x10"`, `"NaN"`, `"Inf"`} {
		rec = f.do(t, http.MethodPost, path, `{"name":"Ada","email":"ada@example.com","seats":`+seats+`}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, seats)
		assert.Contains(t, decodeError(t, rec).Errors, "seats", seats)
	}
}

func TestCreateSubmissionValidation(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/public/forms/f1/submissions", `{"name":"  ","extra":1}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, widget.MessageInvalid, payload.Error)
	assert.Equal(t, map[string][]string{
		"name": {"Name is required"},
		"form": {`Unknown field "extra"`},
	}, payload.Errors)

	subs, err := f.store.Submissions().ListByForm(context.Background(), "f1")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestCreateSubmissionRejectsBadPayloads(t *testing.T) {
	f := newFixture(t, func(cfg *httpapi.Config) { cfg.MaxBodyBytes = 32 })

	for _, body := range []string{`[1,2]`, `not json`, `{"name":"a"} {}`, `null`} {
		rec := f.do(t, http.MethodPost, "/api/public/forms/f1/submissions", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := f.do(t, http.MethodPost, "/api/public/forms/f1/submissions", `{"name":"`+strings.Repeat("a", 64)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/public/forms/hidden/submissions", `{"name":"Ada"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmissionsAreRateLimitedPerClient(t *testing.T) {
	f := newFixture(t, func(cfg *httpapi.Config) {
		cfg.SubmitRate = rate.Every(time.Hour)
		cfg.SubmitBurst = 1
	})

	rec := f.do(t, http.MethodPost, "/api/public/forms/f1/submissions", `{"name":"Ada"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/public/forms/f1/submissions", `{"name":"Ada"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decodeError(t, rec).Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = f.do(t, http.MethodPost, "/api/public/forms/f1/submissions", `{"name":"Ada"}`, "X-Real-IP", "198.51.100.7")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCORS(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodOptions, "/api/public/forms/f1/submissions", "",
		"Origin", "https://shop.example", "Access-Control-Request-Method", http.MethodPost,
		"Access-Control-Request-Headers", "Content-Type")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))

	rec = f.do(t, http.MethodGet, "/api/public/forms/f1", "", "Origin", "https://shop.example/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = f.do(t, http.MethodGet, "/api/public/forms/f1", "", "Origin", "https://shop.example")
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Values("Vary"), "Origin")

	rec = f.do(t, http.MethodGet, "/api/public/forms/f1", "", "Origin", "https://evil.example")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	open := newFixture(t, func(cfg *httpapi.Config) { cfg.AllowedOrigins = []string{"*"} })
	rec = open.do(t, http.MethodGet, "/api/public/forms/f1", "", "Origin", "https://any.example")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	closed := newFixture(t, func(cfg *httpapi.Config) { cfg.AllowedOrigins = nil })
	rec = closed.do(t, http.MethodOptions, "/api/public/forms/f1/submissions", "",
		"Origin", "https://any.example", "Access-Control-Request-Method", http.MethodPost)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	rec = closed.do(t, http.MethodGet, "/api/public/forms/f1", "", "Origin", "https://any.example")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestEmbedAssets(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/embed/clientt-forms.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, rec.Body.String(), "clientt-form")

	rec = f.do(t, http.MethodGet, "/embed/clientt-forms.css", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rec.Body.String(), ":where(clientt-form)")
}

func TestEmbedSnippet(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/embed/forms/f1?variant=dark", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, `<clientt-form form-id="f1" api-base="https://forms.example">`)
	assert.Contains(t, body, `--clientt-background: #111827`)
	assert.Contains(t, body, `data-clientt-variant="dark"`)
	assert.Contains(t, body, `<script src="/embed/clientt-forms.js" defer></script>`)
	assert.Contains(t, body, `data-clientt-state="ready"`)

	rec = f.do(t, http.MethodGet, "/embed/forms/f1?theme=missing", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/embed/forms/hidden", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)

	rec = f.do(t, http.MethodDelete, "/api/public/forms/f1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type panickyForms struct{ store.Forms }

func (panickyForms) Get(context.Context, string) (model.FormDefinition, error) {
	panic("boom")
}

type brokenForms struct{ store.Forms }

func (brokenForms) Get(context.Context, string) (model.FormDefinition, error) {
	return model.FormDefinition{}, errors.New("disk on fire")
}

func TestFailuresUseTheErrorEnvelope(t *testing.T) {
	f := newFixture(t, func(cfg *httpapi.Config) { cfg.Forms = panickyForms{cfg.Forms} })
	rec := f.do(t, http.MethodGet, "/api/public/forms/f1", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", decodeError(t, rec).Code)

	f = newFixture(t, func(cfg *httpapi.Config) { cfg.Forms = brokenForms{cfg.Forms} })
	rec = f.do(t, http.MethodGet, "/api/public/forms/f1", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, widget.MessageNetwork, decodeError(t, rec).Error)
}

func TestNewRequiresStores(t *testing.T) {
	_, err := httpapi.New(httpapi.Config{})
	require.Error(t, err)
}

func TestWidgetRoundTripThroughServer(t *testing.T) {
	f := newFixture(t, nil)
	ts := httptest.NewServer(f.server)
	t.Cleanup(ts.Close)

	api, err := client.New(ts.URL)
	require.NoError(t, err)

	w := widget.New(api)
	ctx := context.Background()
	require.NoError(t, w.Attach(ctx, "f1"))
	w.Wait()
	require.Equal(t, model.StateReady, w.State())

	var invalid *validation.Error
	require.ErrorAs(t, w.Submit(ctx), &invalid)
	assert.Equal(t, []string{"Name is required"}, invalid.FieldErrors()["name"])
	require.Equal(t, model.StateReady, w.State())

	require.NoError(t, w.SetValue("name", "Ada"))
	require.NoError(t, w.Submit(ctx))
	w.Wait()
	view := w.View()
	require.Equal(t, model.StateSubmitted, view.State, view.Error)
	assert.Equal(t, "sub-1", view.SubmissionID)

	subs, err := f.store.Submissions().ListByForm(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, map[string]any{"name": "Ada"}, subs[0].Values)

	other := widget.New(api)
	require.NoError(t, other.Attach(ctx, "hidden"))
	other.Wait()
	assert.Equal(t, model.StateError, other.State())
	assert.Equal(t, widget.MessageFormNotFound, other.View().Error)
	assert.False(t, other.View().Retryable)
}
