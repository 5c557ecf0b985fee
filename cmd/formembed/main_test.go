package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/goliatone/go-formembed/internal/catalog"
	"github.com/goliatone/go-formembed/internal/config"
)

const testCatalog = `forms:
  - id: contact
    title: Contact us
    published: true
    fields:
      - name: name
        label: Name
        kind: short-text
        required: true
      - name: email
        label: Email
        kind: email
`

const testDocument = `openapi: 3.0.3
info:
  title: Signup
  version: 1.0.0
paths:
  /signups:
    post:
      operationId: createSignup
      summary: Join the beta
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [email]
              properties:
                email:
                  type: string
                  format: email
      responses:
        "201":
          description: created
  /health:
    post:
      operationId: ping
      responses:
        "204":
          description: ok
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateCatalog(t *testing.T) {
	good := writeFile(t, "forms.yaml", testCatalog)
	stdout, _, err := execute(t, "validate-catalog", good)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok (1 forms, 1 published)")

	bad := writeFile(t, "bad.yaml", "forms:\n  - id: contact\n  - id: contact\n")
	stdout, _, err = execute(t, "validate-catalog", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 catalogs invalid")
	assert.Contains(t, stdout, bad+":")
}

func TestImportOpenAPI(t *testing.T) {
	doc := writeFile(t, "openapi.yaml", testDocument)
	out := filepath.Join(t.TempDir(), "catalog.yaml")

	stdout, stderr, err := execute(t, "import-openapi", doc, "--publish", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote 1 forms")
	assert.Contains(t, stderr, "skipped ping")

	defs, err := catalog.LoadFile(out)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "createsignup", defs[0].ID)
	assert.Equal(t, "Join the beta", defs[0].Title)
	assert.True(t, defs[0].Published)
}

func TestImportOpenAPIWithoutForms(t *testing.T) {
	doc := writeFile(t, "openapi.yaml", testDocument)
	_, _, err := execute(t, "import-openapi", doc, "--operation", "ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no form-shaped operations")
}

func TestServeAndClientCommands(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Path = writeFile(t, "forms.yaml", testCatalog)
	cfg.Server.ShutdownGrace = config.Duration(time.Second)
	cfg.Theme.Dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Theme.Dir, "brand.yaml"),
		[]byte("name: brand\ntokens:\n  primary-color: \"#ff5722\"\n"), 0o644))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + listener.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, listener, zap.NewNop()) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("serve did not stop")
		}
	})

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	t.Run("render text", func(t *testing.T) {
		stdout, _, err := execute(t, "render", "--api", base, "--form", "contact", "--format", "text")
		require.NoError(t, err)
		assert.Contains(t, stdout, "[ready] contact")
		assert.Contains(t, stdout, "Contact us")
		assert.Contains(t, stdout, "  Name *: ")
	})

	t.Run("render html", func(t *testing.T) {
		stdout, _, err := execute(t, "render", "--api", base, "--form", "contact", "--variant", "dark")
		require.NoError(t, err)
		assert.Contains(t, stdout, "--clientt-background: #111827")
		assert.Contains(t, stdout, base+"/embed/clientt-forms.js")
	})

	t.Run("embed with loaded theme", func(t *testing.T) {
		resp, err := http.Get(base + "/embed/forms/contact?theme=brand")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "--clientt-primary-color: #ff5722")
	})

	t.Run("render unknown form", func(t *testing.T) {
		stdout, _, err := execute(t, "render", "--api", base, "--form", "missing", "--format", "text")
		require.NoError(t, err)
		assert.Contains(t, stdout, "! Form not found")
	})

	t.Run("mount page", func(t *testing.T) {
		page := writeFile(t, "page.html", `<html><body><clientt-form form-id="contact"></clientt-form><clientt-form></clientt-form></body></html>`)
		stdout, _, err := execute(t, "mount", "--api", base, "--page", page)
		require.NoError(t, err)
		assert.Contains(t, stdout, `name="email"`)
		assert.Contains(t, stdout, "Form ID is required")
	})

	t.Run("mount needs input", func(t *testing.T) {
		_, _, err := execute(t, "mount", "--api", base)
		require.Error(t, err)
	})
}
