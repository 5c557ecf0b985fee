package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "petstore.json")
	if err := os.WriteFile(path, []byte(`{"openapi":"3.0.3"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := New(Options{}).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `{"openapi":"3.0.3"}` {
		t.Fatalf("unexpected payload %q", data)
	}
}

func TestLoadFromFS(t *testing.T) {
	files := fstest.MapFS{"specs/contact.yaml": {Data: []byte("openapi: 3.0.3\n")}}

	data, err := New(Options{FileSystem: files}).Load(context.Background(), "fs:specs/contact.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.HasPrefix(string(data), "openapi") {
		t.Fatalf("unexpected payload %q", data)
	}

	if _, err := New(Options{}).Load(context.Background(), "fs:specs/contact.yaml"); err == nil {
		t.Fatalf("expected error without a filesystem")
	}
}

func TestLoadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"openapi":"3.1.0"}`))
	}))
	t.Cleanup(srv.Close)

	if _, err := New(Options{}).Load(context.Background(), srv.URL+"/spec.json"); err == nil {
		t.Fatalf("expected http to be disabled by default")
	}

	l := New(Options{AllowHTTP: true})
	data, err := l.Load(context.Background(), srv.URL+"/spec.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `{"openapi":"3.1.0"}` {
		t.Fatalf("unexpected payload %q", data)
	}
	if _, err := l.Load(context.Background(), srv.URL+"/missing"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestLoadHTTPEnforcesLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	t.Cleanup(srv.Close)

	_, err := New(Options{AllowHTTP: true, MaxBytes: 16}).Load(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestLoadRejectsBlankLocation(t *testing.T) {
	if _, err := New(Options{}).Load(context.Background(), "  "); err == nil {
		t.Fatalf("expected error")
	}
}
