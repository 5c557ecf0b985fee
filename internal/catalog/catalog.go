// Package catalog loads form definitions from YAML catalog files and
// OpenAPI documents and keeps a store in sync with them.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formembed/internal/store"
	"github.com/goliatone/go-formembed/pkg/model"
	"github.com/goliatone/go-formembed/pkg/validation"
)

// File is the on-disk catalog layout.
type File struct {
	Forms []model.FormDefinition `yaml:"forms"`
}

// IssueError reports every problem found in a catalog.
type IssueError struct {
	Source string
	Issues []string
}

func (e *IssueError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("catalog %s: %s", e.Source, e.Issues[0])
	}
	return fmt.Sprintf("catalog %s: %d problems: %s", e.Source, len(e.Issues), strings.Join(e.Issues, "; "))
}

// Parse decodes and validates a catalog. Unknown keys are rejected.
func Parse(data []byte) ([]model.FormDefinition, error) {
	return decode("<inline>", bytes.NewReader(data))
}

// LoadFile reads and validates the catalog at path.
func LoadFile(path string) ([]model.FormDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return decode(path, f)
}

// Marshal renders definitions as a catalog file.
func Marshal(defs []model.FormDefinition) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(File{Forms: defs}); err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("catalog: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(source string, r io.Reader) ([]model.FormDefinition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &IssueError{Source: source, Issues: []string{"catalog is empty"}}
		}
		return nil, fmt.Errorf("catalog %s: decode: %w", source, err)
	}
	if issues := Check(file.Forms); len(issues) > 0 {
		return nil, &IssueError{Source: source, Issues: issues}
	}
	return file.Forms, nil
}

// Check validates every definition and the uniqueness of form ids.
func Check(defs []model.FormDefinition) []string {
	var issues []string
	seen := make(map[string]int, len(defs))
	for i, def := range defs {
		label := def.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if prev, dup := seen[def.ID]; dup && def.ID != "" {
			issues = append(issues, fmt.Sprintf("form %s: duplicate id (first declared as #%d)", label, prev+1))
		}
		seen[def.ID] = i
		for _, issue := range validation.CheckDefinition(def) {
			issues = append(issues, fmt.Sprintf("form %s: %s", label, issue.Message))
		}
	}
	return issues
}

// Report summarises an Apply.
type Report struct {
	Upserted []string
	Removed  []string
}

// Apply writes defs into forms. With prune set, stored forms missing from
// defs are deleted. Every failure is collected; successful writes stay.
func Apply(ctx context.Context, forms store.Forms, defs []model.FormDefinition, prune bool) (Report, error) {
	var (
		report Report
		errs   error
	)
	keep := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		keep[def.ID] = struct{}{}
		if err := forms.Put(ctx, def); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("catalog: put %s: %w", def.ID, err))
			continue
		}
		report.Upserted = append(report.Upserted, def.ID)
	}
	if !prune {
		return report, errs
	}

	existing, err := forms.List(ctx)
	if err != nil {
		return report, multierr.Append(errs, fmt.Errorf("catalog: list: %w", err))
	}
	for _, def := range existing {
		if _, ok := keep[def.ID]; ok {
			continue
		}
		if err := forms.Delete(ctx, def.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			errs = multierr.Append(errs, fmt.Errorf("catalog: delete %s: %w", def.ID, err))
			continue
		}
		report.Removed = append(report.Removed, def.ID)
	}
	return report, errs
}
