package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formembed/internal/openapi/loader"
	"github.com/goliatone/go-formembed/internal/openapi/parser"
)

// ImportOptions configure ImportOpenAPI.
type ImportOptions struct {
	Publish           bool
	Operations        []string
	ResolveReferences bool
	AllowHTTP         bool
	HTTPClient        *http.Client
	FileSystem        fs.FS
	Timeout           time.Duration
	Logger            *zap.Logger
}

// ImportOpenAPI reads the OpenAPI document at location and converts its
// form-shaped operations into definitions.
func ImportOpenAPI(ctx context.Context, location string, opts ImportOptions) (parser.Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	raw, err := loader.New(loader.Options{
		FileSystem:     opts.FileSystem,
		HTTPClient:     opts.HTTPClient,
		AllowHTTP:      opts.AllowHTTP,
		RequestTimeout: opts.Timeout,
	}).Load(ctx, location)
	if err != nil {
		return parser.Result{}, fmt.Errorf("catalog: import: %w", err)
	}

	result, err := parser.New(parser.Options{
		ResolveReferences: opts.ResolveReferences,
		Publish:           opts.Publish,
		Operations:        opts.Operations,
	}).Parse(ctx, raw)
	if err != nil {
		return parser.Result{}, fmt.Errorf("catalog: import: %w", err)
	}

	for _, skip := range result.Skipped {
		logger.Info("operation skipped", zap.String("operation", skip.Operation), zap.String("reason", skip.Reason))
	}
	logger.Debug("openapi imported", zap.String("location", location), zap.Int("forms", len(result.Forms)))
	return result, nil
}
