package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/csvprep/internal/output"
	"github.com/salmonumbrella/csvprep/internal/source"
)

func validateErrorFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto", "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid --error-format %q (expected auto|text|json|yaml)", format)
	}
}

func effectiveErrorFormat(ctx context.Context) string {
	format := strings.ToLower(strings.TrimSpace(ErrorFormatFromContext(ctx)))
	if format == "" || format == "auto" {
		switch output.FormatFromContext(ctx) {
		case output.FormatJSON, output.FormatNDJSON:
			return "json"
		case output.FormatYAML:
			return "yaml"
		default:
			return "text"
		}
	}
	return format
}

func printCommandError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	switch effectiveErrorFormat(ctx) {
	case "json":
		enc := json.NewEncoder(stderrFromContext(ctx))
		enc.SetEscapeHTML(false)
		_ = enc.Encode(buildErrorEnvelope(err))
		return
	case "yaml":
		enc := yaml.NewEncoder(stderrFromContext(ctx))
		enc.SetIndent(2)
		_ = enc.Encode(buildErrorEnvelope(err))
		_ = enc.Close()
		return
	}

	_, _ = fmt.Fprintln(stderrFromContext(ctx), err)
}

// errorKind classifies the source-level reason for a failure.
func errorKind(err error) (kind, category string, ok bool) {
	var authErr source.AuthenticationError
	var notFoundErr source.NotFoundError
	var malformedErr source.MalformedError
	var locatorErr source.LocatorError
	var statusErr source.StatusError

	switch {
	case errors.As(err, &authErr):
		return "auth", "user", true
	case errors.As(err, &notFoundErr):
		return "not_found", "user", true
	case errors.As(err, &malformedErr):
		return "malformed", "user", true
	case errors.As(err, &locatorErr):
		return "locator", "user", true
	case errors.As(err, &statusErr):
		return "status", "system", true
	}
	return "", "", false
}

func buildErrorEnvelope(err error) map[string]interface{} {
	errMap := map[string]interface{}{
		"message":  err.Error(),
		"type":     "error",
		"category": "system",
	}

	kind, category, known := errorKind(err)
	if known {
		errMap["type"] = kind
		errMap["category"] = category
	}

	var loadErr *source.LoadError
	if errors.As(err, &loadErr) {
		errMap["type"] = "load"
		errMap["locator"] = loadErr.Locator
		if known {
			errMap["subtype"] = kind
		}
	}

	var statusErr source.StatusError
	if errors.As(err, &statusErr) {
		errMap["status_code"] = statusErr.StatusCode
	}

	return map[string]interface{}{"error": errMap}
}
