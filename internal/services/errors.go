package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrProduction    = errors.New("production error")
	ErrPersistence   = errors.New("persistence error")
	ErrConcatenation = errors.New("concatenation error")
)

// kinds lists the markers in the order Details checks them. More specific
// markers come first so an ErrProduction wrapping an ErrExternalTool is
// classified as production.
var kinds = []struct {
	marker error
	kind   string
}{
	{ErrNotFound, "not_found"},
	{ErrConfiguration, "configuration"},
	{ErrConcatenation, "concatenation"},
	{ErrPersistence, "persistence"},
	{ErrProduction, "production"},
	{ErrValidation, "validation"},
	{ErrExternalTool, "external_tool"},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorDetails is the user-facing summary of a classified error.
type ErrorDetails struct {
	Kind    string
	Message string
}

// Details classifies err against the sentinel markers and returns its message.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	details := ErrorDetails{Kind: "unknown", Message: strings.TrimSpace(err.Error())}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			details.Kind = k.kind
			break
		}
	}
	return details
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
