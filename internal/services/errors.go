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
	ErrNetwork       = errors.New("network error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classification describes how a pipeline failure should be handled.
type Classification struct {
	Kind        string
	Recoverable bool
	UserMessage string
}

// Classify maps a stage error to its retry disposition and the message to
// surface on the deck record. Validation, configuration, and not-found
// failures stop immediately; network, timeout, external-tool, and transient
// failures are eligible for another attempt.
func Classify(err error) Classification {
	switch {
	case err == nil:
		return Classification{Kind: "none"}
	case errors.Is(err, ErrValidation):
		return Classification{Kind: "validation", UserMessage: userMessage(err, "request was invalid")}
	case errors.Is(err, ErrConfiguration):
		return Classification{Kind: "configuration", UserMessage: userMessage(err, "service is not configured")}
	case errors.Is(err, ErrNotFound):
		return Classification{Kind: "not_found", UserMessage: userMessage(err, "record not found")}
	case errors.Is(err, ErrNetwork):
		return Classification{Kind: "network", Recoverable: true, UserMessage: userMessage(err, "network request failed")}
	case errors.Is(err, ErrTimeout):
		return Classification{Kind: "timeout", Recoverable: true, UserMessage: userMessage(err, "operation timed out")}
	case errors.Is(err, ErrExternalTool):
		return Classification{Kind: "external_tool", Recoverable: true, UserMessage: userMessage(err, "external tool failed")}
	default:
		return Classification{Kind: "transient", Recoverable: true, UserMessage: userMessage(err, "processing failed")}
	}
}

// Recoverable reports whether another attempt at the failed operation could
// succeed.
func Recoverable(err error) bool {
	return Classify(err).Recoverable
}

func userMessage(err error, fallback string) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return fallback
	}
	return msg
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
