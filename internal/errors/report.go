package errors

import (
	"encoding/json"
	"errors"

	"github.com/rr-lang/rr/internal/ast"
)

// Report is RR's canonical structured error type, returned by every
// diagnostic-producing builder and suitable for JSON encoding via --json.
type Report struct {
	Schema  string         `json:"schema"` // always "rr.error/v1"
	Code    string         `json:"code"`
	Kind    Kind           `json:"kind"`
	Stage   string         `json:"stage"`
	Message string         `json:"message"`
	Span    *ast.Span      `json:"span,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Hint    string         `json:"hint,omitempty"`
}

// ReportError wraps a Report as an error so it survives errors.As
// unwrapping through ordinary Go error handling.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a *Report from an error chain, if present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps r as an error. Callers should return errors.WrapReport(r)
// rather than fmt.Errorf to preserve structure through the call stack.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON renders r as JSON, indented unless compact is requested.
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// New builds a Report for kind/message at span, defaulting Code from kind.
func New(kind Kind, stage, message string, span *ast.Span) *Report {
	return &Report{
		Schema:  "rr.error/v1",
		Code:    DefaultCode(kind),
		Kind:    kind,
		Stage:   stage,
		Message: message,
		Span:    span,
	}
}

// WithData attaches structured context data to the report.
func (r *Report) WithData(data map[string]any) *Report {
	r.Data = data
	return r
}

// WithHint attaches a human-facing suggestion to the report.
func (r *Report) WithHint(hint string) *Report {
	r.Hint = hint
	return r
}
