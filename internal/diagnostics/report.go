package diagnostics

import (
	"encoding/json"
	"errors"

	"github.com/typeeval/core/internal/ast"
)

// Report is the canonical structured diagnostic. Every error builder
// in the evaluator returns *Report, wrapped as a ReportError so it
// survives errors.As unwrapping through Go's normal error plumbing even
// though the evaluator's own diagnostic policy collects most of these
// into a Sink rather than returning them as errors.
type Report struct {
	Schema   string         `json:"schema"`
	Code     string         `json:"code"`
	Phase    string         `json:"phase"`
	Severity Severity       `json:"severity"`
	Message  string         `json:"message"`
	Span     *ast.Span      `json:"span,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Fix      *Fix           `json:"fix,omitempty"`
}

// Fix is a suggested, non-applied correction: the core only ever
// suggests fixes, never applies them.
type Fix struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// InsertOffset is the byte offset a driver-side code action would
	// insert Description's text at; -1 when not applicable.
	InsertOffset int `json:"insertOffset"`
}

// ReportError wraps a Report as an error.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown diagnostic"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a Report from an error chain.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps a Report as a ReportError.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON renders the report deterministically (sorted map keys, via
// encoding/json's native map ordering).
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

// New builds a Report, defaulting severity from the rule registry
// when the caller doesn't need to override it.
func New(code string, span *ast.Span, message string, data map[string]any) *Report {
	severity := SeverityError
	phase := ""
	if info, ok := Lookup(code); ok {
		severity = info.Default
		phase = info.Phase
	}
	return &Report{
		Schema:   "typeeval.diagnostic/v1",
		Code:     code,
		Phase:    phase,
		Severity: severity,
		Message:  message,
		Span:     span,
		Data:     data,
	}
}

// WithFix attaches a suggested fix and returns the report for chaining.
func (r *Report) WithFix(fix *Fix) *Report {
	r.Fix = fix
	return r
}
