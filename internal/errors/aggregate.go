package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/rr-lang/rr/internal/ast"
)

// Diagnostic is one compiler-stage finding, the unit collected by an
// Aggregate and rendered to the human `**` format or the RRDIAG line.
type Diagnostic struct {
	Kind    Kind           `json:"kind"`
	Code    string         `json:"code"`
	Span    ast.Span       `json:"span"`
	Message string         `json:"message"`
	Ctx     map[string]any `json:"ctx,omitempty"`
	Hint    string         `json:"hint,omitempty"`
	Stage   string         `json:"stage"`
}

// Aggregate collects diagnostics across a pipeline stage (or the whole
// run) and renders them the way the CLI prints compile failures: a
// "found N" header followed by one `**` line and one machine-readable
// RRDIAG line per diagnostic.
type Aggregate struct {
	Diagnostics []Diagnostic
}

// Add appends d to the aggregate.
func (a *Aggregate) Add(d Diagnostic) {
	a.Diagnostics = append(a.Diagnostics, d)
}

// Addf builds and appends a Diagnostic from kind/stage/span/format args.
func (a *Aggregate) Addf(kind Kind, stage string, span ast.Span, format string, args ...any) {
	a.Add(Diagnostic{
		Kind:    kind,
		Code:    DefaultCode(kind),
		Span:    span,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	})
}

// Empty reports whether no diagnostics were collected.
func (a *Aggregate) Empty() bool { return len(a.Diagnostics) == 0 }

// Len returns the diagnostic count.
func (a *Aggregate) Len() int { return len(a.Diagnostics) }

// Err returns the aggregate as an error wrapping itself, or nil if empty.
// The wrapper survives errors.As so a CLI layer can recover the structured
// Aggregate for --json rendering instead of only its rendered text.
func (a *Aggregate) Err() error {
	if a.Empty() {
		return nil
	}
	return &AggregateError{Agg: a}
}

// AggregateError adapts an Aggregate to the error interface the same way
// ReportError adapts a single Report, so a caller holding many diagnostics
// can still recover them via errors.As instead of only a rendered string.
type AggregateError struct {
	Agg *Aggregate
}

func (e *AggregateError) Error() string {
	if e.Agg == nil {
		return "rr: unknown error"
	}
	return strings.TrimSuffix(e.Agg.Render(), "\n")
}

// AsAggregate extracts the Aggregate from an error chain, if present.
func AsAggregate(err error) (*Aggregate, bool) {
	var ae *AggregateError
	if stderrors.As(err, &ae) {
		return ae.Agg, true
	}
	return nil, false
}

// Render produces the full human-readable block: a "found N" header, then
// for each diagnostic a `** (Kind) file:line:col: message` line and a
// trailing `RRDIAG|...` machine-readable line.
func (a *Aggregate) Render() string {
	if a.Empty() {
		return ""
	}
	var b strings.Builder
	noun := "error"
	if len(a.Diagnostics) != 1 {
		noun = "errors"
	}
	fmt.Fprintf(&b, "found %d %s\n", len(a.Diagnostics), noun)
	for _, d := range a.Diagnostics {
		fmt.Fprintf(&b, "** (%s) %s: %s\n", d.Kind, d.Span.Start, d.Message)
		if d.Hint != "" {
			fmt.Fprintf(&b, "   hint: %s\n", d.Hint)
		}
		fmt.Fprintf(&b, "RRDIAG|kind=%s|code=%s|stage=%s|span=%s\n", d.Kind, d.Code, d.Stage, d.Span.Start)
	}
	return b.String()
}

// jsonReport is the `--json` wire shape for a compile failure, one schema
// document per run rather than per diagnostic.
type jsonReport struct {
	Schema      string       `json:"schema"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// RenderJSON marshals the aggregate as the "rr.diagnostics/v1" schema,
// compact or indented, for `--json` on any subcommand.
func (a *Aggregate) RenderJSON(compact bool) (string, error) {
	rep := jsonReport{Schema: "rr.diagnostics/v1", Diagnostics: a.Diagnostics}
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(rep)
	} else {
		data, err = json.MarshalIndent(rep, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
