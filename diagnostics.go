package tmximport

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Severity ranks a diagnostic.
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// MarshalJSON encodes the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Code classifies a diagnostic.
type Code string

const (
	CodeUnresolvedGID       Code = "unresolved_gid"
	CodePayload             Code = "payload"
	CodeTilesetImport       Code = "tileset_import"
	CodeTilesetMismatch     Code = "tileset_mismatch"
	CodeOverlappingTilesets Code = "overlapping_tilesets"
	CodeTemplateLoad        Code = "template_load"
	CodeInvalidValue        Code = "invalid_value"
	CodeDeepNesting         Code = "deep_nesting"
	CodeHandler             Code = "handler"
)

// Diagnostic is one non-fatal problem found during an import, with enough
// context to locate it in the source documents.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Message  string   `json:"message"`
	Layer    string   `json:"layer,omitempty"`
	Chunk    string   `json:"chunk,omitempty"` // "x,y" origin for infinite layers
	GID      uint32   `json:"gid,omitempty"`
	Path     string   `json:"path,omitempty"`
	Count    int      `json:"count,omitempty"` // occurrences folded into this one
	Err      error    `json:"-"`
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", d.Severity, d.Code)
	if d.Path != "" {
		fmt.Fprintf(&b, " %s", d.Path)
	}
	if d.Layer != "" {
		fmt.Fprintf(&b, " layer %q", d.Layer)
	}
	if d.Chunk != "" {
		fmt.Fprintf(&b, " chunk (%s)", d.Chunk)
	}
	if d.GID != 0 {
		fmt.Fprintf(&b, " gid %d", d.GID)
	}
	fmt.Fprintf(&b, ": %s", d.Message)
	if d.Err != nil {
		fmt.Fprintf(&b, ": %v", d.Err)
	}
	if d.Count > 1 {
		fmt.Fprintf(&b, " (x%d)", d.Count)
	}
	return b.String()
}

// MarshalJSON adds the error text to the encoded diagnostic.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	type plain Diagnostic
	var errText string
	if d.Err != nil {
		errText = d.Err.Error()
	}
	return json.Marshal(struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain(d), errText})
}

func (d Diagnostic) fields() logrus.Fields {
	f := logrus.Fields{"code": string(d.Code)}
	if d.Layer != "" {
		f["layer"] = d.Layer
	}
	if d.Chunk != "" {
		f["chunk"] = d.Chunk
	}
	if d.GID != 0 {
		f["gid"] = d.GID
	}
	if d.Path != "" {
		f["path"] = d.Path
	}
	if d.Err != nil {
		f[logrus.ErrorKey] = d.Err
	}
	return f
}

// Diagnostics is the ordered list of diagnostics from one import.
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ByCode returns the diagnostics with the given code.
func (ds Diagnostics) ByCode(code Code) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Summary counts diagnostics per code, including folded occurrences.
func (ds Diagnostics) Summary() map[Code]int {
	out := make(map[Code]int)
	for _, d := range ds {
		n := d.Count
		if n < 1 {
			n = 1
		}
		out[d.Code] += n
	}
	return out
}

// diagnosticLog accumulates diagnostics for a session and logs each one as it
// arrives. Unresolved GIDs are folded per (layer, gid).
type diagnosticLog struct {
	mu         sync.Mutex
	log        logrus.FieldLogger
	list       Diagnostics
	unresolved map[unresolvedKey]int // index into list
}

type unresolvedKey struct {
	layer string
	gid   uint32
}

func newDiagnosticLog(log logrus.FieldLogger) *diagnosticLog {
	return &diagnosticLog{log: log, unresolved: make(map[unresolvedKey]int)}
}

func (l *diagnosticLog) report(d Diagnostic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(d)
}

func (l *diagnosticLog) add(d Diagnostic) {
	if d.Code == CodeUnresolvedGID {
		k := unresolvedKey{d.Layer, d.GID}
		if i, ok := l.unresolved[k]; ok {
			l.list[i].Count++
			return
		}
		d.Count = 1
		l.unresolved[k] = len(l.list)
	}
	l.list = append(l.list, d)

	entry := l.log.WithFields(d.fields())
	if d.Severity == SeverityError {
		entry.Error(d.Message)
	} else {
		entry.Warn(d.Message)
	}
}

func (l *diagnosticLog) reportAll(ds []Diagnostic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, d := range ds {
		l.add(d)
	}
}

func (l *diagnosticLog) snapshot() Diagnostics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append(Diagnostics(nil), l.list...)
}

func warnf(code Code, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Code: code, Message: fmt.Sprintf(format, args...)}
}

func errorf(code Code, err error, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}
