package tmximport

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestDiagnosticLogFoldsUnresolved(t *testing.T) {
	logger, hook := test.NewNullLogger()
	l := newDiagnosticLog(logger)

	unresolved := func(layer string, gid uint32) Diagnostic {
		d := warnf(CodeUnresolvedGID, "gid %d has no tile", gid)
		d.Layer, d.GID = layer, gid
		return d
	}
	l.reportAll([]Diagnostic{
		unresolved("ground", 99),
		unresolved("ground", 99),
		unresolved("ground", 98),
		unresolved("top", 99),
	})
	l.report(unresolved("ground", 99))

	got := l.snapshot()
	if len(got) != 3 {
		t.Fatalf("diagnostics = %v", got)
	}
	if got[0].Count != 3 || got[1].Count != 1 || got[2].Count != 1 {
		t.Errorf("counts = %d,%d,%d, want 3,1,1", got[0].Count, got[1].Count, got[2].Count)
	}
	if n := len(hook.AllEntries()); n != 3 {
		t.Errorf("log entries = %d, want one per distinct diagnostic", n)
	}
	if e := hook.LastEntry(); e.Level != logrus.WarnLevel || e.Data["code"] != string(CodeUnresolvedGID) {
		t.Errorf("last entry = %+v", e)
	}
}

func TestDiagnosticLogErrorsLoggedAtErrorLevel(t *testing.T) {
	logger, hook := test.NewNullLogger()
	l := newDiagnosticLog(logger)
	boom := errors.New("boom")
	d := errorf(CodePayload, boom, "tile layer skipped")
	d.Layer = "ground"
	l.report(d)

	e := hook.LastEntry()
	if e == nil || e.Level != logrus.ErrorLevel {
		t.Fatalf("entry = %+v", e)
	}
	if e.Data["layer"] != "ground" || e.Data[logrus.ErrorKey] != boom {
		t.Errorf("fields = %v", e.Data)
	}
}

func TestDiagnosticsHelpers(t *testing.T) {
	ds := Diagnostics{
		warnf(CodeTilesetMismatch, "a"),
		{Severity: SeverityWarning, Code: CodeUnresolvedGID, Count: 4},
		warnf(CodeTilesetMismatch, "b"),
	}
	if ds.HasErrors() {
		t.Error("HasErrors with warnings only")
	}
	if n := len(ds.ByCode(CodeTilesetMismatch)); n != 2 {
		t.Errorf("ByCode = %d, want 2", n)
	}
	sum := ds.Summary()
	if sum[CodeTilesetMismatch] != 2 || sum[CodeUnresolvedGID] != 4 {
		t.Errorf("Summary = %v", sum)
	}
	ds = append(ds, errorf(CodeTemplateLoad, nil, "c"))
	if !ds.HasErrors() {
		t.Error("HasErrors = false")
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityWarning,
		Code:     CodeUnresolvedGID,
		Message:  "gid 7 has no tile",
		Layer:    "ground",
		Chunk:    "16,0",
		GID:      7,
		Path:     "level.tmx",
		Count:    3,
	}
	s := d.String()
	for _, want := range []string{"warning", "[unresolved_gid]", "level.tmx", `layer "ground"`, "chunk (16,0)", "gid 7", "(x3)"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestDiagnosticMarshalJSON(t *testing.T) {
	d := errorf(CodePayload, errors.New("short"), "tile layer skipped")
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out["severity"] != "error" || out["code"] != "payload" || out["error"] != "short" {
		t.Errorf("json = %s", b)
	}
}
