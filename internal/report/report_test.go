package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"example.com/vgmgate/internal/rules"
)

func sampleReport() rules.AcceptanceReport {
	offset := int64(1470)
	rep := rules.AcceptanceReport{
		GateMatrix: []rules.GateResult{
			{Stage: rules.StageHeader, Severity: rules.ERROR, RuleId: "VGM-003",
				Name: "EoF offset", Pass: false, Findings: 1},
			{Stage: rules.StageCommands, Severity: rules.WARN, RuleId: "VGM-007",
				Name: "Wait total", Pass: true, Findings: 1},
		},
		Findings: []rules.Diagnostic{
			{
				Ts: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC), File: "track.vgm",
				RuleId: "VGM-003", Severity: rules.ERROR, Offset: "0x04",
				Message: "end-of-file offset does not match file size", FixSuggested: true,
			},
			{
				Ts: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC), File: "track.vgm",
				RuleId: "VGM-007", Severity: rules.WARN, SampleOffset: &offset,
				Message: "wait commands sum to 1470 samples, header declares 9999",
			},
		},
	}
	rep.Summary.Total = 2
	rep.Summary.Errors = 1
	rep.Summary.Warnings = 1
	return rep
}

func TestAcceptanceJSONRoundTrip(t *testing.T) {
	rep := sampleReport()
	path := filepath.Join(t.TempDir(), "acceptance.json")
	if err := SaveAcceptanceJSON(rep, path); err != nil {
		t.Fatalf("SaveAcceptanceJSON: %v", err)
	}
	got, err := LoadAcceptanceJSON(path)
	if err != nil {
		t.Fatalf("LoadAcceptanceJSON: %v", err)
	}
	if got.Summary != rep.Summary {
		t.Fatalf("summary = %+v, want %+v", got.Summary, rep.Summary)
	}
	if len(got.GateMatrix) != 2 || got.GateMatrix[0].RuleId != "VGM-003" {
		t.Fatalf("gate matrix = %#v", got.GateMatrix)
	}
	if len(got.Findings) != 2 {
		t.Fatalf("findings = %d", len(got.Findings))
	}
	if got.Findings[1].SampleOffset == nil || *got.Findings[1].SampleOffset != 1470 {
		t.Fatalf("SampleOffset = %v", got.Findings[1].SampleOffset)
	}
}

func TestSaveAcceptancePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acceptance.pdf")
	if err := SaveAcceptancePDF(sampleReport(), path, PDFOptions{}); err != nil {
		t.Fatalf("SaveAcceptancePDF: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF, starts with %q", data[:min(8, len(data))])
	}
}

func TestSaveAcceptancePDFEmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := SaveAcceptancePDF(rules.AcceptanceReport{}, path, PDFOptions{Title: "Empty"}); err != nil {
		t.Fatalf("SaveAcceptancePDF: %v", err)
	}
}

func TestFileHashToQR(t *testing.T) {
	png, err := FileHashToQR("ab:cd:ef:01:23:45", 128)
	if err != nil {
		t.Fatalf("FileHashToQR: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatal("output is not a PNG")
	}
	if _, err := FileHashToQR("   ", 128); err == nil {
		t.Fatal("empty hash must be rejected")
	}
}

func TestSanitizeHash(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"abcdef", "ABCDEF"},
		{"ab:cd:ef", "ABCDEF"},
		{"  0x1234  ", "1234"},
		{"zzzz", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := sanitizeHash(tc.in); got != tc.want {
			t.Errorf("sanitizeHash(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
