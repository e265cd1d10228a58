package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/docfill/internal/export"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFillFile(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemp(t, dir, "letter.txt", "Dear [CLIENT_NAME],\nre: [TOPIC] in [CITY]")
	an := writeTemp(t, dir, "analysis.yaml", "client:\n  name: Acme\ntopic: renewal\n")

	filled, res, err := FillFile(FillOptions{
		TemplatePath: tpl,
		AnalysisPath: an,
		Values:       []string{"TOPIC=contract renewal"},
		Format:       "docx",
	})
	if err != nil {
		t.Fatalf("FillFile: %v", err)
	}
	if want := "Dear Acme,\nre: contract renewal in "; filled.Text != want {
		t.Errorf("text = %q, want %q", filled.Text, want)
	}
	if diff := cmp.Diff([]string{"CITY"}, filled.Unfilled); diff != "" {
		t.Errorf("unfilled mismatch (-want +got):\n%s", diff)
	}
	if want := filepath.Join(dir, "letter_filled.docx"); res.Path != want {
		t.Errorf("path = %q, want %q", res.Path, want)
	}

	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	text, err := export.DOCXText(data)
	if err != nil {
		t.Fatal(err)
	}
	if text != filled.Text {
		t.Errorf("docx text = %q", text)
	}
}

func TestFillFile_ExplicitOutAndNoAnalysis(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemp(t, dir, "memo.txt", "[A]")
	out := filepath.Join(dir, "out.pdf")

	_, res, err := FillFile(FillOptions{TemplatePath: tpl, Values: []string{"A=x"}, Format: "PDF", Out: out})
	if err != nil {
		t.Fatalf("FillFile: %v", err)
	}
	if res.Path != out || res.Pages != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestFillFile_Errors(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemp(t, dir, "memo.txt", "[A]")

	cases := map[string]FillOptions{
		"format":   {TemplatePath: tpl, Format: "odt"},
		"value":    {TemplatePath: tpl, Format: "pdf", Values: []string{"novalue"}},
		"template": {TemplatePath: filepath.Join(dir, "none.txt"), Format: "pdf"},
		"analysis": {TemplatePath: tpl, Format: "pdf", AnalysisPath: filepath.Join(dir, "none.json")},
		"out":      {TemplatePath: tpl, Format: "pdf", Out: filepath.Join(tpl, "x.pdf")},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := FillFile(opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFillFile_MalformedAnalysisFillsFromValues(t *testing.T) {
	dir := t.TempDir()
	tpl := writeTemp(t, dir, "letter.txt", "Dear [NAME], [CITY]")
	bad := writeTemp(t, dir, "bad.json", `{"client": `)

	filled, res, err := FillFile(FillOptions{
		TemplatePath: tpl,
		AnalysisPath: bad,
		Values:       []string{"NAME=Bob"},
		Format:       "docx",
	})
	if err != nil {
		t.Fatalf("FillFile: %v", err)
	}
	if want := "Dear Bob, "; filled.Text != want {
		t.Errorf("text = %q, want %q", filled.Text, want)
	}
	if diff := cmp.Diff([]string{"CITY"}, filled.Unfilled); diff != "" {
		t.Errorf("unfilled mismatch (-want +got):\n%s", diff)
	}
	if filled.AnalysisError == "" {
		t.Error("AnalysisError is empty, want the parse error")
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestParseValues(t *testing.T) {
	got, err := ParseValues([]string{"A=1", "B=", "C=x=y"})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"A": "1", "B": "", "C": "x=y"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseValues([]string{"=v"}); err == nil {
		t.Error("empty field should fail")
	}
}

func TestTemplateFields(t *testing.T) {
	p := writeTemp(t, t.TempDir(), "t.txt", "[B] [A] [B] []")
	got, err := TemplateFields(p)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"B", "A"}, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}
