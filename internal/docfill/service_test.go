package docfill

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/docfill/internal/analysis"
	"github.com/starford/docfill/internal/apperr"
	"github.com/starford/docfill/internal/checksum"
	"github.com/starford/docfill/internal/export"
	"github.com/starford/docfill/internal/index"
	"github.com/starford/docfill/internal/models"
	"github.com/starford/docfill/internal/storage"
	"github.com/starford/docfill/internal/testutil"
)

type stubAnalyzer struct {
	value analysis.Value
	err   error
}

func (a stubAnalyzer) Analyze(context.Context, string) (analysis.Value, error) {
	return a.value, a.err
}

type recordingPublisher struct {
	mu   sync.Mutex
	recs []models.ExportRecord
}

func (p *recordingPublisher) PublishExport(rec models.ExportRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recs = append(p.recs, rec)
}

type testEnv struct {
	svc       *Service
	store     *storage.FS
	db        *index.DB
	exportDir string
	events    *recordingPublisher
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	_, store := testutil.TestStore(t)
	db := testutil.TestDB(t)

	events := &recordingPublisher{}
	exportDir := filepath.Join(t.TempDir(), "exports")
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	opts = append([]Option{WithPublisher(events), WithLogger(logger)}, opts...)
	return &testEnv{
		svc:       NewService(store, db, exportDir, opts...),
		store:     store,
		db:        db,
		exportDir: exportDir,
		events:    events,
	}
}

func mustParse(t *testing.T, s string) analysis.Value {
	t.Helper()
	v, err := analysis.Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return v
}

const letter = "Dear [CLIENT_NAME],\nYour invoice of [AMOUNT] is due on [DATE].\n[SIGNATURE]"

func TestPutTemplate_CreateThenUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tpl, created, err := env.svc.PutTemplate(ctx, "letter", []byte(letter), "")
	if err != nil {
		t.Fatalf("PutTemplate: %v", err)
	}
	if !created {
		t.Error("first put should create")
	}
	want := []string{"CLIENT_NAME", "AMOUNT", "DATE", "SIGNATURE"}
	if diff := cmp.Diff(want, tpl.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	row, err := env.db.GetTemplate("letter")
	if err != nil {
		t.Fatalf("catalog row: %v", err)
	}
	if row.Checksum != tpl.Checksum {
		t.Errorf("catalog checksum = %q, want %q", row.Checksum, tpl.Checksum)
	}

	_, created, err = env.svc.PutTemplate(ctx, "letter", []byte("Hi [NAME]"), tpl.Checksum)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if created {
		t.Error("second put should update")
	}
}

func TestPutTemplate_StaleChecksumConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, _, _ = env.svc.PutTemplate(ctx, "letter", []byte("v1"), "")

	_, _, err := env.svc.PutTemplate(ctx, "letter", []byte("v2"), checksum.String("stale"))
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	got, _ := env.store.Read("letter")
	if string(got) != "v1" {
		t.Errorf("content = %q, conflicting write must not land", got)
	}
}

func TestPutTemplate_InvalidName(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.svc.PutTemplate(context.Background(), "../x", []byte("v"), "")
	if !errors.Is(err, apperr.ErrInvalidName) {
		t.Errorf("err = %v, want ErrInvalidName", err)
	}
}

func TestDeleteTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, _, _ = env.svc.PutTemplate(ctx, "gone", []byte("[X]"), "")

	if err := env.svc.DeleteTemplate(ctx, "gone"); err != nil {
		t.Fatalf("DeleteTemplate: %v", err)
	}
	if _, err := env.svc.GetTemplate(ctx, "gone"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if cs, _ := env.db.GetChecksum("gone"); cs != "" {
		t.Error("catalog row survived delete")
	}
}

func TestPrepare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_ = env.store.Write("letter", []byte(letter))

	v := mustParse(t, `{"client": {"name": "Acme"}, "amount": "$1,200", "dates": ["2024-06-01"]}`)
	p, err := env.svc.Prepare(ctx, "letter", v)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	want := map[string]string{
		"CLIENT_NAME": "Acme",
		"AMOUNT":      "$1,200",
		"DATE":        "2024-06-01",
		"SIGNATURE":   "",
	}
	if diff := cmp.Diff(want, p.Defaults); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"SIGNATURE"}, p.Unresolved); diff != "" {
		t.Errorf("unresolved mismatch (-want +got):\n%s", diff)
	}
	if p.Template != "letter" || p.Table.Len() != 3 {
		t.Errorf("preparation = %+v", p)
	}
}

func TestFill_OverridesAndEmptyFields(t *testing.T) {
	env := newTestEnv(t)
	_ = env.store.Write("letter", []byte(letter))

	v := mustParse(t, `{"client_name": "Acme", "amount": "12"}`)
	f, err := env.svc.Fill(context.Background(), "letter", v, map[string]string{"AMOUNT": "15"})
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	wantText := "Dear Acme,\nYour invoice of 15 is due on .\n"
	if f.Text != wantText {
		t.Errorf("text = %q, want %q", f.Text, wantText)
	}
	if diff := cmp.Diff([]string{"DATE", "SIGNATURE"}, f.Unfilled); diff != "" {
		t.Errorf("unfilled mismatch (-want +got):\n%s", diff)
	}
}

func TestFill_AbsentAnalysis(t *testing.T) {
	f := FillText("Hello [NAME]", analysis.Value{}, nil)
	if f.Text != "Hello " {
		t.Errorf("text = %q, want %q", f.Text, "Hello ")
	}
}

func TestFill_MissingTemplate(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Fill(context.Background(), "nope", analysis.Value{}, nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAnalyze_Success(t *testing.T) {
	v := analysis.MappingValue(analysis.M("client", analysis.MappingValue(analysis.M("name", analysis.StringValue("Acme")))))
	env := newTestEnv(t, WithAnalyzer(stubAnalyzer{value: v}))

	a, err := env.svc.Analyze(context.Background(), "source.txt", []byte("Invoice for Acme"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.ErrorKind != "" {
		t.Errorf("error kind = %q", a.ErrorKind)
	}
	if got, _ := a.Table.Get("client_name"); got != "Acme" {
		t.Errorf("client_name = %q", got)
	}
}

func TestAnalyze_DegradesOnAIFailure(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{apperr.ErrQuotaExhausted, FailureQuota},
		{apperr.ErrExtractorDisabled, FailureDisabled},
		{errors.New("connection refused"), FailureFailed},
	}
	for _, tc := range cases {
		env := newTestEnv(t, WithAnalyzer(stubAnalyzer{err: tc.err}))
		a, err := env.svc.Analyze(context.Background(), "source.txt", []byte("some text"))
		if err != nil {
			t.Fatalf("Analyze(%v): %v", tc.err, err)
		}
		if a.ErrorKind != tc.kind || a.Text != "some text" || a.Table.Len() != 0 {
			t.Errorf("Analyze(%v) = %+v, want kind %q", tc.err, a, tc.kind)
		}
	}
}

func TestAnalyze_DefaultAnalyzerIsDisabled(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.svc.Analyze(context.Background(), "source.txt", []byte("text"))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.ErrorKind != FailureDisabled {
		t.Errorf("kind = %q, want %q", a.ErrorKind, FailureDisabled)
	}
}

func TestAnalyze_ExtractionErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.svc.Analyze(ctx, "data.xls", []byte("x")); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := env.svc.Analyze(ctx, "blank.txt", []byte(" \n\t")); !errors.Is(err, apperr.ErrEmptyDocument) {
		t.Errorf("err = %v, want ErrEmptyDocument", err)
	}
}

func TestExport_WritesRecordsAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.svc.Export(context.Background(), ExportRequest{
		Template: "letter",
		Text:     "Dear Acme,\nThanks.",
		Format:   export.DOCX,
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !res.OK() {
		t.Fatalf("export failed: %v", res.Err)
	}
	if want := filepath.Join(env.exportDir, "letter_filled.docx"); res.Path != want {
		t.Errorf("path = %q, want %q", res.Path, want)
	}
	if res.Paragraphs != 2 {
		t.Errorf("paragraphs = %d, want 2", res.Paragraphs)
	}

	recs, _ := env.db.ListExports(10)
	if len(recs) != 1 || !recs[0].OK || recs[0].Template != "letter" {
		t.Errorf("history = %+v", recs)
	}
	if len(env.events.recs) != 1 || env.events.recs[0].ID != recs[0].ID {
		t.Errorf("published = %+v", env.events.recs)
	}

	p, err := env.svc.ExportPath("letter_filled.docx")
	if err != nil || p != res.Path {
		t.Errorf("ExportPath = %q, %v", p, err)
	}
}

func TestExport_RejectsEmptyText(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Export(context.Background(), ExportRequest{Text: "  \n ", Format: export.PDF})
	if !errors.Is(err, apperr.ErrEmptyDocument) {
		t.Errorf("err = %v, want ErrEmptyDocument", err)
	}
	if _, statErr := os.Stat(env.exportDir); statErr == nil {
		entries, _ := os.ReadDir(env.exportDir)
		if len(entries) != 0 {
			t.Errorf("files written for empty text: %v", entries)
		}
	}
}

func TestExport_BadFormatAndName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.svc.Export(ctx, ExportRequest{Text: "x", Format: "odt"}); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := env.svc.Export(ctx, ExportRequest{Text: "x", Name: "../evil", Format: export.PDF}); !errors.Is(err, apperr.ErrInvalidName) {
		t.Errorf("err = %v, want ErrInvalidName", err)
	}
}

func TestExport_WriteFailureIsRecorded(t *testing.T) {
	env := newTestEnv(t)
	// A regular file where the export directory should be.
	if err := os.WriteFile(env.exportDir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := env.svc.Export(context.Background(), ExportRequest{Text: "hello", Format: export.PDF})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.OK() {
		t.Fatal("expected write failure")
	}
	recs, _ := env.db.ListExports(10)
	if len(recs) != 1 || recs[0].OK || recs[0].Error == "" {
		t.Errorf("history = %+v", recs)
	}
}

func TestExportPath_Rejects(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"../etc/passwd", ".hidden.pdf", "missing.pdf"} {
		if _, err := env.svc.ExportPath(name); err == nil {
			t.Errorf("ExportPath(%q) should fail", name)
		}
	}
	if _, err := env.svc.ExportPath("notes.txt"); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestOutputName(t *testing.T) {
	cases := map[ExportRequest]string{
		{Name: "final"}:                     "final",
		{Template: "letter"}:                "letter_filled",
		{}:                                  "document",
		{Name: "final", Template: "letter"}: "final",
	}
	for req, want := range cases {
		if got := req.OutputName(); got != want {
			t.Errorf("OutputName(%+v) = %q, want %q", req, got, want)
		}
	}
}
