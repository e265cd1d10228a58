package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/docfill/internal/analysis"
	"github.com/starford/docfill/internal/docfill"
	"github.com/starford/docfill/internal/export"
	"github.com/starford/docfill/internal/placeholder"
)

// FillOptions describes a one-shot fill from the command line.
type FillOptions struct {
	TemplatePath string
	AnalysisPath string
	// Values are FIELD=VALUE overrides.
	Values []string
	Format string
	// Out defaults to "<template stem>_filled.<ext>" next to the template.
	Out string
}

// FillFile renders a template file with an optional analysis file and
// overrides, and writes the result as a document. A malformed analysis file
// is not an error; its parse error is reported in Filled.AnalysisError.
func FillFile(opts FillOptions) (*docfill.Filled, export.Result, error) {
	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		return nil, export.Result{}, err
	}
	overrides, err := ParseValues(opts.Values)
	if err != nil {
		return nil, export.Result{}, err
	}

	tpl, err := os.ReadFile(opts.TemplatePath)
	if err != nil {
		return nil, export.Result{}, fmt.Errorf("read template: %w", err)
	}

	var (
		v           analysis.Value
		analysisErr string
	)
	if opts.AnalysisPath != "" {
		data, err := os.ReadFile(opts.AnalysisPath)
		if err != nil {
			return nil, export.Result{}, fmt.Errorf("read analysis: %w", err)
		}
		// A malformed analysis fills from overrides alone.
		if v, err = analysis.Parse(data); err != nil {
			slog.Warn("analysis unreadable, continuing without it",
				slog.String("path", opts.AnalysisPath),
				slog.String("error", err.Error()))
			v, analysisErr = analysis.Value{}, err.Error()
		}
	}

	filled := docfill.FillText(string(tpl), v, overrides)
	filled.AnalysisError = analysisErr

	out := opts.Out
	if out == "" {
		stem := strings.TrimSuffix(filepath.Base(opts.TemplatePath), filepath.Ext(opts.TemplatePath))
		out = filepath.Join(filepath.Dir(opts.TemplatePath), stem+"_filled"+format.Ext())
	}
	res := export.Write(format, filled.Text, out)
	if !res.OK() {
		return filled, res, res.Err
	}
	return filled, res, nil
}

// ParseValues turns FIELD=VALUE pairs into overrides. The value may be empty
// and may contain further "=" signs.
func ParseValues(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		field, value, ok := strings.Cut(p, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid value %q, want FIELD=VALUE", p)
		}
		out[field] = value
	}
	return out, nil
}

// TemplateFields scans a template file.
func TemplateFields(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return placeholder.Scan(string(data)), nil
}
