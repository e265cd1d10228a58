// Package extract turns uploaded source documents into text and asks an AI
// backend for a structured analysis of that text.
package extract

import (
	"context"
	"strings"

	"github.com/starford/docfill/internal/analysis"
	"github.com/starford/docfill/internal/apperr"
)

// TextExtractor pulls plain text out of an uploaded file.
type TextExtractor interface {
	Text(ctx context.Context, filename string, data []byte) (string, error)
}

// Analyzer produces a nested analysis of document text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (analysis.Value, error)
}

// Disabled is the Analyzer used when no backend is configured.
type Disabled struct{}

func (Disabled) Analyze(context.Context, string) (analysis.Value, error) {
	return analysis.Value{}, apperr.ErrExtractorDisabled
}

// IsQuotaMessage reports whether a backend message signals an exhausted
// quota or rate limit.
func IsQuotaMessage(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "429") ||
		strings.Contains(lower, "quota") ||
		strings.Contains(lower, "exhausted")
}

// Prompt builds the extraction request sent to the model.
func Prompt(documentText string) string {
	var b strings.Builder
	b.WriteString("Extract key information from the following document:\n\n")
	b.WriteString(documentText)
	b.WriteString("\n\nIdentify and structure the following information in a JSON format:\n")
	b.WriteString("- Names of people or organizations\n")
	b.WriteString("- Dates\n")
	b.WriteString("- Addresses\n")
	b.WriteString("- Contact information\n")
	b.WriteString("- Financial information (if present)\n")
	b.WriteString("- Key topics or subjects\n")
	b.WriteString("- Any important statements or claims\n")
	b.WriteString("\nRespond with a single JSON object and nothing else.\n")
	return b.String()
}
