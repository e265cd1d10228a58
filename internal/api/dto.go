package api

import (
	"encoding/json"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/docfill/internal/analysis"
	"github.com/starford/docfill/internal/docfill"
	"github.com/starford/docfill/internal/export"
	"github.com/starford/docfill/internal/index"
	"github.com/starford/docfill/internal/storage"
)

var errBadName = errors.New("must be a plain name without path separators or a leading dot")

func validName(value any) error {
	s, _ := value.(string)
	if s == "" || storage.ValidName(s) {
		return nil
	}
	return errBadName
}

// PutTemplateRequest is the request body for creating or replacing a template.
type PutTemplateRequest struct {
	Content string `json:"content" example:"Dear [CLIENT_NAME]," validate:"required"`
}

// Validate checks the request.
func (r *PutTemplateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.Required),
	)
}

// FillRequest names a stored template or carries template text inline, plus
// an optional analysis and per-field overrides.
//
// Analysis is either a JSON document or a JSON string holding raw model
// output (possibly fenced); both go through analysis.Parse.
type FillRequest struct {
	Template string            `json:"template,omitempty" example:"letter"`
	Text     string            `json:"text,omitempty" example:"Dear [CLIENT_NAME],"`
	Analysis json.RawMessage   `json:"analysis,omitempty"`
	Values   map[string]string `json:"values,omitempty"`
}

// Validate checks the request.
func (r *FillRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Template, validation.Required.When(r.Text == "").Error("template or text is required"), validation.By(validName)),
	)
}

// ParsedAnalysis decodes the analysis payload. A missing or null payload is
// the absent analysis.
func (r *FillRequest) ParsedAnalysis() (analysis.Value, error) {
	raw := r.Analysis
	if len(raw) == 0 || string(raw) == "null" {
		return analysis.Value{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return analysis.Value{}, err
		}
		return analysis.Parse([]byte(s))
	}
	return analysis.Parse(raw)
}

// ExportRequest is the request body for POST /api/export.
type ExportRequest struct {
	Template string `json:"template,omitempty" example:"letter"`
	Name     string `json:"name,omitempty" example:"letter_acme"`
	Text     string `json:"text" example:"Dear Acme," validate:"required"`
	Format   string `json:"format" example:"pdf" validate:"required"`
}

// Validate checks the request.
func (r *ExportRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, validation.Required),
		validation.Field(&r.Format, validation.Required, validation.By(validFormat)),
		validation.Field(&r.Template, validation.By(validName)),
		validation.Field(&r.Name, validation.By(validName)),
	)
}

func validFormat(v any) error {
	s, _ := v.(string)
	_, err := export.ParseFormat(s)
	return err
}

// ToService converts the request to the service form.
func (r *ExportRequest) ToService() docfill.ExportRequest {
	return docfill.ExportRequest{
		Template: r.Template,
		Name:     r.Name,
		Text:     r.Text,
		Format:   export.Format(r.Format),
	}
}

// ExportResponse describes a written document.
type ExportResponse struct {
	File       string `json:"file" example:"letter_filled.pdf" validate:"required"`
	Format     string `json:"format" example:"pdf" validate:"required"`
	Size       int64  `json:"size" example:"2048" validate:"required"`
	Pages      int    `json:"pages,omitempty" example:"1"`
	Paragraphs int    `json:"paragraphs,omitempty"`
	URL        string `json:"url" example:"/api/exports/letter_filled.pdf" validate:"required"`
}

// TemplateListResponse wraps catalog listings.
type TemplateListResponse struct {
	Templates []index.TemplateRow `json:"templates" validate:"required"`
	Total     int                 `json:"total" example:"3" validate:"required"`
}

// FieldsResponse lists the fields of a template.
type FieldsResponse struct {
	Name   string   `json:"name" example:"letter" validate:"required"`
	Fields []string `json:"fields" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}
