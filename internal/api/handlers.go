package api

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/docfill/internal/analysis"
	"github.com/starford/docfill/internal/docfill"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docfill.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docfill.Service) *Handler {
	return &Handler{svc: svc}
}

// ListTemplates handles GET /api/templates.
//
//	@Summary		List catalogued templates
//	@Tags			templates
//	@Produce		json
//	@Success		200	{object}	TemplateListResponse
//	@Security		BearerAuth
//	@Router			/templates [get]
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListTemplates(r.Context())
	if err != nil {
		writeError(w, "list templates", err)
		return
	}
	writeJSON(w, http.StatusOK, TemplateListResponse{Templates: rows, Total: len(rows)})
}

// GetTemplate handles GET /api/templates/{name}.
//
//	@Summary		Get a template with its fields
//	@Tags			templates
//	@Produce		json
//	@Param			name	path		string	true	"Template name"
//	@Success		200		{object}	models.Template
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/{name} [get]
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	tpl, err := h.svc.GetTemplate(r.Context(), name)
	if err != nil {
		writeError(w, "get template", err, slog.String("template", name))
		return
	}
	w.Header().Set("ETag", `"`+tpl.Checksum+`"`)
	writeJSON(w, http.StatusOK, tpl)
}

// PutTemplate handles PUT /api/templates/{name}.
//
//	@Summary		Create or replace a template
//	@Tags			templates
//	@Accept			json
//	@Produce		json
//	@Param			name		path	string				true	"Template name"
//	@Param			If-Match	header	string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	PutTemplateRequest	true	"Template text"
//	@Success		200			{object}	models.Template
//	@Success		201			{object}	models.Template
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/{name} [put]
func (h *Handler) PutTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req PutTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	tpl, created, err := h.svc.PutTemplate(r.Context(), name, []byte(req.Content), ifMatch)
	if err != nil {
		writeError(w, "put template", err, slog.String("template", name))
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	w.Header().Set("ETag", `"`+tpl.Checksum+`"`)
	writeJSON(w, status, tpl)
}

// DeleteTemplate handles DELETE /api/templates/{name}.
//
//	@Summary		Delete a template
//	@Tags			templates
//	@Param			name	path	string	true	"Template name"
//	@Success		204		"Template deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/{name} [delete]
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.svc.DeleteTemplate(r.Context(), name); err != nil {
		writeError(w, "delete template", err, slog.String("template", name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Fields handles GET /api/templates/{name}/fields.
//
//	@Summary		List the placeholder fields of a template
//	@Tags			templates
//	@Produce		json
//	@Param			name	path		string	true	"Template name"
//	@Success		200		{object}	FieldsResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/templates/{name}/fields [get]
func (h *Handler) Fields(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	fields, err := h.svc.Fields(r.Context(), name)
	if err != nil {
		writeError(w, "scan fields", err, slog.String("template", name))
		return
	}
	writeJSON(w, http.StatusOK, FieldsResponse{Name: name, Fields: fields})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across templates
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: nonNil(results)})
}

// Prepare handles POST /api/prepare.
//
//	@Summary		Resolve template fields against an analysis for review
//	@Tags			fill
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FillRequest	true	"Template and analysis"
//	@Success		200		{object}	docfill.Preparation
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/prepare [post]
func (h *Handler) Prepare(w http.ResponseWriter, r *http.Request) {
	var req FillRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, analysisErr := parseAnalysis(&req)
	var (
		p   *docfill.Preparation
		err error
	)
	if req.Template != "" {
		p, err = h.svc.Prepare(r.Context(), req.Template, v)
	} else {
		p = docfill.PrepareText(req.Text, v)
	}
	if err != nil {
		writeError(w, "prepare", err, slog.String("template", req.Template))
		return
	}
	p.AnalysisError = analysisErr
	writeJSON(w, http.StatusOK, p)
}

// Fill handles POST /api/fill.
//
//	@Summary		Render a template from an analysis and overrides
//	@Tags			fill
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FillRequest	true	"Template, analysis and values"
//	@Success		200		{object}	docfill.Filled
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/fill [post]
func (h *Handler) Fill(w http.ResponseWriter, r *http.Request) {
	var req FillRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	v, analysisErr := parseAnalysis(&req)
	var (
		f   *docfill.Filled
		err error
	)
	if req.Template != "" {
		f, err = h.svc.Fill(r.Context(), req.Template, v, req.Values)
	} else {
		f = docfill.FillText(req.Text, v, req.Values)
	}
	if err != nil {
		writeError(w, "fill", err, slog.String("template", req.Template))
		return
	}
	f.AnalysisError = analysisErr
	writeJSON(w, http.StatusOK, f)
}

// Export handles POST /api/export.
//
//	@Summary		Write rendered text as a PDF or DOCX document
//	@Tags			export
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExportRequest	true	"Text and format"
//	@Success		201		{object}	ExportResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export [post]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Export(r.Context(), req.ToService())
	if err != nil {
		writeError(w, "export", err)
		return
	}
	if !res.OK() {
		writeJSON(w, http.StatusInternalServerError, errorBody("export failed: "+res.Err.Error()))
		return
	}
	file := filepath.Base(res.Path)
	writeJSON(w, http.StatusCreated, ExportResponse{
		File:       file,
		Format:     string(res.Format),
		Size:       res.Size,
		Pages:      res.Pages,
		Paragraphs: res.Paragraphs,
		URL:        "/api/exports/" + file,
	})
}

// ListExports handles GET /api/exports.
//
//	@Summary		List recent exports
//	@Tags			export
//	@Produce		json
//	@Param			limit	query	int	false	"Max records"
//	@Success		200		{array}	models.ExportRecord
//	@Security		BearerAuth
//	@Router			/exports [get]
func (h *Handler) ListExports(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recs, err := h.svc.ListExports(r.Context(), limit)
	if err != nil {
		writeError(w, "list exports", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exports": recs})
}

// parseAnalysis never fails the request: an unreadable payload is logged and
// replaced by the absent analysis, and its error text is returned for the
// response body.
func parseAnalysis(req *FillRequest) (analysis.Value, string) {
	v, err := req.ParsedAnalysis()
	if err != nil {
		slog.Warn("analysis unreadable, continuing without it",
			slog.String("template", req.Template),
			slog.String("error", err.Error()))
		return analysis.Value{}, err.Error()
	}
	return v, ""
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
