package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/starford/docfill/internal/apperr"
	"github.com/starford/docfill/internal/export"
)

const maxUploadBytes = 50 << 20 // 50 MB

// Analyze handles POST /api/analyze (multipart/form-data, field "file").
// The response carries the extracted text and, when the AI step worked, the
// flattened analysis; otherwise error_kind is quota, disabled or failed.
//
//	@Summary		Extract text from a source document and analyse it
//	@Tags			analyze
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Source document (.txt, .docx, .pdf)"
//	@Success		200		{object}	docfill.Analysis
//	@Failure		400		{object}	errResponse
//	@Failure		415		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analyze [post]
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}

	filename := filepath.Base(header.Filename)
	res, err := h.svc.Analyze(r.Context(), filename, data)
	if err != nil {
		if errors.Is(err, apperr.ErrUnsupportedFormat) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorBody("unsupported file type; use .txt, .docx or .pdf"))
			return
		}
		writeError(w, "analyze", err, slog.String("filename", filename))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DownloadExport handles GET /api/exports/{file}.
//
//	@Summary		Download an exported document
//	@Tags			export
//	@Produce		application/pdf
//	@Produce		application/vnd.openxmlformats-officedocument.wordprocessingml.document
//	@Param			file	path	string	true	"File name"
//	@Success		200
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exports/{file} [get]
func (h *Handler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	path, err := h.svc.ExportPath(file)
	if err != nil {
		writeError(w, "download export", err, slog.String("file", file))
		return
	}
	format, _ := export.ParseFormat(filepath.Ext(file))
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+file+`"`)
	http.ServeFile(w, r, path)
}
