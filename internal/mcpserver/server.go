// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes docfill tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/docfill/internal/analysis"
	"github.com/starford/docfill/internal/docfill"
	"github.com/starford/docfill/internal/export"
	"github.com/starford/docfill/internal/placeholder"
)

const syntaxURI = "docfill://placeholder-syntax"

// Server wraps the MCP server with docfill tools.
type Server struct {
	mcp *server.MCPServer
	svc *docfill.Service
}

// New creates a new MCP server with all docfill tools registered.
func New(svc *docfill.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"docfill",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List catalogued templates with their placeholder fields."),
	), s.listTemplates)

	s.mcp.AddTool(mcp.NewTool("read_template",
		mcp.WithDescription("Read the raw text of a template."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Template name without extension")),
	), s.readTemplate)

	s.mcp.AddTool(mcp.NewTool("search_templates",
		mcp.WithDescription("Full-text search through template names, text and fields."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchTemplates)

	s.mcp.AddTool(mcp.NewTool("scan_fields",
		mcp.WithDescription("List the distinct [FIELD] placeholders of a stored template, "+
			"or of inline text, in order of first appearance."),
		mcp.WithString("name", mcp.Description("Template name")),
		mcp.WithString("text", mcp.Description("Inline template text (used when name is empty)")),
	), s.scanFields)

	s.mcp.AddTool(mcp.NewTool("resolve_fields",
		mcp.WithDescription("Match the fields of a template against an analysis document "+
			"(JSON or YAML) and return the proposed value per field."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Template name")),
		mcp.WithString("analysis", mcp.Description("Analysis document as JSON or YAML text")),
	), s.resolveFields)

	s.mcp.AddTool(mcp.NewTool("render_template",
		mcp.WithDescription("Render a template. Values from the optional analysis are used "+
			"first; the values object overrides them per field. Read the placeholder "+
			"syntax via get_placeholder_syntax or the "+syntaxURI+" resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Template name")),
		mcp.WithString("analysis", mcp.Description("Analysis document as JSON or YAML text")),
		mcp.WithString("values", mcp.Description(`JSON object of field overrides, e.g. {"CLIENT_NAME":"Acme"}`)),
	), s.renderTemplate)

	s.mcp.AddTool(mcp.NewTool("export_document",
		mcp.WithDescription("Write rendered text as a PDF or DOCX document in the export directory."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Rendered document text")),
		mcp.WithString("format", mcp.Required(), mcp.Description("pdf or docx")),
		mcp.WithString("template", mcp.Description("Template the text came from")),
		mcp.WithString("name", mcp.Description("Output file name without extension")),
	), s.exportDocument)

	s.mcp.AddTool(mcp.NewTool("analyze_document",
		mcp.WithDescription("Fetch a source document (.txt, .docx, .pdf) from an http(s) URL "+
			"or a base64 data URI, extract its text and analyse it."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI")),
		mcp.WithString("filename", mcp.Description("File name used to pick the text extractor")),
	), s.analyzeDocument)

	s.mcp.AddTool(mcp.NewTool("get_placeholder_syntax",
		mcp.WithDescription("Returns the placeholder syntax and resolution rules."),
	), s.getPlaceholderSyntax)

	// Resource: placeholder syntax.
	s.mcp.AddResource(
		mcp.NewResource(syntaxURI, "Placeholder Syntax",
			mcp.WithResourceDescription("How [FIELD] placeholders are written, resolved and rendered."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func optString(req mcp.CallToolRequest, key string) string {
	v, err := req.RequireString(key)
	if err != nil {
		return ""
	}
	return v
}

// parseAnalysisArg returns the absent analysis, plus the parse error text,
// when the argument cannot be read.
func parseAnalysisArg(req mcp.CallToolRequest) (analysis.Value, string) {
	raw := optString(req, "analysis")
	if raw == "" {
		return analysis.Value{}, ""
	}
	v, err := analysis.Parse([]byte(raw))
	if err != nil {
		slog.Warn("analysis unreadable, continuing without it",
			slog.String("tool", req.Params.Name),
			slog.String("error", err.Error()))
		return analysis.Value{}, err.Error()
	}
	return v, ""
}

func (s *Server) listTemplates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.svc.ListTemplates(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no templates"), nil
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s: %s", r.Name, strings.Join(r.Fields, ", ")))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tpl, err := s.svc.GetTemplate(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
	}
	return mcp.NewToolResultText(tpl.Content), nil
}

func (s *Server) searchTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) scanFields(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var fields []string
	if name := optString(req, "name"); name != "" {
		var err error
		fields, err = s.svc.Fields(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	} else if text := optString(req, "text"); text != "" {
		fields = placeholder.Scan(text)
	} else {
		return mcp.NewToolResultError("name or text is required"), nil
	}
	if len(fields) == 0 {
		return mcp.NewToolResultText("no fields"), nil
	}
	return mcp.NewToolResultText(strings.Join(fields, "\n")), nil
}

func (s *Server) resolveFields(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, analysisErr := parseAnalysisArg(req)
	p, err := s.svc.Prepare(ctx, name, v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := map[string]any{
		"mapping":    p.Mapping,
		"unresolved": p.Unresolved,
	}
	if analysisErr != "" {
		out["analysis_error"] = analysisErr
	}
	return jsonResult(out), nil
}

func (s *Server) renderTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, analysisErr := parseAnalysisArg(req)
	var overrides map[string]string
	if raw := optString(req, "values"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("values must be a JSON object of strings: %v", err)), nil
		}
	}
	f, err := s.svc.Fill(ctx, name, v, overrides)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f.AnalysisError = analysisErr
	return jsonResult(f), nil
}

func (s *Server) exportDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Export(ctx, docfill.ExportRequest{
		Template: optString(req, "template"),
		Name:     optString(req, "name"),
		Text:     text,
		Format:   export.Format(format),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.OK() {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", res.Err)), nil
	}
	return jsonResult(res), nil
}

func (s *Server) getPlaceholderSyntax(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PlaceholderSyntax), nil
}

func (s *Server) readSyntaxResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      syntaxURI,
			MIMEType: "text/markdown",
			Text:     PlaceholderSyntax,
		},
	}, nil
}
