// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes pdfmcr page and annotation tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/pdfmcr/internal/apperr"
	"github.com/starford/pdfmcr/internal/model"
	"github.com/starford/pdfmcr/internal/pageservice"
)

const formatURI = "pdfmcr://annotation-format"

// Server wraps the MCP server with pdfmcr tools.
type Server struct {
	mcp *server.MCPServer
	svc *pageservice.Service
}

// New creates a new MCP server with all pdfmcr tools registered.
func New(svc *pageservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"pdfmcr",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the pages of the document in order, with image path, size in points and label counts."),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Get one page: its index, the page count, image details, size in points and annotations."),
		mcp.WithNumber("page", mcp.Required(), mcp.Description("0-based page index")),
	), s.getPage)

	s.mcp.AddTool(mcp.NewTool("get_page_annotations",
		mcp.WithDescription("Read the annotation payload of a page as JSON."),
		mcp.WithNumber("page", mcp.Required(), mcp.Description("0-based page index")),
	), s.getPageAnnotations)

	s.mcp.AddTool(mcp.NewTool("set_page_annotations",
		mcp.WithDescription("Replace the annotation payload of a page. "+
			"The payload MUST follow the annotation format contract. Read the contract first via "+
			"the get_annotation_format tool or the "+formatURI+" resource."),
		mcp.WithNumber("page", mcp.Required(), mcp.Description("0-based page index")),
		mcp.WithString("annotations", mcp.Required(), mcp.Description("JSON object with annotations and artifacts arrays")),
	), s.setPageAnnotations)

	s.mcp.AddTool(mcp.NewTool("get_annotation_format",
		mcp.WithDescription("Returns the annotation format contract. "+
			"Call this before setting annotations to ensure correct structure."),
	), s.getAnnotationFormat)

	s.mcp.AddTool(mcp.NewTool("add_page",
		mcp.WithDescription("Append a page whose background is a scanned JPEG, given as a base64 data URI or an http(s) URL."),
		mcp.WithString("url", mcp.Required(), mcp.Description("data:image/jpeg;base64,... or https://... URL of a JFIF JPEG")),
	), s.addPage)

	// Resource: annotation format contract.
	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Annotation Format Contract",
			mcp.WithResourceDescription("JSON shape of the annotations and artifacts of a page."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
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

func pageError(n int, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("page not found: %d", n))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := s.svc.ListPages(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(pages) == 0 {
		return mcp.NewToolResultText("no pages"), nil
	}
	return jsonResult(pages), nil
}

func (s *Server) getPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := req.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.GetPage(ctx, n)
	if err != nil {
		return pageError(n, err), nil
	}
	return jsonResult(page), nil
}

func (s *Server) getPageAnnotations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := req.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.Annotations(ctx, n)
	if err != nil {
		return pageError(n, err), nil
	}
	out, err := model.Encode(p)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) setPageAnnotations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := req.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("annotations")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := model.Decode([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SaveAnnotations(ctx, n, p); err != nil {
		return pageError(n, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved page %d: %d annotations, %d artifacts",
		n, len(p.Annotations), len(p.Artifacts))), nil
}

func (s *Server) getAnnotationFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(AnnotationFormatContract), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     AnnotationFormatContract,
		},
	}, nil
}
