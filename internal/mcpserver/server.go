// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the studio collections to LLM tooling via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vfxhub/internal/gateway"
	"github.com/starford/vfxhub/internal/query"
	"github.com/starford/vfxhub/internal/studio"
)

// TextGenerator runs a validated text request. *gateway.Gateway
// implements it.
type TextGenerator interface {
	GenerateText(ctx context.Context, req gateway.TextRequest) (*gateway.TextResult, error)
}

// Options holds the optional collaborators. Tools whose collaborator is nil
// are not registered.
type Options struct {
	Files   FileStore
	Fetcher gateway.FileStreamer
	Text    TextGenerator
}

// Server wraps the MCP server with studio tools.
type Server struct {
	mcp    *server.MCPServer
	studio *studio.Service
	opts   Options
}

// New creates a new MCP server with the studio tools registered.
func New(svc *studio.Service, opts Options) *Server {
	s := &Server{studio: svc, opts: opts}

	s.mcp = server.NewMCPServer(
		"vfxhub",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_projects",
		mcp.WithDescription("List projects, optionally filtered by a search term and status."),
		mcp.WithString("query", mcp.Description("Case-insensitive text matched against title, client and description")),
		mcp.WithString("status", mcp.Description("Project status"),
			mcp.Enum("pre-production", "in-progress", "review", "complete")),
		mcp.WithBoolean("sort_by_due", mcp.Description("Order by due date, earliest first")),
	), s.searchProjects)

	s.mcp.AddTool(mcp.NewTool("list_assets",
		mcp.WithDescription("List assets with their project titles."),
		mcp.WithString("query", mcp.Description("Text matched against file name and tags")),
		mcp.WithString("type", mcp.Description("Asset category"),
			mcp.Enum("all", "image", "video", "model", "other")),
		mcp.WithString("project_id", mcp.Description("Project Id, or all")),
	), s.listAssets)

	s.mcp.AddTool(mcp.NewTool("list_milestones",
		mcp.WithDescription("List milestones in due date order."),
		mcp.WithString("query", mcp.Description("Text matched against title and description")),
		mcp.WithString("project_id", mcp.Description("Project Id, or all")),
		mcp.WithString("bucket", mcp.Description("Status bucket"),
			mcp.Enum("all", "completed", "pending", "overdue", "today")),
	), s.listMilestones)

	s.mcp.AddTool(mcp.NewTool("milestone_counts",
		mcp.WithDescription("Count milestones per status bucket."),
		mcp.WithString("project_id", mcp.Description("Project Id, or all")),
	), s.milestoneCounts)

	s.mcp.AddTool(mcp.NewTool("get_query_guide",
		mcp.WithDescription("Returns how the list tools filter and order records. "+
			"Call this before building queries."),
	), s.getQueryGuide)

	if opts.Files != nil {
		s.mcp.AddTool(mcp.NewTool("import_asset",
			mcp.WithDescription("Store a file from an http(s) or data: URL and register it as an asset."),
			mcp.WithString("url", mcp.Required(), mcp.Description("Source URL or base64 data URL")),
			mcp.WithString("filename", mcp.Description("Stored file name; derived from the URL when empty")),
			mcp.WithString("mime_type", mcp.Description("Content type; detected when empty")),
			mcp.WithNumber("project_id", mcp.Description("Project the asset belongs to")),
			mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		), s.importAsset)
	}

	if opts.Text != nil {
		s.mcp.AddTool(mcp.NewTool("generate_text",
			mcp.WithDescription("Generate text through the configured OpenAI model."),
			mcp.WithString("prompt", mcp.Required(), mcp.Description("Prompt text")),
			mcp.WithString("type", mcp.Description("Generation type"),
				mcp.Enum(gateway.TextChat, gateway.TextCompletion, gateway.TextAnalysis, gateway.TextGeneration)),
			mcp.WithNumber("maxTokens", mcp.Description("1 to 4000, default 1000")),
			mcp.WithNumber("temperature", mcp.Description("0 to 2, default 0.7")),
			mcp.WithString("model", mcp.Description("Model name")),
		), s.generateText)
	}

	s.mcp.AddResource(
		mcp.NewResource("vfxhub://query-guide", "Query Guide",
			mcp.WithResourceDescription("Filter and ordering rules of the list tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readQueryGuideResource,
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

func (s *Server) searchProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.studio.ListProjects(ctx, query.Criteria{
		Search:    req.GetString("query", ""),
		Category:  req.GetString("status", ""),
		SortByDue: req.GetBool("sort_by_due", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) listAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.studio.ListAssets(ctx, query.Criteria{
		Search:    req.GetString("query", ""),
		Category:  req.GetString("type", ""),
		ProjectID: relation(req.GetString("project_id", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) listMilestones(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bucket, err := query.ParseBucket(req.GetString("bucket", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.studio.ListMilestones(ctx, query.Criteria{
		Search:    req.GetString("query", ""),
		ProjectID: relation(req.GetString("project_id", "")),
		Bucket:    bucket,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) milestoneCounts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts, err := s.studio.MilestoneCounts(ctx, relation(req.GetString("project_id", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(counts)
}

func (s *Server) generateText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	textReq, err := gateway.ParseTextRequest(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.opts.Text.GenerateText(ctx, textReq)
	if err != nil {
		var pe *gateway.ProviderError
		if errors.As(err, &pe) {
			return mcp.NewToolResultError(pe.Message), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(res.Content), nil
}

func (s *Server) getQueryGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(QueryGuide), nil
}

func (s *Server) readQueryGuideResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "vfxhub://query-guide",
			MIMEType: "text/markdown",
			Text:     QueryGuide,
		},
	}, nil
}

// relation maps the "all" sentinel used by the UI filters to an empty
// relation filter.
func relation(projectID string) string {
	if projectID == "all" {
		return ""
	}
	return projectID
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
