// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes DevFlow analytics and digest tools for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/devflow/internal/apperr"
	"github.com/starford/devflow/internal/insights"
	"github.com/starford/devflow/internal/storage"
)

// BundleFormatURI is the resource holding the bundle format contract.
const BundleFormatURI = "devflow://bundle-format"

// Deps are the services the MCP tools use.
type Deps struct {
	Insights *insights.Service
	// UserID owns the digests read and generated over MCP.
	UserID string
	// Files and Sync enable the import_bundle tool when Files is non-nil.
	Files storage.Provider
	Sync  func(ctx context.Context) error
}

// Server wraps the MCP server with DevFlow tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *insights.Service
	userID string
	files  storage.Provider
	sync   func(ctx context.Context) error
}

// New creates a new MCP server with all DevFlow tools registered.
func New(d Deps) *Server {
	s := &Server{svc: d.Insights, userID: d.UserID, files: d.Files, sync: d.Sync}

	s.mcp = server.NewMCPServer(
		"DevFlow",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_activity_overview",
		mcp.WithDescription("Current and longest daily streak, number of active days, "+
			"per-day activity timeline and the ranked tech stack."),
		mcp.WithNumber("days", mcp.Description("Timeline length in days (default 30)")),
	), s.getOverview)

	s.mcp.AddTool(mcp.NewTool("get_activity_timeline",
		mcp.WithDescription("Per-day counts of project, note and snippet activity for the "+
			"trailing window ending yesterday."),
		mcp.WithNumber("days", mcp.Description("Timeline length in days (default 30)")),
	), s.getTimeline)

	s.mcp.AddTool(mcp.NewTool("get_tech_ranking",
		mcp.WithDescription("Most used technologies and snippet languages, at most 15, by frequency."),
	), s.getTechRanking)

	s.mcp.AddTool(mcp.NewTool("get_weekly_payload",
		mcp.WithDescription("Plain-text summary of this week's (Monday to Sunday) projects, notes and snippets."),
	), s.getWeeklyPayload)

	s.mcp.AddTool(mcp.NewTool("get_weekly_digest",
		mcp.WithDescription("The last generated weekly digest."),
	), s.getWeeklyDigest)

	s.mcp.AddTool(mcp.NewTool("generate_weekly_digest",
		mcp.WithDescription("Generate a new weekly digest from this week's activity and store it, "+
			"replacing the previous one."),
	), s.generateWeeklyDigest)

	s.mcp.AddTool(mcp.NewTool("get_bundle_contract",
		mcp.WithDescription("Returns the DevFlow record bundle format contract. "+
			"Call this before writing a bundle for import_bundle."),
	), s.getBundleContract)

	if s.files != nil {
		s.mcp.AddTool(mcp.NewTool("import_bundle",
			mcp.WithDescription("Store a YAML record bundle in the import directory and import it. "+
				"Content MUST follow the bundle format contract (get_bundle_contract or the "+
				BundleFormatURI+" resource). Pass either content or url."),
			mcp.WithString("content", mcp.Description("Bundle YAML")),
			mcp.WithString("url", mcp.Description("http(s) URL or base64 data URI of a bundle")),
			mcp.WithString("filename", mcp.Description("Target file name ending in .yaml or .yml")),
		), s.importBundle)
	}

	s.mcp.AddResource(
		mcp.NewResource(BundleFormatURI, "Bundle Format Contract",
			mcp.WithResourceDescription("YAML format for importing projects, notes and snippets."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readBundleFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func daysArg(req mcp.CallToolRequest) (int, error) {
	days := req.GetInt("days", 0)
	if days < 0 || days > 366 {
		return 0, fmt.Errorf("days must be between 1 and 366")
	}
	return days, nil
}

func (s *Server) getOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, err := daysArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ov, err := s.svc.Overview(ctx, days)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(ov)
}

func (s *Server) getTimeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, err := daysArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tl, err := s.svc.Timeline(ctx, days)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tl)
}

func (s *Server) getTechRanking(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ranked, err := s.svc.TechStack(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(ranked)
}

func (s *Server) getWeeklyPayload(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wp, err := s.svc.WeekPayload(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(wp.Payload), nil
}

func (s *Server) getWeeklyDigest(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.svc.Digest(ctx, s.userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultText("no digest generated yet; call generate_weekly_digest"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(d)
}

func (s *Server) generateWeeklyDigest(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.svc.GenerateDigest(ctx, s.userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(d)
}

func (s *Server) getBundleContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(BundleFormatContract), nil
}

func (s *Server) readBundleFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      BundleFormatURI,
			MIMEType: "text/markdown",
			Text:     BundleFormatContract,
		},
	}, nil
}
