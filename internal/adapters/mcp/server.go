// Package mcp provides the MCP (Model Context Protocol) server exposing the
// watcher's commands as tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/ports"
	"github.com/xvierd/commitwatch/internal/services"
)

const (
	serverName     = "commitwatch"
	defaultHistory = 20
	maxHistory     = 500
)

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server     *server.MCPServer
	controller ports.WatchController
	logger     *slog.Logger
	in         io.Reader
	out        io.Writer
}

// NewServer creates a new MCP server instance.
func NewServer(controller ports.WatchController, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		controller: controller,
		logger:     logger,
		in:         os.Stdin,
		out:        os.Stdout,
	}

	s.server = server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"check_now",
			mcp.WithDescription("Check the tracked remote branch for commits not present locally"),
		),
		s.handleCheckNow,
	)

	s.server.AddTool(
		mcp.NewTool(
			"start_watching",
			mcp.WithDescription("Start periodic checking for new remote commits"),
		),
		s.handleStartWatching,
	)

	s.server.AddTool(
		mcp.NewTool(
			"stop_watching",
			mcp.WithDescription("Stop periodic checking"),
		),
		s.handleStopWatching,
	)

	s.server.AddTool(
		mcp.NewTool(
			"show_remote_commit",
			mcp.WithDescription("Show the full details of a commit, by default the remote tip of the current branch"),
			mcp.WithString(
				"ref",
				mcp.Description("Optional commit-ish to describe instead of the remote tip"),
			),
		),
		s.handleShowRemoteCommit,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_status",
			mcp.WithDescription("Get the watcher state and the result of the last check"),
		),
		s.handleGetStatus,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_history",
			mcp.WithDescription("List recent checks, newest first"),
			mcp.WithNumber(
				"limit",
				mcp.Description("Maximum number of checks to return (default: 20)"),
			),
		),
		s.handleGetHistory,
	)
}

// Serve handles MCP requests on stdio until the client disconnects or ctx is
// canceled.
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.server)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	if err := stdio.Listen(ctx, s.in, s.out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve MCP: %w", err)
	}
	return nil
}

func (s *Server) handleCheckNow(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.controller.CheckNow(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to check: %v", err)), nil
	}

	result := reportView(report)
	result["summary"] = services.FormatReport(report)
	return jsonResult(result)
}

func (s *Server) handleStartWatching(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	err := s.controller.Start(ctx)
	if errors.Is(err, domain.ErrAlreadyWatching) {
		return mcp.NewToolResultText("already watching"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start watching: %v", err)), nil
	}

	status := s.controller.Status()
	return mcp.NewToolResultText(fmt.Sprintf("watching %s every %s", status.Remote, status.Interval)), nil
}

func (s *Server) handleStopWatching(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	err := s.controller.Stop()
	if errors.Is(err, domain.ErrNotWatching) {
		return mcp.NewToolResultText("not watching"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to stop watching: %v", err)), nil
	}
	return mcp.NewToolResultText("stopped watching"), nil
}

func (s *Server) handleShowRemoteCommit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := request.GetString("ref", "")

	detail, err := s.controller.ShowRemoteCommit(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to show commit: %v", err)), nil
	}
	return mcp.NewToolResultText(services.FormatDetails(detail)), nil
}

func (s *Server) handleGetStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := s.controller.Status()

	result := map[string]interface{}{
		"watching":           status.Watching,
		"interval":           status.Interval.String(),
		"strategy":           string(status.Strategy),
		"repository":         status.Repository,
		"remote":             status.Remote,
		"last_notified_hash": status.LastNotifiedHash,
		"last_check":         nil,
	}
	if status.LastReport != nil {
		result["last_check"] = reportView(status.LastReport)
	}
	return jsonResult(result)
}

func (s *Server) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := int(request.GetFloat("limit", defaultHistory))
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}
	if limit > maxHistory {
		limit = maxHistory
	}

	entries, err := s.controller.History(ctx, limit)
	if err != nil {
		s.logger.Warn("history lookup failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to read history: %v", err)), nil
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	return jsonResult(map[string]interface{}{
		"count":  len(entries),
		"checks": entries,
	})
}

func reportView(r *domain.CheckReport) map[string]interface{} {
	commits := make([]map[string]interface{}, 0, len(r.Result.Commits))
	for _, c := range r.Result.Commits {
		commits = append(commits, map[string]interface{}{
			"hash":    c.Hash,
			"author":  c.Author,
			"date":    c.Date,
			"message": c.Message,
		})
	}

	view := map[string]interface{}{
		"id":          r.ID,
		"trigger":     string(r.Trigger),
		"strategy":    string(r.Strategy),
		"branch":      r.Branch,
		"kind":        string(r.Result.Kind),
		"newest_hash": r.Result.NewestHash,
		"commits":     commits,
		"notified":    r.Notified,
		"finished_at": r.FinishedAt.Format("2006-01-02T15:04:05"),
	}
	if r.Result.Reason != "" {
		view["reason"] = r.Result.Reason
	}
	return view
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
