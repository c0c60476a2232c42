package mcpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/medintake/internal/core/domain"
	"github.com/kirillkom/medintake/internal/core/ports"
)

const (
	serverName    = "medintake"
	serverVersion = "1.0.0"
)

// Server exposes the report and chat use cases as MCP tools.
type Server struct {
	reports ports.ReportService
	chat    ports.ChatService
	logger  *slog.Logger
	mcp     *server.MCPServer
}

func NewServer(reports ports.ReportService, chat ports.ChatService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		reports: reports,
		chat:    chat,
		logger:  logger,
		mcp:     server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(
		mcp.NewTool("latest_report",
			mcp.WithDescription("Return the most recent compiled medical report as Markdown."),
		),
		s.latestReport,
	)
	s.mcp.AddTool(
		mcp.NewTool("ask_report",
			mcp.WithDescription("Answer a question using the most recent compiled medical report as context."),
			mcp.WithString("question", mcp.Required(), mcp.Description("Question about the patient's documents.")),
		),
		s.askReport,
	)
	s.mcp.AddTool(
		mcp.NewTool("generate_report",
			mcp.WithDescription("Compile all accepted documents into a new report and return it."),
		),
		s.generateReport,
	)
	return s
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio blocks until ctx is cancelled or stdin closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) latestReport(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.reports.Latest(ctx)
	if err != nil {
		if domain.IsKind(err, domain.ErrReportNotFound) {
			return mcp.NewToolResultError("no report has been generated yet"), nil
		}
		return s.toolError("latest_report", err), nil
	}
	return mcp.NewToolResultText(report.Text), nil
}

func (s *Server) askReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reply, err := s.chat.Ask(ctx, question)
	if err != nil {
		return s.toolError("ask_report", err), nil
	}
	return mcp.NewToolResultText(reply), nil
}

func (s *Server) generateReport(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.reports.Generate(ctx)
	if err != nil {
		if domain.IsKind(err, domain.ErrEmptyCorpus) {
			return mcp.NewToolResultError("no accepted documents with text are available"), nil
		}
		return s.toolError("generate_report", err), nil
	}
	return mcp.NewToolResultText(report.Text), nil
}

func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Error("mcp.tool_failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", tool, err))
}
