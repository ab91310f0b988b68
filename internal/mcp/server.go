package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/config"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/descriptions"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/report"
)

const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// NewServer creates a new MCP server instance. A nil logger uses slog.Default.
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool list never changes
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pathParam := mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
	)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_analyze_links",
		mcp.WithDescription(descriptions.PDFAnalyzeLinksDescription),
		pathParam,
	), s.handleAnalyzeLinks)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_validate_links",
		mcp.WithDescription(descriptions.PDFValidateLinksDescription),
		pathParam,
	), s.handleValidateLinks)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription(descriptions.PDFValidateFileDescription),
		pathParam,
	), s.handleValidateFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.PDFServerInfoDescription),
	), s.handleServerInfo)
}

// Handler functions

func (s *Server) handleAnalyzeLinks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFAnalyzeLinks(pdf.PDFAnalyzeLinksRequest{Path: path})
	if err != nil {
		s.logger.Warn("analysis failed", "path", path, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	errCount, warnCount := result.Diagnostics.Count()
	s.logger.Info("analyzed", "path", path, "summary", result.String(), "errors", errCount, "warnings", warnCount)

	var buf bytes.Buffer
	if err := report.Encode(&buf, result, report.FormatJSON); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleValidateLinks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := s.pdfService.PDFValidateLinks(pdf.PDFValidateLinksRequest{Path: path})
	if err != nil {
		s.logger.Warn("link check failed", "path", path, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Link check for: %s\n", summary.Path)
	if err := report.Validation(&buf, summary); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFValidateFile(pdf.PDFValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.Valid {
		return mcp.NewToolResultText(fmt.Sprintf("PDF file %s is valid and readable (%d pages)", result.Path, result.Pages)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.PDFServerInfo(ctx, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatServerInfo(result)), nil
}

func formatServerInfo(result *pdf.PDFServerInfoResult) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	fmt.Fprintf(&b, "📁 Default Directory: %s\n", result.DefaultDirectory)
	fmt.Fprintf(&b, "📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	fmt.Fprintf(&b, "🔗 Text Matching: %t (tolerance %g pt)\n\n", result.MatchText, result.Tolerance)

	if len(result.DirectoryContents) > 0 {
		fmt.Fprintf(&b, "📂 Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 {
				fmt.Fprintf(&b, "   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			fmt.Fprintf(&b, "   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("📂 Directory Contents: No PDF files found in default directory\n\n")
	}

	b.WriteString("🛠️  Available Tools:\n")
	for _, tool := range result.AvailableTools {
		fmt.Fprintf(&b, "\n• %s\n", tool.Name)
		fmt.Fprintf(&b, "  Description: %s\n", tool.Description)
		fmt.Fprintf(&b, "  Usage: %s\n", tool.Usage)
		fmt.Fprintf(&b, "  Parameters: %s\n", tool.Parameters)
	}

	b.WriteString("\n" + result.UsageGuidance)
	return b.String()
}

// Run starts the MCP server in the configured mode and returns when ctx
// ends or the transport stops.
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.RunStdio(ctx, os.Stdin, os.Stdout)
}

// RunStdio serves MCP over the given streams. Nothing else may write to
// stdout while it runs.
func (s *Server) RunStdio(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	s.logger.Debug("starting MCP server in stdio mode", "dir", s.config.PDFDirectory)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	err := stdio.Listen(ctx, stdin, stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE on the configured address
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	s.logger.Info("starting MCP server in SSE mode", "addr", addr, "dir", s.config.PDFDirectory)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve SSE: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down SSE server: %w", err)
		}
		s.logger.Info("MCP server stopped")
		return nil
	}
}

// MCPServer exposes the underlying server for in-process clients
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}
