package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/config"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/extraction"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/pdftest"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/wrapper"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.PDFDirectory = dir
	cfg.ServerName = "test-server"
	cfg.Version = "1.0.0"
	cfg.MaxFileSize = 10 * 1024 * 1024
	return cfg
}

func newTestServer(t *testing.T, dir string) *Server {
	t.Helper()
	cfg := testConfig(dir)
	engine := extraction.NewEngine(extraction.DefaultConfig(), wrapper.DefaultFactoryConfig(), discard)
	svc, err := pdf.NewService(pdf.ServiceConfig{
		MaxFileSize:      cfg.MaxFileSize,
		Directory:        dir,
		CheckRemoteFiles: true,
	}, engine)
	require.NoError(t, err)

	s, err := NewServer(cfg, svc, discard)
	require.NoError(t, err)
	return s
}

func callTool(path string) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]interface{}{"path": path},
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestNewServer(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)
	assert.Equal(t, dir, s.config.PDFDirectory)
	assert.NotNil(t, s.MCPServer())

	_, err := NewServer(nil, s.pdfService, discard)
	assert.Error(t, err)

	_, err = NewServer(testConfig(dir), nil, discard)
	assert.Error(t, err)

	s, err = NewServer(testConfig(dir), s.pdfService, nil)
	require.NoError(t, err)
	assert.NotNil(t, s.logger)
}

func TestServer_ToolsList(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	resp := s.MCPServer().HandleMessage(context.Background(), msg)
	out, err := json.Marshal(resp)
	require.NoError(t, err)

	for _, name := range []string{"pdf_analyze_links", "pdf_validate_links", "pdf_validate_file", "pdf_server_info"} {
		assert.Contains(t, string(out), `"`+name+`"`)
	}
}

func TestServer_HandleAnalyzeLinks(t *testing.T) {
	dir := t.TempDir()
	path := pdftest.LinkDocument(t, dir, "links.pdf")
	s := newTestServer(t, dir)

	result, err := s.handleAnalyzeLinks(context.Background(), callTool("links.pdf"))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var decoded struct {
		Links []map[string]any `json:"links"`
		TOC   []map[string]any `json:"toc"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	require.Len(t, decoded.Links, 3)
	assert.Equal(t, "External (URI)", decoded.Links[0]["type"])
	assert.Equal(t, "https://example.com", decoded.Links[0]["url"])
	assert.Equal(t, "Remote (GoToR)", decoded.Links[2]["type"])
	require.Len(t, decoded.TOC, 1)
	assert.Equal(t, "Chapter 1", decoded.TOC[0]["title"])
	assert.EqualValues(t, 2, decoded.TOC[0]["target_page"])

	// absolute paths inside the directory work too
	result, err = s.handleAnalyzeLinks(context.Background(), callTool(path))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestServer_HandleAnalyzeLinks_Errors(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)

	notPDF := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(notPDF, []byte("not a pdf"), 0o644))

	tests := []struct {
		name    string
		request mcp.CallToolRequest
		want    string
	}{
		{"missing path", mcp.CallToolRequest{}, "path"},
		{"outside directory", callTool("../escape.pdf"), "INVALID_PATH"},
		{"unparseable file", callTool("broken.pdf"), "[OPEN]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleAnalyzeLinks(context.Background(), tt.request)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

func TestServer_HandleValidateLinks(t *testing.T) {
	dir := t.TempDir()
	pdftest.LinkDocument(t, dir, "links.pdf")
	s := newTestServer(t, dir)

	result, err := s.handleValidateLinks(context.Background(), callTool("links.pdf"))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Link check for:")
	assert.Contains(t, text, "Broken:")
	assert.Contains(t, text, "other.pdf")

	result, err = s.handleValidateLinks(context.Background(), callTool("missing.pdf"))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleValidateFile(t *testing.T) {
	dir := t.TempDir()
	pdftest.LinkDocument(t, dir, "links.pdf")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.pdf"), nil, 0o644))
	s := newTestServer(t, dir)

	tests := []struct {
		name    string
		path    string
		want    string
		isError bool
	}{
		{"valid", "links.pdf", "is valid and readable (2 pages)", false},
		{"empty", "empty.pdf", "PDF validation failed", false},
		{"outside directory", "/etc/passwd", "outside", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleValidateFile(context.Background(), callTool(tt.path))
			require.NoError(t, err)
			assert.Equal(t, tt.isError, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

func TestServer_HandleServerInfo(t *testing.T) {
	dir := t.TempDir()
	pdftest.LinkDocument(t, dir, "links.pdf")
	s := newTestServer(t, dir)

	result, err := s.handleServerInfo(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "test-server v1.0.0")
	assert.Contains(t, text, dir)
	assert.Contains(t, text, "1 PDF files found")
	assert.Contains(t, text, "links.pdf")
	assert.Contains(t, text, "pdf_validate_links")
}

func TestFormatServerInfo_ManyFiles(t *testing.T) {
	info := &pdf.PDFServerInfoResult{ServerName: "s", Version: "v"}
	for i := 0; i < 12; i++ {
		info.DirectoryContents = append(info.DirectoryContents, pdf.FileInfo{Name: "f.pdf"})
	}
	assert.Contains(t, formatServerInfo(info), "... and 2 more files")

	info.DirectoryContents = nil
	assert.Contains(t, formatServerInfo(info), "No PDF files found")
}

func TestServer_RunStdio(t *testing.T) {
	t.Run("end of input", func(t *testing.T) {
		s := newTestServer(t, t.TempDir())
		err := s.RunStdio(context.Background(), strings.NewReader(""), io.Discard)
		assert.NoError(t, err)
	})

	t.Run("canceled context", func(t *testing.T) {
		s := newTestServer(t, t.TempDir())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r, w := io.Pipe()
		defer w.Close()
		err := s.RunStdio(ctx, r, io.Discard)
		assert.NoError(t, err)
	})
}

func TestServer_RunServerMode(t *testing.T) {
	s := newTestServer(t, t.TempDir())
	s.config.Mode = config.ModeServer
	s.config.Host = "127.0.0.1"
	s.config.Port = 0

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the context ended")
	}
}
