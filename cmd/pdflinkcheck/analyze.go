package main

import (
	"bytes"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/config"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/report"
)

func (c *cli) newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [flags] <pdf>",
		Short: "Extract the links and table of contents of a PDF",
		Long: `Extract every link annotation and the outline of a PDF file.

JSON and YAML output carry two arrays, links and toc. The text format prints
a console report with the TOC tree and one table per link group.

With --watch the analysis runs again whenever the file changes, until
interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd, args[0])
		},
	}
	config.AddOutputFlags(cmd.Flags(), config.DefaultFormat)
	config.AddWatchFlag(cmd.Flags())
	return cmd
}

func (c *cli) runAnalyze(cmd *cobra.Command, path string) error {
	cfg, logger, err := c.setup(cmd)
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd, cfg)
	if err != nil {
		return err
	}
	svc, err := newService(cfg, logger, false)
	if err != nil {
		return err
	}

	analyze := func() error {
		return c.analyzeOnce(svc, cfg, logger, format, path)
	}
	if cfg.Watch {
		return watch(cmd.Context(), path, logger, analyze)
	}
	return analyze()
}

func (c *cli) analyzeOnce(svc *pdf.Service, cfg *config.Config, logger *slog.Logger, format report.Format, path string) error {
	result, err := svc.PDFAnalyzeLinks(pdf.PDFAnalyzeLinksRequest{Path: path})
	if err != nil {
		return err
	}

	if errCount, warnCount := result.Diagnostics.Count(); errCount+warnCount > 0 {
		logger.Warn("malformed structures skipped", "file", path, "errors", errCount, "warnings", warnCount)
	}
	logger.Debug("analysis complete", "file", path, "summary", result.String())

	var buf bytes.Buffer
	if format == report.FormatText {
		err = report.Text(&buf, filepath.Base(path), result, cfg.MaxLinks)
	} else {
		err = report.Encode(&buf, result, format)
	}
	if err != nil {
		return err
	}
	return c.emit(cfg, logger, buf.Bytes())
}
