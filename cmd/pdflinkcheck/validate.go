package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/config"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/report"
)

func (c *cli) newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [flags] <pdf>",
		Short: "Check that links and TOC entries point at existing targets",
		Long: `Analyze a PDF and classify every link and TOC entry as valid, broken,
file-found, unknown-web or unknown-other.

Internal jumps are checked against the page count and remote (GoToR)
targets against the directory of the PDF. Web links are never fetched;
they get an offline risk score instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd, args[0])
		},
	}
	config.AddOutputFlags(cmd.Flags(), string(report.FormatText))
	return cmd
}

func (c *cli) runValidate(cmd *cobra.Command, path string) error {
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

	summary, err := svc.PDFValidateLinks(pdf.PDFValidateLinksRequest{Path: path})
	if err != nil {
		return err
	}
	logger.Debug("link check complete", "file", path, "checked", summary.TotalChecked,
		"broken", summary.Count(pdf.StatusBroken))

	var buf bytes.Buffer
	if format == report.FormatText {
		err = report.Validation(&buf, summary)
	} else {
		err = report.EncodeSummary(&buf, summary, format)
	}
	if err != nil {
		return err
	}
	return c.emit(cfg, logger, buf.Bytes())
}
