package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/config"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/extraction"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/wrapper"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/report"
)

// cli carries the streams shared by every command
type cli struct {
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "pdflinkcheck [flags] <pdf>",
		Short: "Extract and check the hyperlinks and table of contents of PDF files",
		Long: `pdflinkcheck lists every link annotation of a PDF with its page, rectangle,
anchor text and target, together with the outline (bookmark) tree.

Running it with a file and no command is the same as 'pdflinkcheck analyze'.

Examples:
  pdflinkcheck manual.pdf                     # JSON to stdout
  pdflinkcheck analyze -f text manual.pdf     # console report
  pdflinkcheck analyze -o links.yaml.gz a.pdf # compressed YAML export
  pdflinkcheck validate manual.pdf            # check link targets
  pdflinkcheck serve --dir ./docs             # MCP server over stdio`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return c.runAnalyze(cmd, args[0])
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	config.AddGlobalFlags(root.PersistentFlags())
	config.AddOutputFlags(root.Flags(), config.DefaultFormat)
	config.AddWatchFlag(root.Flags())

	root.AddCommand(
		c.newAnalyzeCmd(),
		c.newValidateCmd(),
		c.newServeCmd(),
		c.newVersionCmd(),
	)
	return root
}

// setup loads the configuration for cmd and builds the logger
func (c *cli) setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	if version != "dev" {
		cfg.Version = version
	}

	logger := slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	if cfg.IsDebug() {
		logger.Debug("configuration loaded", "config", cfg.String())
	}
	return cfg, logger, nil
}

// newService builds the PDF service. A sandboxed service only opens files
// under cfg.PDFDirectory.
func newService(cfg *config.Config, logger *slog.Logger, sandboxed bool) (*pdf.Service, error) {
	engine := extraction.NewEngine(engineConfig(cfg), factoryConfig(cfg), logger)

	var dir string
	if sandboxed {
		dir = cfg.PDFDirectory
	}
	return pdf.NewService(pdf.ServiceConfig{
		MaxFileSize:      cfg.MaxFileSize,
		Directory:        dir,
		CheckRemoteFiles: cfg.CheckRemoteFiles,
	}, engine)
}

func engineConfig(cfg *config.Config) extraction.Config {
	ec := extraction.DefaultConfig()
	ec.Tolerance = cfg.Tolerance
	ec.MatchText = !cfg.NoText
	if cfg.Workers > 0 {
		ec.Workers = cfg.Workers
	}
	return ec
}

func factoryConfig(cfg *config.Config) wrapper.FactoryConfig {
	fc := wrapper.DefaultFactoryConfig()
	fc.MaxFileSize = cfg.MaxFileSize
	fc.DebugMode = cfg.IsDebug()
	return fc
}

// outputFormat picks the report format. Without an explicit --format the
// extension of --output decides.
func outputFormat(cmd *cobra.Command, cfg *config.Config) (report.Format, error) {
	if cfg.Output != "" && !cmd.Flags().Changed(config.KeyFormat) {
		if format, ok := report.FormatFromPath(cfg.Output); ok {
			return format, nil
		}
	}
	return report.ParseFormat(cfg.Format)
}

// emit writes a finished report to --output or stdout
func (c *cli) emit(cfg *config.Config, logger *slog.Logger, data []byte) error {
	if cfg.Output == "" {
		_, err := c.stdout.Write(data)
		return err
	}
	if err := report.WriteFile(cfg.Output, data); err != nil {
		return err
	}
	logger.Info("report written", "file", cfg.Output, "bytes", len(data))
	return nil
}
