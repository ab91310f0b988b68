package main

import (
	"github.com/spf13/cobra"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/config"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/mcp"
)

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Expose the link tools to MCP clients.

In stdio mode the server speaks MCP on standard input and output and logs
only to stderr. In server mode it listens for SSE clients on --host and
--port until interrupted. Either way only files under --dir can be opened.

Examples:
  pdflinkcheck serve --dir ./docs
  pdflinkcheck serve --mode server --port 9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.setup(cmd)
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectory(); err != nil {
				return err
			}

			svc, err := newService(cfg, logger, true)
			if err != nil {
				return err
			}
			server, err := mcp.NewServer(cfg, svc, logger)
			if err != nil {
				return err
			}
			return server.Run(cmd.Context())
		},
	}
	config.AddServerFlags(cmd.Flags())
	return cmd
}
