package cli

import (
	"github.com/alexanderramin/implanta/internal/mcpserver"
	"github.com/spf13/cobra"
)

func newMCPCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve checklist tools to MCP clients over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := mcpserver.NewServer(mcpserver.Services{
				Plans:     app.Plans,
				Checklist: app.Checklist,
				Progress:  app.Progress,
			}, app.Actor, app.Version)
			return srv.Run(cmd.Context())
		},
	}
}
