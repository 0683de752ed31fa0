package cli

import (
	"fmt"

	"github.com/alexanderramin/implanta/internal/service"
	"github.com/spf13/cobra"
)

func newApplyCmd(app *App) *cobra.Command {
	var start string

	cmd := &cobra.Command{
		Use:   "apply TEMPLATE IMPLEMENTATION",
		Short: "Clone a template's tree into an implementation's checklist",
		Long: `Clone every prototype node of TEMPLATE into IMPLEMENTATION.

Deadlines are computed from --start, or from the implementation's start date
when omitted. Applying the same template twice adds a second copy.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			templateID, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			implID, err := resolveImplementationID(ctx, app, args[1])
			if err != nil {
				return err
			}
			startDate, err := parseOptionalDate("start date", start)
			if err != nil {
				return err
			}

			res, err := app.Plans.Apply(ctx, service.ApplyInput{
				TemplateID:    templateID,
				ImplantacaoID: implID,
				Actor:         app.Actor,
				StartDate:     startDate,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Applied template: %d nodes created under %d fase(s)\n", res.NodeCount, len(res.RootIDs))
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Override the start date (YYYY-MM-DD)")

	return cmd
}
