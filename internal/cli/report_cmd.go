package cli

import (
	"fmt"

	"github.com/alexanderramin/implanta/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newProgressCmd(app *App) *cobra.Command {
	var nodeRef string

	cmd := &cobra.Command{
		Use:   "progress IMPLEMENTATION",
		Short: "Show completion percentages for an implementation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			implID, err := resolveImplementationID(ctx, app, args[0])
			if err != nil {
				return err
			}

			if nodeRef != "" {
				n, err := app.Checklist.ResolveNode(ctx, nodeRef)
				if err != nil {
					return err
				}
				if n.OwnerID() != implID {
					return fmt.Errorf("node %s does not belong to this implementation", formatter.TruncID(n.ID))
				}
				p, err := app.Progress.NodeProgress(ctx, n.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", formatter.FormatNodeProgress(n, p))
				return nil
			}

			impl, err := app.Implementations.GetByID(ctx, implID)
			if err != nil {
				return err
			}
			report, err := app.Progress.ImplementationProgress(ctx, implID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", formatter.FormatProgressReport(impl, report))
			return nil
		},
	}

	cmd.Flags().StringVar(&nodeRef, "node", "", "Report a single subtree instead of every fase")

	return cmd
}

func newOverdueCmd(app *App) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "overdue IMPLEMENTATION",
		Short: "List open tasks whose deadline has passed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			implID, err := resolveImplementationID(ctx, app, args[0])
			if err != nil {
				return err
			}
			date, err := parseOptionalDate("as-of date", asOf)
			if err != nil {
				return err
			}
			if date.IsZero() {
				date = app.now()
			}

			nodes, err := app.Checklist.Overdue(ctx, implID, date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", formatter.FormatOverdue(nodes, date))
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Reference date (YYYY-MM-DD, default today)")

	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history IMPLEMENTATION",
		Short: "Show every recorded change for an implementation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			implID, err := resolveImplementationID(ctx, app, args[0])
			if err != nil {
				return err
			}
			impl, err := app.Implementations.GetByID(ctx, implID)
			if err != nil {
				return err
			}
			events, err := app.Checklist.ImplementationHistory(ctx, implID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", formatter.FormatHistory(impl.Name, events))
			return nil
		},
	}
}
