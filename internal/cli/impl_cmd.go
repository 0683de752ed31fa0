package cli

import (
	"fmt"

	"github.com/alexanderramin/implanta/internal/cli/formatter"
	"github.com/alexanderramin/implanta/internal/service"
	"github.com/spf13/cobra"
)

func newImplCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "impl",
		Aliases: []string{"implementation"},
		Short:   "Manage customer implementations",
	}

	cmd.AddCommand(
		newImplCreateCmd(app),
		newImplListCmd(app),
		newImplShowCmd(app),
	)

	return cmd
}

func newImplCreateCmd(app *App) *cobra.Command {
	var name, customer, responsible, start string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new implementation",
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := parseDate("start date", start)
			if err != nil {
				return err
			}

			impl, err := app.Implementations.Create(cmd.Context(), service.CreateImplementationInput{
				Name:        name,
				Customer:    customer,
				Responsible: responsible,
				StartDate:   startDate,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created implementation %s %s\n", impl.Name, formatter.TruncID(impl.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Implementation name")
	cmd.Flags().StringVar(&customer, "customer", "", "Customer name")
	cmd.Flags().StringVar(&responsible, "responsible", "", "Customer success owner")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD); deadlines count from here")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

func newImplListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List implementations",
		RunE: func(cmd *cobra.Command, args []string) error {
			impls, err := app.Implementations.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(impls) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No implementations found.")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", formatter.FormatImplementationList(impls))
			return nil
		},
	}
}

func newImplShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show an implementation with its checklist",
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
			forest, err := app.Checklist.Forest(ctx, implID)
			if err != nil {
				return err
			}
			report, err := app.Progress.ImplementationProgress(ctx, implID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", formatter.FormatImplementationShow(impl, forest, report, app.now()))
			return nil
		},
	}
}
