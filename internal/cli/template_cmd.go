package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/implanta/internal/cli/formatter"
	"github.com/alexanderramin/implanta/internal/planfile"
	"github.com/alexanderramin/implanta/internal/service"
	"github.com/spf13/cobra"
)

func newTemplateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"plan"},
		Short:   "Manage success plan templates",
	}

	cmd.AddCommand(
		newTemplateCreateCmd(app),
		newTemplateImportCmd(app),
		newTemplateListCmd(app),
		newTemplateShowCmd(app),
		newTemplateConcludeCmd(app),
		newTemplateNodeCmd(app),
	)

	return cmd
}

func newTemplateCreateCmd(app *App) *cobra.Command {
	var name, description, processo string
	var duration int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty template",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := app.Plans.CreateTemplate(cmd.Context(), service.CreateTemplateInput{
				Name:         name,
				Description:  description,
				DurationDays: duration,
				ProcessoID:   processo,
				Actor:        app.Actor,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created template %s %s\n", t.Name, formatter.TruncID(t.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Template name")
	cmd.Flags().StringVar(&description, "description", "", "Template description")
	cmd.Flags().IntVar(&duration, "duration", 0, "Planned duration in days")
	cmd.Flags().StringVar(&processo, "processo", "", "Owning process identifier")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newTemplateImportCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "import [FILE...]",
		Short: "Import templates from YAML or JSON plan files",
		Long: `Import templates from plan definition files.

With --all every *.yaml, *.yml and *.json file in the templates directory is
imported. Each file becomes one active template and counts toward the
active-template limit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("pass either plan files or --all")
			}

			var defs []*planfile.Definition
			if all {
				loaded, err := app.loader().LoadDir(app.TemplatesDir)
				if err != nil {
					return err
				}
				if len(loaded) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No plan files found in %s.\n", app.TemplatesDir)
					return nil
				}
				defs = loaded
			} else {
				for _, path := range args {
					def, err := app.loader().Load(path)
					if err != nil {
						return err
					}
					defs = append(defs, def)
				}
			}

			for _, def := range defs {
				res, err := app.Plans.ImportTemplate(cmd.Context(), def, app.Actor)
				if err != nil {
					return fmt.Errorf("importing %s: %w", def.Source, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported template %s %s (%d nodes)\n",
					res.Template.Name, formatter.TruncID(res.Template.ID), res.NodeCount)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Import every plan file in the templates directory")

	return cmd
}

func newTemplateListCmd(app *App) *cobra.Command {
	var active bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := app.Plans.ListTemplates(cmd.Context(), active)
			if err != nil {
				return err
			}

			if len(templates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No templates found.")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", formatter.FormatTemplateList(templates))
			return nil
		},
	}

	cmd.Flags().BoolVar(&active, "active", false, "Only templates still em andamento")

	return cmd
}

func newTemplateShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a template and its prototype tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			templateID, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err := app.Plans.GetTemplate(ctx, templateID)
			if err != nil {
				return err
			}
			forest, err := app.Plans.TemplateForest(ctx, templateID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", formatter.FormatTemplateShow(t, forest))
			return nil
		},
	}
}

func newTemplateConcludeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "conclude ID",
		Short: "Mark a template concluido, freeing an active slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			templateID, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err := app.Plans.ConcludeTemplate(ctx, templateID, app.Actor)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Template %s is %s\n", t.Name, formatter.TemplateStatusPill(t.Status))
			return nil
		},
	}
}

func newTemplateNodeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Edit a template's prototype tree",
	}
	cmd.AddCommand(newTemplateNodeAddCmd(app), newTemplateNodeDeleteCmd(app))
	return cmd
}

func newTemplateNodeAddCmd(app *App) *cobra.Command {
	var parent, kind, title, description, tag string
	var offset, order int
	var businessDays bool

	cmd := &cobra.Command{
		Use:   "add TEMPLATE",
		Short: "Add a prototype node to a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			templateID, err := resolveTemplateID(ctx, app, args[0])
			if err != nil {
				return err
			}

			in := service.PrototypeNodeInput{
				TemplateID:       templateID,
				Kind:             kind,
				Title:            title,
				Description:      description,
				Tag:              tag,
				BusinessDaysOnly: businessDays,
			}
			if parent != "" {
				in.ParentID, err = resolveNodeID(ctx, app, parent)
				if err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("offset") {
				in.DayOffset = &offset
			}
			if cmd.Flags().Changed("order") {
				in.OrderKey = &order
			}

			n, err := app.Plans.AddPrototypeNode(ctx, in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s %s\n",
				formatter.KindStyle(n.Kind).Render(string(n.Kind)), n.Title, formatter.TruncID(n.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Parent node ID (omit for a fase)")
	cmd.Flags().StringVar(&kind, "kind", "", "Node kind: fase, grupo, tarefa or subtarefa")
	cmd.Flags().StringVar(&title, "title", "", "Node title")
	cmd.Flags().StringVar(&description, "description", "", "Node description")
	cmd.Flags().StringVar(&tag, "tag", "", "Tag: Cliente, Reunião, Ação interna, Treinamento or Documentação")
	cmd.Flags().IntVar(&offset, "offset", 0, "Deadline offset in days from the implementation start")
	cmd.Flags().BoolVar(&businessDays, "business-days", false, "Count the offset in business days")
	cmd.Flags().IntVar(&order, "order", 0, "Sibling position (default: append)")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newTemplateNodeDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete NODE",
		Short: "Remove a prototype node and everything under it",
		Long: `Remove a prototype node and its descendants from a template that is still
em andamento. Checklists already created from the template keep their copies.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := app.Checklist.ResolveNode(ctx, args[0])
			if err != nil {
				return err
			}

			ok, err := confirmDestructive(app, yes, fmt.Sprintf("delete %s %q from the template", n.Kind, n.Title))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}

			res, err := app.Plans.DeletePrototypeNode(ctx, n.ID, app.Actor)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%d nodes removed)\n", n.Title, len(res.RemovedIDs))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
