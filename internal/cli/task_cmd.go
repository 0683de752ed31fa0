package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/implanta/internal/cli/formatter"
	"github.com/alexanderramin/implanta/internal/service"
	"github.com/spf13/cobra"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"node"},
		Short:   "Work an implementation's checklist",
	}

	cmd.AddCommand(
		newTaskToggleCmd(app),
		newTaskAssignCmd(app),
		newTaskRescheduleCmd(app),
		newTaskDeleteCmd(app),
		newTaskHistoryCmd(app),
		newTaskCommentCmd(app),
	)

	return cmd
}

func printMutation(cmd *cobra.Command, what string, res *service.MutationResult) {
	out := cmd.OutOrStdout()
	if !res.Changed {
		fmt.Fprintf(out, "%s already %s; nothing recorded\n", res.Node.Title, what)
		return
	}
	fmt.Fprintf(out, "%s %s\n", res.Node.Title, what)
}

func newTaskToggleCmd(app *App) *cobra.Command {
	var done bool

	cmd := &cobra.Command{
		Use:   "toggle NODE",
		Short: "Mark a tarefa or subtarefa done, or reopen it",
		Long: `Flip the completion state of a leaf node. The flip is decided against
the state held under the write lock, so two concurrent flips both record a
change. Pass --done=true or --done=false to set the state explicitly; setting
the value it already has records nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			nodeID, err := resolveNodeID(ctx, app, args[0])
			if err != nil {
				return err
			}

			var res *service.MutationResult
			if cmd.Flags().Changed("done") {
				res, err = app.Checklist.Toggle(ctx, nodeID, done, app.Actor)
			} else {
				res, err = app.Checklist.Flip(ctx, nodeID, app.Actor)
			}
			if err != nil {
				return err
			}

			state := "reopened"
			if res.Node.Completed {
				state = "done"
			}
			printMutation(cmd, state, res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&done, "done", true, "Completion state to set")

	return cmd
}

func newTaskAssignCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "assign NODE RESPONSIBLE",
		Short: "Change who is responsible for a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			nodeID, err := resolveNodeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			res, err := app.Checklist.Reassign(ctx, nodeID, args[1], app.Actor)
			if err != nil {
				return err
			}
			printMutation(cmd, "assigned to "+res.Node.Responsible, res)
			return nil
		},
	}
}

func newTaskRescheduleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule NODE DATE",
		Short: "Move a node's deadline (YYYY-MM-DD, or none to clear it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			nodeID, err := resolveNodeID(ctx, app, args[0])
			if err != nil {
				return err
			}

			var deadline *time.Time
			if !strings.EqualFold(args[1], "none") {
				d, err := parseDate("deadline", args[1])
				if err != nil {
					return err
				}
				deadline = &d
			}

			res, err := app.Checklist.Reschedule(ctx, nodeID, deadline, app.Actor)
			if err != nil {
				return err
			}
			what := "has no deadline"
			if res.Node.Deadline != nil {
				what = "due " + res.Node.Deadline.Format(dateLayout)
			}
			printMutation(cmd, what, res)
			return nil
		},
	}
}

func newTaskDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete NODE",
		Short: "Delete a node and everything under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := app.Checklist.ResolveNode(ctx, args[0])
			if err != nil {
				return err
			}

			ok, err := confirmDestructive(app, yes, fmt.Sprintf("delete %s %q and its descendants", n.Kind, n.Title))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}

			res, err := app.Checklist.Delete(ctx, n.ID, app.Actor)
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

func newTaskHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history NODE",
		Short: "Show the change history of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			nodeID := args[0]
			title := nodeID
			// Deleted nodes keep their history, so an unresolvable id is
			// looked up verbatim.
			if n, err := app.Checklist.ResolveNode(ctx, nodeID); err == nil {
				nodeID, title = n.ID, n.Title
			}

			events, err := app.Checklist.NodeHistory(ctx, nodeID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", formatter.FormatHistory(title, events))
			return nil
		},
	}
}

func newTaskCommentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Manage comments on a node",
	}

	cmd.AddCommand(
		newTaskCommentAddCmd(app),
		newTaskCommentListCmd(app),
		newTaskCommentDeleteCmd(app),
	)

	return cmd
}

func newTaskCommentAddCmd(app *App) *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "add NODE TEXT",
		Short: "Comment on a node",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			nodeID, err := resolveNodeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if author == "" {
				author = app.Actor
			}

			c, err := app.Checklist.AddComment(ctx, nodeID, author, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added comment %s\n", formatter.TruncID(c.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "Comment author (default: --actor)")

	return cmd
}

func newTaskCommentListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list NODE",
		Short: "List comments on a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			nodeID, err := resolveNodeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			comments, err := app.Checklist.Comments(ctx, nodeID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", formatter.FormatComments(comments))
			return nil
		},
	}
}

func newTaskCommentDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete NODE COMMENT",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			nodeID, err := resolveNodeID(ctx, app, args[0])
			if err != nil {
				return err
			}
			commentID, err := resolveCommentID(ctx, app, nodeID, args[1])
			if err != nil {
				return err
			}

			ok, err := confirmDestructive(app, yes, "delete comment "+commentID)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}

			if err := app.Checklist.DeleteComment(ctx, commentID, app.Actor); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Comment deleted.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
