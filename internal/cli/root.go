package cli

import (
	"time"

	"github.com/alexanderramin/implanta/internal/config"
	"github.com/alexanderramin/implanta/internal/planfile"
	"github.com/alexanderramin/implanta/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Implementations service.ImplementationService
	Plans           service.PlanService
	Checklist       service.ChecklistService
	Progress        service.ProgressService

	Loader       *planfile.Loader
	Actor        string
	TemplatesDir string
	Version      string

	// Now is the clock used for relative deadlines and overdue checks.
	Now func() time.Time
	// IsInteractive reports whether stdin is a terminal. Destructive
	// commands only prompt when it returns true.
	IsInteractive func() bool
	// Confirm asks a yes/no question. Defaults to a huh confirm form.
	Confirm func(title string) (bool, error)
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) confirm(title string) (bool, error) {
	if a.Confirm != nil {
		return a.Confirm(title)
	}
	return confirmPrompt(title)
}

func (a *App) loader() *planfile.Loader {
	if a.Loader == nil {
		a.Loader = planfile.NewOsLoader()
	}
	return a.Loader
}

// NewRootCmd creates the top-level "implanta" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "implanta",
		Short:         "Customer onboarding checklists built from reusable success plans",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newImplCmd(app),
		newTemplateCmd(app),
		newApplyCmd(app),
		newTaskCmd(app),
		newProgressCmd(app),
		newOverdueCmd(app),
		newHistoryCmd(app),
		newMCPCmd(app),
	)

	return root
}
