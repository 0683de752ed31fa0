package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/implanta/internal/cli"
	"github.com/alexanderramin/implanta/internal/config"
	"github.com/alexanderramin/implanta/internal/db"
	"github.com/alexanderramin/implanta/internal/planfile"
	"github.com/alexanderramin/implanta/internal/repository"
	"github.com/alexanderramin/implanta/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	// Open database
	store, err := db.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	// Wire repositories
	conn := store.Conn()
	implRepo := repository.NewSQLImplementationRepo(conn)
	templateRepo := repository.NewSQLTemplateRepo(conn)
	nodeRepo := repository.NewSQLChecklistNodeRepo(conn)
	historyRepo := repository.NewSQLHistoryRepo(conn)
	commentRepo := repository.NewSQLCommentRepo(conn)

	// Wire unit of work for transactional operations
	uow := db.NewSQLUnitOfWork(store)
	observer := service.NewLogUseCaseObserver(os.Stderr, cfg.SlogLevel())

	app := &cli.App{
		Implementations: service.NewImplementationService(implRepo, observer),
		Plans:           service.NewPlanService(templateRepo, nodeRepo, uow, observer),
		Checklist:       service.NewChecklistService(nodeRepo, historyRepo, commentRepo, implRepo, uow, observer),
		Progress:        service.NewProgressService(nodeRepo, implRepo),

		Loader:       planfile.NewOsLoader(),
		Actor:        cfg.Actor,
		TemplatesDir: cfg.Templates.Dir,
		Version:      version,
	}

	// Detect interactive terminal so destructive commands can prompt.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute root command
	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig reads the persistent flags ahead of cobra, whose own parse runs
// after the services they configure have been wired.
func loadConfig(args []string) (*config.Config, error) {
	fs := pflag.NewFlagSet("implanta", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)
	config.RegisterFlags(fs)
	// Errors surface again, with usage, when cobra parses the same args.
	_ = fs.Parse(args)

	configFile, _ := fs.GetString("config")
	return config.Load(config.Options{ConfigFile: configFile, Flags: fs})
}
