package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"txdash/internal/backend"
	"txdash/internal/config"
	"txdash/internal/grouping"
	"txdash/internal/log"
	"txdash/internal/render"
	"txdash/internal/session"
)

// Set at build time with -ldflags "-X txdash/internal/cli.Version=..."
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// App carries what every command needs. Open defaults to the backend
// factory driven by Config; tests swap it for an in-memory store.
type App struct {
	Config *config.Config
	Logger *log.Logger
	In     io.Reader
	Out    io.Writer
	Open   func(ctx context.Context, cfg *config.Config) (*backend.BackendResult, error)
}

// NewRootCommand builds the txdash command tree.
func NewRootCommand(app *App) *cobra.Command {
	app.defaults()

	var backendFlag, localeFlag string
	root := &cobra.Command{
		Use:   "txdash",
		Short: "Transaction dashboard and record store client",
		Long: `txdash shows sales transactions grouped by year and month and lets an
operator add, edit, inspect and delete them against a REST record store.

Run "txdash serve" for the web dashboard, or use the subcommands below to
work with the same records from a terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("backend") {
				app.Config.DataBackend = backendFlag
			}
			if cmd.Flags().Changed("locale") {
				app.Config.Locale = localeFlag
			}
			return app.Config.Validate()
		},
	}
	root.SetIn(app.In)
	root.SetOut(app.Out)

	root.PersistentFlags().StringVar(&backendFlag, "backend", app.Config.DataBackend,
		fmt.Sprintf("record store backend %v", backend.GetBackendTypeStrings()))
	root.PersistentFlags().StringVar(&localeFlag, "locale", app.Config.Locale, "display locale (id or en)")

	root.AddCommand(
		newServeCommand(app),
		newListCommand(app),
		newShowCommand(app),
		newAddCommand(app),
		newEditCommand(app),
		newDeleteCommand(app),
		newExportCommand(app),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command tree and reports whether it succeeded.
func Execute(app *App) int {
	if err := NewRootCommand(app).Execute(); err != nil {
		return 1
	}
	return 0
}

func (a *App) defaults() {
	if a.Config == nil {
		a.Config = config.Load()
	}
	if a.Logger == nil {
		a.Logger = log.Discard()
	}
	if a.In == nil {
		a.In = os.Stdin
	}
	if a.Out == nil {
		a.Out = os.Stdout
	}
	if a.Open == nil {
		a.Open = a.openBackend
	}
}

func (a *App) openBackend(ctx context.Context, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(a.Logger.WithComponent(log.ComponentBackend)).CreateBackend(ctx, bcfg)
}

func (a *App) locale() (*render.Locale, error) {
	loc, err := a.Config.Location()
	if err != nil {
		return nil, err
	}
	return render.ParseLocale(a.Config.Locale, loc)
}

// workspace is an open session and what it renders with.
type workspace struct {
	sess    *session.Session
	locale  *render.Locale
	backend *backend.BackendResult
	logger  *log.Logger
}

// Close releases the backend. Output is already written by then, so a
// failure is logged rather than returned.
func (w *workspace) Close() {
	if err := w.backend.Close(); err != nil {
		w.logger.Warn("Backend cleanup failed", log.NewFields().WithError(err).ToSlice()...)
	}
}

// closeView ends the detail view a command opened.
func (w *workspace) closeView() {
	if err := w.sess.Close(); err != nil {
		w.logger.Warn("Detail view not closed", log.NewFields().WithError(err).ToSlice()...)
	}
}

// open connects to the record store and builds a session. With load set
// the initial fetch runs too, and a load failure aborts the command.
func (a *App) open(ctx context.Context, load bool) (*workspace, error) {
	locale, err := a.locale()
	if err != nil {
		return nil, err
	}
	res, err := a.Open(ctx, a.Config)
	if err != nil {
		return nil, err
	}

	sess := session.New(res.Backend, session.Config{
		Grouping: grouping.Options{Location: locale.Location(), MonthName: locale.MonthName},
		Actor:    a.Config.CreatedBy,
		Logger:   a.Logger,
	})
	ws := &workspace{sess: sess, locale: locale, backend: res, logger: a.Logger}
	if load {
		if err := sess.Load(ctx); err != nil {
			ws.Close()
			return nil, err
		}
	}
	return ws, nil
}
