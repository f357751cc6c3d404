package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/brainhr/hrdesk/internal/browser"
	"github.com/brainhr/hrdesk/internal/config"
	"github.com/brainhr/hrdesk/internal/credential"
	"github.com/brainhr/hrdesk/internal/logging"
	"github.com/brainhr/hrdesk/internal/notify"
	"github.com/brainhr/hrdesk/internal/tui"
	"github.com/brainhr/hrdesk/pkg/client"
	"github.com/brainhr/hrdesk/pkg/domain"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// errNotSignedIn means no usable session is stored for the configured account.
var errNotSignedIn = errors.New("not signed in, run `hrdesk login`")

func main() {
	if err := newRootCmd(newCLI()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// cli holds what every command needs once flags are parsed.
type cli struct {
	cfgPath   string
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
	openStore func() (*credential.Store, error)
	runTUI    func(tea.Model) error
}

func newCLI() *cli {
	return &cli{
		cfgPath:   config.DefaultPath(),
		logger:    slog.New(slog.DiscardHandler),
		openStore: credential.Open,
		runTUI: func(m tea.Model) error {
			_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

func newRootCmd(app *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "hrdesk",
		Short:         "BrainHR back-office inbox",
		Long:          "hrdesk shows your BrainHR inbox and unread notifications in the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			app.teardown()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runInteractive(cmd)
		},
	}
	root.PersistentFlags().StringVar(&app.cfgPath, "config", app.cfgPath, "config file")

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newUnreadCmd(app),
		newMessagesCmd(app),
		newReadCmd(app),
		newSendCmd(app),
		newOpenCmd(app),
		newVersionCmd(),
	)
	return root
}

func (app *cli) setup() error {
	cfg, err := config.Load(app.cfgPath)
	if err != nil {
		return err
	}
	app.cfg = cfg

	logger, closer, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	app.logger = logger
	app.logCloser = closer
	return nil
}

func (app *cli) teardown() {
	if app.logCloser != nil {
		app.logCloser.Close() //nolint:errcheck
		app.logCloser = nil
	}
}

// saveConfig persists the account the session belongs to.
func (app *cli) saveConfig() error {
	return config.Save(app.cfgPath, app.cfg)
}

// newClient builds an API client with an optional stored session.
func (app *cli) newClient(session string) (*client.Client, error) {
	opts := []client.Option{client.WithLogger(app.logger)}
	if session != "" {
		opts = append(opts, client.WithSession(session))
	}
	return client.New(app.cfg.APIURL, opts...)
}

// sessionClient returns a client carrying the stored session for the
// configured account.
func (app *cli) sessionClient() (*client.Client, domain.Role, error) {
	role, err := app.cfg.SessionRole()
	if err != nil {
		return nil, "", err
	}
	if app.cfg.Username == "" {
		return nil, "", errNotSignedIn
	}
	store, err := app.openStore()
	if err != nil {
		return nil, "", err
	}
	session, err := store.Session(role, app.cfg.Username)
	if errors.Is(err, credential.ErrNoSession) {
		return nil, "", errNotSignedIn
	}
	if err != nil {
		return nil, "", err
	}
	c, err := app.newClient(session)
	if err != nil {
		return nil, "", err
	}
	return c, role, nil
}

func (app *cli) runInteractive(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	c, role, err := app.sessionClient()
	if errors.Is(err, errNotSignedIn) {
		printGreeting(out)
		return nil
	}
	if err != nil {
		return err
	}

	// Only force re-login on auth failures, not transient errors.
	if _, err := c.Me(cmd.Context(), role); err != nil {
		if client.IsAuth(err) {
			printGreeting(out)
			return nil
		}
		app.logger.Warn("session check failed", "err", err)
	}

	poller := notify.New(c, notify.WithLogger(app.logger))
	defer poller.Stop()

	if err := app.runTUI(tui.NewApp(c, role, poller, app.logger)); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func newOpenCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open the web portal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := browser.Open(app.cfg.PortalURL); err != nil {
				app.logger.Debug("browser open failed", "err", err)
				fmt.Fprintln(cmd.OutOrStdout(), app.cfg.PortalURL)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		// No config needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "hrdesk "+version)
		},
	}
}
