// ABOUTME: Root command and application wiring for the expirytrack CLI
// ABOUTME: Loads config, opens the database and builds the service before each subcommand
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harperreed/expirytrack/config"
	"github.com/harperreed/expirytrack/db"
	"github.com/harperreed/expirytrack/logging"
	"github.com/harperreed/expirytrack/mail"
	"github.com/harperreed/expirytrack/models"
	"github.com/harperreed/expirytrack/notify"
	"github.com/harperreed/expirytrack/service"
)

const Version = "0.1.0"

// Subcommands annotated with noDatabase skip opening the database.
const noDatabase = "no-database"

type app struct {
	dbPath     string
	configPath string
	actorEmail string

	cfg    *config.Config
	logger *zap.Logger
	db     *sql.DB
	mailer mail.Transport
	svc    *service.Service
}

// Execute runs the CLI with the process arguments.
func Execute() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	a := &app{}
	defer a.close()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "expirytrack",
		Short: "Track asset validity windows and send expiry reminders",
		Long: "expirytrack keeps a catalog of validity rules and the assets that follow them,\n" +
			"computes expiration dates and mails owners before anything lapses.",
		SilenceUsage:      true,
		PersistentPreRunE: a.initialize,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.dbPath, "db-path", "", "Database path (default: ~/.local/share/expirytrack/expirytrack.db)")
	flags.StringVar(&a.configPath, "config", "", "Config file (default: ~/.config/expirytrack/config.yaml)")
	flags.StringVar(&a.actorEmail, "as", os.Getenv("EXPIRYTRACK_ACTOR"), "Email of the acting user")

	root.AddCommand(
		versionCmd(),
		a.usersCmd(),
		a.rulesCmd(),
		a.assetsCmd(),
		a.notifyCmd(),
		a.mailCmd(),
		a.mcpCmd(),
		a.tuiCmd(),
		a.vizCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version",
		Annotations: map[string]string{noDatabase: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "expirytrack version %s\n", Version)
			return err
		},
	}
}

// initialize loads configuration and wires the service for the running command.
func (a *app) initialize(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DatabasePath = a.dbPath
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger

	if cmd.Annotations[noDatabase] != "" {
		return nil
	}

	database, err := db.OpenDatabase(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = database

	a.mailer, err = a.transport(cmd.Context())
	if err != nil {
		return err
	}

	location, err := cfg.Notify.Location()
	if err != nil {
		return err
	}
	a.svc = service.New(database, logger, service.Options{
		Mailer:      a.mailer,
		TopicLabels: cfg.Notify.TopicLabels,
		Location:    location,
	})
	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) transport(ctx context.Context) (mail.Transport, error) {
	switch a.cfg.Mail.Transport {
	case config.TransportGmail:
		token, err := mail.LoadToken(a.cfg.Mail.TokenPath)
		if err != nil {
			return nil, fmt.Errorf("no gmail token, run 'expirytrack mail auth' first: %w", err)
		}
		oauthConfig := mail.NewOAuthConfig(a.cfg.Mail.ClientID, a.cfg.Mail.ClientSecret)
		return mail.NewGmailTransport(ctx, oauthConfig, token, a.cfg.Mail.From)
	default:
		return mail.NewLogTransport(a.logger), nil
	}
}

func (a *app) runner() (*notify.Runner, error) {
	roles, err := a.cfg.Notify.Roles()
	if err != nil {
		return nil, err
	}
	location, err := a.cfg.Notify.Location()
	if err != nil {
		return nil, err
	}
	return notify.NewRunner(
		db.NewAssetRepository(a.db).WithLogger(a.logger.Named("db")),
		db.NewUserRepository(a.db),
		a.mailer,
		a.logger,
		notify.Options{
			LookaheadDays: a.cfg.Notify.LookaheadDays,
			CcRoles:       roles,
			CcScope:       a.cfg.Notify.CcScope,
			Concurrency:   a.cfg.Notify.Concurrency,
			SendTimeout:   a.cfg.Notify.SendTimeout,
			RatePerSecond: a.cfg.Notify.RatePerSecond,
			TopicLabels:   a.cfg.Notify.TopicLabels,
			Location:      location,
		},
	), nil
}

// actor resolves --as into the acting user.
func (a *app) actor(ctx context.Context) (models.Actor, error) {
	if a.actorEmail == "" {
		return models.Actor{}, errors.New("--as <email> is required (or set EXPIRYTRACK_ACTOR)")
	}
	return a.svc.Actor(ctx, a.actorEmail)
}
