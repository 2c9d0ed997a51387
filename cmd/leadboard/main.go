package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/evanschultz/leadboard/internal/adapters/server"
	"github.com/evanschultz/leadboard/internal/adapters/storage/postgres"
	"github.com/evanschultz/leadboard/internal/adapters/storage/sqlite"
	"github.com/evanschultz/leadboard/internal/app"
	"github.com/evanschultz/leadboard/internal/config"
	"github.com/evanschultz/leadboard/internal/platform"
	"github.com/evanschultz/leadboard/internal/tui"
)

// version is stamped at release; "dev" builds default to dev-mode paths.
var version = "dev"

// program is the part of tea.Program the TUI flow needs.
type program interface {
	Run() (tea.Model, error)
}

// programFactory builds the TUI program. Tests swap it for a scripted one.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP and MCP server. Tests swap it to capture wiring.
var serveCommandRunner = server.Run

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := fang.Execute(ctx, newRootCommand(os.Stdout, os.Stderr), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// run executes one command line with plain error reporting.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(append([]string{}, args...))
	root.SilenceErrors = true
	root.SilenceUsage = true
	return root.ExecuteContext(ctx)
}

// cliState carries persistent flag values into every subcommand.
type cliState struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	dbRef      string
	driver     string
	appName    string
	devMode    bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	s := &cliState{stdout: stdout, stderr: stderr}

	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("LEADBOARD_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultApp := "leadboard"
	if envApp := strings.TrimSpace(os.Getenv("LEADBOARD_APP_NAME")); envApp != "" {
		defaultApp = envApp
	}

	root := &cobra.Command{
		Use:   "leadboard",
		Short: "Lead and task boards for a small business",
		Long: `leadboard keeps sales leads and team tasks on two kanban boards.

Run without a subcommand to open the terminal board. Drag cards between
columns with the mouse, or grab one with space and walk it with h/l.

Examples:
  leadboard
  leadboard board leads --json
  leadboard serve --bind 0.0.0.0:8420
  leadboard export --format yaml --out backup.yaml`,
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.runTUI(cmd.Context())
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&s.configPath, "config", "", "path to config TOML")
	flags.StringVar(&s.dbRef, "db", "", "sqlite database path, or the postgres URL with --driver postgres")
	flags.StringVar(&s.driver, "driver", "", "storage driver: sqlite|postgres")
	flags.StringVar(&s.appName, "app", defaultApp, "application name for config/data path resolution")
	flags.BoolVar(&s.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newServeCommand(s),
		newPathsCommand(s),
		newBoardCommand(s),
		newExportCommand(s),
		newImportCommand(s),
		newMigrateCommand(s),
		newTokenCommand(s),
		newConfigCommand(s),
	)
	return root
}

// resolvePaths returns the platform paths for the selected app name and mode.
func (s *cliState) resolvePaths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: s.appName,
		DevMode: s.devMode,
	})
}

// configFile returns the --config flag, else LEADBOARD_CONFIG, else the platform path.
func (s *cliState) configFile(paths platform.Paths) string {
	if path := strings.TrimSpace(s.configPath); path != "" {
		return path
	}
	if envPath := strings.TrimSpace(os.Getenv("LEADBOARD_CONFIG")); envPath != "" {
		return envPath
	}
	return paths.ConfigPath
}

// resolvedConfig is the effective configuration and where it came from.
type resolvedConfig struct {
	paths      platform.Paths
	configPath string
	cfg        config.Config
}

// loadConfig layers TOML, .env, process environment and flags, in that order.
func (s *cliState) loadConfig() (resolvedConfig, error) {
	paths, err := s.resolvePaths()
	if err != nil {
		return resolvedConfig{}, err
	}
	configPath := s.configFile(paths)

	cfg, err := config.Load(configPath, config.Default(paths.DBPath))
	if err != nil {
		return resolvedConfig{}, fmt.Errorf("load config %q: %w", configPath, err)
	}
	env, err := config.ReadEnv(paths.EnvPath)
	if err != nil {
		return resolvedConfig{}, err
	}
	cfg, err = cfg.ApplyEnv(env)
	if err != nil {
		return resolvedConfig{}, fmt.Errorf("apply environment: %w", err)
	}

	if driver := strings.ToLower(strings.TrimSpace(s.driver)); driver != "" {
		cfg.Database.Driver = driver
	}
	if ref := strings.TrimSpace(s.dbRef); ref != "" {
		if cfg.Database.Driver == config.DriverPostgres {
			cfg.Database.URL = ref
		} else {
			cfg.Database.Path = ref
		}
	}
	if err := cfg.Validate(); err != nil {
		return resolvedConfig{}, err
	}
	return resolvedConfig{paths: paths, configPath: configPath, cfg: cfg}, nil
}

// repository is a storage adapter the CLI owns and must close.
type repository interface {
	app.Repository
	Close() error
}

// session is one command's open store, service and logger.
type session struct {
	resolvedConfig
	logger *runtimeLogger
	repo   repository
	svc    *app.Service
}

// open resolves config, starts logging and connects the configured store.
func (s *cliState) open(ctx context.Context, command string, console bool) (*session, error) {
	resolved, err := s.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newRuntimeLogger(s.stderr, s.appName, s.devMode, resolved.cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.SetConsoleEnabled(console)

	logger.Info("startup configuration resolved", "app", s.appName, "dev_mode", s.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", resolved.configPath, "data_dir", resolved.paths.DataDir)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	repo, err := openRepository(ctx, resolved.cfg.Database, logger)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	svc := app.NewService(repo, uuid.NewString, nil, app.ServiceConfig{
		DefaultDeleteMode: app.DeleteMode(resolved.cfg.Delete.DefaultMode),
		LeadColumns:       columnTemplates(resolved.cfg.Board.LeadColumns),
		TaskColumns:       columnTemplates(resolved.cfg.Board.TaskColumns),
	})
	logger.Debug("application service initialized", "default_delete_mode", resolved.cfg.Delete.DefaultMode)
	return &session{resolvedConfig: resolved, logger: logger, repo: repo, svc: svc}, nil
}

// Close releases the store and the dev log file.
func (ss *session) Close() {
	if err := ss.repo.Close(); err != nil {
		ss.logger.Warn("repository close failed", "driver", ss.cfg.Database.Driver, "err", err)
	}
	if err := ss.logger.Close(); err != nil && ss.logger.ConsoleEnabled() {
		ss.logger.Warn("close runtime log sink", "err", err)
	}
}

func openRepository(ctx context.Context, db config.DatabaseConfig, logger *runtimeLogger) (repository, error) {
	switch db.Driver {
	case config.DriverPostgres:
		logger.Info("opening postgres repository")
		repo, err := postgres.Open(ctx, db.URL)
		if err != nil {
			logger.Error("postgres open failed", "err", err)
			return nil, fmt.Errorf("open postgres repository: %w", err)
		}
		logger.Info("postgres repository ready", "migrations", "applied")
		return repo, nil
	default:
		logger.Info("opening sqlite repository", "db_path", db.Path)
		repo, err := sqlite.Open(db.Path)
		if err != nil {
			logger.Error("sqlite open failed", "db_path", db.Path, "err", err)
			return nil, fmt.Errorf("open sqlite repository: %w", err)
		}
		logger.Info("sqlite repository ready", "db_path", db.Path, "migrations", "ensured")
		return repo, nil
	}
}

func columnTemplates(columns []config.ColumnConfig) []app.ColumnTemplate {
	out := make([]app.ColumnTemplate, 0, len(columns))
	for _, column := range columns {
		out = append(out, app.ColumnTemplate{Title: column.Title, Color: column.Color})
	}
	return out
}

// runTUI opens the terminal board. Console logging stays muted while it runs.
func (s *cliState) runTUI(ctx context.Context) error {
	ss, err := s.open(ctx, "tui", false)
	if err != nil {
		return err
	}
	defer ss.Close()

	cfg := ss.cfg
	m := tui.NewModel(
		ss.svc,
		tui.WithDefaultDeleteMode(app.DeleteMode(cfg.Delete.DefaultMode)),
		tui.WithCardWidth(cfg.Board.CardWidth),
		tui.WithKeyConfig(tui.KeyConfig{
			NewCard:  cfg.Keys.NewCard,
			EditCard: cfg.Keys.EditCard,
			Grab:     cfg.Keys.Grab,
			Copy:     cfg.Keys.Copy,
			Reload:   cfg.Keys.Reload,
		}),
	)
	ss.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		ss.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	ss.logger.Info("command flow complete", "command", "tui")
	return nil
}

// parseBoolEnv reads a boolean environment variable; ok is false when unset or malformed.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
