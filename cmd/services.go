package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/xvierd/commitwatch/internal/adapters/auth"
	"github.com/xvierd/commitwatch/internal/adapters/git"
	"github.com/xvierd/commitwatch/internal/adapters/notification"
	"github.com/xvierd/commitwatch/internal/adapters/provider"
	"github.com/xvierd/commitwatch/internal/adapters/storage"
	"github.com/xvierd/commitwatch/internal/adapters/tui"
	"github.com/xvierd/commitwatch/internal/config"
	"github.com/xvierd/commitwatch/internal/domain"
	"github.com/xvierd/commitwatch/internal/logging"
	"github.com/xvierd/commitwatch/internal/ports"
	"github.com/xvierd/commitwatch/internal/services"
)

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	loader    *config.Loader
	config    *config.Config
	logger    *slog.Logger
	logCloser io.Closer

	repo     *ports.RepositoryInfo
	strategy domain.Strategy
	location *domain.RemoteLocation

	// inspector is nil when the git binary is not installed.
	inspector ports.RepositoryInspector
	notifier  *notification.Notifier
	program   *tui.Program
	history   ports.HistoryStore
	watcher   *services.Watcher
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// initializeServices loads the configuration and, unless the command only
// needs the configuration, wires the watcher for the repository in workDir.
func initializeServices(cmd *cobra.Command) error {
	loader, err := config.NewLoader(configPath)
	if err != nil {
		return err
	}
	app.loader = loader

	app.config, err = loader.Load()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v; using defaults\n", err)
		app.config = config.DefaultConfig()
	}
	if strategyFlag != "" {
		app.config.Strategy = strategyFlag
	}
	if err := app.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg := app.config.Log
	if logCfg.File == "" && ownsTerminal(cmd) {
		logCfg.File = filepath.Join(filepath.Dir(loader.Path()), "commitwatch.log")
	}
	app.logger, app.logCloser, err = logging.New(logCfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if cmd.Annotations[annotationNoRepo] == "true" {
		return nil
	}
	return wireWatcher(context.Background(), cmd)
}

// wireWatcher discovers the repository, selects the detection strategy and
// builds the watcher.
func wireWatcher(ctx context.Context, cmd *cobra.Command) error {
	cfg := app.config
	logger := app.logger

	dir := workDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}

	repo, err := git.NewLocator().Locate(ctx, dir, cfg.Remote)
	if err != nil {
		return err
	}
	app.repo = repo

	configured, err := domain.ValidateStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	gitAvailable := git.Available()
	strategy := services.ChooseStrategy(configured, gitAvailable)
	if strategy != configured {
		logger.Warn("git command not found, using the provider API", "strategy", strategy)
	}

	runner := git.NewExecRunner(cfg.CommandTimeout())
	var heads ports.HeadReader = git.NewHeadReader(repo.Root)
	if gitAvailable {
		inspector := git.NewInspector(runner, repo.Root, repo.RemoteName)
		app.inspector = inspector
		heads = inspector
	}

	sessions := auth.NewSessionProvider(map[string]string{"github": cfg.GitHub.Token}, runner, logger)
	registry := provider.NewRegistry(
		provider.NewGitHub(cfg.GitHub.BaseURL, sessions, provider.WithLogger(logger)),
		provider.NewBitbucket(cfg.Bitbucket.BaseURL, cfg.Bitbucket.Username, cfg.Bitbucket.AppPassword, provider.WithLogger(logger)),
	)
	remoteProvider, location := registry.Resolve(repo.RemoteURL)
	app.location = location

	if location == nil {
		logger.Warn("remote is not hosted on a supported provider", "remote", repo.RemoteName, "url", repo.RemoteURL)
		if strategy == domain.StrategyRemoteAPI {
			if !gitAvailable {
				return fmt.Errorf("cannot watch %s: %w and git is not installed", repo.RemoteURL, domain.ErrUnrecognizedRemote)
			}
			logger.Warn("falling back to local fetch", "url", repo.RemoteURL)
			strategy = domain.StrategyLocalFetch
		}
	}
	app.strategy = strategy

	var strat services.Strategy
	switch strategy {
	case domain.StrategyRemoteAPI:
		strat = services.NewRemoteAPIStrategy(heads, remoteProvider, *location, cfg.CommandTimeout())
	default:
		strat = services.NewLocalFetchStrategy(app.inspector, logger)
	}
	detector := services.NewDivergenceDetector(strat, heads, cfg.Branch)

	app.history, err = storage.NewMemory(storage.DefaultRetention)
	if err != nil {
		return err
	}

	app.notifier = notification.New(cfg.Notifications)
	presenter := notification.NewFanout(logger, app.notifier, terminalPresenter(cmd))

	app.watcher = services.NewWatcher(detector, app.inspector, presenter, app.history, watcherConfig(cfg, repo), logger)

	logger.Debug("watcher ready",
		"repository", repo.Root,
		"remote", repo.RemoteName,
		"strategy", strategy,
		"interval", cfg.Interval(),
	)
	return nil
}

// terminalPresenter returns the presenter for watch output, or nil for
// one-shot commands which print their own results.
func terminalPresenter(cmd *cobra.Command) ports.Presenter {
	if cmd.Annotations[annotationWatch] != "true" {
		return nil
	}
	if ownsTerminal(cmd) {
		app.program = tui.NewProgram()
		if detailsOnAlert {
			app.program.WithDetails()
		}
		return app.program
	}
	line := tui.NewLinePresenter(cmd.OutOrStdout())
	if detailsOnAlert {
		line.WithDetails()
	}
	return line
}

// ownsTerminal reports whether cmd runs the full-screen UI.
func ownsTerminal(cmd *cobra.Command) bool {
	if cmd.Annotations[annotationWatch] != "true" || plainOutput || jsonOutput {
		return false
	}
	return term.IsTerminal(os.Stdout.Fd())
}

func watcherConfig(cfg *config.Config, repo *ports.RepositoryInfo) services.WatcherConfig {
	return services.WatcherConfig{
		Interval:      cfg.Interval(),
		Notifications: cfg.Notifications.Enabled,
		Persistent:    cfg.Notifications.IsPersistent(),
		Repository:    repo.Root,
		Remote:        repo.RemoteName,
	}
}

// followConfigChanges applies edits to the config file while watching.
// Changes to the strategy, remote or credentials need a restart.
func followConfigChanges() {
	app.loader.Watch(func(cfg *config.Config, err error) {
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			app.logger.Warn("ignoring config change", "error", err)
			return
		}
		app.logger.Info("config reloaded", "check_interval", cfg.CheckInterval)
		app.notifier.Configure(cfg.Notifications)
		app.watcher.Reconfigure(watcherConfig(cfg, app.repo))
	})
}

// cleanupServices closes all resources.
func cleanupServices() error {
	var errs []error
	if app.watcher != nil && app.watcher.IsWatching() {
		if err := app.watcher.Stop(); err != nil && !errors.Is(err, domain.ErrNotWatching) {
			errs = append(errs, err)
		}
	}
	if app.history != nil {
		errs = append(errs, app.history.Close())
		app.history = nil
	}
	if app.logCloser != nil {
		errs = append(errs, app.logCloser.Close())
		app.logCloser = nil
	}
	return errors.Join(errs...)
}
