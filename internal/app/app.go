// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"github.com/spf13/afero"

	"github.com/tejashwikalptaru/goplayer/internal/adapter/engine/mpd"
	"github.com/tejashwikalptaru/goplayer/internal/adapter/engine/sim"
	"github.com/tejashwikalptaru/goplayer/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/goplayer/internal/adapter/mediainfo"
	"github.com/tejashwikalptaru/goplayer/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/goplayer/internal/config"
	"github.com/tejashwikalptaru/goplayer/internal/domain"
	"github.com/tejashwikalptaru/goplayer/internal/logger"
	"github.com/tejashwikalptaru/goplayer/internal/ports"
	"github.com/tejashwikalptaru/goplayer/internal/service"
)

// Application is the root application structure that holds all dependencies.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Restoring the previous session
// - Managing the application lifecycle (startup, shutdown)
type Application struct {
	// Core dependencies
	logger   *slog.Logger
	fyneApp  fyne.App
	settings *config.Config

	// Infrastructure
	eventBus *eventbus.SyncEventBus
	engine   ports.MediaEngine
	prober   *mediainfo.Prober

	// Repositories
	settingsRepo *memory.SettingsRepository

	// Services
	controller *service.Controller
	recorder   *service.SessionRecorder

	shutdownOnce sync.Once
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier, it scopes the saved preferences
	AppID string

	// Settings is the loaded configuration file; nil means config.Default()
	Settings *config.Config

	// Engine replaces the engine selected by Settings (for testing)
	Engine ports.MediaEngine

	// Filesystem is used for probing and by the simulated engine; nil means the OS filesystem
	Filesystem afero.Fs

	// LogOutput receives log records; nil means stderr
	LogOutput io.Writer

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	return Config{
		AppID:    "com.goplayer.app",
		Settings: config.Default(),
	}
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(cfg Config) (*Application, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{settings: settings}

	// Step 1: Create logger
	loggerCfg := logger.FromSettings(settings.Log.Level, settings.Log.Format)
	loggerCfg.Output = cfg.LogOutput
	app.logger = logger.NewLogger(loggerCfg)
	app.logger.Info("initializing application",
		slog.String("app_id", cfg.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 2: Create the Fyne application; it only backs the preferences store
	if cfg.TestFyneApp != nil {
		app.fyneApp = cfg.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(cfg.AppID)
	}

	// Step 3: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus()
	app.eventBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))

	// Step 4: Create the media engine
	if cfg.Engine != nil {
		app.engine = cfg.Engine
	} else {
		engine, err := newEngine(app.logger, settings.Engine, cfg.Filesystem)
		if err != nil {
			return nil, fmt.Errorf("failed to create media engine: %w", err)
		}
		app.engine = engine
	}

	// Step 5: Create repositories and probe
	app.settingsRepo = memory.NewSettingsRepository(
		app.fyneApp.Preferences(),
		app.logger.With(slog.String("component", "settings")),
	)
	app.settingsRepo.SetDefaultVolume(settings.Player.Volume)
	app.prober = mediainfo.NewProber(app.logger.With(slog.String("component", "prober")), cfg.Filesystem)

	// Step 6: Restore the previous session and create the controller
	opts, err := app.restoreOptions()
	if err != nil {
		// Non-fatal - start from a clean session
		app.logger.Warn("failed to restore session", slog.Any("error", err))
	}

	app.controller = service.NewController(
		app.logger.With(slog.String("component", "controller")),
		app.engine,
		app.eventBus,
		opts,
	)

	// Step 7: Wire the settings collaborator and start
	app.recorder = service.NewSessionRecorder(
		app.logger.With(slog.String("component", "session")),
		app.settingsRepo,
		app.eventBus,
	)
	app.controller.Start()

	return app, nil
}

// newEngine builds the engine adapter selected by the configuration.
func newEngine(log *slog.Logger, cfg config.EngineConfig, fs afero.Fs) (ports.MediaEngine, error) {
	switch cfg.Kind {
	case "mpd":
		engine, err := mpd.Dial(log, mpd.Config{
			Host:         cfg.MPD.Host,
			Port:         cfg.MPD.Port,
			Password:     cfg.MPD.Password,
			PollInterval: cfg.MPD.PollInterval(),
		})
		if err != nil {
			return nil, err
		}
		return engine, nil
	case "sim":
		return sim.NewEngine(log.With(slog.String("component", "sim")), fs, sim.Config{
			TickInterval: cfg.Sim.TickInterval(),
			LoadDelay:    cfg.Sim.LoadDelay(),
			Length:       cfg.Sim.DefaultLength(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown engine kind %q", cfg.Kind)
	}
}

// restoreOptions builds controller options from the configuration and the saved session.
// The returned options are usable even when an error is reported.
func (a *Application) restoreOptions() (service.Options, error) {
	player := a.settings.Player

	opts := service.DefaultOptions()
	opts.Machine = service.MachineOptions{
		SeekTolerance:     player.SeekTolerance(),
		SeekMaxStaleTicks: player.SeekMaxStaleTicks,
		AckMaxTicks:       player.AckMaxTicks,
		MinRate:           player.MinRate,
		MaxRate:           player.MaxRate,
	}
	if player.ResumeEnabled() {
		opts.Machine.Resume = a.settingsRepo
	}
	if seed := a.settings.Playlist.Seed; seed != 0 {
		opts.Rand = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}

	// Validated already
	repeat, _ := domain.ParseRepeatMode(a.settings.Playlist.Repeat)
	opts.Playlist.Repeat = repeat
	opts.Playlist.Shuffle = a.settings.Playlist.Shuffle

	var errs []error

	volume, muted, err := a.settingsRepo.LoadVolume()
	if err != nil {
		errs = append(errs, fmt.Errorf("load volume: %w", err))
	} else {
		opts.State.Volume = volume
		opts.State.Muted = muted
	}

	playlist, err := a.settingsRepo.LoadPlaylist()
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("load playlist: %w", err))
	case len(playlist.Items) > 0:
		opts.Playlist = playlist
		a.logger.Info("restored playlist",
			slog.Int("items", len(playlist.Items)),
			slog.Int("current", playlist.Current))
	}

	return opts, errors.Join(errs...)
}

// Controller returns the playback controller.
func (a *Application) Controller() *service.Controller {
	return a.controller
}

// EventBus returns the notification bus.
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// Prober returns the media prober.
func (a *Application) Prober() *mediainfo.Prober {
	return a.prober
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// ReplacePlaylist probes targets and makes them the playlist. Targets that cannot
// be probed are skipped; their errors are returned joined alongside the count of
// items that made it in.
func (a *Application) ReplacePlaylist(ctx context.Context, targets []string, onProgress func(mediainfo.Progress)) (int, error) {
	items, probeErr := a.prober.ProbeAll(ctx, targets, onProgress)
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if len(items) == 0 {
		return 0, errors.Join(domain.ErrPlaylistEmpty, probeErr)
	}

	if err := a.controller.Clear(); err != nil {
		return 0, err
	}
	if err := a.controller.Append(items...); err != nil {
		return 0, err
	}
	return len(items), probeErr
}

// Run starts playback and blocks until the playlist is exhausted, playback is
// stopped or ctx is done. An item that fails is skipped.
func (a *Application) Run(ctx context.Context) error {
	finished := make(chan struct{}, 1)
	failed := make(chan domain.PlaybackErrorEvent, 1)

	// Handlers run on the controller goroutine, they only signal
	stateSub := a.eventBus.SubscribeFiltered(domain.EventStateChanged,
		domain.EnteredState(domain.StateStopped),
		func(domain.Event) {
			select {
			case finished <- struct{}{}:
			default:
			}
		})
	errorSub := a.eventBus.Subscribe(domain.EventPlaybackError, func(event domain.Event) {
		select {
		case failed <- event.(domain.PlaybackErrorEvent):
		default:
		}
	})
	defer a.eventBus.Unsubscribe(stateSub)
	defer a.eventBus.Unsubscribe(errorSub)

	if err := a.controller.Submit(domain.PlayCommand()); err != nil {
		return err
	}
	a.logger.Info("goplayer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-finished:
			a.logger.Info("playback finished")
			return nil
		case e := <-failed:
			title := "-"
			if e.Item != nil {
				title = e.Item.DisplayTitle()
			}
			a.logger.Warn("skipping item",
				slog.String("title", title),
				slog.String("kind", e.Kind.String()),
				slog.String("message", e.Message))

			if err := a.controller.Submit(domain.NextCommand()); err != nil {
				if !errors.Is(err, domain.ErrRejected) {
					return err
				}
				// Nothing left to skip to
				if err := a.controller.Submit(domain.StopCommand()); err != nil {
					return err
				}
			}
		}
	}
}

// Shutdown gracefully shuts down the application. It is safe to call more than once.
func (a *Application) Shutdown() error {
	var errs []error

	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		// Save where the current item was left before the controller stops
		a.recorder.Flush()

		// Shutdown services (in reverse order of creation)
		if err := a.recorder.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("session recorder: %w", err))
		}
		if err := a.controller.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("controller: %w", err))
		}

		// Shutdown media engine
		if err := a.engine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("engine: %w", err))
		}

		if err := a.eventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}

		a.logger.Info("application shutdown complete")
	})

	return errors.Join(errs...)
}
