package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/goplayer/internal/app"
	"github.com/tejashwikalptaru/goplayer/internal/domain"
)

type playFlags struct {
	repeat    string
	shuffle   bool
	noConsole bool
}

func newPlayCommand(global *globalFlags) *cobra.Command {
	flags := &playFlags{}

	cmd := &cobra.Command{
		Use:   "play [file|folder|url]...",
		Short: "Play media, or resume the saved playlist when no arguments are given",
		Long: "Play the given files, folders and URLs in order. Folders are searched for media files.\n" +
			"Without arguments the playlist of the previous session is resumed.\n\n" + app.ConsoleHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, global, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.repeat, "repeat", "r", "", "Repeat mode (off, one, all)")
	cmd.Flags().BoolVarP(&flags.shuffle, "shuffle", "s", false, "Shuffle the playlist")
	cmd.Flags().BoolVar(&flags.noConsole, "no-console", false, "Do not read commands from standard input")
	return cmd
}

func runPlay(cmd *cobra.Command, global *globalFlags, flags *playFlags, args []string) error {
	settings, err := global.loadSettings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.DefaultConfig()
	cfg.Settings = settings

	// Create the application with dependency injection
	application, err := app.NewApplication(cfg)
	if err != nil {
		return err
	}

	// Ensure a graceful shutdown
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Shutdown error: %v\n", err)
		}
	}()

	log := application.Logger()
	controller := application.Controller()

	if len(args) > 0 {
		n, err := application.ReplacePlaylist(ctx, args, nil)
		if n == 0 {
			return err
		}
		if err != nil {
			log.Warn("some targets were skipped", slog.Any("error", err))
		}
		log.Info("playlist loaded", slog.Int("items", n))
	}

	if flags.repeat != "" {
		mode, err := domain.ParseRepeatMode(flags.repeat)
		if err != nil {
			return err
		}
		if err := controller.SetRepeat(mode); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("shuffle") {
		if err := controller.SetShuffle(flags.shuffle); err != nil {
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !flags.noConsole {
		go func() {
			err := application.Console(runCtx, cmd.InOrStdin())
			if errors.Is(err, app.ErrQuit) {
				cancel()
			}
		}()
	}

	err = application.Run(runCtx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
