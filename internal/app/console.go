package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tejashwikalptaru/goplayer/internal/domain"
)

// ErrQuit is returned by Console when the quit command was read.
var ErrQuit = errors.New("quit requested")

const volumeStep = 0.1

// ConsoleHelp describes the commands Console understands.
const ConsoleHelp = `commands:
  space, p      toggle pause
  s             stop
  n, b          next / previous item
  f, r          seek forward / backward
  g <seconds>   go to position
  + , -         volume up / down
  m             toggle mute
  <number>      play item number (1-based)
  a <id>        select audio stream
  t <id>        select subtitle stream
  k <kind> <id> select a stream of any kind
  i             show what is playing
  x <rate>      playback rate
  q             quit`

// commandFor maps one console line to a player command.
func (a *Application) commandFor(line string) (domain.Command, error) {
	if line == " " {
		return domain.TogglePauseCommand(), nil
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return domain.Command{}, errEmptyLine
	}
	word, arg := fields[0], ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	player := a.settings.Player

	switch word {
	case "p":
		return domain.TogglePauseCommand(), nil
	case "s":
		return domain.StopCommand(), nil
	case "n":
		return domain.NextCommand(), nil
	case "b":
		return domain.PreviousCommand(), nil
	case "f":
		return domain.SeekByCommand(player.SeekForward()), nil
	case "r":
		return domain.SeekByCommand(-player.SeekBackward()), nil
	case "g":
		seconds, err := strconv.ParseFloat(arg, 64)
		if err != nil || seconds < 0 {
			return domain.Command{}, fmt.Errorf("g needs a position in seconds: %q", arg)
		}
		return domain.SeekCommand(time.Duration(seconds * float64(time.Second))), nil
	case "+", "-":
		state := a.controller.CurrentState()
		step := volumeStep
		if word == "-" {
			step = -step
		}
		volume := math.Round((state.Volume+step)*100) / 100
		return domain.SetVolumeCommand(min(max(volume, 0), 1)), nil
	case "m":
		return domain.SetMuteCommand(!a.controller.CurrentState().Muted), nil
	case "a", "t":
		id, err := strconv.Atoi(arg)
		if err != nil {
			return domain.Command{}, fmt.Errorf("%s needs a stream id: %q", word, arg)
		}
		kind := domain.TrackAudio
		if word == "t" {
			kind = domain.TrackSubtitle
		}
		return domain.SetTrackCommand(kind, id), nil
	case "k":
		if len(fields) < 3 {
			return domain.Command{}, fmt.Errorf("k needs a stream kind and id: %q", line)
		}
		kind, err := domain.ParseTrackKind(fields[1])
		if err != nil {
			return domain.Command{}, err
		}
		id, err := strconv.Atoi(fields[2])
		if err != nil {
			return domain.Command{}, fmt.Errorf("k needs a stream id: %q", fields[2])
		}
		return domain.SetTrackCommand(kind, id), nil
	case "i":
		return domain.Command{}, errStatusRequest
	case "x":
		rate, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return domain.Command{}, fmt.Errorf("x needs a rate: %q", arg)
		}
		return domain.SetRateCommand(rate), nil
	case "q":
		return domain.Command{}, ErrQuit
	}

	if n, err := strconv.Atoi(word); err == nil {
		return domain.PlayAtCommand(n - 1), nil
	}
	return domain.Command{}, fmt.Errorf("unknown command %q", word)
}

var (
	errEmptyLine     = errors.New("empty line")
	errStatusRequest = errors.New("status requested")
)

// Console reads commands line by line from r and submits them until r is
// exhausted, ctx is done or the quit command is read (ErrQuit).
// Rejections and typos are logged, not returned.
func (a *Application) Console(ctx context.Context, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return ctx.Err()
				}
			}
			if err := a.handleLine(line); err != nil {
				return err
			}
		}
	}
}

// handleLine submits the command of one line. Only ErrQuit and ErrClosed stop the console.
func (a *Application) handleLine(line string) error {
	cmd, err := a.commandFor(line)
	switch {
	case errors.Is(err, ErrQuit):
		return ErrQuit
	case errors.Is(err, errEmptyLine):
		return nil
	case errors.Is(err, errStatusRequest):
		a.logStatus()
		return nil
	case err != nil:
		a.logger.Warn("ignoring console input", slog.Any("error", err))
		return nil
	}

	if err := a.controller.Submit(cmd); err != nil {
		if errors.Is(err, domain.ErrClosed) {
			return err
		}
		a.logger.Info("command not applied",
			slog.String("command", cmd.String()),
			slog.Any("error", err))
	}
	return nil
}

// logStatus reports the current state and the stream topology.
func (a *Application) logStatus() {
	state := a.controller.CurrentState()
	playlist := a.controller.CurrentPlaylist()

	attrs := []any{
		slog.String("state", state.String()),
		slog.Int("item", playlist.Current+1),
		slog.Int("of", playlist.Len()),
		slog.String("progress", fmt.Sprintf("%.0f%%", state.ProgressPercent())),
		slog.Float64("volume", state.Volume),
		slog.Bool("muted", state.Muted),
	}
	for _, track := range state.Streams.Tracks {
		if track.Active {
			attrs = append(attrs, slog.String(track.Kind.String(), track.String()))
		}
	}
	a.logger.Info("status", attrs...)
}
