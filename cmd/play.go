package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/anisan-cli/finplay/history"
	"github.com/anisan-cli/finplay/icon"
	"github.com/anisan-cli/finplay/key"
	"github.com/anisan-cli/finplay/log"
	"github.com/anisan-cli/finplay/media"
	"github.com/anisan-cli/finplay/nowplaying"
	"github.com/anisan-cli/finplay/player"
	"github.com/anisan-cli/finplay/queue"
	"github.com/anisan-cli/finplay/segment"
	"github.com/anisan-cli/finplay/server"
	"github.com/anisan-cli/finplay/session"
	"github.com/anisan-cli/finplay/style"
	"github.com/anisan-cli/finplay/util"
	"github.com/anisan-cli/finplay/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("decoder", "d", "", "Decoder path (auto, hardware, software)")
	lo.Must0(viper.BindPFlag(key.PlayerDecoder, playCmd.Flags().Lookup("decoder")))

	playCmd.Flags().String("method", string(media.DirectPlay), "Play method of server items (DirectPlay, DirectStream, Transcode)")
	playCmd.Flags().String("play-session", "", "Play session id of server items")
	playCmd.Flags().Int("audio", -1, "Audio stream index to select")
	playCmd.Flags().Int("subtitle", -1, "Subtitle stream index to select")
	playCmd.Flags().String("bitrate", "", "Maximum streaming bitrate of transcoded items")
	playCmd.Flags().String("series", "", "Series name, items are numbered as episodes")
	playCmd.Flags().Int("episode", 1, "Episode number of the first item when --series is set")
	playCmd.Flags().String("mal", "", "MyAnimeList id used for aniskip segments")
	playCmd.Flags().Bool("no-resume", false, "Start local files from the beginning")
}

var playCmd = &cobra.Command{
	Use:   "play <path|url|itemId=url>...",
	Short: "Play files, streams or server items",
	Long: `Play files, streams or server items in order.
Server items are given as itemId=url and are reported to the configured media server.
Type help while playing to list the console commands.`,
	Example: "  finplay play ~/Videos/ep01.mkv ~/Videos/ep02.mkv\n" +
		"  finplay play 4f1c...=https://media.example.org/Videos/4f1c.../stream?static=true",
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		opts, err := sourceOptionsFromFlags(cmd)
		handleErr(err)

		sources, err := parseSources(args, opts)
		handleErr(err)

		if !lo.Must(cmd.Flags().GetBool("no-resume")) {
			for _, src := range sources {
				if !src.Remote {
					src.StartPosition = history.Resume(src).OrElse(0)
				}
			}
		}

		handleErr(play(sources, os.Stdin, os.Stdout))
	},
}

func sourceOptionsFromFlags(cmd *cobra.Command) (sourceOptions, error) {
	method, err := parsePlayMethod(lo.Must(cmd.Flags().GetString("method")))
	if err != nil {
		return sourceOptions{}, err
	}

	bitrate, err := parseBitrate(lo.Must(cmd.Flags().GetString("bitrate")))
	if err != nil {
		return sourceOptions{}, err
	}

	return sourceOptions{
		Method:        method,
		PlaySessionID: lo.Must(cmd.Flags().GetString("play-session")),
		Audio:         optionalIndex(lo.Must(cmd.Flags().GetInt("audio"))),
		Subtitle:      optionalIndex(lo.Must(cmd.Flags().GetInt("subtitle"))),
		Bitrate:       bitrate,
		MalID:         lo.Must(cmd.Flags().GetString("mal")),
		Series:        lo.Must(cmd.Flags().GetString("series")),
		FirstEpisode:  lo.Must(cmd.Flags().GetInt("episode")),
	}, nil
}

// newController wires a controller to the playlist, the media server (when configured),
// the segment resolver, the resume history and the now-playing snapshot.
func newController(playlist *queue.Playlist, presenter session.Presenter) (*session.Controller, error) {
	if engine := viper.GetString(key.Player); engine != "mpv" {
		return nil, fmt.Errorf("unsupported player %q, only mpv is available", engine)
	}

	opts := session.OptionsFromConfig()

	deps := session.Deps{
		Factory:   player.NewMPVEngine,
		Queue:     playlist,
		Presenter: presenter,
		Recorder:  history.Recorder{},
		NewCompanion: func() session.Companion {
			return nowplaying.New(where.NowPlaying())
		},
	}

	var segments segment.Source
	client, err := server.FromConfig()
	switch {
	case err == nil:
		deps.Reporter = client
		deps.Preferences = server.NewCachedPreferences(client, where.Preferences())
		segments = client
		if opts.DeviceID == "" {
			opts.DeviceID = client.DeviceID()
		}
	case errors.Is(err, server.ErrNotConfigured):
		log.Info("no media server configured, server items will not be reported")
	default:
		return nil, err
	}
	deps.Segments = segment.FromConfig(segments)

	return session.New(deps, opts)
}

func play(sources []*media.Source, in io.Reader, out io.Writer) error {
	playlist, err := queue.New(sources...)
	if err != nil {
		return err
	}

	presenter := newConsolePresenter(out)
	ctl, err := newController(playlist, presenter)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	commands := make(chan session.Command)
	consumed := make(chan error, 1)
	go func() {
		consumed <- ctl.Consume(ctx, commands)
	}()

	fmt.Fprintf(out, "%s %s %s\n",
		icon.Get(icon.Play),
		style.Bold(util.Quantify(playlist.Len(), "item", "items")),
		style.Faint("type help for commands"),
	)
	ctl.LoadCurrent()

	c := &console{ctl: ctl, commands: commands, done: ctx.Done(), find: playlist.Find, out: out}
	lines := readLines(ctx, in)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-presenter.finished:
			break loop
		case err := <-consumed:
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warnf("command channel: %v", err)
			}
			break loop
		case line, ok := <-lines:
			if !ok {
				// Non-interactive input: keep playing until the session ends.
				lines = nil
				continue
			}
			if err := c.handle(line); err != nil {
				if errors.Is(err, errQuit) {
					<-consumed
					break loop
				}
				fmt.Fprintf(out, "%s %s\n", icon.Get(icon.Warn), err)
			}
		}
	}

	lastError := ctl.Status().LastError
	ctl.Destroy()
	ctl.Wait()

	if lastError != "" {
		return errors.New(lastError)
	}
	return nil
}

// readLines forwards the lines of r until it ends or ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
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
	}()
	return lines
}
