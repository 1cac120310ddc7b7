package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/anisan-cli/finplay/color"
	"github.com/anisan-cli/finplay/icon"
	"github.com/anisan-cli/finplay/nowplaying"
	"github.com/anisan-cli/finplay/style"
	"github.com/anisan-cli/finplay/where"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolP("json", "j", false, "Print the now playing snapshot as JSON")
	statusCmd.Flags().Bool("schema", false, "Print the JSON schema of the snapshot")
	statusCmd.MarkFlagsMutuallyExclusive("json", "schema")
	statusCmd.SetOut(os.Stdout)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is playing",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			reflector := new(jsonschema.Reflector)
			reflector.Anonymous = true
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(reflector.Reflect(&nowplaying.Snapshot{})))
			return
		}

		snapshot, err := nowplaying.Read(where.NowPlaying())
		if errors.Is(err, nowplaying.ErrNoSession) {
			cmd.Println(style.Faint("nothing is playing"))
			return
		}
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(snapshot))
			return
		}

		cmd.Println(formatSnapshot(snapshot, time.Now()))
	},
}

func formatSnapshot(s nowplaying.Snapshot, now time.Time) string {
	state := lo.Switch[string, string](s.Phase).
		Case("playing", icon.Get(icon.Play)+" "+style.Fg(color.Green)(s.Phase)).
		Case("paused", icon.Get(icon.Pause)+" "+style.Fg(color.Yellow)(s.Phase)).
		Case("error", icon.Get(icon.Fail)+" "+style.Fg(color.Red)(s.Phase)).
		Default(style.Faint(s.Phase))

	line := fmt.Sprintf("%s %s\n%s / %s",
		state,
		style.Bold(s.Title),
		clock(s.Position(now)),
		clock(time.Duration(s.DurationMs)*time.Millisecond),
	)
	if s.Speed > 0 && s.Speed != 1 {
		line += style.Faint(fmt.Sprintf("  x%.2g", s.Speed))
	}
	if s.Error != "" {
		line += "\n" + style.Fg(color.Failure)(s.Error)
	}
	return line
}

// clock renders d as h:mm:ss or m:ss.
func clock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	sec := int(d%time.Minute) / int(time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
