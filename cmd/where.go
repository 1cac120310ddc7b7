package cmd

import (
	"encoding/json"
	"os"

	"github.com/anisan-cli/finplay/color"
	"github.com/anisan-cli/finplay/style"
	"github.com/anisan-cli/finplay/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

type whereTarget struct {
	name     string
	where    func() string
	argLong  string
	argShort mo.Option[string]
	// Listed only when asked for by flag.
	hidden bool
}

var wherePaths = []*whereTarget{
	{"Config", where.Config, "config", mo.Some("c"), false},
	{"Logs", where.Logs, "logs", mo.Some("l"), false},
	{"History", where.History, "history", mo.Some("s"), false},
	{"Now playing", where.NowPlaying, "nowplaying", mo.Some("n"), false},
	{"Cache", where.Cache, "cache", mo.None[string](), true},
	{"Preferences", where.Preferences, "preferences", mo.None[string](), true},
	{"Temp", where.Temp, "temp", mo.None[string](), true},
}

func init() {
	rootCmd.AddCommand(whereCmd)

	flags := lo.Map(wherePaths, func(t *whereTarget, _ int) string {
		help := t.name + " path"
		if short, ok := t.argShort.Get(); ok {
			whereCmd.Flags().BoolP(t.argLong, short, false, help)
		} else {
			whereCmd.Flags().Bool(t.argLong, false, help)
		}
		return t.argLong
	})
	whereCmd.MarkFlagsMutuallyExclusive(flags...)

	whereCmd.Flags().BoolP("json", "j", false, "Print every path as a JSON object")
	whereCmd.SetOut(os.Stdout)
}

var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show the paths of the files finplay reads and writes",
	Run: func(cmd *cobra.Command, args []string) {
		if target, ok := lo.Find(wherePaths, func(t *whereTarget) bool {
			return lo.Must(cmd.Flags().GetBool(t.argLong))
		}); ok {
			cmd.Println(target.where())
			return
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			paths := lo.SliceToMap(wherePaths, func(t *whereTarget) (string, string) {
				return t.argLong, t.where()
			})
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(paths))
			return
		}

		header := style.New().Bold(true).Foreground(color.HiPurple).Render
		visible := lo.Reject(wherePaths, func(t *whereTarget, _ int) bool {
			return t.hidden
		})

		for i, t := range visible {
			if i > 0 {
				cmd.Println()
			}
			cmd.Printf("%s %s\n", header(t.name+"?"), style.Fg(color.Yellow)("--"+t.argLong))
			cmd.Println(t.where())
		}
	},
}
