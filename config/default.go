// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/anisan-cli/finplay/color"
	"github.com/anisan-cli/finplay/constant"
	"github.com/anisan-cli/finplay/key"
	"github.com/anisan-cli/finplay/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Finplay + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.ServerURL, "", "Base URL of the media server, e.g. https://media.example.org\nLeave empty to play local files only")
	register(key.ServerUserID, "", "Id of the signed-in server user.\nSet by \"finplay login\"")
	register(key.ServerDeviceID, "", "Device id reported to the server.\nGenerated on first login when empty")
	register(key.ServerDeviceName, "finplay", "Device name shown in the server dashboard")
	register(key.ServerClientName, "finplay", "Client name reported in the authorization header")

	register(key.Player, "mpv", "Playback engine to use")
	register(key.PlayerDecoder, "auto", "Preferred decoder path.\nAvailable options are: auto, hardware, software")
	register(key.PlayerAutoplay, true, "Start playback as soon as the media is ready")
	register(key.PlayerCompletionPercentage, 90, "Percentage of the runtime after which an item is marked as played (1-100)")
	register(key.PlayerPreviousThreshold, 3000, "Position in ms under which \"prev\" goes to the previous item instead of rewinding")
	register(key.PlayerChapterGrace, 5000, "Grace window in ms subtracted from the position when jumping to the previous chapter")
	register(key.PlayerSkipBack, 10000, "Skip back length in ms, used when the server preferences are unavailable")
	register(key.PlayerSkipForward, 30000, "Skip forward length in ms, used when the server preferences are unavailable")
	register(key.PlayerAutoPlayNext, true, "Play the next queue item when one ends, used when the server user config is unavailable")

	register(key.SessionProgressInterval, 10000, "Interval in ms between progress reports")
	register(key.SessionChapterInterval, 1000, "Interval in ms between chapter marker refreshes")
	register(key.SessionSegmentInterval, 1000, "Interval in ms between ask-to-skip segment checks")

	register(key.SegmentsEnable, true, "Fetch media segments (intro, outro, ...) for each item")
	register(key.SegmentsAniskip, false, "Also query aniskip for items carrying a MyAnimeList id")
	register(key.SegmentsIntro, "ask", "Action for intro segments.\nAvailable options are: skip, ask, ignore")
	register(key.SegmentsOutro, "ask", "Action for outro segments.\nAvailable options are: skip, ask, ignore")
	register(key.SegmentsRecap, "ignore", "Action for recap segments.\nAvailable options are: skip, ask, ignore")
	register(key.SegmentsPreview, "ignore", "Action for preview segments.\nAvailable options are: skip, ask, ignore")
	register(key.SegmentsCommercial, "skip", "Action for commercial segments.\nAvailable options are: skip, ask, ignore")

	register(key.HistorySaveOnStop, true, "Remember the position of local files to resume them later")

	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")

	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")

	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
