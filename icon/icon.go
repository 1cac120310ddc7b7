// Package icon renders the status symbols printed by the CLI and the play console
// in the variant the user picked (emoji, nerd-font glyphs, plain ASCII, kaomoji or squares).
package icon

import (
	"github.com/anisan-cli/finplay/key"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	kaomoji = "kaomoji"
	squares = "squares"
)

// AvailableVariants lists the accepted values of icons.variant.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, kaomoji, squares}
}

// IsVariant reports whether name is an accepted variant.
func IsVariant(name string) bool {
	return lo.Contains(AvailableVariants(), name)
}

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	kaomoji string
	squares string
}

func (d *iconDef) variant(name string) string {
	switch name {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case kaomoji:
		return d.kaomoji
	case squares:
		return d.squares
	default:
		return ""
	}
}

// Get renders i in the configured variant. Unknown variants render nothing.
func Get(i Icon) string {
	def, ok := icons[i]
	if !ok {
		return ""
	}
	return def.variant(viper.GetString(key.IconsVariant))
}
