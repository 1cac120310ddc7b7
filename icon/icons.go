package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Fail Icon = iota
	Success
	Progress
	Mark
	Link
	Play
	Pause
	Skip
	Warn
)

var icons = map[Icon]*iconDef{
	Fail: {
		emoji:   "💀",
		nerd:    "",
		plain:   "X",
		kaomoji: "(×_×)",
		squares: "🟥",
	},
	Success: {
		emoji:   "🎉",
		nerd:    "",
		plain:   "✓",
		kaomoji: "(ᵔ◡ᵔ)",
		squares: "🟩",
	},
	Progress: {
		emoji:   "👨‍🍳",
		nerd:    "",
		plain:   "...",
		kaomoji: "(・_・ヾ",
		squares: "🟦",
	},
	Mark: {
		emoji:   "🔖",
		nerd:    "",
		plain:   "*",
		kaomoji: "(＾▽＾)",
		squares: "🟨",
	},
	Link: {
		emoji:   "🔗",
		nerd:    "",
		plain:   "->",
		kaomoji: "(・ω・)b",
		squares: "🟪",
	},
	Play: {
		emoji:   "▶️",
		nerd:    "",
		plain:   ">",
		kaomoji: "(ง •̀_•́)ง",
		squares: "🟩",
	},
	Pause: {
		emoji:   "⏸️",
		nerd:    "",
		plain:   "||",
		kaomoji: "(－_－) zzZ",
		squares: "🟨",
	},
	Skip: {
		emoji:   "⏭️",
		nerd:    "",
		plain:   ">>",
		kaomoji: "ε=ε=┌( >_<)┘",
		squares: "🟦",
	},
	Warn: {
		emoji:   "⚠️",
		nerd:    "",
		plain:   "!",
		kaomoji: "(⊙_⊙;)",
		squares: "🟧",
	},
}
