package constant

// Server-side conventions of the Jellyfin-compatible API.
const (
	// DisplayPreferencesScope is the display preferences id shared by all clients of a user.
	DisplayPreferencesScope = "usersettings"

	// DisplayPreferencesClient is the client namespace the web client stores its settings under.
	DisplayPreferencesClient = "emby"

	// SkipBackPreference and SkipForwardPreference are the custom preference keys holding skip lengths in ms.
	SkipBackPreference    = "skipBackLength"
	SkipForwardPreference = "skipForwardLength"

	// RepeatModeNone and PlaybackOrderDefault are reported on every progress update.
	RepeatModeNone       = "RepeatNone"
	PlaybackOrderDefault = "Default"
)
