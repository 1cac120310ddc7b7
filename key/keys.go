// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Media Server - these keys locate the server and identify this client to it.
const (
	ServerURL        = "server.url"
	ServerUserID     = "server.user_id"
	ServerDeviceID   = "server.device_id"
	ServerDeviceName = "server.device_name"
	ServerClientName = "server.client_name"
)

// Media Playback - these keys configure the engine and the defaults used when the server cannot be reached.
const (
	Player                     = "player.default"
	PlayerDecoder              = "player.decoder"
	PlayerAutoplay             = "player.autoplay"
	PlayerCompletionPercentage = "player.completion_percentage"
	PlayerPreviousThreshold    = "player.previous_threshold_ms"
	PlayerChapterGrace         = "player.chapter_grace_ms"
	PlayerSkipBack             = "player.skip_back_ms"
	PlayerSkipForward          = "player.skip_forward_ms"
	PlayerAutoPlayNext         = "player.auto_play_next"
)

// Session Scheduling - these keys define the periods of the background session tasks.
const (
	SessionProgressInterval = "session.progress_interval_ms"
	SessionChapterInterval  = "session.chapter_interval_ms"
	SessionSegmentInterval  = "session.segment_interval_ms"
)

// Media Segments - these keys map each segment type to the action taken when playback reaches it.
const (
	SegmentsEnable     = "segments.enable"
	SegmentsAniskip    = "segments.aniskip"
	SegmentsIntro      = "segments.intro"
	SegmentsOutro      = "segments.outro"
	SegmentsRecap      = "segments.recap"
	SegmentsPreview    = "segments.preview"
	SegmentsCommercial = "segments.commercial"
)

// History Tracking - these keys configure the persistence of local resume positions.
const (
	HistorySaveOnStop = "history.save_on_stop"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern non-playback application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)

// Visual Presentation - these keys control how symbols are rendered.
const (
	IconsVariant = "icons.variant"
)
