package player

import (
	"crypto/rand"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/anisan-cli/finplay/log"
	"github.com/anisan-cli/finplay/media"
	"github.com/anisan-cli/finplay/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	defaultVolumeMax  = 100
)

// MPV implements Engine on top of an mpv process driven through JSON-IPC.
type MPV struct {
	opts       Options
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	events     *eventStream
	ipcMu      sync.Mutex

	listeners listeners
	watchers  Watchers

	mu          sync.Mutex
	started     bool
	released    bool
	loaded      bool
	paused      bool
	buffering   bool
	ended       bool
	position    time.Duration
	duration    time.Duration
	volume      int
	volumeMax   int
	pendingSeek time.Duration
	chapters    []media.Chapter
}

// NewMPV creates an engine; the mpv process starts on the first Load.
func NewMPV(opts Options) *MPV {
	return &MPV{
		opts:      opts,
		exited:    make(chan struct{}),
		volume:    defaultVolumeMax,
		volumeMax: defaultVolumeMax,
	}
}

// NewMPVEngine is the Factory for mpv engines.
func NewMPVEngine(opts Options) (Engine, error) {
	if err := CheckInstalled(); err != nil {
		return nil, err
	}
	return NewMPV(opts), nil
}

// CheckInstalled reports an error when mpv cannot be found on PATH.
func CheckInstalled() error {
	if _, err := exec.LookPath("mpv"); err != nil {
		return fmt.Errorf("mpv not found: %w", err)
	}
	return nil
}

// Load starts mpv if needed and replaces the current file with the source.
func (m *MPV) Load(src *media.Source, autoplay bool) error {
	target, err := sanitizeMediaTarget(src.URL)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return ErrNotLoaded
	}
	started := m.started
	m.mu.Unlock()

	if !started {
		if err := m.start(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.loaded = false
	m.ended = false
	m.buffering = true
	m.paused = !autoplay
	m.position = 0
	m.duration = 0
	m.pendingSeek = 0
	m.chapters = src.Chapters
	m.mu.Unlock()
	m.watchers.Clear()

	headers := lo.MapToSlice(src.Headers, func(k, v string) string {
		return fmt.Sprintf("%s: %s", k, strings.ReplaceAll(v, ",", "%2C"))
	})
	if err := m.set("http-header-fields", strings.Join(headers, ",")); err != nil {
		return err
	}
	if err := m.set("force-media-title", sanitizeTitle(src.Item.Title())); err != nil {
		return err
	}
	if err := m.set("pause", !autoplay); err != nil {
		return err
	}
	if _, err := m.sendCommand("loadfile", target, "replace"); err != nil {
		return fmt.Errorf("loadfile: %w", err)
	}

	m.emitState()
	return nil
}

// start launches mpv idle with the IPC socket and opens the event stream.
func (m *MPV) start() error {
	if m.socketPath == "" {
		randomBytes := make([]byte, 4)
		if _, err := rand.Read(randomBytes); err != nil {
			return fmt.Errorf("generate socket name: %w", err)
		}
		m.socketPath = filepath.Join(where.Temp(), fmt.Sprintf("mpv-%x.sock", randomBytes))
	}

	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		fmt.Sprintf("--title=%s", sanitizeTitle(m.opts.Title)),
		"--force-window=yes",
		"--idle=yes",
		"--keep-open=yes",
	}
	args = append(args, m.opts.Decoder.mpvArgs()...)

	m.cmd = exec.Command("mpv", args...)
	detach(m.cmd)
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	m.exited = make(chan struct{})
	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(m.cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	m.events = newEventStream(m.socketPath, m.handleEvent)
	if err := m.events.Start(); err != nil {
		_ = killProcess(m.cmd)
		return err
	}

	if max, err := m.getFloat("volume-max"); err == nil && max > 0 {
		m.mu.Lock()
		m.volumeMax = int(max)
		m.mu.Unlock()
	}

	m.mu.Lock()
	m.started = true
	m.mu.Unlock()

	log.Infof("mpv started on socket %s (decoder %s)", m.socketPath, m.opts.Decoder)
	return nil
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return fmt.Errorf("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// handleEvent folds an mpv event into the engine state and notifies listeners.
func (m *MPV) handleEvent(ev mpvEvent) {
	switch ev.Event {
	case "property-change":
		m.handleProperty(ev.Name, ev.Data)
	case "start-file":
		m.mu.Lock()
		m.buffering = true
		m.mu.Unlock()
		m.emitState()
	case "file-loaded":
		m.mu.Lock()
		m.loaded = true
		m.buffering = false
		seek := m.pendingSeek
		m.pendingSeek = 0
		chapters := m.chapters
		m.mu.Unlock()
		if seek > 0 {
			_ = m.SeekTo(seek)
		}
		if len(chapters) > 0 {
			if err := m.SetChapters(chapters); err != nil {
				log.Warnf("failed to apply chapters: %v", err)
			}
		}
		m.emitState()
	case "playback-restart":
		m.listeners.emit(Event{Kind: EventPositionDiscontinuity, Position: m.Position()})
	case "end-file":
		if ev.Reason == "error" {
			m.listeners.emit(Event{Kind: EventFatalError, Err: classifyFileError(ev.FileError)})
		}
	case "shutdown":
		m.mu.Lock()
		m.loaded = false
		m.mu.Unlock()
		m.emitState()
	}
}

func (m *MPV) handleProperty(name string, data interface{}) {
	switch name {
	case "time-pos":
		secs, ok := data.(float64)
		if !ok {
			return
		}
		pos := seconds(secs)
		m.mu.Lock()
		m.position = pos
		m.mu.Unlock()
		m.watchers.Fire(pos)
		return
	case "duration":
		if secs, ok := data.(float64); ok {
			m.mu.Lock()
			m.duration = seconds(secs)
			m.mu.Unlock()
		}
		return
	case "volume":
		if v, ok := data.(float64); ok {
			m.mu.Lock()
			m.volume = int(v)
			m.mu.Unlock()
		}
		return
	case "pause":
		v, _ := data.(bool)
		m.mu.Lock()
		m.paused = v
		m.mu.Unlock()
	case "paused-for-cache":
		v, _ := data.(bool)
		m.mu.Lock()
		m.buffering = v
		m.mu.Unlock()
	case "eof-reached":
		v, _ := data.(bool)
		m.mu.Lock()
		m.ended = v
		m.mu.Unlock()
	default:
		return
	}
	m.emitState()
}

// emitState publishes the current readiness and play flags.
func (m *MPV) emitState() {
	m.mu.Lock()
	state := m.stateLocked()
	ev := Event{
		Kind:          EventStateChanged,
		State:         state,
		PlayWhenReady: !m.paused,
		IsPlaying:     state == StateReady && !m.paused,
	}
	m.mu.Unlock()

	m.listeners.emit(ev)
}

func (m *MPV) stateLocked() State {
	switch {
	case m.ended:
		return StateEnded
	case m.buffering:
		return StateBuffering
	case m.loaded:
		return StateReady
	default:
		return StateIdle
	}
}

// classifyFileError maps mpv's end-file error text onto engine errors.
func classifyFileError(text string) error {
	lower := strings.ToLower(text)
	for _, hint := range []string{"decod", "codec", "hwdec"} {
		if strings.Contains(lower, hint) {
			return fmt.Errorf("%w: %s", ErrDecoderInit, text)
		}
	}
	if text == "" {
		text = "playback failed"
	}
	return fmt.Errorf("mpv: %s", text)
}

func (m *MPV) active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started && !m.released
}

// Play resumes playback.
func (m *MPV) Play() error {
	if !m.active() {
		return nil
	}
	return m.set("pause", false)
}

// Pause suspends playback.
func (m *MPV) Pause() error {
	if !m.active() {
		return nil
	}
	return m.set("pause", true)
}

// SeekTo moves playback to the given absolute position.
func (m *MPV) SeekTo(position time.Duration) error {
	if !m.active() {
		return nil
	}

	m.mu.Lock()
	if !m.loaded {
		m.pendingSeek = position
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	_, err := m.sendCommand("seek", position.Seconds(), "absolute")
	return err
}

// SetSpeed sets the playback rate factor.
func (m *MPV) SetSpeed(factor float64) error {
	if !m.active() {
		return nil
	}
	return m.set("speed", factor)
}

// SetVolume sets the volume within VolumeRange.
func (m *MPV) SetVolume(level int) error {
	if !m.active() {
		return nil
	}
	min, max := m.VolumeRange()
	level = lo.Clamp(level, min, max)
	if err := m.set("volume", level); err != nil {
		return err
	}
	m.mu.Lock()
	m.volume = level
	m.mu.Unlock()
	return nil
}

// Volume returns the last known volume.
func (m *MPV) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// VolumeRange returns mpv's volume bounds; the upper bound follows volume-max.
func (m *MPV) VolumeRange() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return 0, m.volumeMax
}

// Position returns the last observed playback position.
func (m *MPV) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// Duration returns the media length, zero while unknown.
func (m *MPV) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

// IsPlaying reports whether media is loaded, ready and not paused.
func (m *MPV) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked() == StateReady && !m.paused
}

// Subscribe installs a listener for engine events.
func (m *MPV) Subscribe(l Listener) func() {
	return m.listeners.add(l)
}

// WatchPosition registers a one-shot trigger evaluated on every time-pos update.
func (m *MPV) WatchPosition(at time.Duration, fn func()) func() {
	return m.watchers.Add(at, fn)
}

// SelectTracks switches to the given audio (aid) and subtitle (sid) tracks.
func (m *MPV) SelectTracks(audio, subtitle mo.Option[int]) error {
	if !m.active() {
		return nil
	}
	if aid, ok := audio.Get(); ok {
		if err := m.set("aid", aid); err != nil {
			return err
		}
	}
	if sid, ok := subtitle.Get(); ok {
		if sid < 0 {
			return m.set("sid", "no")
		}
		return m.set("sid", sid)
	}
	return nil
}

// SetChapters publishes chapter markers to the mpv timeline.
func (m *MPV) SetChapters(chapters []media.Chapter) error {
	if !m.active() {
		return nil
	}
	list := lo.Map(chapters, func(c media.Chapter, _ int) map[string]interface{} {
		return map[string]interface{}{"title": c.Name, "time": c.Start.Seconds()}
	})
	return m.set("chapter-list", list)
}

// Release quits mpv and removes its socket. Safe to call repeatedly.
func (m *MPV) Release() error {
	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return nil
	}
	m.released = true
	started := m.started
	m.mu.Unlock()

	m.watchers.Clear()
	m.listeners.clear()

	if !started {
		return nil
	}

	if m.events != nil {
		m.events.Stop()
	}

	_, _ = doSendCommand(m.socketPath, []interface{}{"quit"})

	select {
	case <-m.exited:
	case <-time.After(3 * time.Second):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	return nil
}

func (m *MPV) set(property string, value interface{}) error {
	_, err := m.sendCommand("set_property", property, value)
	return err
}

func (m *MPV) getFloat(name string) (float64, error) {
	data, err := m.sendCommand("get_property", name)
	if err != nil {
		return 0, err
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}
	return val, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// sanitizeMediaTarget validates that a URL or path is safe to pass to mpv.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	// URLs must not look like flags.
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

// sanitizeTitle strips characters that break mpv option parsing.
func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
