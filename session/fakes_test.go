package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anisan-cli/finplay/media"
	"github.com/anisan-cli/finplay/nowplaying"
	"github.com/anisan-cli/finplay/player"
	"github.com/anisan-cli/finplay/queue"
	"github.com/anisan-cli/finplay/server"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

type fakeEngine struct {
	opts player.Options

	mu        sync.Mutex
	listeners map[int]player.Listener
	nextID    int
	watchers  player.Watchers
	loads     []*media.Source
	calls     []string
	playing   bool
	position  time.Duration
	duration  time.Duration
	volume    int
	volumeMax int
	speeds    []float64
	tracks    int
	released  int
}

func (e *fakeEngine) record(format string, args ...interface{}) {
	e.calls = append(e.calls, fmt.Sprintf(format, args...))
}

func (e *fakeEngine) Load(src *media.Source, _ bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loads = append(e.loads, src)
	e.record("load %s", src.Item.ID)
	e.position = src.StartPosition
	return nil
}

func (e *fakeEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("play")
	return nil
}

func (e *fakeEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("pause")
	return nil
}

func (e *fakeEngine) SeekTo(position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("seek %s", position)
	e.position = position
	return nil
}

func (e *fakeEngine) SetSpeed(factor float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speeds = append(e.speeds, factor)
	return nil
}

func (e *fakeEngine) SelectTracks(mo.Option[int], mo.Option[int]) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracks++
	return nil
}

func (e *fakeEngine) SetVolume(level int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("volume %d", level)
	e.volume = level
	return nil
}

func (e *fakeEngine) Volume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *fakeEngine) VolumeRange() (int, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return 0, e.volumeMax
}

func (e *fakeEngine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

func (e *fakeEngine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *fakeEngine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *fakeEngine) Subscribe(l player.Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[int]player.Listener)
	}
	id := e.nextID
	e.nextID++
	e.listeners[id] = l
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

func (e *fakeEngine) WatchPosition(at time.Duration, fn func()) func() {
	return e.watchers.Add(at, fn)
}

func (e *fakeEngine) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released++
	e.record("release")
	e.listeners = nil
	e.watchers.Clear()
	return nil
}

func (e *fakeEngine) emit(ev player.Event) {
	e.mu.Lock()
	listeners := lo.Values(e.listeners)
	e.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}

// ready reports the engine ready, playing or not.
func (e *fakeEngine) ready(playing bool) {
	e.mu.Lock()
	e.playing = playing
	e.mu.Unlock()
	e.emit(player.Event{Kind: player.EventStateChanged, State: player.StateReady, PlayWhenReady: playing, IsPlaying: playing})
}

func (e *fakeEngine) state(s player.State) {
	e.emit(player.Event{Kind: player.EventStateChanged, State: s})
}

func (e *fakeEngine) fatal(err error) {
	e.emit(player.Event{Kind: player.EventFatalError, Err: err})
}

// setPosition simulates a position update, firing due watchers like a real engine.
func (e *fakeEngine) setPosition(position time.Duration) {
	e.mu.Lock()
	e.position = position
	e.mu.Unlock()
	e.watchers.Fire(position)
}

func (e *fakeEngine) setDuration(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.duration = d
}

func (e *fakeEngine) resetCalls() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}

func (e *fakeEngine) snapshot() (calls []string, loads []*media.Source, speeds []float64, tracks, released int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...), append([]*media.Source(nil), e.loads...), append([]float64(nil), e.speeds...), e.tracks, e.released
}

func (e *fakeEngine) Calls() []string {
	calls, _, _, _, _ := e.snapshot()
	return calls
}

func (e *fakeEngine) Loads() []*media.Source {
	_, loads, _, _, _ := e.snapshot()
	return loads
}

func (e *fakeEngine) Speeds() []float64 {
	_, _, speeds, _, _ := e.snapshot()
	return speeds
}

func (e *fakeEngine) Tracks() int {
	_, _, _, tracks, _ := e.snapshot()
	return tracks
}

func (e *fakeEngine) Released() int {
	_, _, _, _, released := e.snapshot()
	return released
}

type fakeFactory struct {
	mu      sync.Mutex
	engines []*fakeEngine
	err     error

	// failNext is returned by the next New call only.
	failNext error
	failed   []player.Decoder
}

func (f *fakeFactory) New(opts player.Options) (player.Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if err := f.failNext; err != nil {
		f.failNext = nil
		f.failed = append(f.failed, opts.Decoder)
		return nil, err
	}
	e := &fakeEngine{opts: opts, volume: 100, volumeMax: 100}
	f.engines = append(f.engines, e)
	return e, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}

func (f *fakeFactory) last() *fakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.engines[len(f.engines)-1]
}

type fakeReporter struct {
	mu         sync.Mutex
	starts     []server.PlaybackProgress
	progress   []server.PlaybackProgress
	stops      []server.PlaybackStop
	played     []string
	transcodes []string
	stopCtxErr []error
	finalErrs  []error

	// stopGate, when set, holds ReportStop until it is closed.
	stopGate chan struct{}
}

func (r *fakeReporter) ReportStart(_ context.Context, p server.PlaybackProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, p)
	return nil
}

func (r *fakeReporter) ReportProgress(_ context.Context, p server.PlaybackProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
	return nil
}

func (r *fakeReporter) ReportStop(ctx context.Context, p server.PlaybackStop) error {
	if r.stopGate != nil {
		<-r.stopGate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops = append(r.stops, p)
	r.stopCtxErr = append(r.stopCtxErr, ctx.Err())
	return nil
}

func (r *fakeReporter) MarkPlayed(ctx context.Context, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = append(r.played, itemID)
	r.finalErrs = append(r.finalErrs, ctx.Err())
	return nil
}

func (r *fakeReporter) StopTranscode(ctx context.Context, deviceID, playSessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcodes = append(r.transcodes, deviceID+"/"+playSessionID)
	r.finalErrs = append(r.finalErrs, ctx.Err())
	return errors.New("no active encoding")
}

func (r *fakeReporter) counts() (starts, progress, stops int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.starts), len(r.progress), len(r.stops)
}

type fakePreferences struct {
	display server.DisplayPreferences
	user    server.UserConfig
	err     error
}

func (p *fakePreferences) DisplayPreferences(context.Context, string, string) (server.DisplayPreferences, error) {
	return p.display, p.err
}

func (p *fakePreferences) CurrentUserConfig(context.Context) (server.UserConfig, error) {
	return p.user, p.err
}

type fakeSegments struct {
	segments []media.Segment
	actions  map[media.SegmentType]media.SegmentAction
}

func (s *fakeSegments) SegmentsFor(context.Context, media.Item) []media.Segment {
	return s.segments
}

func (s *fakeSegments) ActionFor(seg media.Segment) media.SegmentAction {
	return s.actions[seg.Type]
}

type fakePresenter struct {
	mu       sync.Mutex
	phases   []Phase
	shown    []media.Segment
	hidden   int
	chapters [][]bool
	errors   []string
}

func (p *fakePresenter) PhaseChanged(phase Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phases = append(p.phases, phase)
}

func (p *fakePresenter) ShowSkipPrompt(seg media.Segment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, seg)
}

func (p *fakePresenter) HideSkipPrompt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hidden++
}

func (p *fakePresenter) MarkChapters(watched []bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chapters = append(p.chapters, watched)
}

func (p *fakePresenter) ShowError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, message)
}

type fakeCompanion struct {
	mu      sync.Mutex
	events  []string
	updates []nowplaying.State
}

func (c *fakeCompanion) Activate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, "activate")
}

func (c *fakeCompanion) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, "deactivate")
}

func (c *fakeCompanion) Update(st nowplaying.State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, st)
}

func (c *fakeCompanion) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, "dispose")
}

type fakeRecorder struct {
	mu    sync.Mutex
	saved []time.Duration
}

func (r *fakeRecorder) Save(_ *media.Source, position, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, position)
	return nil
}

func testOptions() Options {
	return Options{
		Decoder:              player.DecoderHardware,
		Autoplay:             true,
		DeviceID:             "dev",
		ProgressInterval:     time.Hour,
		ChapterInterval:      time.Hour,
		SegmentInterval:      time.Hour,
		PreviousThreshold:    3 * time.Second,
		ChapterGrace:         5 * time.Second,
		SkipBack:             10 * time.Second,
		SkipForward:          30 * time.Second,
		AutoPlayNext:         true,
		CompletionPercentage: 90,
		SaveHistory:          true,
	}
}

func remoteSource(id string) *media.Source {
	return &media.Source{
		Item:             media.Item{ID: id, Name: id, RunTime: 20 * time.Minute},
		URL:              "https://media.example.org/videos/" + id + "/stream",
		Remote:           true,
		PlayMethod:       media.DirectPlay,
		PlaySessionID:    "ps-" + id,
		AudioStreamIndex: mo.Some(1),
		Chapters: []media.Chapter{
			{Name: "Opening", Start: 0},
			{Name: "Part A", Start: time.Minute},
			{Name: "Part B", Start: 10 * time.Minute},
		},
	}
}

func localSource(name string) *media.Source {
	return &media.Source{
		Item: media.Item{Name: name},
		URL:  "/media/" + name + ".mkv",
	}
}

type fixture struct {
	c         *Controller
	factory   *fakeFactory
	reporter  *fakeReporter
	queue     *queue.Playlist
	segments  *fakeSegments
	presenter *fakePresenter
	companion *fakeCompanion
	recorder  *fakeRecorder
}

func newFixture(prefs Preferences, opts Options, sources ...*media.Source) *fixture {
	f := &fixture{
		factory:   &fakeFactory{},
		reporter:  &fakeReporter{},
		queue:     lo.Must(queue.New(sources...)),
		segments:  &fakeSegments{},
		presenter: &fakePresenter{},
		companion: &fakeCompanion{},
		recorder:  &fakeRecorder{},
	}

	f.c = lo.Must(New(Deps{
		Factory:      f.factory.New,
		Reporter:     f.reporter,
		Preferences:  prefs,
		Queue:        f.queue,
		Segments:     f.segments,
		Presenter:    f.presenter,
		Recorder:     f.recorder,
		NewCompanion: func() Companion { return f.companion },
	}, opts))
	return f
}

// settle waits until the controller and its background calls are idle.
func (f *fixture) settle() {
	for i := 0; i < 3; i++ {
		f.c.exec.call(func() {})
		f.c.wg.Wait()
	}
	f.c.exec.call(func() {})
}

func (f *fixture) engine() *fakeEngine {
	return f.factory.last()
}

// play loads the current queue item and reports it ready and playing.
func (f *fixture) play() *fakeEngine {
	f.c.LoadCurrent()
	f.settle()
	e := f.engine()
	e.ready(true)
	f.settle()
	return e
}

// inspect runs fn on the controller goroutine.
func (f *fixture) inspect(fn func()) {
	f.c.exec.call(fn)
}

func (f *fixture) runningTasks() []string {
	var running []string
	f.inspect(func() {
		for kind := taskKind(0); kind < taskCount; kind++ {
			if f.c.tasks[kind] != nil {
				running = append(running, kind.String())
			}
		}
	})
	return running
}
