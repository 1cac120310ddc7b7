// Package session implements the playback session controller: it owns the playback engine,
// drives the session state machine, schedules the periodic reporting and marker tasks,
// recovers from decoder failures and serializes external commands.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/anisan-cli/finplay/constant"
	"github.com/anisan-cli/finplay/log"
	"github.com/anisan-cli/finplay/media"
	"github.com/anisan-cli/finplay/nowplaying"
	"github.com/anisan-cli/finplay/player"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
)

// ErrNoFactory is returned by New when no engine factory is given.
var ErrNoFactory = errors.New("session: engine factory is required")

// Controller owns one playback session. Its methods are safe for concurrent use;
// every state change happens on the controller's own goroutine.
type Controller struct {
	deps Deps
	opts Options
	exec *executor

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Owned by the executor.
	phase           Phase
	source          *media.Source
	engine          player.Engine
	unsubscribe     func()
	watchCancels    []func()
	decoder         player.Decoder
	fallbackEngaged bool
	speed           float64
	holding         bool
	askToSkip       []media.Segment
	prompt          mo.Option[media.Segment]
	chapterMarks    []bool
	tracksSelected  bool
	startReported   bool
	stopReported    bool
	lastPosition    time.Duration
	volume          int
	lastError       string
	loadGen         uint64
	tasks           [taskCount]*task
	companion       Companion

	skipBack     time.Duration
	skipForward  time.Duration
	autoPlayNext bool
}

// New creates a controller and starts loading the user preferences in the background.
func New(deps Deps, opts Options) (*Controller, error) {
	if deps.Factory == nil {
		return nil, ErrNoFactory
	}
	if deps.Presenter == nil {
		deps.Presenter = nopPresenter{}
	}

	opts = opts.withIntervals()

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		deps:         deps,
		opts:         opts,
		exec:         newExecutor(),
		ctx:          ctx,
		cancel:       cancel,
		decoder:      opts.Decoder,
		speed:        1,
		volume:       100,
		skipBack:     opts.SkipBack,
		skipForward:  opts.SkipForward,
		autoPlayNext: opts.AutoPlayNext,
	}

	c.loadPreferences()
	return c, nil
}

// loadPreferences fetches the skip lengths and the auto-play setting once. Failures keep the defaults.
func (c *Controller) loadPreferences() {
	prefs := c.deps.Preferences
	if prefs == nil {
		return
	}

	c.goRemote(func(ctx context.Context) {
		display, err := prefs.DisplayPreferences(ctx, constant.DisplayPreferencesScope, constant.DisplayPreferencesClient)
		if err != nil {
			log.Warnf("display preferences unavailable, using defaults: %v", err)
		} else {
			c.exec.post(func() {
				c.skipBack = display.SkipBack.OrElse(c.skipBack)
				c.skipForward = display.SkipForward.OrElse(c.skipForward)
			})
		}

		user, err := prefs.CurrentUserConfig(ctx)
		if err != nil {
			log.Warnf("user configuration unavailable, using defaults: %v", err)
			return
		}
		c.exec.post(func() {
			c.autoPlayNext = user.AutoPlayNextEpisode
		})
	})
}

// goRemote runs fn off the executor with the controller context.
func (c *Controller) goRemote(fn func(ctx context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn(c.ctx)
	}()
}

func (c *Controller) logger() *logrus.Entry {
	fields := log.Fields{"phase": c.phase.String(), "decoder": c.decoder.String()}
	if c.source != nil {
		fields["item"] = c.source.Item.ID
		fields["title"] = c.source.Item.Title()
	}
	return log.WithFields(fields)
}

// Load starts playing src, replacing the current item.
func (c *Controller) Load(src *media.Source) {
	c.exec.call(func() {
		if c.source != nil {
			c.finishItem()
		}
		c.load(src, c.opts.Autoplay)
	})
}

// LoadCurrent loads the current item of the queue.
func (c *Controller) LoadCurrent() bool {
	var ok bool
	c.exec.call(func() {
		ok = c.loadFromQueue(c.opts.Autoplay)
	})
	return ok
}

func (c *Controller) loadFromQueue(autoplay bool) bool {
	if c.deps.Queue == nil {
		return false
	}
	src, ok := c.deps.Queue.Current().Get()
	if !ok {
		return false
	}
	c.load(src, autoplay)
	return true
}

// load binds src to the engine, allocating one if needed. Runs on the executor.
func (c *Controller) load(src *media.Source, autoplay bool) {
	c.stopTasks()
	c.hidePrompt()
	c.cancelWatchers()

	c.loadGen++
	c.source = src
	c.askToSkip = nil
	c.chapterMarks = nil
	c.tracksSelected = false
	c.startReported = false
	c.stopReported = false
	c.lastPosition = src.StartPosition
	c.lastError = ""

	c.setPhase(PhasePreparing)
	c.logger().Info("loading")

	// Engine construction errors get the same decoder classification as runtime ones.
	if c.engine == nil {
		if err := c.setupEngine(); err != nil {
			c.handleFatal(err)
			return
		}
	}

	if err := c.engine.Load(src, autoplay); err != nil {
		c.handleFatal(err)
		return
	}
	if src.StartPosition > 0 {
		if err := c.engine.SeekTo(src.StartPosition); err != nil {
			c.logger().Warnf("resume seek: %v", err)
		}
	}
	if c.speed != 1 {
		_ = c.engine.SetSpeed(c.speed)
	}

	c.fetchSegments(c.loadGen, src)
}

// reload loads src again within the same server playback session.
func (c *Controller) reload(src *media.Source) {
	reported := c.startReported
	c.load(src, true)
	c.startReported = c.startReported || reported
}

// setupEngine creates an engine with the current decoder preference and subscribes to it.
func (c *Controller) setupEngine() error {
	title := ""
	if c.source != nil {
		title = c.source.Item.Title()
	}

	engine, err := c.deps.Factory(player.Options{Decoder: c.decoder, Title: title})
	if err != nil {
		return err
	}

	c.engine = engine
	c.unsubscribe = engine.Subscribe(func(ev player.Event) {
		c.exec.post(func() {
			if c.engine != engine {
				return
			}
			c.handleEvent(ev)
		})
	})
	return nil
}

// releaseEngine unsubscribes from and releases the engine, if any.
func (c *Controller) releaseEngine() {
	if c.engine == nil {
		return
	}

	c.lastPosition = c.position()
	c.cancelWatchers()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	if err := c.engine.Release(); err != nil {
		c.logger().Warnf("release engine: %v", err)
	}
	c.engine = nil
}

func (c *Controller) cancelWatchers() {
	for _, cancel := range c.watchCancels {
		cancel()
	}
	c.watchCancels = nil
}

// position returns the engine position, or the last one known without an engine.
func (c *Controller) position() time.Duration {
	if c.engine != nil {
		c.lastPosition = c.engine.Position()
	}
	return c.lastPosition
}

func (c *Controller) duration() time.Duration {
	if c.engine != nil {
		if d := c.engine.Duration(); d > 0 {
			return d
		}
	}
	if c.source != nil {
		return c.source.Item.RunTime
	}
	return 0
}

// setPhase moves the state machine; leaving Playing stops the periodic tasks first.
func (c *Controller) setPhase(p Phase) {
	old := c.phase
	if old == p {
		return
	}

	if old == PhasePlaying {
		c.stopTasks()
	}
	c.phase = p
	c.logger().WithField("from", old.String()).Debug("phase changed")

	if p == PhasePlaying {
		c.startPlayingTasks()
	}

	c.publish()
	c.deps.Presenter.PhaseChanged(p)
}

// publish pushes the observable state to the companion session.
func (c *Controller) publish() {
	if c.companion == nil {
		return
	}

	st := nowplaying.State{
		Phase:    c.phase.String(),
		Position: c.position(),
		Duration: c.duration(),
		Speed:    c.currentSpeed(),
		Decoder:  c.decoder.String(),
		Error:    c.lastError,
	}
	if c.source != nil {
		st.ItemID = c.source.Item.ID
		st.Title = c.source.Item.Title()
	}
	c.companion.Update(st)
}

func (c *Controller) currentSpeed() float64 {
	if c.engine == nil || c.phase != PhasePlaying {
		return 0
	}
	return c.speed
}

func (c *Controller) activateCompanion() {
	if c.deps.NewCompanion == nil {
		return
	}
	if c.companion == nil {
		c.companion = c.deps.NewCompanion()
	}
	c.companion.Activate()
}

func (c *Controller) disposeCompanion() {
	if c.companion == nil {
		return
	}
	c.companion.Deactivate()
	c.companion.Dispose()
	c.companion = nil
}

// Stop ends the session: final stop report, tasks cancelled, companion disposed, engine dropped.
// Calling it again is a no-op.
func (c *Controller) Stop() {
	c.exec.call(c.stop)
}

func (c *Controller) stop() {
	if c.phase == PhaseReleased || (c.phase == PhaseIdle && c.source == nil) {
		return
	}

	c.stopTasks()
	c.hidePrompt()
	c.reportStop()
	c.releaseEngine()
	c.source = nil
	c.askToSkip = nil
	c.disposeCompanion()
	c.setPhase(PhaseReleased)
	log.Info("session released")
}

// Destroy stops the session and shuts the controller down. Later calls are ignored.
func (c *Controller) Destroy() {
	if !c.exec.call(c.stop) {
		return
	}
	c.exec.close()
	<-c.exec.done
	c.cancel()
}

// Wait blocks until in-flight reports and preference requests finish.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Done is closed once the controller has been destroyed.
func (c *Controller) Done() <-chan struct{} {
	return c.exec.done
}

// Status is a snapshot of the observable controller state.
type Status struct {
	Phase     Phase
	Decoder   player.Decoder
	LastError string
	Item      mo.Option[media.Item]
	Position  time.Duration
	Duration  time.Duration
	Volume    int
	Speed     float64
}

// Status returns the observable state.
func (c *Controller) Status() Status {
	st := Status{Phase: PhaseReleased}
	c.exec.call(func() {
		st = Status{
			Phase:     c.phase,
			Decoder:   c.decoder,
			LastError: c.lastError,
			Item:      mo.None[media.Item](),
			Position:  c.position(),
			Duration:  c.duration(),
			Volume:    c.volumePercent(),
			Speed:     c.speed,
		}
		if c.source != nil {
			st.Item = mo.Some(c.source.Item)
		}
	})
	return st
}

// Phase returns the current state machine phase.
func (c *Controller) Phase() Phase {
	return c.Status().Phase
}
