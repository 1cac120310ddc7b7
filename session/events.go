package session

import (
	"context"

	"github.com/anisan-cli/finplay/media"
	"github.com/anisan-cli/finplay/player"
)

// skipFloor is the earliest position a skip trigger may fire at, one server tick.
const skipFloor = 100

func (c *Controller) handleEvent(ev player.Event) {
	switch ev.Kind {
	case player.EventFatalError:
		c.handleFatal(ev.Err)
	case player.EventPositionDiscontinuity:
		c.lastPosition = ev.Position
		c.publish()
	case player.EventStateChanged:
		c.onStateChanged(ev)
	}
}

func (c *Controller) onStateChanged(ev player.Event) {
	if c.phase.terminal() || c.phase == PhaseEnded {
		return
	}

	switch ev.State {
	case player.StateEnded:
		c.onEnded()
	case player.StateIdle:
		// The engine lost its media after it was ready, e.g. the window was closed.
		if c.tracksSelected {
			c.logger().Info("engine went idle")
			c.stop()
		}
	case player.StateBuffering:
		if c.phase == PhasePreparing {
			return
		}
		c.setPhase(PhaseBuffering)
	case player.StateReady:
		if !c.tracksSelected {
			c.tracksSelected = true
			c.onFirstReady()
		}

		switch {
		case ev.IsPlaying:
			c.setPhase(PhasePlaying)
		case c.phase == PhaseReady:
		default:
			c.setPhase(PhasePaused)
		}
	}
}

// onFirstReady runs once per load, the first time the engine reports ready.
func (c *Controller) onFirstReady() {
	c.setPhase(PhaseReady)

	if err := c.engine.SelectTracks(c.source.AudioStreamIndex, c.source.SubtitleStreamIndex); err != nil {
		c.logger().Warnf("select tracks: %v", err)
	}

	c.activateCompanion()
	c.publish()
	c.reportStart()
}

func (c *Controller) onEnded() {
	c.setPhase(PhaseEnded)
	c.reportStop()

	if c.autoPlayNext && c.deps.Queue != nil && c.deps.Queue.HasNext() && c.deps.Queue.Next() {
		c.loadFromQueue(true)
		return
	}

	c.stop()
}

// handleFatal performs the one-shot decoder fallback or surfaces the error.
func (c *Controller) handleFatal(err error) {
	if c.phase == PhaseError || c.phase == PhaseReleased {
		return
	}

	position := c.position()
	c.setPhase(PhaseError)

	if !player.IsRecoverable(err) || c.fallbackEngaged || c.source == nil {
		c.fail(err)
		return
	}

	c.logger().Warnf("decoder failure, retrying with %s decoder: %v", c.decoder.Alternate(), err)

	c.releaseEngine()
	c.fallbackEngaged = true
	c.decoder = c.decoder.Alternate()

	if err := c.setupEngine(); err != nil {
		c.fail(err)
		return
	}

	restart := c.source.WithStart(position)
	if c.deps.Queue != nil && c.deps.Queue.RestartCurrent(position) {
		if current, ok := c.deps.Queue.Current().Get(); ok {
			restart = current
		}
	}
	c.reload(restart)
}

// fail surfaces err and leaves the session in the terminal Error phase.
func (c *Controller) fail(err error) {
	c.setPhase(PhaseError)
	c.lastError = err.Error()
	c.logger().Errorf("playback failed: %v", err)
	c.publish()
	c.deps.Presenter.ShowError(c.lastError)
}

// fetchSegments resolves the segments of src off the executor and applies them if src is still loaded.
func (c *Controller) fetchSegments(gen uint64, src *media.Source) {
	if c.deps.Segments == nil {
		return
	}

	segments := c.deps.Segments
	c.goRemote(func(ctx context.Context) {
		found := segments.SegmentsFor(ctx, src.Item)
		c.exec.post(func() {
			if gen != c.loadGen || c.engine == nil {
				return
			}
			c.applySegments(found)
		})
	})
}

// applySegments installs skip triggers and replaces the ask-to-skip list.
func (c *Controller) applySegments(segments []media.Segment) {
	var ask []media.Segment

	for _, seg := range segments {
		switch c.deps.Segments.ActionFor(seg) {
		case media.SegmentSkip:
			c.watchSkip(seg)
		case media.SegmentAskToSkip:
			ask = append(ask, seg)
		}
	}

	c.askToSkip = ask
	if len(ask) > 0 && c.phase == PhasePlaying && c.tasks[taskSegments] == nil {
		c.startTask(taskSegments, c.opts.SegmentInterval, c.segmentTick)
	}
}

// watchSkip seeks past seg the first time playback reaches its start.
// A trigger observed outside the segment, after a resume or seek past it, expires without seeking.
func (c *Controller) watchSkip(seg media.Segment) {
	engine, gen := c.engine, c.loadGen
	at := max(seg.Start, skipFloor)

	cancel := engine.WatchPosition(at, func() {
		c.exec.post(func() {
			if c.engine != engine || c.loadGen != gen {
				return
			}
			if pos := engine.Position(); !seg.Contains(pos) {
				c.logger().Debugf("not skipping %s at %s", seg, pos)
				return
			}
			c.logger().Infof("skipping %s", seg)
			if err := engine.SeekTo(seg.End); err != nil {
				c.logger().Warnf("skip %s: %v", seg.Type, err)
			}
		})
	})
	c.watchCancels = append(c.watchCancels, cancel)
}
