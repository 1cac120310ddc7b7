package session

import (
	"context"
	"time"

	"github.com/anisan-cli/finplay/constant"
	"github.com/anisan-cli/finplay/log"
	"github.com/anisan-cli/finplay/media"
	"github.com/anisan-cli/finplay/server"
	"github.com/samber/mo"
)

func (c *Controller) remote() bool {
	return c.source != nil && c.source.Remote && c.deps.Reporter != nil
}

// progressPayload snapshots the state reported with start and progress events.
func (c *Controller) progressPayload() server.PlaybackProgress {
	volume := c.volumePercent()
	return server.PlaybackProgress{
		ItemID:              c.source.Item.ID,
		PlayMethod:          c.source.PlayMethod,
		PlaySessionID:       c.source.PlaySessionID,
		AudioStreamIndex:    optionPtr(c.source.AudioStreamIndex),
		SubtitleStreamIndex: optionPtr(c.source.SubtitleStreamIndex),
		IsPaused:            c.engine == nil || !c.engine.IsPlaying(),
		IsMuted:             volume == 0,
		CanSeek:             true,
		PositionTicks:       media.Ticks(c.position()),
		VolumeLevel:         volume,
		RepeatMode:          constant.RepeatModeNone,
		PlaybackOrder:       constant.PlaybackOrderDefault,
	}
}

func (c *Controller) reportStart() {
	if !c.remote() || c.startReported {
		return
	}
	c.startReported = true

	reporter, payload := c.deps.Reporter, c.progressPayload()
	c.goRemote(func(ctx context.Context) {
		if err := reporter.ReportStart(ctx, payload); err != nil {
			c.logWarn("report start", err)
		}
	})
}

// progressTick is one run of the progress reporter.
func (c *Controller) progressTick() {
	if c.phase == PhaseEnded || !c.remote() {
		return
	}
	c.reportProgress()
}

func (c *Controller) reportProgress() {
	reporter, payload := c.deps.Reporter, c.progressPayload()
	c.goRemote(func(ctx context.Context) {
		if err := reporter.ReportProgress(ctx, payload); err != nil {
			c.logWarn("report progress", err)
		}
	})
}

// reportStop sends the final report of the current load once. The stop report itself
// is detached from the controller context so shutting down does not cancel it.
// Local sources are recorded in the history instead.
func (c *Controller) reportStop() {
	if c.source == nil || c.stopReported {
		return
	}
	c.stopReported = true

	src := c.source
	position, duration := c.position(), c.duration()
	if c.phase == PhaseEnded && duration > 0 {
		position = duration
	}

	if !c.remote() {
		if c.deps.Recorder == nil || !c.opts.SaveHistory {
			return
		}
		recorder := c.deps.Recorder
		c.goRemote(func(context.Context) {
			if err := recorder.Save(src, position, duration); err != nil {
				c.logWarn("save history", err)
			}
		})
		return
	}

	reporter, deviceID := c.deps.Reporter, c.opts.DeviceID
	played := c.completed(position, duration)
	payload := server.PlaybackStop{
		ItemID:        src.Item.ID,
		PositionTicks: media.Ticks(position),
		PlaySessionID: src.PlaySessionID,
		LiveStreamID:  src.LiveStreamID,
	}

	// The stop sequence outlives Destroy, which cancels the controller context.
	c.goRemote(func(ctx context.Context) {
		ctx = context.WithoutCancel(ctx)
		if err := reporter.ReportStop(ctx, payload); err != nil {
			c.logWarn("report stop", err)
		}
		if played {
			if err := reporter.MarkPlayed(ctx, src.Item.ID); err != nil {
				c.logWarn("mark played", err)
			}
		}
		if src.PlayMethod == media.Transcode {
			if err := reporter.StopTranscode(ctx, deviceID, src.PlaySessionID); err != nil {
				c.logWarn("stop transcode", err)
			}
		}
	})
}

func (c *Controller) completed(position, duration time.Duration) bool {
	if duration <= 0 || c.opts.CompletionPercentage <= 0 {
		return false
	}
	return float64(position)/float64(duration)*100 >= c.opts.CompletionPercentage
}

// logWarn logs a failed best-effort call from a background goroutine.
func (c *Controller) logWarn(what string, err error) {
	log.WithFields(log.Fields{"call": what}).Warn(err)
}

func optionPtr(o mo.Option[int]) *int {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	return &v
}
