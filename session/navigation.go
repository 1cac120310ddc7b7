package session

import (
	"slices"
	"time"

	"github.com/anisan-cli/finplay/media"
	"github.com/anisan-cli/finplay/player"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// SkipBack rewinds by the user's skip-back length.
func (c *Controller) SkipBack() {
	c.exec.call(func() {
		if c.engine != nil {
			c.seek(c.position() - c.skipBack)
		}
	})
}

// SkipForward advances by the user's skip-forward length.
func (c *Controller) SkipForward() {
	c.exec.call(func() {
		if c.engine != nil {
			c.seek(c.position() + c.skipForward)
		}
	})
}

// PreviousChapter seeks to the last chapter starting at or before the position minus
// the grace window. Before the first chapter it moves to the previous queue item.
func (c *Controller) PreviousChapter() {
	c.exec.call(c.previousChapter)
}

func (c *Controller) previousChapter() {
	if c.engine == nil || c.source == nil || len(c.source.Chapters) == 0 {
		return
	}

	target := c.position() - c.opts.ChapterGrace
	if target < 0 {
		c.previousItem()
		return
	}

	starts := c.source.ChapterStarts()
	_, i, found := lo.FindLastIndexOf(starts, func(start time.Duration) bool { return start <= target })
	if !found {
		c.previousItem()
		return
	}
	c.seek(starts[i])
}

// NextChapter seeks to the first chapter after the position, or moves to the next queue item.
func (c *Controller) NextChapter() {
	c.exec.call(c.nextChapter)
}

func (c *Controller) nextChapter() {
	if c.engine == nil || c.source == nil || len(c.source.Chapters) == 0 {
		return
	}

	position := c.position()
	starts := c.source.ChapterStarts()
	if i := slices.IndexFunc(starts, func(start time.Duration) bool { return start > position }); i >= 0 {
		c.seek(starts[i])
		return
	}
	c.nextItem()
}

// SkipToPrevious rewinds the item, or near its start moves to the previous queue item.
func (c *Controller) SkipToPrevious() {
	c.exec.call(c.skipToPrevious)
}

func (c *Controller) skipToPrevious() {
	if c.engine == nil {
		return
	}

	if c.position() > c.opts.PreviousThreshold {
		c.seek(0)
		return
	}

	c.pause()
	if !c.previousItem() {
		c.seek(0)
		c.resume()
	}
}

// SkipToNext moves to the next queue item.
func (c *Controller) SkipToNext() bool {
	var ok bool
	c.exec.call(func() { ok = c.nextItem() })
	return ok
}

// Jump moves to the queue item at index.
func (c *Controller) Jump(index int) bool {
	var ok bool
	c.exec.call(func() {
		ok = c.moveQueue(func(q Queue) bool { return q.Jump(index) })
	})
	return ok
}

func (c *Controller) previousItem() bool {
	return c.moveQueue(Queue.Previous)
}

func (c *Controller) nextItem() bool {
	return c.moveQueue(Queue.Next)
}

// moveQueue finishes the current item and loads the queue's new current one when move succeeds.
func (c *Controller) moveQueue(move func(Queue) bool) bool {
	if c.deps.Queue == nil || !move(c.deps.Queue) {
		return false
	}
	c.finishItem()
	return c.loadFromQueue(true)
}

// finishItem closes the reporting of the current load before another one replaces it.
func (c *Controller) finishItem() {
	c.stopTasks()
	c.hidePrompt()
	c.reportStop()
}

// SkipSegment accepts the shown ask-to-skip prompt and seeks past its segment.
func (c *Controller) SkipSegment() bool {
	var ok bool
	c.exec.call(func() {
		seg, shown := c.prompt.Get()
		if !shown || c.engine == nil {
			return
		}
		c.hidePrompt()
		c.seek(seg.End)
		ok = true
	})
	return ok
}

// SetSpeed changes the playback speed and remembers it.
func (c *Controller) SetSpeed(factor float64) {
	c.exec.call(func() {
		if factor <= 0 {
			return
		}
		c.speed = factor
		c.holding = false
		if c.engine != nil {
			_ = c.engine.SetSpeed(factor)
		}
	})
}

// HoldSpeed applies factor until ReleaseHold without replacing the remembered speed.
func (c *Controller) HoldSpeed(factor float64) {
	c.exec.call(func() {
		if c.engine == nil || factor <= 0 {
			return
		}
		c.holding = true
		_ = c.engine.SetSpeed(factor)
	})
}

// ReleaseHold restores the remembered speed.
func (c *Controller) ReleaseHold() {
	c.exec.call(func() {
		if !c.holding {
			return
		}
		c.holding = false
		if c.engine != nil {
			_ = c.engine.SetSpeed(c.speed)
		}
	})
}

// UpdateDecoderType switches the decoder path, rebuilding the engine and resuming at the
// current position. Unlike the failure fallback it can be used any number of times.
func (c *Controller) UpdateDecoderType(decoder player.Decoder) {
	c.exec.call(func() {
		c.decoder = decoder
		if c.engine == nil || c.source == nil {
			return
		}

		src := c.source.WithStart(c.position())
		c.stopTasks()
		c.hidePrompt()
		c.releaseEngine()

		if err := c.setupEngine(); err != nil {
			c.fail(err)
			return
		}
		c.reload(src)
	})
}

// ChangeBitrate asks the queue to change the stream bitrate and reloads the item
// at the current position when it did.
func (c *Controller) ChangeBitrate(bitrate mo.Option[int]) bool {
	var ok bool
	c.exec.call(func() {
		if c.engine == nil || c.deps.Queue == nil {
			return
		}

		position := c.position()
		if !c.deps.Queue.ChangeBitrate(bitrate) || !c.deps.Queue.RestartCurrent(position) {
			return
		}
		src, found := c.deps.Queue.Current().Get()
		if !found {
			return
		}

		c.reload(src)
		ok = true
	})
	return ok
}

// chapterTick is one run of the chapter-marking updater.
func (c *Controller) chapterTick() {
	if c.engine == nil || c.source == nil {
		return
	}

	position := c.position()
	marks := lo.Map(c.source.Chapters, func(ch media.Chapter, _ int) bool {
		return position >= ch.Start
	})
	if slices.Equal(marks, c.chapterMarks) {
		return
	}
	c.chapterMarks = marks
	c.deps.Presenter.MarkChapters(marks)
}

// segmentTick is one run of the segment-skip updater.
func (c *Controller) segmentTick() {
	if c.engine == nil {
		return
	}

	position := c.position()
	seg, found := lo.Find(c.askToSkip, func(s media.Segment) bool {
		return s.Contains(position)
	})
	if !found {
		c.hidePrompt()
		return
	}

	if shown, ok := c.prompt.Get(); ok && shown == seg {
		return
	}
	c.prompt = mo.Some(seg)
	c.deps.Presenter.ShowSkipPrompt(seg)
}

func (c *Controller) hidePrompt() {
	if c.prompt.IsAbsent() {
		return
	}
	c.prompt = mo.None[media.Segment]()
	c.deps.Presenter.HideSkipPrompt()
}
