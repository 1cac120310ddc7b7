package session

import (
	"context"
	"time"
)

type taskKind int

const (
	taskProgress taskKind = iota
	taskChapters
	taskSegments
	taskCount
)

func (k taskKind) String() string {
	switch k {
	case taskProgress:
		return "progress"
	case taskChapters:
		return "chapters"
	default:
		return "segments"
	}
}

// task is the handle of one periodic background job.
type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// startTask replaces the task of kind with one that runs work on the executor every interval.
// A tick that reaches the executor after the task was stopped is dropped.
func (c *Controller) startTask(kind taskKind, interval time.Duration, work func()) {
	c.stopTask(kind)

	ctx, cancel := context.WithCancel(c.ctx)
	t := &task{cancel: cancel, done: make(chan struct{})}
	c.tasks[kind] = t

	go func() {
		defer close(t.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.exec.post(func() {
					if ctx.Err() != nil {
						return
					}
					work()
				})
			}
		}
	}()
}

func (c *Controller) stopTask(kind taskKind) {
	if t := c.tasks[kind]; t != nil {
		t.cancel()
		c.tasks[kind] = nil
	}
}

func (c *Controller) stopTasks() {
	for kind := taskKind(0); kind < taskCount; kind++ {
		c.stopTask(kind)
	}
}

// startPlayingTasks starts the tasks that apply to the current load.
func (c *Controller) startPlayingTasks() {
	if c.source == nil {
		return
	}
	if c.source.Remote && c.deps.Reporter != nil {
		c.startTask(taskProgress, c.opts.ProgressInterval, c.progressTick)
	}
	if len(c.source.Chapters) > 0 {
		c.startTask(taskChapters, c.opts.ChapterInterval, c.chapterTick)
	}
	if len(c.askToSkip) > 0 {
		c.startTask(taskSegments, c.opts.SegmentInterval, c.segmentTick)
	}
}
