package session

import (
	"context"
	"time"

	"github.com/samber/lo"
)

// Command is an external playback command.
type Command interface {
	apply(c *Controller) (destroy bool)
}

type (
	Pause   struct{}
	Resume  struct{}
	Stop    struct{}
	Destroy struct{}

	// Seek moves to an absolute position.
	Seek struct{ Position time.Duration }

	// SetVolume sets the volume in percent; out of range values are clamped.
	SetVolume struct{ Percent int }
)

func (Pause) apply(c *Controller) bool  { c.pause(); return false }
func (Resume) apply(c *Controller) bool { c.resume(); return false }
func (Stop) apply(c *Controller) bool   { c.stop(); return false }
func (Destroy) apply(*Controller) bool  { return true }

func (s Seek) apply(c *Controller) bool {
	c.seek(s.Position)
	return false
}

func (s SetVolume) apply(c *Controller) bool {
	c.setVolume(s.Percent)
	return false
}

// Consume dispatches commands strictly in arrival order until the channel closes,
// ctx ends, or a Destroy command destroys the controller.
func (c *Controller) Consume(ctx context.Context, commands <-chan Command) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-commands:
			if !ok {
				return nil
			}

			var destroy bool
			if !c.exec.call(func() { destroy = cmd.apply(c) }) {
				return nil
			}
			if destroy {
				c.Destroy()
				return nil
			}
		}
	}
}

// Pause pauses playback.
func (c *Controller) Pause() { c.exec.call(c.pause) }

// Resume resumes playback.
func (c *Controller) Resume() { c.exec.call(c.resume) }

// Seek moves to an absolute position.
func (c *Controller) Seek(position time.Duration) {
	c.exec.call(func() { c.seek(position) })
}

// SetVolume sets the volume in percent and reports it right away.
func (c *Controller) SetVolume(percent int) {
	c.exec.call(func() { c.setVolume(percent) })
}

func (c *Controller) pause() {
	if c.engine == nil {
		return
	}
	if err := c.engine.Pause(); err != nil {
		c.logger().Warnf("pause: %v", err)
	}
}

func (c *Controller) resume() {
	if c.engine == nil {
		return
	}
	if err := c.engine.Play(); err != nil {
		c.logger().Warnf("play: %v", err)
	}
}

func (c *Controller) seek(position time.Duration) {
	if c.engine == nil {
		return
	}

	position = max(position, 0)
	if d := c.duration(); d > 0 {
		position = min(position, d)
	}
	if err := c.engine.SeekTo(position); err != nil {
		c.logger().Warnf("seek: %v", err)
		return
	}
	c.lastPosition = position
}

func (c *Controller) setVolume(percent int) {
	if c.engine == nil {
		return
	}

	percent = lo.Clamp(percent, 0, 100)
	lower, upper := c.engine.VolumeRange()
	level := lower + (upper-lower)*percent/100

	if err := c.engine.SetVolume(level); err != nil {
		c.logger().Warnf("set volume: %v", err)
		return
	}
	c.volume = percent

	if c.phase != PhaseEnded && c.remote() {
		c.reportProgress()
	}
}

// volumePercent maps the engine volume back to percent.
func (c *Controller) volumePercent() int {
	if c.engine == nil {
		return c.volume
	}

	lower, upper := c.engine.VolumeRange()
	if upper <= lower {
		return c.volume
	}
	return lo.Clamp((c.engine.Volume()-lower)*100/(upper-lower), 0, 100)
}
