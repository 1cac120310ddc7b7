package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/anisan-cli/finplay/color"
	"github.com/anisan-cli/finplay/icon"
	"github.com/anisan-cli/finplay/media"
	"github.com/anisan-cli/finplay/player"
	"github.com/anisan-cli/finplay/session"
	"github.com/anisan-cli/finplay/style"
	"github.com/anisan-cli/finplay/util"
	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// controls are the controller operations the console calls directly.
// Playback commands go through the ordered command channel instead.
type controls interface {
	SkipBack()
	SkipForward()
	PreviousChapter()
	NextChapter()
	SkipToPrevious()
	SkipToNext() bool
	Jump(index int) bool
	SkipSegment() bool
	SetSpeed(factor float64)
	HoldSpeed(factor float64)
	ReleaseHold()
	UpdateDecoderType(decoder player.Decoder)
	ChangeBitrate(bitrate mo.Option[int]) bool
}

var errQuit = errors.New("quit")

var decoderNames = []string{"auto", "hardware", "software", "hw", "sw"}

const consoleHelp = `pause, resume, stop, quit
seek <1m30s>, volume <0-100>, back, forward
speed <x>, hold <x>, release
next, prev, chapter+, chapter-, skip
jump <title>, decoder <auto|hardware|software>, bitrate <bps|auto>`

// console turns typed lines into controller calls.
type console struct {
	ctl      controls
	commands chan<- session.Command
	done     <-chan struct{}
	find     func(query string) mo.Option[int]
	out      io.Writer
}

func (c *console) send(cmd session.Command) {
	select {
	case c.commands <- cmd:
	case <-c.done:
	}
}

// handle runs one line. It returns errQuit when the session should end.
func (c *console) handle(line string) error {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	name, arg = strings.ToLower(name), strings.TrimSpace(arg)

	switch name {
	case "":
		return nil
	case "help", "?":
		fmt.Fprintln(c.out, style.Faint(consoleHelp))
	case "pause":
		c.send(session.Pause{})
	case "resume", "play":
		c.send(session.Resume{})
	case "stop":
		c.send(session.Stop{})
	case "quit", "q", "exit":
		c.send(session.Destroy{})
		return errQuit
	case "seek":
		position, err := time.ParseDuration(arg)
		if err != nil || position < 0 {
			return fmt.Errorf("seek: invalid position %q", arg)
		}
		c.send(session.Seek{Position: position})
	case "volume", "vol":
		percent, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("volume: invalid percent %q", arg)
		}
		c.send(session.SetVolume{Percent: percent})
	case "back":
		c.ctl.SkipBack()
	case "forward", "fwd":
		c.ctl.SkipForward()
	case "chapter+":
		c.ctl.NextChapter()
	case "chapter-":
		c.ctl.PreviousChapter()
	case "next":
		if !c.ctl.SkipToNext() {
			return errors.New("no next item")
		}
	case "prev", "previous":
		c.ctl.SkipToPrevious()
	case "skip":
		if !c.ctl.SkipSegment() {
			return errors.New("nothing to skip")
		}
	case "speed", "hold":
		factor, err := strconv.ParseFloat(arg, 64)
		if err != nil || factor <= 0 {
			return fmt.Errorf("%s: invalid factor %q", name, arg)
		}
		if name == "hold" {
			c.ctl.HoldSpeed(factor)
		} else {
			c.ctl.SetSpeed(factor)
		}
	case "release":
		c.ctl.ReleaseHold()
	case "decoder":
		if !lo.Contains(decoderNames, strings.ToLower(arg)) {
			return fmt.Errorf("decoder: unknown decoder %q", arg)
		}
		c.ctl.UpdateDecoderType(player.ParseDecoder(arg))
	case "bitrate":
		bitrate, err := parseBitrate(arg)
		if err != nil {
			return err
		}
		if !c.ctl.ChangeBitrate(bitrate) {
			return errors.New("bitrate can only change for transcoded server items")
		}
	case "jump":
		index, ok := c.find(arg).Get()
		if !ok {
			return fmt.Errorf("no item matches %q", arg)
		}
		c.ctl.Jump(index)
	default:
		return fmt.Errorf("unknown command %q, type help", name)
	}

	return nil
}

// consolePresenter prints what the controller surfaces.
type consolePresenter struct {
	mu       sync.Mutex
	out      io.Writer
	finished chan struct{}
	once     sync.Once
}

func newConsolePresenter(out io.Writer) *consolePresenter {
	return &consolePresenter{out: out, finished: make(chan struct{})}
}

func (p *consolePresenter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *consolePresenter) PhaseChanged(phase session.Phase) {
	switch phase {
	case session.PhasePlaying:
		p.printf("%s %s", icon.Get(icon.Play), style.Fg(color.Green)(phase.String()))
	case session.PhasePaused:
		p.printf("%s %s", icon.Get(icon.Pause), style.Fg(color.Yellow)(phase.String()))
	case session.PhaseReleased:
		p.printf("%s %s", icon.Get(icon.Success), style.Faint("session ended"))
		p.once.Do(func() { close(p.finished) })
	case session.PhaseError:
	default:
		p.printf("%s", style.Faint(phase.String()))
	}
}

func (p *consolePresenter) ShowSkipPrompt(seg media.Segment) {
	p.printf("%s %s %s", icon.Get(icon.Skip), style.Bold(string(seg.Type)), style.Faint("type skip to jump past it"))
}

func (p *consolePresenter) HideSkipPrompt() {}

func (p *consolePresenter) MarkChapters(watched []bool) {
	marks := lo.Map(watched, func(w bool, _ int) string {
		return lo.Ternary(w, style.Fg(color.Purple)("■"), style.Faint("□"))
	})
	p.printf("%s %s %s", icon.Get(icon.Mark), style.Faint("chapters"), strings.Join(marks, ""))
}

func (p *consolePresenter) ShowError(message string) {
	p.printf("%s %s", icon.Get(icon.Fail), style.Fg(color.Failure)(wrapToTerminal(message)))
	p.once.Do(func() { close(p.finished) })
}

// wrapToTerminal wraps s to the terminal width when stdout is a terminal.
func wrapToTerminal(s string) string {
	width, _, err := util.TerminalSize()
	if err != nil || width <= 0 {
		return s
	}
	return wordwrap.String(s, util.Clamp(width-4, 20, 120))
}
