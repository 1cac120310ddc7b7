package player

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/anisan-cli/finplay/log"
)

// mpvEvent is a decoded line of the mpv event stream.
type mpvEvent struct {
	Event     string      `json:"event"`
	Name      string      `json:"name"`
	Data      interface{} `json:"data"`
	Reason    string      `json:"reason"`
	FileError string      `json:"file_error"`
}

// observed lists the properties mpv pushes to the event connection.
var observed = []string{
	"time-pos",
	"duration",
	"pause",
	"paused-for-cache",
	"eof-reached",
	"volume",
}

// eventStream keeps a persistent connection to mpv and dispatches its events.
// Property observers are registered on that same connection, as mpv ties them to the client.
type eventStream struct {
	socketPath string
	conn       net.Conn
	handle     func(mpvEvent)
	stopCh     chan struct{}
	done       chan struct{}
	mu         sync.Mutex
	listening  bool
}

func newEventStream(socketPath string, handle func(mpvEvent)) *eventStream {
	return &eventStream{
		socketPath: socketPath,
		handle:     handle,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start connects, registers the property observers and starts the read loop.
func (es *eventStream) Start() error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.listening {
		return nil
	}

	conn, err := net.Dial("unix", es.socketPath)
	if err != nil {
		return fmt.Errorf("event stream connect: %w", err)
	}

	for i, name := range observed {
		if err := writeCommand(conn, []interface{}{"observe_property", i + 1, name}); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	es.conn = conn
	es.listening = true
	go es.readLoop()

	log.Debugf("mpv event stream started on %s", es.socketPath)
	return nil
}

// Stop closes the connection and waits for the read loop to exit.
func (es *eventStream) Stop() {
	es.mu.Lock()
	if !es.listening {
		es.mu.Unlock()
		return
	}
	es.listening = false
	close(es.stopCh)
	es.conn.Close()
	es.mu.Unlock()

	<-es.done
}

func (es *eventStream) readLoop() {
	defer close(es.done)

	buf := make([]byte, readBufSize)
	var pending []byte

	for {
		select {
		case <-es.stopCh:
			return
		default:
		}

		if err := es.conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			return
		}

		n, err := es.conn.Read(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			select {
			case <-es.stopCh:
			default:
				log.Warnf("mpv event stream read error: %v", err)
			}
			return
		}

		pending = append(pending, buf[:n]...)
		for {
			i := bytes.IndexByte(pending, '\n')
			if i < 0 {
				break
			}
			line := bytes.TrimSpace(pending[:i])
			pending = pending[i+1:]
			if len(line) > 0 {
				es.dispatch(line)
			}
		}
	}
}

// dispatch decodes one line; command replies (no "event" field) are ignored.
func (es *eventStream) dispatch(line []byte) {
	var ev mpvEvent
	if err := json.Unmarshal(line, &ev); err != nil || ev.Event == "" {
		return
	}
	es.handle(ev)
}
