// Package nowplaying publishes the state of the active play session to a snapshot file
// that other processes (status bars, "finplay status") can read.
package nowplaying

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/anisan-cli/finplay/filesystem"
	"github.com/anisan-cli/finplay/log"
)

// ErrNoSession is returned by Read when nothing is playing.
var ErrNoSession = errors.New("nothing is playing")

// State is what the controller publishes.
type State struct {
	ItemID   string
	Title    string
	Phase    string
	Position time.Duration
	Duration time.Duration
	Speed    float64
	Decoder  string
	Error    string
}

// Snapshot is the published form of a State.
type Snapshot struct {
	Active     bool      `json:"active" jsonschema:"description=Whether the session currently owns playback"`
	PID        int       `json:"pid" jsonschema:"description=Process id of the player front-end"`
	ItemID     string    `json:"item_id,omitempty"`
	Title      string    `json:"title"`
	Phase      string    `json:"phase" jsonschema:"enum=idle,enum=preparing,enum=ready,enum=playing,enum=paused,enum=buffering,enum=ended,enum=error,enum=released"`
	PositionMs int64     `json:"position_ms"`
	DurationMs int64     `json:"duration_ms"`
	Speed      float64   `json:"speed"`
	Decoder    string    `json:"decoder"`
	Error      string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Position estimates the playback position at now.
func (s *Snapshot) Position(now time.Time) time.Duration {
	position := time.Duration(s.PositionMs) * time.Millisecond
	if s.Phase != "playing" || s.Speed <= 0 {
		return position
	}

	position += time.Duration(float64(now.Sub(s.UpdatedAt)) * s.Speed)
	if duration := time.Duration(s.DurationMs) * time.Millisecond; duration > 0 && position > duration {
		return duration
	}
	return position
}

// Session owns the snapshot file of one controller.
type Session struct {
	path     string
	mu       sync.Mutex
	snapshot Snapshot
	disposed bool
}

// New creates an inactive session writing to path.
func New(path string) *Session {
	return &Session{path: path, snapshot: Snapshot{PID: os.Getpid()}}
}

// Activate marks the session as owning playback.
func (s *Session) Activate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Active = true
	s.publish()
}

// Deactivate marks the session as no longer owning playback.
func (s *Session) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Active = false
	s.publish()
}

// Update publishes st.
func (s *Session) Update(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.ItemID = st.ItemID
	s.snapshot.Title = st.Title
	s.snapshot.Phase = st.Phase
	s.snapshot.PositionMs = st.Position.Milliseconds()
	s.snapshot.DurationMs = st.Duration.Milliseconds()
	s.snapshot.Speed = st.Speed
	s.snapshot.Decoder = st.Decoder
	s.snapshot.Error = st.Error
	s.publish()
}

// Dispose removes the snapshot file. The session ignores every later call.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true

	if err := filesystem.API().Remove(s.path); err != nil && !os.IsNotExist(err) {
		log.Warnf("remove now playing snapshot: %v", err)
	}
}

// Snapshot returns the last published snapshot.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *Session) publish() {
	if s.disposed {
		return
	}

	s.snapshot.UpdatedAt = time.Now()
	data, err := json.Marshal(s.snapshot)
	if err != nil {
		log.Warnf("marshal now playing snapshot: %v", err)
		return
	}

	if err := filesystem.WriteAtomic(s.path, data); err != nil {
		log.Warnf("write now playing snapshot: %v", err)
	}
}

// Read loads the snapshot published at path.
func Read(path string) (Snapshot, error) {
	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, ErrNoSession
		}
		return Snapshot{}, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}
