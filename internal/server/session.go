package server

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one connected emulator client. The identifier is minted at
// handshake and keys all per-client pipeline state; it is never reused
// across connections, even from the same emulator.
type Session struct {
	conn        net.Conn
	connectedAt time.Time

	mu         sync.Mutex
	id         uuid.UUID
	name       string
	program    uint16
	handshaken bool
	frames     int64
	lastFrame  time.Time
}

func (s *Session) begin(name string, program uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = uuid.New()
	s.name = name
	s.program = program
	s.handshaken = true
}

func (s *Session) frameDone() {
	s.mu.Lock()
	s.frames++
	s.lastFrame = time.Now()
	s.mu.Unlock()
}

func (s *Session) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) Program() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.program
}

func (s *Session) Handshaken() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handshaken
}

// Frames reports how many image frames this session has answered.
func (s *Session) Frames() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *Session) ConnectedAt() time.Time { return s.connectedAt }

// Info is the JSON-friendly snapshot of a session used by the HTTP API.
type Info struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Program     uint16    `json:"program"`
	Frames      int64     `json:"frames"`
	ConnectedAt time.Time `json:"connected_at"`
	LastFrame   time.Time `json:"last_frame,omitempty"`
}

func (s *Session) Snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:          s.id,
		Name:        s.name,
		Program:     s.program,
		Frames:      s.frames,
		ConnectedAt: s.connectedAt,
		LastFrame:   s.lastFrame,
	}
}
