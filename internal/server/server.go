// Package server accepts emulator clients over TCP, feeds their screen
// captures through the decision pipeline and replies with the action mask
// for each frame. One goroutine per connection; frames from a single client
// are strictly sequential, so at most one frame per client is ever in
// flight.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmark/framebot/internal/bot"
	"github.com/fieldmark/framebot/internal/journal"
	"github.com/fieldmark/framebot/internal/monitoring"
	"github.com/fieldmark/framebot/internal/pipeline/steps"
	"github.com/fieldmark/framebot/internal/wire"
)

var (
	ErrNotHandshaken = errors.New("server: image frame before handshake")
	ErrRehandshake   = errors.New("server: duplicate handshake on connection")
	ErrVersion       = errors.New("server: unsupported protocol version")
)

// ProtocolVersion is the handshake version this server accepts.
const ProtocolVersion = 1

// Config contains configuration options for the intake server.
type Config struct {
	Address     string
	Steps       *steps.Assembled
	Journal     journal.Writer
	Metrics     *monitoring.Collector
	IdleTimeout time.Duration
}

// Server owns the TCP listener and the set of live client sessions.
type Server struct {
	address     string
	steps       *steps.Assembled
	journal     journal.Writer
	metrics     *monitoring.Collector
	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewServer creates an intake server with the provided configuration.
func NewServer(config Config) *Server {
	idle := config.IdleTimeout
	if idle == 0 {
		idle = 30 * time.Second
	}
	return &Server{
		address:     config.Address,
		steps:       config.Steps,
		journal:     config.Journal,
		metrics:     config.Metrics,
		idleTimeout: idle,
		sessions:    make(map[uuid.UUID]*Session),
	}
}

// Sessions returns a snapshot of the live sessions.
func (s *Server) Sessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// Start listens for clients until the context is cancelled. Each accepted
// connection is served on its own goroutine; Start returns once the
// listener is closed and all connection handlers have finished.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	monitoring.Logf("Listening for emulator clients on %s", ln.Addr())

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				wg.Wait()
				return ctx.Err()
			}
			monitoring.Logf("Error accepting connection: %v", err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.ServeConn(ctx, conn); err != nil && !errors.Is(err, io.EOF) {
				monitoring.Logf("Client %s disconnected with error: %v", conn.RemoteAddr(), err)
			}
		}()
	}
}

// ServeConn runs the frame loop for one connection. Exported so tests can
// drive a session over an in-memory pipe without a listener.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()

	sess := &Session{conn: conn, connectedAt: time.Now()}
	defer s.dropSession(sess)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := conn.SetReadDeadline(time.Now().Add(s.idleTimeout)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}

		frame, err := wire.ReadFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return io.EOF
			}
			return fmt.Errorf("read frame: %w", err)
		}

		switch f := frame.(type) {
		case wire.Ping:
			// Keepalive only; the read deadline reset above is the effect.

		case wire.Handshake:
			if err := s.handshake(sess, f); err != nil {
				return err
			}

		case wire.ImageRGB:
			img := &bot.Image{Width: int(f.Width), Height: int(f.Height), Pixels: f.Pixels}
			if err := s.processImage(ctx, sess, img); err != nil {
				return err
			}

		case wire.ImageGD2:
			img, err := wire.DecodeGD2(f)
			if err != nil {
				// Undecodable frame: no frame available this tick. The
				// client keeps its connection; nothing reaches the pipeline.
				monitoring.Logf("client %s: dropping gd2 frame: %v", sess.ID(), err)
				continue
			}
			if err := s.processImage(ctx, sess, img); err != nil {
				return err
			}

		case wire.Shutdown:
			monitoring.Logf("client %s (%q) shutting down", sess.ID(), sess.Name())
			return nil

		default:
			return fmt.Errorf("unhandled frame tag %d", frame.Tag())
		}
	}
}

func (s *Server) handshake(sess *Session, h wire.Handshake) error {
	if h.Version != ProtocolVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrVersion, h.Version, ProtocolVersion)
	}
	// Re-keying an established session would orphan its per-client step
	// state; a client that wants a new identity reconnects.
	if sess.Handshaken() {
		return fmt.Errorf("%w: session %s", ErrRehandshake, sess.ID())
	}
	sess.begin(h.Name, h.Program)

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	monitoring.Logf("client %s connected: name=%q program=%d", sess.ID(), h.Name, h.Program)
	return nil
}

// processImage runs one captured frame through the pipeline and writes the
// action mask back. An aborted pipeline run still answers with the neutral
// mask so the emulator loop never stalls.
func (s *Server) processImage(ctx context.Context, sess *Session, img *bot.Image) error {
	if !sess.Handshaken() {
		return ErrNotHandshaken
	}

	frame := bot.NewEnrichedFrame(sess.ID(), sess.Program(), img)
	_, acc, err := s.steps.Pipeline.Process(ctx, frame)
	if err != nil {
		monitoring.Logf("client %s: frame %s aborted: %v", sess.ID(), frame.ID, err)
	}

	action := acc.Action()
	if werr := wire.WriteAction(sess.conn, action); werr != nil {
		return fmt.Errorf("write action: %w", werr)
	}
	sess.frameDone()

	if s.metrics != nil {
		s.metrics.NotifyFrameProcessed(sess.ID(), &acc.Metrics)
		s.metrics.NotifyActionSent(sess.ID(), action)
	}

	if acc.PendingEntry != nil && s.journal != nil {
		if jerr := s.journal.Append(acc.PendingEntry); jerr != nil {
			monitoring.Logf("client %s: journal append failed: %v", sess.ID(), jerr)
		}
	}
	return nil
}

func (s *Server) dropSession(sess *Session) {
	if !sess.Handshaken() {
		return
	}
	s.mu.Lock()
	delete(s.sessions, sess.ID())
	s.mu.Unlock()
	s.steps.Forget(sess.ID())
}
