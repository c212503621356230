package server

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldmark/framebot/internal/bot"
	"github.com/fieldmark/framebot/internal/journal"
	"github.com/fieldmark/framebot/internal/monitoring"
	"github.com/fieldmark/framebot/internal/pipeline/steps"
	"github.com/fieldmark/framebot/internal/wire"
)

func testServer(t *testing.T, jw journal.Writer) *Server {
	t.Helper()
	return NewServer(Config{
		Address:     "127.0.0.1:0",
		Steps:       steps.Default(steps.Options{SelectionSeed: 1}),
		Journal:     jw,
		Metrics:     monitoring.NewCollector(monitoring.NewPerformanceMonitor()),
		IdleTimeout: 5 * time.Second,
	})
}

// startConn wires a client pipe to a running ServeConn and cleans both up.
func startConn(t *testing.T, srv *Server) (net.Conn, <-chan error) {
	t.Helper()
	client, serverSide := net.Pipe()
	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { done <- srv.ServeConn(ctx, serverSide) }()
	t.Cleanup(func() {
		cancel()
		client.Close()
	})
	return client, done
}

func handshake(t *testing.T, conn net.Conn) {
	t.Helper()
	err := wire.WriteFrame(conn, wire.Handshake{Version: ProtocolVersion, Name: "emu-test", Program: 7})
	require.NoError(t, err)
}

func sendImage(t *testing.T, conn net.Conn, fill byte) bot.ButtonMask {
	t.Helper()
	pixels := make([]byte, 8*8*3)
	for i := range pixels {
		pixels[i] = fill
	}
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, wire.WriteFrame(conn, wire.ImageRGB{Width: 8, Height: 8, Pixels: pixels}))

	var raw [12]byte
	_, err := io.ReadFull(conn, raw[:])
	require.NoError(t, err)
	return bot.DecodeMask(raw)
}

func TestServeConn_FrameLoop(t *testing.T) {
	mem := journal.NewMemoryWriter(16)
	srv := testServer(t, mem)
	conn, done := startConn(t, srv)

	handshake(t, conn)
	sendImage(t, conn, 0x10)
	sendImage(t, conn, 0xd0)

	require.NoError(t, wire.WriteFrame(conn, wire.Shutdown{}))
	require.NoError(t, <-done)

	// First frame is "unchanged" by definition, so only the second frame
	// can produce a journal entry.
	entries := mem.Entries()
	require.Len(t, entries, 1)
	assert.NotZero(t, entries[0].Reward)
	assert.Len(t, srv.Sessions(), 0)
}

func TestServeConn_ImageBeforeHandshake(t *testing.T) {
	srv := testServer(t, nil)
	conn, done := startConn(t, srv)

	go func() {
		pixels := make([]byte, 4*4*3)
		wire.WriteFrame(conn, wire.ImageRGB{Width: 4, Height: 4, Pixels: pixels})
	}()

	err := <-done
	require.ErrorIs(t, err, ErrNotHandshaken)
}

func TestServeConn_RejectsVersion(t *testing.T) {
	srv := testServer(t, nil)
	conn, done := startConn(t, srv)

	go wire.WriteFrame(conn, wire.Handshake{Version: 99, Name: "emu", Program: 1})

	err := <-done
	require.ErrorIs(t, err, ErrVersion)
}

func TestServeConn_RejectsSecondHandshake(t *testing.T) {
	srv := testServer(t, nil)
	conn, done := startConn(t, srv)

	handshake(t, conn)
	require.Len(t, srv.Sessions(), 1)

	go wire.WriteFrame(conn, wire.Handshake{Version: ProtocolVersion, Name: "emu-test", Program: 7})

	err := <-done
	require.ErrorIs(t, err, ErrRehandshake)

	// The original session must not be orphaned by the re-key attempt.
	assert.Len(t, srv.Sessions(), 0)
}

func TestServeConn_PingKeepsSessionOpen(t *testing.T) {
	srv := testServer(t, nil)
	conn, done := startConn(t, srv)

	handshake(t, conn)
	require.NoError(t, wire.WriteFrame(conn, wire.Ping{}))
	sendImage(t, conn, 0x33)

	require.Len(t, srv.Sessions(), 1)
	info := srv.Sessions()[0].Snapshot()
	assert.Equal(t, "emu-test", info.Name)
	assert.Equal(t, uint16(7), info.Program)
	assert.Equal(t, int64(1), info.Frames)

	require.NoError(t, wire.WriteFrame(conn, wire.Shutdown{}))
	require.NoError(t, <-done)
}

func TestServeConn_SessionRemovedOnDisconnect(t *testing.T) {
	srv := testServer(t, nil)
	conn, done := startConn(t, srv)

	handshake(t, conn)
	sendImage(t, conn, 0x42)
	require.Len(t, srv.Sessions(), 1)

	conn.Close()
	<-done
	assert.Len(t, srv.Sessions(), 0)
}
