package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fieldmark/framebot/internal/bot"
)

// MaxFrameLen bounds a single transport frame. A combined 256x384 RGB screen
// pair is ~295 KiB; 16 MiB leaves generous headroom for larger captures
// while still rejecting a corrupt length prefix before allocation.
const MaxFrameLen = 16 << 20

// ReadFrame reads one length-prefixed frame from r and decodes its payload.
// It blocks until a full frame is available or the reader fails.
func ReadFrame(r io.Reader) (Frame, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("wire: read length prefix: %w", err)
	}
	n := binary.LittleEndian.Uint32(prefix[:])
	if n == 0 {
		return nil, fmt.Errorf("%w: zero-length frame", ErrShortPayload)
	}
	if n > MaxFrameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("wire: read %d-byte payload: %w", n, err)
	}
	return Decode(payload)
}

// WriteFrame writes f to w with the 4-byte little-endian length prefix.
func WriteFrame(w io.Writer, f Frame) error {
	payload := Encode(f)
	buf := make([]byte, 0, 4+len(payload))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("wire: write frame: %w", err)
	}
	return nil
}

// WriteAction writes the 12-byte action mask response for one processed
// frame. The mask is not length-prefixed: the client reads exactly 12 bytes
// per image frame it sent.
func WriteAction(w io.Writer, mask bot.ButtonMask) error {
	raw := mask.Encode()
	if _, err := w.Write(raw[:]); err != nil {
		return fmt.Errorf("wire: write action mask: %w", err)
	}
	return nil
}
