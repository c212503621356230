// Package wire implements the framed byte protocol spoken between the
// emulator-side capture client and the decision server.
//
// Every transport frame is a 4-byte little-endian payload length followed by
// the payload itself: a 1-byte tag and a tag-specific body. Responses travel
// the other way as a fixed 12-byte action mask, one byte per button.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Frame tags.
const (
	TagPing      = 0
	TagHandshake = 1
	TagImageRGB  = 2
	TagShutdown  = 3
	TagImageGD2  = 4
)

// Protocol errors. A malformed frame never reaches the pipeline as a
// frame to process; callers surface these as connection faults.
var (
	ErrShortPayload  = errors.New("wire: payload shorter than minimum frame")
	ErrUnknownTag    = errors.New("wire: unknown frame tag")
	ErrPixelLength   = errors.New("wire: pixel buffer length does not match dimensions")
	ErrBadGD2Header  = errors.New("wire: GD2 blob too short for header")
	ErrFrameTooLarge = errors.New("wire: frame exceeds maximum length")
)

// Frame is one decoded protocol payload.
type Frame interface {
	Tag() byte
	appendBody(dst []byte) []byte
}

// Ping is an empty keepalive frame.
type Ping struct{}

func (Ping) Tag() byte { return TagPing }

func (Ping) appendBody(dst []byte) []byte { return dst }

// Handshake announces a connecting client: protocol version, a display name
// and the numeric program identifier of the game being driven.
type Handshake struct {
	Version uint32
	Name    string
	Program uint16
}

func (Handshake) Tag() byte { return TagHandshake }

func (h Handshake) appendBody(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, h.Version)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(h.Name)))
	dst = append(dst, h.Name...)
	return binary.LittleEndian.AppendUint16(dst, h.Program)
}

// ImageRGB is a raw screen capture: width, height, then width*height*3 bytes
// of RGB pixel data.
type ImageRGB struct {
	Width  uint32
	Height uint32
	Pixels []byte
}

func (ImageRGB) Tag() byte { return TagImageRGB }

func (f ImageRGB) appendBody(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, f.Width)
	dst = binary.LittleEndian.AppendUint32(dst, f.Height)
	return append(dst, f.Pixels...)
}

// Shutdown is an empty frame announcing the client is going away.
type Shutdown struct{}

func (Shutdown) Tag() byte { return TagShutdown }

func (Shutdown) appendBody(dst []byte) []byte { return dst }

// ImageGD2 is a screen capture in the compressed GD2 container. The blob is
// opaque at the wire layer; it must be decoded before the pipeline can use
// it. Only the magic is checked here.
type ImageGD2 struct {
	Width  uint32
	Height uint32
	Blob   []byte
}

func (ImageGD2) Tag() byte { return TagImageGD2 }

func (f ImageGD2) appendBody(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, f.Width)
	dst = binary.LittleEndian.AppendUint32(dst, f.Height)
	return append(dst, f.Blob...)
}

var gd2Magic = []byte("gd2")

// Decode parses one payload (tag byte plus body) into a Frame.
func Decode(payload []byte) (Frame, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortPayload, len(payload))
	}
	tag := payload[0]
	body := payload[1:]

	switch tag {
	case TagPing:
		return Ping{}, nil

	case TagHandshake:
		if len(body) < 6 {
			return nil, fmt.Errorf("%w: handshake body %d bytes", ErrShortPayload, len(body))
		}
		version := binary.LittleEndian.Uint32(body[0:4])
		nameLen := int(binary.LittleEndian.Uint16(body[4:6]))
		if len(body) < 6+nameLen+2 {
			return nil, fmt.Errorf("%w: handshake name length %d overruns body", ErrShortPayload, nameLen)
		}
		name := string(body[6 : 6+nameLen])
		program := binary.LittleEndian.Uint16(body[6+nameLen : 6+nameLen+2])
		return Handshake{Version: version, Name: name, Program: program}, nil

	case TagImageRGB:
		if len(body) < 8 {
			return nil, fmt.Errorf("%w: image header %d bytes", ErrShortPayload, len(body))
		}
		width := binary.LittleEndian.Uint32(body[0:4])
		height := binary.LittleEndian.Uint32(body[4:8])
		pixels := body[8:]
		if want := int(width) * int(height) * 3; len(pixels) != want {
			return nil, fmt.Errorf("%w: got %d bytes for %dx%d, want %d",
				ErrPixelLength, len(pixels), width, height, want)
		}
		return ImageRGB{Width: width, Height: height, Pixels: pixels}, nil

	case TagShutdown:
		return Shutdown{}, nil

	case TagImageGD2:
		if len(body) < 8 {
			return nil, fmt.Errorf("%w: image header %d bytes", ErrShortPayload, len(body))
		}
		width := binary.LittleEndian.Uint32(body[0:4])
		height := binary.LittleEndian.Uint32(body[4:8])
		blob := body[8:]
		if len(blob) < 4 || !bytes.HasPrefix(bytes.ToLower(blob[:3]), gd2Magic) {
			return nil, fmt.Errorf("%w: %d bytes", ErrBadGD2Header, len(blob))
		}
		return ImageGD2{Width: width, Height: height, Blob: blob}, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTag, tag)
	}
}

// Encode serialises a Frame to its payload form (tag byte plus body),
// without the transport length prefix.
func Encode(f Frame) []byte {
	out := make([]byte, 0, 16)
	out = append(out, f.Tag())
	return f.appendBody(out)
}
