package wire

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fieldmark/framebot/internal/bot"
)

// GD2 chunk formats. Palette variants exist in the container but no
// emulator client sends them, so they are rejected.
const (
	gd2FmtRaw                 = 1
	gd2FmtCompressed          = 2
	gd2FmtTruecolorRaw        = 3
	gd2FmtTruecolorCompressed = 4
)

var (
	ErrUnsupportedGD2 = errors.New("wire: unsupported gd2 format")
	ErrBadGD2Chunk    = errors.New("wire: bad gd2 chunk")
)

// gd2Header is the fixed portion after the magic. All fields big-endian,
// unlike the little-endian framing around the blob.
type gd2Header struct {
	Version   uint16
	Width     uint16
	Height    uint16
	ChunkSize uint16
	Format    uint16
	XChunks   uint16
	YChunks   uint16
}

// DecodeGD2 expands a GD2 blob into an RGB image. Truecolor pixels carry a
// 7-bit alpha in the top byte which is discarded; the pipeline only looks
// at colour.
func DecodeGD2(f ImageGD2) (*bot.Image, error) {
	blob := f.Blob
	if len(blob) < len(gd2Magic)+1 {
		return nil, fmt.Errorf("%w: blob too short", ErrBadGD2Header)
	}
	if !bytes.HasPrefix(bytes.ToLower(blob[:3]), gd2Magic) {
		return nil, fmt.Errorf("%w: missing magic", ErrBadGD2Header)
	}
	// Magic is "gd2" followed by a NUL in files written by libgd.
	rest := blob[len(gd2Magic):]
	if rest[0] == 0 {
		rest = rest[1:]
	}

	var hdr gd2Header
	if err := binary.Read(bytes.NewReader(rest), binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadGD2Header, err)
	}
	rest = rest[14:]

	if uint32(hdr.Width) != f.Width || uint32(hdr.Height) != f.Height {
		return nil, fmt.Errorf("%w: header %dx%d, framing %dx%d",
			ErrBadGD2Header, hdr.Width, hdr.Height, f.Width, f.Height)
	}
	if hdr.ChunkSize == 0 || hdr.XChunks == 0 || hdr.YChunks == 0 {
		return nil, fmt.Errorf("%w: zero chunk geometry", ErrBadGD2Header)
	}

	switch hdr.Format {
	case gd2FmtTruecolorRaw, gd2FmtTruecolorCompressed:
	case gd2FmtRaw, gd2FmtCompressed:
		return nil, fmt.Errorf("%w: palette format %d", ErrUnsupportedGD2, hdr.Format)
	default:
		return nil, fmt.Errorf("%w: format %d", ErrUnsupportedGD2, hdr.Format)
	}

	img := &bot.Image{
		Width:  int(hdr.Width),
		Height: int(hdr.Height),
		Pixels: make([]byte, int(hdr.Width)*int(hdr.Height)*3),
	}

	compressed := hdr.Format == gd2FmtTruecolorCompressed

	// Compressed files carry a chunk index of (offset, size) pairs ahead of
	// the data; raw files store chunks back to back.
	nChunks := int(hdr.XChunks) * int(hdr.YChunks)
	type chunkRef struct{ offset, size int }
	var index []chunkRef
	if compressed {
		need := nChunks * 8
		if len(rest) < need {
			return nil, fmt.Errorf("%w: truncated chunk index", ErrBadGD2Chunk)
		}
		index = make([]chunkRef, nChunks)
		for i := range index {
			index[i].offset = int(binary.BigEndian.Uint32(rest[i*8:]))
			index[i].size = int(binary.BigEndian.Uint32(rest[i*8+4:]))
		}
	}

	cs := int(hdr.ChunkSize)
	raw := rest
	rawOff := 0
	chunk := 0
	for cy := 0; cy < int(hdr.YChunks); cy++ {
		for cx := 0; cx < int(hdr.XChunks); cx++ {
			x0, y0 := cx*cs, cy*cs
			x1, y1 := min(x0+cs, img.Width), min(y0+cs, img.Height)

			var data []byte
			if compressed {
				ref := index[chunk]
				if ref.offset < 0 || ref.offset+ref.size > len(blob) {
					return nil, fmt.Errorf("%w: index out of range", ErrBadGD2Chunk)
				}
				zr, err := zlib.NewReader(bytes.NewReader(blob[ref.offset : ref.offset+ref.size]))
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrBadGD2Chunk, err)
				}
				data, err = io.ReadAll(zr)
				zr.Close()
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrBadGD2Chunk, err)
				}
			} else {
				need := (x1 - x0) * (y1 - y0) * 4
				if rawOff+need > len(raw) {
					return nil, fmt.Errorf("%w: truncated pixel data", ErrBadGD2Chunk)
				}
				data = raw[rawOff : rawOff+need]
				rawOff += need
			}

			if err := copyTruecolorChunk(img, data, x0, y0, x1, y1); err != nil {
				return nil, err
			}
			chunk++
		}
	}
	return img, nil
}

// copyTruecolorChunk writes one chunk's big-endian ARGB pixels into the
// destination RGB buffer.
func copyTruecolorChunk(img *bot.Image, data []byte, x0, y0, x1, y1 int) error {
	need := (x1 - x0) * (y1 - y0) * 4
	if len(data) < need {
		return fmt.Errorf("%w: chunk %d bytes, want %d", ErrBadGD2Chunk, len(data), need)
	}
	i := 0
	for y := y0; y < y1; y++ {
		row := (y*img.Width + x0) * 3
		for x := x0; x < x1; x++ {
			px := binary.BigEndian.Uint32(data[i:])
			img.Pixels[row] = byte(px >> 16)
			img.Pixels[row+1] = byte(px >> 8)
			img.Pixels[row+2] = byte(px)
			i += 4
			row += 3
		}
	}
	return nil
}
