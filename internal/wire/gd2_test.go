package wire

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"testing"
)

// buildGD2 assembles a truecolor GD2 blob for a w x h image whose pixel at
// (x, y) is the RGB triple returned by pix.
func buildGD2(t *testing.T, w, h, cs int, compressed bool, pix func(x, y int) (byte, byte, byte)) []byte {
	t.Helper()

	xChunks := (w + cs - 1) / cs
	yChunks := (h + cs - 1) / cs

	format := uint16(gd2FmtTruecolorRaw)
	if compressed {
		format = gd2FmtTruecolorCompressed
	}

	var hdr bytes.Buffer
	hdr.WriteString("gd2\x00")
	for _, v := range []uint16{2, uint16(w), uint16(h), uint16(cs), format, uint16(xChunks), uint16(yChunks)} {
		binary.Write(&hdr, binary.BigEndian, v)
	}

	chunkPixels := func(cx, cy int) []byte {
		var out bytes.Buffer
		x0, y0 := cx*cs, cy*cs
		x1, y1 := min(x0+cs, w), min(y0+cs, h)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				r, g, b := pix(x, y)
				binary.Write(&out, binary.BigEndian, uint32(r)<<16|uint32(g)<<8|uint32(b))
			}
		}
		return out.Bytes()
	}

	if !compressed {
		blob := hdr.Bytes()
		for cy := 0; cy < yChunks; cy++ {
			for cx := 0; cx < xChunks; cx++ {
				blob = append(blob, chunkPixels(cx, cy)...)
			}
		}
		return blob
	}

	var chunks [][]byte
	for cy := 0; cy < yChunks; cy++ {
		for cx := 0; cx < xChunks; cx++ {
			var z bytes.Buffer
			zw := zlib.NewWriter(&z)
			zw.Write(chunkPixels(cx, cy))
			zw.Close()
			chunks = append(chunks, z.Bytes())
		}
	}

	offset := hdr.Len() + len(chunks)*8
	var index bytes.Buffer
	for _, c := range chunks {
		binary.Write(&index, binary.BigEndian, uint32(offset))
		binary.Write(&index, binary.BigEndian, uint32(len(c)))
		offset += len(c)
	}

	blob := append(hdr.Bytes(), index.Bytes()...)
	for _, c := range chunks {
		blob = append(blob, c...)
	}
	return blob
}

func gradient(x, y int) (byte, byte, byte) {
	return byte(x * 16), byte(y * 16), byte(x + y)
}

func TestDecodeGD2_Raw(t *testing.T) {
	blob := buildGD2(t, 4, 4, 4, false, gradient)
	img, err := DecodeGD2(ImageGD2{Width: 4, Height: 4, Blob: blob})
	if err != nil {
		t.Fatalf("DecodeGD2: %v", err)
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			wr, wg, wb := gradient(x, y)
			r, g, b := img.At(x, y)
			if r != wr || g != wg || b != wb {
				t.Fatalf("pixel (%d,%d) = (%d,%d,%d), want (%d,%d,%d)", x, y, r, g, b, wr, wg, wb)
			}
		}
	}
}

func TestDecodeGD2_MultiChunk(t *testing.T) {
	// 2x2 chunks over a 4x4 image: pixel order interleaves across chunk
	// boundaries, which the decoder must untangle.
	blob := buildGD2(t, 4, 4, 2, false, gradient)
	img, err := DecodeGD2(ImageGD2{Width: 4, Height: 4, Blob: blob})
	if err != nil {
		t.Fatalf("DecodeGD2: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			wr, wg, wb := gradient(x, y)
			if r, g, b := img.At(x, y); r != wr || g != wg || b != wb {
				t.Fatalf("pixel (%d,%d) = (%d,%d,%d), want (%d,%d,%d)", x, y, r, g, b, wr, wg, wb)
			}
		}
	}
}

func TestDecodeGD2_Compressed(t *testing.T) {
	blob := buildGD2(t, 6, 4, 4, true, gradient)
	img, err := DecodeGD2(ImageGD2{Width: 6, Height: 4, Blob: blob})
	if err != nil {
		t.Fatalf("DecodeGD2: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			wr, wg, wb := gradient(x, y)
			if r, g, b := img.At(x, y); r != wr || g != wg || b != wb {
				t.Fatalf("pixel (%d,%d) = (%d,%d,%d), want (%d,%d,%d)", x, y, r, g, b, wr, wg, wb)
			}
		}
	}
}

func TestDecodeGD2_DimensionMismatch(t *testing.T) {
	blob := buildGD2(t, 4, 4, 4, false, gradient)
	_, err := DecodeGD2(ImageGD2{Width: 8, Height: 4, Blob: blob})
	if !errors.Is(err, ErrBadGD2Header) {
		t.Errorf("err = %v, want ErrBadGD2Header", err)
	}
}

func TestDecodeGD2_PaletteRejected(t *testing.T) {
	blob := buildGD2(t, 4, 4, 4, false, gradient)
	// Overwrite the format field (bytes 12..14 after the 4-byte magic).
	binary.BigEndian.PutUint16(blob[12:], gd2FmtRaw)
	_, err := DecodeGD2(ImageGD2{Width: 4, Height: 4, Blob: blob})
	if !errors.Is(err, ErrUnsupportedGD2) {
		t.Errorf("err = %v, want ErrUnsupportedGD2", err)
	}
}

func TestDecodeGD2_Truncated(t *testing.T) {
	blob := buildGD2(t, 4, 4, 4, false, gradient)
	_, err := DecodeGD2(ImageGD2{Width: 4, Height: 4, Blob: blob[:len(blob)-8]})
	if !errors.Is(err, ErrBadGD2Chunk) {
		t.Errorf("err = %v, want ErrBadGD2Chunk", err)
	}
}
