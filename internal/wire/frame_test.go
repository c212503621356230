package wire

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode_RoundTrips(t *testing.T) {
	frames := []Frame{
		Ping{},
		Handshake{Version: 1, Name: "desmume", Program: 42},
		Handshake{Version: 7, Name: "", Program: 0},
		ImageRGB{Width: 2, Height: 3, Pixels: make([]byte, 2*3*3)},
		Shutdown{},
	}
	for _, f := range frames {
		got, err := Decode(Encode(f))
		if err != nil {
			t.Fatalf("%T: decode: %v", f, err)
		}
		if diff := cmp.Diff(f, got); diff != "" {
			t.Errorf("%T round trip mismatch (-want +got):\n%s", f, diff)
		}
	}
}

func TestDecode_FullScreenImage(t *testing.T) {
	// A combined dual-screen capture: 256 wide, 384 tall.
	px := make([]byte, 256*384*3)
	for i := range px {
		px[i] = byte(i)
	}
	f := ImageRGB{Width: 256, Height: 384, Pixels: px}

	got, err := Decode(Encode(f))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_PixelLengthMismatch(t *testing.T) {
	f := ImageRGB{Width: 4, Height: 4, Pixels: make([]byte, 5)}
	if _, err := Decode(Encode(f)); !errors.Is(err, ErrPixelLength) {
		t.Errorf("err = %v, want ErrPixelLength", err)
	}
}

func TestDecode_UnknownTag(t *testing.T) {
	if _, err := Decode([]byte{9}); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("err = %v, want ErrUnknownTag", err)
	}
}

func TestDecode_Short(t *testing.T) {
	cases := [][]byte{
		{},
		{TagHandshake},
		{TagHandshake, 1, 0, 0, 0},
		{TagImageRGB, 1, 0, 0},
	}
	for _, payload := range cases {
		if _, err := Decode(payload); !errors.Is(err, ErrShortPayload) {
			t.Errorf("payload %v: err = %v, want ErrShortPayload", payload, err)
		}
	}
}

func TestDecode_HandshakeNameOverrun(t *testing.T) {
	// Name length claims more bytes than the body carries.
	payload := []byte{TagHandshake, 1, 0, 0, 0, 200, 0, 'x', 'y'}
	if _, err := Decode(payload); !errors.Is(err, ErrShortPayload) {
		t.Errorf("err = %v, want ErrShortPayload", err)
	}
}

func TestDecode_GD2BadMagic(t *testing.T) {
	payload := append([]byte{TagImageGD2, 1, 0, 0, 0, 1, 0, 0, 0}, []byte("png!")...)
	if _, err := Decode(payload); !errors.Is(err, ErrBadGD2Header) {
		t.Errorf("err = %v, want ErrBadGD2Header", err)
	}
}
