package bot

import "testing"

func TestButtonMask_RoundTrip(t *testing.T) {
	// Every combination of the 12 buttons must survive encode/decode.
	for m := ButtonMask(0); m < 1<<ButtonCount; m++ {
		if got := DecodeMask(m.Encode()); got != m {
			t.Fatalf("mask %012b: round trip gave %012b", m, got)
		}
	}
}

func TestButtonMask_PressRelease(t *testing.T) {
	m := Neutral.Press(ButtonA).Press(ButtonUp)
	if !m.Pressed(ButtonA) || !m.Pressed(ButtonUp) {
		t.Fatalf("expected A and Up pressed, got %s", m)
	}
	if m.Pressed(ButtonB) {
		t.Error("B should not be pressed")
	}

	m = m.Release(ButtonA)
	if m.Pressed(ButtonA) {
		t.Error("A should be released")
	}
	if !m.Pressed(ButtonUp) {
		t.Error("Up should still be pressed")
	}

	if got := m.Release(ButtonUp); got != Neutral {
		t.Errorf("releasing Up from %s gave %s, want Neutral", m, got)
	}
}

func TestButtonMask_ReleaseEachButton(t *testing.T) {
	// Pressing then releasing any single button must restore neutral, and
	// releasing one button from a full mask must clear only that bit.
	full := ButtonMask(1<<ButtonCount - 1)
	for b := Button(0); int(b) < ButtonCount; b++ {
		if got := Neutral.Press(b).Release(b); got != Neutral {
			t.Errorf("%s: press+release gave %s, want Neutral", b, got)
		}
		got := full.Release(b)
		if got.Pressed(b) {
			t.Errorf("%s still pressed after release from full mask", b)
		}
		if want := full &^ SingleButton(b); got != want {
			t.Errorf("%s: release from full mask gave %012b, want %012b", b, got, want)
		}
	}
}

func TestButtonMask_OutOfRange(t *testing.T) {
	m := Neutral.Press(Button(-1)).Press(Button(ButtonCount))
	if m != Neutral {
		t.Errorf("out-of-range press changed mask: %s", m)
	}
	if m.Pressed(Button(99)) {
		t.Error("out-of-range button reported pressed")
	}
}

func TestButtonMask_EncodeOrder(t *testing.T) {
	// Wire order is fixed: [A B Select Start Up Down Left Right X Y L R].
	raw := SingleButton(ButtonSelect).Encode()
	for i, v := range raw {
		want := byte(0)
		if i == 2 {
			want = 1
		}
		if v != want {
			t.Errorf("byte %d = %d, want %d", i, v, want)
		}
	}
}

func TestDecodeMask_AnyNonZero(t *testing.T) {
	var raw [ButtonCount]byte
	raw[5] = 0xff // Down, arbitrary non-zero value
	if got := DecodeMask(raw); got != SingleButton(ButtonDown) {
		t.Errorf("DecodeMask = %s, want Down", got)
	}
}

func TestButtonMask_String(t *testing.T) {
	cases := []struct {
		mask ButtonMask
		want string
	}{
		{Neutral, "Neutral"},
		{SingleButton(ButtonA), "A"},
		{SingleButton(ButtonA).Press(ButtonR), "A+R"},
	}
	for _, tc := range cases {
		if got := tc.mask.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
