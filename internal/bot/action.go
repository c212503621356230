package bot

import "strings"

// Button identifies one logical controller button. The numeric value is the
// button's byte position in the wire action mask.
type Button int

const (
	ButtonA Button = iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonX
	ButtonY
	ButtonL
	ButtonR

	// ButtonCount is the number of logical buttons, and the length of the
	// wire action mask in bytes.
	ButtonCount = 12
)

var buttonNames = [ButtonCount]string{
	"A", "B", "Select", "Start", "Up", "Down", "Left", "Right", "X", "Y", "L", "R",
}

func (b Button) String() string {
	if b < 0 || int(b) >= ButtonCount {
		return "Unknown"
	}
	return buttonNames[b]
}

// ButtonMask is the set of buttons held for one emulator frame, one bit per
// button in wire order. The zero value is the neutral "no buttons" action.
type ButtonMask uint16

// Neutral is the all-released action. It is what the pipeline falls back to
// whenever no step selects an action, so the real-time loop never stalls.
const Neutral ButtonMask = 0

// Press returns a copy of the mask with b pressed.
func (m ButtonMask) Press(b Button) ButtonMask {
	if b < 0 || int(b) >= ButtonCount {
		return m
	}
	return m | 1<<uint(b)
}

// Release returns a copy of the mask with b released.
func (m ButtonMask) Release(b Button) ButtonMask {
	if b < 0 || int(b) >= ButtonCount {
		return m
	}
	return m &^ (1 << uint(b))
}

// Pressed reports whether b is held in the mask.
func (m ButtonMask) Pressed(b Button) bool {
	if b < 0 || int(b) >= ButtonCount {
		return false
	}
	return m&(1<<uint(b)) != 0
}

// Encode serialises the mask to the fixed 12-byte wire form, one byte per
// button in the order A, B, Select, Start, Up, Down, Left, Right, X, Y, L, R.
// Non-zero means pressed.
func (m ButtonMask) Encode() [ButtonCount]byte {
	var out [ButtonCount]byte
	for i := 0; i < ButtonCount; i++ {
		if m.Pressed(Button(i)) {
			out[i] = 1
		}
	}
	return out
}

// DecodeMask parses the 12-byte wire form back into a ButtonMask. Any
// non-zero byte counts as pressed.
func DecodeMask(raw [ButtonCount]byte) ButtonMask {
	var m ButtonMask
	for i, v := range raw {
		if v != 0 {
			m = m.Press(Button(i))
		}
	}
	return m
}

// SingleButton builds a mask holding exactly one button.
func SingleButton(b Button) ButtonMask {
	return Neutral.Press(b)
}

func (m ButtonMask) String() string {
	if m == Neutral {
		return "Neutral"
	}
	var held []string
	for i := 0; i < ButtonCount; i++ {
		if m.Pressed(Button(i)) {
			held = append(held, Button(i).String())
		}
	}
	return strings.Join(held, "+")
}
