package keylog

import "encoding/binary"

// Linux input event constants.
const (
	evKey       = 1
	keyRelease  = 0
	keyPress    = 1
	keyAutoRept = 2
)

// evdevRows lists runs of consecutive evdev key codes and the US characters
// they produce without modifiers.
var evdevRows = []struct {
	first uint16
	chars string
}{
	{2, "1234567890-="},
	{16, "qwertyuiop[]"},
	{30, "asdfghjkl;'`"},
	{43, `\zxcvbnm,./`},
}

var evdevKeymap = func() map[uint16]rune {
	m := make(map[uint16]rune)

	for _, row := range evdevRows {
		code := row.first
		for _, ch := range row.chars {
			m[code] = ch
			code++
		}
	}

	return m
}()

// KeycodeRune maps an evdev key code to the US character at that position.
func KeycodeRune(code uint16) (rune, bool) {
	ch, ok := evdevKeymap[code]

	return ch, ok
}

// decodeInputEvent reads the type, code and value of a raw input_event. The
// fields sit at the end of the struct, after the platform-sized timestamp.
func decodeInputEvent(buf []byte) (typ, code uint16, value int32, ok bool) {
	n := len(buf)
	if n < 8 {
		return 0, 0, 0, false
	}

	typ = binary.LittleEndian.Uint16(buf[n-8 : n-6])
	code = binary.LittleEndian.Uint16(buf[n-6 : n-4])
	value = int32(binary.LittleEndian.Uint32(buf[n-4:]))

	return typ, code, value, true
}

// pressedRune resolves a raw event to a character when it is a key press
// or auto-repeat that maps onto the keyboard.
func pressedRune(buf []byte) (rune, bool) {
	typ, code, value, ok := decodeInputEvent(buf)
	if !ok || typ != evKey {
		return 0, false
	}

	if value != keyPress && value != keyAutoRept {
		return 0, false
	}

	return KeycodeRune(code)
}
