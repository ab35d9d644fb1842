// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

// PS/2 mouse packet flag bits (first byte of each 3-byte packet).
const (
	MouseLeft   = 1 << 0
	MouseRight  = 1 << 1
	MouseMiddle = 1 << 2

	mouseAlwaysOne = 1 << 3
	mouseXSign     = 1 << 4
	mouseYSign     = 1 << 5
	mouseXOverflow = 1 << 6
	mouseYOverflow = 1 << 7
)

// MouseState is one decoded PS/2 mouse packet.
type MouseState struct {
	Buttons uint8
	X, Y    int16
}

// Moved reports whether the packet carries any movement.
func (s MouseState) Moved() bool {
	return s.X != 0 || s.Y != 0
}

// Pressed reports whether every button in mask is down.
func (s MouseState) Pressed(mask uint8) bool {
	return s.Buttons&mask == mask
}

// MouseDecoder assembles raw packet bytes into [MouseState] values.
// The zero value is ready for use.
type MouseDecoder struct {
	buf [3]byte
	n   int
}

// Feed consumes one byte and returns a state when it completes a packet.
// A first byte without the always-one bit is discarded so the decoder
// resynchronizes after a lost byte. Movement is zeroed on overflow.
func (d *MouseDecoder) Feed(b byte) (MouseState, bool) {
	if d.n == 0 && b&mouseAlwaysOne == 0 {
		return MouseState{}, false
	}
	d.buf[d.n] = b
	d.n++
	if d.n < len(d.buf) {
		return MouseState{}, false
	}
	d.n = 0

	flags := d.buf[0]
	s := MouseState{Buttons: flags & (MouseLeft | MouseRight | MouseMiddle)}
	if flags&(mouseXOverflow|mouseYOverflow) != 0 {
		return s, true
	}
	s.X = int16(d.buf[1])
	if flags&mouseXSign != 0 {
		s.X -= 256
	}
	s.Y = int16(d.buf[2])
	if flags&mouseYSign != 0 {
		s.Y -= 256
	}
	return s, true
}

// ProcessMousePackets returns the pointer-device task: it drains q forever,
// decoding packets and calling onComplete for each one.
func ProcessMousePackets(q *PacketQueue, onComplete func(MouseState)) Future {
	var dec MouseDecoder
	return q.ForEach(func(b byte) {
		if s, ok := dec.Feed(b); ok {
			onComplete(s)
		}
	})
}
