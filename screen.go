package chipvm

const (
	ScreenWidth  = 64
	ScreenHeight = 32
	ScreenSize   = ScreenWidth * ScreenHeight
)

// Screen holds one byte per pixel, 0 or 1, row-major.
type Screen [ScreenSize]byte

// At returns the pixel at (x, y). Coordinates outside the screen read as off.
func (s *Screen) At(x, y int) byte {
	if x < 0 || y < 0 || x >= ScreenWidth || y >= ScreenHeight {
		return 0
	}
	return s[y*ScreenWidth+x]
}

// Pack compresses the screen to one bit per pixel, most significant bit
// first, which is what the wire frontends transmit.
func (s *Screen) Pack() []byte {
	buf := make([]byte, ScreenSize/8)
	for i, px := range s {
		if px != 0 {
			buf[i/8] |= 0b10000000 >> (i % 8)
		}
	}

	return buf
}

// Unpack is the inverse of Pack.
func Unpack(packed []byte) Screen {
	var s Screen
	for i := range s {
		if i/8 >= len(packed) {
			break
		}
		s[i] = (packed[i/8] >> (7 - i%8)) & 0b1
	}

	return s
}

// drawResult reports what a sprite blit did to the screen.
type drawResult struct {
	collision byte
	clipped   int
}

// drawSprite XORs rows onto the screen at (x, y).
//
// Without wrap, pixels are addressed linearly as x + col + (y+row)*64, so
// a sprite crossing the right edge continues on the next row. Indices past
// the end of the buffer are dropped and counted. The collision flag is the
// value of the last toggled pixel before the XOR.
func (s *Screen) drawSprite(x, y byte, rows []byte, wrap bool) drawResult {
	var res drawResult

	for row, bits := range rows {
		for col := 0; col < 8; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}

			var t int
			if wrap {
				px := (int(x) + col) % ScreenWidth
				py := (int(y) + row) % ScreenHeight
				t = py*ScreenWidth + px
			} else {
				t = int(x) + col + (int(y)+row)*ScreenWidth
			}

			if t >= ScreenSize {
				res.clipped++
				continue
			}

			res.collision = s[t]
			s[t] ^= 1
		}
	}

	return res
}
