package driver

// WS2812 bits are expanded 1:3 for SPI transmission: a one becomes 0b110
// (long high), a zero 0b100 (short high). One color byte therefore occupies
// three SPI bytes.
type nrzTable [256][3]byte

func buildNRZTable() *nrzTable {
	var t nrzTable
	for v := 0; v < 256; v++ {
		out := uint32(0)
		for i := 7; i >= 0; i-- {
			if (v>>i)&1 == 1 {
				out = out<<3 | 0b110
			} else {
				out = out<<3 | 0b100
			}
		}
		t[v] = [3]byte{byte(out >> 16), byte(out >> 8), byte(out)}
	}
	return &t
}

// parseOrder turns a 3-letter wire order such as "GRB" (the WS2812 default)
// into a byte triple. Anything unrecognized falls back to GRB.
func parseOrder(order string) [3]byte {
	if len(order) != 3 {
		return [3]byte{'G', 'R', 'B'}
	}
	return [3]byte{order[0], order[1], order[2]}
}

func orderChannels(order [3]byte, r, g, b byte) [3]byte {
	var v [3]byte
	for i := 0; i < 3; i++ {
		switch order[i] {
		case 'R':
			v[i] = r
		case 'G':
			v[i] = g
		case 'B':
			v[i] = b
		default:
			v[i] = g
		}
	}
	return v
}

// encodePixel expands one RGB pixel into 9 SPI bytes at dst.
func encodePixel(t *nrzTable, order [3]byte, r, g, b byte, dst []byte) {
	v := orderChannels(order, r, g, b)
	off := 0
	for i := 0; i < 3; i++ {
		e := t[v[i]]
		dst[off+0] = e[0]
		dst[off+1] = e[1]
		dst[off+2] = e[2]
		off += 3
	}
}
