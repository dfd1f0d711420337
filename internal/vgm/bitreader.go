package vgm

// bitReader reads MSB-first bit groups from a byte slice. Reads past the
// end of the data zero-extend, which lets decompression overshoot by up to
// one symbol without bounds checks in the hot loop; the caller truncates
// output to the declared uncompressed size.
type bitReader struct {
	data  []byte
	pos   int  // next byte to load into the accumulator
	acc   uint // accumulated bits
	avail int  // bits available in acc
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

// read returns the next count bits (count <= 16), MSB first.
func (br *bitReader) read(count int) uint16 {
	for br.avail < count {
		if br.pos >= len(br.data) {
			br.acc <<= 8
		} else {
			br.acc = (br.acc << 8) | uint(br.data[br.pos])
			br.pos++
		}
		br.avail += 8
	}
	br.avail -= count
	return uint16((br.acc >> br.avail) & ((1 << count) - 1))
}

// exhausted reports whether every data byte has been loaded and consumed.
func (br *bitReader) exhausted() bool {
	return br.pos >= len(br.data) && br.avail == 0
}
