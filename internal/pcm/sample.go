package pcm

import "fmt"

// Sample decodes one channel of the sample frame at index frame in buf.
//
// One-byte samples are returned as unsigned values in [0, 255]. Wider samples
// are two's complement: only the low BitsPerSample%8 bits (all 8 when the
// width is byte aligned) of the most significant byte belong to the sample,
// and the sign is taken from the top bit of that group. The remaining bytes
// are combined unsigned.
func Sample(buf []byte, frame, channel int, f Format) (float64, error) {
	if f.BitsPerSample < 1 || f.BitsPerSample > 64 {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedWidth, f.BitsPerSample)
	}
	if channel < 0 || channel >= f.Channels {
		return 0, fmt.Errorf("%w: channel %d of %d", ErrChannelRange, channel, f.Channels)
	}

	width := f.BytesPerSample()
	off := (frame*f.Channels + channel) * width
	if frame < 0 || off+width > len(buf) {
		return 0, fmt.Errorf("%w: frame %d needs bytes [%d,%d), have %d", ErrShortBuffer, frame, off, off+width, len(buf))
	}

	if width == 1 {
		return float64(buf[off]), nil
	}

	msb := off + width - 1
	if f.BigEndian {
		msb = off
	}

	topBits := f.BitsPerSample % 8
	if topBits == 0 {
		topBits = 8
	}
	top := int64(buf[msb] & byte(1<<topBits-1))
	if top&(1<<(topBits-1)) != 0 {
		top -= 1 << topBits
	}

	v := top << (8 * (width - 1))
	for i := 0; i < width-1; i++ {
		idx := off + i
		if f.BigEndian {
			idx = off + width - 1 - i
		}
		v |= int64(buf[idx]) << (8 * i)
	}
	return float64(v), nil
}

// Encode writes v as one sample of format f, the inverse of [Sample]. The
// unused high bits of the most significant byte carry sign extension.
func Encode(dst []byte, v int64, f Format) []byte {
	width := f.BytesPerSample()
	for i := 0; i < width; i++ {
		b := byte(v >> (8 * i))
		if f.BigEndian {
			b = byte(v >> (8 * (width - 1 - i)))
		}
		dst = append(dst, b)
	}
	return dst
}

// Range returns the inclusive value range [Sample] can produce for f.
func Range(f Format) (lo, hi int64) {
	if f.BytesPerSample() == 1 {
		return 0, 255
	}
	if f.BitsPerSample >= 64 {
		return -1 << 63, 1<<63 - 1
	}
	return -(1 << (f.BitsPerSample - 1)), 1<<(f.BitsPerSample-1) - 1
}
