package media

import "encoding/binary"

// WAVEncoding is a RIFF fmt-chunk codec tag.
type WAVEncoding uint16

const (
	WAVPCM16 WAVEncoding = 1 // 16-bit little-endian linear PCM
	WAVALaw  WAVEncoding = 6 // 8-bit G.711 A-law
	WAVULaw  WAVEncoding = 7 // 8-bit G.711 mu-law
)

func (e WAVEncoding) bitsPerSample() uint16 {
	if e == WAVPCM16 {
		return 16
	}
	return 8
}

// WrapWAV frames raw mono samples in a RIFF WAVE container, so players
// read the encoding and rate from the header instead of guessing them
// from a bare sample stream.
func WrapWAV(samples []byte, enc WAVEncoding, sampleRate int) []byte {
	blockAlign := uint16(enc.bitsPerSample() / 8)
	byteRate := uint32(sampleRate) * uint32(blockAlign)

	buf := make([]byte, 44+len(samples))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(samples)))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], uint16(enc))
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], byteRate)
	binary.LittleEndian.PutUint16(buf[32:34], blockAlign)
	binary.LittleEndian.PutUint16(buf[34:36], enc.bitsPerSample())

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(samples)))
	copy(buf[44:], samples)
	return buf
}
