package media

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Container
	}{
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), WAV},
		{"avi", []byte("RIFF\x24\x00\x00\x00AVI LIST"), AVI},
		{"ogg", []byte("OggS\x00\x02\x00\x00"), Ogg},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), FLAC},
		{"mp3 id3", []byte("ID3\x04\x00\x00\x00\x00"), MP3},
		{"mp3 sync", []byte{0xFF, 0xFB, 0x90, 0x00}, MP3},
		{"adts", []byte{0xFF, 0xF1, 0x50, 0x80}, AAC},
		{"mp4", []byte("\x00\x00\x00\x18ftypisom"), MP4},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F, 0x42, 0x86, 0x81}, WebM},
		{"riff junk", []byte("RIFF\x24\x00\x00\x00JUNKjunk"), Unknown},
		{"text", []byte("hello world"), Unknown},
		{"short", []byte("RI"), Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.data); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestExtractAudioPassthrough(t *testing.T) {
	data := []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00")
	clip, err := ExtractAudio(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !bytes.Equal(clip.Data, data) {
		t.Fatal("expected passthrough data unchanged")
	}
	if clip.Container != WAV || clip.Source != WAV {
		t.Fatalf("expected wav/wav, got %s/%s", clip.Container, clip.Source)
	}
	if got := clip.MIME(); got != "audio/wav" {
		t.Fatalf("expected audio/wav, got %s", got)
	}
	if got := clip.Filename("input"); got != "input.wav" {
		t.Fatalf("expected input.wav, got %s", got)
	}
}

func TestExtractAudioEmpty(t *testing.T) {
	if _, err := ExtractAudio(nil); !IsUnsupported(err) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestExtractAudioRejectsVideoContainers(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Container
	}{
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F, 0x42, 0x86, 0x81}, WebM},
		{"avi", []byte("RIFF\x24\x00\x00\x00AVI LIST"), AVI},
		{"unknown", []byte("not media at all"), Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExtractAudio(tc.data)
			if !IsUnsupported(err) {
				t.Fatalf("expected unsupported error, got %v", err)
			}
			if !strings.Contains(err.Error(), string(tc.want)) {
				t.Fatalf("expected error to name %s, got %q", tc.want, err)
			}
		})
	}
}

// mkbox builds an ISO-BMFF box from its type and payload parts.
func mkbox(typ string, parts ...[]byte) []byte {
	size := 8
	for _, p := range parts {
		size += len(p)
	}
	out := binary.BigEndian.AppendUint32(nil, uint32(size))
	out = append(out, typ...)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func be32(v int) []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(v))
}

// mp4aEntry builds an mp4a sample entry carrying an AAC-LC 44.1 kHz
// stereo AudioSpecificConfig (0x12 0x10).
func mp4aEntry() []byte {
	dsi := []byte{0x05, 0x02, 0x12, 0x10}
	// DecoderConfigDescriptor: objectTypeIndication 0x40 (MPEG-4
	// audio), audio stream type, zeroed buffer size and bitrates, then
	// the DecoderSpecificInfo.
	dcd := append([]byte{
		0x04, byte(13 + len(dsi)),
		0x40, 0x15, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}, dsi...)
	// ES_Descriptor: ES_ID 0, no optional fields.
	esd := append([]byte{
		0x03, byte(3 + len(dcd)),
		0x00, 0x00, 0x00,
	}, dcd...)
	esds := mkbox("esds", []byte{0, 0, 0, 0}, esd)

	// Channel count 2, sample size 16, 44.1 kHz in 16.16 fixed point.
	body := make([]byte, 28)
	binary.BigEndian.PutUint16(body[16:], 2)
	binary.BigEndian.PutUint16(body[18:], 16)
	binary.BigEndian.PutUint32(body[24:], 44100<<16)
	return mkbox("mp4a", body, esds)
}

// soundTrak builds a trak box holding the given sample tables.
func soundTrak(handler string, entry []byte, stsz, stsc, stco []byte) []byte {
	hdlr := mkbox("hdlr", make([]byte, 8), []byte(handler), make([]byte, 13))
	stsd := mkbox("stsd", []byte{0, 0, 0, 0}, be32(1), entry)
	stbl := mkbox("stbl", stsd, stsz, stsc, stco)
	minf := mkbox("minf", stbl)
	mdia := mkbox("mdia", hdlr, minf)
	return mkbox("trak", mdia)
}

// buildMP4 lays out ftyp, mdat and moov with all samples in one chunk.
func buildMP4(t *testing.T, samples [][]byte) []byte {
	t.Helper()
	ftyp := mkbox("ftyp", []byte("isomiso2"))

	var mdatPayload []byte
	sizes := []byte{0, 0, 0, 0}
	sizes = append(sizes, be32(0)...) // per-sample sizes follow
	sizes = append(sizes, be32(len(samples))...)
	for _, s := range samples {
		mdatPayload = append(mdatPayload, s...)
		sizes = append(sizes, be32(len(s))...)
	}
	stsz := mkbox("stsz", sizes)
	stsc := mkbox("stsc", []byte{0, 0, 0, 0}, be32(1), be32(1), be32(len(samples)), be32(1))
	chunkOffset := len(ftyp) + 8
	stco := mkbox("stco", []byte{0, 0, 0, 0}, be32(1), be32(chunkOffset))

	trak := soundTrak("soun", mp4aEntry(), stsz, stsc, stco)
	moov := mkbox("moov", trak)

	out := append([]byte{}, ftyp...)
	out = append(out, mkbox("mdat", mdatPayload)...)
	return append(out, moov...)
}

// decodeADTS splits an ADTS stream back into its payloads, checking the
// header fields along the way.
func decodeADTS(t *testing.T, data []byte) [][]byte {
	t.Helper()
	var out [][]byte
	for len(data) > 0 {
		if len(data) < adtsHeaderSize {
			t.Fatalf("expected full ADTS header, got %d bytes", len(data))
		}
		if data[0] != 0xFF || data[1] != 0xF1 {
			t.Fatalf("expected ADTS sync, got %#x %#x", data[0], data[1])
		}
		frameLen := int(data[3]&0x3)<<11 | int(data[4])<<3 | int(data[5])>>5
		if frameLen < adtsHeaderSize || frameLen > len(data) {
			t.Fatalf("frame length %d out of range", frameLen)
		}
		out = append(out, data[adtsHeaderSize:frameLen])
		data = data[frameLen:]
	}
	return out
}

func TestExtractAACFromMP4(t *testing.T) {
	samples := [][]byte{
		{0xDE, 0xAD, 0xBE, 0xEF},
		{0x01, 0x02, 0x03},
		{0x99},
	}
	clip, err := ExtractAudio(buildMP4(t, samples))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if clip.Container != AAC || clip.Source != MP4 {
		t.Fatalf("expected aac/mp4, got %s/%s", clip.Container, clip.Source)
	}

	got := decodeADTS(t, clip.Data)
	if len(got) != len(samples) {
		t.Fatalf("expected %d frames, got %d", len(samples), len(got))
	}
	for i, want := range samples {
		if !bytes.Equal(got[i], want) {
			t.Fatalf("frame %d: expected % x, got % x", i, want, got[i])
		}
	}

	// AAC-LC, frequency index 4, stereo.
	if clip.Data[2] != 0x50 {
		t.Fatalf("expected profile byte 0x50, got %#x", clip.Data[2])
	}
	if clip.Data[3]&0xC0 != 0x80 {
		t.Fatalf("expected channel bits for stereo, got %#x", clip.Data[3])
	}
}

func TestExtractAACMultipleChunks(t *testing.T) {
	// Two chunks: the first holds two samples, the second one, with a
	// gap between them that the offsets must skip.
	samples := [][]byte{
		{0x10, 0x11},
		{0x20, 0x21, 0x22},
		{0x30},
	}
	ftyp := mkbox("ftyp", []byte("isomiso2"))
	gap := []byte("skip this")
	mdatPayload := append(append(append(append([]byte{}, samples[0]...), samples[1]...), gap...), samples[2]...)

	sizes := append([]byte{0, 0, 0, 0}, be32(0)...)
	sizes = append(sizes, be32(3)...)
	for _, s := range samples {
		sizes = append(sizes, be32(len(s))...)
	}
	stsz := mkbox("stsz", sizes)
	stsc := mkbox("stsc", []byte{0, 0, 0, 0}, be32(2),
		be32(1), be32(2), be32(1),
		be32(2), be32(1), be32(1))
	first := len(ftyp) + 8
	second := first + len(samples[0]) + len(samples[1]) + len(gap)
	stco := mkbox("stco", []byte{0, 0, 0, 0}, be32(2), be32(first), be32(second))

	trak := soundTrak("soun", mp4aEntry(), stsz, stsc, stco)
	file := append([]byte{}, ftyp...)
	file = append(file, mkbox("mdat", mdatPayload)...)
	file = append(file, mkbox("moov", trak)...)

	clip, err := ExtractAudio(file)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	got := decodeADTS(t, clip.Data)
	if len(got) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(got))
	}
	for i, want := range samples {
		if !bytes.Equal(got[i], want) {
			t.Fatalf("frame %d: expected % x, got % x", i, want, got[i])
		}
	}
}

func TestExtractAACNoAudioTrack(t *testing.T) {
	hdlr := mkbox("hdlr", make([]byte, 8), []byte("vide"), make([]byte, 13))
	mdia := mkbox("mdia", hdlr)
	trak := mkbox("trak", mdia)
	file := append([]byte{}, mkbox("ftyp", []byte("isomiso2"))...)
	file = append(file, mkbox("moov", trak)...)

	_, err := ExtractAudio(file)
	if !IsUnsupported(err) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no audio track") {
		t.Fatalf("expected no audio track error, got %q", err)
	}
}

func TestExtractAACRejectsOtherCodecs(t *testing.T) {
	entry := mkbox("ac-3", make([]byte, 28))
	stsz := mkbox("stsz", []byte{0, 0, 0, 0}, be32(0), be32(0))
	stsc := mkbox("stsc", []byte{0, 0, 0, 0}, be32(0))
	stco := mkbox("stco", []byte{0, 0, 0, 0}, be32(0))
	trak := soundTrak("soun", entry, stsz, stsc, stco)
	file := append([]byte{}, mkbox("ftyp", []byte("isomiso2"))...)
	file = append(file, mkbox("moov", trak)...)

	_, err := ExtractAudio(file)
	if !IsUnsupported(err) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
	if !strings.Contains(err.Error(), "ac-3") {
		t.Fatalf("expected error to name the codec, got %q", err)
	}
}

func TestExtractAACNoMoov(t *testing.T) {
	file := append([]byte{}, mkbox("ftyp", []byte("isomiso2"))...)
	file = append(file, mkbox("mdat", []byte{1, 2, 3})...)
	_, err := ExtractAudio(file)
	if !IsUnsupported(err) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
	if !strings.Contains(err.Error(), "moov") {
		t.Fatalf("expected moov error, got %q", err)
	}
}

func TestExtractAACTruncated(t *testing.T) {
	full := buildMP4(t, [][]byte{{0x01, 0x02, 0x03, 0x04}})
	// Chop through the moov box so a table read runs off the end.
	for cut := len(full) - 40; cut < len(full); cut++ {
		if _, err := ExtractAudio(full[:cut]); err == nil {
			t.Fatalf("expected error at cut %d", cut)
		}
	}
}

func TestBoxesRejectsBadHeaders(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"short header", []byte{0, 0, 0}},
		{"size too small", append(be32(4), []byte("free")...)},
		{"size past end", append(be32(100), []byte("free")...)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := boxes(tc.data); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
