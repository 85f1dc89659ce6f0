package media

import (
	"encoding/binary"
	"fmt"
)

// MP4 demuxing per ISO/IEC 14496-12. A file is a sequence of boxes: a
// 32-bit big-endian size, a four-byte type, then the payload. Size 1
// switches to a 64-bit size after the type; size 0 runs to the end of
// the enclosing space. The moov box describes the tracks; the raw
// sample bytes live in mdat and are located through the stsz, stsc and
// stco (or co64) tables. AAC samples carry no framing of their own, so
// each one is prefixed with an ADTS header (ISO/IEC 13818-7) before
// upload.

// box is a parsed ISO-BMFF box.
type box struct {
	typ     string
	payload []byte
}

func truncated(what string) error {
	return &UnsupportedError{Container: MP4, Reason: "truncated " + what}
}

// boxes splits data into its sequence of boxes.
func boxes(data []byte) ([]box, error) {
	var out []box
	off := 0
	for off < len(data) {
		if len(data)-off < 8 {
			return nil, truncated("box header")
		}
		size := int(binary.BigEndian.Uint32(data[off:]))
		typ := string(data[off+4 : off+8])
		header := 8
		var end int
		switch size {
		case 0:
			end = len(data)
		case 1:
			if len(data)-off < 16 {
				return nil, truncated(typ + " box header")
			}
			size64 := binary.BigEndian.Uint64(data[off+8:])
			if size64 < 16 || size64 > uint64(len(data)-off) {
				return nil, truncated(typ + " box")
			}
			header = 16
			end = off + int(size64)
		default:
			if size < 8 || size > len(data)-off {
				return nil, truncated(typ + " box")
			}
			end = off + size
		}
		out = append(out, box{typ: typ, payload: data[off+header : end]})
		off = end
	}
	return out, nil
}

// child returns the payload of the first direct child box of the given
// type.
func child(data []byte, typ string) ([]byte, bool) {
	bs, err := boxes(data)
	if err != nil {
		return nil, false
	}
	for _, b := range bs {
		if b.typ == typ {
			return b.payload, true
		}
	}
	return nil, false
}

// descend follows a path of nested box types.
func descend(data []byte, path ...string) ([]byte, bool) {
	for _, typ := range path {
		var ok bool
		data, ok = child(data, typ)
		if !ok {
			return nil, false
		}
	}
	return data, true
}

// aacTrack carries everything needed to re-frame a raw AAC track as an
// ADTS stream.
type aacTrack struct {
	objectType int // MPEG-4 audio object type
	freqIndex  int // sampling frequency table index
	channels   int // channel configuration

	sizes  []int // per-sample byte sizes, from stsz
	chunks []chunk
}

// chunk locates a run of consecutive samples in the file.
type chunk struct {
	offset  int
	samples int
}

// extractAAC demuxes the first AAC audio track of an MP4 file into an
// ADTS stream.
func extractAAC(data []byte) ([]byte, error) {
	moov, ok := child(data, "moov")
	if !ok {
		return nil, &UnsupportedError{Container: MP4, Reason: "no moov box; fragmented or truncated file"}
	}

	top, err := boxes(moov)
	if err != nil {
		return nil, err
	}

	var track *aacTrack
	var codec string
	sawAudio := false
	for _, b := range top {
		if b.typ != "trak" {
			continue
		}
		stbl, handler, ok := trackSampleTable(b.payload)
		if !ok || handler != "soun" {
			continue
		}
		sawAudio = true
		t, entryType, err := parseSampleTable(stbl)
		if err != nil {
			return nil, err
		}
		if t == nil {
			codec = entryType
			continue
		}
		track = t
		break
	}
	if track == nil {
		if sawAudio {
			return nil, &UnsupportedError{
				Container: MP4,
				Reason:    fmt.Sprintf("audio codec %q; only AAC is supported", codec),
			}
		}
		return nil, &UnsupportedError{Container: MP4, Reason: "no audio track"}
	}
	return track.assemble(data)
}

// trackSampleTable digs the handler type and sample table out of a trak
// box. The handler type (hdlr) distinguishes sound tracks ("soun") from
// video and metadata.
func trackSampleTable(trak []byte) (stbl []byte, handler string, ok bool) {
	mdia, ok := child(trak, "mdia")
	if !ok {
		return nil, "", false
	}
	hdlr, ok := child(mdia, "hdlr")
	if !ok || len(hdlr) < 12 {
		return nil, "", false
	}
	handler = string(hdlr[8:12])
	stbl, ok = descend(mdia, "minf", "stbl")
	return stbl, handler, ok
}

// parseSampleTable reads the stsd, stsz, stsc and stco/co64 tables of a
// sound track. It returns a nil track with the sample entry type when
// the codec is not AAC.
func parseSampleTable(stbl []byte) (*aacTrack, string, error) {
	stsd, ok := child(stbl, "stsd")
	if !ok || len(stsd) < 8 {
		return nil, "", truncated("stsd box")
	}
	// stsd: version/flags, entry count, then sample entry boxes.
	entries, err := boxes(stsd[8:])
	if err != nil || len(entries) == 0 {
		return nil, "", truncated("stsd entry")
	}
	entry := entries[0]
	if entry.typ != "mp4a" {
		return nil, entry.typ, nil
	}

	track, err := parseMP4ASampleEntry(entry.payload)
	if err != nil {
		return nil, "", err
	}
	if track == nil {
		return nil, entry.typ, nil
	}

	track.sizes, err = parseSTSZ(stbl)
	if err != nil {
		return nil, "", err
	}
	track.chunks, err = parseChunks(stbl, len(track.sizes))
	if err != nil {
		return nil, "", err
	}
	return track, "", nil
}

// parseMP4ASampleEntry reads an AudioSampleEntry of type mp4a and the
// esds box nested in it. A nil track with nil error means the entry
// carries a non-AAC object type.
func parseMP4ASampleEntry(entry []byte) (*aacTrack, error) {
	// AudioSampleEntry: 6 reserved bytes, a data reference index, two
	// 16-bit version fields and a vendor, channel count, sample size,
	// two predefined fields and a 16.16 sample rate. Children follow at
	// offset 28; QuickTime version 1 entries insert four extra 32-bit
	// fields first.
	if len(entry) < 28 {
		return nil, truncated("mp4a sample entry")
	}
	version := binary.BigEndian.Uint16(entry[8:])
	children := 28
	switch version {
	case 0:
	case 1:
		children += 16
	default:
		return nil, &UnsupportedError{
			Container: MP4,
			Reason:    fmt.Sprintf("mp4a sample entry version %d", version),
		}
	}
	if len(entry) < children {
		return nil, truncated("mp4a sample entry")
	}

	esds, ok := child(entry[children:], "esds")
	if !ok {
		return nil, truncated("esds box")
	}
	asc, oti, err := parseESDS(esds)
	if err != nil {
		return nil, err
	}
	// 0x40 is MPEG-4 audio; 0x66..0x68 are the MPEG-2 AAC profiles.
	if oti != 0x40 && (oti < 0x66 || oti > 0x68) {
		return nil, nil
	}
	return parseAudioSpecificConfig(asc)
}

// parseESDS unwraps the ES descriptor chain (ISO/IEC 14496-1 section
// 7.2.6) down to the DecoderSpecificInfo, which for AAC is the
// AudioSpecificConfig.
func parseESDS(esds []byte) (asc []byte, oti byte, err error) {
	c := &cursor{data: esds}
	if _, ok := c.take(4); !ok { // version and flags
		return nil, 0, truncated("esds box")
	}

	tag, ok := c.next()
	if !ok {
		return nil, 0, truncated("esds descriptor")
	}
	if tag == 0x03 { // ES_Descriptor
		n, ok := descriptorLength(c)
		if !ok || c.remaining() < n {
			return nil, 0, truncated("ES descriptor")
		}
		// ES_ID and a flags byte; the flags gate optional fields that
		// precede the nested descriptors.
		c.take(2)
		flags, ok := c.next()
		if !ok {
			return nil, 0, truncated("ES descriptor")
		}
		if flags&0x80 != 0 { // streamDependenceFlag
			c.take(2)
		}
		if flags&0x40 != 0 { // URL_Flag
			urlLen, ok := c.next()
			if !ok {
				return nil, 0, truncated("ES descriptor")
			}
			c.take(int(urlLen))
		}
		if flags&0x20 != 0 { // OCRstreamFlag
			c.take(2)
		}
		tag, ok = c.next()
		if !ok {
			return nil, 0, truncated("decoder config descriptor")
		}
	}

	if tag != 0x04 { // DecoderConfigDescriptor
		return nil, 0, truncated("decoder config descriptor")
	}
	if _, ok := descriptorLength(c); !ok {
		return nil, 0, truncated("decoder config descriptor")
	}
	header, ok := c.take(13) // objectTypeIndication, streamType, buffer size, bitrates
	if !ok {
		return nil, 0, truncated("decoder config descriptor")
	}
	oti = header[0]

	tag, ok = c.next()
	if !ok || tag != 0x05 { // DecoderSpecificInfo
		return nil, 0, truncated("decoder specific info")
	}
	n, ok := descriptorLength(c)
	if !ok {
		return nil, 0, truncated("decoder specific info")
	}
	asc, ok = c.take(n)
	if !ok {
		return nil, 0, truncated("decoder specific info")
	}
	return asc, oti, nil
}

// descriptorLength decodes the expandable length field that follows a
// descriptor tag: up to four bytes of seven bits each, the high bit set
// on every byte but the last.
func descriptorLength(c *cursor) (int, bool) {
	length := 0
	for i := 0; i < 4; i++ {
		b, ok := c.next()
		if !ok {
			return 0, false
		}
		length = length<<7 | int(b&0x7F)
		if b&0x80 == 0 {
			return length, true
		}
	}
	return 0, false
}

// parseAudioSpecificConfig reads the leading fields of an
// AudioSpecificConfig (ISO/IEC 14496-3 section 1.6.2.1): a 5-bit audio
// object type, a 4-bit sampling frequency index and a 4-bit channel
// configuration.
func parseAudioSpecificConfig(asc []byte) (*aacTrack, error) {
	r := &bitReader{data: asc}
	objectType, ok := r.read(5)
	if !ok {
		return nil, truncated("audio specific config")
	}
	if objectType == 31 {
		ext, ok := r.read(6)
		if !ok {
			return nil, truncated("audio specific config")
		}
		objectType = 32 + ext
	}
	freqIndex, ok := r.read(4)
	if !ok {
		return nil, truncated("audio specific config")
	}
	if freqIndex == 15 {
		// Escape value: a 24-bit explicit rate follows, which the
		// 4-bit ADTS field cannot carry.
		return nil, &UnsupportedError{Container: MP4, Reason: "sampling rate not representable in ADTS"}
	}
	channels, ok := r.read(4)
	if !ok {
		return nil, truncated("audio specific config")
	}

	// The ADTS profile field is two bits covering object types 1..4
	// (Main, LC, SSR, LTP). HE-AAC signals LC there and decoders find
	// the SBR extension in the payload.
	switch objectType {
	case 1, 2, 3, 4:
	case 5, 29:
		objectType = 2
	default:
		return nil, &UnsupportedError{
			Container: MP4,
			Reason:    fmt.Sprintf("AAC object type %d not representable in ADTS", objectType),
		}
	}
	return &aacTrack{
		objectType: int(objectType),
		freqIndex:  int(freqIndex),
		channels:   int(channels),
	}, nil
}

// parseSTSZ reads the sample size table.
func parseSTSZ(stbl []byte) ([]int, error) {
	stsz, ok := child(stbl, "stsz")
	if !ok || len(stsz) < 12 {
		return nil, truncated("stsz box")
	}
	uniform := int(binary.BigEndian.Uint32(stsz[4:]))
	count := int(binary.BigEndian.Uint32(stsz[8:]))
	sizes := make([]int, 0, count)
	if uniform != 0 {
		for i := 0; i < count; i++ {
			sizes = append(sizes, uniform)
		}
		return sizes, nil
	}
	if len(stsz) < 12+4*count {
		return nil, truncated("stsz table")
	}
	for i := 0; i < count; i++ {
		sizes = append(sizes, int(binary.BigEndian.Uint32(stsz[12+4*i:])))
	}
	return sizes, nil
}

// parseChunks merges the sample-to-chunk table (stsc) with the chunk
// offsets (stco or co64) into a flat chunk list. stsc is run-length
// encoded: each entry names the first chunk it applies to and holds
// until the next entry.
func parseChunks(stbl []byte, sampleCount int) ([]chunk, error) {
	stsc, ok := child(stbl, "stsc")
	if !ok || len(stsc) < 8 {
		return nil, truncated("stsc box")
	}
	stscCount := int(binary.BigEndian.Uint32(stsc[4:]))
	if len(stsc) < 8+12*stscCount {
		return nil, truncated("stsc table")
	}
	type stscEntry struct {
		firstChunk int
		samples    int
	}
	stscEntries := make([]stscEntry, 0, stscCount)
	for i := 0; i < stscCount; i++ {
		off := 8 + 12*i
		stscEntries = append(stscEntries, stscEntry{
			firstChunk: int(binary.BigEndian.Uint32(stsc[off:])),
			samples:    int(binary.BigEndian.Uint32(stsc[off+4:])),
		})
	}
	if len(stscEntries) == 0 {
		return nil, truncated("stsc table")
	}

	offsets, err := parseChunkOffsets(stbl)
	if err != nil {
		return nil, err
	}

	chunks := make([]chunk, 0, len(offsets))
	remaining := sampleCount
	entry := 0
	for i, off := range offsets {
		chunkNumber := i + 1
		for entry+1 < len(stscEntries) && stscEntries[entry+1].firstChunk <= chunkNumber {
			entry++
		}
		samples := stscEntries[entry].samples
		if samples > remaining {
			samples = remaining
		}
		if samples <= 0 {
			break
		}
		chunks = append(chunks, chunk{offset: off, samples: samples})
		remaining -= samples
	}
	return chunks, nil
}

// parseChunkOffsets reads stco, falling back to the 64-bit co64 form.
func parseChunkOffsets(stbl []byte) ([]int, error) {
	if stco, ok := child(stbl, "stco"); ok {
		if len(stco) < 8 {
			return nil, truncated("stco box")
		}
		count := int(binary.BigEndian.Uint32(stco[4:]))
		if len(stco) < 8+4*count {
			return nil, truncated("stco table")
		}
		offsets := make([]int, 0, count)
		for i := 0; i < count; i++ {
			offsets = append(offsets, int(binary.BigEndian.Uint32(stco[8+4*i:])))
		}
		return offsets, nil
	}
	co64, ok := child(stbl, "co64")
	if !ok {
		return nil, truncated("stco box")
	}
	if len(co64) < 8 {
		return nil, truncated("co64 box")
	}
	count := int(binary.BigEndian.Uint32(co64[4:]))
	if len(co64) < 8+8*count {
		return nil, truncated("co64 table")
	}
	offsets := make([]int, 0, count)
	for i := 0; i < count; i++ {
		off := binary.BigEndian.Uint64(co64[8+8*i:])
		if off > uint64(int(^uint(0)>>1)) {
			return nil, truncated("co64 offset")
		}
		offsets = append(offsets, int(off))
	}
	return offsets, nil
}

// maxADTSPayload is the largest sample an ADTS frame can carry: the
// 13-bit frame length field minus the 7-byte header.
const maxADTSPayload = 1<<13 - 1 - adtsHeaderSize

const adtsHeaderSize = 7

// assemble walks the chunk layout, reading each sample from the file
// and prefixing it with an ADTS header.
func (t *aacTrack) assemble(file []byte) ([]byte, error) {
	total := 0
	for _, size := range t.sizes {
		total += size + adtsHeaderSize
	}
	out := make([]byte, 0, total)

	next := 0
	for _, ch := range t.chunks {
		off := ch.offset
		for i := 0; i < ch.samples; i++ {
			if next >= len(t.sizes) {
				break
			}
			size := t.sizes[next]
			if size > maxADTSPayload {
				return nil, &UnsupportedError{Container: MP4, Reason: "sample exceeds ADTS frame limit"}
			}
			if off < 0 || size < 0 || off+size > len(file) {
				return nil, truncated("sample data")
			}
			out = t.appendADTSHeader(out, size)
			out = append(out, file[off:off+size]...)
			off += size
			next++
		}
	}
	if next == 0 {
		return nil, &UnsupportedError{Container: MP4, Reason: "audio track has no samples"}
	}
	return out, nil
}

// appendADTSHeader writes the 7-byte ADTS header (ISO/IEC 13818-7
// section 6.2, protection_absent set) for a sample of the given size.
func (t *aacTrack) appendADTSHeader(out []byte, sampleSize int) []byte {
	frameLen := sampleSize + adtsHeaderSize
	return append(out,
		0xFF,
		0xF1, // syncword low bits, MPEG-4, layer 0, no CRC
		byte((t.objectType-1)<<6|t.freqIndex<<2|(t.channels>>2)&1),
		byte((t.channels&3)<<6|(frameLen>>11)&0x3),
		byte(frameLen>>3),
		byte((frameLen&7)<<5|0x1F),
		0xFC, // buffer fullness all-ones, one frame per header
	)
}

// cursor reads consecutive byte fields with bounds checking.
type cursor struct {
	data []byte
	off  int
}

func (c *cursor) remaining() int {
	return len(c.data) - c.off
}

func (c *cursor) next() (byte, bool) {
	if c.off >= len(c.data) {
		return 0, false
	}
	b := c.data[c.off]
	c.off++
	return b, true
}

func (c *cursor) take(n int) ([]byte, bool) {
	if n < 0 || c.remaining() < n {
		c.off = len(c.data)
		return nil, false
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, true
}

// bitReader reads big-endian bit fields from a byte slice.
type bitReader struct {
	data []byte
	off  int // bit offset
}

func (r *bitReader) read(n int) (uint32, bool) {
	var v uint32
	for i := 0; i < n; i++ {
		idx := r.off >> 3
		if idx >= len(r.data) {
			return 0, false
		}
		v = v<<1 | uint32(r.data[idx]>>(7-r.off&7)&1)
		r.off++
	}
	return v, true
}
