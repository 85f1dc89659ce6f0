// Package media normalizes caller-supplied media into audio payloads
// ready for upload. Audio containers pass through untouched; MP4 family
// video has its AAC track extracted and re-framed as ADTS. Anything
// else is rejected with a typed error naming the container.
package media

import (
	"errors"
	"fmt"
)

// Container identifies a media container format by its magic bytes.
type Container string

const (
	WAV     Container = "wav"
	MP3     Container = "mp3"
	Ogg     Container = "ogg"
	FLAC    Container = "flac"
	AAC     Container = "aac"
	MP4     Container = "mp4"
	WebM    Container = "webm"
	AVI     Container = "avi"
	Unknown Container = "unknown"
)

// Audio reports whether the container already holds uploadable audio.
func (c Container) Audio() bool {
	switch c {
	case WAV, MP3, Ogg, FLAC, AAC:
		return true
	}
	return false
}

// MIME returns the MIME type for the container.
func (c Container) MIME() string {
	switch c {
	case WAV:
		return "audio/wav"
	case MP3:
		return "audio/mpeg"
	case Ogg:
		return "audio/ogg"
	case FLAC:
		return "audio/flac"
	case AAC:
		return "audio/aac"
	case MP4:
		return "video/mp4"
	case WebM:
		return "video/webm"
	case AVI:
		return "video/x-msvideo"
	default:
		return "application/octet-stream"
	}
}

// Ext returns the conventional file extension, without the dot.
func (c Container) Ext() string {
	if c == Unknown {
		return "bin"
	}
	return string(c)
}

// Detect identifies the container from its leading bytes.
func Detect(data []byte) Container {
	if len(data) < 4 {
		return Unknown
	}

	switch {
	case string(data[:4]) == "RIFF":
		if len(data) >= 12 && string(data[8:12]) == "WAVE" {
			return WAV
		}
		if len(data) >= 11 && string(data[8:11]) == "AVI" {
			return AVI
		}
		return Unknown
	case string(data[:4]) == "OggS":
		return Ogg
	case string(data[:4]) == "fLaC":
		return FLAC
	case string(data[:3]) == "ID3":
		return MP3
	case data[0] == 0x1A && data[1] == 0x45 && data[2] == 0xDF && data[3] == 0xA3:
		// EBML header, shared by WebM and Matroska.
		return WebM
	case len(data) >= 12 && string(data[4:8]) == "ftyp":
		return MP4
	case data[0] == 0xFF && data[1]&0xF6 == 0xF0:
		// ADTS: 12-bit syncword with layer 00.
		return AAC
	case data[0] == 0xFF && data[1]&0xE0 == 0xE0 && data[1]&0x06 != 0:
		// MPEG audio frame sync with a non-reserved layer.
		return MP3
	}
	return Unknown
}

// UnsupportedError reports media that cannot be turned into an audio
// payload, naming the detected container.
type UnsupportedError struct {
	Container Container
	Reason    string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("media: unsupported %s input: %s", e.Container, e.Reason)
}

// IsUnsupported reports whether err is an UnsupportedError.
func IsUnsupported(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}

// Clip is an upload-ready audio payload.
type Clip struct {
	// Data holds the audio bytes after any extraction.
	Data []byte

	// Container describes Data.
	Container Container

	// Source is the container the input arrived in. Equal to Container
	// for passthrough audio.
	Source Container
}

// MIME returns the MIME type of the clip data.
func (c *Clip) MIME() string {
	return c.Container.MIME()
}

// Filename joins a base name with the clip's extension, for multipart
// uploads.
func (c *Clip) Filename(base string) string {
	return base + "." + c.Container.Ext()
}

// ExtractAudio turns raw media bytes into an upload-ready clip.
//
// Audio containers (WAV, MP3, Ogg, FLAC, ADTS) pass through byte for
// byte. MP4 family input has its AAC track demuxed into an ADTS
// stream. Other containers fail with an UnsupportedError.
func ExtractAudio(data []byte) (*Clip, error) {
	if len(data) == 0 {
		return nil, &UnsupportedError{Container: Unknown, Reason: "empty input"}
	}

	container := Detect(data)
	switch {
	case container.Audio():
		return &Clip{Data: data, Container: container, Source: container}, nil
	case container == MP4:
		aac, err := extractAAC(data)
		if err != nil {
			return nil, err
		}
		return &Clip{Data: aac, Container: AAC, Source: MP4}, nil
	default:
		return nil, &UnsupportedError{Container: container, Reason: "no extractable audio"}
	}
}
