package media

import (
	"strconv"
	"strings"
)

// DefaultHeight is used when the caller supplies no usable quality value.
const DefaultHeight = 1080

// Mode is the requested output kind.
type Mode int

const (
	ModeVideo Mode = iota
	ModeAudio
)

func (m Mode) String() string {
	if m == ModeAudio {
		return "audio"
	}
	return "video"
}

// Container is the requested output container.
type Container string

const (
	ContainerMP4  Container = "mp4"
	ContainerWebM Container = "webm"
	ContainerMP3  Container = "mp3"
)

// Ext returns the file extension for the container.
func (c Container) Ext() string { return string(c) }

// ContentType returns the MIME type served for the container.
func (c Container) ContentType() string {
	switch c {
	case ContainerWebM:
		return "video/webm"
	case ContainerMP3:
		return "audio/mpeg"
	default:
		return "video/mp4"
	}
}

// Request is a validated selection request.
type Request struct {
	TargetHeight int
	Container    Container
	Mode         Mode
	// AudioBitrate is the encode bitrate hint in kbps for audio output.
	AudioBitrate int
}

// ParseRequest coerces the raw quality and mode strings from the HTTP
// boundary. Non-numeric quality defaults to 1080. Recognized modes:
// "video", "video+webm", "audio" and "audio" with an embedded bitrate hint
// (audio64, audio128, audio192, audio320); anything else is treated as the
// plain video mode.
func ParseRequest(quality, mode string) Request {
	req := Request{
		TargetHeight: DefaultHeight,
		Container:    ContainerMP4,
		Mode:         ModeVideo,
	}
	if h, err := strconv.Atoi(strings.TrimSpace(quality)); err == nil && h > 0 {
		req.TargetHeight = h
	}

	switch {
	case strings.HasPrefix(mode, "audio"):
		req.Mode = ModeAudio
		req.Container = ContainerMP3
		req.AudioBitrate = 192
		for _, kbps := range []int{320, 192, 128, 64} {
			if strings.Contains(mode, strconv.Itoa(kbps)) {
				req.AudioBitrate = kbps
				break
			}
		}
	case mode == "video+webm":
		req.Container = ContainerWebM
	}
	return req
}
