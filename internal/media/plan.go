package media

import (
	"fmt"
	"strconv"
	"strings"
)

// Strategy selects how the delivery pipeline produces bytes.
type Strategy string

const (
	// StrategyPipe streams bytes from an ffmpeg subprocess as they are produced.
	StrategyPipe Strategy = "pipe"
	// StrategyStaged lets the extractor fetch and mux a complete file into
	// scratch storage before streaming it. Slower to first byte, but the
	// extractor's own merge logic is authoritative.
	StrategyStaged Strategy = "staged"
)

// PlanKind discriminates the two execution plan shapes.
type PlanKind int

const (
	PlanPipe PlanKind = iota
	PlanStaged
)

// Plan is the execution plan handed to the delivery pipeline.
type Plan struct {
	Kind PlanKind

	// Pipe plans: the complete ffmpeg argument list, output to pipe:1.
	Args []string

	// Staged plans: a declarative download request for the extractor.
	SourceURL      string
	FormatSpec     string
	MergeContainer string
	AudioBitrate   int // kbps, staged audio extraction only
	Mode           Mode

	Filename    string
	ContentType string
}

// networkArgs are the resilience parameters applied to every ffmpeg
// network input: reconnect on drop and at EOF with a bounded retry delay,
// and an enlarged read-ahead queue.
var networkArgs = []string{
	"-reconnect", "1",
	"-reconnect_streamed", "1",
	"-reconnect_delay_max", "5",
	"-multiple_requests", "1",
	"-thread_queue_size", "8192",
}

// BuildPlan turns a format selection into an execution plan for the
// configured delivery strategy.
func BuildPlan(sel Selection, req Request, title string, sourceURL string, strategy Strategy) (Plan, error) {
	plan := Plan{
		SourceURL:   sourceURL,
		Mode:        req.Mode,
		Filename:    SanitizeFilename(title) + "." + req.Container.Ext(),
		ContentType: req.Container.ContentType(),
	}

	if strategy == StrategyStaged {
		plan.Kind = PlanStaged
		return buildStagedPlan(plan, sel, req)
	}

	plan.Kind = PlanPipe
	return buildPipePlan(plan, sel, req)
}

func buildStagedPlan(plan Plan, sel Selection, req Request) (Plan, error) {
	if req.Mode == ModeAudio {
		if sel.Audio == nil {
			return Plan{}, ErrNoPlayableStream
		}
		plan.FormatSpec = sel.Audio.ID
		plan.AudioBitrate = req.AudioBitrate
		return plan, nil
	}

	if sel.Video == nil {
		return Plan{}, ErrNoPlayableStream
	}
	plan.FormatSpec = sel.Video.ID
	if sel.Audio != nil {
		plan.FormatSpec += "+" + sel.Audio.ID
	}
	plan.MergeContainer = req.Container.Ext()
	return plan, nil
}

func buildPipePlan(plan Plan, sel Selection, req Request) (Plan, error) {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}

	if req.Mode == ModeAudio {
		if sel.Audio == nil || sel.Audio.URL == "" {
			return Plan{}, ErrNoPlayableStream
		}
		args = append(args, networkArgs...)
		args = append(args, "-i", sel.Audio.URL)
		args = append(args,
			"-vn",
			"-c:a", "libmp3lame",
			"-b:a", strconv.Itoa(req.AudioBitrate)+"k",
			"-f", "mp3",
			"pipe:1",
		)
		plan.Args = args
		return plan, nil
	}

	if sel.Video == nil || sel.Video.URL == "" {
		return Plan{}, ErrNoPlayableStream
	}

	args = append(args, networkArgs...)
	args = append(args, "-i", sel.Video.URL)
	if sel.Audio != nil && sel.Audio.URL != "" {
		args = append(args, networkArgs...)
		args = append(args, "-i", sel.Audio.URL)
		args = append(args, "-map", "0:v:0", "-map", "1:a:0")
		args = append(args, videoCodecArgs(*sel.Video, req.Container, sel.Height)...)
		args = append(args, audioCodecArgs(*sel.Audio, req.Container)...)
	} else if videoCodecCompatible(sel.Video.VideoCodec, req.Container) &&
		(!sel.Video.HasAudio() || audioCodecCompatible(sel.Video.AudioCodec, req.Container)) {
		args = append(args, "-c", "copy")
	} else {
		args = append(args, videoCodecArgs(*sel.Video, req.Container, sel.Height)...)
		if sel.Video.HasAudio() {
			args = append(args, audioCodecArgs(*sel.Video, req.Container)...)
		}
	}

	switch req.Container {
	case ContainerWebM:
		args = append(args, "-f", "webm", "pipe:1")
	default:
		// Fragmented layout so the container can be written to a
		// non-seekable pipe.
		args = append(args,
			"-f", "mp4",
			"-movflags", "frag_keyframe+empty_moov+default_base_moof",
			"-bsf:v", "dump_extra",
			"pipe:1",
		)
	}

	plan.Args = args
	return plan, nil
}

func videoCodecCompatible(codec string, container Container) bool {
	codec = strings.ToLower(codec)
	switch container {
	case ContainerWebM:
		return containsAny(codec, "vp9", "vp09", "vp8", "av01")
	default:
		return containsAny(codec, "avc1", "h264")
	}
}

func audioCodecCompatible(codec string, container Container) bool {
	codec = strings.ToLower(codec)
	switch container {
	case ContainerWebM:
		return containsAny(codec, "opus", "vorbis")
	default:
		return containsAny(codec, "mp4a", "aac")
	}
}

func videoCodecArgs(f Format, container Container, height int) []string {
	if videoCodecCompatible(f.VideoCodec, container) {
		return []string{"-c:v", "copy"}
	}
	crf := strconv.Itoa(crfForHeight(height))
	if container == ContainerWebM {
		return []string{"-c:v", "libvpx-vp9", "-b:v", "0", "-crf", crf, "-pix_fmt", "yuv420p"}
	}
	return []string{"-c:v", "libx264", "-preset", "veryfast", "-crf", crf, "-pix_fmt", "yuv420p"}
}

func audioCodecArgs(f Format, container Container) []string {
	if audioCodecCompatible(f.AudioCodec, container) {
		return []string{"-c:a", "copy"}
	}
	if container == ContainerWebM {
		return []string{"-c:a", "libopus", "-b:a", "192k"}
	}
	return []string{"-c:a", "aac", "-b:a", "192k"}
}

// crfForHeight scales the encode quality factor with resolution: higher
// resolutions carry more detail and get a lower (better) CRF, while very
// low resolutions bottom out at a fixed ceiling.
func crfForHeight(height int) int {
	switch {
	case height >= 2160:
		return 24
	case height >= 1440:
		return 26
	case height >= 1080:
		return 28
	case height >= 720:
		return 30
	default:
		return 33
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

const maxFilenameLen = 200

// SanitizeFilename reduces a media title to a safe attachment name:
// letters, digits, dash, underscore, dot and space pass through, every
// other rune becomes an underscore, and the result is capped at 200
// characters. An empty result falls back to a generic placeholder.
func SanitizeFilename(title string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.' || r == ' ':
			return r
		default:
			return '_'
		}
	}, title)
	if len(mapped) > maxFilenameLen {
		mapped = mapped[:maxFilenameLen]
	}
	mapped = strings.TrimSpace(mapped)
	if mapped == "" {
		return "media"
	}
	return mapped
}

// DispositionHeader formats the Content-Disposition value for a filename.
func DispositionHeader(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
