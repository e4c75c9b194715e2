package media

import (
	"errors"
	"strings"
	"testing"
)

func videoSel(vcodec, url string, height int) Selection {
	return Selection{
		Video:  &Format{ID: "v", VideoCodec: vcodec, AudioCodec: "none", Height: height, URL: url},
		Height: height,
	}
}

func hasArgPair(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestBuildPipePlanTwoInputsCopy(t *testing.T) {
	sel := videoSel("avc1.640028", "https://cdn/video", 1080)
	sel.Audio = &Format{ID: "a", AudioCodec: "mp4a.40.2", URL: "https://cdn/audio"}
	req := Request{TargetHeight: 1080, Container: ContainerMP4, Mode: ModeVideo}

	plan, err := BuildPlan(sel, req, "title", "https://page", StrategyPipe)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	if plan.Kind != PlanPipe {
		t.Fatalf("plan kind = %v, want PlanPipe", plan.Kind)
	}

	args := plan.Args
	if !hasArgPair(args, "-i", "https://cdn/video") || !hasArgPair(args, "-i", "https://cdn/audio") {
		t.Errorf("missing input URLs in %v", args)
	}
	if !hasArgPair(args, "-map", "0:v:0") || !hasArgPair(args, "-map", "1:a:0") {
		t.Errorf("missing stream maps in %v", args)
	}
	if !hasArgPair(args, "-c:v", "copy") || !hasArgPair(args, "-c:a", "copy") {
		t.Errorf("compatible codecs should be copied, got %v", args)
	}
	if !hasArgPair(args, "-reconnect", "1") || !hasArgPair(args, "-thread_queue_size", "8192") {
		t.Errorf("missing network resilience args in %v", args)
	}
	if !hasArgPair(args, "-movflags", "frag_keyframe+empty_moov+default_base_moof") {
		t.Errorf("mp4 pipe output must be fragmented, got %v", args)
	}
	if args[len(args)-1] != "pipe:1" {
		t.Errorf("last arg = %s, want pipe:1", args[len(args)-1])
	}
	if plan.ContentType != "video/mp4" {
		t.Errorf("content type = %s, want video/mp4", plan.ContentType)
	}
}

func TestBuildPipePlanTranscodesIncompatibleVideo(t *testing.T) {
	sel := videoSel("vp9", "https://cdn/video", 1080)
	req := Request{TargetHeight: 1080, Container: ContainerMP4, Mode: ModeVideo}

	plan, err := BuildPlan(sel, req, "t", "u", StrategyPipe)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	if !hasArgPair(plan.Args, "-c:v", "libx264") {
		t.Errorf("vp9 into mp4 must transcode, got %v", plan.Args)
	}
	if !hasArgPair(plan.Args, "-crf", "28") {
		t.Errorf("1080p transcode wants crf 28, got %v", plan.Args)
	}
	if !hasArgPair(plan.Args, "-pix_fmt", "yuv420p") {
		t.Errorf("transcode must normalize pixel format, got %v", plan.Args)
	}
}

func TestBuildPipePlanMuxedCompatibleUsesPlainCopy(t *testing.T) {
	sel := videoSel("avc1", "https://cdn/muxed", 720)
	sel.Video.AudioCodec = "mp4a.40.2"
	req := Request{TargetHeight: 720, Container: ContainerMP4, Mode: ModeVideo}

	plan, err := BuildPlan(sel, req, "t", "u", StrategyPipe)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	if !hasArgPair(plan.Args, "-c", "copy") {
		t.Errorf("muxed compatible source should pass through, got %v", plan.Args)
	}
}

func TestBuildPipePlanWebM(t *testing.T) {
	sel := videoSel("vp9", "https://cdn/video", 1440)
	sel.Audio = &Format{ID: "a", AudioCodec: "opus", URL: "https://cdn/audio"}
	req := Request{TargetHeight: 1440, Container: ContainerWebM, Mode: ModeVideo}

	plan, err := BuildPlan(sel, req, "t", "u", StrategyPipe)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	if !hasArgPair(plan.Args, "-f", "webm") {
		t.Errorf("want webm output, got %v", plan.Args)
	}
	if !hasArgPair(plan.Args, "-c:v", "copy") || !hasArgPair(plan.Args, "-c:a", "copy") {
		t.Errorf("vp9+opus into webm should copy, got %v", plan.Args)
	}
	if plan.ContentType != "video/webm" {
		t.Errorf("content type = %s, want video/webm", plan.ContentType)
	}
}

func TestBuildPipePlanAudio(t *testing.T) {
	sel := Selection{Audio: &Format{ID: "a", AudioCodec: "opus", URL: "https://cdn/audio"}}
	req := Request{Container: ContainerMP3, Mode: ModeAudio, AudioBitrate: 320}

	plan, err := BuildPlan(sel, req, "song", "u", StrategyPipe)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	if !hasArgPair(plan.Args, "-c:a", "libmp3lame") || !hasArgPair(plan.Args, "-b:a", "320k") {
		t.Errorf("want mp3 encode at 320k, got %v", plan.Args)
	}
	if !hasArgPair(plan.Args, "-f", "mp3") {
		t.Errorf("want mp3 container, got %v", plan.Args)
	}
	if plan.ContentType != "audio/mpeg" {
		t.Errorf("content type = %s, want audio/mpeg", plan.ContentType)
	}
	if plan.Filename != "song.mp3" {
		t.Errorf("filename = %s, want song.mp3", plan.Filename)
	}
}

func TestBuildPipePlanFailsWithoutSource(t *testing.T) {
	_, err := BuildPlan(Selection{}, Request{Mode: ModeVideo, Container: ContainerMP4}, "t", "u", StrategyPipe)
	if !errors.Is(err, ErrNoPlayableStream) {
		t.Errorf("error = %v, want ErrNoPlayableStream", err)
	}

	_, err = BuildPlan(Selection{}, Request{Mode: ModeAudio, Container: ContainerMP3}, "t", "u", StrategyPipe)
	if !errors.Is(err, ErrNoPlayableStream) {
		t.Errorf("error = %v, want ErrNoPlayableStream", err)
	}
}

func TestBuildStagedPlan(t *testing.T) {
	sel := videoSel("avc1", "https://cdn/video", 1080)
	sel.Video.ID = "137"
	sel.Audio = &Format{ID: "140", AudioCodec: "mp4a", URL: "https://cdn/audio"}
	req := Request{TargetHeight: 1080, Container: ContainerMP4, Mode: ModeVideo}

	plan, err := BuildPlan(sel, req, "t", "https://page", StrategyStaged)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	if plan.Kind != PlanStaged {
		t.Fatalf("plan kind = %v, want PlanStaged", plan.Kind)
	}
	if plan.FormatSpec != "137+140" {
		t.Errorf("format spec = %s, want 137+140", plan.FormatSpec)
	}
	if plan.MergeContainer != "mp4" {
		t.Errorf("merge container = %s, want mp4", plan.MergeContainer)
	}
	if plan.SourceURL != "https://page" {
		t.Errorf("source url = %s, want the page url", plan.SourceURL)
	}
}

func TestBuildStagedPlanAudio(t *testing.T) {
	sel := Selection{Audio: &Format{ID: "251", AudioCodec: "opus"}}
	req := Request{Container: ContainerMP3, Mode: ModeAudio, AudioBitrate: 128}

	plan, err := BuildPlan(sel, req, "t", "u", StrategyStaged)
	if err != nil {
		t.Fatalf("BuildPlan() error = %v", err)
	}
	if plan.FormatSpec != "251" {
		t.Errorf("format spec = %s, want 251", plan.FormatSpec)
	}
	if plan.AudioBitrate != 128 {
		t.Errorf("audio bitrate = %d, want 128", plan.AudioBitrate)
	}
}

func TestCRFScalesWithResolution(t *testing.T) {
	tests := []struct {
		height int
		want   int
	}{
		{4320, 24},
		{2160, 24},
		{1440, 26},
		{1080, 28},
		{720, 30},
		{480, 33},
		{144, 33},
	}
	for _, tt := range tests {
		if got := crfForHeight(tt.height); got != tt.want {
			t.Errorf("crfForHeight(%d) = %d, want %d", tt.height, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain", "My Video", "My Video"},
		{"slashes and emoji", `a/b\c🎬`, "a_b_c_"},
		{"keeps allowed punctuation", "ep.1 - part_2", "ep.1 - part_2"},
		{"empty becomes placeholder", "", "media"},
		{"whitespace only becomes placeholder", "   ", "media"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.title); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilenameProperties(t *testing.T) {
	const allowed = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_. "
	titles := []string{
		strings.Repeat("x", 500),
		strings.Repeat("日本語タイトル", 100),
		"normal title",
		"!!!###$$$",
		"",
	}

	for _, title := range titles {
		got := SanitizeFilename(title)
		if got == "" {
			t.Errorf("SanitizeFilename(%q) returned empty", title)
		}
		if len(got) > maxFilenameLen {
			t.Errorf("SanitizeFilename(%q) length %d exceeds %d", title, len(got), maxFilenameLen)
		}
		for _, r := range got {
			if !strings.ContainsRune(allowed, r) {
				t.Errorf("SanitizeFilename(%q) contains disallowed rune %q", title, r)
			}
		}
	}
}

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		quality string
		mode    string
		want    Request
	}{
		{"defaults", "", "", Request{TargetHeight: 1080, Container: ContainerMP4, Mode: ModeVideo}},
		{"video 720", "720", "video", Request{TargetHeight: 720, Container: ContainerMP4, Mode: ModeVideo}},
		{"non-numeric quality", "best", "video", Request{TargetHeight: 1080, Container: ContainerMP4, Mode: ModeVideo}},
		{"negative quality", "-1", "video", Request{TargetHeight: 1080, Container: ContainerMP4, Mode: ModeVideo}},
		{"webm video", "1080", "video+webm", Request{TargetHeight: 1080, Container: ContainerWebM, Mode: ModeVideo}},
		{"plain audio", "1080", "audio", Request{TargetHeight: 1080, Container: ContainerMP3, Mode: ModeAudio, AudioBitrate: 192}},
		{"audio 64", "1080", "audio64", Request{TargetHeight: 1080, Container: ContainerMP3, Mode: ModeAudio, AudioBitrate: 64}},
		{"audio 320", "1080", "audio320", Request{TargetHeight: 1080, Container: ContainerMP3, Mode: ModeAudio, AudioBitrate: 320}},
		{"unknown mode is video", "480", "whatever", Request{TargetHeight: 480, Container: ContainerMP4, Mode: ModeVideo}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseRequest(tt.quality, tt.mode); got != tt.want {
				t.Errorf("ParseRequest(%q, %q) = %+v, want %+v", tt.quality, tt.mode, got, tt.want)
			}
		})
	}
}
