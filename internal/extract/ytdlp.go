package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/your-org/mediaproxy/internal/config"
	"github.com/your-org/mediaproxy/internal/media"
	"github.com/your-org/mediaproxy/internal/observability"
)

// Client drives the yt-dlp binary. All knobs (binary path, user agent,
// cookies, retries) come from the injected config; there is no global state.
type Client struct {
	cfg config.ExtractorConfig
}

func NewClient(cfg config.ExtractorConfig) *Client {
	return &Client{cfg: cfg}
}

// Entry is one item of a playlist probe result.
type Entry struct {
	URL   string
	Title string
}

// Info is the result of a metadata probe: either a single media item with
// its format catalog, or a playlist listing.
type Info struct {
	Title        string
	Duration     float64
	Thumbnail    string
	HasSubtitles bool

	IsPlaylist bool
	Entries    []Entry

	Formats []media.Format
}

type rawFormat struct {
	FormatID string   `json:"format_id"`
	VCodec   string   `json:"vcodec"`
	ACodec   string   `json:"acodec"`
	Height   *int     `json:"height"`
	TBR      *float64 `json:"tbr"`
	Ext      string   `json:"ext"`
	Protocol string   `json:"protocol"`
	URL      string   `json:"url"`
}

type rawEntry struct {
	URL        string `json:"url"`
	WebpageURL string `json:"webpage_url"`
	Title      string `json:"title"`
}

type rawInfo struct {
	Type              string                     `json:"_type"`
	Title             string                     `json:"title"`
	Duration          float64                    `json:"duration"`
	Thumbnail         string                     `json:"thumbnail"`
	Subtitles         map[string]json.RawMessage `json:"subtitles"`
	AutomaticCaptions map[string]json.RawMessage `json:"automatic_captions"`
	Entries           []rawEntry                 `json:"entries"`
	Formats           []rawFormat                `json:"formats"`
}

// Probe fetches metadata and the full format catalog in one collaborator
// call. Playlist URLs resolve to a playlist listing, not an error. The
// optional duration ceiling applies to single items only.
func (c *Client) Probe(ctx context.Context, url string) (*Info, error) {
	start := time.Now()

	args := c.baseArgs()
	args = append(args, "-J", "--skip-download", "--flat-playlist", url)

	cmd := exec.CommandContext(ctx, c.cfg.BinaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &media.ExtractionError{URL: url, Err: commandError(err, &stderr)}
	}

	info, err := parseInfo(stdout.Bytes())
	if err != nil {
		return nil, &media.ExtractionError{URL: url, Err: err}
	}

	observability.ProbeDuration.Observe(time.Since(start).Seconds())

	if !info.IsPlaylist {
		if max := c.cfg.MaxDurationSeconds; max > 0 && info.Duration > float64(max) {
			return nil, fmt.Errorf("%w: %.0fs (max %ds)", media.ErrDurationExceeded, info.Duration, max)
		}
	}

	return info, nil
}

// parseInfo classifies the collaborator's JSON document as a single item or
// a playlist and lifts the format records into the domain type.
func parseInfo(data []byte) (*Info, error) {
	var raw rawInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}

	if raw.Type == "playlist" || len(raw.Entries) > 0 {
		info := &Info{Title: raw.Title, IsPlaylist: true}
		for _, e := range raw.Entries {
			u := e.URL
			if u == "" {
				u = e.WebpageURL
			}
			info.Entries = append(info.Entries, Entry{URL: u, Title: e.Title})
		}
		return info, nil
	}

	info := &Info{
		Title:        raw.Title,
		Duration:     raw.Duration,
		Thumbnail:    raw.Thumbnail,
		HasSubtitles: len(raw.Subtitles) > 0 || len(raw.AutomaticCaptions) > 0,
		Formats:      make([]media.Format, 0, len(raw.Formats)),
	}
	for _, f := range raw.Formats {
		m := media.Format{
			ID:         f.FormatID,
			VideoCodec: f.VCodec,
			AudioCodec: f.ACodec,
			Ext:        f.Ext,
			Protocol:   f.Protocol,
			URL:        f.URL,
		}
		if f.Height != nil {
			m.Height = *f.Height
		}
		if f.TBR != nil {
			m.Bitrate = *f.TBR
		}
		info.Formats = append(info.Formats, m)
	}

	return info, nil
}

// DownloadSubtitles fetches the subtitle track for lang as SRT, trying
// authored tracks first and auto-generated captions as a fallback. The
// returned name is the file name yt-dlp derived from the title.
func (c *Client) DownloadSubtitles(ctx context.Context, url, lang string) ([]byte, string, error) {
	tmpdir, err := os.MkdirTemp("", "mediaproxy-subs-")
	if err != nil {
		return nil, "", fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(tmpdir)

	args := c.baseArgs()
	args = append(args,
		"--skip-download",
		"--no-playlist",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", lang,
		"--convert-subs", "srt",
		"-o", filepath.Join(tmpdir, "%(title)s.%(ext)s"),
		url,
	)

	cmd := exec.CommandContext(ctx, c.cfg.BinaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, "", &media.ExtractionError{URL: url, Err: commandError(err, &stderr)}
	}

	files, _ := filepath.Glob(filepath.Join(tmpdir, "*.srt"))
	if len(files) == 0 {
		return nil, "", media.ErrNoSubtitles
	}

	content, err := os.ReadFile(files[0])
	if err != nil {
		return nil, "", fmt.Errorf("read subtitle file: %w", err)
	}
	return content, filepath.Base(files[0]), nil
}

// StagedDownload hands the whole fetch-and-mux to yt-dlp, writing a complete
// file into destDir. Returns the path of the produced file.
func (c *Client) StagedDownload(ctx context.Context, plan media.Plan, destDir string) (string, error) {
	args := c.baseArgs()
	args = append(args,
		"--no-playlist",
		"-f", plan.FormatSpec,
		"-o", filepath.Join(destDir, "media.%(ext)s"),
	)
	if plan.Mode == media.ModeAudio {
		args = append(args,
			"--extract-audio",
			"--audio-format", "mp3",
			"--audio-quality", fmt.Sprintf("%dk", plan.AudioBitrate),
		)
	} else if plan.MergeContainer != "" {
		args = append(args, "--merge-output-format", plan.MergeContainer)
	}
	args = append(args, plan.SourceURL)

	cmd := exec.CommandContext(ctx, c.cfg.BinaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", commandError(err, &stderr)
	}

	return pickOutputFile(destDir)
}

// pickOutputFile finds the file yt-dlp produced, preferring common playable
// containers when the merge step left more than one.
func pickOutputFile(dir string) (string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "media.*"))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no output file produced in %s", dir)
	}
	sort.SliceStable(files, func(i, j int) bool {
		pi, pj := extPriority(filepath.Ext(files[i])), extPriority(filepath.Ext(files[j]))
		if pi == pj {
			return files[i] < files[j]
		}
		return pi < pj
	})
	return files[0], nil
}

func extPriority(ext string) int {
	switch strings.ToLower(ext) {
	case ".mp4":
		return 0
	case ".webm":
		return 1
	case ".mkv":
		return 2
	case ".mp3":
		return 3
	default:
		return 100
	}
}

func (c *Client) baseArgs() []string {
	args := []string{"--no-warnings"}
	if c.cfg.UserAgent != "" {
		args = append(args, "--user-agent", c.cfg.UserAgent)
	}
	if c.cfg.CookieFile != "" {
		args = append(args, "--cookies", c.cfg.CookieFile)
	}
	if c.cfg.Retries > 0 {
		args = append(args, "--retries", fmt.Sprintf("%d", c.cfg.Retries))
	}
	args = append(args, c.cfg.ExtraArgs...)
	return args
}

func commandError(err error, stderr *bytes.Buffer) error {
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return fmt.Errorf("%w: %s", err, msg)
	}
	return err
}
