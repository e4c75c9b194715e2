package media

import "strings"

// CodecTiers orders video codec families from most to least preferred.
// Each entry is a list of substrings matched against the reported codec.
type CodecTiers [][]string

// DefaultCodecTiers prefers modern, efficient codecs.
var DefaultCodecTiers = CodecTiers{
	{"av01"},
	{"vp9", "vp09"},
	{"avc1", "h264"},
}

// rank returns the tier index for a codec, len(t) when unranked.
func (t CodecTiers) rank(codec string) int {
	codec = strings.ToLower(codec)
	for i, names := range t {
		for _, name := range names {
			if strings.Contains(codec, name) {
				return i
			}
		}
	}
	return len(t)
}

// score orders formats within one height: codec tier first, declared
// bitrate as the tie-break. Higher is better.
func (t CodecTiers) score(f Format) float64 {
	tier := len(t) - t.rank(f.VideoCodec)
	return float64(tier)*1e6 + f.Bitrate
}

// Selection is the outcome of format selection for one request.
type Selection struct {
	Video *Format // nil for audio-only requests
	Audio *Format // nil when the video track is already muxed or no separate audio exists
	// Height is the actual height chosen, used for encode-quality decisions.
	Height int
}

// SelectVideoAndAudio picks the best video track for targetHeight and, when
// that track carries no audio, pairs it with the best compatible audio-only
// track for the output container.
//
// Priority: exact height match, then the closest height below the target,
// then the closest above; the best-scored format overall is the last
// resort. It fails only when the catalog has no video formats at all.
func SelectVideoAndAudio(c *Catalog, targetHeight int, container Container, tiers CodecTiers) (Selection, error) {
	vids := c.VideoFormats()
	if len(vids) == 0 {
		return Selection{}, ErrNoPlayableStream
	}
	if targetHeight <= 0 {
		targetHeight = DefaultHeight
	}

	// Restrict to the preferred container only when that leaves candidates.
	if ext := container.Ext(); ext != "" {
		var matching []Format
		for _, f := range vids {
			if strings.EqualFold(f.Ext, ext) {
				matching = append(matching, f)
			}
		}
		if len(matching) > 0 {
			vids = matching
		}
	}

	var exact, below, above []Format
	for _, f := range vids {
		switch {
		case f.Height == targetHeight:
			exact = append(exact, f)
		case f.Height < targetHeight:
			below = append(below, f)
		default:
			above = append(above, f)
		}
	}

	var chosen Format
	switch {
	case len(exact) > 0:
		chosen = bestScored(exact, tiers)
	case len(below) > 0:
		// Never exceed the requested height while a lower option exists.
		chosen = bestAtHeight(below, maxHeight(below), tiers)
	case len(above) > 0:
		chosen = bestAtHeight(above, minHeight(above), tiers)
	default:
		// Unreachable with the partition above, but kept as the guarantee
		// that a non-empty video set always yields a playable format.
		chosen = bestScored(vids, tiers)
	}

	sel := Selection{Video: &chosen, Height: chosen.Height}
	if !chosen.HasAudio() {
		if audio := pairAudio(c.AudioOnlyFormats(), container); audio != nil {
			sel.Audio = audio
		}
	}
	return sel, nil
}

// SelectAudioOnly picks the highest-declared-bitrate format carrying audio.
// Ties keep the first-seen candidate.
func SelectAudioOnly(c *Catalog) (Selection, error) {
	var best *Format
	for i := range c.Formats() {
		f := &c.Formats()[i]
		if !f.HasAudio() {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}
	if best == nil {
		return Selection{}, ErrNoPlayableStream
	}
	chosen := *best
	return Selection{Audio: &chosen}, nil
}

// pairAudio picks the separate audio track for the chosen container:
// the codec family native to the container when available, otherwise the
// highest-bitrate candidate of any codec. Returns nil when none exist.
func pairAudio(audioOnly []Format, container Container) *Format {
	if len(audioOnly) == 0 {
		return nil
	}
	var family []string
	switch container {
	case ContainerWebM:
		family = []string{"opus", "vorbis"}
	case ContainerMP4:
		family = []string{"mp4a", "aac"}
	}

	var matching []Format
	for _, f := range audioOnly {
		for _, name := range family {
			if strings.Contains(strings.ToLower(f.AudioCodec), name) {
				matching = append(matching, f)
				break
			}
		}
	}
	pool := audioOnly
	if len(matching) > 0 {
		pool = matching
	}

	best := pool[0]
	for _, f := range pool[1:] {
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}
	return &best
}

func bestScored(formats []Format, tiers CodecTiers) Format {
	best := formats[0]
	for _, f := range formats[1:] {
		if tiers.score(f) > tiers.score(best) {
			best = f
		}
	}
	return best
}

func bestAtHeight(formats []Format, height int, tiers CodecTiers) Format {
	var pool []Format
	for _, f := range formats {
		if f.Height == height {
			pool = append(pool, f)
		}
	}
	return bestScored(pool, tiers)
}

func maxHeight(formats []Format) int {
	h := formats[0].Height
	for _, f := range formats[1:] {
		if f.Height > h {
			h = f.Height
		}
	}
	return h
}

func minHeight(formats []Format) int {
	h := formats[0].Height
	for _, f := range formats[1:] {
		if f.Height < h {
			h = f.Height
		}
	}
	return h
}
