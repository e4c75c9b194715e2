package media

// Format is one candidate encoding reported by the extractor for a media item.
// A codec of "none" (or empty) means the track is absent from the record.
type Format struct {
	ID         string
	VideoCodec string
	AudioCodec string
	Height     int     // pixels, 0 when not reported
	Bitrate    float64 // declared total bitrate, kbps, 0 when not reported
	Ext        string
	Protocol   string
	URL        string
}

// HasVideo reports whether the record carries a video track.
func (f Format) HasVideo() bool {
	return f.VideoCodec != "" && f.VideoCodec != "none"
}

// HasAudio reports whether the record carries an audio track.
func (f Format) HasAudio() bool {
	return f.AudioCodec != "" && f.AudioCodec != "none"
}

// Catalog holds the normalized format list for one media item. It is built
// fresh per request and never cached; derived views are precomputed once.
type Catalog struct {
	all       []Format
	video     []Format
	audioOnly []Format
}

// NewCatalog filters raw extractor records into a catalog. Video candidates
// need a reported height; audio-only candidates need an audio codec and no
// video codec. Records failing both filters are still retained in the full
// list for the audio-only selection path. The input slice is not mutated.
func NewCatalog(raw []Format) *Catalog {
	c := &Catalog{all: make([]Format, 0, len(raw))}
	for _, f := range raw {
		if f.ID == "" {
			continue
		}
		c.all = append(c.all, f)
		if f.HasVideo() && f.Height > 0 {
			c.video = append(c.video, f)
		} else if f.HasAudio() && !f.HasVideo() {
			c.audioOnly = append(c.audioOnly, f)
		}
	}
	return c
}

// VideoFormats returns candidates with a video track and a known height.
func (c *Catalog) VideoFormats() []Format { return c.video }

// AudioOnlyFormats returns candidates with audio but no video track.
func (c *Catalog) AudioOnlyFormats() []Format { return c.audioOnly }

// Formats returns every retained record.
func (c *Catalog) Formats() []Format { return c.all }
