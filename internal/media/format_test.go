package media

import "testing"

func TestNewCatalogDerivedViews(t *testing.T) {
	raw := []Format{
		{ID: "v1", VideoCodec: "avc1", AudioCodec: "none", Height: 720, Ext: "mp4"},
		{ID: "v-no-height", VideoCodec: "avc1", AudioCodec: "none", Ext: "mp4"},
		{ID: "a1", VideoCodec: "none", AudioCodec: "opus", Ext: "webm"},
		{ID: "muxed", VideoCodec: "avc1", AudioCodec: "mp4a", Height: 360, Ext: "mp4"},
		{ID: "storyboard", VideoCodec: "none", AudioCodec: "none", Ext: "mhtml"},
		{VideoCodec: "avc1", AudioCodec: "none", Height: 1080}, // no ID
	}

	c := NewCatalog(raw)

	if got := len(c.VideoFormats()); got != 2 {
		t.Errorf("VideoFormats() len = %d, want 2", got)
	}
	for _, f := range c.VideoFormats() {
		if f.Height <= 0 {
			t.Errorf("video format %s has no height", f.ID)
		}
	}

	if got := len(c.AudioOnlyFormats()); got != 1 {
		t.Errorf("AudioOnlyFormats() len = %d, want 1", got)
	}
	if c.AudioOnlyFormats()[0].ID != "a1" {
		t.Errorf("audio-only = %s, want a1", c.AudioOnlyFormats()[0].ID)
	}

	// Records failing the view filters stay in the full list.
	if got := len(c.Formats()); got != 5 {
		t.Errorf("Formats() len = %d, want 5", got)
	}
}

func TestNewCatalogDoesNotMutateInput(t *testing.T) {
	raw := []Format{
		{ID: "v1", VideoCodec: "avc1", AudioCodec: "none", Height: 720},
	}
	NewCatalog(raw)
	if raw[0].ID != "v1" || raw[0].Height != 720 {
		t.Error("input slice was mutated")
	}
}

func TestFormatTrackPredicates(t *testing.T) {
	tests := []struct {
		name     string
		f        Format
		hasVideo bool
		hasAudio bool
	}{
		{"muxed", Format{VideoCodec: "avc1", AudioCodec: "mp4a"}, true, true},
		{"video only", Format{VideoCodec: "vp9", AudioCodec: "none"}, true, false},
		{"audio only", Format{VideoCodec: "none", AudioCodec: "opus"}, false, true},
		{"empty codecs", Format{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.HasVideo(); got != tt.hasVideo {
				t.Errorf("HasVideo() = %v, want %v", got, tt.hasVideo)
			}
			if got := tt.f.HasAudio(); got != tt.hasAudio {
				t.Errorf("HasAudio() = %v, want %v", got, tt.hasAudio)
			}
		})
	}
}
