package dto

type InfoRequest struct {
	URL string `json:"url" binding:"required"`
}

type VideoInfoResponse struct {
	Type         string  `json:"type"`
	Title        string  `json:"title"`
	Duration     float64 `json:"duration"`
	Thumbnail    string  `json:"thumbnail"`
	HasSubtitles bool    `json:"has_subtitles"`
}

type PlaylistEntry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type PlaylistInfoResponse struct {
	Type   string          `json:"type"`
	Title  string          `json:"title"`
	Count  int             `json:"count"`
	Videos []PlaylistEntry `json:"videos"`
}
