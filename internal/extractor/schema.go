package extractor

// Explicit schema for the slice of the upstream player response this
// pipeline consumes. Unknown fields are ignored by encoding/json;
// required fields are validated after unmarshalling, not guessed at.
//
// Numeric fields arrive as JSON strings upstream (viewCount,
// lengthSeconds) and are parsed after unmarshalling.

type playerResponse struct {
	VideoDetails videoDetails `json:"videoDetails"`
	Microformat  microformat  `json:"microformat"`
}

type videoDetails struct {
	VideoID          string        `json:"videoId"`
	Title            string        `json:"title"`
	LengthSeconds    string        `json:"lengthSeconds"`
	Keywords         []string      `json:"keywords"`
	ChannelID        string        `json:"channelId"`
	ShortDescription string        `json:"shortDescription"`
	Thumbnail        thumbnailList `json:"thumbnail"`
	ViewCount        string        `json:"viewCount"`
	Author           string        `json:"author"`
	IsLiveContent    bool          `json:"isLiveContent"`
}

type thumbnailList struct {
	Thumbnails []thumbnailEntry `json:"thumbnails"`
}

type thumbnailEntry struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type microformat struct {
	PlayerMicroformatRenderer playerMicroformatRenderer `json:"playerMicroformatRenderer"`
}

type playerMicroformatRenderer struct {
	UploadDate   string `json:"uploadDate"`
	Category     string `json:"category"`
	IsFamilySafe *bool  `json:"isFamilySafe"`
}
