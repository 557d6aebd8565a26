package extractor

import (
	"time"

	"github.com/rohmanhakim/vid-fetcher/internal/normalize"
)

// Canonical record boundary

// VideoRecord is the canonical, immutable metadata record for one video.
// A newer fetch replaces a record wholesale; fields are never merged.
type VideoRecord struct {
	key              normalize.VideoKey
	title            string
	channelName      string
	channelID        string
	viewCount        uint64
	durationSeconds  int64
	uploadDate       time.Time
	category         string
	thumbnailURL     string
	keywords         []string
	shortDescription string
	isLive           bool
	isFamilySafe     bool
}

// VideoRecordParam carries the fields of a VideoRecord across package
// boundaries (cache deserialization, tests). Optional fields left at
// their zero value become the record's empty sentinels.
type VideoRecordParam struct {
	Key              normalize.VideoKey
	Title            string
	ChannelName      string
	ChannelID        string
	ViewCount        uint64
	DurationSeconds  int64
	UploadDate       time.Time
	Category         string
	ThumbnailURL     string
	Keywords         []string
	ShortDescription string
	IsLive           bool
	IsFamilySafe     bool
}

func NewVideoRecord(p VideoRecordParam) VideoRecord {
	return VideoRecord{
		key:              p.Key,
		title:            p.Title,
		channelName:      p.ChannelName,
		channelID:        p.ChannelID,
		viewCount:        p.ViewCount,
		durationSeconds:  p.DurationSeconds,
		uploadDate:       p.UploadDate,
		category:         p.Category,
		thumbnailURL:     p.ThumbnailURL,
		keywords:         p.Keywords,
		shortDescription: p.ShortDescription,
		isLive:           p.IsLive,
		isFamilySafe:     p.IsFamilySafe,
	}
}

func (v VideoRecord) Key() normalize.VideoKey {
	return v.key
}

func (v VideoRecord) Title() string {
	return v.title
}

func (v VideoRecord) ChannelName() string {
	return v.channelName
}

func (v VideoRecord) ChannelID() string {
	return v.channelID
}

func (v VideoRecord) ViewCount() uint64 {
	return v.viewCount
}

func (v VideoRecord) DurationSeconds() int64 {
	return v.durationSeconds
}

func (v VideoRecord) UploadDate() time.Time {
	return v.uploadDate
}

func (v VideoRecord) Category() string {
	return v.category
}

func (v VideoRecord) ThumbnailURL() string {
	return v.thumbnailURL
}

func (v VideoRecord) Keywords() []string {
	keywords := make([]string, len(v.keywords))
	copy(keywords, v.keywords)
	return keywords
}

func (v VideoRecord) ShortDescription() string {
	return v.shortDescription
}

func (v VideoRecord) IsLive() bool {
	return v.isLive
}

func (v VideoRecord) IsFamilySafe() bool {
	return v.isFamilySafe
}

// Param converts the record back into its transferable form.
func (v VideoRecord) Param() VideoRecordParam {
	return VideoRecordParam{
		Key:              v.key,
		Title:            v.title,
		ChannelName:      v.channelName,
		ChannelID:        v.channelID,
		ViewCount:        v.viewCount,
		DurationSeconds:  v.durationSeconds,
		UploadDate:       v.uploadDate,
		Category:         v.category,
		ThumbnailURL:     v.thumbnailURL,
		Keywords:         v.Keywords(),
		ShortDescription: v.shortDescription,
		IsLive:           v.isLive,
		IsFamilySafe:     v.isFamilySafe,
	}
}
