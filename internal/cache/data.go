package cache

import (
	"time"

	"github.com/rohmanhakim/vid-fetcher/internal/extractor"
	"github.com/rohmanhakim/vid-fetcher/internal/normalize"
)

// Entry is one persisted cache row: the record plus bookkeeping about
// when and from what body it was produced.
type Entry struct {
	key         normalize.VideoKey
	record      extractor.VideoRecord
	contentHash string
	fetchedAt   time.Time
}

func (e Entry) Key() normalize.VideoKey {
	return e.key
}

func (e Entry) Record() extractor.VideoRecord {
	return e.record
}

func (e Entry) ContentHash() string {
	return e.contentHash
}

func (e Entry) FetchedAt() time.Time {
	return e.fetchedAt
}

// recordDTO is the serialized row format. It exists so VideoRecord can
// keep unexported fields while the store round-trips through JSON.
type recordDTO struct {
	Key              string    `json:"key"`
	Title            string    `json:"title"`
	ChannelName      string    `json:"channelName"`
	ChannelID        string    `json:"channelId"`
	ViewCount        uint64    `json:"viewCount"`
	DurationSeconds  int64     `json:"durationSeconds"`
	UploadDate       time.Time `json:"uploadDate"`
	Category         string    `json:"category,omitempty"`
	ThumbnailURL     string    `json:"thumbnailUrl,omitempty"`
	Keywords         []string  `json:"keywords,omitempty"`
	ShortDescription string    `json:"shortDescription,omitempty"`
	IsLive           bool      `json:"isLive,omitempty"`
	IsFamilySafe     bool      `json:"isFamilySafe"`
}

func toRecordDTO(record extractor.VideoRecord) recordDTO {
	p := record.Param()
	return recordDTO{
		Key:              p.Key.String(),
		Title:            p.Title,
		ChannelName:      p.ChannelName,
		ChannelID:        p.ChannelID,
		ViewCount:        p.ViewCount,
		DurationSeconds:  p.DurationSeconds,
		UploadDate:       p.UploadDate,
		Category:         p.Category,
		ThumbnailURL:     p.ThumbnailURL,
		Keywords:         p.Keywords,
		ShortDescription: p.ShortDescription,
		IsLive:           p.IsLive,
		IsFamilySafe:     p.IsFamilySafe,
	}
}

func fromRecordDTO(dto recordDTO) extractor.VideoRecord {
	return extractor.NewVideoRecord(extractor.VideoRecordParam{
		Key:              normalize.VideoKey(dto.Key),
		Title:            dto.Title,
		ChannelName:      dto.ChannelName,
		ChannelID:        dto.ChannelID,
		ViewCount:        dto.ViewCount,
		DurationSeconds:  dto.DurationSeconds,
		UploadDate:       dto.UploadDate,
		Category:         dto.Category,
		ThumbnailURL:     dto.ThumbnailURL,
		Keywords:         dto.Keywords,
		ShortDescription: dto.ShortDescription,
		IsLive:           dto.IsLive,
		IsFamilySafe:     dto.IsFamilySafe,
	})
}

// NewEntryForTest creates an Entry for testing purposes.
func NewEntryForTest(
	record extractor.VideoRecord,
	contentHash string,
	fetchedAt time.Time,
) Entry {
	return Entry{
		key:         record.Key(),
		record:      record,
		contentHash: contentHash,
		fetchedAt:   fetchedAt,
	}
}
